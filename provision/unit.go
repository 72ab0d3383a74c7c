package provision

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/samber/lo"
)

//go:embed assets/units/*.tmpl
var unitTemplates embed.FS

const (
	xgraphicUnitTemplate = "assets/units/mqtt.ipc.xgraphic.service.tmpl"
	kioskUnitTemplate    = "assets/units/ipc.kiosk.service.tmpl"
)

// UnitData is substituted into unit templates.
type UnitData struct {
	User     string
	Home     string
	BasePath string
}

func (p *Provisioner) unitData() UnitData {
	return UnitData{
		User:     p.settings.User,
		Home:     p.settings.Home,
		BasePath: p.settings.BasePath,
	}
}

// LoadUnitTemplate returns the body of an embedded unit template.
func LoadUnitTemplate(name string) (string, error) {
	b, err := unitTemplates.ReadFile(name)
	if err != nil {
		return "", errors.Join(ErrTemplate, err)
	}
	return string(b), nil
}

// RenderUnit substitutes data into body and returns the unit in canonical form. The
// output must parse as a unit, carry a [Service] ExecStart and contain no leftover
// placeholders.
func RenderUnit(body string, data UnitData) (string, error) {
	if strings.TrimSpace(data.User) == "" {
		return "", errors.Join(ErrTemplate, errors.New("runtime user is empty"))
	}

	tmpl, err := template.New("unit").Option("missingkey=error").Parse(body)
	if err != nil {
		return "", errors.Join(ErrTemplate, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrTemplate, err)
	}

	opts, err := unit.Deserialize(&buf)
	if err != nil {
		return "", errors.Join(ErrTemplate, fmt.Errorf("rendered unit does not parse: %w", err))
	}

	if _, ok := lo.Find(opts, func(o *unit.UnitOption) bool {
		return o.Section == "Service" && o.Name == "ExecStart"
	}); !ok {
		return "", errors.Join(ErrTemplate, errors.New("rendered unit has no [Service] ExecStart"))
	}

	if leftover, ok := lo.Find(opts, func(o *unit.UnitOption) bool {
		return strings.Contains(o.Value, "{{") || strings.Contains(o.Value, "}}")
	}); ok {
		return "", errors.Join(ErrTemplate, fmt.Errorf("placeholder left in %s=%s", leftover.Name, leftover.Value))
	}

	out, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return "", errors.Join(ErrTemplate, err)
	}
	return string(out), nil
}

// writeUnit renders the embedded template and writes it to dst, replacing whatever
// unit file the repository shipped.
func (p *Provisioner) writeUnit(templateName, dst string) error {
	body, err := LoadUnitTemplate(templateName)
	if err != nil {
		return err
	}

	rendered, err := RenderUnit(body, p.unitData())
	if err != nil {
		return fmt.Errorf("%s: %w", path.Base(templateName), err)
	}

	if err := os.WriteFile(dst, []byte(rendered), 0o644); err != nil {
		return errors.Join(ErrTemplate, fmt.Errorf("write %s: %w", dst, err))
	}
	return nil
}
