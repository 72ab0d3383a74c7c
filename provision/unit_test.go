package provision

import (
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

var alice = UnitData{User: "alice", Home: "/home/alice", BasePath: "/usr/local/device"}

func TestRenderXGraphicUnitForAlice(t *testing.T) {
	body, err := LoadUnitTemplate(xgraphicUnitTemplate)
	require.NoError(t, err)

	rendered, err := RenderUnit(body, alice)
	require.NoError(t, err)

	assert.Contains(t, rendered, `Environment="XAUTHORITY=/home/alice/.Xauthority"`)
	assert.Contains(t, rendered, "User=alice")
	assert.Contains(t, rendered, "ExecStart=/usr/local/device/nodejs/ipc.xgraphic/application.sh start")
	assert.NotContains(t, rendered, "{{")
	assert.NotContains(t, rendered, "infomedia")

	opts, err := unit.Deserialize(strings.NewReader(rendered))
	require.NoError(t, err)
	var users []string
	for _, o := range opts {
		if o.Section == "Service" && o.Name == "User" {
			users = append(users, o.Value)
		}
	}
	assert.Equal(t, []string{"alice"}, users)
}

func TestRenderKioskUnit(t *testing.T) {
	body, err := LoadUnitTemplate(kioskUnitTemplate)
	require.NoError(t, err)

	rendered, err := RenderUnit(body, UnitData{User: "pi", Home: "/home/pi", BasePath: "/opt/device"})
	require.NoError(t, err)
	assert.Contains(t, rendered, "ExecStart=/opt/device/services/kiosk/application.sh start")
	assert.Contains(t, rendered, "User=pi")
}

func TestRenderUnitRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
		data UnitData
	}{
		{"empty user", "[Service]\nExecStart=/bin/true\nUser={{.User}}\n", UnitData{}},
		{"unknown field", "[Service]\nExecStart=/bin/true\nUser={{.Owner}}\n", alice},
		{"broken template", "[Service]\nExecStart={{.User\n", alice},
		{"no ExecStart", "[Service]\nUser={{.User}}\n", alice},
		{"leftover placeholder", "[Service]\nExecStart=/bin/true\nUser={{`{{.User}}`}}\n", alice},
		{"not a unit", "[Service\nExecStart=/bin/true\n", alice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderUnit(tt.body, tt.data)
			require.ErrorIs(t, err, ErrTemplate)
		})
	}
}

func TestLoadUnitTemplateUnknown(t *testing.T) {
	_, err := LoadUnitTemplate("assets/units/none.tmpl")
	require.ErrorIs(t, err, ErrTemplate)
}

func TestWriteAutostart(t *testing.T) {
	f := newFixture(t)

	path, err := f.p.WriteAutostart(AutostartEntry{
		Name:  "kiosk",
		Title: "Kiosk",
		Exec:  "chromium-browser --kiosk " + kioskURL,
	})
	require.NoError(t, err)
	assert.Equal(t, f.p.AutostartPath("kiosk"), path)

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	section := cfg.Section("Desktop Entry")
	assert.Equal(t, "Application", section.Key("Type").String())
	assert.Equal(t, "chromium-browser --kiosk http://localhost:8080", section.Key("Exec").String())
	assert.False(t, section.HasKey("Comment"))
}

func TestWriteAutostartNeedsCommand(t *testing.T) {
	f := newFixture(t)
	_, err := f.p.WriteAutostart(AutostartEntry{Name: "kiosk"})
	require.ErrorIs(t, err, ErrAutostart)
}
