package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

type Action int

const (
	IPCControl Action = iota
	IPCXGraphic
	Dispenser
	Kiosk
	VMachine
	Locker
)

var actionNames = map[Action]string{
	IPCControl:  "ipc.control",
	IPCXGraphic: "ipc.xgraphic",
	Dispenser:   "dispenser",
	Kiosk:       "kiosk",
	VMachine:    "vmachine",
	Locker:      "locker",
}

var actionDescriptions = map[Action]string{
	IPCControl:  "MQTT control interface (Node.js)",
	IPCXGraphic: "MQTT graphical interface, runs in the user's X session",
	Dispenser:   "Dispenser controller (Python)",
	Kiosk:       "Local web front-end shown in a full screen browser",
	VMachine:    "Vending machine (not available yet)",
	Locker:      "Locker (not available yet)",
}

func AllActions() []Action {
	return []Action{IPCControl, IPCXGraphic, Dispenser, Kiosk, VMachine, Locker}
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) Description() string {
	return actionDescriptions[a]
}

// ParseAction resolves an action name, ignoring case and surrounding space.
func ParseAction(name string) (Action, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, a := range AllActions() {
		if actionNames[a] == needle {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAction, name,
		strings.Join(lo.Map(AllActions(), func(a Action, _ int) string { return a.String() }), ", "))
}

// Report describes what an action did.
type Report struct {
	Action    Action
	Sync      SyncResult
	Copied    []string
	Unit      string
	Autostart string
	Notes     []string
}

const (
	ipcControlRepo  = "https://mqtt.infomediaservice.com/git/nodejs/ipc.control.git"
	ipcXGraphicRepo = "https://mqtt.infomediaservice.com/git/nodejs/ipc.xgraphic.git"
	dispenserRepo   = "https://iot.infomediaservice.com/git/python/dispenser-2.4.git"
	kioskRepo       = "https://mqtt.infomediaservice.com/git/nodejs/ipc.kiosk.git"

	kioskURL = "http://localhost:8080"
)

const dispenserNote = `Remember to adjust dispenser.json to the machine this device is mounted on.
The dispenser hardware must be installed and connected for the service to work.`

// product is the fixed recipe shared by the installable actions. Paths are relative to
// the base path.
type product struct {
	dirs       []string
	repoURL    string
	repoPath   string
	sourceDir  string // below repoPath, where the service files live
	serviceDir string
	files      []string
	tree       string // directory below sourceDir copied as a whole
	unit       string // file name inside serviceDir
	template   string // embedded unit template overwriting the copied unit
	afterSync  func(ctx context.Context, checkout string) error
}

// Run executes the handler of action. Every variant has its own case.
func (p *Provisioner) Run(ctx context.Context, action Action) (*Report, error) {
	l := p.log.With(slog.String("action", action.String()))
	l.Info("Running action")

	switch action {
	case IPCControl:
		return p.installProduct(ctx, action, product{
			dirs:       []string{"nodejs", "services", "services/ipc.control"},
			repoURL:    ipcControlRepo,
			repoPath:   "nodejs/ipc.control",
			serviceDir: "services/ipc.control",
			files:      []string{"application.sh", "config/ipc.control.json", "mqtt.ipc.control.service"},
			unit:       "mqtt.ipc.control.service",
		})
	case IPCXGraphic:
		return p.installProduct(ctx, action, product{
			dirs:       []string{"nodejs", "services", "services/ipc.xgraphic"},
			repoURL:    ipcXGraphicRepo,
			repoPath:   "nodejs/ipc.xgraphic",
			serviceDir: "services/ipc.xgraphic",
			files:      []string{"application.sh", "config/ipc.xgraphic.json", "mqtt.ipc.xgraphic.service", "ipc.xgraphic.pid"},
			unit:       "mqtt.ipc.xgraphic.service",
			template:   xgraphicUnitTemplate,
		})
	case Dispenser:
		report, err := p.installProduct(ctx, action, product{
			dirs:       []string{"python", "services", "services/dispenser"},
			repoURL:    dispenserRepo,
			repoPath:   "python/dispenser",
			sourceDir:  "bash",
			serviceDir: "services/dispenser",
			files:      []string{"dispenser.sh", "dispenser.json", "dispenser.service"},
			unit:       "dispenser.service",
		})
		if err != nil {
			return report, err
		}
		report.Notes = append(report.Notes, dispenserNote)
		return report, nil
	case Kiosk:
		return p.installKiosk(ctx)
	case VMachine, Locker:
		l.Info("Action is not available yet, nothing to do")
		return &Report{
			Action: action,
			Notes:  []string{fmt.Sprintf("%s is not available yet, nothing was installed.", action)},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (p *Provisioner) installProduct(ctx context.Context, action Action, recipe product) (*Report, error) {
	report := &Report{Action: action}

	if _, err := p.EnsureWorkspace(ctx); err != nil {
		return report, err
	}
	if err := p.CreateDirectories(recipe.dirs...); err != nil {
		return report, err
	}

	sync, err := p.SyncRepository(ctx, recipe.repoPath, recipe.repoURL)
	if err != nil {
		return report, err
	}
	report.Sync = sync

	if recipe.afterSync != nil {
		if err := recipe.afterSync(ctx, p.path(recipe.repoPath)); err != nil {
			return report, err
		}
	}

	src := p.path(recipe.repoPath, recipe.sourceDir)
	dst := p.path(recipe.serviceDir)

	if recipe.tree != "" {
		if err := p.CopyTree(filepath.Join(src, recipe.tree), filepath.Join(dst, recipe.tree)); err != nil {
			return report, err
		}
		report.Copied = append(report.Copied, recipe.tree+"/")
	}

	copied, err := p.CopyFiles(recipe.files, src, dst)
	report.Copied = append(report.Copied, copied...)
	if err != nil {
		return report, err
	}

	unitPath := filepath.Join(dst, recipe.unit)
	if recipe.template != "" {
		if err := p.writeUnit(recipe.template, unitPath); err != nil {
			return report, err
		}
		p.log.Info("Unit rendered", slog.String("path", unitPath), slog.String("user", p.settings.User))
	}

	if err := p.RegisterService(ctx, unitPath); err != nil {
		return report, err
	}
	report.Unit = unitPath

	return report, nil
}

func (p *Provisioner) installKiosk(ctx context.Context) (*Report, error) {
	report, err := p.installProduct(ctx, Kiosk, product{
		dirs:       []string{"nodejs", "services", "services/kiosk"},
		repoURL:    kioskRepo,
		repoPath:   "nodejs/kiosk",
		serviceDir: "services/kiosk",
		files:      []string{"application.sh"},
		tree:       "public",
		unit:       "ipc.kiosk.service",
		template:   kioskUnitTemplate,
		afterSync:  p.installNodeModules,
	})
	if err != nil {
		return report, err
	}

	entry, err := p.WriteAutostart(AutostartEntry{
		Name:    "kiosk",
		Title:   "Kiosk",
		Comment: "Full screen browser on the local kiosk front-end",
		Exec:    "chromium-browser --kiosk --noerrdialogs --disable-infobars " + kioskURL,
	})
	if err != nil {
		return report, err
	}
	report.Autostart = entry

	return report, nil
}

func (p *Provisioner) installNodeModules(ctx context.Context, checkout string) error {
	p.log.Info("Installing runtime dependencies", slog.String("path", checkout))
	if err := p.runner.Run(ctx, "npm", "install", "--omit=dev", "--prefix", checkout); err != nil {
		return errors.Join(ErrDependencies, err)
	}
	return nil
}
