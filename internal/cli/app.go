package cli

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/api"
	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/core"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/http"
	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/notify"
	"github.com/instantshare/instantshare/internal/theme"
)

// loadConfig resolves the configuration: defaults, file, environment, then
// the --server flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if http.NeedsProxyPassword(cfg) {
		pw, err := readPassword(fmt.Sprintf("Proxy password for %s", cfg.ProxyUser))
		if err != nil {
			return nil, err
		}
		cfg.ProxyPassword = pw
	}
	return cfg, nil
}

// app is a controller plus the resources behind it.
type app struct {
	cfg    *config.Config
	ctl    *core.Controller
	logger *logging.Logger
	sink   *logging.FileSink
}

// newApp builds a controller for cfg. In TUI mode nothing is logged to the
// terminal; the rotating file receives the log when enabled.
func newApp(cfg *config.Config, mode string) (*app, error) {
	bus := events.NewEventBus(constants.EventBusDefaultBuffer)

	log := GetLogger()
	if mode == logging.ModeTUI {
		log = logging.NewLogger(logging.ModeTUI, bus)
	}

	a := &app{cfg: cfg, logger: log}
	if cfg.FileLogging {
		sink, err := logging.OpenFileSink(config.LogDirectory())
		if err != nil {
			log.Warn().Err(err).Msg("File logging disabled")
		} else {
			a.sink = sink
			log.AttachFile(sink)
		}
	}

	client, err := api.NewClient(cfg, log)
	if err != nil {
		a.closeSink()
		bus.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	var desktop *notify.Desktop
	if cfg.DesktopNotifications {
		desktop = notify.NewDesktop(true, log)
	}

	fs := afero.NewOsFs()
	ctl, err := core.New(core.Options{
		Config:     cfg,
		Client:     client,
		Fs:         fs,
		Bus:        bus,
		Logger:     log,
		ThemeStore: theme.NewFileStore(fs, theme.DefaultPath(config.StateDirectory())),
		Desktop:    desktop,
	})
	if err != nil {
		a.closeSink()
		bus.Close()
		return nil, err
	}
	a.ctl = ctl
	return a, nil
}

// Close stops the controller and the event bus.
func (a *app) Close() {
	a.ctl.Close()
	a.ctl.Bus().Close()
	a.closeSink()
}

func (a *app) closeSink() {
	if a.sink != nil {
		_ = a.sink.Close()
	}
}
