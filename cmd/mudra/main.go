package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/deck"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	log.Init(cfg.Log.Level)

	if err := run(cfg); err != nil {
		log.Error("mudra failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := deck.OpenFile(cfg.Audio.Path)
	if err != nil {
		return fmt.Errorf("audio asset: %w", err)
	}
	dk, err := deck.New(out)
	if err != nil {
		return err
	}
	defer dk.Close()

	clf, err := newClassifier(cfg)
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	defer clf.Close()

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	table, err := loadTable(cfg, st)
	if err != nil {
		return err
	}
	settings := st.Settings()
	table.SetThreshold(settings.Float(store.SettingThreshold, *cfg.Recognition.Threshold))
	enabled := settings.Bool(store.SettingEnabled, *cfg.Recognition.Enabled)

	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.Warn("discovering plugins", "dir", cfg.Plugins.Dir, "error", err)
	}
	host := plugin.NewHost(plugins, plugin.NewExecutor(time.Duration(cfg.Plugins.TimeoutMs)*time.Millisecond))

	camera := capture.NewCameraWithConfig(capture.CameraConfig{
		DeviceID: cfg.Camera.Device,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.FPS,
	})
	grabber := capture.NewGrabber(camera)
	if err := grabber.Start(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	defer grabber.Stop()

	var motion *capture.MotionGate
	if cfg.Recognition.MotionThreshold > 0 {
		motion = capture.NewMotionGate(cfg.Recognition.MotionThreshold)
		defer motion.Close()
	}

	presenters := app.MultiPresenter{app.NewLogPresenter()}
	var tr *tray.Tray
	if cfg.UI.Tray {
		tr = tray.New(enabled)
		presenters = append(presenters, tr)
	}

	a, err := app.New(app.Config{
		Source:      grabber,
		Classifier:  clf,
		Deck:        dk,
		Table:       table,
		Presenter:   presenters,
		Events:      st.Events(),
		Hooks:       st.Hooks(),
		Plugins:     host,
		Settings:    settings,
		Motion:      motion,
		FPS:         cfg.Recognition.FPS,
		MaxInFlight: cfg.Recognition.MaxInFlight,
		Disabled:    !enabled,
	})
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	hub := server.NewStatusHub(a, server.DefaultBroadcastInterval)
	go hub.Run(ctx)

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		App:       a,
		Source:    grabber,
		Plugins:   plugins,
		Hub:       hub,
	})
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Serve(ctx, cfg.Server.Addr)
	}()

	if tr != nil {
		tr.OnToggle(a.SetEnabled)
		tr.OnOpen(func() { openBrowser(cfg.Server.Addr) })
		tr.OnQuit(stop)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
		stop()
	} else {
		select {
		case <-ctx.Done():
		case err := <-srvErr:
			stop()
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		}
	}

	log.Info("shutting down")
	if err := <-srvErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func newClassifier(cfg *config.Config) (classifier.Classifier, error) {
	switch cfg.Classifier.Type {
	case config.ClassifierSubprocess:
		return classifier.NewSubprocessClassifier(cfg.Classifier.Command, cfg.IdleTimeout())
	case config.ClassifierMock:
		return classifier.NewMockClassifier(), nil
	case config.ClassifierONNX:
		oc := classifier.DefaultONNXConfig()
		oc.ModelPath = cfg.Classifier.Model
		oc.LabelsPath = cfg.Classifier.Labels
		oc.InputWidth = cfg.Classifier.InputWidth
		oc.InputHeight = cfg.Classifier.InputHeight
		return classifier.NewONNXClassifier(oc)
	default:
		return nil, fmt.Errorf("unknown classifier type %q", cfg.Classifier.Type)
	}
}

// loadTable seeds the stored bindings from the config on first run and
// builds the decision table from what is stored.
func loadTable(cfg *config.Config, st *store.Store) (*gesture.Table, error) {
	seeded, err := st.Bindings().Seed(cfg.Recognition.Labels)
	if err != nil {
		return nil, fmt.Errorf("seed bindings: %w", err)
	}
	if seeded {
		log.Info("seeded label bindings", "count", len(cfg.Recognition.Labels))
	}

	stored, err := st.Bindings().Map()
	if err != nil {
		return nil, fmt.Errorf("load bindings: %w", err)
	}

	var errs []error
	labels := make(map[string]gesture.Symbol, len(stored))
	for label, name := range stored {
		s, err := gesture.ParseSymbol(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("binding %q: %w", label, err))
			continue
		}
		labels[label] = s
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("skipping invalid bindings", "error", err)
	}

	return gesture.NewTable(*cfg.Recognition.Threshold, labels), nil
}

func openBrowser(addr string) {
	url := "http://localhost" + addr
	if len(addr) > 0 && addr[0] != ':' {
		url = "http://" + addr
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("opening browser", "url", url, "error", err)
	}
}
