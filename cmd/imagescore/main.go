package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"image-score-harness/internal/config"
	"image-score-harness/internal/controllers"
	"image-score-harness/internal/degrade"
	"image-score-harness/internal/frameclock"
	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/opencv/accel"
	"image-score-harness/internal/opencv/capture"
	"image-score-harness/internal/opencv/memory"
	"image-score-harness/internal/pipeline"
	"image-score-harness/internal/score"
	"image-score-harness/internal/shutdown"
	"image-score-harness/internal/sources"
	"image-score-harness/internal/surface"
	"image-score-harness/internal/views"
)

const (
	AppName    = "Image Score Harness"
	AppID      = "com.imagescore.harness"
	AppVersion = "1.0.0"

	WindowWidth  = 960
	WindowHeight = 560
)

// Application owns the long-lived components and their shutdown order
type Application struct {
	cfg      config.Config
	logger   logger.Logger
	shutdown *shutdown.Manager

	clock      *frameclock.Ticker
	registry   *sources.Registry
	backend    *accel.Backend
	controller *controllers.MainController
	metrics    *pipeline.Metrics
	promReg    *prometheus.Registry
}

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	application, err := NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.logger.Error("Application", err, nil)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) logger.Logger {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		return logger.NewJSONLogger(level)
	}
	return logger.NewConsoleLogger(level)
}

// NewApplication wires every component. Nothing runs until Run.
func NewApplication(cfg config.Config) (*Application, error) {
	log := newLogger(cfg)
	manager := shutdown.NewManager(log, shutdown.DefaultStepTimeout)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := pipeline.NewMetrics(promReg)

	pool := memory.NewPool(0)
	backend := accel.New(pool, log)

	clock := frameclock.NewTicker(cfg.RefreshRate)
	registry := sources.NewRegistry(sources.DeviceEnumerator{}, log)
	surfaces := surface.NewSet(surface.FileLoader{}, capture.NewOpener(log), log)

	controller, err := controllers.NewMainController(controllers.Options{
		Surfaces: surfaces,
		Clock:    clock,
		Scorer:   score.NewScorer(backend, log),
		Degrader: degrade.New(backend, log),
		Sources:  registry,
		Metrics:  metrics,
		Logger:   log,
		ImageURL: cfg.ImageURL,
		MovieURL: cfg.MovieURL,
		Params:   cfg.Params,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Application", "application initialized", map[string]interface{}{
		"version":    AppVersion,
		"go_version": runtime.Version(),
		"fps":        cfg.RefreshRate,
		"image":      cfg.ImageURL,
		"movie":      cfg.MovieURL,
		"headless":   cfg.Headless,
		"params":     fmt.Sprintf("%+v", cfg.Params),
	})

	return &Application{
		cfg:        cfg,
		logger:     log,
		shutdown:   manager,
		clock:      clock,
		registry:   registry,
		backend:    backend,
		controller: controller,
		metrics:    metrics,
		promReg:    promReg,
	}, nil
}

// Run starts the clock, device polling and the first pipeline, then blocks
// until shutdown
func (a *Application) Run() error {
	ctx := a.shutdown.Context()

	// registered first, stopped last
	a.shutdown.Register("frame clock", a.clock)
	a.shutdown.Register("opencv backend", a.backend)
	a.shutdown.Register("controller", a.controller)

	a.clock.Start(ctx)
	a.registry.Refresh()
	go a.registry.Run(ctx, a.cfg.DeviceRefresh)

	if a.cfg.MetricsAddr != "" {
		a.serveMetrics()
	}

	a.shutdown.Listen()

	if a.cfg.Headless {
		return a.runHeadless()
	}
	return a.runWindow()
}

func (a *Application) runHeadless() error {
	display := pipeline.NewLogDisplay(a.logger, pipeline.DefaultLogInterval)
	if err := a.controller.SetDisplay(display); err != nil {
		return err
	}
	if err := a.controller.Start(); err != nil {
		a.logger.Warning("Application", "initial input failed to bind", map[string]interface{}{
			"error": err.Error(),
		})
	}

	a.shutdown.Wait()
	return nil
}

func (a *Application) runWindow() error {
	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})
	fyneApp := app.NewWithID(AppID)

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(WindowWidth, WindowHeight))
	window.CenterOnScreen()

	view := views.NewMainView(window, a.controller.Params(), a.logger)

	if err := a.controller.SetDisplay(view); err != nil {
		return err
	}
	if err := a.controller.Start(); err != nil {
		view.ShowError(err)
	}
	view.Connect(a.controller)
	a.registry.OnChange(func([]models.Stream) { view.RefreshSources() })

	a.shutdown.Register("view", view)
	a.shutdown.Register("window", shutdown.Func(func() {
		fyne.Do(fyneApp.Quit)
	}))

	window.SetCloseIntercept(func() {
		a.logger.Info("Application", "window close requested", nil)
		go a.shutdown.Shutdown()
	})

	window.ShowAndRun()

	a.shutdown.Shutdown()
	return nil
}

func (a *Application) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{Registry: a.promReg}))

	server := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("Application", "serving metrics", map[string]interface{}{
			"addr": a.cfg.MetricsAddr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Application", err, map[string]interface{}{
				"addr": a.cfg.MetricsAddr,
			})
		}
	}()

	a.shutdown.Register("metrics server", shutdown.Func(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}))
}
