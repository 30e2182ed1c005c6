package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/concurrency/arwlock"
	"arwl/pkg/lockmetrics"
	"arwl/pkg/logging"
	"arwl/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

// Configuration holds the flags the demo program accepts.
type Configuration struct {
	MetricsAddr string
	LogLevel    string
	Readers     int
	Writers     int
	Sticky      int
}

func main() {
	config := parseArguments()
	if err := logging.Init(logging.Config{Level: logging.LogLevel(strings.ToUpper(config.LogLevel))}); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	showSplashScreen()

	registry := ambient.NewRegistry()
	collector := lockmetrics.NewCollector()
	model := ui.NewModelWithOptions(registry, arwlock.WithMetrics(collector))

	if config.MetricsAddr != "" {
		startMetricsServer(config.MetricsAddr, collector)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startBackgroundActors(ctx, model.Core(), registry, config)

	if err := startInteractiveMode(model); err != nil {
		log.Fatalf("failed to start UI: %v", err)
	}
}

// parseArguments processes command-line flags.
func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.MetricsAddr, "metrics-addr", "", "address to serve /metrics on, empty to disable")
	flag.StringVar(&config.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.IntVar(&config.Readers, "readers", 0, "number of background reader actors to run continuously alongside the dashboard")
	flag.IntVar(&config.Writers, "writers", 0, "number of background writer actors to run continuously alongside the dashboard")
	flag.IntVar(&config.Sticky, "sticky", 0, "number of background sticky-upgrade actors to run continuously alongside the dashboard")

	flag.Parse()

	return config
}

// showSplashScreen displays a brief welcome banner.
func showSplashScreen() {
	splash := `
╔══════════════════════════════════════════════════════╗
║                                                      ║
║     █████╗ ██████╗ ██╗    ██╗██╗                     ║
║    ██╔══██╗██╔══██╗██║    ██║██║                     ║
║    ███████║██████╔╝██║ █╗ ██║██║                     ║
║    ██╔══██║██╔══██╗██║███╗██║██║                     ║
║    ██║  ██║██║  ██║╚███╔███╔╝███████╗                ║
║    ╚═╝  ╚═╝╚═╝  ╚═╝ ╚══╝╚══╝ ╚══════╝                ║
║                                                      ║
║     Asynchronous Reader/Writer/Upgradeable Lock      ║
╚══════════════════════════════════════════════════════╝
`
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	fmt.Println(style.Render(splash))
	time.Sleep(500 * time.Millisecond)
}

// startMetricsServer exposes collector's Prometheus collectors on addr, in
// the background.
func startMetricsServer(addr string, collector *lockmetrics.Collector) {
	mux := http.NewServeMux()
	lockmetrics.NewExporter(collector).Register(mux)

	go func() {
		logging.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Error("metrics server stopped", "error", err)
		}
	}()
}

// startBackgroundActors spawns config.Readers/Writers/Sticky goroutines via
// an errgroup.Group that loop acquiring and releasing core until ctx is
// canceled, so the dashboard has steady background load to render even
// with no one at the keyboard. Actor failures (other than context
// cancellation) are logged but never abort the group, since one stalled
// actor should not take the whole demo down.
func startBackgroundActors(ctx context.Context, core *arwlock.LockCore, registry *ambient.Registry, cfg Configuration) {
	if cfg.Readers == 0 && cfg.Writers == 0 && cfg.Sticky == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)

	// The group's goroutines loop forever until gctx is canceled, so main
	// never calls g.Wait() — it would block past the point the dashboard
	// exits. errgroup.WithContext is used here purely for the cancellation
	// propagation it wires up automatically: canceling ctx (on program
	// exit) cancels gctx, which every actor's loop condition observes.
	spawn := func(n int, run func(ctx context.Context, task *ambient.Task) error) {
		for i := 0; i < n; i++ {
			task := ambient.NewTask()
			registry.Register(task)
			g.Go(func() error {
				defer registry.Remove(task.ID())
				for gctx.Err() == nil {
					if err := run(gctx, task); err != nil && gctx.Err() == nil {
						logging.Error("background actor iteration failed", "error", err)
						time.Sleep(50 * time.Millisecond)
					}
				}
				return nil
			})
		}
	}

	spawn(cfg.Readers, func(ctx context.Context, task *ambient.Task) error {
		return arwlock.Read(ctx, core, task, func(ctx context.Context) error {
			sleepJittered()
			return nil
		})
	})
	spawn(cfg.Writers, func(ctx context.Context, task *ambient.Task) error {
		return arwlock.Write(ctx, core, task, func(ctx context.Context) error {
			sleepJittered()
			return nil
		})
	})
	spawn(cfg.Sticky, func(ctx context.Context, task *ambient.Task) error {
		return arwlock.UpgradeableRead(ctx, core, task, arwlock.StickyWrite, func(ctx context.Context, r *arwlock.Releaser) error {
			sleepJittered()
			w, err := core.WriteLock(ctx, task)
			if err != nil {
				return err
			}
			defer w.Release()
			sleepJittered()
			return nil
		})
	})
}

func sleepJittered() {
	time.Sleep(time.Duration(100+rand.Intn(300)) * time.Millisecond)
}

// startInteractiveMode launches the Bubble Tea dashboard over model.
func startInteractiveMode(model ui.Model) error {
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
