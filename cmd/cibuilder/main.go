package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/cibuilder/internal/apisupport"
	"git.home.luguber.info/inful/cibuilder/internal/artifacts"
	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/lifecycle"
	"git.home.luguber.info/inful/cibuilder/internal/logfields"
	"git.home.luguber.info/inful/cibuilder/internal/metrics"
	"git.home.luguber.info/inful/cibuilder/internal/pipeline"
	"git.home.luguber.info/inful/cibuilder/internal/poller"
	"git.home.luguber.info/inful/cibuilder/internal/pollstate"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
		NoRevert bool `help:"Leave the working directory as-is after the build"`
	} `cmd:"" help:"Run a full build: prepare sources, execute steps, revert and finalize"`

	Poll struct {
		Watch       bool   `short:"w" help:"Keep polling on the configured interval"`
		MetricsAddr string `help:"Serve Prometheus metrics on this address in watch mode"`
	} `cmd:"" help:"Detect new changes on the configured source"`

	Submit struct {
		Description string `short:"m" required:"" help:"Description for the submitted change"`
	} `cmd:"" help:"Submit local modifications as a new change"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if ctx.Command() == "init" {
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}

	switch ctx.Command() {
	case "run":
		if err := runBuild(cfg, CLI.Run.NoRevert); err != nil {
			slog.Error("Build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "poll":
		if err := runPoll(cfg, CLI.Poll.Watch, CLI.Poll.MetricsAddr); err != nil {
			slog.Error("Poll failed", logfields.Error(err))
			os.Exit(1)
		}
	case "submit":
		if err := runSubmit(cfg, CLI.Submit.Description); err != nil {
			slog.Error("Submit failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runBuild(cfg *config.Config, noRevert bool) error {
	ctx, cancel := signalContext()
	defer cancel()

	collector, err := artifacts.NewCollector(cfg.Build.ArtifactDir)
	if err != nil {
		return err
	}
	api := apisupport.New()

	mainVcs, err := lifecycle.NewMainVcs(cfg, lifecycle.MainVcsOptions{
		Artifacts: collector,
		Api:       api,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mainVcs.Finalize(); err != nil {
			slog.Warn("Finalize failed", logfields.Error(err))
		}
	}()

	latest, err := mainVcs.IsLatestReviewVersion(ctx)
	if err != nil {
		return err
	}
	if !latest {
		slog.Warn("A newer version of this change is under review, skipping build",
			logfields.BuildID(collector.BuildID()))
		return nil
	}

	if err := mainVcs.ReportBuildStarted(ctx); err != nil {
		slog.Warn("Failed to report build start", logfields.Error(err))
	}

	if err := mainVcs.PrepareRepository(ctx); err != nil {
		_ = mainVcs.ReportBuildResult(ctx, false)
		return err
	}

	driver, err := mainVcs.Driver()
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(driver.WorkingDir(), collector, nil)
	_, buildErr := runner.Run(ctx, cfg.Build.Steps)

	if !noRevert {
		if _, err := mainVcs.RevertRepository(); err != nil {
			slog.Error("Revert failed", logfields.Error(err))
			if buildErr == nil {
				buildErr = err
			}
		}
	}

	if err := mainVcs.ReportBuildResult(ctx, buildErr == nil); err != nil {
		slog.Warn("Failed to report build result", logfields.Error(err))
	}
	return buildErr
}

func runPoll(cfg *config.Config, watch bool, metricsAddr string) error {
	ctx, cancel := signalContext()
	defer cancel()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	wrapper, err := lifecycle.NewPollVcs(cfg, recorder)
	if err != nil {
		return err
	}

	store, err := pollstate.NewStore(cfg.Poll.DBFile)
	if err != nil {
		return err
	}
	defer store.Close()

	var notifier poller.Notifier
	if cfg.Poll.Nats.URL != "" {
		natsNotifier, err := poller.NewNatsNotifier(cfg.Poll.Nats)
		if err != nil {
			return err
		}
		defer natsNotifier.Close()
		notifier = natsNotifier
	}

	p := poller.New(cfg, wrapper, store, notifier)
	defer func() {
		if err := p.Finalize(); err != nil {
			slog.Warn("Finalize failed", logfields.Error(err))
		}
	}()

	if !watch {
		changes, err := p.Poll(ctx)
		if err != nil {
			return err
		}
		slog.Info("Poll finished", logfields.Changes(len(changes)))
		return nil
	}

	if metricsAddr != "" {
		go func() {
			slog.Info("Serving metrics", logfields.URL(metricsAddr))
			if err := http.ListenAndServe(metricsAddr, metrics.HTTPHandler(registry)); err != nil {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}
	return p.Watch(ctx)
}

func runSubmit(cfg *config.Config, description string) error {
	ctx, cancel := signalContext()
	defer cancel()

	wrapper, err := lifecycle.NewSubmitVcs(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := wrapper.Finalize(); err != nil {
			slog.Warn("Finalize failed", logfields.Error(err))
		}
	}()

	revision, err := wrapper.Submit(ctx, description)
	if err != nil {
		return err
	}
	slog.Info("Submitted", logfields.Revision(revision))
	return nil
}
