package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Moderator/internal/adapters/http"
	"github.com/dkeye/Moderator/internal/adapters/archive"
	wssignal "github.com/dkeye/Moderator/internal/adapters/signal"
	"github.com/dkeye/Moderator/internal/adapters/summarizer"
	"github.com/dkeye/Moderator/internal/adapters/transcriber"
	"github.com/dkeye/Moderator/internal/app"
	"github.com/dkeye/Moderator/internal/app/orch"
	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/config"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/metrics"
)

func setupLogger(cfg *config.Config) {
	if cfg.Mode == "debug" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	setupLogger(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met := metrics.New(reg)
	clk := clock.New()

	var summ transcribe.Summarizer = transcribe.EchoSummarizer{}
	if cfg.Summarizer.Addr != "" {
		s, err := summarizer.NewGRPCSummarizer(cfg.Summarizer.Addr, cfg.Summarizer.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("summarizer")
		}
		defer s.Close()
		summ = s
	}

	var (
		arch    transcribe.Archive
		history transcribe.History
	)
	if cfg.Archive.RedisAddr != "" {
		a, err := archive.NewRedisArchive(ctx, cfg.Archive.RedisAddr, cfg.Archive.RedisPassword, cfg.Archive.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("paragraph archive disabled")
		} else {
			defer a.Close()
			arch, history = a, a
		}
	}

	var rec transcribe.Recognizer
	switch cfg.Transcription.Provider {
	case "aws":
		r, err := transcriber.LoadAWSRecognizer(ctx, cfg.Transcription.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("transcriber")
		}
		rec = r
	case "", "none":
	default:
		log.Fatal().Str("provider", cfg.Transcription.Provider).Msg("unknown transcription provider")
	}

	o := &orch.Orchestrator{
		Registry:   app.NewRegistry(),
		Privileges: app.NewPrivilegeStore(clk),
		Policy:     app.SimplePolicy{},
		Metrics:    met,
		Recognizer: rec,
		Clock:      clk,
		History:    history,
		Feed: transcribe.FeedConfig{
			StreamingLimit: cfg.Transcription.StreamingLimit,
			SampleRate:     cfg.Transcription.SampleRate,
			Language:       cfg.Transcription.Language,
		},
	}
	o.Rooms = app.NewRoomManager(ctx, core.RoomConfig{
		RebalanceInterval: cfg.Room.RebalanceInterval,
		AttentionInterval: cfg.Room.AttentionInterval,
		ParagraphSilence:  cfg.Room.ParagraphSilence,
		PendingTTL:        cfg.Room.PendingTTL,
		SummaryTimeout:    cfg.Summarizer.Timeout,
	}, core.RoomDeps{
		Clock:          clk,
		Summarizer:     summ,
		Archive:        arch,
		Metrics:        met,
		OnBackpressure: o.OnBackPressure,
	})
	o.Rooms.OnRemoved = o.RoomRemoved

	ctl := wssignal.NewSignalWSController(o,
		wssignal.NewRateLimiter(clk, cfg.Limits.ConnectAttempts, cfg.Limits.ConnectWindow),
		wssignal.Options{ReadLimit: cfg.ReadLimit, PingPeriod: cfg.PingPeriod, SendBuffer: cfg.SendBuffer},
	)

	r := router.SetupRouter(ctx, cfg, o, ctl, reg)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Moderator server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		o.Privileges.RunJanitor(gctx, time.Hour, cfg.SessionMaxAge)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	o.Rooms.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
