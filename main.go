package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/pongarena/archive"
	"github.com/lguibr/pongarena/auth"
	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/game"
	"github.com/lguibr/pongarena/lifecycle"
	"github.com/lguibr/pongarena/server"
	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/tournament"
	"github.com/lguibr/pongarena/utils"
)

func newLogger(s utils.Settings) zerolog.Logger {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if s.LogFormat == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func main() {
	settings := utils.LoadSettings()
	log := newLogger(settings)
	cfg := utils.DefaultConfig()

	if err := run(settings, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("pongarena stopped")
	}
	log.Info().Msg("pongarena stopped")
}

func run(settings utils.Settings, cfg utils.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(settings.DBDriver, settings.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info().Str("driver", settings.DBDriver).Msg("database ready")

	archiver, err := archive.New(ctx, settings, log)
	if err != nil {
		return err
	}

	ctrl, err := lifecycle.NewController(st, cfg, log, lifecycle.WithArchiver(archiver))
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown")
		}
	}()

	tournaments := tournament.NewEngine(st, log, tournament.WithScheduler(ctrl))
	ctrl.SetAdvancer(tournaments)

	engine := bollywood.NewEngine(bollywood.WithLogger(log))
	defer engine.Shutdown(settings.ShutdownWait)
	registry, err := game.NewRegistry(engine, cfg, ctrl, log)
	if err != nil {
		return err
	}
	ctrl.AttachRegistry(registry)

	verifier := auth.NewJWTVerifier(settings.JWTSecret)
	wsServer := &http.Server{
		Addr:              settings.WSAddr,
		Handler:           server.New(registry, st, verifier, cfg, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	api := server.NewAPI(server.APIDeps{
		Store:       st,
		Lifecycle:   ctrl,
		Tournaments: tournaments,
		Live:        registry,
		Verifier:    verifier,
		Logger:      log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", settings.WSAddr).Msg("websocket server listening")
		if err := wsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", settings.APIAddr).Msg("api listening")
		return api.App().Listen(settings.APIAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		// Matches end first so their sockets close before the listener drains.
		engine.Shutdown(settings.ShutdownWait)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownWait)
		defer cancel()
		return errors.Join(
			wsServer.Shutdown(shutdownCtx),
			api.App().ShutdownWithTimeout(settings.ShutdownWait),
		)
	})
	return g.Wait()
}
