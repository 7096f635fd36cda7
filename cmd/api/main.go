package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/earlysignal/backend/internal/config"
	"github.com/earlysignal/backend/internal/handler"
	feedbackModel "github.com/earlysignal/backend/internal/model/feedback"
	profileModel "github.com/earlysignal/backend/internal/model/profile"
	startupModel "github.com/earlysignal/backend/internal/model/startup"
	"github.com/earlysignal/backend/internal/service/feedback"
	"github.com/earlysignal/backend/internal/service/profile"
	"github.com/earlysignal/backend/internal/service/startup"
	"github.com/earlysignal/backend/internal/service/waitlist"
	"github.com/earlysignal/backend/pkg/logger"
	"github.com/earlysignal/backend/pkg/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Error("EarlySignal backend stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// run wires the services and serves until ctx is cancelled. Deferred cleanup
// runs on every return path.
func run(ctx context.Context) error {
	log := logger.L()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded, using process environment", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	script, err := feedbackModel.DefaultScript()
	if err != nil {
		return fmt.Errorf("load interview script: %w", err)
	}

	sched := scheduler.NewReal()
	startupStore := startupModel.NewMemoryStore(startupModel.Seed())
	startupSvc := startup.NewService(startupStore)

	dialogue := feedback.NewDialogue(script)
	feedbackSvc := feedback.NewService(dialogue, sched, feedback.Config{
		ReplyDelay:      cfg.Feedback.ReplyDelay,
		CompletionDelay: cfg.Feedback.CompletionDelay,
	})
	defer feedbackSvc.Close()

	profileSvc := profile.NewService(sched, startupStore, dialogue.Assessment(), profile.Config{
		Delay: cfg.Feedback.ProfileDelay,
	})
	defer profileSvc.Close()

	feedbackSvc.OnComplete(profileSvc.Generate)
	profileSvc.OnReady(func(p profileModel.FounderProfile) {
		if err := feedbackSvc.SetStatus(context.Background(), p.SessionID, feedbackModel.StatusCompleted); err != nil {
			log.Warn("failed to mark session completed", zap.String("session_id", p.SessionID), zap.Error(err))
		}
	})

	waitlistRepo, err := newWaitlistRepository(cfg.Waitlist)
	if err != nil {
		return fmt.Errorf("open waitlist repository: %w", err)
	}
	defer func() {
		if err := waitlistRepo.Close(); err != nil {
			log.Warn("failed to close waitlist repository", zap.Error(err))
		}
	}()
	log.Info("waitlist repository ready", zap.String("driver", cfg.Waitlist.Driver))

	router := handler.NewRouter(cfg.Server.AllowedOrigins, feedbackSvc, profileSvc, startupSvc, waitlist.NewService(waitlistRepo))

	return startServer(ctx, cfg.Server, router)
}

func newWaitlistRepository(cfg config.WaitlistConfig) (waitlist.Repository, error) {
	if cfg.Driver == config.WaitlistDriverSQLite {
		return waitlist.NewSQLiteRepository(cfg.DSN)
	}
	return waitlist.NewMemoryRepository(), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// event streams end when the process is signalled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	logger.L().Info("EarlySignal backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
