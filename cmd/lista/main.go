package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lojasmm/lista/internal/bot"
	"github.com/lojasmm/lista/internal/catalog"
	"github.com/lojasmm/lista/internal/config"
	"github.com/lojasmm/lista/internal/conversation"
	"github.com/lojasmm/lista/internal/dialog"
	"github.com/lojasmm/lista/internal/logging"
	"github.com/lojasmm/lista/internal/metrics"
	"github.com/lojasmm/lista/internal/session"
	"github.com/lojasmm/lista/internal/store"
	"github.com/lojasmm/lista/internal/whatsapp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "console")
		boot.Fatal().Err(err).Msg("config")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	metrics.MustRegister()

	db, err := store.NewBoltStore(filepath.Join(cfg.DataDir, "lista.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}
	defer db.Close()

	gateway, err := catalog.NewSheetsGateway(context.Background(), cfg.GoogleSheetID,
		option.WithCredentialsFile(cfg.GoogleCredentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog")
	}

	waClient := whatsapp.NewClient(cfg.WAPhoneNumberID, cfg.WAAccessToken)
	sessionMgr := session.NewManager()
	conversations := conversation.NewMemoryStore()
	limiter := bot.NewLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	engine := dialog.NewEngine(conversations, gateway, sessionMgr, cfg.StartKeyword, dialog.WithLogger(log))

	// Periodic cleanup of idle sessions, stale locks and old delivery ids
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			expired := conversations.Expire(cfg.SessionIdleTTL)
			sessionMgr.Cleanup(1 * time.Hour)
			limiter.Cleanup(1 * time.Hour)
			pruned, err := db.Prune(time.Now().Add(-cfg.DedupTTL))
			if err != nil {
				log.Error().Err(err).Msg("lista: pruning delivery ledger")
			}
			log.Debug().Int("sessions_expired", expired).Int("deliveries_pruned", pruned).Msg("lista: cleanup")
		}
	}()

	botHandler := bot.NewHandler(waClient, db, engine, sessionMgr, limiter, log)
	webhookHandler := whatsapp.NewWebhookHandler(cfg.WAVerifyToken, botHandler.HandleMessage, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/webhook", webhookHandler.HandleVerify)
	r.Post("/webhook", webhookHandler.HandleIncoming)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("webhook", cfg.BaseURL+"/webhook").
			Str("keyword", cfg.StartKeyword).
			Msg("lista: listening")
		log.Info().Str("verify_token", cfg.WAVerifyToken).Msg("lista: webhook verify token")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("lista: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	// replies already queued still go out
	sessionMgr.Wait()
	log.Info().Msg("lista: stopped")
}
