// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// LeadGate — Lead Pipeline Service
//
// Entry point for the email-to-lead pipeline. It:
//  1. Loads configuration from config.yaml
//  2. Connects to PostgreSQL and Redis
//  3. Polls the inbound IMAP mailbox for unseen messages
//  4. Routes each message to clients, creating or merging leads
//  5. Fans out client notifications and admin alerts
//  6. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/leadgate/pipeline/internal/audit"
	"github.com/leadgate/pipeline/internal/config"
	"github.com/leadgate/pipeline/internal/dedup"
	"github.com/leadgate/pipeline/internal/events"
	"github.com/leadgate/pipeline/internal/mailbox"
	"github.com/leadgate/pipeline/internal/notify"
	"github.com/leadgate/pipeline/internal/pipeline"
	"github.com/leadgate/pipeline/internal/rules"
	"github.com/leadgate/pipeline/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting LeadGate pipeline service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"imap_host", cfg.IMAP.Host,
		"run_interval", cfg.RunInterval,
		"default_client_id", cfg.DefaultClientID,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to PostgreSQL ---
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	st, err := store.New(ctx, pgPool)
	if err != nil {
		slog.Error("failed to initialise store", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	publisher := events.NewPublisher(rdb, cfg.EventsQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	filter := dedup.NewFilterWithTTL(rdb, cfg.DedupTTL)

	// --- Wire the pipeline ---
	recorder := audit.NewRecorder(st)
	mailer := notify.NewMailer(notify.MailerConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	adminNotifier := notify.NewAdminNotifier(mailer, st, cfg.AdminDefaults, recorder)
	leadNotifier := notify.NewLeadNotifier(mailer, st, recorder, adminNotifier)
	resolver := rules.NewResolver(st, recorder, cfg.DefaultClientID)

	imapCfg := mailbox.Config{
		Host:       cfg.IMAP.Host,
		Port:       cfg.IMAP.Port,
		Encryption: cfg.IMAP.Encryption,
		Username:   cfg.IMAP.Username,
		Password:   cfg.IMAP.Password,
		Folder:     cfg.IMAP.Folder,
	}
	if cfg.IMAP.OAuthTokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.IMAP.OAuthClientID,
			ClientSecret: cfg.IMAP.OAuthClientSecret,
			TokenURL:     cfg.IMAP.OAuthTokenURL,
		}
		if cfg.IMAP.OAuthScope != "" {
			creds.Scopes = []string{cfg.IMAP.OAuthScope}
		}
		imapCfg.TokenSource = oauth2.ReuseTokenSource(nil, creds.TokenSource(ctx))
	}

	runOnce := func(ctx context.Context) {
		gw, err := mailbox.Connect(imapCfg)
		if err != nil {
			slog.Error("mailbox connect failed", "error", err)
			recorder.Error(ctx, map[string]any{
				"stage": "connect",
				"error": err.Error(),
			})
			adminNotifier.EmailError(ctx, "mailbox connection failed", map[string]any{
				"host":  cfg.IMAP.Host,
				"error": err.Error(),
			})
			return
		}
		defer gw.Close()

		proc := pipeline.New(pipeline.Config{
			Mailbox:  gw,
			Rules:    st,
			Leads:    st,
			Resolver: resolver,
			Audit:    recorder,
			Notify:   leadNotifier,
			Admin:    adminNotifier,
			Events:   publisher,
			Seen:     filter,
		})
		if _, err := proc.Run(ctx); err != nil {
			slog.Error("pipeline run failed", "error", err)
		}
	}

	// --- Health Check Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := publisher.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		if err := st.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// One-shot mode: single run, no server.
	if cfg.RunInterval == 0 {
		runOnce(ctx)
		slog.Info("single run complete, exiting")
		return
	}

	// Poll loop
	go func() {
		runOnce(ctx)
		ticker := time.NewTicker(cfg.RunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx)
			}
		}
	}()

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("pipeline service listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("pipeline service stopped")
}
