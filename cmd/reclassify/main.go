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

// LeadGate — Lead Reclassification Command
//
// Standalone CLI tool that re-runs source and campaign rules over stored
// leads. Intended for after-the-fact rule changes: add or reprioritise a
// rule, then reclassify the affected clients.
//
// Usage:
//
//	go run ./cmd/reclassify/ [--clients 3,17] [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadgate/pipeline/internal/config"
	"github.com/leadgate/pipeline/internal/reclassify"
	"github.com/leadgate/pipeline/internal/store"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	clientsFlag := flag.String("clients", "", "Comma-separated client ids (optional; empty = all clients)")
	dryRunFlag := flag.Bool("dry-run", false, "Compute changes without writing them")
	flag.Parse()

	var clientIDs []int64
	if *clientsFlag != "" {
		for _, raw := range strings.Split(*clientsFlag, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid client id %q: %v\n", raw, err)
				os.Exit(1)
			}
			clientIDs = append(clientIDs, id)
		}
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

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

	// --- Run Reclassification ---
	runner := reclassify.NewRunner(st)
	result, err := runner.Run(ctx, reclassify.Request{
		ClientIDs: clientIDs,
		DryRun:    *dryRunFlag,
	})
	if err != nil {
		slog.Error("reclassification failed", "error", err)
		os.Exit(1)
	}

	// --- Summary ---
	slog.Info("reclassification complete",
		"examined", result.TotalExamined,
		"updated", result.TotalUpdated,
		"dry_run", *dryRunFlag,
		"elapsed", result.Elapsed,
	)
	for _, cr := range result.ClientResults {
		slog.Info("client result",
			"client_id", cr.ClientID,
			"examined", cr.Examined,
			"updated", cr.Updated,
			"errors", cr.Errors,
		)
	}
}
