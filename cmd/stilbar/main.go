// Copyright 2025 Poiesic Systems
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


package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/stilbar/bulk"
	"github.com/poiesic/stilbar/chem"
	"github.com/poiesic/stilbar/config"
	"github.com/poiesic/stilbar/core"
	"github.com/poiesic/stilbar/resolver"
	"github.com/poiesic/stilbar/server"
	"github.com/poiesic/stilbar/storage"
	"github.com/poiesic/stilbar/storage/badger"
	"github.com/poiesic/stilbar/storage/csvstore"
)

func main() {
	app := &cli.App{
		Name:  "stilbar",
		Usage: "StilBAR barcode catalog and structure resolver",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the catalog web server",
				Action: serveCommand,
			},
			{
				Name:      "lookup",
				Usage:     "Resolve one or more StilBAR codes to structures",
				ArgsUsage: "<code> [code ...]",
				Action:    lookupCommand,
			},
			{
				Name:   "add",
				Usage:  "Add a compound to the catalog",
				Action: addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Compound name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "code",
						Usage: "StilBAR code; may be empty for named-only records",
					},
					&cli.StringFlag{
						Name:     "structure",
						Usage:    "SMILES structure string",
						Required: true,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete compounds by identity",
				ArgsUsage: "<identity> [identity ...]",
				Action:    deleteCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print catalog statistics",
				Action: statsCommand,
			},
			{
				Name:   "export",
				Usage:  "Write the catalog as CSV to stdout",
				Action: exportCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openRepository builds the compound repository selected by the configured
// backend. The returned close function releases whatever the backend holds.
func openRepository(cfg *config.Config) (storage.CompoundRepository, func(), error) {
	switch cfg.Backend {
	case config.BackendCSV:
		store, err := csvstore.Open(cfg.TablePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open table %s: %w", cfg.TablePath, err)
		}
		return store, func() { store.Close() }, nil

	case config.BackendBadger:
		backend, err := badger.OpenBackend(cfg.BadgerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database %s: %w", cfg.BadgerPath, err)
		}
		repo, err := badger.NewCompoundRepository(backend)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		return repo, func() {
			repo.Close()
			backend.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Backend == config.BackendCSV && cfg.Watch {
		store := repo.(*csvstore.Store)
		watcher, err := csvstore.WatchTable(store, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to watch table: %w", err)
		}
		defer watcher.Close()
	}

	res, err := resolver.NewResolver(repo)
	if err != nil {
		return err
	}

	runnerOpts := []bulk.Option{}
	if cfg.PoolSize > 0 {
		runnerOpts = append(runnerOpts, bulk.WithPoolSize(cfg.PoolSize))
	}
	runner, err := bulk.NewRunner(res, runnerOpts...)
	if err != nil {
		return err
	}
	defer runner.Release()

	srv, err := server.New(repo, res, runner)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server", "addr", cfg.ListenAddr, "backend", cfg.Backend)
	return srv.Run(ctx, cfg.ListenAddr)
}

func lookupCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one code is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	res, err := resolver.NewResolver(repo)
	if err != nil {
		return err
	}

	// A single code gets the full diagnostic output; batches go through
	// the worker pool and print one row per input.
	if c.NArg() == 1 {
		code := c.Args().First()
		result, err := res.Resolve(c.Context, code)
		if err != nil {
			if errors.Is(err, resolver.ErrNotFound) {
				return fmt.Errorf("%s: not found (cleaned %q, normalized %q, %d code keys)",
					code, result.Metadata.Cleaned, result.Metadata.Normalized,
					result.Metadata.CodeKeyCount)
			}
			return err
		}

		fmt.Printf("%s: %s\n", code, result.Structure)
		fmt.Printf("  strategy=%s confidence=%.2f", result.Metadata.Strategy, result.Metadata.Confidence)
		if result.Metadata.Name != "" {
			fmt.Printf(" name=%q", result.Metadata.Name)
		}
		if result.Metadata.MatchedCode != "" {
			fmt.Printf(" matched=%q", result.Metadata.MatchedCode)
		}
		if result.Metadata.Ambiguous {
			fmt.Printf(" ambiguous=true")
		}
		fmt.Println()
		return nil
	}

	runnerOpts := []bulk.Option{}
	if cfg.PoolSize > 0 {
		runnerOpts = append(runnerOpts, bulk.WithPoolSize(cfg.PoolSize))
	}
	runner, err := bulk.NewRunner(res, runnerOpts...)
	if err != nil {
		return err
	}
	defer runner.Release()

	var failures int
	for _, row := range runner.Run(c.Context, c.Args().Slice()) {
		if !row.Found {
			failures++
			fmt.Printf("%s: not found\n", row.Input)
			continue
		}
		fmt.Printf("%s: %s (strategy=%s confidence=%.2f)\n",
			row.Input, row.Structure, row.Strategy, row.Confidence)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d codes not resolved", failures, c.NArg())
	}
	return nil
}

func addCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	compound := &core.Compound{
		Name:      c.String("name"),
		Code:      c.String("code"),
		Structure: c.String("structure"),
	}

	if _, err := chem.Parse(compound.Structure); err != nil {
		slog.Warn("structure failed sanity check", "error", err)
	}

	id, err := repo.Add(c.Context, compound)
	if err != nil {
		return fmt.Errorf("failed to add compound: %w", err)
	}

	fmt.Printf("added %s (%s)\n", compound.Name, id)
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one identity is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	ids := make([]core.ID, 0, c.NArg())
	for _, raw := range c.Args().Slice() {
		ids = append(ids, core.ID(strings.TrimSpace(raw)))
	}

	result, err := repo.Delete(c.Context, ids...)
	if err != nil {
		if errors.Is(err, storage.ErrNoDeletions) {
			for _, msg := range result.Errors {
				fmt.Fprintln(os.Stderr, msg)
			}
		}
		return err
	}

	for _, deleted := range result.Deleted {
		fmt.Printf("deleted %s (%s)\n", deleted.Name, deleted.Identity)
	}
	for _, msg := range result.Errors {
		fmt.Fprintln(os.Stderr, msg)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	count, err := repo.Count(c.Context)
	if err != nil {
		return err
	}
	keys, err := repo.CodeKeys(c.Context)
	if err != nil {
		return err
	}

	var duplicates, invalid int
	for _, key := range keys {
		if strings.Contains(key, storage.CodeSuffixSeparator) {
			duplicates++
		}
	}
	records, err := repo.All(c.Context)
	if err != nil {
		return err
	}
	for _, record := range records {
		if !chem.Valid(record.Structure) {
			invalid++
		}
	}

	fmt.Printf("backend:             %s\n", cfg.Backend)
	fmt.Printf("compounds:           %d\n", count)
	fmt.Printf("code keys:           %d\n", len(keys))
	fmt.Printf("duplicate codes:     %d\n", duplicates)
	fmt.Printf("invalid structures:  %d\n", invalid)
	return nil
}

func exportCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	records, err := repo.All(c.Context)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(os.Stdout)
	if err := writer.Write([]string{"num", "compound_name", "barcode", "smiles"}); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{string(record.Identity), record.Name, record.Code, record.Structure}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
