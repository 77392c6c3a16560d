package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dgallion1/chestnut/internal/config"
	"github.com/dgallion1/chestnut/internal/convert"
	"github.com/dgallion1/chestnut/internal/pipeline"
	"github.com/dgallion1/chestnut/internal/store"
	"github.com/spf13/cobra"
)

var (
	importDSN   string
	importForce bool
)

var importCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Ingest every supported file under DIR into the store",
	Long: `Walk DIR and ingest each supported file synchronously, the same way the
HTTP API does. Files whose content is already stored are skipped unless --force.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if importDSN != "" {
			cfg.DatabaseDSN = importDSN
		}
		return importDir(cmd.Context(), cmd, cfg, args[0])
	},
}

func init() {
	importCmd.Flags().StringVar(&importDSN, "db", "", "SQLite DSN (defaults to DATABASE_DSN)")
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "Store files even when their content is already stored")
	rootCmd.AddCommand(importCmd)
}

func importDir(ctx context.Context, cmd *cobra.Command, cfg config.Config, dir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(os.Stderr, cfg.LogLevel)

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	w := pipeline.NewWorker(st, log, convert.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, nil)
	out := cmd.OutOrStdout()
	var counts importCounts

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !convert.IsSupportedExtension(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		job := pipeline.NewJob(filepath.Base(path), data)
		job.Force = importForce
		w.Process(ctx, job)

		snap := job.Snapshot()
		counts.add(snap.Status)
		printImportResult(out, path, snap)
		return nil
	})
	if err != nil {
		return err
	}

	printImportSummary(out, counts)
	if counts.failed > 0 {
		return fmt.Errorf("%d of %d files failed", counts.failed, counts.total())
	}
	return nil
}
