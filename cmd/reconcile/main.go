// Command reconcile runs one reconciliation from local files and writes the
// workbook (and optionally one CSV per report) to disk.
// Usage: go run ./cmd/reconcile -tax dian.xlsx -ledger auxiliar.xlsx -out reconciliation.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"taxrecon/internal/config"
	"taxrecon/internal/csvexport"
	"taxrecon/internal/logger"
	"taxrecon/internal/port"
	"taxrecon/internal/service"
	s3storage "taxrecon/internal/storage/s3"
)

type options struct {
	tax          string
	ledger       string
	issuedFeed   string
	receivedFeed string
	out          string
	csvDir       string
	parallel     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Log)
	ctx := context.Background()

	var storage port.ObjectStorage
	if cfg.S3.ArchiveEnabled {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing S3 client: %w", err)
		}
	}

	reconcileOpts := service.NewReconcileOptions(cfg)
	reconcileOpts.Parallel = reconcileOpts.Parallel || opts.parallel
	svc := service.NewReconcileService(reconcileOpts, storage, log)

	var input service.ReconcileInput
	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, src := range []struct {
		path string
		dst  *io.Reader
	}{
		{opts.tax, &input.TaxFile},
		{opts.ledger, &input.LedgerFile},
		{opts.issuedFeed, &input.IssuedFeed},
		{opts.receivedFeed, &input.ReceivedFeed},
	} {
		if src.path == "" {
			continue
		}
		f, err := os.Open(src.path)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		files = append(files, f)
		*src.dst = f
	}

	result, err := svc.Run(ctx, input)
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, result.Workbook, 0o644); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	log.Info().Str("path", opts.out).Msg("Workbook written")

	if opts.csvDir != "" {
		if err := writeCSVs(opts.csvDir, result, log); err != nil {
			return err
		}
	}

	for _, r := range result.Summary.Reports {
		log.Info().
			Str("report", string(r.Kind)).
			Str("status", string(r.Status)).
			Int("matched", r.Matched).
			Int("surplus_a", r.SurplusA).
			Int("surplus_b", r.SurplusB).
			Str("difference", r.Difference.StringFixed(2)).
			Msg("Report")
	}
	for _, w := range result.Summary.Warnings {
		log.Warn().Msg(w)
	}
	if result.Summary.ArchiveURL != "" {
		log.Info().Str("url", result.Summary.ArchiveURL).Msg("Workbook archived")
	}
	return nil
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.StringVar(&opts.tax, "tax", "", "Tax authority export (.xlsx)")
	fs.StringVar(&opts.ledger, "ledger", "", "Accounting ledger export (.xlsx)")
	fs.StringVar(&opts.issuedFeed, "issued-feed", "", "Optional feed of issued documents (.xlsx)")
	fs.StringVar(&opts.receivedFeed, "received-feed", "", "Optional feed of received documents (.xlsx)")
	fs.StringVar(&opts.out, "out", "reconciliation.xlsx", "Output workbook path")
	fs.StringVar(&opts.csvDir, "csv-dir", "", "Also write one CSV per report into this directory")
	fs.BoolVar(&opts.parallel, "parallel", false, "Run the reconciliations concurrently")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.tax == "" || opts.ledger == "" {
		return options{}, errors.New("both -tax and -ledger are required")
	}
	return opts, nil
}

func writeCSVs(dir string, result *service.ReconcileResult, log zerolog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating csv dir: %w", err)
	}
	for _, report := range result.Reports {
		path := filepath.Join(dir, csvexport.BuildFilename(report.Title, "csv"))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := csvexport.WriteReport(f, report); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("CSV written")
	}
	return nil
}
