package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"taxrecon/internal/config"
	"taxrecon/internal/domain"
	"taxrecon/internal/ingest"
	"taxrecon/internal/port"
	"taxrecon/internal/recon"
	"taxrecon/internal/render"
)

// Sheet titles.
const (
	TitleExpenses      = "1. Expenses"
	TitleRevenue       = "2. Revenue"
	TitleDeductibleTax = "3. Deductible VAT"
	TitleGeneratedTax  = "3.1 Generated VAT"
	TitleIssuedFeed    = "4. Issued feed"
	TitleReceivedFeed  = "4.1 Received feed"

	TitleLedgerBase       = "Ledger base"
	TitleTaxBase          = "Tax authority base"
	TitleIssuedFeedBase   = "Issued feed base"
	TitleReceivedFeedBase = "Received feed base"
)

// ReconcileInput holds the uploaded sources of one run. The feeds are optional.
type ReconcileInput struct {
	TaxFile      io.Reader
	LedgerFile   io.Reader
	IssuedFeed   io.Reader
	ReceivedFeed io.Reader
}

// ReconcileResult is everything a run produces.
type ReconcileResult struct {
	Summary  domain.RunSummary
	Reports  []domain.Report
	Bases    []domain.Table
	Workbook []byte
}

// Report returns the report of the given kind.
func (r *ReconcileResult) Report(kind domain.ReportKind) (domain.Report, error) {
	for _, rep := range r.Reports {
		if rep.Kind == kind {
			return rep, nil
		}
	}
	return domain.Report{}, fmt.Errorf("%w: %s was not produced by this run", domain.ErrUnknownReport, kind)
}

// ArchiveOptions controls upload of the generated workbook to object storage.
type ArchiveOptions struct {
	Enabled       bool
	Bucket        string
	PresignExpiry int64
}

// ReconcileOptions configures the reconciliation pipeline.
type ReconcileOptions struct {
	NoiseThreshold          decimal.Decimal
	ExcludedExpenseAccounts []string
	HeaderScanRows          int
	Parallel                bool
	Archive                 ArchiveOptions
}

// NewReconcileOptions derives pipeline options from the loaded configuration.
func NewReconcileOptions(cfg *config.Config) ReconcileOptions {
	return ReconcileOptions{
		NoiseThreshold:          cfg.Reconcile.NoiseThreshold,
		ExcludedExpenseAccounts: cfg.Reconcile.ExcludedExpenseAccounts,
		HeaderScanRows:          cfg.Reconcile.HeaderScanRows,
		Parallel:                cfg.Reconcile.Parallel,
		Archive: ArchiveOptions{
			Enabled:       cfg.S3.ArchiveEnabled,
			Bucket:        cfg.S3.Bucket,
			PresignExpiry: cfg.S3.PresignExpiry,
		},
	}
}

// ReconcileService runs a full reconciliation over uploaded sources.
type ReconcileService interface {
	Run(ctx context.Context, input ReconcileInput) (*ReconcileResult, error)
}

type reconcileService struct {
	opts      ReconcileOptions
	storage   port.ObjectStorage
	ledger    *ingest.LedgerReader
	segmenter *recon.Segmenter
	assembler *recon.Assembler
	log       zerolog.Logger
	now       func() time.Time
}

// NewReconcileService creates a new ReconcileService. storage may be nil when
// archiving is disabled.
func NewReconcileService(opts ReconcileOptions, storage port.ObjectStorage, log zerolog.Logger) ReconcileService {
	return &reconcileService{
		opts:      opts,
		storage:   storage,
		ledger:    ingest.NewLedgerReader(opts.HeaderScanRows),
		segmenter: recon.NewSegmenter(opts.ExcludedExpenseAccounts),
		assembler: recon.NewAssembler(opts.NoiseThreshold),
		log:       log,
		now:       time.Now,
	}
}

// pipeline is one segment-versus-documents reconciliation.
type pipeline struct {
	kind    domain.ReportKind
	title   string
	segment domain.Segment
	docs    domain.DocumentSet
	feed    bool
	hints   recon.ReportHints
}

type feedSource struct {
	set    domain.DocumentSet
	schema ingest.FeedSchema
}

func (s *reconcileService) Run(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	if input.TaxFile == nil || input.LedgerFile == nil {
		return nil, domain.ErrMissingInput
	}

	summary := domain.RunSummary{
		RunID:     uuid.New(),
		StartedAt: s.now().UTC(),
		Segments:  make(map[domain.Segment]int),
	}
	log := s.log.With().Str("run_id", summary.RunID.String()).Logger()

	docs, err := ingest.ReadDocuments(input.TaxFile)
	if err != nil {
		return nil, fmt.Errorf("reconcileService.Run: tax source: %w", err)
	}
	ledger, err := s.ledger.Read(input.LedgerFile)
	if err != nil {
		return nil, fmt.Errorf("reconcileService.Run: ledger: %w", err)
	}
	summary.Documents = len(docs.Documents)
	summary.LedgerLines = len(ledger.Lines)

	schema := ingest.ResolveTaxSchema(docs.Columns)
	docs = recon.BuildDocumentKeys(docs, schema.Prefix, schema.Sequence)
	if !docs.Keyed {
		summary.Warnings = append(summary.Warnings, "tax documents have no prefix and folio columns; document reports list ledger lines only")
	}
	if !ledger.Fields.Reference {
		summary.Warnings = append(summary.Warnings, "ledger has no document number column; reports are empty")
	}

	issuedFeed := s.readFeed(input.IssuedFeed, "issued feed", &summary, log)
	receivedFeed := s.readFeed(input.ReceivedFeed, "received feed", &summary, log)

	pipelines := s.plan(docs, schema, issuedFeed, receivedFeed, &summary)
	for _, seg := range []domain.Segment{domain.SegmentExpense, domain.SegmentRevenue, domain.SegmentDeductibleTax, domain.SegmentGeneratedTax} {
		summary.Segments[seg] = len(s.segmenter.Classify(seg, ledger).Lines)
	}

	reports, summaries, err := s.execute(ctx, pipelines, ledger)
	if err != nil {
		return nil, fmt.Errorf("reconcileService.Run: %w", err)
	}
	summary.Reports = summaries

	bases := []domain.Table{
		render.LedgerTable(TitleLedgerBase, ledger),
		render.DocumentTable(TitleTaxBase, docs),
	}
	if issuedFeed != nil {
		bases = append(bases, render.DocumentTable(TitleIssuedFeedBase, issuedFeed.set))
	}
	if receivedFeed != nil {
		bases = append(bases, render.DocumentTable(TitleReceivedFeedBase, receivedFeed.set))
	}

	workbook, err := render.Workbook(reports, bases)
	if err != nil {
		return nil, fmt.Errorf("reconcileService.Run: render workbook: %w", err)
	}

	if s.opts.Archive.Enabled && s.storage != nil {
		url, err := s.archive(ctx, summary.RunID, summary.StartedAt, workbook)
		if err != nil {
			log.Error().Err(err).Msg("reconcileService.Run: archive failed")
			summary.Warnings = append(summary.Warnings, err.Error())
		} else {
			summary.ArchiveURL = url
		}
	}

	summary.FinishedAt = s.now().UTC()
	log.Info().
		Int("documents", summary.Documents).
		Int("ledger_lines", summary.LedgerLines).
		Int("reports", len(reports)).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("reconcileService.Run: completed")

	return &ReconcileResult{Summary: summary, Reports: reports, Bases: bases, Workbook: workbook}, nil
}

// plan lists the reconciliations of a run in workbook order. VAT reports need
// a tax column; feed reports need the feed.
func (s *reconcileService) plan(docs domain.DocumentSet, schema ingest.TaxSchema, issued, received *feedSource, summary *domain.RunSummary) []pipeline {
	receivedDocs := recon.ReceivedDocuments(docs, schema.Group, schema.DocumentType)
	issuedDocs := recon.IssuedDocuments(docs, schema.Group, schema.DocumentType)
	amount := recon.Valuation{TotalColumn: schema.Total, TaxColumn: schema.Tax}
	tax := recon.Valuation{TotalColumn: schema.Tax, TaxReport: true}

	plan := []pipeline{
		{
			kind: domain.ReportExpenses, title: TitleExpenses, segment: domain.SegmentExpense, docs: receivedDocs,
			hints: recon.ReportHints{NameColumn: schema.IssuerName, TaxIDColumn: schema.IssuerTaxID, Valuation: amount},
		},
		{
			kind: domain.ReportRevenue, title: TitleRevenue, segment: domain.SegmentRevenue, docs: issuedDocs,
			hints: recon.ReportHints{NameColumn: schema.ReceiverName, TaxIDColumn: schema.ReceiverTaxID, Valuation: amount},
		},
	}

	if schema.Tax != "" {
		plan = append(plan,
			pipeline{
				kind: domain.ReportDeductibleTax, title: TitleDeductibleTax, segment: domain.SegmentDeductibleTax, docs: receivedDocs,
				hints: recon.ReportHints{NameColumn: schema.IssuerName, TaxIDColumn: schema.IssuerTaxID, Valuation: tax},
			},
			pipeline{
				kind: domain.ReportGeneratedTax, title: TitleGeneratedTax, segment: domain.SegmentGeneratedTax, docs: issuedDocs,
				hints: recon.ReportHints{NameColumn: schema.ReceiverName, TaxIDColumn: schema.ReceiverTaxID, Valuation: tax},
			},
		)
	} else {
		summary.Warnings = append(summary.Warnings, "tax documents have no VAT column; VAT reports skipped")
	}

	if issued != nil {
		plan = append(plan, feedPipeline(domain.ReportIssuedFeed, TitleIssuedFeed, domain.SegmentRevenue, issued))
	}
	if received != nil {
		plan = append(plan, feedPipeline(domain.ReportReceivedFeed, TitleReceivedFeed, domain.SegmentExpense, received))
	}
	return plan
}

func feedPipeline(kind domain.ReportKind, title string, segment domain.Segment, feed *feedSource) pipeline {
	return pipeline{
		kind:    kind,
		title:   title,
		segment: segment,
		docs:    feed.set,
		feed:    true,
		hints: recon.ReportHints{
			NameColumn:  feed.schema.Name,
			TaxIDColumn: feed.schema.TaxID,
			Valuation:   recon.Valuation{TotalColumn: feed.schema.Total, TaxColumn: feed.schema.Tax},
		},
	}
}

// execute runs every pipeline. Results land in fixed slots so the parallel
// path yields exactly what the sequential path does.
func (s *reconcileService) execute(ctx context.Context, pipelines []pipeline, ledger domain.Ledger) ([]domain.Report, []domain.ReportSummary, error) {
	reports := make([]domain.Report, len(pipelines))
	summaries := make([]domain.ReportSummary, len(pipelines))

	if !s.opts.Parallel {
		for i, p := range pipelines {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			reports[i], summaries[i] = s.runPipeline(p, ledger)
		}
		return reports, summaries, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pipelines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i], summaries[i] = s.runPipeline(p, ledger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return reports, summaries, nil
}

func (s *reconcileService) runPipeline(p pipeline, ledger domain.Ledger) (domain.Report, domain.ReportSummary) {
	segment := s.segmenter.Classify(p.segment, ledger)

	var outcome domain.MatchOutcome
	if p.feed {
		outcome = recon.ReconcileAgainstFeed(segment, p.docs, p.hints.Valuation)
	} else {
		outcome = recon.Reconcile(p.docs, segment, p.hints.Valuation)
	}

	report := s.assembler.Assemble(p.kind, p.title, outcome, p.hints)
	sum := domain.ReportSummary{
		Kind:     report.Kind,
		Title:    report.Title,
		Status:   outcome.Status,
		Matched:  len(outcome.Matched),
		SurplusA: len(outcome.OnlyDocuments),
		SurplusB: len(outcome.OnlyLedger),
	}
	if grand, ok := report.GrandTotal(); ok {
		sum.Difference = grand.Difference
	}
	return report, sum
}

// readFeed parses an optional feed. A feed that cannot be read is skipped
// with a warning instead of failing the run.
func (s *reconcileService) readFeed(src io.Reader, label string, summary *domain.RunSummary, log zerolog.Logger) *feedSource {
	if src == nil {
		return nil
	}
	set, err := ingest.ReadDocuments(src)
	if err != nil {
		log.Warn().Err(err).Str("feed", label).Msg("reconcileService.readFeed: skipping feed")
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s skipped: %v", label, err))
		return nil
	}
	schema := ingest.ResolveFeedSchema(set.Columns)
	set = recon.BuildFeedKeys(set, schema.Series, schema.Sequence, schema.Reference)
	if !set.Keyed {
		summary.Warnings = append(summary.Warnings, label+" has no series, number or reference column; feed report lists ledger lines only")
	}
	return &feedSource{set: set, schema: schema}
}

// archive uploads the workbook and returns a presigned download link.
func (s *reconcileService) archive(ctx context.Context, runID uuid.UUID, startedAt time.Time, workbook []byte) (string, error) {
	key := fmt.Sprintf("reconciliations/%s/%s.xlsx", startedAt.Format("2006/01/02"), runID)
	bucket := s.opts.Archive.Bucket

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        bytes.NewReader(workbook),
		ContentType: domain.ContentTypeXLSX,
		Size:        int64(len(workbook)),
	}); err != nil {
		return "", errors.Join(domain.ErrArchiveFailed, err)
	}

	url, err := s.storage.GetPresignedURL(ctx, bucket, key, s.opts.Archive.PresignExpiry)
	if err != nil {
		return "", errors.Join(domain.ErrArchiveFailed, err)
	}
	return url, nil
}
