package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/rapport/internal/analyzer"
	"github.com/MikeSquared-Agency/rapport/internal/segment"
	"github.com/MikeSquared-Agency/rapport/internal/slack"
	"github.com/MikeSquared-Agency/rapport/internal/store"
)

// Config holds the ingest command configuration.
type Config struct {
	JSONLDir     string
	TextDir      string
	Since        time.Time
	Until        time.Time
	DryRun       bool
	BatchSize    int
	MinMessages  int
	OwnerUUID    uuid.UUID
	SingleFile   string // process a single file only
	Source       string // source label for persisted records (default: "ingest")
	SlackToken   string // optional: Slack bot token for posting summaries
	SlackChannel string // optional: Slack channel for summaries
}

// Runner orchestrates the ingest process.
type Runner struct {
	cfg      Config
	store    *store.Store
	analyzer *analyzer.Analyzer
	slack    *slack.Poster
	logger   *slog.Logger
}

// NewRunner creates an ingest runner.
func NewRunner(cfg Config, s *store.Store, an *analyzer.Analyzer, logger *slog.Logger) *Runner {
	r := &Runner{
		cfg:      cfg,
		store:    s,
		analyzer: an,
		logger:   logger,
	}

	// Set up optional Slack poster for batch summaries.
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		r.slack = slack.NewPoster(cfg.SlackToken, cfg.SlackChannel, logger)
	}

	return r
}

// sourceLabel returns the source string to use for persisted records.
func (r *Runner) sourceLabel() string {
	if r.cfg.Source != "" {
		return r.cfg.Source
	}
	return "ingest"
}

// Run executes the ingest process.
func (r *Runner) Run(ctx context.Context) error {
	state, err := LoadState()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	// Discover files.
	jsonlFiles, textFiles, err := r.discoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}

	r.logger.Info("files discovered",
		"jsonl_files", len(jsonlFiles),
		"text_files", len(textFiles),
	)

	// Parse all files to get conversations + fingerprints for dedup.
	type parsedFile struct {
		path   string
		source FileSource
		msgs   []RawMessage
		fp     fileFingerprint
	}

	var jsonlParsed, textParsed []parsedFile

	for _, path := range jsonlFiles {
		if state.IsProcessed(path) {
			continue
		}
		msgs, err := ParseJSONLFile(path)
		if err != nil {
			r.logger.Warn("failed to parse JSONL export", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			continue
		}
		if len(msgs) < r.cfg.MinMessages {
			continue
		}
		if !r.inDateRange(msgs) {
			continue
		}
		fp := BuildFingerprint(path, SourceJSONL, msgs)
		jsonlParsed = append(jsonlParsed, parsedFile{path: path, source: SourceJSONL, msgs: msgs, fp: fp})
	}

	for _, path := range textFiles {
		if state.IsProcessed(path) {
			continue
		}
		msgs, err := ParseTextExportFile(path)
		if err != nil {
			r.logger.Warn("failed to parse text export", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			continue
		}
		if len(msgs) < r.cfg.MinMessages {
			continue
		}
		if !r.inDateRange(msgs) {
			continue
		}
		fp := BuildFingerprint(path, SourceTextExport, msgs)
		textParsed = append(textParsed, parsedFile{path: path, source: SourceTextExport, msgs: msgs, fp: fp})
	}

	// Deduplicate: find text exports that overlap with JSONL exports.
	var jsonlFPs, textFPs []fileFingerprint
	for _, p := range jsonlParsed {
		jsonlFPs = append(jsonlFPs, p.fp)
	}
	for _, p := range textParsed {
		textFPs = append(textFPs, p.fp)
	}
	duplicates := FindDuplicates(jsonlFPs, textFPs)

	// Build final file list: JSONL first, then non-duplicate text exports.
	var allFiles []parsedFile
	allFiles = append(allFiles, jsonlParsed...)
	for _, txt := range textParsed {
		if duplicates[txt.path] {
			r.logger.Info("skipping duplicate text export", "path", txt.path)
			continue
		}
		allFiles = append(allFiles, txt)
	}

	state.FilesRemaining = len(allFiles)
	r.logger.Info("files to process",
		"total", len(allFiles),
		"jsonl", len(jsonlParsed),
		"text_unique", len(allFiles)-len(jsonlParsed),
		"text_skipped", len(duplicates),
	)

	totalVolleys := 0
	totalKnown := 0
	totalAnnotations := 0
	annotationsInBatch := 0

	var fileSummaries []FileSummary

	for _, pf := range allFiles {
		select {
		case <-ctx.Done():
			r.logger.Info("ingest interrupted, saving state")
			_ = state.Save()
			r.postBatchSummary(ctx, fileSummaries)
			return ctx.Err()
		default:
		}

		conversationID := conversationIDFromPath(pf.path)

		r.logger.Info("processing file",
			"path", pf.path,
			"conversation_id", conversationID,
			"messages", len(pf.msgs),
			"source", sourceStr(pf.source),
		)

		fs := FileSummary{
			Path:   pf.path,
			Source: sourceStr(pf.source),
		}
		if len(pf.msgs) > 0 && !pf.msgs[0].Timestamp.IsZero() {
			fs.Date = pf.msgs[0].Timestamp.Format("2006-01-02")
		}

		seg := segment.Full(toSegmentMessages(pf.msgs))
		if len(seg.Volleys) == 0 {
			state.MarkProcessed(pf.path)
			continue
		}

		for _, v := range seg.Volleys {
			select {
			case <-ctx.Done():
				_ = state.Save()
				return ctx.Err()
			default:
			}

			if r.cfg.DryRun {
				fs.Volleys++
				totalVolleys++
				continue
			}

			_, inserted, err := r.store.UpsertVolley(ctx, r.cfg.OwnerUUID, conversationID, r.sourceLabel(), v)
			if err != nil {
				r.logger.Error("volley upsert failed", "volley_id", v.ID, "error", err)
				state.AddError(fmt.Sprintf("upsert %s: %v", v.ID, err))
				fs.Errors++
				continue
			}

			fs.Volleys++
			totalVolleys++
			state.VolleysStored++

			// Already annotated on a previous run.
			if !inserted {
				totalKnown++
				state.VolleysKnown++
				continue
			}

			ann, err := r.analyzer.Annotate(ctx, v)
			if err != nil {
				r.logger.Error("annotation failed", "volley_id", v.ID, "error", err)
				state.AddError(fmt.Sprintf("annotate %s: %v", v.ID, err))
				fs.Errors++
				continue
			}
			if _, err := r.store.WriteAnnotation(ctx, *ann); err != nil {
				r.logger.Error("annotation persist failed", "volley_id", v.ID, "error", err)
				state.AddError(fmt.Sprintf("persist annotation %s: %v", v.ID, err))
				fs.Errors++
				continue
			}

			fs.Annotations++
			totalAnnotations++
			annotationsInBatch++
			state.Annotations++

			// Rate limiting: pause after batch-size annotations.
			if annotationsInBatch >= r.cfg.BatchSize {
				r.logger.Info("batch complete, saving state and pausing",
					"annotations_in_batch", annotationsInBatch,
					"total_annotations", totalAnnotations,
				)
				_ = state.Save()
				annotationsInBatch = 0

				r.postBatchSummary(ctx, fileSummaries)
				fileSummaries = nil

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(30 * time.Second):
				}
			}
		}

		if !r.cfg.DryRun {
			if err := r.store.ReplaceSessions(ctx, r.cfg.OwnerUUID, conversationID, seg.Sessions); err != nil {
				r.logger.Error("session persist failed", "conversation_id", conversationID, "error", err)
				state.AddError(fmt.Sprintf("sessions %s: %v", conversationID, err))
				fs.Errors++
			}
		}

		fileSummaries = append(fileSummaries, fs)
		state.MarkProcessed(pf.path)
		state.FilesRemaining--
		_ = state.Save()
	}

	_ = state.Save()
	r.postBatchSummary(ctx, fileSummaries)

	r.logger.Info("ingest complete",
		"files_processed", len(allFiles),
		"volleys", totalVolleys,
		"already_known", totalKnown,
		"annotations", totalAnnotations,
		"dry_run", r.cfg.DryRun,
	)

	fmt.Printf("\n=== Ingest Summary ===\n")
	fmt.Printf("Files processed: %d\n", len(allFiles))
	fmt.Printf("Volleys: %d\n", totalVolleys)
	fmt.Printf("Already known: %d\n", totalKnown)
	fmt.Printf("Annotations: %d\n", totalAnnotations)
	fmt.Printf("Errors: %d\n", len(state.Errors))
	if r.cfg.DryRun {
		fmt.Printf("Mode: DRY RUN (no DB writes)\n")
	}
	fmt.Printf("State file: %s\n", expandHome(defaultStatePath))

	return nil
}

// postBatchSummary posts a summary of ingest results to Slack, grouped by
// date. If Slack is not configured, it logs the summary instead.
func (r *Runner) postBatchSummary(ctx context.Context, summaries []FileSummary) {
	if len(summaries) == 0 {
		return
	}

	text := FormatBatchSummary(summaries)

	if r.slack == nil {
		r.logger.Info("ingest batch summary (no Slack configured)",
			"summary", text,
		)
		return
	}

	// Post as a standalone message (not a thread reply).
	if err := r.slack.PostThread(ctx, "", text); err != nil {
		r.logger.Warn("failed to post batch summary to Slack, logging instead",
			"error", err,
			"summary", text,
		)
	}
}

// FormatBatchSummary formats file summaries grouped by date.
func FormatBatchSummary(summaries []FileSummary) string {
	byDate := make(map[string][]FileSummary)
	for _, s := range summaries {
		date := s.Date
		if date == "" {
			date = "unknown"
		}
		byDate[date] = append(byDate[date], s)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var sb strings.Builder
	sb.WriteString("*Ingest Batch Summary*\n")

	for _, date := range dates {
		files := byDate[date]
		totalVol, totalAnn := 0, 0
		for _, f := range files {
			totalVol += f.Volleys
			totalAnn += f.Annotations
		}
		fmt.Fprintf(&sb, "\n*%s* (%d files, %d volleys, %d annotated)\n", date, len(files), totalVol, totalAnn)
		for _, f := range files {
			name := filepath.Base(f.Path)
			fmt.Fprintf(&sb, "  - %s [%s]: %d volleys, %d annotated", name, f.Source, f.Volleys, f.Annotations)
			if f.Errors > 0 {
				fmt.Fprintf(&sb, " (%d errors)", f.Errors)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (r *Runner) discoverFiles() (jsonlFiles, textFiles []string, err error) {
	if r.cfg.SingleFile != "" {
		path := expandHome(r.cfg.SingleFile)
		if _, err := os.Stat(path); err != nil {
			return nil, nil, fmt.Errorf("single file not found: %s", path)
		}
		if strings.HasSuffix(path, ".txt") {
			return nil, []string{path}, nil
		}
		return []string{path}, nil, nil
	}

	jsonlDir := expandHome(r.cfg.JSONLDir)
	textDir := expandHome(r.cfg.TextDir)

	if info, err := os.Stat(jsonlDir); err == nil && info.IsDir() {
		err = filepath.Walk(jsonlDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip errors
			}
			if !info.IsDir() && strings.HasSuffix(info.Name(), ".jsonl") {
				jsonlFiles = append(jsonlFiles, path)
			}
			return nil
		})
		if err != nil {
			r.logger.Warn("error walking JSONL dir", "dir", jsonlDir, "error", err)
		}
	}

	if info, err := os.Stat(textDir); err == nil && info.IsDir() {
		err = filepath.Walk(textDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() && strings.HasSuffix(info.Name(), ".txt") {
				textFiles = append(textFiles, path)
			}
			return nil
		})
		if err != nil {
			r.logger.Warn("error walking text export dir", "dir", textDir, "error", err)
		}
	}

	return jsonlFiles, textFiles, nil
}

// inDateRange checks if any message falls within the configured since/until range.
func (r *Runner) inDateRange(msgs []RawMessage) bool {
	if r.cfg.Since.IsZero() && r.cfg.Until.IsZero() {
		return true
	}

	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			continue
		}
		if !r.cfg.Since.IsZero() && m.Timestamp.Before(r.cfg.Since) {
			continue
		}
		if !r.cfg.Until.IsZero() && m.Timestamp.After(r.cfg.Until) {
			continue
		}
		return true
	}
	return false
}

// conversationIDFromPath derives a stable conversation ID from the export
// file name, so re-running ingest on the same export hits the same rows.
func conversationIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func toSegmentMessages(msgs []RawMessage) []segment.Message {
	out := make([]segment.Message, len(msgs))
	for i, m := range msgs {
		out[i] = segment.Message{
			Sender:    m.Sender,
			Content:   m.Text,
			Timestamp: m.Timestamp,
		}
	}
	return out
}

func sourceStr(s FileSource) string {
	if s == SourceJSONL {
		return "jsonl"
	}
	return "text"
}
