package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/structur-io/structur/internal/adapter"
	"github.com/structur-io/structur/internal/config"
	"github.com/structur-io/structur/internal/controller"
	m "github.com/structur-io/structur/internal/model"
)

// Workflow defines the interface for a document processing run.
type Workflow interface {
	Run(input m.Path) (m.RunStats, error)
}

type workflow struct {
	cfg        *config.Settings
	source     adapter.DocumentSource
	store      adapter.OutputStore
	codes      adapter.CodesStore
	ui         controller.UI
	registry   *Registry
	classifier *Classifier
	logger     *zap.Logger
}

// NewWorkflow creates a Workflow instance with the provided adapters.
func NewWorkflow(
	cfg *config.Settings,
	source adapter.DocumentSource,
	store adapter.OutputStore,
	codes adapter.CodesStore,
	ui controller.UI,
	logger *zap.Logger,
) (Workflow, error) {
	styles, err := cfg.BracketStyles()
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()

	return &workflow{
		cfg:        cfg,
		source:     source,
		store:      store,
		codes:      codes,
		ui:         ui,
		registry:   registry,
		classifier: NewClassifier(styles, cfg.CodeFilters, registry),
		logger:     logger,
	}, nil
}

// Run processes every document under input sequentially. A document that
// fails to read or decode is reported and skipped; it never aborts the run.
func (w *workflow) Run(input m.Path) (m.RunStats, error) {
	stats := m.RunStats{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	if err := w.store.EnsureLayout(); err != nil {
		return stats, fmt.Errorf("prepare output layout: %w", err)
	}

	seen, err := w.store.LoadManifest()
	if err != nil {
		return stats, err
	}

	w.registry.RestoreSeeded(seen)
	w.logger.Info("run starting",
		zap.String("run_id", stats.RunID),
		zap.Int("seeded_entries", len(seen)))

	paths, err := w.source.List(input)
	if err != nil {
		return stats, err
	}

	if err := w.ui.Start(len(paths)); err != nil {
		return stats, err
	}

	var runCodes []string

	codesSeen := make(map[string]struct{})

	for _, path := range paths {
		result := w.processDocument(path, &stats)

		for _, code := range result.ExtractedCodes {
			if _, ok := codesSeen[code]; !ok {
				codesSeen[code] = struct{}{}
				runCodes = append(runCodes, code)
			}
		}

		w.ui.DocumentCompleted(result.DocID, result)
	}

	if err := w.finalize(&stats, runCodes); err != nil {
		return stats, err
	}

	stats.Finished = time.Now()

	w.logger.Info("run finished",
		zap.String("run_id", stats.RunID),
		zap.Int("processed", stats.Processed),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", stats.Finished.Sub(stats.Started)))

	return stats, w.ui.DisplaySummary(stats)
}

// processDocument runs one document through the classifier and writes its
// results. Per-destination write errors are collected, never fatal.
func (w *workflow) processDocument(path m.Path, stats *m.RunStats) m.ProcessingResult {
	w.ui.DocumentStarted(string(path))

	doc, err := w.source.Read(path)
	if err != nil {
		return w.failDocument(string(path), err, stats)
	}

	if err := w.store.CopyOriginal(doc); err != nil {
		// The original copy is a convenience; processing continues.
		stats.WriteErrors = append(stats.WriteErrors, err.Error())
		w.logger.Warn("copy original failed", zap.String("doc", doc.ID), zap.Error(err))
	}

	result, err := w.classifier.Classify(doc)
	if err != nil {
		return w.failDocument(doc.ID, err, stats)
	}

	w.writeResult(result, stats)

	result.State = m.StateWritten
	stats.Processed++
	stats.CodedSpans += len(result.Coded)
	stats.MalformedSpans += len(result.Malformed)
	stats.Duplicates += len(result.Duplicates)
	stats.AlreadyCoded += len(result.AlreadyCoded)

	stats.Words.Original += result.Counts.Original
	stats.Words.Coded += result.Counts.Coded
	stats.Words.Uncoded += result.Counts.Uncoded
	stats.Words.Duplicate += result.Counts.Duplicate
	stats.Words.Malformed += result.Counts.Malformed

	if !result.Counts.Reconciles(result.Tolerance) {
		stats.Mismatches++
		w.logger.Warn("word counts did not reconcile",
			zap.String("doc", doc.ID),
			zap.Int("difference", result.Counts.Difference()),
			zap.Int("tolerance", result.Tolerance))
	}

	w.logger.Debug("document processed",
		zap.String("doc", doc.ID),
		zap.Int("coded", len(result.Coded)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("already_coded", len(result.AlreadyCoded)),
		zap.Int("malformed", len(result.Malformed)))

	return result
}

func (w *workflow) failDocument(id string, err error, stats *m.RunStats) m.ProcessingResult {
	stats.Failed++
	stats.DocFailures = append(stats.DocFailures, fmt.Sprintf("%s: %v", id, err))
	w.logger.Error("document failed", zap.String("doc", id), zap.Error(err))

	return m.ProcessingResult{
		DocID:         id,
		State:         m.StateFailed,
		FailureReason: err.Error(),
	}
}

// writeResult persists one document's buckets. Each destination is written
// independently so one failing file does not lose the others.
func (w *workflow) writeResult(result m.ProcessingResult, stats *m.RunStats) {
	w.writeCoded(result, stats)
	w.writeDuplicates(result, stats)
	w.writeMalformed(result, stats)
	w.writeResidual(result, stats)
}

// writeCoded groups new spans by code and style, preserving document order
// within each destination.
func (w *workflow) writeCoded(result m.ProcessingResult, stats *m.RunStats) {
	var order []m.CodeKey

	grouped := make(map[m.CodeKey][]string)

	for _, span := range result.Coded {
		key := m.CodeKey{Name: span.Code, Style: span.Style}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}

		grouped[key] = append(grouped[key], w.renderSpan(span))
	}

	for _, key := range order {
		content := ""
		for i, piece := range grouped[key] {
			if i > 0 {
				content += "\n\n"
			}

			content += piece
		}

		if _, err := w.store.AppendCoded(key, content); err != nil {
			w.recordWriteError(stats, err)
		}
	}
}

// renderSpan formats a span body for its destination file.
func (w *workflow) renderSpan(span m.CodeSpan) string {
	content := span.Body

	if w.cfg.PreserveCodes {
		content = span.Markup()
	} else if span.Identifier != "" {
		content += " ^" + span.Identifier
	}

	if w.cfg.LinkToSource {
		content += fmt.Sprintf("\n\n[source: %s]", span.Source)
	}

	return content
}

func (w *workflow) writeDuplicates(result m.ProcessingResult, stats *m.RunStats) {
	if w.cfg.DuplicatesEnabled {
		for _, hit := range result.Duplicates {
			content := fmt.Sprintf("(first seen: %s)\n%s", hit.FirstLocation, hit.Content)
			if err := w.store.AppendBucket(adapter.BucketDuplicates, result.DocID, content); err != nil {
				w.recordWriteError(stats, err)
			}
		}
	}

	for _, hit := range result.AlreadyCoded {
		content := fmt.Sprintf("(first seen: %s)\n%s", hit.FirstLocation, hit.Content)
		if err := w.store.AppendBucket(adapter.BucketAlreadyCoded, result.DocID, content); err != nil {
			w.recordWriteError(stats, err)
		}
	}
}

func (w *workflow) writeMalformed(result m.ProcessingResult, stats *m.RunStats) {
	for _, ms := range result.Malformed {
		content := fmt.Sprintf("(%s)\n%s", ms.Reason.Description(), ms.Text)
		if err := w.store.AppendBucket(adapter.BucketMalformed, result.DocID, content); err != nil {
			w.recordWriteError(stats, err)
		}
	}
}

// writeResidual routes the uncoded remainder: a repeat goes to the duplicate
// buckets, fresh residual to uncoded.
func (w *workflow) writeResidual(result m.ProcessingResult, stats *m.RunStats) {
	if result.Uncoded == "" {
		return
	}

	if result.UncodedDup != nil {
		bucket := adapter.BucketDuplicates
		if result.UncodedDup.Seeded {
			bucket = adapter.BucketAlreadyCoded
		}

		if bucket == adapter.BucketDuplicates && !w.cfg.DuplicatesEnabled {
			return
		}

		content := fmt.Sprintf("(first seen: %s)\n%s", result.UncodedDup.FirstLocation, result.Uncoded)
		if err := w.store.AppendBucket(bucket, result.DocID, content); err != nil {
			w.recordWriteError(stats, err)
		}

		return
	}

	if !w.cfg.UncodedEnabled {
		return
	}

	if err := w.store.AppendBucket(adapter.BucketUncoded, result.DocID, result.Uncoded); err != nil {
		w.recordWriteError(stats, err)
	}
}

// finalize updates the master code list, persists the duplicate manifest and
// removes empty leftovers.
func (w *workflow) finalize(stats *m.RunStats, runCodes []string) error {
	if w.cfg.CodesFile != "" && w.cfg.AutoCodesFile {
		added, err := w.codes.AppendNew(m.Path(w.cfg.CodesFile), runCodes)
		if err != nil {
			return fmt.Errorf("update codes file: %w", err)
		}

		stats.NewCodes = added
	}

	if w.cfg.RegenerateCodes && w.cfg.CodesFile != "" {
		known, err := w.codes.Load(m.Path(w.cfg.CodesFile))
		if err != nil {
			return err
		}

		created, err := w.codes.CreateEmptyCodeFiles(w.cfg.CodedPath(), known)
		if err != nil {
			return fmt.Errorf("regenerate code files: %w", err)
		}

		w.logger.Info("regenerated code files", zap.Int("created", created))
	}

	if err := w.store.SaveManifest(w.registry.Snapshot()); err != nil {
		return err
	}

	removed, err := w.store.CleanupEmpty()
	if err != nil {
		return err
	}

	if removed > 0 {
		w.logger.Debug("removed empty output files", zap.Int("count", removed))
	}

	return nil
}

func (w *workflow) recordWriteError(stats *m.RunStats, err error) {
	stats.WriteErrors = append(stats.WriteErrors, err.Error())
	w.logger.Error("write failed", zap.Error(err))
}
