package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/chestnut/internal/convert"
	"github.com/dgallion1/chestnut/internal/document"
	"github.com/dgallion1/chestnut/internal/outline"
	"github.com/dgallion1/chestnut/internal/store"
	"github.com/goliatone/go-slug"
)

// Repository is the slice of the store the worker writes through.
type Repository interface {
	Save(ctx context.Context, rec store.Record) error
	FindByHash(ctx context.Context, hash string) (string, error)
}

// Worker processes a single document job.
type Worker struct {
	repo     Repository
	log      *slog.Logger
	convOpts convert.Options

	// storeSem bounds concurrent writers across all workers sharing it.
	storeSem chan struct{}
}

func NewWorker(repo Repository, log *slog.Logger, convOpts convert.Options, storeSem chan struct{}) *Worker {
	if storeSem == nil {
		storeSem = make(chan struct{}, 1)
	}
	return &Worker{
		repo:     repo,
		log:      log,
		convOpts: convOpts,
		storeSem: storeSem,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.releaseFileData()

	// Phase 1: Convert
	job.SetStatus(StatusConverting, "converting")
	conv, err := convert.ForFile(job.Filename, w.convOpts)
	if err != nil {
		w.fail(log, job, "converting", "unsupported format", err)
		return
	}
	text, err := conv.Convert(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		w.fail(log, job, "converting", "convert", err)
		return
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	meta, body, err := outline.ForFile(job.Filename).Parse(text)
	if err != nil {
		w.fail(log, job, "parsing", "parse", err)
		return
	}

	title := ResolveTitle(job.Title, body.ID(), job.Filename)
	body = body.WithID(title)
	fileID, err := ResolveFileID(job.DocID, meta, job.Filename)
	if err != nil {
		w.fail(log, job, "parsing", "file id", err)
		return
	}
	hash := ContentHashHex([]byte(text))
	job.SetOutline(fileID, title, hash, body.Len())
	log = log.With("doc_id", fileID)
	log.Info("parsed document", "title", title, "sections", body.Len())

	// Phase 2.5: Dedup check
	if !job.Force {
		existing, err := w.repo.FindByHash(ctx, hash)
		switch {
		case err == nil:
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.MarkDuplicate(existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	var values map[string]any
	if meta != nil {
		values = meta.Values()
	}
	rec := store.Record{
		Document:    document.Load(document.NewMeta(fileID, values), text),
		Outline:     body,
		Filename:    job.Filename,
		ContentHash: hash,
	}
	if err := w.save(ctx, log, job, rec); err != nil {
		w.fail(log, job, "storing", "store", err)
		return
	}

	log.Info("document stored")
	job.SetStatus(StatusCompleted, "done")
}

// save writes the record, retrying on SQLite contention.
func (w *Worker) save(ctx context.Context, log *slog.Logger, job *Job, rec store.Record) error {
	select {
	case w.storeSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-w.storeSem }()

	var lastErr error
	for attempt := range MaxRetries {
		job.IncrStoreAttempts()
		lastErr = w.repo.Save(ctx, rec)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase, what string, err error) {
	log.Error(what+" failed", "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("%s: %s", what, err))
	job.SetStatus(StatusFailed, phase)
}

// ResolveTitle picks the document title: an explicit request title, then the
// parsed title, then the filename stem.
func ResolveTitle(requested, parsed, filename string) string {
	switch {
	case requested != "":
		return requested
	case parsed != "":
		return parsed
	default:
		return convert.Stem(filename)
	}
}

// ResolveFileID picks the stored file id: an explicit request id, then the
// metadata name, then a slug of the filename stem.
func ResolveFileID(requested string, meta *document.Meta, filename string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if meta != nil && meta.Name() != "" {
		return meta.Name(), nil
	}
	id, err := slug.Normalize(convert.Stem(filename))
	if err != nil {
		return "", fmt.Errorf("slug %q: %w", filename, err)
	}
	if id == "" {
		return "", fmt.Errorf("no file id derivable from %q", filename)
	}
	return id, nil
}
