package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/chestnut/internal/config"
	"github.com/dgallion1/chestnut/internal/convert"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	repo     Repository
	log      *slog.Logger
	cfg      config.Config
	storeSem chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, repo Repository, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		repo:     repo,
		log:      log,
		cfg:      cfg,
		storeSem: make(chan struct{}, max(cfg.MaxConcurrentStore, 1)),
	}
}

// NewWorker builds a worker that shares this pipeline's store semaphore.
func (o *Orchestrator) NewWorker() *Worker {
	return NewWorker(o.repo, o.log, convert.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}, o.storeSem)
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.NewWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats is a point-in-time view of the pipeline.
type Stats struct {
	Workers     int               `json:"workers"`
	QueueDepth  int               `json:"queue_depth"`
	QueueSize   int               `json:"queue_size"`
	TrackedJobs int               `json:"tracked_jobs"`
	ByStatus    map[JobStatus]int `json:"by_status"`
}

// Stats reports queue occupancy and job counts per status.
func (o *Orchestrator) Stats() Stats {
	byStatus := o.jobs.CountByStatus()
	tracked := 0
	for _, n := range byStatus {
		tracked += n
	}
	return Stats{
		Workers:     max(o.cfg.WorkerCount, 1),
		QueueDepth:  len(o.queue),
		QueueSize:   cap(o.queue),
		TrackedJobs: tracked,
		ByStatus:    byStatus,
	}
}
