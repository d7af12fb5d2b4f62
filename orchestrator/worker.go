package orchestrator

import (
	"context"
	"time"

	"github.com/skillsenselab/scribeflow/jobstore"
	"github.com/skillsenselab/scribeflow/logger"
)

// Worker polls the job store for claimable work and runs it through the
// orchestrator. Several workers may run concurrently against one store;
// the guarded claim keeps them from processing the same job.
type Worker struct {
	orch *Orchestrator
	cfg  Config
	log  *logger.Logger
}

// NewWorker creates a worker around an orchestrator.
func NewWorker(orch *Orchestrator, cfg Config) *Worker {
	cfg.ApplyDefaults()
	return &Worker{
		orch: orch,
		cfg:  cfg,
		log:  logger.Get("worker"),
	}
}

// Run polls until the context is cancelled. Empty polls back off
// exponentially up to MaxBackoff; claiming a job resets the backoff. One
// reconcile pass runs first, picking up spawns a previous process lost
// between a terminal write and its follow-up enqueue.
func (w *Worker) Run(ctx context.Context) error {
	if _, err := w.Reconcile(ctx); err != nil && ctx.Err() == nil {
		w.log.Error("startup reconcile", logger.Fields(logger.FieldError, err.Error()))
	}

	backoff := w.cfg.PollInterval
	for {
		worked, err := w.Tick(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Error("worker tick", logger.Fields(logger.FieldError, err.Error()))
		}
		if worked {
			backoff = w.cfg.PollInterval
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > w.cfg.MaxBackoff {
			backoff = w.cfg.MaxBackoff
		}
	}
}

// Tick claims and processes at most one job per configured task type.
// Returns true if any job was processed.
func (w *Worker) Tick(ctx context.Context) (bool, error) {
	worked := false
	for _, taskType := range w.cfg.TaskTypes {
		job, err := w.orch.deps.Store.ClaimNext(ctx, taskType)
		if err != nil {
			return worked, err
		}
		if job == nil {
			continue
		}
		worked = true
		if err := w.orch.Process(ctx, job); err != nil {
			return worked, err
		}
	}
	return worked, nil
}

// Drain ticks until the store has no claimable work left, then returns the
// number of jobs processed. Intended for batch runs and tests.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		worked, err := w.Tick(ctx)
		if err != nil {
			return n, err
		}
		if !worked {
			return n, nil
		}
		n++
	}
}

// Reconcile reports jobs that have been processing longer than StuckAfter
// and re-evaluates every meeting's barrier spawns. Stuck jobs are only
// logged; force-failing one is an explicit operator action. The spawn
// checks are repeat-safe, so a reduce or refine lost to a crash is
// re-enqueued here.
func (w *Worker) Reconcile(ctx context.Context) ([]jobstore.Job, error) {
	stuck, err := w.orch.deps.Store.ListStuck(ctx, w.cfg.StuckAfter)
	if err != nil {
		return nil, err
	}
	for _, j := range stuck {
		w.log.Warn("job processing past deadline", logger.Fields(
			logger.FieldJobID, j.ID,
			logger.FieldMeetingID, j.MeetingID,
			logger.FieldTaskType, string(j.TaskType),
		))
	}

	meetings, err := w.orch.deps.Store.MeetingsWithStage(ctx, jobstore.StageMap)
	if err != nil {
		return stuck, err
	}
	for _, meetingID := range meetings {
		if err := w.orch.ReconcileSpawns(ctx, meetingID); err != nil {
			return stuck, err
		}
	}
	return stuck, nil
}
