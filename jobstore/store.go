package jobstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/logger"
)

// Store is the durable, transactional record of every unit of work.
// Each mutation is one fine-grained transaction; the store is never locked
// for the duration of a task's execution.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open opens (creating if needed) the SQLite-backed job store. WAL journal
// mode lets the claiming readers proceed while a producer writes.
func Open(cfg Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, errors.StoreError(fmt.Errorf("open %s: %w", cfg.Path, err))
	}

	if err := db.AutoMigrate(&Job{}); err != nil {
		return nil, errors.StoreError(fmt.Errorf("migrate jobs table: %w", err))
	}

	log := logger.Get("jobstore")
	log.Info("job store opened", logger.Fields("path", cfg.Path))

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Enqueue inserts a new job in pending state and returns its ID.
// Fails only on storage I/O error.
func (s *Store) Enqueue(ctx context.Context, in NewJob) (string, error) {
	if !in.TaskType.Valid() {
		return "", errors.Validation(fmt.Sprintf("unknown task type %q", in.TaskType))
	}
	if in.MeetingID == "" {
		return "", errors.Validation("meeting_id is required")
	}

	job := Job{
		ID:         uuid.NewString(),
		MeetingID:  in.MeetingID,
		TaskType:   in.TaskType,
		Status:     StatusPending,
		Stage:      in.Stage,
		ChunkRef:   in.ChunkRef,
		ChunkIndex: in.ChunkIndex,
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", errors.StoreError(err)
	}

	s.log.Debug("job enqueued", logger.Fields(
		logger.FieldJobID, job.ID,
		logger.FieldMeetingID, job.MeetingID,
		logger.FieldTaskType, string(job.TaskType),
		logger.FieldStage, string(job.Stage),
	))
	return job.ID, nil
}

// EnqueueOnce inserts a job only if the meeting has no job with the same
// task type and stage yet, in one transaction. Returns the new job ID, or
// "" when such a job already exists. The orchestrator uses this to spawn
// the reduce job exactly once when several workers clear the map barrier
// at the same time.
func (s *Store) EnqueueOnce(ctx context.Context, in NewJob) (string, error) {
	if !in.TaskType.Valid() {
		return "", errors.Validation(fmt.Sprintf("unknown task type %q", in.TaskType))
	}
	if in.MeetingID == "" {
		return "", errors.Validation("meeting_id is required")
	}

	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&Job{}).
			Where("meeting_id = ? AND task_type = ? AND stage = ?", in.MeetingID, in.TaskType, in.Stage).
			Count(&n).Error
		if err != nil {
			return errors.StoreError(err)
		}
		if n > 0 {
			return nil
		}

		job := Job{
			ID:         uuid.NewString(),
			MeetingID:  in.MeetingID,
			TaskType:   in.TaskType,
			Status:     StatusPending,
			Stage:      in.Stage,
			ChunkRef:   in.ChunkRef,
			ChunkIndex: in.ChunkIndex,
		}
		if err := tx.Create(&job).Error; err != nil {
			return errors.StoreError(err)
		}
		id = job.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	if id != "" {
		s.log.Debug("job enqueued", logger.Fields(
			logger.FieldJobID, id,
			logger.FieldMeetingID, in.MeetingID,
			logger.FieldTaskType, string(in.TaskType),
			logger.FieldStage, string(in.Stage),
		))
	}
	return id, nil
}

// ClaimNext atomically claims the oldest pending job of the given task type,
// moving it to processing. Returns (nil, nil) when no pending job exists.
// At most one consumer can claim a given job: the claim is a guarded update
// whose affected-row count is checked inside one transaction.
func (s *Store) ClaimNext(ctx context.Context, taskType TaskType) (*Job, error) {
	var claimed *Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job Job
		err := tx.Where("task_type = ? AND status = ?", taskType, StatusPending).
			Order("created_at ASC").
			First(&job).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.StoreError(err)
		}

		now := time.Now()
		res := tx.Model(&Job{}).
			Where("id = ? AND status = ?", job.ID, StatusPending).
			Updates(map[string]any{"status": StatusProcessing, "claimed_at": now})
		if res.Error != nil {
			return errors.StoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent claimer; treat as no job.
			return nil
		}

		job.Status = StatusProcessing
		job.ClaimedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}

	if claimed != nil {
		s.log.Debug("job claimed", logger.Fields(
			logger.FieldJobID, claimed.ID,
			logger.FieldTaskType, string(taskType),
		))
	}
	return claimed, nil
}

// Complete transitions a job from processing to completed. A duplicate call
// is detected and reported as an invalid transition, never double-applied.
func (s *Store) Complete(ctx context.Context, jobID string) error {
	return s.transition(ctx, jobID, StatusProcessing, StatusCompleted, "")
}

// Fail transitions a job from processing to failed, recording the reason.
// The job remains inspectable and is never retried automatically.
func (s *Store) Fail(ctx context.Context, jobID, reason string) error {
	return s.transition(ctx, jobID, StatusProcessing, StatusFailed, reason)
}

// Requeue moves a failed job back to pending. This is an explicit operator
// action, logged distinctly from automatic flow.
func (s *Store) Requeue(ctx context.Context, jobID string) error {
	if err := s.transition(ctx, jobID, StatusFailed, StatusPending, ""); err != nil {
		return err
	}
	s.log.Warn("job requeued by operator", logger.Fields(logger.FieldJobID, jobID))
	return nil
}

// Abandon force-fails a job stuck in processing. This is the operator-visible
// mechanism for jobs presumed abandoned by a dead worker.
func (s *Store) Abandon(ctx context.Context, jobID, reason string) error {
	if err := s.transition(ctx, jobID, StatusProcessing, StatusFailed, reason); err != nil {
		return err
	}
	s.log.Warn("job abandoned by operator", logger.Fields(
		logger.FieldJobID, jobID,
		logger.FieldReason, reason,
	))
	return nil
}

// transition performs one guarded status change as a single transaction.
func (s *Store) transition(ctx context.Context, jobID string, from, to Status, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": to}
		if reason != "" {
			updates["reason"] = reason
		}
		if to == StatusPending {
			updates["claimed_at"] = nil
			updates["reason"] = ""
		}

		res := tx.Model(&Job{}).
			Where("id = ? AND status = ?", jobID, from).
			Updates(updates)
		if res.Error != nil {
			return errors.StoreError(res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}

		// The guard did not match: distinguish missing job from bad state.
		var job Job
		err := tx.Select("status").Where("id = ?", jobID).First(&job).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("job", jobID)
		}
		if err != nil {
			return errors.StoreError(err)
		}
		return errors.InvalidTransition(jobID, string(job.Status), string(to))
	})
}

// Get returns a job by ID.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	err := s.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("job", jobID)
	}
	if err != nil {
		return nil, errors.StoreError(err)
	}
	return &job, nil
}

// ListByMeeting returns all jobs for a meeting in creation order.
func (s *Store) ListByMeeting(ctx context.Context, meetingID string) ([]Job, error) {
	var jobs []Job
	err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.StoreError(err)
	}
	return jobs, nil
}

// ListByStatus returns all jobs in the given status in creation order.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Job, error) {
	var jobs []Job
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.StoreError(err)
	}
	return jobs, nil
}

// ListStuck returns processing jobs claimed before the cutoff. These are
// candidates for the operator to Abandon; nothing is failed automatically.
func (s *Store) ListStuck(ctx context.Context, maxAge time.Duration) ([]Job, error) {
	cutoff := time.Now().Add(-maxAge)
	var jobs []Job
	err := s.db.WithContext(ctx).
		Where("status = ? AND claimed_at < ?", StatusProcessing, cutoff).
		Order("claimed_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.StoreError(err)
	}
	return jobs, nil
}

// StageCounts reports, for one meeting and stage, how many jobs are in each
// status. The orchestrator uses this as the reduce join barrier.
func (s *Store) StageCounts(ctx context.Context, meetingID string, stage Stage) (map[Status]int, error) {
	type row struct {
		Status Status
		N      int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&Job{}).
		Select("status, count(*) as n").
		Where("meeting_id = ? AND stage = ?", meetingID, stage).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.StoreError(err)
	}
	counts := make(map[Status]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// MeetingsWithStage returns the distinct meeting IDs that have at least one
// job in the given stage. The reconcile pass uses this to find meetings
// whose barrier spawns need re-checking.
func (s *Store) MeetingsWithStage(ctx context.Context, stage Stage) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&Job{}).
		Where("stage = ?", stage).
		Distinct().
		Order("meeting_id ASC").
		Pluck("meeting_id", &ids).Error
	if err != nil {
		return nil, errors.StoreError(err)
	}
	return ids, nil
}

// ListByStage returns a meeting's jobs for one stage ordered by chunk index.
func (s *Store) ListByStage(ctx context.Context, meetingID string, stage Stage) ([]Job, error) {
	var jobs []Job
	err := s.db.WithContext(ctx).
		Where("meeting_id = ? AND stage = ?", meetingID, stage).
		Order("chunk_index ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.StoreError(err)
	}
	return jobs, nil
}
