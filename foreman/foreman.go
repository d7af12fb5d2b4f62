package foreman

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/jobstore"
	"github.com/skillsenselab/scribeflow/logger"
)

// Token is the exclusive-access token for the shared accelerator. It must be
// presented back to Release. The holder contract is:
//
//	acquire -> load model -> run inference -> unload model -> release
//
// Release must only be called after the holder has actually freed the
// accelerator memory; the foreman cannot verify this precondition.
type Token struct {
	id         string
	taskType   jobstore.TaskType
	acquiredAt time.Time
}

// TaskType returns the task type the token was acquired for.
func (t *Token) TaskType() jobstore.TaskType { return t.taskType }

// AcquiredAt returns when the lock was taken.
func (t *Token) AcquiredAt() time.Time { return t.acquiredAt }

// waiter is one queued Acquire call.
type waiter struct {
	taskType jobstore.TaskType
	priority int
	seq      uint64
	ready    chan *Token
	granted  bool
}

// Foreman enforces that at most one accelerator-bound model is active at a
// time. Lock state is in-memory only: on process restart the accelerator is
// assumed free, and the job store provides the startup reconciliation view
// of any work that was in flight.
type Foreman struct {
	mu      sync.Mutex
	cfg     Config
	holder  *Token
	waiters []*waiter
	nextSeq uint64
	log     *logger.Logger
}

// New creates a Foreman with the given configuration.
func New(cfg Config) *Foreman {
	cfg.ApplyDefaults()
	return &Foreman{
		cfg: cfg,
		log: logger.Get("foreman"),
	}
}

// Acquire blocks until the accelerator is free (and no higher-priority task
// type is waiting), the context is done, or the configured wait timeout
// elapses. On timeout it returns a LOCK_TIMEOUT error the caller may retry
// under its own policy.
func (f *Foreman) Acquire(ctx context.Context, taskType jobstore.TaskType) (*Token, error) {
	if !taskType.Valid() {
		return nil, errors.Validation("unknown task type " + string(taskType))
	}

	f.mu.Lock()
	f.reclaimStaleLocked()

	if f.holder == nil && !f.hasPriorWaiterLocked(taskType) {
		token := f.grantLocked(taskType)
		f.mu.Unlock()
		return token, nil
	}

	w := &waiter{
		taskType: taskType,
		priority: f.cfg.priorityOf(taskType),
		seq:      f.nextSeq,
		ready:    make(chan *Token, 1),
	}
	f.nextSeq++
	f.waiters = append(f.waiters, w)
	f.mu.Unlock()

	timer := time.NewTimer(f.cfg.AcquireTimeout)
	defer timer.Stop()

	select {
	case token := <-w.ready:
		return token, nil
	case <-ctx.Done():
		f.abandonWaiter(w)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Timeout("acquire " + string(taskType))
		}
		return nil, ctx.Err()
	case <-timer.C:
		f.abandonWaiter(w)
		return nil, errors.LockTimeout(string(taskType))
	}
}

// Release frees the accelerator. Only the current holder's token is
// accepted; anything else is reported as a caller bug.
func (f *Foreman) Release(token *Token) error {
	if token == nil {
		return errors.NotHolder("")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.holder == nil || f.holder.id != token.id {
		return errors.NotHolder(token.id)
	}

	held := time.Since(f.holder.acquiredAt)
	f.log.Debug("accelerator released", logger.Fields(
		logger.FieldTaskType, string(token.taskType),
		logger.FieldDuration, held.Milliseconds(),
	))

	f.holder = nil
	f.grantNextLocked()
	return nil
}

// Holder reports the current holder's task type and acquisition time, or
// ok=false when the accelerator is free.
func (f *Foreman) Holder() (taskType jobstore.TaskType, since time.Time, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder == nil {
		return "", time.Time{}, false
	}
	return f.holder.taskType, f.holder.acquiredAt, true
}

// Waiting returns the number of queued acquisitions.
func (f *Foreman) Waiting() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// --- internal ---

// grantLocked installs a new holder token. Caller holds f.mu.
func (f *Foreman) grantLocked(taskType jobstore.TaskType) *Token {
	token := &Token{
		id:         uuid.NewString(),
		taskType:   taskType,
		acquiredAt: time.Now(),
	}
	f.holder = token
	return token
}

// grantNextLocked hands the lock to the best waiter, if any. Best means
// lowest priority index, then FIFO within the same priority class.
// Caller holds f.mu.
func (f *Foreman) grantNextLocked() {
	best := -1
	for i, w := range f.waiters {
		if best == -1 {
			best = i
			continue
		}
		b := f.waiters[best]
		if w.priority < b.priority || (w.priority == b.priority && w.seq < b.seq) {
			best = i
		}
	}
	if best == -1 {
		return
	}

	w := f.waiters[best]
	f.waiters = append(f.waiters[:best], f.waiters[best+1:]...)
	w.granted = true
	w.ready <- f.grantLocked(w.taskType)
}

// hasPriorWaiterLocked reports whether any queued waiter outranks or
// matches the given task type. A fresh caller never jumps the queue.
// Caller holds f.mu.
func (f *Foreman) hasPriorWaiterLocked(taskType jobstore.TaskType) bool {
	p := f.cfg.priorityOf(taskType)
	for _, w := range f.waiters {
		if w.priority <= p {
			return true
		}
	}
	return false
}

// reclaimStaleLocked force-frees the lock if the holder exceeded the
// maximum hold duration. This is a safety valve against crashed holders,
// not a normal path; it is logged as an anomaly. Caller holds f.mu.
func (f *Foreman) reclaimStaleLocked() {
	if f.holder == nil || f.cfg.MaxHoldDuration <= 0 {
		return
	}
	held := time.Since(f.holder.acquiredAt)
	if held <= f.cfg.MaxHoldDuration {
		return
	}
	f.log.Error("stale accelerator lock reclaimed", logger.Fields(
		logger.FieldTaskType, string(f.holder.taskType),
		logger.FieldHolder, f.holder.id,
		logger.FieldDuration, held.Milliseconds(),
	))
	f.holder = nil
	f.grantNextLocked()
}

// abandonWaiter removes a timed-out or canceled waiter. If a grant raced
// the abandonment, the already-delivered token is released back so the
// lock is not lost.
func (f *Foreman) abandonWaiter(w *waiter) {
	f.mu.Lock()
	if w.granted {
		token := <-w.ready
		if f.holder != nil && f.holder.id == token.id {
			f.holder = nil
			f.grantNextLocked()
		}
		f.mu.Unlock()
		return
	}
	for i, cand := range f.waiters {
		if cand == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			break
		}
	}
	f.mu.Unlock()
}
