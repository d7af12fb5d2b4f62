package jobstore

import (
	"time"
)

// TaskType is the closed set of work categories the pipeline schedules.
// Adding a variant requires extending the dispatch switch in the
// orchestrator, which is a compile-visible change.
type TaskType string

const (
	// TaskAudio is transcription post-processing for one audio chunk:
	// normalize, correct, align, segment.
	TaskAudio TaskType = "audio"
	// TaskVisual is vision-language analysis of shared-screen captures.
	TaskVisual TaskType = "visual"
	// TaskSummary is LLM map/reduce/refine work over topic chunks.
	TaskSummary TaskType = "summary"
)

// TaskTypes lists all valid task types.
func TaskTypes() []TaskType {
	return []TaskType{TaskAudio, TaskVisual, TaskSummary}
}

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskAudio, TaskVisual, TaskSummary:
		return true
	}
	return false
}

// Status is a job's position in the lifecycle state machine.
type Status string

const (
	// StatusPending means the job is waiting to be claimed.
	StatusPending Status = "pending"
	// StatusProcessing means exactly one worker holds the job.
	StatusProcessing Status = "processing"
	// StatusCompleted is terminal success.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal failure; an operator may requeue.
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// validTransitions is the job status transition graph. Requeue
// (failed -> pending) is an explicit operator action, logged distinctly;
// it is still part of the graph so every mutation is checked against it.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusPending},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Stage identifies which pipeline step a summary job performs.
type Stage string

const (
	// StageMap extracts salient content from one chunk.
	StageMap Stage = "map"
	// StageReduce synthesizes all map extractions into one note.
	StageReduce Stage = "reduce"
	// StageRefine runs iterative density refinement over the reduced note.
	StageRefine Stage = "refine"
)

// Job is one durable, independently schedulable unit of pipeline work.
type Job struct {
	// ID is globally unique and never reused.
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// MeetingID groups jobs belonging to one recording session.
	MeetingID string `gorm:"index;size:64;not null" json:"meeting_id"`
	// TaskType selects the worker category that may claim this job.
	TaskType TaskType `gorm:"index;size:16;not null" json:"task_type"`
	// Status is the lifecycle state; mutated only through Store operations.
	Status Status `gorm:"index;size:16;not null" json:"status"`
	// Stage is set for summary jobs (map/reduce/refine), empty otherwise.
	Stage Stage `gorm:"size:16" json:"stage,omitempty"`
	// ChunkRef is an opaque pointer to the externally owned input payload.
	ChunkRef string `gorm:"size:512" json:"chunk_ref"`
	// ChunkIndex is the 1-based chunk position for map jobs, 0 otherwise.
	ChunkIndex int `json:"chunk_index,omitempty"`
	// Reason records why a failed job failed. Human-inspectable.
	Reason string `gorm:"size:1024" json:"reason,omitempty"`
	// ClaimedAt records when the current processing claim was taken.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	// CreatedAt is set once at insertion.
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	// UpdatedAt tracks the last status mutation.
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the jobs table name for GORM.
func (Job) TableName() string { return "jobs" }

// NewJob describes a job to enqueue.
type NewJob struct {
	MeetingID  string
	TaskType   TaskType
	Stage      Stage
	ChunkRef   string
	ChunkIndex int
}
