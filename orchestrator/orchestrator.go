package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/scribeflow/align"
	"github.com/skillsenselab/scribeflow/asr"
	"github.com/skillsenselab/scribeflow/diarize"
	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/foreman"
	"github.com/skillsenselab/scribeflow/jargon"
	"github.com/skillsenselab/scribeflow/jobstore"
	"github.com/skillsenselab/scribeflow/logger"
	"github.com/skillsenselab/scribeflow/normalize"
	"github.com/skillsenselab/scribeflow/observability"
	"github.com/skillsenselab/scribeflow/payload"
	"github.com/skillsenselab/scribeflow/segment"
	"github.com/skillsenselab/scribeflow/summarize"
	"github.com/skillsenselab/scribeflow/transcript"
)

// VisualFunc analyzes one visual-capture job. The orchestrator holds the
// accelerator lock for the duration of the call.
type VisualFunc func(ctx context.Context, job *jobstore.Job) error

// Deps are the collaborators the orchestrator drives.
type Deps struct {
	Store      *jobstore.Store
	Payloads   *payload.Store
	Foreman    *foreman.Foreman
	ASR        asr.Provider
	Diarizer   diarize.Provider
	Normalizer *normalize.Normalizer
	Corrector  *jargon.Corrector
	Segmenter  *segment.Segmenter
	Summarizer *summarize.Summarizer
	// Visual handles visual-capture jobs. Nil means the capability is not
	// configured and visual jobs fail with a capability error.
	Visual VisualFunc
	// Metrics is optional; nil disables metric recording.
	Metrics *observability.Metrics
}

// Orchestrator drives jobs through the stage sequence, persisting progress
// in the job store between stages and routing accelerator-bound stages
// through the foreman. It is the only component that mutates job status in
// response to stage outcomes; stage transforms just return classified
// failures.
type Orchestrator struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
}

// New creates an Orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	cfg.ApplyDefaults()
	return &Orchestrator{
		deps: deps,
		cfg:  cfg,
		log:  logger.Get("orchestrator"),
	}
}

// Process runs one claimed job to a terminal state: Advance, then Complete
// or Fail, then any follow-up spawning the new state requires. Stage
// failures land in the job's reason field; retrying is an explicit operator
// action, never automatic.
func (o *Orchestrator) Process(ctx context.Context, job *jobstore.Job) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanAdvance)
	defer span.End()

	log := o.log.WithFields(logger.Fields(
		logger.FieldJobID, job.ID,
		logger.FieldMeetingID, job.MeetingID,
		logger.FieldTaskType, string(job.TaskType),
		logger.FieldStage, string(job.Stage),
	))

	if err := o.Advance(ctx, job); err != nil {
		observability.SetSpanError(ctx, err)
		log.Error("stage failed", logger.Fields(logger.FieldError, err.Error()))
		if ferr := o.deps.Store.Fail(ctx, job.ID, err.Error()); ferr != nil {
			log.Error("recording failure", logger.Fields(logger.FieldError, ferr.Error()))
			return ferr
		}
		o.recordTransition(ctx, job, jobstore.StatusFailed)
		return o.afterTerminal(ctx, job, jobstore.StatusFailed)
	}

	if err := o.deps.Store.Complete(ctx, job.ID); err != nil {
		// A duplicate or raced completion is an orchestrator bug surfaced
		// by the store's transition guard; do not spawn downstream work.
		log.Error("recording completion", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	o.recordTransition(ctx, job, jobstore.StatusCompleted)
	log.Info("job completed")
	return o.afterTerminal(ctx, job, jobstore.StatusCompleted)
}

// Advance dispatches a processing job to its stage transform. The switch is
// exhaustive over the closed task type set; adding a task type without a
// case here fails at this guard, not silently.
func (o *Orchestrator) Advance(ctx context.Context, job *jobstore.Job) error {
	switch job.TaskType {
	case jobstore.TaskAudio:
		return o.processAudio(ctx, job)
	case jobstore.TaskVisual:
		return o.processVisual(ctx, job)
	case jobstore.TaskSummary:
		switch job.Stage {
		case jobstore.StageMap:
			return o.processMap(ctx, job)
		case jobstore.StageReduce:
			return o.processReduce(ctx, job)
		case jobstore.StageRefine:
			return o.processRefine(ctx, job)
		default:
			return errors.StageOrder(job.ID, "map, reduce, or refine", string(job.Stage))
		}
	default:
		return errors.Internal(fmt.Errorf("unhandled task type %q", job.TaskType))
	}
}

// afterTerminal spawns whatever the job's terminal state unlocks. Map jobs
// check the reduce barrier on both success and failure: the reduce may only
// start once every map job for the meeting is terminal. The refine follows
// only a successful reduce; a failed reduce wrote no note, and the meeting
// stays failed until the operator requeues it.
func (o *Orchestrator) afterTerminal(ctx context.Context, job *jobstore.Job, status jobstore.Status) error {
	if job.TaskType != jobstore.TaskSummary {
		return nil
	}
	switch job.Stage {
	case jobstore.StageMap:
		return o.maybeSpawnReduce(ctx, job.MeetingID)
	case jobstore.StageReduce:
		if status != jobstore.StatusCompleted {
			return nil
		}
		return o.maybeSpawnRefine(ctx, job.MeetingID)
	default:
		return nil
	}
}

// ReconcileSpawns re-evaluates a meeting's barrier spawns. A crash between
// a job's terminal write and its follow-up enqueue leaves the spawn
// missing; the enqueues are exactly-once per meeting and stage, so this is
// safe to run at any time.
func (o *Orchestrator) ReconcileSpawns(ctx context.Context, meetingID string) error {
	if err := o.maybeSpawnReduce(ctx, meetingID); err != nil {
		return err
	}
	reduces, err := o.deps.Store.ListByStage(ctx, meetingID, jobstore.StageReduce)
	if err != nil {
		return err
	}
	for _, r := range reduces {
		if r.Status == jobstore.StatusCompleted {
			return o.maybeSpawnRefine(ctx, meetingID)
		}
	}
	return nil
}

// --- audio ---

// processAudio runs the full CPU cascade for one transcribed audio chunk:
// transcribe and diarize under the accelerator lock, then normalize,
// correct, align, and segment inline, and finally persist the chunks and
// spawn one map job per chunk.
func (o *Orchestrator) processAudio(ctx context.Context, job *jobstore.Job) error {
	audioPath := job.ChunkRef
	if audioPath == "" {
		return errors.Validation("audio job has no chunk reference")
	}

	var asrResp *asr.Response
	err := o.withLock(ctx, jobstore.TaskAudio, func(ctx context.Context) error {
		if !o.deps.ASR.IsAvailable(ctx) {
			return errors.CapabilityUnavailable("speech-to-text", nil)
		}
		var err error
		asrResp, err = o.deps.ASR.Transcribe(ctx, asr.Request{AudioPath: audioPath})
		if err != nil {
			return errors.CapabilityFailed("speech-to-text", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(asrResp.Words) == 0 {
		o.log.Info("no speech in audio chunk", logger.Fields(logger.FieldJobID, job.ID))
		return nil
	}

	var diaResp *diarize.Response
	err = o.withLock(ctx, jobstore.TaskAudio, func(ctx context.Context) error {
		if !o.deps.Diarizer.IsAvailable(ctx) {
			return errors.CapabilityUnavailable("diarization", nil)
		}
		var err error
		diaResp, err = o.deps.Diarizer.Diarize(ctx, diarize.Request{AudioPath: audioPath})
		if err != nil {
			return errors.CapabilityFailed("diarization", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var clean string
	err = o.stage(ctx, observability.SpanNormalize, func(ctx context.Context) error {
		var err error
		clean, err = o.deps.Normalizer.Normalize(ctx, rawText(asrResp.Words))
		return err
	})
	if err != nil {
		return err
	}

	var corrected string
	_ = o.stage(ctx, observability.SpanCorrect, func(_ context.Context) error {
		corrected = o.deps.Corrector.Correct(clean)
		return nil
	})

	var attributed []transcript.Utterance
	_ = o.stage(ctx, observability.SpanAlign, func(_ context.Context) error {
		utterances := align.BuildUtterances(corrected, asrResp.Words)
		attributed = align.Align(utterances, diaResp.Segments)
		return nil
	})

	var chunks []transcript.Chunk
	_ = o.stage(ctx, observability.SpanSegment, func(_ context.Context) error {
		chunks = o.deps.Segmenter.Segment(attributed)
		return nil
	})
	if len(chunks) == 0 {
		return nil
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordChunks(ctx, len(chunks))
	}

	return o.persistChunks(ctx, job.MeetingID, chunks)
}

// persistChunks saves each chunk and enqueues its map job. Chunk indexes
// continue from any map jobs the meeting already has, so several audio
// jobs in one meeting never collide; re-running after a partial failure
// skips indexes that already have a job.
func (o *Orchestrator) persistChunks(ctx context.Context, meetingID string, chunks []transcript.Chunk) error {
	existing, err := o.deps.Store.ListByStage(ctx, meetingID, jobstore.StageMap)
	if err != nil {
		return err
	}
	base := 0
	have := make(map[int]bool, len(existing))
	for _, j := range existing {
		have[j.ChunkIndex] = true
		if j.ChunkIndex > base {
			base = j.ChunkIndex
		}
	}

	for i := range chunks {
		chunks[i].Header.Index = base + i + 1
		chunks[i].Header.Total = base + len(chunks)
	}
	for _, chunk := range chunks {
		idx := chunk.Header.Index
		ref := payload.ChunkRef(meetingID, idx)
		if err := o.deps.Payloads.Save(ctx, ref, chunk); err != nil {
			return err
		}
		if have[idx] {
			continue
		}
		_, err := o.deps.Store.Enqueue(ctx, jobstore.NewJob{
			MeetingID:  meetingID,
			TaskType:   jobstore.TaskSummary,
			Stage:      jobstore.StageMap,
			ChunkRef:   ref,
			ChunkIndex: idx,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// --- visual ---

func (o *Orchestrator) processVisual(ctx context.Context, job *jobstore.Job) error {
	if o.deps.Visual == nil {
		return errors.CapabilityUnavailable("visual analysis", nil)
	}
	return o.withLock(ctx, jobstore.TaskVisual, func(ctx context.Context) error {
		return o.deps.Visual(ctx, job)
	})
}

// --- summary ---

func (o *Orchestrator) processMap(ctx context.Context, job *jobstore.Job) error {
	var chunk transcript.Chunk
	if err := o.deps.Payloads.Load(ctx, job.ChunkRef, &chunk); err != nil {
		return err
	}

	// Cross-chunk continuity: opportunistically pick up the preceding
	// chunk's topic when its extraction already exists. Map jobs may run
	// in any order, so an absent predecessor just means no header.
	if chunk.Header.PreviousTopic == "" && chunk.Header.Index > 1 {
		prevRef := payload.ExtractionRef(job.MeetingID, chunk.Header.Index-1)
		var prev summarize.Extraction
		if err := o.deps.Payloads.Load(ctx, prevRef, &prev); err == nil {
			chunk.Header.PreviousTopic = prev.Topic
		}
	}

	var ext *summarize.Extraction
	err := o.withLock(ctx, jobstore.TaskSummary, func(ctx context.Context) error {
		return o.stage(ctx, observability.SpanMap, func(ctx context.Context) error {
			var err error
			ext, err = o.deps.Summarizer.MapChunk(ctx, chunk)
			return err
		})
	})
	if err != nil {
		return err
	}

	return o.deps.Payloads.Save(ctx, payload.ExtractionRef(job.MeetingID, chunk.Header.Index), ext)
}

// maybeSpawnReduce enqueues the meeting's reduce job once every map job is
// terminal. If no map job completed there is nothing to synthesize; the
// meeting stays failed for the operator to inspect.
func (o *Orchestrator) maybeSpawnReduce(ctx context.Context, meetingID string) error {
	counts, err := o.deps.Store.StageCounts(ctx, meetingID, jobstore.StageMap)
	if err != nil {
		return err
	}
	if counts[jobstore.StatusPending] > 0 || counts[jobstore.StatusProcessing] > 0 {
		return nil
	}
	if counts[jobstore.StatusCompleted] == 0 {
		o.log.Warn("all map jobs failed, reduce not spawned", logger.Fields(logger.FieldMeetingID, meetingID))
		return nil
	}

	id, err := o.deps.Store.EnqueueOnce(ctx, jobstore.NewJob{
		MeetingID: meetingID,
		TaskType:  jobstore.TaskSummary,
		Stage:     jobstore.StageReduce,
	})
	if err != nil {
		return err
	}
	if id != "" {
		o.log.Info("reduce job spawned", logger.Fields(
			logger.FieldMeetingID, meetingID,
			logger.FieldJobID, id,
		))
	}
	return nil
}

func (o *Orchestrator) processReduce(ctx context.Context, job *jobstore.Job) error {
	extractions, incomplete, err := o.loadExtractions(ctx, job.MeetingID)
	if err != nil {
		return err
	}
	if len(extractions) == 0 {
		return errors.Validation("no completed map extractions for meeting " + job.MeetingID)
	}

	var note *summarize.Note
	err = o.withLock(ctx, jobstore.TaskSummary, func(ctx context.Context) error {
		return o.stage(ctx, observability.SpanReduce, func(ctx context.Context) error {
			var err error
			note, err = o.deps.Summarizer.Reduce(ctx, job.MeetingID, extractions, incomplete)
			return err
		})
	})
	if err != nil {
		return err
	}

	return o.deps.Payloads.Save(ctx, payload.NoteRef(job.MeetingID), note)
}

// maybeSpawnRefine enqueues the meeting's refine job. The refine reads the
// reduce note, so no job is spawned until that payload exists.
func (o *Orchestrator) maybeSpawnRefine(ctx context.Context, meetingID string) error {
	if o.deps.Summarizer.RefineIterations() <= 0 {
		return nil
	}
	noteRef := payload.NoteRef(meetingID)
	if !o.deps.Payloads.Exists(ctx, noteRef) {
		return nil
	}
	id, err := o.deps.Store.EnqueueOnce(ctx, jobstore.NewJob{
		MeetingID: meetingID,
		TaskType:  jobstore.TaskSummary,
		Stage:     jobstore.StageRefine,
		ChunkRef:  noteRef,
	})
	if err != nil {
		return err
	}
	if id != "" {
		o.log.Info("refine job spawned", logger.Fields(
			logger.FieldMeetingID, meetingID,
			logger.FieldJobID, id,
		))
	}
	return nil
}

func (o *Orchestrator) processRefine(ctx context.Context, job *jobstore.Job) error {
	var note summarize.Note
	if err := o.deps.Payloads.Load(ctx, payload.NoteRef(job.MeetingID), &note); err != nil {
		return err
	}
	extractions, _, err := o.loadExtractions(ctx, job.MeetingID)
	if err != nil {
		return err
	}

	var refined *summarize.Note
	err = o.withLock(ctx, jobstore.TaskSummary, func(ctx context.Context) error {
		return o.stage(ctx, observability.SpanRefine, func(ctx context.Context) error {
			var err error
			refined, err = o.deps.Summarizer.Refine(ctx, &note, extractions)
			return err
		})
	})
	if err != nil {
		return err
	}

	return o.deps.Payloads.Save(ctx, payload.NoteRef(job.MeetingID), refined)
}

// loadExtractions gathers the meeting's completed map extractions in chunk
// order and the chunk indexes whose map jobs failed.
func (o *Orchestrator) loadExtractions(ctx context.Context, meetingID string) ([]summarize.Extraction, []int, error) {
	mapJobs, err := o.deps.Store.ListByStage(ctx, meetingID, jobstore.StageMap)
	if err != nil {
		return nil, nil, err
	}

	var extractions []summarize.Extraction
	var incomplete []int
	for _, mj := range mapJobs {
		switch mj.Status {
		case jobstore.StatusCompleted:
			var ext summarize.Extraction
			if err := o.deps.Payloads.Load(ctx, payload.ExtractionRef(meetingID, mj.ChunkIndex), &ext); err != nil {
				return nil, nil, err
			}
			extractions = append(extractions, ext)
		case jobstore.StatusFailed:
			incomplete = append(incomplete, mj.ChunkIndex)
		default:
			// The barrier should have held; surface the ordering bug.
			return nil, nil, errors.StageOrder(mj.ID, "terminal map job", string(mj.Status))
		}
	}
	return extractions, incomplete, nil
}

// --- helpers ---

// withLock runs fn while holding the accelerator lock, following the
// acquire/load/run/unload/release contract on the caller's behalf.
func (o *Orchestrator) withLock(ctx context.Context, taskType jobstore.TaskType, fn func(context.Context) error) error {
	start := time.Now()
	token, err := o.deps.Foreman.Acquire(ctx, taskType)
	if err != nil {
		return err
	}
	wait := time.Since(start)
	defer func() {
		hold := time.Since(token.AcquiredAt())
		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordLock(ctx, string(taskType), wait, hold)
		}
		if rerr := o.deps.Foreman.Release(token); rerr != nil {
			o.log.Error("releasing accelerator lock", logger.Fields(logger.FieldError, rerr.Error()))
		}
	}()
	return fn(ctx)
}

// stage wraps one stage invocation with a span and a duration metric.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		observability.SetSpanError(ctx, err)
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordStage(ctx, name, status, time.Since(start))
	}
	return err
}

func (o *Orchestrator) recordTransition(ctx context.Context, job *jobstore.Job, status jobstore.Status) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordTransition(ctx, string(job.TaskType), string(status))
	}
}

// rawText joins the transcribed words into the raw lower-case stream the
// normalizer expects.
func rawText(words []transcript.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.ToLower(strings.Join(parts, " "))
}
