package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/skillsenselab/scribeflow/errors"
	"github.com/skillsenselab/scribeflow/llm"
	"github.com/skillsenselab/scribeflow/logger"
	"github.com/skillsenselab/scribeflow/pipeline"
	"github.com/skillsenselab/scribeflow/transcript"
)

// Extraction is the intermediate map-stage output for one chunk.
type Extraction struct {
	// ChunkIndex is the 1-based index of the source chunk.
	ChunkIndex int `json:"chunk_index"`
	// Topic is a one-line topic statement, used as the next chunk's
	// previous-topic header reference.
	Topic string `json:"topic"`
	// Content is the extracted discussion points, decisions, and action
	// items, with speaker attribution preserved.
	Content string `json:"content"`
}

// Note is the consolidated meeting note produced by the reduce stage.
type Note struct {
	// MeetingID groups the note with its source jobs.
	MeetingID string `json:"meeting_id"`
	// Title is a short generated meeting title.
	Title string `json:"title"`
	// Slug is the title sanitized for use in file names.
	Slug string `json:"slug"`
	// Summary is the synthesized meeting summary.
	Summary string `json:"summary"`
	// Incomplete lists chunk indexes whose map jobs failed. A non-empty
	// list means the synthesis ran over a partial extraction set.
	Incomplete []int `json:"incomplete_chunks,omitempty"`
	// Model is the model that produced the synthesis.
	Model string `json:"model,omitempty"`
}

// Summarizer drives the map-reduce-refine summarization flow against the
// extraction/synthesis capability.
type Summarizer struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// New creates a Summarizer backed by the given LLM provider.
func New(p llm.Provider, cfg Config) *Summarizer {
	cfg.ApplyDefaults()
	return &Summarizer{
		provider: p,
		cfg:      cfg,
		log:      logger.Get("summarize"),
	}
}

// RefineIterations reports how many refinement passes are configured.
func (s *Summarizer) RefineIterations() int {
	if s.cfg.RefineIterations < 0 {
		return 0
	}
	return s.cfg.RefineIterations
}

// MapChunk runs the extraction operation on a single chunk. The chunk's
// header (including the previous-topic reference, when populated) is part
// of the prompt so the extraction carries cross-chunk context.
func (s *Summarizer) MapChunk(ctx context.Context, chunk transcript.Chunk) (*Extraction, error) {
	if !s.provider.IsAvailable(ctx) {
		return nil, errors.CapabilityUnavailable("llm extraction", nil)
	}

	prompt := chunk.Header.String() + "\n\n" + chunk.Text()
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:        s.cfg.Model,
		SystemPrompt: s.mapSystemPrompt(),
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Options: llm.Options{
			OutputFormat: llm.FormatMarkdown,
			Temperature:  s.cfg.Temperature,
			MaxTokens:    s.cfg.MaxTokens,
		},
	})
	if err != nil {
		return nil, errors.CapabilityFailed("llm extraction", err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return nil, errors.CapabilityFailed("llm extraction", fmt.Errorf("empty extraction for chunk %d", chunk.Header.Index))
	}
	return &Extraction{
		ChunkIndex: chunk.Header.Index,
		Topic:      topicOf(content),
		Content:    content,
	}, nil
}

// MapAll runs the extraction over every chunk and returns the successful
// extractions in chunk order plus the indexes of failed chunks. One chunk's
// failure never blocks or corrupts the others.
//
// With MapConcurrency of 1 chunks run sequentially and each chunk's
// previous-topic header is populated from the preceding extraction before
// its prompt is built. Higher concurrency trades that cross-chunk
// continuity for throughput and leaves the headers as segmented.
func (s *Summarizer) MapAll(ctx context.Context, chunks []transcript.Chunk) ([]Extraction, []int) {
	if s.cfg.MapConcurrency > 1 {
		return s.mapParallel(ctx, chunks)
	}

	var out []Extraction
	var failed []int
	var prevTopic string
	for _, chunk := range chunks {
		if prevTopic != "" && chunk.Header.PreviousTopic == "" {
			chunk.Header.PreviousTopic = prevTopic
		}
		ext, err := s.MapChunk(ctx, chunk)
		if err != nil {
			s.log.Warn("chunk extraction failed", logger.Fields(
				logger.FieldChunkIndex, chunk.Header.Index,
				logger.FieldError, err.Error(),
			))
			failed = append(failed, chunk.Header.Index)
			prevTopic = ""
			continue
		}
		out = append(out, *ext)
		prevTopic = ext.Topic
	}
	return out, failed
}

// mapResult wraps one chunk's outcome so a failure travels as data instead
// of aborting the parallel stage.
type mapResult struct {
	index int
	ext   *Extraction
}

func (s *Summarizer) mapParallel(ctx context.Context, chunks []transcript.Chunk) ([]Extraction, []int) {
	p := pipeline.Parallel(pipeline.FromSlice(chunks), s.cfg.MapConcurrency,
		func(ctx context.Context, chunk transcript.Chunk) (mapResult, error) {
			ext, err := s.MapChunk(ctx, chunk)
			if err != nil {
				s.log.Warn("chunk extraction failed", logger.Fields(
					logger.FieldChunkIndex, chunk.Header.Index,
					logger.FieldError, err.Error(),
				))
				return mapResult{index: chunk.Header.Index}, nil
			}
			return mapResult{index: chunk.Header.Index, ext: ext}, nil
		})

	results, err := pipeline.Collect(ctx, p)
	if err != nil {
		// Only context cancellation reaches here; treat the remainder
		// as failed.
		s.log.Warn("parallel extraction interrupted", logger.Fields(logger.FieldError, err.Error()))
	}
	var out []Extraction
	var failed []int
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		seen[r.index] = true
		if r.ext != nil {
			out = append(out, *r.ext)
		} else {
			failed = append(failed, r.index)
		}
	}
	for _, chunk := range chunks {
		if !seen[chunk.Header.Index] {
			failed = append(failed, chunk.Header.Index)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	sort.Ints(failed)
	return out, failed
}

// Reduce concatenates the extractions in chunk order and runs one synthesis
// over the concatenation. A non-empty failed list is recorded on the note
// and surfaced in the log; the synthesis never silently pretends the set
// was complete.
func (s *Summarizer) Reduce(ctx context.Context, meetingID string, extractions []Extraction, failed []int) (*Note, error) {
	if len(extractions) == 0 {
		return nil, errors.Validation("no extractions to synthesize")
	}
	if !s.provider.IsAvailable(ctx) {
		return nil, errors.CapabilityUnavailable("llm synthesis", nil)
	}

	ordered := make([]Extraction, len(extractions))
	copy(ordered, extractions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })

	var b strings.Builder
	for _, ext := range ordered {
		fmt.Fprintf(&b, "## Section %d: %s\n\n%s\n\n", ext.ChunkIndex, ext.Topic, ext.Content)
	}
	source := TruncateWords(b.String(), s.cfg.MaxSourceWords)

	userPrompt := source
	if len(failed) > 0 {
		s.log.Warn("synthesizing over incomplete extraction set", logger.Fields(
			logger.FieldMeetingID, meetingID,
			"failed_chunks", failed,
		))
		userPrompt = fmt.Sprintf("Note: sections %v are missing from the source material.\n\n%s", failed, source)
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:        s.cfg.Model,
		SystemPrompt: reduceSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: userPrompt}},
		Options: llm.Options{
			OutputFormat: llm.FormatMarkdown,
			Temperature:  s.cfg.Temperature,
			MaxTokens:    s.cfg.MaxTokens,
		},
	})
	if err != nil {
		return nil, errors.CapabilityFailed("llm synthesis", err)
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return nil, errors.CapabilityFailed("llm synthesis", fmt.Errorf("empty synthesis for meeting %s", meetingID))
	}

	note := &Note{
		MeetingID:  meetingID,
		Summary:    summary,
		Incomplete: failed,
		Model:      resp.Model,
	}
	title, err := s.GenerateTitle(ctx, summary)
	if err != nil {
		// A note without a generated title is still a valid note.
		s.log.Warn("title generation failed", logger.Fields(logger.FieldError, err.Error()))
		title = "Meeting " + meetingID
	}
	note.Title = title
	note.Slug = Slugify(title)
	return note, nil
}

// Refine runs the configured number of density-refinement iterations over
// the note. Each iteration may add a small bounded number of salient items
// drawn from the map extractions while compressing the rest, holding length
// roughly constant. An iteration returning nothing usable leaves the note
// as it was.
func (s *Summarizer) Refine(ctx context.Context, note *Note, extractions []Extraction) (*Note, error) {
	if note == nil {
		return nil, errors.Validation("nil note")
	}
	if s.cfg.RefineIterations <= 0 {
		return note, nil
	}
	if !s.provider.IsAvailable(ctx) {
		return nil, errors.CapabilityUnavailable("llm refinement", nil)
	}

	ordered := make([]Extraction, len(extractions))
	copy(ordered, extractions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })
	var b strings.Builder
	for _, ext := range ordered {
		fmt.Fprintf(&b, "## Section %d\n\n%s\n\n", ext.ChunkIndex, ext.Content)
	}
	source := TruncateWords(b.String(), s.cfg.MaxSourceWords)

	current := note.Summary
	budget := len(strings.Fields(current))
	for i := 0; i < s.cfg.RefineIterations; i++ {
		prompt := fmt.Sprintf(
			"SOURCE EXTRACTIONS:\n%s\n\nCURRENT SUMMARY:\n%s\n\nRewrite the summary. Add 1 to 3 salient items present in the source extractions but missing from the summary, and compress the existing content so the total stays near %d words. Use only information from the source extractions.",
			source, current, budget,
		)
		resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
			Model:        s.cfg.Model,
			SystemPrompt: refineSystemPrompt,
			Messages:     []llm.Message{{Role: "user", Content: prompt}},
			Options: llm.Options{
				OutputFormat: llm.FormatMarkdown,
				Temperature:  s.cfg.Temperature,
				MaxTokens:    s.cfg.MaxTokens,
			},
		})
		if err != nil {
			return nil, errors.CapabilityFailed("llm refinement", err)
		}
		next := strings.TrimSpace(resp.Content)
		if next == "" {
			break
		}
		current = next
	}

	out := *note
	out.Summary = current
	return &out, nil
}

func (s *Summarizer) mapSystemPrompt() string {
	if s.cfg.DropSpeakers {
		return mapSystemPromptPlain
	}
	return mapSystemPromptSpeakers
}

// topicOf derives the one-line topic reference from an extraction: the
// first non-empty line, stripped of markup, capped at a dozen words.
func topicOf(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "#*- "))
		line = strings.TrimPrefix(line, "Topic:")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		words := strings.Fields(line)
		if len(words) > 12 {
			words = words[:12]
		}
		return strings.Join(words, " ")
	}
	return ""
}

// TruncateWords caps text at max words, marking the cut. The synthesis
// context window is finite; an over-long concatenation is trimmed rather
// than rejected.
func TruncateWords(text string, max int) string {
	if max <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + "\n\n[transcript truncated]"
}

const mapSystemPromptSpeakers = `You extract the key content from one section of a meeting transcript. List the main discussion points, decisions, and action items as concise Markdown bullets. Start with a single line stating the section topic. Keep the speaker labels exactly as they appear; never merge or rename speakers. Use only information present in the section.`

const mapSystemPromptPlain = `You extract the key content from one section of a meeting transcript. List the main discussion points, decisions, and action items as concise Markdown bullets. Start with a single line stating the section topic. Use only information present in the section.`

const reduceSystemPrompt = `You consolidate per-section meeting extractions into one coherent meeting summary in Markdown. Open with a short executive summary, then cover decisions, action items, and open questions. Preserve speaker attributions. Use only information present in the source sections.`

const refineSystemPrompt = `You densify an existing meeting summary. Every statement must be traceable to the provided source extractions; inventing content is a defect.`
