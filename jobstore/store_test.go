package jobstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/skillsenselab/scribeflow/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "jobs.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEnqueueClaimCompleteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio, ChunkRef: "chunk_001.wav"})
	if err != nil {
		t.Fatal(err)
	}

	job, err := s.ClaimNext(ctx, TaskAudio)
	if err != nil {
		t.Fatal(err)
	}
	if job == nil || job.ID != id {
		t.Fatalf("claimed %+v, want job %s", job, id)
	}
	if job.Status != StatusProcessing {
		t.Errorf("claimed status = %s, want processing", job.Status)
	}
	if job.ClaimedAt == nil {
		t.Error("expected claimed_at to be set")
	}

	if err := s.Complete(ctx, id); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.ListByMeeting(ctx, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected exactly one job, got %d", len(jobs))
	}
	if jobs[0].Status != StatusCompleted {
		t.Errorf("status = %s, want completed", jobs[0].Status)
	}
}

func TestClaimNextEmptyIsNotAnError(t *testing.T) {
	s := openTestStore(t)
	job, err := s.ClaimNext(context.Background(), TaskSummary)
	if err != nil {
		t.Fatal(err)
	}
	if job != nil {
		t.Fatalf("expected no job, got %+v", job)
	}
}

func TestClaimNextHonorsTaskType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio}); err != nil {
		t.Fatal(err)
	}

	job, err := s.ClaimNext(ctx, TaskSummary)
	if err != nil {
		t.Fatal(err)
	}
	if job != nil {
		t.Errorf("summary claim should not return an audio job, got %+v", job)
	}
}

func TestClaimNextOldestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first, _ := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio, ChunkRef: "a"})
	time.Sleep(5 * time.Millisecond)
	if _, err := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio, ChunkRef: "b"}); err != nil {
		t.Fatal(err)
	}

	job, err := s.ClaimNext(ctx, TaskAudio)
	if err != nil {
		t.Fatal(err)
	}
	if job.ID != first {
		t.Errorf("expected oldest job %s, got %s", first, job.ID)
	}
}

func TestCompleteTwiceIsInvalidTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio})
	if _, err := s.ClaimNext(ctx, TaskAudio); err != nil {
		t.Fatal(err)
	}

	if err := s.Complete(ctx, id); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	err := s.Complete(ctx, id)
	if err == nil {
		t.Fatal("second complete should fail")
	}
	if !errors.IsInvalidTransition(err) {
		t.Errorf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestCompleteUnclaimedIsInvalidTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio})
	if err := s.Complete(ctx, id); !errors.IsInvalidTransition(err) {
		t.Errorf("expected INVALID_TRANSITION for pending job, got %v", err)
	}
}

func TestCompleteMissingJobIsNotFound(t *testing.T) {
	s := openTestStore(t)
	if err := s.Complete(context.Background(), "no-such-job"); !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestFailRecordsReason(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio})
	if _, err := s.ClaimNext(ctx, TaskAudio); err != nil {
		t.Fatal(err)
	}

	if err := s.Fail(ctx, id, "punctuation capability unavailable"); err != nil {
		t.Fatal(err)
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	if job.Reason != "punctuation capability unavailable" {
		t.Errorf("reason = %q", job.Reason)
	}
}

func TestRequeueOnlyFromFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio})

	if err := s.Requeue(ctx, id); !errors.IsInvalidTransition(err) {
		t.Errorf("requeue of pending job should be invalid, got %v", err)
	}

	if _, err := s.ClaimNext(ctx, TaskAudio); err != nil {
		t.Fatal(err)
	}
	if err := s.Fail(ctx, id, "boom"); err != nil {
		t.Fatal(err)
	}
	if err := s.Requeue(ctx, id); err != nil {
		t.Fatal(err)
	}

	job, _ := s.Get(ctx, id)
	if job.Status != StatusPending {
		t.Errorf("status = %s, want pending", job.Status)
	}
	if job.Reason != "" {
		t.Errorf("requeue should clear reason, got %q", job.Reason)
	}
	if job.ClaimedAt != nil {
		t.Error("requeue should clear claimed_at")
	}
}

func TestCrashResumeJobStillProcessing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.db")
	ctx := context.Background()

	s1, err := Open(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	id, _ := s1.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio})
	if _, err := s1.ClaimNext(ctx, TaskAudio); err != nil {
		t.Fatal(err)
	}
	// Simulated crash between claim and complete: close without completing.
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	job, err := s2.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != StatusProcessing {
		t.Fatalf("after restart status = %s, want processing", job.Status)
	}

	// The job is neither lost nor duplicated, and eligible for operator recovery.
	if err := s2.Abandon(ctx, id, "worker presumed dead"); err != nil {
		t.Fatal(err)
	}
	if err := s2.Requeue(ctx, id); err != nil {
		t.Fatal(err)
	}
	jobs, _ := s2.ListByMeeting(ctx, "m1")
	if len(jobs) != 1 {
		t.Fatalf("expected one job after restart, got %d", len(jobs))
	}
}

func TestConcurrentClaimsNeverShareAJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const jobs = 20
	for i := 0; i < jobs; i++ {
		if _, err := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio}); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := s.ClaimNext(ctx, TaskAudio)
				if err != nil {
					t.Error(err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != jobs {
		t.Fatalf("claimed %d distinct jobs, want %d", len(seen), jobs)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("job %s claimed %d times", id, n)
		}
	}
}

func TestListStuck(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskAudio})
	if _, err := s.ClaimNext(ctx, TaskAudio); err != nil {
		t.Fatal(err)
	}

	stuck, err := s.ListStuck(ctx, time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(stuck) != 1 || stuck[0].ID != id {
		t.Fatalf("expected job %s stuck, got %+v", id, stuck)
	}

	none, err := s.ListStuck(ctx, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no stuck jobs within the hour, got %d", len(none))
	}
}

func TestStageCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := s.Enqueue(ctx, NewJob{MeetingID: "m1", TaskType: TaskSummary, Stage: StageMap, ChunkIndex: i}); err != nil {
			t.Fatal(err)
		}
	}
	job, _ := s.ClaimNext(ctx, TaskSummary)
	if err := s.Complete(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	job, _ = s.ClaimNext(ctx, TaskSummary)
	if err := s.Fail(ctx, job.ID, "extraction failed"); err != nil {
		t.Fatal(err)
	}

	counts, err := s.StageCounts(ctx, "m1", StageMap)
	if err != nil {
		t.Fatal(err)
	}
	if counts[StatusCompleted] != 1 || counts[StatusFailed] != 1 || counts[StatusPending] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestMeetingsWithStage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, m := range []string{"m2", "m1", "m2"} {
		if _, err := s.Enqueue(ctx, NewJob{MeetingID: m, TaskType: TaskSummary, Stage: StageMap, ChunkIndex: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Enqueue(ctx, NewJob{MeetingID: "m3", TaskType: TaskAudio, ChunkRef: "a.wav"}); err != nil {
		t.Fatal(err)
	}

	meetings, err := s.MeetingsWithStage(ctx, StageMap)
	if err != nil {
		t.Fatal(err)
	}
	if len(meetings) != 2 || meetings[0] != "m1" || meetings[1] != "m2" {
		t.Errorf("unexpected meetings: %v", meetings)
	}
}

func TestEnqueueOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.EnqueueOnce(ctx, NewJob{MeetingID: "m1", TaskType: TaskSummary, Stage: StageReduce})
	if err != nil {
		t.Fatal(err)
	}
	if first == "" {
		t.Fatal("first EnqueueOnce should insert")
	}

	second, err := s.EnqueueOnce(ctx, NewJob{MeetingID: "m1", TaskType: TaskSummary, Stage: StageReduce})
	if err != nil {
		t.Fatal(err)
	}
	if second != "" {
		t.Errorf("duplicate EnqueueOnce inserted job %s", second)
	}

	jobs, _ := s.ListByStage(ctx, "m1", StageReduce)
	if len(jobs) != 1 {
		t.Fatalf("expected one reduce job, got %d", len(jobs))
	}

	// A different stage for the same meeting is unaffected.
	refine, err := s.EnqueueOnce(ctx, NewJob{MeetingID: "m1", TaskType: TaskSummary, Stage: StageRefine})
	if err != nil || refine == "" {
		t.Errorf("refine enqueue = (%q, %v)", refine, err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusPending, true},
		{StatusCompleted, StatusPending, false},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEnqueueRejectsUnknownTaskType(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Enqueue(context.Background(), NewJob{MeetingID: "m1", TaskType: "video"}); err == nil {
		t.Fatal("expected validation error for unknown task type")
	}
}
