package opsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skillsenselab/scribeflow/foreman"
	"github.com/skillsenselab/scribeflow/jobstore"
)

func newTestServer(t *testing.T) (*Server, *jobstore.Store, *foreman.Foreman) {
	t.Helper()
	store, err := jobstore.Open(jobstore.Config{Path: filepath.Join(t.TempDir(), "jobs.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	fm := foreman.New(foreman.Config{})
	return New(Config{}, store, fm), store, fm
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (body %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestListJobsRequiresFilter(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/jobs", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestListJobsByMeetingAndStatus(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, jobstore.NewJob{MeetingID: "m1", TaskType: jobstore.TaskAudio, ChunkRef: "a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Enqueue(ctx, jobstore.NewJob{MeetingID: "m2", TaskType: jobstore.TaskAudio, ChunkRef: "b.wav"}); err != nil {
		t.Fatal(err)
	}

	var jobs []jobstore.Job
	w := doRequest(t, s, http.MethodGet, "/jobs?meeting_id=m1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	decodeData(t, w, &jobs)
	if len(jobs) != 1 || jobs[0].ID != id {
		t.Fatalf("unexpected jobs %+v", jobs)
	}

	w = doRequest(t, s, http.MethodGet, "/jobs?meeting_id=m1&status=completed", "")
	decodeData(t, w, &jobs)
	if len(jobs) != 0 {
		t.Fatalf("expected no completed jobs, got %+v", jobs)
	}

	w = doRequest(t, s, http.MethodGet, "/jobs?status=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestGetJobNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/jobs/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestRequeueFailedJob(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, jobstore.NewJob{MeetingID: "m1", TaskType: jobstore.TaskAudio, ChunkRef: "a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.ClaimNext(ctx, jobstore.TaskAudio); err != nil {
		t.Fatal(err)
	}
	if err := store.Fail(ctx, id, "capability down"); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, s, http.MethodPost, "/jobs/"+id+"/requeue", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var job jobstore.Job
	decodeData(t, w, &job)
	if job.Status != jobstore.StatusPending {
		t.Fatalf("status after requeue: %s", job.Status)
	}

	// Requeuing a pending job is outside the transition graph.
	w = doRequest(t, s, http.MethodPost, "/jobs/"+id+"/requeue", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", w.Code)
	}
}

func TestAbandonProcessingJob(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, jobstore.NewJob{MeetingID: "m1", TaskType: jobstore.TaskAudio, ChunkRef: "a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.ClaimNext(ctx, jobstore.TaskAudio); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, s, http.MethodPost, "/jobs/"+id+"/abandon", `{"reason":"worker host rebooted"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var job jobstore.Job
	decodeData(t, w, &job)
	if job.Status != jobstore.StatusFailed || job.Reason != "worker host rebooted" {
		t.Fatalf("after abandon: %s %q", job.Status, job.Reason)
	}
}

func TestLockStatus(t *testing.T) {
	s, _, fm := newTestServer(t)

	var info lockInfo
	w := doRequest(t, s, http.MethodGet, "/lock", "")
	decodeData(t, w, &info)
	if info.Held || info.Waiting != 0 {
		t.Fatalf("expected free lock, got %+v", info)
	}

	token, err := fm.Acquire(context.Background(), jobstore.TaskAudio)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = fm.Release(token) }()

	w = doRequest(t, s, http.MethodGet, "/lock", "")
	decodeData(t, w, &info)
	if !info.Held || info.TaskType != "audio" {
		t.Fatalf("expected held audio lock, got %+v", info)
	}
}
