package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newAssessment(id, verdict string, score int) *Assessment {
	return &Assessment{
		ID:            id,
		SubjectID:     "cand-" + id,
		SubjectName:   "Candidate " + id,
		Score:         score,
		Verdict:       verdict,
		LatencySignal: "HIGH_RISK",
		CadenceSignal: "HUMAN_MATCH",
		GazeSignal:    "SHADOW_CHEATING_DETECTED",
		DeltaMs:       500,
		GazeDrift:     0.5,
		Thresholds:    `{"latency_max_ms":220}`,
	}
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil database handle")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceIsSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := newAssessment("a1", "TERMINATED", 65)
	if err := s.AssessmentRepo().Save(ctx, a); err != nil {
		t.Fatalf("save assessment: %v", err)
	}
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "forensic-report", Success: true}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	b := newAssessment("a2", "GROUNDED", 0)
	if err := s.AssessmentRepo().Save(ctx, b); err != nil {
		t.Fatalf("save assessment: %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !(a.Sequence < events[0].Sequence && events[0].Sequence < b.Sequence) {
		t.Errorf("sequences not interleaved: assessment %d, event %d, assessment %d",
			a.Sequence, events[0].Sequence, b.Sequence)
	}
}

func TestAssessmentSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.AssessmentRepo()
	ctx := context.Background()

	got, err := repo.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get (missing): %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing assessment")
	}

	now := time.Now().UTC().Truncate(time.Second)
	a := newAssessment("abc", "TERMINATED", 65)
	a.Timestamp = now
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = repo.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected assessment")
	}
	if got.Score != 65 || got.Verdict != "TERMINATED" {
		t.Errorf("got %d/%s, want 65/TERMINATED", got.Score, got.Verdict)
	}
	if got.GazeDrift != 0.5 || got.DeltaMs != 500 {
		t.Errorf("measurements = %v/%v, want 0.5/500", got.GazeDrift, got.DeltaMs)
	}
	if !got.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, now)
	}
	if got.Report != "" {
		t.Errorf("report = %q, want empty", got.Report)
	}
}

func TestAssessmentSave_RequiresID(t *testing.T) {
	s := openTestStore(t)
	if err := s.AssessmentRepo().Save(context.Background(), &Assessment{}); err == nil {
		t.Fatal("expected error for missing ID")
	}
}

func TestAssessmentListNewestFirstWithFilters(t *testing.T) {
	s := openTestStore(t)
	repo := s.AssessmentRepo()
	ctx := context.Background()

	verdicts := []string{"GROUNDED", "TERMINATED", "GROUNDED", "TERMINATED", "TERMINATED"}
	for i, v := range verdicts {
		if err := repo.Save(ctx, newAssessment(fmt.Sprintf("id-%d", i), v, i*10)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	all, err := repo.List(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d, want 5", len(all))
	}
	if all[0].ID != "id-4" {
		t.Errorf("first = %s, want id-4", all[0].ID)
	}

	terminated, err := repo.List(ctx, QueryOpts{Verdict: "TERMINATED", Limit: 2})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(terminated) != 2 {
		t.Fatalf("got %d, want 2", len(terminated))
	}
	for _, a := range terminated {
		if a.Verdict != "TERMINATED" {
			t.Errorf("verdict = %s, want TERMINATED", a.Verdict)
		}
	}
	if terminated[0].ID != "id-4" || terminated[1].ID != "id-3" {
		t.Errorf("order = %s,%s, want id-4,id-3", terminated[0].ID, terminated[1].ID)
	}
}

func TestAssessmentAttachReport(t *testing.T) {
	s := openTestStore(t)
	repo := s.AssessmentRepo()
	ctx := context.Background()

	if err := repo.Save(ctx, newAssessment("r1", "GROUNDED", 20)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.AttachReport(ctx, "r1", `{"summary":"ok"}`); err != nil {
		t.Fatalf("attach: %v", err)
	}
	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Report != `{"summary":"ok"}` {
		t.Errorf("report = %q", got.Report)
	}

	err = repo.AttachReport(ctx, "nope", "x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLLMEventsQueryAndUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "forensic-report", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "forensic-report", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "passthrough", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: false, ErrorMessage: "boom"},
	}
	for i, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Purpose != "passthrough" || got[0].Success {
		t.Errorf("newest event = %+v, want failed passthrough", got[0].LLMRequestEventData)
	}

	one, err := repo.GetLLMEvent(ctx, got[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if one == nil || one.ErrorMessage != "boom" {
		t.Fatalf("get returned %+v", one)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("get missing = %v, %v; want nil, nil", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	fr := byPurpose[0]
	if fr.Purpose != "forensic-report" || fr.Calls != 2 || fr.InputTokens != 400 || fr.OutputTokens != 200 || fr.AvgLatencyMs != 300 {
		t.Errorf("forensic-report usage = %+v", fr)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 2 {
		t.Errorf("model usage = %+v, want 1 model with 2 successful calls", byModel)
	}
}
