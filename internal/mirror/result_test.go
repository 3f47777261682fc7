package mirror

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestResult_Counts(t *testing.T) {
	r := &Result{Entries: []EntryResult{
		{Path: "a", Outcome: OutcomeCreated, Bytes: 10},
		{Path: "b", Outcome: OutcomeUpdated, Bytes: 5},
		{Path: "c", Outcome: OutcomeRemoved},
		{Path: "d", Outcome: OutcomeUnchanged},
		{Path: "e", Outcome: OutcomeUnchanged},
		{Path: "f", Outcome: OutcomeFailed, Err: os.ErrPermission},
	}}

	if got := len(r.Created()); got != 1 {
		t.Errorf("Created() = %d, want 1", got)
	}
	if got := len(r.Updated()); got != 1 {
		t.Errorf("Updated() = %d, want 1", got)
	}
	if got := len(r.Removed()); got != 1 {
		t.Errorf("Removed() = %d, want 1", got)
	}
	if got := len(r.Unchanged()); got != 2 {
		t.Errorf("Unchanged() = %d, want 2", got)
	}
	if got := r.TotalChanged(); got != 3 {
		t.Errorf("TotalChanged() = %d, want 3", got)
	}
	if got := r.BytesCopied(); got != 15 {
		t.Errorf("BytesCopied() = %d, want 15", got)
	}
	if r.Success() {
		t.Error("expected Success() to be false with a failed entry")
	}
}

func TestResult_Err(t *testing.T) {
	r := &Result{}
	if err := r.Err(); err != nil {
		t.Errorf("expected nil error for empty result, got %v", err)
	}

	r.Entries = []EntryResult{
		{Path: "/replica/a", Outcome: OutcomeFailed, Err: os.ErrPermission},
		{Path: "/replica/b", Outcome: OutcomeFailed, Err: os.ErrNotExist},
	}
	err := r.Err()
	if !errors.Is(err, os.ErrPermission) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected Err() to wrap both failures, got %v", err)
	}
	if !strings.Contains(err.Error(), "/replica/a") {
		t.Errorf("expected error to name the failed path, got %q", err.Error())
	}
}

func TestResult_Summary(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := &Result{
		Source:   "/src",
		Replica:  "/replica",
		DryRun:   true,
		Started:  start,
		Finished: start.Add(1500 * time.Millisecond),
		Entries: []EntryResult{
			{Path: "/src/a", Outcome: OutcomeCreated, Bytes: 2048},
			{Path: "/replica/b", Outcome: OutcomeFailed, Err: os.ErrPermission},
		},
	}

	summary := r.Summary()
	for _, want := range []string{
		"Dry run - no changes made",
		"Synchronized /src -> /replica in 1.5s",
		"Created:   1",
		"Failed:    1",
		"Copied:    2.0 kB",
		"Errors:",
		"/replica/b: permission denied",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("expected summary to contain %q\ngot:\n%s", want, summary)
		}
	}
}

func TestResult_DurationUnfinished(t *testing.T) {
	r := &Result{Started: time.Now()}
	if d := r.Duration(); d != 0 {
		t.Errorf("Duration() = %v, want 0 for an unfinished pass", d)
	}
}

func TestStructuralError(t *testing.T) {
	err := structural("list", "/src/sub", os.ErrPermission)

	if !IsStructural(err) {
		t.Error("expected IsStructural to be true")
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("expected structural error to unwrap to its cause")
	}
	if got, want := err.Error(), `list "/src/sub": permission denied`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if IsStructural(os.ErrPermission) {
		t.Error("expected plain errors not to be structural")
	}
}
