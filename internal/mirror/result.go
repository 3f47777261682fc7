package mirror

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Outcome represents what a pass did to a single replica entry.
type Outcome string

const (
	// OutcomeUnchanged indicates the replica entry already matched the source.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeUpdated indicates a replica file was rewritten from the source.
	OutcomeUpdated Outcome = "updated"

	// OutcomeCreated indicates a file was copied into the replica.
	OutcomeCreated Outcome = "created"

	// OutcomeRemoved indicates a replica entry with no source counterpart was deleted.
	OutcomeRemoved Outcome = "removed"

	// OutcomeFailed indicates an I/O error; the entry was skipped for this pass.
	OutcomeFailed Outcome = "failed"
)

// outcomeOrder is the order outcomes appear in summaries.
var outcomeOrder = []Outcome{
	OutcomeCreated,
	OutcomeUpdated,
	OutcomeRemoved,
	OutcomeUnchanged,
	OutcomeFailed,
}

// EntryResult represents the outcome of reconciling a single entry.
type EntryResult struct {
	// Path is the replica path (or source path for copies) the outcome refers to.
	Path string

	// Kind is the kind of the entry.
	Kind Kind

	// Outcome is what happened to the entry.
	Outcome Outcome

	// Message is the sync log line for the entry. Empty for unchanged entries
	// and for directory removals that succeeded.
	Message string

	// Bytes is the number of bytes written for created or updated files.
	Bytes int64

	// Err holds the I/O error when Outcome is OutcomeFailed.
	Err error
}

// Changed returns true if the entry was created, updated or removed.
func (er EntryResult) Changed() bool {
	switch er.Outcome {
	case OutcomeCreated, OutcomeUpdated, OutcomeRemoved:
		return true
	default:
		return false
	}
}

// Result contains the complete outcome of one synchronization pass.
type Result struct {
	// ID uniquely identifies the pass in diagnostic logs.
	ID string

	// Source is the source directory.
	Source string

	// Replica is the replica directory.
	Replica string

	// DryRun indicates no changes were made.
	DryRun bool

	// Started and Finished bound the pass.
	Started  time.Time
	Finished time.Time

	// Entries contains the result for each processed entry, in processing order.
	Entries []EntryResult
}

// Created returns entries that were copied in.
func (r *Result) Created() []EntryResult {
	return r.filterByOutcome(OutcomeCreated)
}

// Updated returns entries that were rewritten.
func (r *Result) Updated() []EntryResult {
	return r.filterByOutcome(OutcomeUpdated)
}

// Removed returns entries that were pruned.
func (r *Result) Removed() []EntryResult {
	return r.filterByOutcome(OutcomeRemoved)
}

// Unchanged returns entries that already matched.
func (r *Result) Unchanged() []EntryResult {
	return r.filterByOutcome(OutcomeUnchanged)
}

// Failed returns entries that could not be reconciled.
func (r *Result) Failed() []EntryResult {
	return r.filterByOutcome(OutcomeFailed)
}

func (r *Result) filterByOutcome(outcome Outcome) []EntryResult {
	var filtered []EntryResult
	for _, er := range r.Entries {
		if er.Outcome == outcome {
			filtered = append(filtered, er)
		}
	}
	return filtered
}

// Success returns true if no entry failed.
func (r *Result) Success() bool {
	return len(r.Failed()) == 0
}

// TotalChanged returns the number of entries created, updated or removed.
func (r *Result) TotalChanged() int {
	n := 0
	for _, er := range r.Entries {
		if er.Changed() {
			n++
		}
	}
	return n
}

// BytesCopied returns the number of bytes written into the replica.
func (r *Result) BytesCopied() int64 {
	var n int64
	for _, er := range r.Entries {
		n += er.Bytes
	}
	return n
}

// Duration returns how long the pass took.
func (r *Result) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Err combines the errors of all failed entries, or returns nil.
func (r *Result) Err() error {
	var err error
	for _, er := range r.Failed() {
		err = multierr.Append(err, fmt.Errorf("%s: %w", er.Path, er.Err))
	}
	return err
}

// Summary returns a human-readable summary of the pass.
func (r *Result) Summary() string {
	var sb strings.Builder
	title := cases.Title(language.English)

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	sb.WriteString(fmt.Sprintf("Synchronized %s -> %s in %s\n",
		r.Source, r.Replica, r.Duration().Round(time.Millisecond)))

	for _, o := range outcomeOrder {
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", title.String(string(o))+":", len(r.filterByOutcome(o))))
	}
	sb.WriteString(fmt.Sprintf("  %-10s %s\n", "Copied:", humanize.Bytes(uint64(r.BytesCopied()))))

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, f := range r.Failed() {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Path, f.Err))
		}
	}

	return sb.String()
}
