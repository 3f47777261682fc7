// Package validation checks the source/replica pair, log path and interval
// before any synchronization pass runs.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauern/dirsync/internal/synclog"
	"github.com/klauern/dirsync/internal/util"
)

// Field names used in validation errors.
const (
	FieldSource   = "source"
	FieldReplica  = "replica"
	FieldLogFile  = "log file"
	FieldInterval = "interval"
)

// Error represents a validation failure with context.
type Error struct {
	// Field is the name of the field or component that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// Options configures Check.
type Options struct {
	// RequireWritePermission checks the replica is writable by creating a temporary file
	RequireWritePermission bool
}

// DefaultOptions returns the default validation options.
func DefaultOptions() Options {
	return Options{RequireWritePermission: true}
}

// Result contains the outcome of a validation check.
type Result struct {
	// Valid indicates whether all validations passed
	Valid bool
	// Source and Replica are the resolved directories, set when they validate
	Source  string
	Replica string
	// LogFile is the resolved log path, set when it validates
	LogFile string
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that prevent the operation
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined validation error message.
func (r *Result) Error() error {
	if !r.HasErrors() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// Summary returns a human-readable summary of the validation result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "All validations passed"
	}
	var msg string
	if r.Valid {
		msg = "Validation passed with warnings"
	} else {
		msg = "Validation failed"
	}
	if len(r.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
	}
	return msg
}

// ValidateDir checks that path names an existing directory and returns its
// absolute form with symlinks resolved. A leading ~ is expanded.
func ValidateDir(field, path string) (string, error) {
	if path == "" {
		return "", &Error{Field: field, Message: "path cannot be empty"}
	}

	abs := util.ExpandPath(path, "")
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &Error{
			Field:   field,
			Message: fmt.Sprintf("%q is not a valid directory", path),
			Err:     err,
		}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &Error{
			Field:   field,
			Message: fmt.Sprintf("cannot access %q", path),
			Err:     err,
		}
	}
	if !info.IsDir() {
		return "", &Error{
			Field:   field,
			Message: fmt.Sprintf("%q is not a valid directory", path),
		}
	}
	return resolved, nil
}

// ValidatePair validates both directories and checks that neither one is,
// or lies inside, the other. The resolved paths are returned.
func ValidatePair(source, replica string) (string, string, error) {
	src, err := ValidateDir(FieldSource, source)
	if err != nil {
		return "", "", err
	}
	dst, err := ValidateDir(FieldReplica, replica)
	if err != nil {
		return "", "", err
	}

	switch {
	case src == dst:
		return "", "", &Error{
			Field:   FieldReplica,
			Message: fmt.Sprintf("%q has already been chosen as the source directory", replica),
		}
	case util.IsWithin(src, dst):
		return "", "", &Error{
			Field:   FieldReplica,
			Message: fmt.Sprintf("%q is a subdirectory of the source directory", replica),
		}
	case util.IsWithin(dst, src):
		return "", "", &Error{
			Field:   FieldReplica,
			Message: fmt.Sprintf("%q contains the source directory", replica),
		}
	}
	return src, dst, nil
}

// ValidateLogPath resolves the log path and rejects locations inside either
// tree, where a pass would copy or remove the log itself. source and replica
// must already be resolved.
func ValidateLogPath(logPath, source, replica string) (string, error) {
	if logPath == "" {
		return "", &Error{Field: FieldLogFile, Message: "path cannot be empty"}
	}

	abs := util.ExpandPath(logPath, "")
	// Resolve the parent so a symlinked working directory compares equal.
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}

	// An existing directory names where the default log file goes.
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		abs = filepath.Join(abs, synclog.DefaultFileName)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return "", &Error{
				Field:   FieldLogFile,
				Message: fmt.Sprintf("%q is a directory", abs),
			}
		}
	}

	for _, root := range []string{source, replica} {
		if root != "" && util.IsWithin(root, abs) {
			return "", &Error{
				Field:   FieldLogFile,
				Message: fmt.Sprintf("%q lies inside %s", logPath, root),
			}
		}
	}
	return abs, nil
}

// ValidateInterval checks that the wait between passes is positive.
func ValidateInterval(d time.Duration) error {
	if d <= 0 {
		return &Error{
			Field:   FieldInterval,
			Message: fmt.Sprintf("%s is not a valid synchronization frequency", d),
		}
	}
	return nil
}

// Check runs every validation for a sync configuration and collects the
// outcome. The returned error is non-nil only when the checks themselves
// could not run.
func Check(source, replica, logPath string, interval time.Duration, opts Options) (*Result, error) {
	result := &Result{Valid: true}

	src, dst, err := ValidatePair(source, replica)
	if err != nil {
		result.AddError(err)
		// Resolve each side alone so the log path is still checked.
		src, _ = ValidateDir(FieldSource, source)
		dst, _ = ValidateDir(FieldReplica, replica)
	} else {
		result.Source, result.Replica = src, dst
	}

	if err := ValidateInterval(interval); err != nil {
		result.AddError(err)
	}

	if logPath != "" {
		logFile, err := ValidateLogPath(logPath, src, dst)
		if err != nil {
			result.AddError(err)
		} else {
			result.LogFile = logFile
		}
	}

	if result.HasErrors() {
		return result, nil
	}

	if opts.RequireWritePermission {
		if err := validateWritePermission(dst); err != nil {
			result.AddError(err)
		}
	}

	srcEntries, err := os.ReadDir(src)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", src, err)
	}
	dstEntries, err := os.ReadDir(dst)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", dst, err)
	}

	if len(srcEntries) == 0 && len(dstEntries) > 0 {
		result.AddWarning("source directory is empty; every replica entry will be removed")
	}

	inSource := make(map[string]bool, len(srcEntries))
	for _, e := range srcEntries {
		inSource[e.Name()] = true
	}
	extra := 0
	for _, e := range dstEntries {
		if !inSource[e.Name()] {
			extra++
		}
	}
	if extra > 0 && len(srcEntries) > 0 {
		result.AddWarning(fmt.Sprintf("%d top-level replica entr%s not in the source will be removed", extra, plural(extra, "y", "ies")))
	}

	return result, nil
}

// validateWritePermission checks if the replica directory is writable.
func validateWritePermission(dir string) error {
	f, err := os.CreateTemp(dir, ".dirsync-write-test-*")
	if err != nil {
		return &Error{
			Field:   "write permission",
			Message: fmt.Sprintf("replica directory is not writable: %s", dir),
			Err:     err,
		}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
