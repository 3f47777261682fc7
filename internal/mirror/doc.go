// Package mirror implements one-way reconciliation of a replica directory tree
// against a source directory tree.
//
// A pass lists one directory level of both trees at a time and sorts every source
// entry into one of four buckets:
//   - a file present on both sides is compared by content digest and rewritten when it differs
//   - a directory present on both sides is queued so its own level is reconciled next
//   - a file present only in the source is copied in
//   - a directory present only in the source is cloned with all of its contents
//
// Whatever is left of the replica listing after that has no counterpart in the source
// and is pruned, children before parents.
//
// # Failures
//
// Per-entry I/O failures (a file vanishing mid-pass, a permission error, a full disk)
// are recorded in the Result as OutcomeFailed, written to the Sink and skipped; the pass
// carries on with the next entry. Failures that leave nothing below them reachable, such
// as an unlistable directory or a destination directory that cannot be created, abort the
// pass with a *StructuralError. Entries reconciled before the abort stay reconciled.
//
// # Usage
//
//	m := mirror.New(afero.NewOsFs(), log, mirror.Options{})
//	result, err := m.Synchronize(ctx, "/data/source", "/backup/replica")
//	if err != nil {
//	    return err
//	}
//	fmt.Print(result.Summary())
package mirror
