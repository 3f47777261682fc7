package mirror

import (
	"path/filepath"
)

// dirPair is a directory present in both trees, at the same relative path.
type dirPair struct {
	source  string
	replica string
	rel     string
}

// reconcileDirectories makes replicaDir mirror sourceDir, one directory level at
// a time. Matched subdirectories are pushed onto a work stack instead of recursed
// into, so tree depth does not grow the goroutine stack.
func (p *pass) reconcileDirectories(sourceDir, replicaDir string) error {
	stack := []dirPair{{source: sourceDir, replica: replicaDir}}

	for len(stack) > 0 {
		pair := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		subdirs, err := p.reconcileLevel(pair)
		if err != nil {
			return err
		}
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
	return nil
}

// reconcileLevel reconciles the direct entries of one directory pair and returns
// the matched subdirectory pairs still to be visited.
func (p *pass) reconcileLevel(pair dirPair) ([]dirPair, error) {
	sourceEntries, err := p.list(pair.source, pair.rel, true)
	if err != nil {
		return nil, structural("list", pair.source, err)
	}
	// The replica snapshot is never modified; matched names are taken out of
	// unmatched, which is what remains to be pruned.
	replicaEntries, err := p.list(pair.replica, pair.rel, false)
	if err != nil {
		return nil, structural("list", pair.replica, err)
	}
	unmatched := make(map[string]struct{}, len(replicaEntries))
	for name := range replicaEntries {
		unmatched[name] = struct{}{}
	}

	var subdirs []dirPair
	for _, name := range sourceEntries.names() {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}

		src := sourceEntries[name]
		sourcePath := filepath.Join(pair.source, name)
		replicaPath := filepath.Join(pair.replica, name)
		rel := joinRel(pair.rel, name)

		replicaEntry, inReplica := replicaEntries[name]
		if inReplica {
			delete(unmatched, name)
			if replicaEntry.Kind != src.Kind {
				// Same name, different kind: the replica entry goes and the
				// source entry is copied in as new.
				if err := p.prune([]string{name}, pair.replica, pair.rel); err != nil {
					return nil, err
				}
				inReplica = false
			}
		}

		switch {
		case inReplica && src.Kind == KindFile:
			p.record(p.reconcileFile(sourcePath, replicaPath, pair.replica))
		case inReplica:
			subdirs = append(subdirs, dirPair{source: sourcePath, replica: replicaPath, rel: rel})
		case src.Kind == KindFile:
			p.record(p.copyNewFile(sourcePath, pair.replica))
		default:
			if err := p.copyTree(sourcePath, pair.replica, rel); err != nil {
				return nil, err
			}
		}
	}

	stale := make(listing, len(unmatched))
	for name := range unmatched {
		stale[name] = replicaEntries[name]
	}
	if err := p.prune(stale.names(), pair.replica, pair.rel); err != nil {
		return nil, err
	}
	return subdirs, nil
}
