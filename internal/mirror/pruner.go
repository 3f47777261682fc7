package mirror

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// pruneFrame is one replica entry scheduled for removal. A directory frame is
// visited twice: once to schedule its children, then again (expanded) to remove
// the directory after they are gone. up is the stack index of the expanded
// parent frame, or -1 for the entries prune was called with; the parent stays
// at that index until all of its children have been popped.
type pruneFrame struct {
	path     string
	parent   string
	rel      string
	up       int
	expanded bool
	keep     bool
}

// prune removes the named entries of containingDir, depth-first. File removal
// failures are recorded and skipped. Excluded entries inside a stale directory are
// kept, and so is every directory between them and containingDir.
func (p *pass) prune(names []string, containingDir, rel string) error {
	stack := make([]pruneFrame, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		stack = append(stack, pruneFrame{
			path:   filepath.Join(containingDir, names[i]),
			parent: containingDir,
			rel:    joinRel(rel, names[i]),
			up:     -1,
		})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := p.ctx.Err(); err != nil {
			return err
		}

		if frame.expanded {
			if frame.keep {
				if frame.up >= 0 {
					stack[frame.up].keep = true
				}
				continue
			}
			p.record(p.removeDir(frame.path, frame.parent))
			continue
		}

		info, err := lstat(p.fs, frame.path)
		if err != nil {
			p.record(failed(EntryResult{Path: frame.path, Kind: KindFile},
				fmt.Sprintf(msgRemoveFailed, frame.path, frame.parent), err))
			continue
		}
		if !info.IsDir() {
			p.record(p.removeFile(frame.path, frame.parent))
			continue
		}

		children, err := afero.ReadDir(p.fs, frame.path)
		if err != nil {
			return structural("list", frame.path, err)
		}

		frame.expanded = true
		self := len(stack)
		var pending []pruneFrame
		for _, child := range children {
			childRel := joinRel(frame.rel, child.Name())
			if p.opts.Ignore != nil && p.opts.Ignore.Match(childRel, child.IsDir()) {
				frame.keep = true
				continue
			}
			pending = append(pending, pruneFrame{
				path:   filepath.Join(frame.path, child.Name()),
				parent: frame.path,
				rel:    childRel,
				up:     self,
			})
		}

		stack = append(stack, frame)
		for i := len(pending) - 1; i >= 0; i-- {
			stack = append(stack, pending[i])
		}
	}
	return nil
}

// removeFile deletes a single replica file (or symlink, which is not followed).
func (p *pass) removeFile(path, containingDir string) EntryResult {
	er := EntryResult{Path: path, Kind: KindFile}
	if !p.opts.DryRun {
		if err := p.fs.Remove(path); err != nil {
			return failed(er, fmt.Sprintf(msgRemoveFailed, path, containingDir), err)
		}
	}
	er.Outcome = OutcomeRemoved
	er.Message = fmt.Sprintf(msgRemoved, path, containingDir)
	return er
}

// removeDir deletes a replica directory whose children have already been pruned.
// Succeeding is not logged; failing (a child survived) is.
func (p *pass) removeDir(path, containingDir string) EntryResult {
	er := EntryResult{Path: path, Kind: KindDirectory}
	if !p.opts.DryRun {
		if err := p.fs.Remove(path); err != nil {
			return failed(er, fmt.Sprintf(msgDirRemoveFailed, path, containingDir), err)
		}
	}
	er.Outcome = OutcomeRemoved
	return er
}
