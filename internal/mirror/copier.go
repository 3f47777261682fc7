package mirror

import (
	"path/filepath"
)

// copyFrame is one directory waiting to be cloned under destParent.
type copyFrame struct {
	source     string
	destParent string
	rel        string
}

// copyTree clones sourceDir, with everything below it, into a new directory of the
// same name under destParentDir. Individual file failures are recorded and skipped;
// failing to create or list a directory aborts with a *StructuralError since nothing
// below it can be placed.
func (p *pass) copyTree(sourceDir, destParentDir, rel string) error {
	stack := []copyFrame{{source: sourceDir, destParent: destParentDir, rel: rel}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := p.ctx.Err(); err != nil {
			return err
		}

		info, err := p.fs.Stat(frame.source)
		if err != nil {
			return structural("stat", frame.source, err)
		}

		newDir := filepath.Join(frame.destParent, filepath.Base(frame.source))
		if !p.opts.DryRun {
			// Owner write is kept so the contents can be placed.
			if err := p.fs.Mkdir(newDir, info.Mode().Perm()|0o700); err != nil {
				return structural("mkdir", newDir, err)
			}
		}

		entries, err := p.list(frame.source, frame.rel, true)
		if err != nil {
			return structural("list", frame.source, err)
		}

		names := entries.names()
		for i := len(names) - 1; i >= 0; i-- {
			if entries[names[i]].Kind == KindDirectory {
				stack = append(stack, copyFrame{
					source:     filepath.Join(frame.source, names[i]),
					destParent: newDir,
					rel:        joinRel(frame.rel, names[i]),
				})
			}
		}
		for _, name := range names {
			if entries[name].Kind == KindFile {
				if err := p.ctx.Err(); err != nil {
					return err
				}
				p.record(p.copyNewFile(filepath.Join(frame.source, name), newDir))
			}
		}
	}
	return nil
}
