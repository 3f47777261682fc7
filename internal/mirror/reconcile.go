package mirror

import (
	"fmt"
	"path/filepath"
)

// reconcileFile brings replicaFile in line with sourceFile. Identical files are
// left untouched; differing files are deleted and copied afresh into replicaDir.
func (p *pass) reconcileFile(sourceFile, replicaFile, replicaDir string) EntryResult {
	er := EntryResult{Path: replicaFile, Kind: KindFile}

	same, err := p.cmp.Identical(sourceFile, replicaFile)
	if err != nil {
		return failed(er, fmt.Sprintf(msgUpdateFailed, replicaFile), err)
	}
	if same {
		er.Outcome = OutcomeUnchanged
		return er
	}

	if p.opts.DryRun {
		er.Bytes = p.sizeOf(sourceFile)
	} else {
		if err := p.fs.Remove(replicaFile); err != nil {
			return failed(er, fmt.Sprintf(msgUpdateFailed, replicaFile), err)
		}
		n, err := copyFile(p.fs, sourceFile, filepath.Join(replicaDir, filepath.Base(sourceFile)))
		if err != nil {
			return failed(er, fmt.Sprintf(msgUpdateFailed, replicaFile), err)
		}
		er.Bytes = n
	}

	er.Outcome = OutcomeUpdated
	er.Message = fmt.Sprintf(msgUpdated, replicaFile)
	return er
}

// copyNewFile copies sourceFile into targetDir under the same name.
func (p *pass) copyNewFile(sourceFile, targetDir string) EntryResult {
	er := EntryResult{Path: sourceFile, Kind: KindFile}

	if p.opts.DryRun {
		er.Bytes = p.sizeOf(sourceFile)
	} else {
		n, err := copyFile(p.fs, sourceFile, filepath.Join(targetDir, filepath.Base(sourceFile)))
		if err != nil {
			return failed(er, fmt.Sprintf(msgCopyFailed, sourceFile, targetDir), err)
		}
		er.Bytes = n
	}

	er.Outcome = OutcomeCreated
	er.Message = fmt.Sprintf(msgCopied, sourceFile, targetDir)
	return er
}

func (p *pass) sizeOf(name string) int64 {
	info, err := p.fs.Stat(name)
	if err != nil {
		return 0
	}
	return info.Size()
}
