package install

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

func (r *run) basicGroup(index int, group plan.Group) error {
	for _, cmd := range group.Commands() {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("install interrupted before command %d: %w", cmd.ID(), err)
		}
		outcome, cmdErr := r.basicCommand(cmd)
		if err := r.settle(index, cmd, outcome, cmdErr); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) basicCommand(cmd command.Command) (store.Outcome, error) {
	e := r.executor
	switch c := cmd.(type) {
	case *command.CopyModFile:
		return r.copy(e.ModDir, c.SourcePath, c.TargetPath)
	case *command.CopyGameFile:
		return r.copy(e.GameDir, c.SourcePath, c.TargetPath)
	case *command.RemoveFile:
		return r.remove(c.SourcePath)
	default:
		return store.Outcome{}, fmt.Errorf("%w: %s", ErrUnsupported, cmd.Kind())
	}
}

func (r *run) copy(sourceRoot string, source, target paths.EntityPath) (store.Outcome, error) {
	outcome := store.Outcome{Target: target.String()}

	sourceFile, err := resolve(sourceRoot, source)
	if err != nil {
		return outcome, fmt.Errorf("source: %w", err)
	}
	targetFile, err := resolve(r.executor.GameDir, target)
	if err != nil {
		return outcome, fmt.Errorf("target: %w", err)
	}
	if _, err := os.Stat(sourceFile); errors.Is(err, fs.ErrNotExist) {
		return outcome, fmt.Errorf("%w: %s", ErrMissingSource, source)
	}

	backup, err := r.backup(target, targetFile)
	if err != nil {
		return outcome, err
	}
	outcome.Backup = backup

	if err := copyFile(sourceFile, targetFile); err != nil {
		return outcome, err
	}
	outcome.Status = store.OutcomeApplied
	return outcome, nil
}

func (r *run) remove(target paths.EntityPath) (store.Outcome, error) {
	outcome := store.Outcome{Target: target.String()}

	targetFile, err := resolve(r.executor.GameDir, target)
	if err != nil {
		return outcome, err
	}
	backup, err := r.backup(target, targetFile)
	if err != nil {
		return outcome, err
	}
	if backup == "" {
		// Nothing to remove.
		outcome.Status = store.OutcomeApplied
		outcome.Message = "file already absent"
		return outcome, nil
	}
	outcome.Backup = backup

	if err := os.Remove(targetFile); err != nil {
		return outcome, fmt.Errorf("removing %s: %w", target, err)
	}
	outcome.Status = store.OutcomeApplied
	return outcome, nil
}

// backup copies an existing file under the run's backup directory and
// returns the copy's path, or "" when there is nothing to back up. A target
// is copied once per run; later calls return the first copy, which holds the
// content from before the install touched it.
func (r *run) backup(target paths.EntityPath, file string) (string, error) {
	info, err := os.Stat(file)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", target, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", target)
	}

	if dest, ok := r.backups[target.Key()]; ok {
		return dest, nil
	}

	root, err := r.backupDir()
	if err != nil {
		return "", err
	}
	dest := target.Join(root)
	if err := copyFile(file, dest); err != nil {
		return "", fmt.Errorf("backing up %s: %w", target, err)
	}
	if r.backups == nil {
		r.backups = make(map[string]string)
	}
	r.backups[target.Key()] = dest
	return dest, nil
}

// backupDir creates the run's backup directory on first use. Runs without a
// journal ID get a random suffix so runs started in the same second never
// share a directory.
func (r *run) backupDir() (string, error) {
	if r.backupReady {
		return r.backupRoot, nil
	}
	if r.result.RunID > 0 {
		if err := os.MkdirAll(r.backupRoot, 0o755); err != nil {
			return "", fmt.Errorf("creating backup directory: %w", err)
		}
	} else {
		parent, label := filepath.Split(r.backupRoot)
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", fmt.Errorf("creating backup directory: %w", err)
		}
		dir, err := os.MkdirTemp(parent, label+"-*")
		if err != nil {
			return "", fmt.Errorf("creating backup directory: %w", err)
		}
		r.backupRoot = dir
	}
	r.backupReady = true
	return r.backupRoot, nil
}

func resolve(root string, p paths.EntityPath) (string, error) {
	if p.IsEmpty() {
		return "", ErrEmptyPath
	}
	if p.Escapes() {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, p)
	}
	return p.Join(root), nil
}

// copyFile writes src to dst through a temporary file in dst's directory so
// an interrupted copy never leaves a truncated target.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".wmi-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", dst, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	return nil
}
