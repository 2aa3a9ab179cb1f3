// Package external runs the third party mesh tools and waits for their
// output files.
package external

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = time.Hour
	DefaultPoll    = time.Second
)

// ErrExternalToolTimeout is returned when an expected output file does not
// appear within the wait limit
var ErrExternalToolTimeout = errors.New("external tool timed out")

// Runner executes commands in Dir, logging their combined output line by
// line as it is produced
type Runner struct {
	Dir    string
	Logger *zap.Logger
}

func NewRunner(dir string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Dir: dir, Logger: logger}
}

// tailLines of output are kept for the error of a failed command
const tailLines = 10

// Run starts name with args and waits for it to exit. A relative name with a
// path separator is resolved against the current directory, not Dir.
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	if strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return err
		}
		name = abs
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	r.Logger.Info("running external tool", zap.String("cmd", name), zap.Strings("args", args),
		zap.String("dir", r.Dir))
	start := time.Now()
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	var (
		sc   = bufio.NewScanner(out)
		base = filepath.Base(name)
		tail []string
	)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		r.Logger.Debug(sc.Text(), zap.String("cmd", base))
		if tail = append(tail, sc.Text()); len(tail) > tailLines {
			tail = tail[1:]
		}
	}
	if sc.Err() != nil {
		// Keep the pipe drained so the tool never blocks on a full buffer
		_, _ = io.Copy(io.Discard, out)
	}
	if err = cmd.Wait(); err != nil {
		if len(tail) != 0 {
			return fmt.Errorf("%s: %w\n%s", name, err, strings.Join(tail, "\n"))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	r.Logger.Info("external tool finished", zap.String("cmd", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AwaitFile blocks until path exists, ctx is done or timeout expires. It
// watches the parent directory and also polls, for filesystems without
// change notification. A non-positive timeout or poll uses the default.
func AwaitFile(ctx context.Context, path string, timeout, poll time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if poll <= 0 {
		poll = DefaultPoll
	}
	if exists(path) {
		return nil
	}
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err = watcher.Add(filepath.Dir(path)); err == nil {
			events, errs = watcher.Events, watcher.Errors
		}
	}
	var (
		deadline = time.NewTimer(timeout)
		ticker   = time.NewTicker(poll)
		target   = filepath.Clean(path)
	)
	defer deadline.Stop()
	defer ticker.Stop()
	// A file created between the first check and the watch would be missed
	if exists(path) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s did not appear within %s", ErrExternalToolTimeout, path, timeout)
		case <-ticker.C:
			if exists(path) {
				return nil
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && exists(path) {
				return nil
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		}
	}
}
