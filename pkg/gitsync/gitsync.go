// Package gitsync commits and pushes a working tree. Its Runner plugs into
// the dispatcher as the action performed at every occurrence.
package gitsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jdziat/sync-schedules/pkg/clock"
	"github.com/jdziat/sync-schedules/pkg/core"
)

// Defaults.
const (
	DefaultRemote   = "origin"
	DefaultCheckURL = "https://github.com"
	CommitPrefix    = "Committed changes up to "
)

// ErrRemoteUnreachable is returned when the reachability probe fails. The
// commit has been made at that point; only the push is missing.
var ErrRemoteUnreachable = errors.New("syncsched: remote host unreachable")

// Executor runs one git command in dir and returns its trimmed stdout.
type Executor interface {
	Git(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Git calls f.
func (f ExecutorFunc) Git(ctx context.Context, dir string, args ...string) (string, error) {
	return f(ctx, dir, args...)
}

// GitError carries the stderr of a failed git command.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Err }

// ExecGit runs the git binary found in PATH.
type ExecGit struct{}

// Git executes git with args in dir.
func (ExecGit) Git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &GitError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Runner stages, commits and pushes everything in a repository directory.
type Runner struct {
	dir      string
	remote   string
	checkURL string
	git      Executor
	client   *http.Client
	clock    clock.Clock
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRemote sets the remote pushed to. Default "origin".
func WithRemote(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.remote = name
		}
	}
}

// WithCheckURL sets the URL probed before pushing. An empty URL disables
// the probe.
func WithCheckURL(url string) Option {
	return func(r *Runner) { r.checkURL = url }
}

// WithExecutor replaces the git executor.
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		if e != nil {
			r.git = e
		}
	}
}

// WithHTTPClient sets the client used for the reachability probe.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		if c != nil {
			r.client = c
		}
	}
}

// WithClock sets the clock used for the commit message.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runner for the repository at dir.
func New(dir string, opts ...Option) *Runner {
	r := &Runner{
		dir:      dir,
		remote:   DefaultRemote,
		checkURL: DefaultCheckURL,
		git:      ExecGit{},
		client:   &http.Client{Timeout: 10 * time.Second},
		clock:    clock.RealClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the repository directory.
func (r *Runner) Dir() string { return r.dir }

// Run commits all changes and pushes them. A clean working tree is not an
// error; commits an earlier run could not push are still pushed.
func (r *Runner) Run(ctx context.Context, s core.Schedule, occurrence time.Time) error {
	status, err := r.git.Git(ctx, r.dir, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if status == "" {
		if !r.unpushed(ctx) {
			r.logger.Info("working tree clean, nothing to sync", "dir", r.dir, "schedule_id", s.ID)
			return nil
		}
		r.logger.Info("pushing earlier commits", "dir", r.dir, "schedule_id", s.ID)
		return r.push(ctx, s, occurrence, 0)
	}

	if _, err := r.git.Git(ctx, r.dir, "add", "."); err != nil {
		return fmt.Errorf("git add: %w", err)
	}

	msg := CommitMessage(r.clock.Now())
	if _, err := r.git.Git(ctx, r.dir, "commit", "-m", msg); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return r.push(ctx, s, occurrence, strings.Count(status, "\n")+1)
}

// push sends HEAD to the remote once the remote host answers.
func (r *Runner) push(ctx context.Context, s core.Schedule, occurrence time.Time, changed int) error {
	if err := r.probe(ctx); err != nil {
		return err
	}
	if _, err := r.git.Git(ctx, r.dir, "push", "-u", r.remote); err != nil {
		return fmt.Errorf("git push: %w", err)
	}

	r.logger.Info("changes pushed",
		"dir", r.dir,
		"remote", r.remote,
		"schedule_id", s.ID,
		"occurrence", occurrence,
		"changed", changed,
	)
	return nil
}

// unpushed reports whether HEAD has commits its upstream lacks. A branch
// without an upstream has never been pushed and counts as unpushed.
func (r *Runner) unpushed(ctx context.Context) bool {
	out, err := r.git.Git(ctx, r.dir, "rev-list", "--count", "@{u}..HEAD")
	if err != nil {
		r.logger.Debug("no upstream to compare with", "dir", r.dir, "error", err)
		return true
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	return err == nil && n > 0
}

// CommitMessage returns the commit message for a sync made at t.
func CommitMessage(t time.Time) string {
	return CommitPrefix + t.Format(time.UnixDate)
}

// probe checks once that the remote host answers. It is not retried.
func (r *Runner) probe(ctx context.Context) error {
	if r.checkURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.checkURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s answered %s", ErrRemoteUnreachable, r.checkURL, resp.Status)
	}
	return nil
}
