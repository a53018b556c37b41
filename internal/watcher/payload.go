package watcher

import (
	"context"
	"errors"
	"io/fs"

	"github.com/dshills/keyducky/internal/logging"
	"github.com/dshills/keyducky/internal/script"
)

// PayloadLinter lints payloads whenever they change.
type PayloadLinter struct {
	fsys   fs.FS
	src    Source
	log    *logging.Logger
	onLint func(name string, issues []script.Issue)
}

// LinterOption configures a PayloadLinter.
type LinterOption func(*PayloadLinter)

// WithLinterLogger sets the logger.
func WithLinterLogger(l *logging.Logger) LinterOption {
	return func(p *PayloadLinter) {
		p.log = l
	}
}

// WithLintHook registers fn to be called with the result of every lint.
func WithLintHook(fn func(name string, issues []script.Issue)) LinterOption {
	return func(p *PayloadLinter) {
		p.onLint = fn
	}
}

// NewPayloadLinter creates a linter that reads payloads from fsys when src
// reports them changed.
func NewPayloadLinter(fsys fs.FS, src Source, opts ...LinterOption) *PayloadLinter {
	p := &PayloadLinter{
		fsys: fsys,
		src:  src,
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run lints changed payloads until ctx is done or the source closes.
func (p *PayloadLinter) Run(ctx context.Context) error {
	events, errs := p.src.Events(), p.src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.Handle(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.log.Warn("watch error: %v", err)
		}
	}
}

// Handle lints the payload an event refers to.
func (p *PayloadLinter) Handle(ev Event) {
	if ev.Change == Removed {
		p.log.Warn("payload %s removed", ev.Name)
		return
	}

	issues, err := script.LintFile(p.fsys, ev.Name)
	if errors.Is(err, fs.ErrNotExist) {
		p.log.Warn("payload %s removed", ev.Name)
		return
	}
	if err != nil {
		p.log.Warn("payload %s: %v", ev.Name, err)
		return
	}

	if len(issues) == 0 {
		p.log.Info("payload %s changed, no issues", ev.Name)
	}
	for _, issue := range issues {
		p.log.Warn("payload %s: %s", ev.Name, issue)
	}
	if p.onLint != nil {
		p.onLint(ev.Name, issues)
	}
}
