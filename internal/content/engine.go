package content

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/five82/lectern/internal/markup"
	"github.com/five82/lectern/internal/metrics"
	"github.com/five82/lectern/internal/moodle"
	"github.com/five82/lectern/internal/session"
)

// Gateway is the subset of the API the engine fetches from.
type Gateway interface {
	Pages(ctx context.Context, courseIDs ...int) ([]moodle.Page, error)
	Books(ctx context.Context, courseIDs ...int) ([]moodle.Book, error)
	ForumDiscussions(ctx context.Context, forumID, perPage int) ([]moodle.Discussion, error)
}

// Bridger converts a site URL into an authenticated one.
type Bridger interface {
	URL(ctx context.Context, target string) string
}

// SessionSource supplies the active endpoint.
type SessionSource interface {
	Current() (session.Config, bool)
}

// Opener hands a URL to something outside the client, such as a browser.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Resolver produces a directive for a selection.
type Resolver interface {
	Resolve(ctx context.Context, sel Selection) Directive
}

var (
	_ Gateway  = (*moodle.Client)(nil)
	_ Resolver = (*Engine)(nil)
)

// Options configure an Engine.
type Options struct {
	Opener Opener
	Logger *slog.Logger
}

// Engine runs the resolution chain.
type Engine struct {
	gateway Gateway
	bridge  Bridger
	session SessionSource
	opener  Opener
	logger  *slog.Logger
	rules   []rule

	mu     sync.RWMutex
	forced map[int]struct{}
}

// request is the per-resolution context shared by the rules.
type request struct {
	sel  Selection
	cfg  session.Config
	pipe markup.Pipeline
}

type rule struct {
	name  string
	apply func(ctx context.Context, r request) (Directive, bool)
}

// NewEngine builds an Engine.
func NewEngine(gateway Gateway, bridge Bridger, src SessionSource, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		gateway: gateway,
		bridge:  bridge,
		session: src,
		opener:  opts.Opener,
		logger:  logger.With("component", "content"),
		forced:  make(map[int]struct{}),
	}
	e.rules = []rule{
		{"assignment", e.assignmentRule},
		{"resource", e.resourceRule},
		{"content", e.contentRule},
		{"embedded", e.embeddedRule},
		{"quiz", e.quizRule},
		{"forum", e.forumRule},
		{"url", e.urlRule},
		{"fallback", e.fallbackRule},
	}
	return e
}

// ForceEmbed marks a course module to be embedded instead of delegated.
func (e *Engine) ForceEmbed(cmid int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forced[cmid] = struct{}{}
}

// IsForcedEmbed reports whether ForceEmbed was called for cmid.
func (e *Engine) IsForcedEmbed(cmid int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.forced[cmid]
	return ok
}

// Resolve returns the directive for sel. It never fails.
func (e *Engine) Resolve(ctx context.Context, sel Selection) Directive {
	ctx, span := otel.Tracer("lectern/content").Start(ctx, "content.Resolve", trace.WithAttributes(
		attribute.Int("module.id", sel.Module.ID),
		attribute.String("module.modname", sel.Module.ModName),
	))
	defer span.End()

	cfg, ok := e.session.Current()
	if !ok || !cfg.Usable() {
		return e.none(sel, "none", "not connected")
	}
	r := request{
		sel:  sel,
		cfg:  cfg,
		pipe: markup.Pipeline{BaseURL: cfg.URL, Token: cfg.Token},
	}
	for _, rl := range e.rules {
		d, ok := rl.apply(ctx, r)
		if !ok {
			continue
		}
		d.Rule = rl.name
		span.SetAttributes(attribute.String("content.rule", rl.name), attribute.String("content.kind", string(d.Kind)))
		d.ModuleID = sel.Module.ID
		if d.Title == "" {
			d.Title = sel.Module.Name
		}
		metrics.DirectivesTotal.WithLabelValues(string(d.Kind)).Inc()
		e.logger.Debug("resolved module",
			"module_id", sel.Module.ID,
			"modname", sel.Module.ModName,
			"rule", rl.name,
			"kind", d.Kind,
		)
		return d
	}
	return e.none(sel, "none", "no rendering strategy for module type "+sel.Module.ModName)
}

func (e *Engine) none(sel Selection, ruleName, diagnostic string) Directive {
	e.logger.Warn("module not resolved", "module_id", sel.Module.ID, "modname", sel.Module.ModName, "reason", diagnostic)
	metrics.DirectivesTotal.WithLabelValues(string(KindNone)).Inc()
	return Directive{
		Kind:       KindNone,
		Title:      sel.Module.Name,
		ModuleID:   sel.Module.ID,
		Diagnostic: diagnostic,
		Rule:       ruleName,
	}
}
