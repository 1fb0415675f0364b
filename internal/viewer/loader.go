package viewer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/render"
	"github.com/dgallion1/docview/internal/source"
	"github.com/dgallion1/docview/internal/tagschema"
	"github.com/dgallion1/docview/internal/transform"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"
)

// View is a fully rendered document. Views may be shared between sessions
// through the cache and must not be modified.
type View struct {
	Page        string     `json:"page"`
	Title       string     `json:"title"`
	ContentHash string     `json:"content_hash"`
	Root        *html.Node `json:"-"`
	HTML        string     `json:"html"`
	RenderedAt  time.Time  `json:"rendered_at"`
}

// ViewLoader produces the view for a request.
type ViewLoader interface {
	LoadAndRender(ctx context.Context, req DocumentRequest) (*View, error)
}

// Loader runs fetch, parse, transform and render for one request. It is
// safe for concurrent use.
type Loader struct {
	source   source.Source
	registry *tagschema.Registry
	parsers  parser.Options
	renderer *render.Renderer
	cache    *lru.Cache[string, *View]
	stats    *Stats
	log      *slog.Logger
}

// NewLoader wires a loader. parsers.Markdown is also used to render
// markdown blocks; nil selects NewMarkdown(""). cacheSize <= 0 disables
// the view cache.
func NewLoader(src source.Source, reg *tagschema.Registry, parsers parser.Options, cacheSize int, stats *Stats, log *slog.Logger) (*Loader, error) {
	if parsers.Markdown == nil {
		parsers.Markdown = parser.NewMarkdown("")
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	l := &Loader{
		source:   src,
		registry: reg,
		parsers:  parsers,
		renderer: render.New(parsers.Markdown),
		stats:    stats,
		log:      log,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, *View](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create view cache: %w", err)
		}
		l.cache = cache
	}
	return l, nil
}

// Stats returns the loader's latency tracker.
func (l *Loader) Stats() *Stats { return l.stats }

// LoadAndRender fetches the requested document and renders it. Errors from
// every stage are returned wrapped; nothing is retried.
func (l *Loader) LoadAndRender(ctx context.Context, req DocumentRequest) (*View, error) {
	start := time.Now()
	view, err := l.load(ctx, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			l.stats.Fail()
		}
		return nil, err
	}
	l.stats.Record(time.Since(start).Milliseconds())
	return view, nil
}

func (l *Loader) load(ctx context.Context, req DocumentRequest) (*View, error) {
	log := l.log.With("page", req.Page)

	raw, err := l.source.Fetch(ctx, req.Page)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Page, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ContentHashHex(raw)
	key := req.Page + "@" + hash
	if l.cache != nil {
		if v, ok := l.cache.Get(key); ok {
			log.Debug("view cache hit", "content_hash", hash)
			return v, nil
		}
	}

	doc, err := l.parsers.ForFile(req.Page).Parse(bytes.NewReader(raw), req.Page)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Page, err)
	}

	tree, err := transform.Transform(doc, l.registry)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", req.Page, err)
	}

	root, err := l.renderer.Render(tree)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", req.Page, err)
	}
	out, err := render.HTML(root)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", req.Page, err)
	}

	view := &View{
		Page:        req.Page,
		Title:       tree.Title,
		ContentHash: hash,
		Root:        root,
		HTML:        out,
		RenderedAt:  time.Now(),
	}
	if l.cache != nil {
		l.cache.Add(key, view)
	}
	log.Info("rendered document", "title", view.Title, "bytes", len(raw), "content_hash", hash)
	return view, nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
