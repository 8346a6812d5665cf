package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pqtree/pkg/cache"
	"github.com/matzehuels/pqtree/pkg/errors"
	"github.com/matzehuels/pqtree/pkg/observability"
)

// Supported output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Formats lists every format accepted by [Renderer.Render].
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// DefaultTTL is how long rendered artifacts stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// Renderer renders DOT documents and memoises the results.
// A Renderer is safe for concurrent use when its cache is.
type Renderer struct {
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	scale  float64
	logger *log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCache memoises artifacts in c.
func WithCache(c cache.Cache) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithKeyer overrides the key scheme, e.g. with a [cache.ScopedKeyer].
func WithKeyer(k cache.Keyer) Option {
	return func(r *Renderer) {
		if k != nil {
			r.keyer = k
		}
	}
}

// WithTTL sets the lifetime of cached artifacts. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(r *Renderer) { r.ttl = d }
}

// WithScale sets the PNG scale factor (default 2).
func WithScale(s float64) Option {
	return func(r *Renderer) { r.scale = s }
}

// WithLogger sets the logger for cache diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New creates a Renderer. Without [WithCache] nothing is memoised.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		ttl:    DefaultTTL,
		scale:  2,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SVG renders dot as SVG.
func (r *Renderer) SVG(ctx context.Context, dot string) ([]byte, error) {
	return r.Render(ctx, dot, FormatSVG)
}

// Render renders dot in the given format. The format is matched
// case-insensitively against [Formats].
func (r *Renderer) Render(ctx context.Context, dot, format string) ([]byte, error) {
	format, err := errors.ValidateFormat(format, Formats...)
	if err != nil {
		return nil, err
	}
	if dot == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty DOT document")
	}
	if format == FormatDOT {
		return []byte(dot), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCanceled, err, "render %s", format)
	}

	key := r.keyer.RenderKey(cache.Hash([]byte(dot)), cache.RenderKeyOpts{Format: format})
	if data, ok := r.lookup(ctx, key); ok {
		return data, nil
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	data, err := r.render(ctx, dot, format)
	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, data)
	return data, nil
}

func (r *Renderer) render(ctx context.Context, dot, format string) ([]byte, error) {
	svg, err := renderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render svg")
	}
	switch format {
	case FormatPNG:
		data, err := rsvgConvert(ctx, svg, FormatPNG, "-z", fmt.Sprintf("%.2f", r.scale))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "convert to png")
		}
		return data, nil
	case FormatPDF:
		data, err := rsvgConvert(ctx, svg, FormatPDF)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "convert to pdf")
		}
		return data, nil
	}
	return svg, nil
}

// lookup reads key from the cache. Backend failures are logged and treated
// as misses.
func (r *Renderer) lookup(ctx context.Context, key string) ([]byte, bool) {
	hooks := observability.Cache()
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("render cache read failed", "err", err)
	}
	if err != nil || !ok {
		hooks.OnCacheMiss(ctx, cache.KeyTypeRender)
		return nil, false
	}
	hooks.OnCacheHit(ctx, cache.KeyTypeRender)
	return data, true
}

func (r *Renderer) store(ctx context.Context, key string, data []byte) {
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("render cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeRender, len(data))
}

// SVG renders dot as SVG without caching.
func SVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := renderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render svg")
	}
	return svg, nil
}

func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg tag with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
