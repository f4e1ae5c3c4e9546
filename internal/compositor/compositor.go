// Package compositor 把一份简历快照合成为可下载的 PDF 文件。
//
// 流程：导出校验 -> 占位符补齐 -> 选择模板 -> 渲染（原生 gofpdf 或 Chromium 打印）。
// 校验失败返回 *resume.ValidationError，渲染失败返回 *CompositionError。
package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/layout"
	"github.com/prateekraiger/buildmeCV/internal/metrics"
	"github.com/prateekraiger/buildmeCV/internal/render/paper"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/templates"
)

// ContentTypePDF is the MIME type of every artifact.
const ContentTypePDF = "application/pdf"

// Creator is written into the PDF information dictionary.
const Creator = "BuildMeCV"

// ErrBusy is returned when the same session already has a composition running.
var ErrBusy = errors.New("export already in progress")

// Artifact is a finished document.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	Pages       int
	Template    resume.TemplateKey
}

// CompositionError 表示渲染阶段失败（字体、引擎、渲染器 panic 等），可以重试。
type CompositionError struct {
	Template resume.TemplateKey
	Engine   string
	Err      error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose %s pdf with %s engine: %v", e.Template, e.Engine, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// Retryable always reports true: nothing about the input caused the failure.
func (e *CompositionError) Retryable() bool { return true }

// Printer turns a full HTML page into PDF bytes. *pdf.Chromium implements it.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// Compositor renders documents through a template registry.
type Compositor struct {
	registry *templates.Registry
	engine   string
	fontsDir string
	printer  Printer
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithEngine selects config.EngineNative or config.EngineChromium.
func WithEngine(engine string) Option {
	return func(c *Compositor) { c.engine = engine }
}

// WithFontsDir sets where TTF fonts are looked up for the native engine.
func WithFontsDir(dir string) Option {
	return func(c *Compositor) { c.fontsDir = dir }
}

// WithPrinter sets the HTML printer used by the chromium engine.
func WithPrinter(p Printer) Option {
	return func(c *Compositor) { c.printer = p }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Compositor) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compositor) { c.logger = logger }
}

// New returns a compositor using the native engine unless configured otherwise.
func New(registry *templates.Registry, opts ...Option) *Compositor {
	c := &Compositor{
		registry: registry,
		engine:   config.EngineNative,
		now:      time.Now,
		logger:   slog.Default(),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the configured engine name.
func (c *Compositor) Engine() string { return c.engine }

// BuildFor is Build guarded per session: while one composition for
// sessionID runs, further calls fail with ErrBusy instead of queueing.
func (c *Compositor) BuildFor(ctx context.Context, sessionID string, doc resume.ResumeData) (Artifact, error) {
	c.mu.Lock()
	if _, busy := c.inflight[sessionID]; busy {
		c.mu.Unlock()
		return Artifact{}, ErrBusy
	}
	c.inflight[sessionID] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, sessionID)
		c.mu.Unlock()
	}()
	return c.Build(ctx, doc)
}

// Build validates, sanitizes and renders doc. It never mutates doc.
func (c *Compositor) Build(ctx context.Context, doc resume.ResumeData) (Artifact, error) {
	start := time.Now()
	tpl := c.registry.Lookup(doc.Template)

	if err := resume.ValidateForExport(doc); err != nil {
		metrics.ObserveComposition(string(tpl.Key), c.engine, "invalid", 0, time.Since(start))
		return Artifact{}, err
	}

	clean := resume.Sanitize(doc)
	data, pages, err := c.render(ctx, tpl, clean)
	if err != nil {
		metrics.ObserveComposition(string(tpl.Key), c.engine, "failed", 0, time.Since(start))
		c.logger.Error("compose pdf failed",
			slog.String("template", string(tpl.Key)),
			slog.String("engine", c.engine),
			slog.Any("error", err),
		)
		return Artifact{}, &CompositionError{Template: tpl.Key, Engine: c.engine, Err: err}
	}

	metrics.ObserveComposition(string(tpl.Key), c.engine, "ok", pages, time.Since(start))
	c.logger.Info("pdf composed",
		slog.String("template", string(tpl.Key)),
		slog.String("engine", c.engine),
		slog.Int("pages", pages),
		slog.Int("bytes", len(data)),
	)
	return Artifact{
		Filename:    resume.PDFFilename(doc.Personal.Name),
		ContentType: ContentTypePDF,
		Data:        data,
		Pages:       pages,
		Template:    tpl.Key,
	}, nil
}

func (c *Compositor) render(ctx context.Context, tpl templates.Template, doc resume.ResumeData) (data []byte, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, pages, err = nil, 0, fmt.Errorf("renderer panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	tree := tpl.Tree(doc)
	switch c.engine {
	case config.EngineChromium:
		return c.renderChromium(ctx, tpl, tree)
	case config.EngineNative, "":
	default:
		return nil, 0, fmt.Errorf("unknown engine %q", c.engine)
	}

	out := paper.NewDocument(c.meta(doc), paper.RegisterFonts(c.fontsDir))
	if _, err := tpl.Print.Render(out, tree); err != nil {
		return nil, 0, err
	}
	pages = out.Pages()
	data, err = out.Bytes()
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return data, pages, nil
}

func (c *Compositor) renderChromium(ctx context.Context, tpl templates.Template, tree layout.Tree) ([]byte, int, error) {
	if c.printer == nil {
		return nil, 0, errors.New("chromium engine selected but no printer configured")
	}
	var buf bytes.Buffer
	if _, err := tpl.Screen.Page(&buf, tree); err != nil {
		return nil, 0, fmt.Errorf("render html: %w", err)
	}
	data, err := c.printer.PrintPDF(ctx, buf.String())
	if err != nil {
		return nil, 0, err
	}
	return data, CountPages(data), nil
}

func (c *Compositor) meta(doc resume.ResumeData) paper.Meta {
	return paper.Meta{
		Title:   doc.Personal.Name + " - Resume",
		Author:  doc.Personal.Name,
		Subject: doc.Personal.Title,
		Creator: Creator,
		Created: c.now(),
	}
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// CountPages counts page objects in an uncompressed-xref PDF. It is a best
// effort for documents produced by Chromium, where the page tree is plain.
func CountPages(data []byte) int {
	return len(pageObject.FindAll(data, -1))
}
