package compositor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/layout"
	"github.com/prateekraiger/buildmeCV/internal/render/paper"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/templates"
)

func TestBuildNative(t *testing.T) {
	c := New(templates.Default(), WithClock(func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	doc := resume.Default()

	art, err := c.Build(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "Jane_Doe_Resume.pdf", art.Filename)
	assert.Equal(t, ContentTypePDF, art.ContentType)
	assert.Equal(t, resume.TemplateModern, art.Template)
	assert.Equal(t, 1, art.Pages)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))
	assert.Contains(t, string(art.Data), "/Creator")
	assert.Equal(t, resume.Default(), doc)
}

func TestBuildClassicAndUnknownTemplate(t *testing.T) {
	c := New(templates.Default())

	doc := resume.Default()
	doc.Template = resume.TemplateClassic
	art, err := c.Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, resume.TemplateClassic, art.Template)

	doc.Template = "fancy"
	art, err = c.Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, resume.TemplateModern, art.Template)
}

func TestBuildRejectsMissingContact(t *testing.T) {
	c := New(templates.Default())
	doc := resume.Default()
	doc.Personal.Name = "  "
	doc.Personal.Email = ""

	art, err := c.Build(context.Background(), doc)
	require.Error(t, err)
	assert.Empty(t, art.Data)

	var verr *resume.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"personal.name", "personal.email"}, verr.Missing)

	var cerr *CompositionError
	assert.False(t, errors.As(err, &cerr))
}

func TestBuildSparseDocumentUsesPlaceholders(t *testing.T) {
	c := New(templates.Default())
	doc := resume.Empty()
	doc.Personal.Name = "A. Person"
	doc.Personal.Email = "a@example.com"

	art, err := c.Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "A_Person_Resume.pdf", art.Filename)
	assert.Equal(t, 1, art.Pages)
}

type panicRenderer struct{}

func (panicRenderer) Render(*paper.Document, layout.Tree) ([]resume.SectionKey, error) {
	panic("boom")
}

func TestRendererPanicBecomesCompositionError(t *testing.T) {
	reg := templates.Default()
	broken := templates.Classic()
	broken.Print = panicRenderer{}
	reg.Register(broken)

	doc := resume.Default()
	doc.Template = resume.TemplateClassic
	_, err := New(reg).Build(context.Background(), doc)

	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.Retryable())
	assert.Equal(t, resume.TemplateClassic, cerr.Template)
	assert.Contains(t, err.Error(), "boom")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(templates.Default()).Build(ctx, resume.Default())

	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.Canceled)
}

const twoPagePDF = "%PDF-1.4\n1 0 obj<</Type /Pages /Count 2>>\n2 0 obj<</Type /Page>>\n3 0 obj<</Type/Page>>\n%%EOF"

type fakePrinter struct {
	html string
	err  error
}

func (f *fakePrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte(twoPagePDF), nil
}

// blockingPrinter holds its first call until release is closed.
type blockingPrinter struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingPrinter) PrintPDF(context.Context, string) ([]byte, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.started)
		<-b.release
	}
	return []byte(twoPagePDF), nil
}

func TestBuildChromium(t *testing.T) {
	p := &fakePrinter{}
	c := New(templates.Default(), WithEngine(config.EngineChromium), WithPrinter(p))

	art, err := c.Build(context.Background(), resume.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, art.Pages)
	assert.Contains(t, p.html, "@page { size: Letter")
	assert.Contains(t, p.html, "Jane Doe")
}

func TestBuildChromiumFailure(t *testing.T) {
	p := &fakePrinter{err: errors.New("browser crashed")}
	c := New(templates.Default(), WithEngine(config.EngineChromium), WithPrinter(p))

	_, err := c.Build(context.Background(), resume.Default())
	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, config.EngineChromium, cerr.Engine)

	_, err = New(templates.Default(), WithEngine(config.EngineChromium)).Build(context.Background(), resume.Default())
	require.ErrorAs(t, err, &cerr)
	assert.True(t, strings.Contains(err.Error(), "no printer"))
}

func TestBuildForRejectsConcurrentExport(t *testing.T) {
	p := &blockingPrinter{started: make(chan struct{}), release: make(chan struct{})}
	c := New(templates.Default(), WithEngine(config.EngineChromium), WithPrinter(p))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = c.BuildFor(context.Background(), "s1", resume.Default())
	}()
	<-p.started

	_, err := c.BuildFor(context.Background(), "s1", resume.Default())
	assert.ErrorIs(t, err, ErrBusy)

	// 其他会话不受影响
	_, err = c.BuildFor(context.Background(), "s2", resume.Default())
	assert.NoError(t, err)

	close(p.release)
	wg.Wait()
	require.NoError(t, firstErr)

	_, err = c.BuildFor(context.Background(), "s1", resume.Default())
	assert.NoError(t, err)
}

func TestCountPages(t *testing.T) {
	assert.Equal(t, 0, CountPages([]byte("%PDF-1.4 /Type /Pages")))
	assert.Equal(t, 1, CountPages([]byte("/Type /Page /Parent 1 0 R")))
}
