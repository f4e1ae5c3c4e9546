// Package screen 把版面树渲染为流式 HTML，用于实时预览，也是 Chromium 引擎的输入。
package screen

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/prateekraiger/buildmeCV/internal/layout"
	"github.com/prateekraiger/buildmeCV/internal/resume"
)

var (
	partials = template.Must(template.New("partials").Parse(partialsTemplateString))
	page     = template.Must(template.New("page").Parse(pageTemplateString))
)

// Renderer draws one template variant ("modern", "classic").
type Renderer struct {
	Variant string
}

// New returns a renderer for the given variant.
func New(variant string) Renderer {
	return Renderer{Variant: variant}
}

type partialData struct {
	Variant string
	Accent  string
	Tint    template.CSS
	Header  layout.Header
	Summary layout.Summary
	Section layout.Section
}

// Render writes the resume markup (without the surrounding document) and
// returns the section keys in the order they were written.
func (r Renderer) Render(w io.Writer, t layout.Tree) ([]resume.SectionKey, error) {
	data := partialData{
		Variant: r.Variant,
		Accent:  t.Accent,
		Tint:    template.CSS(layout.CSSTint(t.Accent, 0.2)),
		Header:  t.Header,
		Summary: t.Summary,
	}

	var buf bytes.Buffer
	var emitted []resume.SectionKey
	fmt.Fprintf(&buf, `<div class="resume %s">`, template.HTMLEscapeString(r.Variant))
	for _, region := range t.Regions {
		style := ""
		if region.Name == layout.RegionSidebar {
			style = fmt.Sprintf(` style="background-color: %s"`, layout.CSSTint(t.Accent, 0.08))
		}
		fmt.Fprintf(&buf, `<div class="region-%s"%s>`, region.Name, style)
		if t.Header.Region == region.Name {
			if err := partials.ExecuteTemplate(&buf, "header", data); err != nil {
				return nil, fmt.Errorf("render header: %w", err)
			}
		}
		if t.Summary.Region == region.Name && t.Summary.Text != "" {
			if err := partials.ExecuteTemplate(&buf, "summary", data); err != nil {
				return nil, fmt.Errorf("render summary: %w", err)
			}
		}
		for _, sec := range region.Sections {
			data.Section = sec
			if err := partials.ExecuteTemplate(&buf, "section", data); err != nil {
				return nil, fmt.Errorf("render section %s: %w", sec.Key, err)
			}
			emitted = append(emitted, sec.Key)
		}
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</div>`)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write html: %w", err)
	}
	return emitted, nil
}

// Page writes a standalone HTML document around Render's output.
func (r Renderer) Page(w io.Writer, t layout.Tree) ([]resume.SectionKey, error) {
	var body bytes.Buffer
	emitted, err := r.Render(&body, t)
	if err != nil {
		return nil, err
	}
	err = page.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: t.Header.Name + " - Resume",
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return emitted, nil
}
