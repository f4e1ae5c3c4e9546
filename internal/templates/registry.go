// Package templates 维护可选模板：每个模板是一种区域划分加上一对屏幕/打印渲染器。
package templates

import (
	"io"
	"sync"

	"github.com/prateekraiger/buildmeCV/internal/layout"
	"github.com/prateekraiger/buildmeCV/internal/render/paper"
	"github.com/prateekraiger/buildmeCV/internal/render/screen"
	"github.com/prateekraiger/buildmeCV/internal/resume"
)

// ScreenRenderer draws a tree as flow-layout HTML.
type ScreenRenderer interface {
	Render(w io.Writer, t layout.Tree) ([]resume.SectionKey, error)
	Page(w io.Writer, t layout.Tree) ([]resume.SectionKey, error)
}

// PrintRenderer draws a tree onto fixed-size PDF pages.
type PrintRenderer interface {
	Render(doc *paper.Document, t layout.Tree) ([]resume.SectionKey, error)
}

// Template is one selectable layout strategy.
type Template struct {
	Key         resume.TemplateKey `json:"key"`
	Label       string             `json:"label"`
	Description string             `json:"description"`
	Arrange     layout.Arrangement `json:"-"`
	Screen      ScreenRenderer     `json:"-"`
	Print       PrintRenderer      `json:"-"`
}

// Tree projects doc with this template's arrangement.
func (t Template) Tree(doc resume.ResumeData) layout.Tree {
	return layout.Build(doc, t.Arrange)
}

// Registry maps template keys to templates. Unknown keys fall back to the
// fallback template.
type Registry struct {
	mu        sync.RWMutex
	templates map[resume.TemplateKey]Template
	order     []resume.TemplateKey
	fallback  resume.TemplateKey
}

// NewRegistry returns an empty registry whose lookups fall back to fallback.
func NewRegistry(fallback resume.TemplateKey) *Registry {
	return &Registry{templates: map[resume.TemplateKey]Template{}, fallback: fallback}
}

// Register adds or replaces a template. Registration order is listing order.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[t.Key]; !exists {
		r.order = append(r.order, t.Key)
	}
	r.templates[t.Key] = t
}

// Lookup returns the template for key, or the fallback template.
func (r *Registry) Lookup(key resume.TemplateKey) Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.templates[key]; ok {
		return t
	}
	return r.templates[r.fallback]
}

// Templates lists the registered templates in registration order.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.templates[k])
	}
	return out
}

// Default 构建包含 Modern 与 Classic 的注册表，未知键回退到 Modern。
func Default() *Registry {
	r := NewRegistry(resume.TemplateModern)
	r.Register(Modern())
	r.Register(Classic())
	return r
}

// Modern: tinted sidebar with identity, contacts, skills and achievements;
// main column with the summary as "Objective" and the entry sections.
func Modern() Template {
	return Template{
		Key:         resume.TemplateModern,
		Label:       "Modern",
		Description: "Two columns with a tinted sidebar for contact details, skills and achievements.",
		Arrange: layout.Arrangement{
			Regions: []layout.RegionSpec{
				{Name: layout.RegionSidebar, Sections: []resume.SectionKey{resume.SectionSkills, resume.SectionAchievements}},
				{Name: layout.RegionMain, Sections: []resume.SectionKey{resume.SectionExperience, resume.SectionEducation, resume.SectionProjects}},
			},
			HeaderRegion:   layout.RegionSidebar,
			SummaryRegion:  layout.RegionMain,
			SummaryHeading: "Objective",
		},
		Screen: screen.New("modern"),
		Print:  paper.New(paper.ModernStyle()),
	}
}

// Classic: one column with a centered header and every section in order.
func Classic() Template {
	return Template{
		Key:         resume.TemplateClassic,
		Label:       "Classic",
		Description: "Single column with a centered header, suited to conservative industries.",
		Arrange: layout.Arrangement{
			Regions: []layout.RegionSpec{
				{Name: layout.RegionMain, Sections: append([]resume.SectionKey(nil), resume.CanonicalOrder...)},
			},
			HeaderRegion:   layout.RegionMain,
			SummaryRegion:  layout.RegionMain,
			SummaryHeading: "Summary",
		},
		Screen: screen.New("classic"),
		Print:  paper.New(paper.ClassicStyle()),
	}
}
