package paper

import (
	"fmt"

	"github.com/prateekraiger/buildmeCV/internal/layout"
	"github.com/prateekraiger/buildmeCV/internal/resume"
)

// column is the horizontal extent of a region's content, in points.
type column struct {
	Left  float64
	Right float64
}

func (c column) width() float64 { return c.Right - c.Left }

// Style 描述模板在纸面上的几何形状。
type Style struct {
	Variant      string
	Columns      map[layout.RegionName]column
	Band         *column // 侧栏底色，每页都会绘制
	Top          float64
	Bottom       float64
	CenterHeader bool
	InlineHeader bool // 联系方式合并为一行，用 " | " 分隔
}

// ModernStyle is a tinted sidebar (one third) next to the main column.
func ModernStyle() Style {
	sidebar := column{Left: 0, Right: PageWidth / 3}
	return Style{
		Variant: "modern",
		Columns: map[layout.RegionName]column{
			layout.RegionSidebar: {Left: sidebar.Left + 10.8, Right: sidebar.Right - 10.8},
			layout.RegionMain:    {Left: sidebar.Right + 14.4, Right: PageWidth - 14.4},
		},
		Band:         &sidebar,
		Top:          14.4,
		Bottom:       18,
		CenterHeader: true,
	}
}

// ClassicStyle is a single centered column with half-inch margins.
func ClassicStyle() Style {
	return Style{
		Variant: "classic",
		Columns: map[layout.RegionName]column{
			layout.RegionMain: {Left: 36, Right: PageWidth - 36},
		},
		Top:          36,
		Bottom:       36,
		CenterHeader: true,
		InlineHeader: true,
	}
}

// Renderer draws a layout tree with one Style.
type Renderer struct {
	style Style
}

// New returns a renderer for style.
func New(style Style) Renderer {
	return Renderer{style: style}
}

// Variant names the template variant the renderer draws.
func (r Renderer) Variant() string { return r.style.Variant }

// Render 绘制整棵版面树并返回实际输出的分区顺序。
// 各区域都从第一页顶部开始各自排版，溢出时沿用已有页面，页数不够才新增。
func (r Renderer) Render(doc *Document, t layout.Tree) ([]resume.SectionKey, error) {
	pdf := doc.PDF
	d := &drawer{doc: doc, accent: rgbOf(t.Accent), accentHex: t.Accent, top: r.style.Top}

	if band := r.style.Band; band != nil {
		tint := tintOf(t.Accent, 0.08)
		pdf.SetHeaderFunc(func() {
			pdf.SetFillColor(tint.r, tint.g, tint.b)
			pdf.Rect(band.Left, 0, band.width(), PageHeight, "F")
		})
	}
	pdf.SetAcceptPageBreakFunc(func() bool {
		if pdf.PageNo() < pdf.PageCount() {
			x := pdf.GetX()
			pdf.SetPage(pdf.PageNo() + 1)
			pdf.SetXY(x, d.top)
			return false
		}
		return true
	})
	pdf.SetAutoPageBreak(true, r.style.Bottom)
	pdf.SetTopMargin(r.style.Top)
	pdf.AddPage()
	first := pdf.PageNo()

	var emitted []resume.SectionKey
	for _, region := range t.Regions {
		col, ok := r.style.Columns[region.Name]
		if !ok {
			return nil, fmt.Errorf("style %s has no column for region %s", r.style.Variant, region.Name)
		}
		pdf.SetPage(first)
		d.enter(col)

		if t.Header.Region == region.Name {
			d.header(t.Header, r.style)
		}
		if t.Summary.Region == region.Name && t.Summary.Text != "" {
			d.heading(t.Summary.Heading)
			d.paragraph(t.Summary.Text, "I", 9, 11, "L", ink)
			d.gap(8)
		}
		for _, sec := range region.Sections {
			d.section(sec)
			emitted = append(emitted, sec.Key)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("draw region %s: %w", region.Name, err)
		}
	}
	pdf.SetPage(pdf.PageCount())
	return emitted, nil
}
