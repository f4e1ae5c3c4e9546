package paper

import (
	"strings"

	"github.com/prateekraiger/buildmeCV/internal/layout"
)

type rgb struct{ r, g, b int }

var (
	ink   = rgb{0x00, 0x30, 0x49}
	muted = rgb{0x66, 0x9b, 0xbc}
)

func rgbOf(hex string) rgb {
	r, g, b := layout.RGB(hex)
	return rgb{r, g, b}
}

func tintOf(hex string, alpha float64) rgb {
	r, g, b := layout.Tint(hex, alpha)
	return rgb{r, g, b}
}

// drawer 在当前列内顺序排版。每次输出前都会显式设置字体与颜色，
// 因为切换回较早的页面后，该页内容流里的图形状态与 gofpdf 记录的不一致。
type drawer struct {
	doc       *Document
	accent    rgb
	accentHex string
	col       column
	top       float64
}

func (d *drawer) enter(col column) {
	pdf := d.doc.PDF
	d.col = col
	pdf.SetLeftMargin(col.Left)
	pdf.SetRightMargin(PageWidth - col.Right)
	pdf.SetXY(col.Left, d.top)
}

func (d *drawer) font(style string, size float64, c rgb) {
	d.doc.PDF.SetFont(d.doc.family, style, size)
	d.doc.PDF.SetTextColor(c.r, c.g, c.b)
}

func (d *drawer) gap(h float64) {
	d.doc.PDF.Ln(h)
}

func (d *drawer) width(s string) float64 {
	return d.doc.PDF.GetStringWidth(d.doc.tr(s))
}

func (d *drawer) paragraph(text, style string, size, lineH float64, align string, c rgb) {
	d.font(style, size, c)
	d.doc.PDF.SetX(d.col.Left)
	d.doc.PDF.MultiCell(d.col.width(), lineH, d.doc.tr(text), "", align, false)
}

func (d *drawer) heading(text string) {
	pdf := d.doc.PDF
	d.font("B", 12, d.accent)
	pdf.SetX(d.col.Left)
	pdf.CellFormat(d.col.width(), 15, d.doc.tr(text), "", 1, "L", false, 0, "")
	y := pdf.GetY()
	pdf.SetDrawColor(d.accent.r, d.accent.g, d.accent.b)
	pdf.SetLineWidth(0.75)
	pdf.Line(d.col.Left, y, d.col.Right, y)
	d.gap(4)
}

func (d *drawer) header(h layout.Header, style Style) {
	pdf := d.doc.PDF
	align := "L"
	if style.CenterHeader {
		align = "C"
	}
	d.font("B", 18, d.accent)
	pdf.MultiCell(d.col.width(), 21, d.doc.tr(h.Name), "", align, false)
	if h.Title != "" {
		d.paragraph(h.Title, "", 11, 14, align, ink)
	}
	d.gap(6)

	if style.InlineHeader {
		values := make([]string, 0, len(h.Contacts))
		for _, c := range h.Contacts {
			values = append(values, c.Value)
		}
		if len(values) > 0 {
			d.paragraph(strings.Join(values, " | "), "", 9, 11, align, ink)
		}
		d.inlineLinks(h.Links, align)
		d.gap(10)
		return
	}

	for _, c := range h.Contacts {
		d.font("B", 8, d.accent)
		pdf.CellFormat(d.col.width(), 10, d.doc.tr(c.Label), "", 1, align, false, 0, "")
		d.paragraph(c.Value, "", 8, 10, align, ink)
		d.gap(3)
	}
	for _, l := range h.Links {
		d.font("B", 8, d.accent)
		pdf.CellFormat(d.col.width(), 10, d.doc.tr(l.Label), "", 1, align, false, 0, "")
		d.font("", 8, d.accent)
		pdf.CellFormat(d.col.width(), 10, d.doc.tr(l.Text), "", 1, align, false, 0, l.URL)
		d.gap(3)
	}
	d.gap(8)
}

// inlineLinks draws the links on one line separated by " | ", each clickable.
func (d *drawer) inlineLinks(links []layout.Link, align string) {
	if len(links) == 0 {
		return
	}
	pdf := d.doc.PDF
	const sep = " | "
	d.font("B", 9, d.accent)
	total := 0.0
	for i, l := range links {
		if i > 0 {
			total += d.width(sep)
		}
		total += d.width(l.Label)
	}
	x := d.col.Left
	if align == "C" && total < d.col.width() {
		x = d.col.Left + (d.col.width()-total)/2
	}
	pdf.SetX(x)
	for i, l := range links {
		if i > 0 {
			pdf.CellFormat(d.width(sep), 11, sep, "", 0, "L", false, 0, "")
		}
		pdf.CellFormat(d.width(l.Label), 11, d.doc.tr(l.Label), "", 0, "L", false, 0, l.URL)
	}
	pdf.Ln(11)
}

func (d *drawer) section(sec layout.Section) {
	d.heading(sec.Heading)
	switch sec.Kind {
	case layout.KindTags:
		d.tags(sec.Items)
	case layout.KindList:
		d.bullets(sec.Items, 8)
	default:
		for _, e := range sec.Entries {
			d.entry(e)
		}
	}
	d.gap(6)
}

func (d *drawer) entry(e layout.Entry) {
	pdf := d.doc.PDF
	right, rightURL := e.Dates, ""
	if e.Link != nil {
		right, rightURL = e.Link.Text, e.Link.URL
	}

	d.font("B", 10, ink)
	titleW := d.width(e.Title)
	rightW := 0.0
	if right != "" {
		d.font("I", 8, muted)
		rightW = d.width(right) + 4
	}
	pdf.SetX(d.col.Left)
	if titleW+rightW <= d.col.width() {
		d.font("B", 10, ink)
		pdf.CellFormat(d.col.width()-rightW, 13, d.doc.tr(e.Title), "", 0, "L", false, 0, "")
		d.rightCell(right, rightURL, rightW)
	} else {
		d.paragraph(e.Title, "B", 10, 13, "L", ink)
		if right != "" {
			pdf.SetX(d.col.Left)
			d.rightCell(right, rightURL, d.col.width())
		}
	}

	if e.Subtitle != "" {
		d.paragraph(e.Subtitle, "", 9, 11, "L", d.accent)
	}
	if e.Note != "" {
		d.paragraph(e.Note, "", 9, 11, "L", muted)
	}
	if len(e.Bullets) > 0 {
		d.gap(2)
		d.bullets(e.Bullets, 8)
	}
	d.gap(6)
}

// rightCell draws right-aligned text and ends the line.
func (d *drawer) rightCell(text, url string, w float64) {
	if text == "" {
		d.doc.PDF.CellFormat(w, 13, "", "", 1, "R", false, 0, "")
		return
	}
	c := muted
	if url != "" {
		c = d.accent
	}
	d.font("I", 8, c)
	d.doc.PDF.CellFormat(w, 13, d.doc.tr(text), "", 1, "R", false, 0, url)
}

// bullets draws one "•" marker per line with a hanging indent.
func (d *drawer) bullets(lines []string, size float64) {
	pdf := d.doc.PDF
	const indent = 9.0
	lineH := size + 2
	for _, line := range lines {
		d.font("", size, ink)
		pdf.SetX(d.col.Left)
		pdf.CellFormat(indent, lineH, d.doc.tr("•"), "", 0, "L", false, 0, "")
		pdf.MultiCell(d.col.width()-indent, lineH, d.doc.tr(line), "", "L", false)
	}
}

// tags draws skills as filled chips that wrap within the column.
func (d *drawer) tags(items []string) {
	pdf := d.doc.PDF
	const (
		size = 7.0
		padX = 4.0
		h    = 11.0
		gap  = 2.0
	)
	fill := tintOf(d.accentHex, 0.2)
	pdf.SetX(d.col.Left)
	for _, item := range items {
		d.font("", size, ink)
		w := d.width(item) + 2*padX
		if w > d.col.width() {
			w = d.col.width()
		}
		if pdf.GetX()+w > d.col.Right+0.01 {
			pdf.Ln(h + gap)
		}
		pdf.SetFillColor(fill.r, fill.g, fill.b)
		pdf.CellFormat(w, h, d.doc.tr(item), "", 0, "C", true, 0, "")
		pdf.SetX(pdf.GetX() + gap)
	}
	pdf.Ln(h + gap)
}
