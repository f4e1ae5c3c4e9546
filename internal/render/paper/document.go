// Package paper 把版面树绘制为固定尺寸（US Letter）的 PDF 页面。
package paper

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// US Letter in points.
const (
	PageWidth  = 612.0
	PageHeight = 792.0
)

// Meta is written into the PDF information dictionary.
type Meta struct {
	Title   string
	Author  string
	Subject string
	Creator string
	Created time.Time
}

// Document wraps a gofpdf document together with its installed fonts.
type Document struct {
	PDF    *gofpdf.Fpdf
	family string
	utf8   bool
	tr     func(string) string
}

// NewDocument creates an empty Letter-sized document with metadata and
// fonts installed.
func NewDocument(meta Meta, fs FontSet) *Document {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator(meta.Creator, true)
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
		pdf.SetModificationDate(meta.Created)
	}

	doc := &Document{PDF: pdf, family: fs.Family, utf8: fs.UTF8}
	doc.tr = fs.install(pdf)
	if doc.tr == nil {
		doc.family, doc.utf8 = CoreFamily, false
		doc.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	return doc
}

// Family returns the font family in use.
func (d *Document) Family() string { return d.family }

// Pages returns the number of pages drawn so far.
func (d *Document) Pages() int { return d.PDF.PageCount() }

// Bytes closes the document and returns its encoded form.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Output closes the document and writes it to w.
func (d *Document) Output(w io.Writer) error {
	if err := d.PDF.Output(w); err != nil {
		return fmt.Errorf("encode pdf: %w", err)
	}
	return nil
}
