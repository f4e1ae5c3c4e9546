package paper

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// CoreFamily is the built-in PDF font used when no TTF could be loaded.
const CoreFamily = "Helvetica"

// FontSet 描述文档使用的字体族。UTF8 为 false 时使用内置 Helvetica，
// 文本会先经过 cp1252 转换。
type FontSet struct {
	Family  string
	UTF8    bool
	regular []byte
	bold    []byte
	italic  []byte
}

var (
	fontsOnce sync.Once
	fonts     FontSet
)

// RegisterFonts loads the TTF family in dir once per process. Later calls
// return the first result regardless of dir. Missing or unreadable files
// degrade to the core Helvetica family.
func RegisterFonts(dir string) FontSet {
	fontsOnce.Do(func() {
		fs, err := LoadFonts(dir)
		if err != nil {
			slog.Warn("pdf fonts unavailable, using core font",
				slog.String("dir", dir),
				slog.Any("error", err),
			)
		}
		fonts = fs
	})
	return fonts
}

// LoadFonts looks for "<Family>-Regular.ttf" in dir together with optional
// "-Bold" and "-Italic" siblings. On any failure it returns the core set and
// the error.
func LoadFonts(dir string) (FontSet, error) {
	core := FontSet{Family: CoreFamily}
	if dir == "" {
		return core, errors.New("no font directory configured")
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*-Regular.ttf"))
	if err != nil {
		return core, fmt.Errorf("glob fonts: %w", err)
	}
	if len(matches) == 0 {
		return core, fmt.Errorf("no *-Regular.ttf in %s", dir)
	}
	regularPath := matches[0]
	family := strings.TrimSuffix(filepath.Base(regularPath), "-Regular.ttf")

	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return core, fmt.Errorf("read %s: %w", regularPath, err)
	}
	fs := FontSet{Family: family, UTF8: true, regular: regular, bold: regular, italic: regular}
	if b, err := os.ReadFile(filepath.Join(dir, family+"-Bold.ttf")); err == nil {
		fs.bold = b
	}
	if b, err := os.ReadFile(filepath.Join(dir, family+"-Italic.ttf")); err == nil {
		fs.italic = b
	}
	return fs, nil
}

// install registers the set on pdf and returns the text translator.
func (fs FontSet) install(pdf *gofpdf.Fpdf) func(string) string {
	if !fs.UTF8 {
		return pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddUTF8FontFromBytes(fs.Family, "", fs.regular)
	pdf.AddUTF8FontFromBytes(fs.Family, "B", fs.bold)
	pdf.AddUTF8FontFromBytes(fs.Family, "I", fs.italic)
	if pdf.Err() {
		// 字体文件损坏时回退到内置字体，而不是让整份文档失败。
		pdf.ClearError()
		return nil
	}
	return func(s string) string { return s }
}
