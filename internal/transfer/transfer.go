// Package transfer 负责简历数据文件的导入导出与重置。
package transfer

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

// ContentTypeJSON is the MIME type of exported data files.
const ContentTypeJSON = "application/json"

var (
	// ErrInvalidFile 导入文件无法解析或结构不符合要求，Store 保持不变。
	ErrInvalidFile = errors.New("invalid resume data file")
	// ErrNotConfirmed is returned by Reset without explicit confirmation.
	ErrNotConfirmed = errors.New("reset requires confirmation")
)

//go:embed schema.json
var schemaJSON []byte

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("compile import schema: %v", err))
	}
	return s
}

// Export 返回格式化（两空格缩进）的 JSON 与下载文件名。
func Export(doc resume.ResumeData) (filename string, data []byte, err error) {
	data, err = json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode resume: %w", err)
	}
	return resume.DataFilename(doc.Personal.Name), data, nil
}

// Importer parses uploaded data files.
type Importer struct {
	maxBytes int64
	scanner  Scanner
}

// NewImporter returns an importer accepting at most maxBytes. scanner may be
// nil, in which case uploads are not scanned.
func NewImporter(maxBytes int64, scanner Scanner) *Importer {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Importer{maxBytes: maxBytes, scanner: scanner}
}

// Import reads, checks and normalizes a data file. Every rejection of the
// file's content wraps ErrInvalidFile; scanner outages are returned as-is.
func (i *Importer) Import(ctx context.Context, r io.Reader) (resume.ResumeData, error) {
	data, err := io.ReadAll(io.LimitReader(r, i.maxBytes+1))
	if err != nil {
		return resume.ResumeData{}, fmt.Errorf("read import file: %w", err)
	}
	if int64(len(data)) > i.maxBytes {
		return resume.ResumeData{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidFile, i.maxBytes)
	}
	if i.scanner != nil {
		if err := i.scanner.Scan(ctx, bytes.NewReader(data)); err != nil {
			return resume.ResumeData{}, err
		}
	}
	return Parse(data)
}

// Parse checks data against the import schema and decodes it.
func Parse(data []byte) (resume.ResumeData, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return resume.ResumeData{}, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// 非 JSON 内容在加载阶段就会失败
		return resume.ResumeData{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return resume.ResumeData{}, fmt.Errorf("%w: %s", ErrInvalidFile, strings.Join(msgs, "; "))
	}

	var doc resume.ResumeData
	if err := json.Unmarshal(data, &doc); err != nil {
		return resume.ResumeData{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return resume.Normalize(doc), nil
}

// ImportInto imports r and replaces the store's document. On any error the
// store is left untouched.
func (i *Importer) ImportInto(ctx context.Context, s *store.Store, r io.Reader) (resume.ResumeData, error) {
	doc, err := i.Import(ctx, r)
	if err != nil {
		return resume.ResumeData{}, err
	}
	if err := s.SetResume(ctx, doc); err != nil {
		return resume.ResumeData{}, fmt.Errorf("apply imported resume: %w", err)
	}
	return doc, nil
}

// Reset restores the default document once the caller confirmed it.
func Reset(ctx context.Context, s *store.Store, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return s.Reset(ctx)
}
