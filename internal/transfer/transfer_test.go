package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

func TestExportRoundTrip(t *testing.T) {
	doc := resume.Default()
	name, data, err := Export(doc)
	require.NoError(t, err)
	assert.Equal(t, "Jane_Doe_resume_data.json", name)
	assert.True(t, bytes.HasPrefix(data, []byte("{\n  \"personal\"")))

	back, err := NewImporter(0, nil).Import(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, resume.Normalize(doc), back)
}

func TestImportAcceptsLegacyShapes(t *testing.T) {
	raw := `{
		"personal": {"name": "Ann", "email": "a@b.c", "portfolioSection": {"url": "ann.dev"}},
		"sectionOrder": ["skills", "skills", "bogus"],
		"experience": [{"id": "e1", "title": "Dev", "description": "• one\n• two"}],
		"template": "unknown",
		"accentColor": "red"
	}`
	doc, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "ann.dev", doc.Personal.Portfolio)
	assert.Equal(t, resume.SectionSkills, doc.SectionOrder[0])
	assert.Len(t, doc.SectionOrder, 5)
	assert.Equal(t, "Dev", doc.Experience[0].Role)
	assert.Equal(t, resume.Lines{"one", "two"}, doc.Experience[0].Description)
	assert.Equal(t, resume.TemplateModern, doc.Template)
	assert.Equal(t, resume.DefaultAccentColor, doc.AccentColor)
	assert.NotNil(t, doc.Projects)
}

func TestImportRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"empty":          "   ",
		"not json":       "hello there",
		"array":          `[1, 2, 3]`,
		"no personal":    `{"sectionOrder": []}`,
		"no order":       `{"personal": {}}`,
		"personal type":  `{"personal": "Ann", "sectionOrder": []}`,
		"order type":     `{"personal": {}, "sectionOrder": "experience"}`,
		"list type":      `{"personal": {}, "sectionOrder": [], "skills": {"name": "Go"}}`,
		"truncated json": `{"personal": {"name": "Ann"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}

func TestImportSizeLimit(t *testing.T) {
	body := `{"personal": {}, "sectionOrder": [], "summary": "` + strings.Repeat("x", 200) + `"}`
	_, err := NewImporter(64, nil).Import(context.Background(), strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = NewImporter(1024, nil).Import(context.Background(), strings.NewReader(body))
	assert.NoError(t, err)
}

func TestImportIntoLeavesStoreUntouchedOnFailure(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.NewMemoryPersister(), "transfer-test", nil)
	require.NoError(t, err)
	defer s.Close()

	before, version := s.Snapshot(), s.Version()
	_, err = NewImporter(0, nil).ImportInto(ctx, s, strings.NewReader(`{"broken":`))
	require.ErrorIs(t, err, ErrInvalidFile)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, version, s.Version())

	doc, err := NewImporter(0, nil).ImportInto(ctx, s, strings.NewReader(`{"personal": {"name": "Imported"}, "sectionOrder": []}`))
	require.NoError(t, err)
	assert.Equal(t, "Imported", doc.Personal.Name)
	assert.Equal(t, "Imported", s.Snapshot().Personal.Name)
	assert.Equal(t, version+1, s.Version())
}

type fakeScanner struct{ err error }

func (f fakeScanner) Scan(_ context.Context, r io.Reader) error {
	if _, err := io.ReadAll(r); err != nil {
		return err
	}
	return f.err
}

func TestImportScansUploads(t *testing.T) {
	body := `{"personal": {}, "sectionOrder": []}`

	_, err := NewImporter(0, fakeScanner{err: ErrInfected}).Import(context.Background(), strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInfected)
	assert.False(t, errors.Is(err, ErrInvalidFile))

	_, err = NewImporter(0, fakeScanner{}).Import(context.Background(), strings.NewReader(body))
	assert.NoError(t, err)

	assert.Nil(t, NewClamdScanner(""))
	assert.NotNil(t, NewClamdScanner("tcp://127.0.0.1:3310"))
}

func TestResetRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.NewMemoryPersister(), "reset-test", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.UpdateField(ctx, "personal.name", "Changed"))
	assert.ErrorIs(t, Reset(ctx, s, false), ErrNotConfirmed)
	assert.Equal(t, "Changed", s.Snapshot().Personal.Name)

	require.NoError(t, Reset(ctx, s, true))
	assert.Equal(t, resume.Default(), s.Snapshot())
}
