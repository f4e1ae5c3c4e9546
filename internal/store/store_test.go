package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/resume"
)

func openStore(t *testing.T, p Persister) *Store {
	t.Helper()
	s, err := Open(context.Background(), p, StorageKey, nil)
	require.NoError(t, err)
	return s
}

func TestOpenEmptyYieldsDefault(t *testing.T) {
	s := openStore(t, NewMemoryPersister())
	assert.Equal(t, resume.Default(), s.Snapshot())
	assert.Equal(t, uint64(0), s.Version())
}

func TestOpenCorruptStorageFallsBack(t *testing.T) {
	for name, payload := range map[string]string{
		"garbage":    "not json at all {{{",
		"no resume":  `{"version":3}`,
		"bad shape":  `{"resume":{"sectionOrder":42}}`,
		"null":       `null`,
		"wrong type": `{"resume":"hello"}`,
	} {
		t.Run(name, func(t *testing.T) {
			p := NewMemoryPersister()
			require.NoError(t, p.Save(context.Background(), StorageKey, []byte(payload)))
			s := openStore(t, p)
			assert.Equal(t, resume.Default(), s.Snapshot())
		})
	}
}

func TestOpenReadsOlderEnvelope(t *testing.T) {
	p := NewMemoryPersister()
	old := `{"resume":{"personal":{"name":"Ann","email":"ann@x.com"},"experience":[{"id":"e1","title":"Dev","description":"• a\n• b"}],"sectionOrder":["skills"]},"version":7}`
	require.NoError(t, p.Save(context.Background(), StorageKey, []byte(old)))

	s := openStore(t, p)
	doc := s.Snapshot()
	assert.Equal(t, "Ann", doc.Personal.Name)
	assert.Equal(t, "", doc.Personal.GitHub)
	assert.Equal(t, "Dev", doc.Experience[0].Role)
	assert.Equal(t, resume.Lines{"a", "b"}, doc.Experience[0].Description)
	assert.Len(t, doc.SectionOrder, 5)
	assert.Equal(t, resume.SectionSkills, doc.SectionOrder[0])
	assert.Equal(t, uint64(7), s.Version())
}

func TestMutationsPersistInOrder(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	s := openStore(t, p)

	require.NoError(t, s.UpdateField(ctx, "personal.name", "Grace Hopper"))
	require.NoError(t, s.UpdateField(ctx, "summary", "Computer scientist and admiral."))

	reopened := openStore(t, p)
	doc := reopened.Snapshot()
	assert.Equal(t, "Grace Hopper", doc.Personal.Name)
	assert.Equal(t, "Computer scientist and admiral.", doc.Summary)
	assert.Equal(t, uint64(2), reopened.Version())
}

func TestSnapshotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())
	before := s.Snapshot()
	require.NoError(t, s.UpdateField(ctx, "skills."+before.Skills[0].ID+".name", "Go"))

	assert.Equal(t, "JavaScript", before.Skills[0].Name)
	assert.Equal(t, "Go", s.Snapshot().Skills[0].Name)

	before.Skills[1].Name = "mutated"
	assert.Equal(t, "TypeScript", s.Snapshot().Skills[1].Name)
}

func TestUpdateFieldErrors(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())

	assert.ErrorIs(t, s.UpdateField(ctx, "personal.shoeSize", "42"), ErrUnknownField)
	assert.ErrorIs(t, s.UpdateField(ctx, "nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, s.UpdateField(ctx, "a.b.c.d", "x"), ErrUnknownField)
	assert.ErrorIs(t, s.UpdateField(ctx, "personal.name", 12), ErrInvalidValue)
	assert.ErrorIs(t, s.UpdateField(ctx, "accentColor", "blue"), ErrInvalidValue)
	assert.ErrorIs(t, s.UpdateField(ctx, "template", "fancy"), ErrInvalidValue)
	assert.ErrorIs(t, s.UpdateField(ctx, "sectionOrder", []any{"skills"}), ErrInvalidValue)
	assert.ErrorIs(t, s.UpdateField(ctx, "experience.missing.role", "x"), ErrItemNotFound)
	assert.ErrorIs(t, s.UpdateField(ctx, "experience.exp1.salary", "x"), ErrUnknownField)
	assert.ErrorIs(t, s.UpdateField(ctx, "experience.exp1.id", "x"), ErrUnknownField)
	assert.Equal(t, uint64(0), s.Version())
}

func TestUpdateFieldListItemDescription(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())

	require.NoError(t, s.UpdateField(ctx, "experience.exp1.description", "• led team\n• shipped v2"))
	assert.Equal(t, resume.Lines{"led team", "shipped v2"}, s.Snapshot().Experience[0].Description)

	require.NoError(t, s.UpdateField(ctx, "experience.exp1.title", "Staff Engineer"))
	exp := s.Snapshot().Experience[0]
	assert.Equal(t, "Staff Engineer", exp.Role)
	assert.Equal(t, "Staff Engineer", exp.Title)
}

func TestUpdateFieldClearsAliasedFields(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())

	require.NoError(t, s.UpdateField(ctx, "experience.exp1.role", ""))
	require.NoError(t, s.UpdateField(ctx, "projects.proj1.name", ""))
	doc := s.Snapshot()
	assert.Equal(t, "", doc.Experience[0].Role)
	assert.Equal(t, "", doc.Experience[0].Title)
	assert.Equal(t, "", doc.Projects[0].Name)

	require.NoError(t, s.UpdateField(ctx, "experience.exp1.role", "Backend Engineer"))
	assert.Equal(t, "Backend Engineer", s.Snapshot().Experience[0].Title)

	// a full item echoing a stale title does not bring the old role back
	require.NoError(t, s.UpdateListItem(ctx, resume.SectionExperience, "exp1",
		json.RawMessage(`{"title":"Software Engineering Intern","role":"","company":"ACME"}`)))
	exp := s.Snapshot().Experience[0]
	assert.Equal(t, "", exp.Role)
	assert.Equal(t, "ACME", exp.Company)

	reopened := openStore(t, s.persister)
	assert.Equal(t, "", reopened.Snapshot().Experience[0].Role)
}

func TestUpdateFieldSectionOrder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())
	order := []any{"skills", "projects", "education", "experience", "achievements"}
	require.NoError(t, s.UpdateField(ctx, "sectionOrder", order))
	assert.Equal(t, []resume.SectionKey{"skills", "projects", "education", "experience", "achievements"}, s.Snapshot().SectionOrder)
}

func TestListItemLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())

	id, err := s.AddListItem(ctx, resume.SectionSkills, json.RawMessage(`{"name":"Go"}`))
	require.NoError(t, err)
	assert.Regexp(t, `^skill-\d+-[0-9a-f]{8}$`, id)

	// colliding ids are replaced
	dup, err := s.AddListItem(ctx, resume.SectionSkills, json.RawMessage(`{"id":"skill1","name":"Rust"}`))
	require.NoError(t, err)
	assert.NotEqual(t, "skill1", dup)

	require.NoError(t, s.UpdateListItem(ctx, resume.SectionSkills, id, json.RawMessage(`{"name":"Golang"}`)))
	skills := s.Snapshot().Skills
	assert.Equal(t, "Golang", skills[len(skills)-2].Name)
	assert.Equal(t, id, skills[len(skills)-2].ID)

	require.NoError(t, s.RemoveListItem(ctx, resume.SectionSkills, id))
	assert.Len(t, s.Snapshot().Skills, 7)

	assert.ErrorIs(t, s.RemoveListItem(ctx, resume.SectionSkills, id), ErrItemNotFound)
	assert.ErrorIs(t, s.UpdateListItem(ctx, resume.SectionSkills, id, json.RawMessage(`{}`)), ErrItemNotFound)
	_, err = s.AddListItem(ctx, "hobbies", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownSection)
	_, err = s.AddListItem(ctx, resume.SectionSkills, json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestAddExperienceNormalizesDescription(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())
	id, err := s.AddListItem(ctx, resume.SectionExperience, json.RawMessage(`{"title":"Intern","company":"ACME","description":"• one\n• two"}`))
	require.NoError(t, err)

	doc := s.Snapshot()
	last := doc.Experience[len(doc.Experience)-1]
	assert.Equal(t, id, last.ID)
	assert.Equal(t, "Intern", last.Role)
	assert.Equal(t, resume.Lines{"one", "two"}, last.Description)
}

func TestMoveSectionBoundaries(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())
	original := s.Snapshot().SectionOrder

	require.NoError(t, s.MoveSection(ctx, resume.SectionExperience, Up))
	assert.Equal(t, original, s.Snapshot().SectionOrder)
	require.NoError(t, s.MoveSection(ctx, resume.SectionAchievements, Down))
	assert.Equal(t, original, s.Snapshot().SectionOrder)
	assert.Equal(t, uint64(0), s.Version())

	require.NoError(t, s.MoveSection(ctx, resume.SectionExperience, Down))
	assert.Equal(t, []resume.SectionKey{"education", "experience", "projects", "skills", "achievements"}, s.Snapshot().SectionOrder)

	assert.ErrorIs(t, s.MoveSection(ctx, resume.SectionSkills, "sideways"), ErrInvalidDirection)
	assert.ErrorIs(t, s.MoveSection(ctx, "hobbies", Up), ErrUnknownSection)
}

func TestResetAndTemplate(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())
	require.NoError(t, s.SetTemplate(ctx, resume.TemplateClassic))
	require.NoError(t, s.SetAccentColor(ctx, "#1E40AF"))
	doc := s.Snapshot()
	assert.Equal(t, resume.TemplateClassic, doc.Template)
	assert.Equal(t, "#1e40af", doc.AccentColor)

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, resume.Default(), s.Snapshot())
	assert.Equal(t, 100, s.Completion())
}

func TestSubscribeReceivesVersions(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, NewMemoryPersister())
	var got []uint64
	var names []string
	unsubscribe := s.Subscribe(func(doc resume.ResumeData, version uint64) {
		got = append(got, version)
		names = append(names, doc.Personal.Name)
	})

	require.NoError(t, s.UpdateField(ctx, "personal.name", "A"))
	require.NoError(t, s.UpdateField(ctx, "personal.name", "B"))
	unsubscribe()
	require.NoError(t, s.UpdateField(ctx, "personal.name", "C"))

	assert.Equal(t, []uint64{1, 2}, got)
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	s := openStore(t, NewMemoryPersister())
	s.Close()
	assert.ErrorIs(t, s.Reset(context.Background()), ErrClosed)
}

type failingPersister struct{ *MemoryPersister }

func (failingPersister) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	s := openStore(t, failingPersister{NewMemoryPersister()})
	require.NoError(t, s.UpdateField(context.Background(), "summary", "still applied"))
	assert.Equal(t, "still applied", s.Snapshot().Summary)
}

func TestRegistryCachesPerSession(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	r := NewRegistry(p, nil)
	opened := 0
	r.OnOpen(func(string, *Store) { opened++ })

	a, err := r.Get(ctx, "a")
	require.NoError(t, err)
	again, err := r.Get(ctx, "a")
	require.NoError(t, err)
	b, err := r.Get(ctx, "b")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, opened)
	assert.Equal(t, StorageKey+":a", a.Key())

	require.NoError(t, a.UpdateField(ctx, "personal.name", "Session A"))
	r.Evict("a")
	_, ok := r.Lookup("a")
	assert.False(t, ok)

	reopened, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Session A", reopened.Snapshot().Personal.Name)
	assert.Equal(t, "Jane Doe", b.Snapshot().Personal.Name)
}

type fakeRedis struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisPersister(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
	p := NewRedisPersister(fake, time.Hour)

	_, err := p.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.Save(ctx, "k", []byte(`{"a":1}`)))
	got, err := p.Load(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
	assert.Equal(t, time.Hour, fake.ttls["k"])

	require.NoError(t, p.Delete(ctx, "k"))
	_, err = p.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormPersister(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	p := NewGormPersister(db)

	_, err = p.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := Open(ctx, p, "k", nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateField(ctx, "personal.name", "First"))
	require.NoError(t, s.UpdateField(ctx, "personal.name", "Second"))

	var count int64
	require.NoError(t, db.Model(&database.Document{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	reopened, err := Open(ctx, p, "k", nil)
	require.NoError(t, err)
	assert.Equal(t, "Second", reopened.Snapshot().Personal.Name)

	require.NoError(t, p.Delete(ctx, "k"))
	_, err = p.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
