package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

type stubClient struct {
	out    string
	err    error
	prompt string
	before func()
}

func (s *stubClient) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.before != nil {
		s.before()
	}
	return s.out, s.err
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.NewMemoryPersister(), "enhance-test", nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestParseTarget(t *testing.T) {
	tgt, err := ParseTarget("summary")
	require.NoError(t, err)
	assert.Equal(t, "summary", tgt.String())
	assert.Equal(t, "summary", tgt.path())

	tgt, err = ParseTarget("experience.exp1")
	require.NoError(t, err)
	assert.Equal(t, Target{Section: resume.SectionExperience, ID: "exp1"}, tgt)
	assert.Equal(t, "experience.exp1.description", tgt.path())

	for _, bad := range []string{"", "skills.s1", "experience", "experience.", "personal.name"} {
		_, err := ParseTarget(bad)
		assert.ErrorIs(t, err, ErrUnknownTarget, bad)
	}
}

func TestPrompts(t *testing.T) {
	assert.Contains(t, Prompt("x", ModeDescription), "Use 2-4 bullet points, starting each with '• '")
	assert.Contains(t, Prompt("x", ModeDescription), `Original description: "x"`)
	assert.Contains(t, Prompt("y", ModeSummary), `Original summary: "y"`)
}

func TestEnhanceDescriptionApplied(t *testing.T) {
	s := openStore(t)
	client := &stubClient{out: "• Shipped features\n• Led reviews"}
	e := New(client, nil)

	res, err := e.Enhance(context.Background(), "s1", s, Target{Section: resume.SectionExperience, ID: "exp1"}, ModeDescription)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Contains(t, client.prompt, "Developed and maintained front-end features")

	exp := s.Snapshot().Experience[0]
	assert.Equal(t, resume.Lines{"Shipped features", "Led reviews"}, exp.Description)
}

func TestEnhanceSummary(t *testing.T) {
	s := openStore(t)
	e := New(&stubClient{out: "Sharper summary."}, nil)
	res, err := e.Enhance(context.Background(), "s1", s, Target{}, ModeSummary)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "Sharper summary.", s.Snapshot().Summary)
}

func TestEnhanceFailuresKeepOriginal(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	original := s.Snapshot().Summary

	res, err := New(&stubClient{err: errors.New("timeout")}, nil).Enhance(ctx, "s1", s, Target{}, ModeSummary)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, MsgFailed, res.Message)

	res, err = New(&stubClient{err: ErrEmptyResponse}, nil).Enhance(ctx, "s1", s, Target{}, ModeSummary)
	require.NoError(t, err)
	assert.Equal(t, MsgNoText, res.Message)
	assert.Equal(t, original, s.Snapshot().Summary)

	require.NoError(t, s.UpdateField(ctx, "summary", "   "))
	client := &stubClient{out: "never"}
	res, err = New(client, nil).Enhance(ctx, "s1", s, Target{}, ModeSummary)
	require.NoError(t, err)
	assert.Equal(t, MsgEmptyInput, res.Message)
	assert.Empty(t, client.prompt)

	_, err = New(nil, nil).Enhance(ctx, "s1", s, Target{}, ModeSummary)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestEnhanceDiscardsResultForRemovedItem(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	client := &stubClient{out: "• new text"}
	client.before = func() {
		require.NoError(t, s.RemoveListItem(ctx, resume.SectionProjects, "proj1"))
	}

	res, err := New(client, nil).Enhance(ctx, "s1", s, Target{Section: resume.SectionProjects, ID: "proj1"}, ModeDescription)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, MsgDiscarded, res.Message)
	assert.Empty(t, s.Snapshot().Projects)

	_, err = New(client, nil).Enhance(ctx, "s1", s, Target{Section: resume.SectionProjects, ID: "missing"}, ModeDescription)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestEnhanceBusyGuard(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	var e *Enhancer

	var inner error
	client := &stubClient{out: "Better."}
	client.before = func() {
		client.before = nil
		_, inner = e.Enhance(ctx, "s1", s, Target{}, ModeSummary)
		// 其他会话不受影响
		res, err := e.Enhance(ctx, "s2", s, Target{}, ModeSummary)
		assert.NoError(t, err)
		assert.True(t, res.Applied)
	}
	e = New(client, nil)

	res, err := e.Enhance(ctx, "s1", s, Target{}, ModeSummary)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.ErrorIs(t, inner, ErrBusy)

	_, err = e.Enhance(ctx, "s1", s, Target{}, ModeSummary)
	assert.NoError(t, err)
}

func TestHTTPClientRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.Agent)
		assert.Equal(t, "hello", req.Input)

		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Output: "  improved  "})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second, 3, nil)
	c.backoff = time.Millisecond
	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "improved", out)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPClientGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(chatResponse{Output: " "})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, 2, nil)
	c.backoff = time.Millisecond
	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
