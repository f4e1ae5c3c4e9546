// Package enhance 调用外部 AI 润色摘要与条目描述，并把结果写回 Store。
// AI 失败不影响简历：原文保持不变，只返回提示信息。
package enhance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
)

// Mode selects the prompt.
type Mode string

const (
	ModeDescription Mode = "description"
	ModeSummary     Mode = "summary"
)

// 返回给用户的提示
const (
	MsgEmptyInput = "Please enter some text first."
	MsgNoText     = "AI did not return any text. Please try again."
	MsgFailed     = "Failed to enhance text. Please try again."
	MsgDiscarded  = "The item was removed before enhancement finished."
)

var (
	// ErrBusy 表示同一目标已有润色请求在进行中；不排队。
	ErrBusy          = errors.New("enhancement already in progress")
	ErrUnknownTarget = errors.New("unknown enhancement target")
	ErrDisabled      = errors.New("ai enhancement is not configured")
)

// Prompt builds the collaborator prompt for text.
func Prompt(text string, mode Mode) string {
	if mode == ModeSummary {
		return fmt.Sprintf("Rewrite the following professional summary to be more compelling and concise for a resume. Focus on key strengths and career aspirations. Original summary: \"%s\"", text)
	}
	return fmt.Sprintf("Rewrite the following resume description to be more professional and achievement-oriented. Use 2-4 bullet points, starting each with '• '. Original description: \"%s\"", text)
}

// Target addresses an enhanceable field: "summary" or "<section>.<id>"
// for experience and project descriptions.
type Target struct {
	Section resume.SectionKey
	ID      string
}

// ParseTarget parses the wire form of a target.
func ParseTarget(s string) (Target, error) {
	if s == "summary" {
		return Target{}, nil
	}
	section, id, ok := strings.Cut(s, ".")
	if !ok || id == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
	}
	switch resume.SectionKey(section) {
	case resume.SectionExperience, resume.SectionProjects:
		return Target{Section: resume.SectionKey(section), ID: id}, nil
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

func (t Target) String() string {
	if t.Section == "" {
		return "summary"
	}
	return string(t.Section) + "." + t.ID
}

// path is the store field path the result is written to.
func (t Target) path() string {
	if t.Section == "" {
		return "summary"
	}
	return t.String() + ".description"
}

// text reads the current text of the target from doc.
func (t Target) text(doc resume.ResumeData) (string, error) {
	switch t.Section {
	case "":
		return doc.Summary, nil
	case resume.SectionExperience:
		for _, e := range doc.Experience {
			if e.ID == t.ID {
				return e.Description.String(), nil
			}
		}
	case resume.SectionProjects:
		for _, p := range doc.Projects {
			if p.ID == t.ID {
				return p.Description.String(), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", store.ErrItemNotFound, t)
}

// Guard 记录正在进行的润色请求，按 (会话, 目标) 去重。
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: map[string]struct{}{}}
}

// Acquire marks key busy. It fails with ErrBusy if key is already held.
func (g *Guard) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, ErrBusy
	}
	g.inflight[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
	}, nil
}

// Result reports what happened to one enhancement request.
type Result struct {
	Applied bool   `json:"applied"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// Enhancer runs guarded enhancements against session stores.
type Enhancer struct {
	client Client
	guard  *Guard
	logger *slog.Logger
}

// New returns an enhancer. A nil client disables enhancement.
func New(client Client, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{client: client, guard: NewGuard(), logger: logger}
}

// Enhance 读取目标原文，调用 AI，并在目标仍存在时写回结果。
// 返回 error 仅限调用方错误（目标未知/忙/未配置）；AI 本身的失败体现在 Result 中。
func (e *Enhancer) Enhance(ctx context.Context, sessionID string, s *store.Store, target Target, mode Mode) (Result, error) {
	if e.client == nil {
		return Result{}, ErrDisabled
	}
	release, err := e.guard.Acquire(sessionID + "|" + target.String())
	if err != nil {
		return Result{}, err
	}
	defer release()

	original, err := target.text(s.Snapshot())
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(original) == "" {
		return Result{Message: MsgEmptyInput}, nil
	}

	log := e.logger.With(slog.String("session_id", sessionID), slog.String("target", target.String()))
	text, err := e.client.Complete(ctx, Prompt(original, mode))
	if err != nil {
		log.Warn("ai enhancement failed", slog.Any("error", err))
		if errors.Is(err, ErrEmptyResponse) {
			return Result{Message: MsgNoText}, nil
		}
		return Result{Message: MsgFailed}, nil
	}

	if err := s.UpdateField(ctx, target.path(), text); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			log.Info("enhanced item removed meanwhile, result discarded")
			return Result{Message: MsgDiscarded}, nil
		}
		return Result{}, fmt.Errorf("apply enhancement: %w", err)
	}
	return Result{Applied: true, Text: text}, nil
}
