package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prateekraiger/buildmeCV/internal/resume"
)

// UpdateField 按点分路径更新单个字段，例如 "personal.name"、"summary"、
// "accentColor"，或列表条目字段 "experience.<id>.description"。
// 未知路径返回 ErrUnknownField，类型不匹配返回 ErrInvalidValue。
func (s *Store) UpdateField(ctx context.Context, path string, value any) error {
	parts := strings.Split(path, ".")
	switch {
	case len(parts) == 2 && parts[0] == "personal":
		str, err := stringValue(path, value)
		if err != nil {
			return err
		}
		setter, ok := personalSetters[parts[1]]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return s.mutate(ctx, func(d *resume.ResumeData) error {
			setter(&d.Personal, str)
			return nil
		})
	case len(parts) == 1:
		return s.updateTopLevel(ctx, path, value)
	case len(parts) == 3:
		ops, ok := sections[resume.SectionKey(parts[0])]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return s.mutate(ctx, func(d *resume.ResumeData) error {
			return ops.setField(d, parts[1], parts[2], value)
		})
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, path)
}

func (s *Store) updateTopLevel(ctx context.Context, path string, value any) error {
	switch path {
	case "summary":
		str, err := stringValue(path, value)
		if err != nil {
			return err
		}
		return s.mutate(ctx, func(d *resume.ResumeData) error {
			d.Summary = str
			return nil
		})
	case "accentColor":
		str, err := stringValue(path, value)
		if err != nil {
			return err
		}
		return s.SetAccentColor(ctx, str)
	case "template":
		str, err := stringValue(path, value)
		if err != nil {
			return err
		}
		return s.SetTemplate(ctx, resume.TemplateKey(str))
	case "sectionOrder":
		order, err := orderValue(value)
		if err != nil {
			return err
		}
		return s.mutate(ctx, func(d *resume.ResumeData) error {
			d.SectionOrder = order
			return nil
		})
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, path)
}

var personalSetters = map[string]func(p *resume.Personal, v string){
	"name":      func(p *resume.Personal, v string) { p.Name = v },
	"title":     func(p *resume.Personal, v string) { p.Title = v },
	"email":     func(p *resume.Personal, v string) { p.Email = v },
	"phone":     func(p *resume.Personal, v string) { p.Phone = v },
	"location":  func(p *resume.Personal, v string) { p.Location = v },
	"linkedin":  func(p *resume.Personal, v string) { p.LinkedIn = v },
	"website":   func(p *resume.Personal, v string) { p.Website = v },
	"portfolio": func(p *resume.Personal, v string) { p.Portfolio = v },
	"github":    func(p *resume.Personal, v string) { p.GitHub = v },
}

func stringValue(path string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, path, value)
}

// orderValue 要求传入的是五个分区的完整排列。
func orderValue(value any) ([]resume.SectionKey, error) {
	var keys []string
	switch v := value.(type) {
	case []string:
		keys = v
	case []resume.SectionKey:
		for _, k := range v {
			keys = append(keys, string(k))
		}
	case []any:
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: sectionOrder entries must be strings", ErrInvalidValue)
			}
			keys = append(keys, str)
		}
	default:
		return nil, fmt.Errorf("%w: sectionOrder expects a list, got %T", ErrInvalidValue, value)
	}

	order := make([]resume.SectionKey, 0, len(keys))
	seen := map[resume.SectionKey]bool{}
	for _, k := range keys {
		key := resume.SectionKey(k)
		if !key.Valid() || seen[key] {
			return nil, fmt.Errorf("%w: sectionOrder entry %q", ErrInvalidValue, k)
		}
		seen[key] = true
		order = append(order, key)
	}
	if len(order) != len(resume.CanonicalOrder) {
		return nil, fmt.Errorf("%w: sectionOrder must list every section once", ErrInvalidValue)
	}
	return order, nil
}

// AddListItem decodes item into the section's entry type, assigns an id when
// it has none (or a colliding one) and appends it. It returns the entry id.
func (s *Store) AddListItem(ctx context.Context, section resume.SectionKey, item json.RawMessage) (string, error) {
	ops, ok := sections[section]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	var id string
	err := s.mutate(ctx, func(d *resume.ResumeData) error {
		var err error
		id, err = ops.add(d, item)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateListItem replaces the entry with the given id.
func (s *Store) UpdateListItem(ctx context.Context, section resume.SectionKey, id string, item json.RawMessage) error {
	ops, ok := sections[section]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		return ops.update(d, id, item)
	})
}

// RemoveListItem deletes the entry with the given id.
func (s *Store) RemoveListItem(ctx context.Context, section resume.SectionKey, id string) error {
	ops, ok := sections[section]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	return s.mutate(ctx, func(d *resume.ResumeData) error {
		return ops.remove(d, id)
	})
}
