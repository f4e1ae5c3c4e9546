package store

import (
	"encoding/json"
	"fmt"

	"github.com/prateekraiger/buildmeCV/internal/resume"
)

type sectionOps struct {
	add      func(d *resume.ResumeData, raw json.RawMessage) (string, error)
	update   func(d *resume.ResumeData, id string, raw json.RawMessage) error
	remove   func(d *resume.ResumeData, id string) error
	setField func(d *resume.ResumeData, id, field string, value any) error
}

var sections = map[resume.SectionKey]sectionOps{
	resume.SectionExperience: listOps(resume.SectionExperience,
		func(d *resume.ResumeData) *[]resume.Experience { return &d.Experience },
		map[string]string{"title": "role"}),
	resume.SectionEducation: listOps(resume.SectionEducation,
		func(d *resume.ResumeData) *[]resume.Education { return &d.Education }, nil),
	resume.SectionProjects: listOps(resume.SectionProjects,
		func(d *resume.ResumeData) *[]resume.Project { return &d.Projects },
		map[string]string{"title": "name"}),
	resume.SectionSkills: listOps(resume.SectionSkills,
		func(d *resume.ResumeData) *[]resume.Skill { return &d.Skills }, nil),
	resume.SectionAchievements: listOps(resume.SectionAchievements,
		func(d *resume.ResumeData) *[]resume.Achievement { return &d.Achievements }, nil),
}

// listOps 为一种列表条目类型生成增删改操作。aliases 把旧字段名映射到当前字段名。
func listOps[T any, PT interface {
	*T
	resume.Item
}](key resume.SectionKey, list func(*resume.ResumeData) *[]T, aliases map[string]string) sectionOps {
	find := func(items []T, id string) int {
		for i := range items {
			if PT(&items[i]).ItemID() == id {
				return i
			}
		}
		return -1
	}
	decode := func(raw json.RawMessage) (T, error) {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return item, fmt.Errorf("%w: %s item: %v", ErrInvalidValue, key, err)
		}
		return item, nil
	}

	return sectionOps{
		add: func(d *resume.ResumeData, raw json.RawMessage) (string, error) {
			item, err := decode(raw)
			if err != nil {
				return "", err
			}
			items := list(d)
			id := PT(&item).ItemID()
			if id == "" || find(*items, id) >= 0 {
				id = resume.NewID(key.IDPrefix())
				PT(&item).SetItemID(id)
			}
			*items = append(*items, item)
			return id, nil
		},
		update: func(d *resume.ResumeData, id string, raw json.RawMessage) error {
			items := list(d)
			idx := find(*items, id)
			if idx < 0 {
				return fmt.Errorf("%w: %s %q", ErrItemNotFound, key, id)
			}
			item, err := decode(raw)
			if err != nil {
				return err
			}
			PT(&item).SetItemID(id)
			(*items)[idx] = item
			return nil
		},
		remove: func(d *resume.ResumeData, id string) error {
			items := list(d)
			idx := find(*items, id)
			if idx < 0 {
				return fmt.Errorf("%w: %s %q", ErrItemNotFound, key, id)
			}
			*items = append((*items)[:idx], (*items)[idx+1:]...)
			return nil
		},
		setField: func(d *resume.ResumeData, id, field string, value any) error {
			items := list(d)
			idx := find(*items, id)
			if idx < 0 {
				return fmt.Errorf("%w: %s %q", ErrItemNotFound, key, id)
			}
			if alias, ok := aliases[field]; ok {
				field = alias
			}
			fields, err := toFieldMap(&(*items)[idx])
			if err != nil {
				return err
			}
			if _, ok := fields[field]; !ok || field == "id" {
				return fmt.Errorf("%w: %s.%s", ErrUnknownField, key, field)
			}
			fields[field] = value
			for alias, canonical := range aliases {
				if canonical == field {
					delete(fields, alias)
				}
			}
			raw, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %v", ErrInvalidValue, key, field, err)
			}
			item, err := decode(raw)
			if err != nil {
				return err
			}
			(*items)[idx] = item
			return nil
		},
	}
}

func toFieldMap(item any) (map[string]any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return fields, nil
}
