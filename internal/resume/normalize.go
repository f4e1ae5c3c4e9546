package resume

import (
	"regexp"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidAccentColor reports whether c is a #rgb or #rrggbb color.
func ValidAccentColor(c string) bool {
	return hexColorPattern.MatchString(strings.TrimSpace(c))
}

// ValidTemplate reports whether k is a known template key.
func ValidTemplate(k TemplateKey) bool {
	return k == TemplateModern || k == TemplateClassic
}

// Normalize 修复结构问题并返回新文档，输入不会被修改。对已规范化的文档调用是无操作。
func Normalize(in ResumeData) ResumeData {
	d := in.Clone()

	d.Personal = trimPersonal(d.Personal)
	d.SectionOrder = NormalizeOrder(d.SectionOrder)
	if !ValidTemplate(d.Template) {
		d.Template = TemplateModern
	}
	if ValidAccentColor(d.AccentColor) {
		d.AccentColor = strings.ToLower(strings.TrimSpace(d.AccentColor))
	} else {
		d.AccentColor = DefaultAccentColor
	}

	for i := range d.Experience {
		e := &d.Experience[i]
		if e.ID == "" {
			e.ID = NewID("exp")
		}
		e.Title = e.Role
		e.Description = NormalizeLines(e.Description)
	}
	for i := range d.Education {
		if d.Education[i].ID == "" {
			d.Education[i].ID = NewID("edu")
		}
	}
	for i := range d.Projects {
		p := &d.Projects[i]
		if p.ID == "" {
			p.ID = NewID("proj")
		}
		p.Title = p.Name
		p.Description = NormalizeLines(p.Description)
	}
	for i := range d.Skills {
		if d.Skills[i].ID == "" {
			d.Skills[i].ID = NewID("skill")
		}
	}
	for i := range d.Achievements {
		if d.Achievements[i].ID == "" {
			d.Achievements[i].ID = NewID("ach")
		}
	}
	return d
}

// NormalizeOrder drops unknown and duplicate keys and appends any missing
// section in canonical order, so the result is always a permutation.
func NormalizeOrder(order []SectionKey) []SectionKey {
	seen := make(map[SectionKey]bool, len(CanonicalOrder))
	out := make([]SectionKey, 0, len(CanonicalOrder))
	for _, k := range order {
		if !k.Valid() || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	for _, k := range CanonicalOrder {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

func trimPersonal(p Personal) Personal {
	p.Name = strings.TrimSpace(p.Name)
	p.Title = strings.TrimSpace(p.Title)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Location = strings.TrimSpace(p.Location)
	p.LinkedIn = strings.TrimSpace(p.LinkedIn)
	p.Website = strings.TrimSpace(p.Website)
	p.Portfolio = strings.TrimSpace(p.Portfolio)
	p.GitHub = strings.TrimSpace(p.GitHub)
	return p
}

// Placeholders substituted by Sanitize when a required field is empty.
const (
	PlaceholderName     = "Your Name"
	PlaceholderTitle    = "Your Title"
	PlaceholderEmail    = "your.email@example.com"
	PlaceholderPhone    = "Your Phone"
	PlaceholderLocation = "Your Location"
)

// Sanitize 返回用于排版的防御性副本：必填字段为空时填入中性占位符，
// 描述字段统一为行列表。占位符只为保持版面有效，不代表用户数据。
func Sanitize(in ResumeData) ResumeData {
	d := Normalize(in)
	p := &d.Personal
	if p.Name == "" {
		p.Name = PlaceholderName
	}
	if p.Title == "" {
		p.Title = PlaceholderTitle
	}
	if p.Email == "" {
		p.Email = PlaceholderEmail
	}
	if p.Phone == "" {
		p.Phone = PlaceholderPhone
	}
	if p.Location == "" {
		p.Location = PlaceholderLocation
	}
	return d
}
