package layout

import (
	"strings"

	"github.com/prateekraiger/buildmeCV/internal/resume"
)

// Arrangement 描述模板的区域划分：每个区域收纳哪些分区，抬头与摘要放在哪个区域。
// 区域内部的分区顺序始终跟随文档的 sectionOrder。
type Arrangement struct {
	Regions        []RegionSpec
	HeaderRegion   RegionName
	SummaryRegion  RegionName
	SummaryHeading string
}

// RegionSpec lists the sections a region accepts.
type RegionSpec struct {
	Name     RegionName
	Sections []resume.SectionKey
}

func (r RegionSpec) accepts(key resume.SectionKey) bool {
	for _, k := range r.Sections {
		if k == key {
			return true
		}
	}
	return false
}

var headings = map[resume.SectionKey]string{
	resume.SectionExperience:   "Experience",
	resume.SectionEducation:    "Education",
	resume.SectionProjects:     "Projects",
	resume.SectionSkills:       "Skills",
	resume.SectionAchievements: "Achievements",
}

// Heading returns the display heading of a section.
func Heading(key resume.SectionKey) string {
	return headings[key]
}

// Build projects doc into a Tree using arr. doc is expected to be
// sanitized; Build itself never fails and skips empty sections.
func Build(doc resume.ResumeData, arr Arrangement) Tree {
	t := Tree{
		Template: doc.Template,
		Accent:   doc.AccentColor,
		Header:   buildHeader(doc.Personal, arr.HeaderRegion),
		Summary: Summary{
			Heading: arr.SummaryHeading,
			Text:    strings.TrimSpace(doc.Summary),
			Region:  arr.SummaryRegion,
		},
	}
	order := resume.NormalizeOrder(doc.SectionOrder)
	for _, spec := range arr.Regions {
		region := Region{Name: spec.Name}
		for _, key := range order {
			if !spec.accepts(key) {
				continue
			}
			if sec, ok := buildSection(doc, key); ok {
				region.Sections = append(region.Sections, sec)
			}
		}
		t.Regions = append(t.Regions, region)
	}
	return t
}

func buildHeader(p resume.Personal, region RegionName) Header {
	h := Header{Name: p.Name, Title: p.Title, Region: region}
	for _, c := range []Contact{
		{Label: "Email", Value: p.Email},
		{Label: "Phone", Value: p.Phone},
		{Label: "Location", Value: p.Location},
	} {
		if c.Value != "" {
			h.Contacts = append(h.Contacts, c)
		}
	}
	for _, l := range []Link{
		{Label: "LinkedIn", Text: p.LinkedIn},
		{Label: "Website", Text: p.Website},
		{Label: "Portfolio", Text: p.Portfolio},
		{Label: "GitHub", Text: p.GitHub},
	} {
		if l.Text == "" {
			continue
		}
		l.URL = Href(l.Text)
		h.Links = append(h.Links, l)
	}
	return h
}

func buildSection(doc resume.ResumeData, key resume.SectionKey) (Section, bool) {
	sec := Section{Key: key, Heading: Heading(key), Kind: KindEntries}
	switch key {
	case resume.SectionExperience:
		for _, e := range doc.Experience {
			sec.Entries = append(sec.Entries, Entry{
				ID:       e.ID,
				Title:    e.Role,
				Dates:    DateRange(e.StartDate, e.EndDate),
				Subtitle: Join(" | ", e.Company, e.Location),
				Bullets:  bullets(e.Description),
			})
		}
	case resume.SectionEducation:
		for _, e := range doc.Education {
			entry := Entry{
				ID:       e.ID,
				Title:    e.Degree,
				Dates:    DateRange(e.StartDate, e.EndDate),
				Subtitle: Join(" | ", e.University, e.Location),
			}
			if gpa := strings.TrimSpace(e.GPA); gpa != "" {
				entry.Note = "GPA: " + gpa
			}
			sec.Entries = append(sec.Entries, entry)
		}
	case resume.SectionProjects:
		for _, p := range doc.Projects {
			entry := Entry{
				ID:      p.ID,
				Title:   p.Name,
				Bullets: bullets(p.Description),
			}
			if url := strings.TrimSpace(p.URL); url != "" {
				entry.Link = &Link{Label: "Project", Text: url, URL: Href(url)}
			}
			sec.Entries = append(sec.Entries, entry)
		}
	case resume.SectionSkills:
		sec.Kind = KindTags
		for _, s := range doc.Skills {
			if name := strings.TrimSpace(s.Name); name != "" {
				sec.Items = append(sec.Items, name)
			}
		}
	case resume.SectionAchievements:
		sec.Kind = KindList
		for _, a := range doc.Achievements {
			if name := strings.TrimSpace(a.Name); name != "" {
				sec.Items = append(sec.Items, name)
			}
		}
	default:
		return Section{}, false
	}
	if len(sec.Entries) == 0 && len(sec.Items) == 0 {
		return Section{}, false
	}
	return sec, true
}

func bullets(lines resume.Lines) []string {
	// 描述在写入时已规范化，这里再清理一次以兼容未经 Store 的输入。
	return []string(resume.NormalizeLines(lines))
}

// Join concatenates the non-empty parts with sep, so a separator never sits
// next to a missing value.
func Join(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// DateRange renders "start - end", or whichever side is present.
func DateRange(start, end string) string {
	return Join(" - ", start, end)
}

// Href adds https:// to links typed without a scheme.
func Href(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "mailto:") {
		return raw
	}
	return "https://" + raw
}
