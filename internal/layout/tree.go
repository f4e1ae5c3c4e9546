// Package layout 把简历文档投影为与后端无关的版面树。
// 哪些分区出现、包含什么数据、以什么顺序排列，都只在这里决定一次；
// 屏幕与打印两个后端只负责把树画出来。
package layout

import "github.com/prateekraiger/buildmeCV/internal/resume"

// RegionName identifies a column of the page.
type RegionName string

const (
	RegionMain    RegionName = "main"
	RegionSidebar RegionName = "sidebar"
)

// SectionKind tells a backend how to draw a section's content.
type SectionKind string

const (
	KindEntries SectionKind = "entries"
	KindTags    SectionKind = "tags"
	KindList    SectionKind = "list"
)

// Tree is the backend-agnostic projection of one document.
type Tree struct {
	Template resume.TemplateKey
	Accent   string
	Header   Header
	Summary  Summary
	Regions  []Region
}

// Header carries identity, contact details and profile links.
type Header struct {
	Name     string
	Title    string
	Region   RegionName
	Contacts []Contact
	Links    []Link
}

// Contact is one labelled contact detail.
type Contact struct {
	Label string
	Value string
}

// Link is a clickable profile or project link. URL always carries a scheme.
type Link struct {
	Label string
	Text  string
	URL   string
}

// Summary 为空文本时不渲染。
type Summary struct {
	Heading string
	Text    string
	Region  RegionName
}

// Region is one column holding sections in sectionOrder.
type Region struct {
	Name     RegionName
	Sections []Section
}

// Section is one non-empty resume section.
type Section struct {
	Key     resume.SectionKey
	Heading string
	Kind    SectionKind
	Entries []Entry
	Items   []string
}

// Entry is one experience, education or project item.
type Entry struct {
	ID       string
	Title    string
	Dates    string
	Subtitle string
	Link     *Link
	Bullets  []string
	Note     string
}

// Region returns the named region, or nil.
func (t Tree) Region(name RegionName) *Region {
	for i := range t.Regions {
		if t.Regions[i].Name == name {
			return &t.Regions[i]
		}
	}
	return nil
}

// Outline returns the section keys of every region in emission order.
func Outline(t Tree) []resume.SectionKey {
	var keys []resume.SectionKey
	for _, r := range t.Regions {
		for _, s := range r.Sections {
			keys = append(keys, s.Key)
		}
	}
	return keys
}
