package resume

// SectionKey 标识一个可排序的简历分区。
type SectionKey string

const (
	SectionExperience   SectionKey = "experience"
	SectionEducation    SectionKey = "education"
	SectionProjects     SectionKey = "projects"
	SectionSkills       SectionKey = "skills"
	SectionAchievements SectionKey = "achievements"
)

// CanonicalOrder 是默认的分区顺序，也是修复 sectionOrder 时追加缺失分区的顺序。
var CanonicalOrder = []SectionKey{
	SectionExperience,
	SectionEducation,
	SectionProjects,
	SectionSkills,
	SectionAchievements,
}

// Valid reports whether k names one of the five known sections.
func (k SectionKey) Valid() bool {
	switch k {
	case SectionExperience, SectionEducation, SectionProjects, SectionSkills, SectionAchievements:
		return true
	}
	return false
}

// TemplateKey 选择模板注册表中的布局策略。
type TemplateKey string

const (
	TemplateModern  TemplateKey = "modern"
	TemplateClassic TemplateKey = "classic"
)

// DefaultAccentColor is used whenever the stored color is missing or malformed.
const DefaultAccentColor = "#000000"

// Personal 表示简历抬头的个人信息。
type Personal struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedin"`
	Website   string `json:"website,omitempty"`
	Portfolio string `json:"portfolio"`
	GitHub    string `json:"github,omitempty"`
}

// Experience 表示一段工作经历。Title 是 Role 的旧字段别名。
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description Lines  `json:"description"`
}

// Education 表示一段教育经历。
type Education struct {
	ID         string `json:"id"`
	Degree     string `json:"degree"`
	University string `json:"university"`
	Location   string `json:"location"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	GPA        string `json:"gpa"`
}

// Project 表示一个项目。Title 是 Name 的旧字段别名。
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Name        string `json:"name"`
	Description Lines  `json:"description"`
	URL         string `json:"url"`
}

// Skill 是标签式条目。
type Skill struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Achievement 是标签式条目。
type Achievement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResumeData 是整份简历的根聚合。
type ResumeData struct {
	Personal     Personal      `json:"personal"`
	Summary      string        `json:"summary"`
	Experience   []Experience  `json:"experience"`
	Education    []Education   `json:"education"`
	Projects     []Project     `json:"projects"`
	Skills       []Skill       `json:"skills"`
	Achievements []Achievement `json:"achievements"`
	SectionOrder []SectionKey  `json:"sectionOrder"`
	Template     TemplateKey   `json:"template"`
	AccentColor  string        `json:"accentColor"`
}

// Clone returns a deep copy; callers may mutate the copy freely.
func (d ResumeData) Clone() ResumeData {
	out := d
	out.Experience = make([]Experience, len(d.Experience))
	for i, e := range d.Experience {
		e.Description = e.Description.Clone()
		out.Experience[i] = e
	}
	out.Education = append([]Education(nil), d.Education...)
	out.Projects = make([]Project, len(d.Projects))
	for i, p := range d.Projects {
		p.Description = p.Description.Clone()
		out.Projects[i] = p
	}
	out.Skills = append([]Skill(nil), d.Skills...)
	out.Achievements = append([]Achievement(nil), d.Achievements...)
	out.SectionOrder = append([]SectionKey(nil), d.SectionOrder...)
	if out.Education == nil {
		out.Education = []Education{}
	}
	if out.Skills == nil {
		out.Skills = []Skill{}
	}
	if out.Achievements == nil {
		out.Achievements = []Achievement{}
	}
	if out.SectionOrder == nil {
		out.SectionOrder = []SectionKey{}
	}
	return out
}

// SectionLen returns the number of items in the given section.
func (d ResumeData) SectionLen(key SectionKey) int {
	switch key {
	case SectionExperience:
		return len(d.Experience)
	case SectionEducation:
		return len(d.Education)
	case SectionProjects:
		return len(d.Projects)
	case SectionSkills:
		return len(d.Skills)
	case SectionAchievements:
		return len(d.Achievements)
	}
	return 0
}

// Item is implemented by every list entry; entries are addressed by id.
type Item interface {
	ItemID() string
	SetItemID(id string)
}

func (e *Experience) ItemID() string { return e.ID }
func (e *Experience) SetItemID(id string) { e.ID = id }
func (e *Education) ItemID() string { return e.ID }
func (e *Education) SetItemID(id string) { e.ID = id }
func (p *Project) ItemID() string { return p.ID }
func (p *Project) SetItemID(id string) { p.ID = id }
func (s *Skill) ItemID() string { return s.ID }
func (s *Skill) SetItemID(id string) { s.ID = id }
func (a *Achievement) ItemID() string { return a.ID }
func (a *Achievement) SetItemID(id string) { a.ID = id }

// IDPrefix returns the prefix used by NewID for items of the section.
func (k SectionKey) IDPrefix() string {
	switch k {
	case SectionExperience:
		return "exp"
	case SectionEducation:
		return "edu"
	case SectionProjects:
		return "proj"
	case SectionSkills:
		return "skill"
	case SectionAchievements:
		return "ach"
	}
	return "item"
}
