package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateekraiger/buildmeCV/internal/resume"
)

var twoColumn = Arrangement{
	Regions: []RegionSpec{
		{Name: RegionSidebar, Sections: []resume.SectionKey{resume.SectionSkills, resume.SectionAchievements}},
		{Name: RegionMain, Sections: []resume.SectionKey{resume.SectionExperience, resume.SectionEducation, resume.SectionProjects}},
	},
	HeaderRegion:   RegionSidebar,
	SummaryRegion:  RegionMain,
	SummaryHeading: "Objective",
}

func TestBuildFollowsSectionOrderPerRegion(t *testing.T) {
	doc := resume.Sanitize(resume.Default())
	doc.SectionOrder = []resume.SectionKey{"achievements", "projects", "skills", "education", "experience"}

	tree := Build(doc, twoColumn)
	require.Len(t, tree.Regions, 2)
	assert.Equal(t, []resume.SectionKey{"achievements", "skills", "projects", "education", "experience"}, Outline(tree))
	assert.Equal(t, "Objective", tree.Summary.Heading)
	assert.Equal(t, RegionSidebar, tree.Header.Region)
}

func TestBuildOmitsEmptySections(t *testing.T) {
	doc := resume.Sanitize(resume.Default())
	doc.Projects = nil
	doc.Skills = []resume.Skill{{ID: "s", Name: "  "}}

	tree := Build(doc, twoColumn)
	assert.Equal(t, []resume.SectionKey{"achievements", "experience", "education"}, Outline(tree))
}

func TestBuildEntries(t *testing.T) {
	doc := resume.Sanitize(resume.ResumeData{
		Experience: []resume.Experience{{ID: "x", Role: "Dev", Company: "ACME", StartDate: "2020", Description: resume.Lines{"• shipped"}}},
		Education:  []resume.Education{{ID: "e", Degree: "BSc", Location: "Paris", GPA: "3.9"}},
		Projects:   []resume.Project{{ID: "p", Name: "Site", URL: "example.com"}},
	})
	tree := Build(doc, twoColumn)
	main := tree.Region(RegionMain)
	require.NotNil(t, main)
	require.Len(t, main.Sections, 3)

	exp := main.Sections[0].Entries[0]
	assert.Equal(t, "Dev", exp.Title)
	assert.Equal(t, "ACME", exp.Subtitle)
	assert.Equal(t, "2020", exp.Dates)
	assert.Equal(t, []string{"shipped"}, exp.Bullets)

	edu := main.Sections[1].Entries[0]
	assert.Equal(t, "Paris", edu.Subtitle)
	assert.Equal(t, "GPA: 3.9", edu.Note)

	proj := main.Sections[2].Entries[0]
	require.NotNil(t, proj.Link)
	assert.Equal(t, "https://example.com", proj.Link.URL)
	assert.Equal(t, "example.com", proj.Link.Text)
}

func TestHeaderLinksOnlyWhenPresent(t *testing.T) {
	doc := resume.Sanitize(resume.ResumeData{Personal: resume.Personal{GitHub: "http://github.com/x"}})
	tree := Build(doc, twoColumn)
	require.Len(t, tree.Header.Links, 1)
	assert.Equal(t, "GitHub", tree.Header.Links[0].Label)
	assert.Equal(t, "http://github.com/x", tree.Header.Links[0].URL)
	assert.Len(t, tree.Header.Contacts, 3)
}

func TestJoinAndDates(t *testing.T) {
	assert.Equal(t, "a | b", Join(" | ", "a", "", " b "))
	assert.Equal(t, "", Join(" | ", "", " "))
	assert.Equal(t, "Jan - Feb", DateRange("Jan", "Feb"))
	assert.Equal(t, "Feb", DateRange("", "Feb"))
}

func TestColors(t *testing.T) {
	r, g, b := RGB("#1e40af")
	assert.Equal(t, []int{0x1e, 0x40, 0xaf}, []int{r, g, b})
	r, g, b = RGB("#fff")
	assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})
	r, g, b = RGB("nonsense")
	assert.Equal(t, []int{0, 0, 0}, []int{r, g, b})

	r, g, b = Tint("#000000", 0)
	assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})
	assert.Equal(t, "rgb(0, 0, 0)", CSSTint("#000", 1))
}
