package resume

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// ValidationError 表示导出前缺少必填字段。用户可见，不可重试，直到字段补齐。
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Missing, ", "))
}

// ValidateForExport 检查导出 PDF 的最低要求：姓名与邮箱。
func ValidateForExport(d ResumeData) error {
	var missing []string
	if strings.TrimSpace(d.Personal.Name) == "" {
		missing = append(missing, "personal.name")
	}
	if strings.TrimSpace(d.Personal.Email) == "" {
		missing = append(missing, "personal.email")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Check is one item of the completion checklist.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Checklist evaluates the fixed, ordered completion checks.
func Checklist(d ResumeData) []Check {
	return []Check{
		{Name: "contact", Passed: d.Personal.Name != "" && d.Personal.Email != ""},
		{Name: "summary", Passed: utf8.RuneCountInString(d.Summary) > 10},
		{Name: string(SectionExperience), Passed: len(d.Experience) > 0},
		{Name: string(SectionEducation), Passed: len(d.Education) > 0},
		{Name: string(SectionProjects), Passed: len(d.Projects) > 0},
		{Name: string(SectionSkills), Passed: len(d.Skills) > 0},
		{Name: string(SectionAchievements), Passed: len(d.Achievements) > 0},
	}
}

// Completion returns round(100 * passed / total) over Checklist.
func Completion(d ResumeData) int {
	checks := Checklist(d)
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(checks))))
}
