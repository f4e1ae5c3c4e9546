package resume

// Default 返回内置的示例简历，首次启动或重置时使用。
// 每次调用都返回新的副本。
func Default() ResumeData {
	return ResumeData{
		Personal: Personal{
			Name:      "Jane Doe",
			Title:     "Aspiring Software Engineer",
			Email:     "jane.doe@email.com",
			Phone:     "123-456-7890",
			Location:  "San Francisco, CA",
			LinkedIn:  "linkedin.com/in/janedoe",
			Portfolio: "github.com/janedoe",
		},
		Summary: "A passionate and driven software engineer with a strong foundation in computer science and a dedication to creating elegant, user-friendly applications. Eager to apply my skills in a challenging and collaborative environment to solve real-world problems.",
		Experience: []Experience{
			{
				ID:        "exp1",
				Title:     "Software Engineering Intern",
				Role:      "Software Engineering Intern",
				Company:   "Tech Solutions Inc.",
				Location:  "Palo Alto, CA",
				StartDate: "May 2023",
				EndDate:   "Aug 2023",
				Description: Lines{
					"Developed and maintained front-end features for a client-facing web application using React and TypeScript.",
					"Collaborated with a team of 5 engineers to design and implement new user interfaces.",
				},
			},
		},
		Education: []Education{
			{
				ID:         "edu1",
				Degree:     "B.S. in Computer Science",
				University: "University of California, Berkeley",
				Location:   "Berkeley, CA",
				StartDate:  "Aug 2021",
				EndDate:    "May 2025",
				GPA:        "3.8",
			},
		},
		Projects: []Project{
			{
				ID:    "proj1",
				Title: "Personal Portfolio Website",
				Name:  "Personal Portfolio Website",
				Description: Lines{
					"A responsive website to showcase my projects and skills, built with Next.js and deployed on Vercel.",
				},
				URL: "github.com/janedoe/portfolio",
			},
		},
		Skills: []Skill{
			{ID: "skill1", Name: "JavaScript"},
			{ID: "skill2", Name: "TypeScript"},
			{ID: "skill3", Name: "React"},
			{ID: "skill4", Name: "Node.js"},
			{ID: "skill5", Name: "Python"},
			{ID: "skill6", Name: "SQL"},
		},
		Achievements: []Achievement{
			{ID: "ach1", Name: "Dean's List - Fall 2022, Spring 2023"},
			{ID: "ach2", Name: "1st Place - University Hackathon 2023"},
		},
		SectionOrder: append([]SectionKey(nil), CanonicalOrder...),
		Template:     TemplateModern,
		AccentColor:  DefaultAccentColor,
	}
}

// Empty returns a structurally valid document with no content, used by tests
// and the CLI when starting from scratch.
func Empty() ResumeData {
	return ResumeData{
		Experience:   []Experience{},
		Education:    []Education{},
		Projects:     []Project{},
		Skills:       []Skill{},
		Achievements: []Achievement{},
		SectionOrder: append([]SectionKey(nil), CanonicalOrder...),
		Template:     TemplateModern,
		AccentColor:  DefaultAccentColor,
	}
}
