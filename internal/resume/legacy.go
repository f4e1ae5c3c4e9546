package resume

import "encoding/json"

type linkSection struct {
	URL string `json:"url"`
}

// UnmarshalJSON folds the older portfolioSection/githubSection objects into
// the flat link fields.
func (p *Personal) UnmarshalJSON(data []byte) error {
	type plain Personal
	var aux struct {
		plain
		PortfolioSection *linkSection `json:"portfolioSection"`
		GitHubSection    *linkSection `json:"githubSection"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Personal(aux.plain)
	if p.Portfolio == "" && aux.PortfolioSection != nil {
		p.Portfolio = aux.PortfolioSection.URL
	}
	if p.GitHub == "" && aux.GitHubSection != nil {
		p.GitHub = aux.GitHubSection.URL
	}
	return nil
}

// UnmarshalJSON reads the older "title" key as the role, but only when the
// payload has no "role" key. Title always mirrors Role afterwards.
func (e *Experience) UnmarshalJSON(data []byte) error {
	type plain Experience
	var aux struct {
		plain
		Role *string `json:"role"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Experience(aux.plain)
	if aux.Role != nil {
		e.Role = *aux.Role
	} else {
		e.Role = aux.plain.Title
	}
	e.Title = e.Role
	return nil
}

// UnmarshalJSON 同上：只有缺少 "name" 时才使用旧的 "title"。
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var aux struct {
		plain
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Project(aux.plain)
	if aux.Name != nil {
		p.Name = *aux.Name
	} else {
		p.Name = aux.plain.Title
	}
	p.Title = p.Name
	return nil
}
