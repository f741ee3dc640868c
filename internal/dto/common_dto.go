package dto

// Pagination is bound from ?page=&limit= query parameters.
type Pagination struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
}

// Normalize applies defaults and caps the page size.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }
