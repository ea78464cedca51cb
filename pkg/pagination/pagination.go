package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Meta is the pagination block returned with every list.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// New normalizes page/limit, applying defaultLimit when limit is unset and capping at MaxLimit.
func New(page, limit, defaultLimit int) Params {
	if defaultLimit < MinLimit {
		defaultLimit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Meta builds the response metadata for total matching rows.
func (p Params) Meta(total int64) Meta {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}
