package page

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type Request struct {
	Page     int
	PageSize int
}

// Normalize clamps out-of-range values to the defaults.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	return r
}

func (r Request) Offset() int {
	n := r.Normalize()
	return (n.Page - 1) * n.PageSize
}

type Page[T any] struct {
	PageSize      int `json:"pageSize"`
	PageCount     int `json:"pageCount"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Content       []T `json:"content"`
}

func New[T any](req Request, total int, content []T) Page[T] {
	req = req.Normalize()
	if content == nil {
		content = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + req.PageSize - 1) / req.PageSize
	}
	return Page[T]{
		PageSize:      req.PageSize,
		PageCount:     len(content),
		TotalElements: total,
		TotalPages:    pages,
		Content:       content,
	}
}

func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return Page[U]{
		PageSize:      p.PageSize,
		PageCount:     p.PageCount,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Content:       out,
	}
}
