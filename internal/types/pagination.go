package types

// PageInfo contains pagination metadata for list responses.
type PageInfo struct {
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListResponse is a generic paginated response wrapper.
type ListResponse[T any] struct {
	Data     []T      `json:"data"`
	PageInfo PageInfo `json:"pagination"`
}

// ResponseMeta contains non-blocking metadata returned with API responses.
type ResponseMeta struct {
	Warnings   []string  `json:"warnings,omitempty"`
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// ListParams is the common cursor/limit pair accepted by list endpoints.
type ListParams struct {
	Limit  int
	Cursor string
}

// DefaultPageSize and MaxPageSize bound list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps Limit into [1, MaxPageSize], defaulting zero to DefaultPageSize.
func (p ListParams) Normalize() ListParams {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	return p
}
