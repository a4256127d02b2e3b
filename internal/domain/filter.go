package domain

import (
	"strings"

	"github.com/google/uuid"
)

// FilterState holds the active board filters. It lives only as long as the
// board view that owns it and is never persisted.
type FilterState struct {
	Labels     []uuid.UUID `json:"labels,omitempty"`
	Priorities []Priority  `json:"priorities,omitempty"`
	Assignees  []uuid.UUID `json:"assignees,omitempty"`
	Search     string      `json:"search,omitempty"`
}

// IsEmpty reports whether no category constrains the task set.
func (f FilterState) IsEmpty() bool {
	return len(f.Labels) == 0 &&
		len(f.Priorities) == 0 &&
		len(f.Assignees) == 0 &&
		strings.TrimSpace(f.Search) == ""
}
