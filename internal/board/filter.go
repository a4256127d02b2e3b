package board

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gosuda/kira/internal/domain"
)

// Matcher applies a FilterState. The zero Matcher lowercases search text
// with language.Und.
type Matcher struct {
	Locale language.Tag
}

// ApplyFilters keeps the tasks that satisfy every non-empty category of f,
// where a category is satisfied by any one of its selected values.
// Relative order is preserved; an empty FilterState returns tasks as is.
func ApplyFilters(tasks []*domain.Task, f domain.FilterState) []*domain.Task {
	return Matcher{}.Apply(tasks, f)
}

// Apply is ApplyFilters with m's locale.
func (m Matcher) Apply(tasks []*domain.Task, f domain.FilterState) []*domain.Task {
	if f.IsEmpty() {
		return tasks
	}

	p := m.compile(f)
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if p.match(t) {
			out = append(out, t)
		}
	}
	return out
}

type predicate struct {
	labels     map[uuid.UUID]struct{}
	priorities map[domain.Priority]struct{}
	assignees  map[uuid.UUID]struct{}
	search     string
	caser      cases.Caser
}

func (m Matcher) compile(f domain.FilterState) *predicate {
	p := &predicate{caser: cases.Lower(m.Locale)}
	if len(f.Labels) > 0 {
		p.labels = make(map[uuid.UUID]struct{}, len(f.Labels))
		for _, id := range f.Labels {
			p.labels[id] = struct{}{}
		}
	}
	if len(f.Priorities) > 0 {
		p.priorities = make(map[domain.Priority]struct{}, len(f.Priorities))
		for _, pr := range f.Priorities {
			p.priorities[pr] = struct{}{}
		}
	}
	if len(f.Assignees) > 0 {
		p.assignees = make(map[uuid.UUID]struct{}, len(f.Assignees))
		for _, id := range f.Assignees {
			p.assignees[id] = struct{}{}
		}
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		p.search = p.caser.String(q)
	}
	return p
}

func (p *predicate) match(t *domain.Task) bool {
	if p.labels != nil && !p.matchLabels(t) {
		return false
	}
	if p.priorities != nil {
		if _, ok := p.priorities[t.Priority]; !ok {
			return false
		}
	}
	if p.assignees != nil {
		if t.AssigneeID == nil {
			return false
		}
		if _, ok := p.assignees[*t.AssigneeID]; !ok {
			return false
		}
	}
	if p.search != "" && !strings.Contains(p.caser.String(t.Title), p.search) {
		return false
	}
	return true
}

func (p *predicate) matchLabels(t *domain.Task) bool {
	for _, id := range t.Labels {
		if _, ok := p.labels[id]; ok {
			return true
		}
	}
	return false
}
