package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filters are the two user inputs of the derived view.
type Filters struct {
	Search   string
	Category string
}

// Normalize maps an empty category onto CategoryAll.
func (f Filters) Normalize() Filters {
	if f.Category == "" {
		f.Category = CategoryAll
	}
	return f
}

// Active reports whether either gate narrows the view.
func (f Filters) Active() bool {
	f = f.Normalize()
	return f.Search != "" || f.Category != CategoryAll
}

// matcher evaluates both gates for one pass over a collection. It owns its
// Caser, which must not be shared between goroutines.
type matcher struct {
	term     string
	folded   string
	category string
	caser    cases.Caser
}

func newMatcher(f Filters) *matcher {
	f = f.Normalize()
	m := &matcher{term: f.Search, category: f.Category, caser: cases.Lower(language.Und)}
	if m.term != "" {
		m.folded = m.caser.String(m.term)
	}
	return m
}

func (m *matcher) match(r Searchable) bool {
	return m.searchGate(r) && m.categoryGate(r)
}

func (m *matcher) searchGate(r Searchable) bool {
	if m.term == "" {
		return true
	}
	if strings.Contains(r.Contact(), m.term) {
		return true
	}
	for _, field := range r.SearchFields() {
		if strings.Contains(m.caser.String(field), m.folded) {
			return true
		}
	}
	return false
}

func (m *matcher) categoryGate(r Searchable) bool {
	return m.category == CategoryAll || r.FilterCategory() == m.category
}

// Matches reports whether r passes both gates of f.
func Matches(f Filters, r Searchable) bool {
	return newMatcher(f).match(r)
}
