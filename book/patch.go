package book

import (
	"fmt"
	"strings"
)

/* Patch carries a partial update.
 * A nil field was not supplied and is left untouched in storage. A blank
 * string is treated the same way, so an update can never erase a title,
 * author or ISBN. A zero year is a value and is written.
 */
type Patch struct {
	Title         *string
	Author        *string
	PublishedYear *int
	ISBN          *string
}

// normalize drops blank string fields.
func (p Patch) normalize() Patch {
	p.Title = blankToNil(p.Title)
	p.Author = blankToNil(p.Author)
	p.ISBN = blankToNil(p.ISBN)
	return p
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// IsEmpty reports whether no field was supplied.
func (p Patch) IsEmpty() bool {
	n := p.normalize()
	return n.Title == nil && n.Author == nil && n.PublishedYear == nil && n.ISBN == nil
}

// Validate rejects patches that supply nothing.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	return nil
}

// Column is a single "column = value" assignment of an UPDATE statement.
type Column struct {
	Name  string
	Value any
}

// Columns returns the supplied fields in a stable order: title, author,
// published_year, isbn.
func (p Patch) Columns() []Column {
	p = p.normalize()
	var cols []Column
	if p.Title != nil {
		cols = append(cols, Column{Name: "title", Value: *p.Title})
	}
	if p.Author != nil {
		cols = append(cols, Column{Name: "author", Value: *p.Author})
	}
	if p.PublishedYear != nil {
		cols = append(cols, Column{Name: "published_year", Value: *p.PublishedYear})
	}
	if p.ISBN != nil {
		cols = append(cols, Column{Name: "isbn", Value: *p.ISBN})
	}
	return cols
}

// SetClause renders the assignments with the dialect's placeholder for the
// i-th argument (1-based) and returns the matching arguments.
func (p Patch) SetClause(placeholder func(i int) string) (string, []any) {
	cols := p.Columns()
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		parts = append(parts, fmt.Sprintf("%s = %s", c.Name, placeholder(i+1)))
		args = append(args, c.Value)
	}
	return strings.Join(parts, ", "), args
}

// QuestionMark is the placeholder used by MySQL and SQLite.
func QuestionMark(int) string { return "?" }

// Dollar is the positional placeholder used by PostgreSQL.
func Dollar(i int) string { return fmt.Sprintf("$%d", i) }
