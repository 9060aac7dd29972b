// Package vacancy ranks normalized vacancies by display salary.
package vacancy

import "github.com/project-tktt/go-vacancies/internal/domain"

// Entity is a normalized record with its display salary
type Entity struct {
	domain.Record
	// Salary is the single figure used for ranking; 0 means unspecified and ranks lowest
	Salary int
}

// NewEntity copies the record and computes its display salary
func NewEntity(r domain.Record) *Entity {
	return &Entity{Record: r, Salary: DisplaySalary(r.SalaryFrom, r.SalaryTo)}
}

// DisplaySalary takes the upper figure of a range, or the only bound given
func DisplaySalary(from, to int) int {
	switch {
	case from == 0 && to == 0:
		return 0
	case from != 0 && to != 0:
		return max(from, to)
	case from != 0:
		return from
	default:
		return to
	}
}

// Less orders entities by display salary ascending
func Less(a, b *Entity) bool {
	return a.Salary < b.Salary
}

func (e *Entity) String() string {
	return Render(e.Record)
}
