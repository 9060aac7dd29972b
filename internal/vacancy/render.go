package vacancy

import (
	"fmt"
	"strings"

	"github.com/project-tktt/go-vacancies/internal/domain"
)

// Render formats one record as a multi-line text block
func Render(r domain.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Vacancy %s\n", r.IDVac)
	fmt.Fprintf(&b, "%s\n", r.CreatedAt)
	fmt.Fprintf(&b, "%s\n", r.NameVac)
	fmt.Fprintf(&b, "%s\n", r.URLVac)
	fmt.Fprintf(&b, "%s\n", SalaryPhrase(r.SalaryFrom, r.SalaryTo))
	fmt.Fprintf(&b, "%s\n", r.Employer)
	fmt.Fprintf(&b, "%s\n", r.Place)
	fmt.Fprintf(&b, "%s\n", r.Skills)
	b.WriteString(r.Charge)

	return b.String()
}

// SalaryPhrase describes a salary range by which bounds are present
func SalaryPhrase(from, to int) string {
	switch {
	case from == 0 && to == 0:
		return "salary not specified"
	case from != 0 && to != 0:
		return fmt.Sprintf("salary from %d to %d", from, to)
	case from != 0:
		return fmt.Sprintf("salary from %d", from)
	default:
		return fmt.Sprintf("salary up to %d", to)
	}
}
