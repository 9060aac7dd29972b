package cleaner

import (
	"testing"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCleanToText(t *testing.T) {
	c := NewCleaner()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Go, PostgreSQL", "Go, PostgreSQL"},
		{"highlight", "Опыт <highlighttext>Go</highlighttext> от 3 лет", "Опыт Go от 3 лет"},
		{"entities", "R&amp;D team", "R&D team"},
		{"line breaks", "first<br/>second", "first\nsecond"},
		{"script", "<script>alert(1)</script>text", "text"},
		{"surrounding space", "  <p>text</p>  ", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CleanToText(tt.in))
		})
	}
}

func TestCleanRecord(t *testing.T) {
	c := NewCleaner()
	r := domain.Record{
		IDVac:    "hh_1",
		NameVac:  "Go <b>developer</b>",
		Employer: "Acme &amp; Co",
		Skills:   "<highlighttext>Go</highlighttext>",
	}

	c.CleanRecord(&r)

	assert.Equal(t, "hh_1", r.IDVac)
	assert.Equal(t, "Go developer", r.NameVac)
	assert.Equal(t, "Acme & Co", r.Employer)
	assert.Equal(t, "Go", r.Skills)
	assert.Equal(t, "", r.Charge)
}
