package cleaner

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/project-tktt/go-vacancies/internal/domain"
)

// Cleaner strips markup from the free-text fields job boards return.
// HH snippets wrap matched words in <highlighttext>, SuperJob texts may carry <br/>.
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates a cleaner that strips ALL HTML
func NewCleaner() *Cleaner {
	return &Cleaner{policy: bluemonday.StrictPolicy()}
}

// CleanToText removes all HTML and returns plain text
func (c *Cleaner) CleanToText(s string) string {
	if s == "" {
		return ""
	}

	// Line breaks would otherwise glue adjacent sentences together
	s = strings.NewReplacer("<br/>", "\n", "<br />", "\n", "<br>", "\n").Replace(s)

	text := c.policy.Sanitize(s)
	text = html.UnescapeString(text)

	return collapseSpace(text)
}

// collapseSpace squeezes runs of blanks left by stripped tags and drops repeated empty lines
func collapseSpace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// CleanRecord sanitizes the text fields of a record in place
func (c *Cleaner) CleanRecord(r *domain.Record) {
	r.NameVac = c.CleanToText(r.NameVac)
	r.Employer = c.CleanToText(r.Employer)
	r.Place = c.CleanToText(r.Place)
	r.Skills = c.CleanToText(r.Skills)
	r.Charge = c.CleanToText(r.Charge)
}
