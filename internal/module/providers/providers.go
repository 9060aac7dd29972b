package providers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/project-tktt/go-vacancies/internal/common/transport"
	"github.com/project-tktt/go-vacancies/internal/config"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/internal/module"
	"github.com/project-tktt/go-vacancies/internal/module/hh"
	"github.com/project-tktt/go-vacancies/internal/module/sj"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// New builds the provider for one source
func New(source domain.JobSource, cfg *config.Config, tr transport.Transport, logger *logging.Logger) (module.Provider, error) {
	switch source {
	case domain.SourceHH:
		return hh.NewProvider(hh.Config{BaseURL: cfg.HH.BaseURL}, tr, logger), nil
	case domain.SourceSJ:
		p, err := sj.NewProvider(sj.Config{BaseURL: cfg.SJ.BaseURL, APIKey: cfg.SJ.APIKey}, tr, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

// FromNames builds providers for source names such as "hh" or "sj", in the given order
func FromNames(names []string, cfg *config.Config, tr transport.Transport, logger *logging.Logger) ([]module.Provider, error) {
	out := make([]module.Provider, 0, len(names))
	seen := make(map[domain.JobSource]bool, len(names))

	for _, name := range names {
		source, ok := domain.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		if seen[source] {
			continue
		}
		seen[source] = true

		p, err := New(source, cfg, tr, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Query is a provider-neutral search request
type Query struct {
	Text string
	// Count is the page size; 0 keeps the provider default
	Count int
	Page  int
	// Location is an HH area id or an SJ town name/id
	Location string
}

var queryKeys = map[domain.JobSource]struct{ text, count, page, location string }{
	domain.SourceHH: {"text", "per_page", "page", "area"},
	domain.SourceSJ: {"keyword", "count", "page", "town"},
}

// ApplyQuery resets p and sets q using the parameter names of p's source.
// Every rejected parameter is reported in the joined error; accepted ones stay set.
func ApplyQuery(p module.Provider, q Query) error {
	keys, ok := queryKeys[p.Source()]
	if !ok {
		return fmt.Errorf("unknown source %q", p.Source())
	}

	p.ResetParams()

	var errs []error
	set := func(key, value string) {
		if err := p.SetParam(key, value); err != nil {
			errs = append(errs, err)
		}
	}

	set(keys.text, q.Text)
	if q.Count > 0 {
		set(keys.count, strconv.Itoa(q.Count))
	}
	if q.Page > 0 {
		set(keys.page, strconv.Itoa(q.Page))
	}
	if q.Location != "" {
		set(keys.location, q.Location)
	}
	return errors.Join(errs...)
}
