package hh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/project-tktt/go-vacancies/internal/common/cleaner"
	"github.com/project-tktt/go-vacancies/internal/common/transport"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/internal/module"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

const (
	DefaultBaseURL = "https://api.hh.ru/vacancies"
	DefaultPerPage = 20
	DefaultPeriod  = 1
	MaxPerPage     = 100
)

// searchFields are addressed by position in the search_field bit string, e.g. "101"
var searchFields = [...]string{"name", "company_name", "description"}

// Config holds HH-specific configuration
type Config struct {
	BaseURL string
}

type params struct {
	Text         string
	SearchFields []string
	PerPage      int
	Period       int
	Area         string
	Page         int
	EmployerIDs  []string
}

func defaultParams() params {
	return params{PerPage: DefaultPerPage, Period: DefaultPeriod}
}

func (p params) values() url.Values {
	v := url.Values{}
	v.Set("text", p.Text)
	for _, f := range p.SearchFields {
		v.Add("search_field", f)
	}
	v.Set("per_page", strconv.Itoa(p.PerPage))
	v.Set("period", strconv.Itoa(p.Period))
	if p.Area != "" {
		v.Set("area", p.Area)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	for _, id := range p.EmployerIDs {
		v.Add("employer_id", id)
	}
	return v
}

// Provider implements module.Provider for the hh.ru API
type Provider struct {
	baseURL   string
	transport transport.Transport
	cleaner   *cleaner.Cleaner
	log       *logging.Logger

	params  params
	headers map[string]string
	status  int
	items   []json.RawMessage
}

// NewProvider creates a new HH provider
func NewProvider(cfg Config, tr transport.Transport, logger *logging.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	p := &Provider{
		baseURL:   cfg.BaseURL,
		transport: tr,
		cleaner:   cleaner.NewCleaner(),
		log:       logger.With("source", domain.SourceHH),
		params:    defaultParams(),
	}
	p.SetHeaders()
	return p
}

// Source returns the source identifier
func (p *Provider) Source() domain.JobSource {
	return domain.SourceHH
}

// SetParam accepts text, search_field, per_page, period, area, page and employer_id
func (p *Provider) SetParam(key, value string) error {
	switch key {
	case "text":
		p.params.Text = value
	case "search_field":
		fields, err := parseSearchFields(value)
		if err != nil {
			return p.reject(key, value, err)
		}
		p.params.SearchFields = fields
	case "per_page":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > MaxPerPage {
			return p.reject(key, value, domain.ErrMalformedParam)
		}
		p.params.PerPage = n
	case "period":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return p.reject(key, value, domain.ErrMalformedParam)
		}
		p.params.Period = n
	case "area":
		p.params.Area = value
	case "page":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return p.reject(key, value, domain.ErrMalformedParam)
		}
		p.params.Page = n
	case "employer_id":
		var ids []string
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		p.params.EmployerIDs = ids
	default:
		return p.reject(key, value, domain.ErrUnknownParam)
	}
	return nil
}

// parseSearchFields decodes a bit string where position i set to "1" enables searchFields[i]
func parseSearchFields(bits string) ([]string, error) {
	if len(bits) != len(searchFields) {
		return nil, domain.ErrMalformedParam
	}

	fields := make([]string, 0, len(searchFields))
	for i, b := range bits {
		switch b {
		case '1':
			fields = append(fields, searchFields[i])
		case '0':
		default:
			return nil, domain.ErrMalformedParam
		}
	}
	return fields, nil
}

func (p *Provider) reject(key, value string, err error) error {
	p.log.Warn("parameter rejected", "key", key, "value", value, "error", err)
	return &domain.ParamError{Source: domain.SourceHH, Key: key, Value: value, Err: err}
}

// ResetParams restores the default query
func (p *Provider) ResetParams() {
	p.params = defaultParams()
}

// SetHeaders is a no-op beyond clearing headers: the public search API needs no auth
func (p *Provider) SetHeaders() {
	p.headers = map[string]string{}
}

// Fetch requests one page of vacancies with the current parameters
func (p *Provider) Fetch(ctx context.Context) error {
	resp, err := p.transport.Get(ctx, p.baseURL, p.headers, p.params.values())
	if err != nil {
		return fmt.Errorf("hh request: %w", err)
	}

	if !resp.OK() {
		p.status = resp.StatusCode
		p.log.Warn("request error", "status", resp.StatusCode, "body", truncate(resp.Body, 512))
		return nil
	}

	var payload SearchResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return fmt.Errorf("hh decode response: %w", err)
	}

	p.status = resp.StatusCode
	p.items = payload.Items
	p.log.Debug("fetched vacancies", "items", len(payload.Items), "found", payload.Found)
	return nil
}

// Normalize converts the last fetched page to records, skipping items it cannot parse
func (p *Provider) Normalize() []domain.Record {
	if err := p.Status().Err(); err != nil {
		if errors.Is(err, domain.ErrNoResults) {
			p.log.Info("no vacancies found for the query")
		} else {
			p.log.Info("no vacancies: last request failed", "status", p.status)
		}
		return []domain.Record{}
	}

	records := make([]domain.Record, 0, len(p.items))
	for i, raw := range p.items {
		rec, err := p.normalizeItem(raw)
		if err != nil {
			p.log.Warn("skipping vacancy", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (p *Provider) normalizeItem(raw json.RawMessage) (domain.Record, error) {
	var v Vacancy
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.Record{}, fmt.Errorf("decode item: %w", err)
	}

	created, err := parseDate(v.CreatedAt)
	if err != nil {
		return domain.Record{}, fmt.Errorf("vacancy %s: %w", v.ID, err)
	}

	rec := domain.Record{
		IDVac:     domain.SourceHH.ID(v.ID),
		NameVac:   v.Name,
		CreatedAt: created,
		Place:     v.Area.Name,
		URLVac:    v.AlternateURL,
		Employer:  v.Employer.Name,
		Skills:    p.text(v.Snippet.Requirement),
		Charge:    p.text(v.Snippet.Responsibility),
	}
	rec.SalaryFrom, rec.SalaryTo = v.Salary.Bounds()

	if err := rec.Validate(); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

func (p *Provider) text(s *string) string {
	if s == nil {
		return ""
	}
	return p.cleaner.CleanToText(*s)
}

// Status describes the last fetch
func (p *Provider) Status() module.Status {
	return module.Status{Source: domain.SourceHH, Code: p.status, Items: len(p.items)}
}

// parseDate keeps the calendar day of an HH timestamp in its own offset
func parseDate(s string) (string, error) {
	layouts := []string{
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
		domain.DateLayout,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.DateLayout), nil
		}
	}
	return "", fmt.Errorf("unparseable created_at %q", s)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

var _ module.Provider = (*Provider)(nil)
