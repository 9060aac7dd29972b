package sj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/project-tktt/go-vacancies/internal/common/transport"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/internal/module"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

const (
	DefaultBaseURL = "https://api.superjob.ru/2.0/vacancies/"
	HeaderAppID    = "X-Api-App-Id"
)

// Config holds SuperJob-specific configuration
type Config struct {
	BaseURL string
	// Secret key of the registered SuperJob application
	APIKey string
}

// Provider implements module.Provider for the SuperJob API
type Provider struct {
	baseURL   string
	apiKey    string
	transport transport.Transport
	log       *logging.Logger

	params  params
	headers map[string]string
	status  int
	items   []json.RawMessage
}

// NewProvider creates a new SuperJob provider; the API key is mandatory
func NewProvider(cfg Config, tr transport.Transport, logger *logging.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sj provider: %w", domain.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	p := &Provider{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		transport: tr,
		log:       logger.With("source", domain.SourceSJ),
		params:    defaultParams(),
	}
	p.SetHeaders()
	return p, nil
}

// Source returns the source identifier
func (p *Provider) Source() domain.JobSource {
	return domain.SourceSJ
}

// SetParam accepts keyword, keys ("field=text"), count, period, town and page
func (p *Provider) SetParam(key, value string) error {
	switch key {
	case "keyword":
		p.params.Keyword = value
	case "keys":
		k, err := ParseSearchKey(value)
		if err != nil {
			return p.reject(key, value, err)
		}
		p.params.Key = &k
	case "count":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > MaxCount {
			return p.reject(key, value, domain.ErrMalformedParam)
		}
		p.params.Count = n
	case "period":
		n, err := strconv.Atoi(value)
		if err != nil || !periods[n] {
			return p.reject(key, value, domain.ErrMalformedParam)
		}
		p.params.Period = n
	case "town":
		p.params.Town = value
	case "page":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return p.reject(key, value, domain.ErrMalformedParam)
		}
		p.params.Page = n
	default:
		return p.reject(key, value, domain.ErrUnknownParam)
	}
	return nil
}

func (p *Provider) reject(key, value string, err error) error {
	p.log.Warn("parameter rejected", "key", key, "value", value, "error", err)
	return &domain.ParamError{Source: domain.SourceSJ, Key: key, Value: value, Err: err}
}

// ResetParams restores the default query
func (p *Provider) ResetParams() {
	p.params = defaultParams()
}

// SetHeaders derives the application key header
func (p *Provider) SetHeaders() {
	p.headers = map[string]string{HeaderAppID: p.apiKey}
}

// Fetch requests one page of vacancies with the current parameters
func (p *Provider) Fetch(ctx context.Context) error {
	resp, err := p.transport.Get(ctx, p.baseURL, p.headers, p.params.values())
	if err != nil {
		return fmt.Errorf("sj request: %w", err)
	}

	if !resp.OK() {
		p.status = resp.StatusCode
		p.log.Warn("request error", "status", resp.StatusCode)
		return nil
	}

	var payload SearchResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return fmt.Errorf("sj decode response: %w", err)
	}

	p.status = resp.StatusCode
	p.items = payload.Objects
	p.log.Debug("fetched vacancies", "items", len(payload.Objects), "total", payload.Total)
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
		rec, err := normalizeItem(raw)
		if err != nil {
			p.log.Warn("skipping vacancy", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func normalizeItem(raw json.RawMessage) (domain.Record, error) {
	var v Vacancy
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.Record{}, fmt.Errorf("decode item: %w", err)
	}
	if v.ID <= 0 {
		return domain.Record{}, fmt.Errorf("vacancy without id")
	}
	if v.DatePublished <= 0 {
		return domain.Record{}, fmt.Errorf("vacancy %d: missing date_published", v.ID)
	}

	rec := domain.Record{
		IDVac:     domain.SourceSJ.ID(strconv.FormatInt(v.ID, 10)),
		NameVac:   v.Profession,
		CreatedAt: time.Unix(v.DatePublished, 0).UTC().Format(domain.DateLayout),
		Place:     v.Town.Title,
		URLVac:    v.Link,
		Employer:  v.FirmName,
		Skills:    deref(v.Candidat),
		Charge:    deref(v.Work),
	}
	rec.SalaryFrom, rec.SalaryTo = v.Bounds()

	if err := rec.Validate(); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Status describes the last fetch
func (p *Provider) Status() module.Status {
	return module.Status{Source: domain.SourceSJ, Code: p.status, Items: len(p.items)}
}

var _ module.Provider = (*Provider)(nil)
