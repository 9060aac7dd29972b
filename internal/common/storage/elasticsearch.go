package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// maxLoad caps a single Load at the default index.max_result_window
const maxLoad = 10000

const upsertScript = `
boolean changed = false;
for (entry in params.record.entrySet()) {
	if (ctx._source[entry.getKey()] != entry.getValue()) {
		ctx._source[entry.getKey()] = entry.getValue();
		changed = true;
	}
}
if (changed) { ctx._source.updated_at = params.now } else { ctx.op = 'none' }
`

const markScript = `
if (ctx._source.state == params.from) {
	ctx._source.state = params.to;
	ctx._source.updated_at = params.now;
} else {
	ctx.op = 'none';
}
`

// ElasticsearchStore persists records as documents keyed by id_vac
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	logger *logging.Logger
	now    func() time.Time
}

var _ Storage = (*ElasticsearchStore)(nil)

// NewElasticsearchStore connects to the cluster and creates the index if needed
func NewElasticsearchStore(ctx context.Context, addresses []string, index string, logger *logging.Logger) (*ElasticsearchStore, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	store := newElasticsearchStore(client, index, logger)
	if err := store.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newElasticsearchStore(client *elasticsearch.Client, index string, logger *logging.Logger) *ElasticsearchStore {
	return &ElasticsearchStore{
		client: client,
		index:  index,
		logger: logger.With("storage", "elasticsearch", "index", index),
		now:    time.Now,
	}
}

// Update upserts records through the bulk API. Existing documents keep their
// state; unchanged documents are left as no-ops.
func (s *ElasticsearchStore) Update(ctx context.Context, records []domain.Record) error {
	records = prepare(records, s.logger)
	if len(records) == 0 {
		return nil
	}

	now := s.now().UTC()
	var buf bytes.Buffer

	for _, r := range records {
		meta := map[string]any{
			"update": map[string]any{
				"_index": s.index,
				"_id":    r.IDVac,
			},
		}
		doc := map[string]any{
			"script": map[string]any{
				"source": upsertScript,
				"lang":   "painless",
				"params": map[string]any{"record": r, "now": now},
			},
			"upsert": domain.StoredRecord{Record: r, State: domain.StateActive, UpdatedAt: now},
		}

		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal meta %s: %w", r.IDVac, err)
		}
		docBytes, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", r.IDVac, err)
		}

		buf.Write(metaBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk error: %s", res.Status())
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}

	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return fmt.Errorf("parse bulk response: %w", err)
	}

	if !bulkRes.Errors {
		return nil
	}

	failed := 0
	for _, item := range bulkRes.Items {
		for _, op := range item {
			if op.Status >= 400 {
				failed++
				s.logger.Error("bulk update failed", "id_vac", op.ID, "type", op.Error.Type, "reason", op.Error.Reason)
			}
		}
	}
	return fmt.Errorf("bulk update: %d of %d records failed", failed, len(records))
}

func (s *ElasticsearchStore) Load(ctx context.Context, keywords string) ([]domain.Record, error) {
	query := map[string]any{
		"bool": map[string]any{
			"filter": []any{
				map[string]any{"term": map[string]any{"state": domain.StateActive}},
			},
		},
	}
	if kw := strings.Join(splitKeywords(keywords), " "); kw != "" {
		query["bool"].(map[string]any)["must"] = []any{
			map[string]any{
				"multi_match": map[string]any{
					"query":    kw,
					"type":     "cross_fields",
					"operator": "and",
					"fields":   keywordColumns,
				},
			},
		}
	}

	body, err := json.Marshal(map[string]any{
		"size":  maxLoad,
		"query": query,
		"sort":  []any{map[string]any{"updated_at": "asc"}, map[string]any{"id_vac": "asc"}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var searchRes struct {
		Hits struct {
			Hits []struct {
				Source domain.StoredRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchRes); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	out := make([]domain.Record, 0, len(searchRes.Hits.Hits))
	for _, hit := range searchRes.Hits.Hits {
		out = append(out, hit.Source.Record)
	}
	return out, nil
}

func (s *ElasticsearchStore) MarkDeleted(ctx context.Context, id string) error {
	body, err := json.Marshal(map[string]any{
		"script": s.stateScript(domain.StateActive, domain.StateMarked),
	})
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}

	req := esapi.UpdateRequest{
		Index:      s.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("mark %s: %w", id, domain.ErrNotFound)
	}
	if res.IsError() {
		return fmt.Errorf("update error: %s", res.Status())
	}
	return nil
}

func (s *ElasticsearchStore) ClearMarks(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"query":  map[string]any{"term": map[string]any{"state": domain.StateMarked}},
		"script": s.stateScript(domain.StateMarked, domain.StateActive),
	})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.UpdateByQuery(
		[]string{s.index},
		s.client.UpdateByQuery.WithContext(ctx),
		s.client.UpdateByQuery.WithBody(bytes.NewReader(body)),
		s.client.UpdateByQuery.WithConflicts("proceed"),
		s.client.UpdateByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("update by query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("update by query error: %s", res.Status())
	}
	return nil
}

func (s *ElasticsearchStore) DeleteMarked(ctx context.Context) error {
	return s.deleteByQuery(ctx, map[string]any{"term": map[string]any{"state": domain.StateMarked}})
}

func (s *ElasticsearchStore) DeleteAll(ctx context.Context) error {
	return s.deleteByQuery(ctx, map[string]any{"match_all": map[string]any{}})
}

func (s *ElasticsearchStore) Close() error {
	return nil
}

func (s *ElasticsearchStore) deleteByQuery(ctx context.Context, query map[string]any) error {
	body, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.DeleteByQuery(
		[]string{s.index},
		bytes.NewReader(body),
		s.client.DeleteByQuery.WithContext(ctx),
		s.client.DeleteByQuery.WithConflicts("proceed"),
		s.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("delete by query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete by query error: %s", res.Status())
	}

	var delRes struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&delRes); err == nil && delRes.Deleted > 0 {
		s.logger.Info("records deleted", "count", delRes.Deleted)
	}
	return nil
}

func (s *ElasticsearchStore) stateScript(from, to domain.RecordState) map[string]any {
	return map[string]any{
		"source": markScript,
		"lang":   "painless",
		"params": map[string]any{"from": from, "to": to, "now": s.now().UTC()},
	}
}

// EnsureIndex creates the index with the vacancy mapping if it doesn't exist
func (s *ElasticsearchStore) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := `{
		"settings": {
			"analysis": {
				"analyzer": {
					"vacancy_text": {
						"type": "custom",
						"tokenizer": "standard",
						"filter": ["lowercase"]
					}
				}
			}
		},
		"mappings": {
			"properties": {
				"id_vac": {"type": "keyword"},
				"name_vac": {
					"type": "text",
					"analyzer": "vacancy_text",
					"fields": {"keyword": {"type": "keyword"}}
				},
				"created_at": {"type": "date", "format": "yyyy-MM-dd"},
				"salary_from": {"type": "integer"},
				"salary_to": {"type": "integer"},
				"place": {"type": "text", "analyzer": "vacancy_text"},
				"url_vac": {"type": "keyword"},
				"employer": {"type": "text", "analyzer": "vacancy_text"},
				"skills": {"type": "text", "analyzer": "vacancy_text"},
				"charge": {"type": "text", "analyzer": "vacancy_text"},
				"state": {"type": "keyword"},
				"updated_at": {"type": "date"}
			}
		}
	}`

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}

	s.logger.Info("index created")
	return nil
}
