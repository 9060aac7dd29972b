package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type esCall struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeES struct {
	mu     sync.Mutex
	calls  []esCall
	status int
	body   string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, esCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	status, resp := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, resp)
}

func (f *fakeES) last() esCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestESStore(t *testing.T, fake *fakeES) *ElasticsearchStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	s := newElasticsearchStore(client, "vacancies", logging.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestElasticsearchStore_Update(t *testing.T) {
	fake := &fakeES{body: `{"errors":false,"items":[{"update":{"_id":"hh_1","status":201}}]}`}
	s := newTestESStore(t, fake)

	err := s.Update(context.Background(), []domain.Record{sample("hh_1", "Go developer"), sample("bogus", "dropped")})
	require.NoError(t, err)

	call := fake.last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/_bulk", call.Path)
	assert.Contains(t, call.Query, "refresh=wait_for")

	lines := strings.Split(strings.TrimSpace(call.Body), "\n")
	require.Len(t, lines, 2, "invalid record is not sent")

	var meta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, "hh_1", meta["update"]["_id"])
	assert.Equal(t, "vacancies", meta["update"]["_index"])

	var doc struct {
		Upsert domain.StoredRecord `json:"upsert"`
		Script struct {
			Params struct {
				Record domain.Record `json:"record"`
			} `json:"params"`
		} `json:"script"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, domain.StateActive, doc.Upsert.State)
	assert.Equal(t, "Go developer", doc.Upsert.NameVac)
	assert.Equal(t, "hh_1", doc.Script.Params.Record.IDVac)
}

func TestElasticsearchStore_UpdateEmpty(t *testing.T) {
	fake := &fakeES{}
	s := newTestESStore(t, fake)

	require.NoError(t, s.Update(context.Background(), nil))
	assert.Empty(t, fake.calls)
}

func TestElasticsearchStore_UpdatePartialFailure(t *testing.T) {
	fake := &fakeES{body: `{"errors":true,"items":[
		{"update":{"_id":"hh_1","status":200}},
		{"update":{"_id":"hh_2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}
	]}`}
	s := newTestESStore(t, fake)

	err := s.Update(context.Background(), []domain.Record{sample("hh_1", "one"), sample("hh_2", "two")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestElasticsearchStore_Load(t *testing.T) {
	fake := &fakeES{body: `{"hits":{"hits":[
		{"_id":"hh_1","_source":{"id_vac":"hh_1","name_vac":"Go developer","created_at":"2024-03-01","salary_from":1000,"salary_to":0,"state":"active"}},
		{"_id":"sj_2","_source":{"id_vac":"sj_2","name_vac":"Analyst","created_at":"2024-03-02","salary_from":0,"salary_to":0,"state":"active"}}
	]}}`}
	s := newTestESStore(t, fake)

	got, err := s.Load(context.Background(), "  Go  Developer ")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_1", "sj_2"}, ids(got))
	assert.Equal(t, 1000, got[0].SalaryFrom)

	call := fake.last()
	assert.Equal(t, "/vacancies/_search", call.Path)
	assert.Contains(t, call.Body, `"operator":"and"`)
	assert.Contains(t, call.Body, `"query":"go developer"`)
	assert.Contains(t, call.Body, `"state":"active"`)
}

func TestElasticsearchStore_LoadAll(t *testing.T) {
	fake := &fakeES{body: `{"hits":{"hits":[]}}`}
	s := newTestESStore(t, fake)

	got, err := s.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotContains(t, fake.last().Body, "multi_match")
}

func TestElasticsearchStore_MarkDeleted(t *testing.T) {
	fake := &fakeES{body: `{"result":"updated"}`}
	s := newTestESStore(t, fake)

	require.NoError(t, s.MarkDeleted(context.Background(), "hh_1"))

	call := fake.last()
	assert.Equal(t, "/vacancies/_update/hh_1", call.Path)
	assert.Contains(t, call.Body, `"from":"active"`)
	assert.Contains(t, call.Body, `"to":"marked"`)
}

func TestElasticsearchStore_MarkDeletedNotFound(t *testing.T) {
	fake := &fakeES{status: http.StatusNotFound, body: `{"error":{"type":"document_missing_exception"},"status":404}`}
	s := newTestESStore(t, fake)

	assert.ErrorIs(t, s.MarkDeleted(context.Background(), "hh_404"), domain.ErrNotFound)
}

func TestElasticsearchStore_ClearMarks(t *testing.T) {
	fake := &fakeES{body: `{"updated":1}`}
	s := newTestESStore(t, fake)

	require.NoError(t, s.ClearMarks(context.Background()))

	call := fake.last()
	assert.Equal(t, "/vacancies/_update_by_query", call.Path)
	assert.Contains(t, call.Body, `"state":"marked"`)
	assert.Contains(t, call.Body, `"to":"active"`)
}

func TestElasticsearchStore_Deletes(t *testing.T) {
	fake := &fakeES{body: `{"deleted":2}`}
	s := newTestESStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.DeleteMarked(ctx))
	call := fake.last()
	assert.Equal(t, "/vacancies/_delete_by_query", call.Path)
	assert.Contains(t, call.Body, `"state":"marked"`)

	require.NoError(t, s.DeleteAll(ctx))
	assert.Contains(t, fake.last().Body, "match_all")
}

func TestElasticsearchStore_EnsureIndex(t *testing.T) {
	fake := &fakeES{status: http.StatusNotFound}
	s := newTestESStore(t, fake)

	err := s.EnsureIndex(context.Background())
	require.Error(t, err, "create fails while the fake keeps answering 404")

	require.Len(t, fake.calls, 2)
	assert.Equal(t, http.MethodHead, fake.calls[0].Method)
	assert.Equal(t, http.MethodPut, fake.calls[1].Method)
	assert.Contains(t, fake.calls[1].Body, `"id_vac": {"type": "keyword"}`)
}
