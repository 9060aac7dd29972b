package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollyTransport_Get(t *testing.T) {
	var gotQuery url.Values
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("X-Api-App-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	tr := NewCollyTransport(Config{UserAgent: "test-agent", Timeout: 5 * time.Second})

	params := url.Values{}
	params.Set("text", "golang")
	params.Add("search_field", "name")
	params.Add("search_field", "description")

	resp, err := tr.Get(context.Background(), srv.URL+"/vacancies?period=1", map[string]string{"X-Api-App-Id": "secret"}, params)
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"items":[]}`, string(resp.Body))
	assert.Equal(t, "golang", gotQuery.Get("text"))
	assert.Equal(t, "1", gotQuery.Get("period"))
	assert.Equal(t, []string{"name", "description"}, gotQuery["search_field"])
	assert.Equal(t, "secret", gotKey)
}

func TestCollyTransport_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"type":"forbidden"}]}`))
	}))
	defer srv.Close()

	tr := NewCollyTransport(Config{Timeout: 5 * time.Second})

	resp, err := tr.Get(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestCollyTransport_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	tr := NewCollyTransport(Config{Timeout: time.Second})

	_, err := tr.Get(context.Background(), addr, nil, nil)
	assert.Error(t, err)
}
