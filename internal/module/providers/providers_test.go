package providers

import (
	"testing"

	"github.com/project-tktt/go-vacancies/internal/config"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNames(t *testing.T) {
	cfg := &config.Config{}
	cfg.SJ.APIKey = "secret"

	got, err := FromNames([]string{"sj", "HH", "sj"}, cfg, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.SourceSJ, got[0].Source())
	assert.Equal(t, domain.SourceHH, got[1].Source())
}

func TestFromNames_Errors(t *testing.T) {
	_, err := FromNames([]string{"linkedin"}, &config.Config{}, nil, nil)
	assert.ErrorContains(t, err, "unknown source")

	_, err = FromNames([]string{"sj"}, &config.Config{}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestApplyQuery(t *testing.T) {
	cfg := &config.Config{}
	cfg.SJ.APIKey = "secret"

	ps, err := FromNames([]string{"hh", "sj"}, cfg, nil, nil)
	require.NoError(t, err)

	for _, p := range ps {
		require.NoError(t, ApplyQuery(p, Query{Text: "golang", Count: 50, Page: 2, Location: "1"}))
	}

	err = ApplyQuery(ps[0], Query{Text: "golang", Count: 1000})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedParam)
}
