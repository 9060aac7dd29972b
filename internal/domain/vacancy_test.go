package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() Record {
	return Record{
		IDVac:     "hh_123",
		NameVac:   "Go developer",
		CreatedAt: "2024-03-01",
		URLVac:    "https://hh.ru/vacancy/123",
	}
}

func TestRecordValidate(t *testing.T) {
	require.NoError(t, validRecord().Validate())

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"missing id", func(r *Record) { r.IDVac = "" }},
		{"unknown prefix", func(r *Record) { r.IDVac = "xx_1" }},
		{"bare prefix", func(r *Record) { r.IDVac = "sj_" }},
		{"missing name", func(r *Record) { r.NameVac = "" }},
		{"timestamp instead of date", func(r *Record) { r.CreatedAt = "2024-03-01T10:00:00+0300" }},
		{"negative salary", func(r *Record) { r.SalaryTo = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestSourceOf(t *testing.T) {
	src, ok := SourceOf("sj_456")
	require.True(t, ok)
	assert.Equal(t, SourceSJ, src)
	assert.Equal(t, "sj_456", SourceSJ.ID("456"))

	_, ok = SourceOf("456")
	assert.False(t, ok)
}

func TestParseSource(t *testing.T) {
	src, ok := ParseSource(" HH ")
	require.True(t, ok)
	assert.Equal(t, SourceHH, src)

	_, ok = ParseSource("linkedin")
	assert.False(t, ok)
}

func TestRecordStateTransitions(t *testing.T) {
	assert.True(t, StateActive.CanTransition(StateMarked))
	assert.True(t, StateMarked.CanTransition(StateActive))
	assert.True(t, StateMarked.CanTransition(StateDeleted))
	assert.True(t, StateActive.CanTransition(StateDeleted))
	assert.False(t, StateDeleted.CanTransition(StateActive))
	assert.False(t, StateDeleted.CanTransition(StateMarked))
}

func TestParamErrorUnwrap(t *testing.T) {
	err := error(&ParamError{Source: SourceHH, Key: "bogus", Err: ErrUnknownParam})
	assert.True(t, errors.Is(err, ErrUnknownParam))
	assert.Contains(t, err.Error(), "bogus")
}
