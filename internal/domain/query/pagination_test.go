package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage_AbsentValuesDefault(t *testing.T) {
	p, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, p.Number)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestParsePage_PresentInvalidValuesAreRejected(t *testing.T) {
	cases := []struct{ page, limit string }{
		{"abc", ""},
		{"0", ""},
		{"-1", ""},
		{"1.5", ""},
		{"", "abc"},
		{"", "0"},
		{"", "101"},
		{"", "-5"},
	}
	for _, c := range cases {
		_, err := ParsePage(c.page, c.limit)
		assert.Error(t, err, "page=%q limit=%q", c.page, c.limit)
	}
}

func TestParsePage_BoundsInclusive(t *testing.T) {
	p, err := ParsePage("1", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Limit)

	p, err = ParsePage("1", "100")
	require.NoError(t, err)
	assert.Equal(t, 100, p.Limit)
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Limit: 10}.Offset())
	assert.Equal(t, 5, Page{Number: 2, Limit: 5}.Offset())
	assert.Equal(t, 990, Page{Number: 100, Limit: 10}.Offset())
}

func TestNewPageMeta_DerivedFields(t *testing.T) {
	meta, err := NewPageMeta(2, 5, 15)
	require.NoError(t, err)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 5, meta.Limit)
	assert.Equal(t, int64(15), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)
}

func TestNewPageMeta_CeilDivision(t *testing.T) {
	meta, err := NewPageMeta(1, 10, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalPages)

	meta, err = NewPageMeta(1, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.TotalPages)
}

func TestNewPageMeta_EmptyResult(t *testing.T) {
	meta, err := NewPageMeta(1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNextPage)
	assert.False(t, meta.HasPrevPage)
}

func TestNewPageMeta_PastTheEndIsNotAnError(t *testing.T) {
	meta, err := NewPageMeta(100, 10, 15)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalPages)
	assert.False(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)
}

func TestNewPageMeta_RejectsOutOfRangeInputs(t *testing.T) {
	_, err := NewPageMeta(0, 10, 5)
	assert.Error(t, err)

	_, err = NewPageMeta(1, 0, 5)
	assert.Error(t, err)

	_, err = NewPageMeta(1, 101, 5)
	assert.Error(t, err)

	_, err = NewPageMeta(1, 10, -1)
	assert.Error(t, err)
}
