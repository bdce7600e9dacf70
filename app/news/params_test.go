package news

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams_Defaults(t *testing.T) {
	p := ParseParams(url.Values{}, 10)

	assert.Equal(t, DefaultSort, p.Sort)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Empty(t, p.Categories)
}

func TestParseParams_MalformedNumbersFallBack(t *testing.T) {
	values := url.Values{
		"limit":  {"ten"},
		"offset": {"-4"},
	}

	p := ParseParams(values, 12)

	assert.Equal(t, 12, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestParseParams_ClampsLimit(t *testing.T) {
	p := ParseParams(url.Values{"limit": {"5000"}}, 10)
	assert.Equal(t, MaxPageSize, p.Limit)
}

func TestParseParams_FoldsLists(t *testing.T) {
	values := url.Values{
		"categories": {" Technology, SPORTS ,,"},
		"countries":  {"US,Gb"},
		"keywords":   {"  Climate Deal "},
	}

	p := ParseParams(values, 10)

	assert.Equal(t, "technology,sports", p.Categories)
	assert.Equal(t, "us,gb", p.Countries)
	assert.Equal(t, "Climate Deal", p.Keywords)
}

func TestNormalize_ZeroPageSize(t *testing.T) {
	p := Params{}.Normalize(0)
	assert.Equal(t, DefaultPageSize, p.Limit)
}

func TestCategoryList(t *testing.T) {
	p := Params{Categories: "business,-sports,-,health"}

	include, exclude := p.CategoryList()

	assert.Equal(t, []string{"business", "health"}, include)
	assert.Equal(t, []string{"sports"}, exclude)
}

func TestValues(t *testing.T) {
	p := Params{Categories: "technology", Keywords: "ai"}.Normalize(10)

	v := p.Values("secret-key")

	require.Equal(t, "secret-key", v.Get("access_key"))
	assert.Equal(t, DefaultSort, v.Get("sort"))
	assert.Equal(t, "technology", v.Get("categories"))
	assert.Equal(t, "ai", v.Get("keywords"))
	assert.Equal(t, "10", v.Get("limit"))
	assert.Equal(t, "0", v.Get("offset"))
	assert.False(t, v.Has("countries"))
	assert.False(t, v.Has("date"))
}
