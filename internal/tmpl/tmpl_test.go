package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	e := New()

	out, err := e.Render("greet", "Hello {{ name }}{% if loud %}!{% endif %}", map[string]interface{}{
		"name": "Ada",
		"loud": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", out)
}

func TestRenderCachesByName(t *testing.T) {
	e := New()

	_, err := e.Render("t", "first {{ v }}", map[string]interface{}{"v": 1})
	require.NoError(t, err)

	out, err := e.Render("t", "second {{ v }}", map[string]interface{}{"v": 2})
	require.NoError(t, err)
	assert.Equal(t, "first 2", out)
}

func TestOnelineFilter(t *testing.T) {
	out, err := New().Render("s", "{{ s | oneline }}", map[string]interface{}{"s": "a\n  b\tc "})
	require.NoError(t, err)
	assert.Equal(t, "a b c", out)
}

func TestParseError(t *testing.T) {
	_, err := New().Render("bad", "{% if x %}never closed", nil)
	assert.Error(t, err)
}
