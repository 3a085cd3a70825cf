package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gruvbox(t *testing.T) *Palette {
	t.Helper()
	p, err := New(map[string]string{
		"base03":      "#282828",
		"base3":       "#a89984",
		"blue":        "#83a598",
		"github_user": "octocat",
	})
	require.NoError(t, err)
	return p
}

func TestNewRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "1st", "base-03", "a b", "${x}"} {
		_, err := New(map[string]string{name: "#000000"})
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	p := gruvbox(t)

	got, err := p.Expand("${base03}")
	require.NoError(t, err)
	assert.Equal(t, "#282828", got)

	got, err = p.Expand("open https://github.com/${github_user}")
	require.NoError(t, err)
	assert.Equal(t, "open https://github.com/octocat", got)

	got, err = p.Expand("price: $5, literal $${base03}")
	require.NoError(t, err)
	assert.Equal(t, "price: $5, literal ${base03}", got)

	_, err = p.Expand("${red}")
	assert.ErrorIs(t, err, ErrUndefinedConstant)
	assert.ErrorContains(t, err, `"red"`)
}

func TestExpandValue(t *testing.T) {
	t.Parallel()

	p := gruvbox(t)

	got, err := p.ExpandValue([]any{"${blue}", 3, map[string]any{"fg": "${base3}"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"#83a598", 3, map[string]any{"fg": "#a89984"}}, got)

	got, err = p.ExpandValue(true)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	_, err = p.ExpandValue(map[string]any{"bg": "${nope}"})
	assert.ErrorIs(t, err, ErrUndefinedConstant)
	assert.ErrorContains(t, err, `key "bg"`)
}

func TestEscapeRoundTrip(t *testing.T) {
	t.Parallel()

	p := Empty()
	for _, s := range []string{"plain", "${literal}", "$${double}", "a$b${c}"} {
		got, err := p.Expand(Escape(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	escaped := EscapeValue(map[string]string{"k": "${x}"}).(map[string]string)
	assert.Equal(t, "$${x}", escaped["k"])
	assert.Equal(t, []string{"$${y}"}, EscapeValue([]string{"${y}"}))
}

func TestNamesSorted(t *testing.T) {
	t.Parallel()

	p := gruvbox(t)
	assert.Equal(t, []string{"base03", "base3", "blue", "github_user"}, p.Names())
	assert.Equal(t, 4, p.Len())

	v, ok := p.Lookup("blue")
	require.True(t, ok)
	assert.Equal(t, "#83a598", v)
}
