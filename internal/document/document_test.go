package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/settingsd/internal/binding"
)

func keys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	cases := map[string]Format{
		"settings.yaml":   FormatYAML,
		"/etc/x/conf.yml": FormatYAML,
		"settings.TOML":   FormatTOML,
		"./settings.json": FormatJSON,
	}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("config.py")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = FormatFromPath("settings")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseYAMLKeepsSourceOrderAndNesting(t *testing.T) {
	t.Parallel()

	src := `
palette:
  bg: "#282828"
settings:
  tabs.position: top
  colors:
    completion:
      bg: ${bg}
      odd.bg: "#32302f"
  url.start_pages:
    - https://duckduckgo.com
`
	doc, err := Parse([]byte(src), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"bg": "#282828"}, doc.Palette)
	require.Equal(t, []string{"tabs.position", "colors", "url.start_pages"}, keys(doc.Settings))

	assert.Equal(t, "top", doc.Settings[0].Value)
	assert.Equal(t, 5, doc.Settings[0].Line)

	colors := doc.Settings[1]
	require.Len(t, colors.Children, 1)
	completion := colors.Children[0]
	assert.Equal(t, "completion", completion.Key)
	assert.Equal(t, []string{"bg", "odd.bg"}, keys(completion.Children))
	assert.Equal(t, "${bg}", completion.Children[0].Value)

	assert.Equal(t, []any{"https://duckduckgo.com"}, doc.Settings[2].Value)
}

func TestParseYAMLBindingForms(t *testing.T) {
	t.Parallel()

	sequence := `
bindings:
  - key: xb
    command: config-cycle statusbar.show always never
  - trigger: <F12>
    command: devtools
`
	doc, err := Parse([]byte(sequence), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Bindings, 2)
	assert.Equal(t, "xb", doc.Bindings[0].Trigger)
	assert.Equal(t, "config-cycle statusbar.show always never", doc.Bindings[0].Command)
	assert.Equal(t, 3, doc.Bindings[0].Line)
	assert.Equal(t, "<F12>", doc.Bindings[1].Trigger)

	mapping := `
bindings:
  pw: spawn --userscript password_fill
  ",g": open https://github.com
`
	doc, err = Parse([]byte(mapping), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Bindings, 2)
	assert.Equal(t, "pw", doc.Bindings[0].Trigger)
	assert.Equal(t, ",g", doc.Bindings[1].Trigger)
	assert.Equal(t, "open https://github.com", doc.Bindings[1].Command)
}

func TestParseYAMLKeepsNonStringCommands(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte("bindings:\n  - {key: x, command: 42}\n"), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Bindings, 1)
	assert.Equal(t, 42, doc.Bindings[0].Command)
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown section":    "options:\n  tabs.position: top\n",
		"list at top level":  "- a\n- b\n",
		"nested palette":     "palette:\n  bg:\n    - a\n",
		"scalar settings":    "settings: 3\n",
		"binding field":      "bindings:\n  - {key: x, cmd: y}\n",
		"scalar binding":     "bindings:\n  - xb\n",
		"broken indentation": "settings:\n  a: [1, 2\n",
	}
	for name, src := range cases {
		_, err := Parse([]byte(src), FormatYAML)
		assert.ErrorIs(t, err, ErrSyntax, name)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "# only a comment\n", "settings:\n"} {
		doc, err := Parse([]byte(src), FormatYAML)
		require.NoError(t, err)
		assert.Empty(t, doc.Settings)
		assert.Empty(t, doc.Bindings)
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	src := `{
  "palette": {"user": "octocat"},
  "settings": {"tabs.show": "multiple", "content": {"autoplay": false}},
  "bindings": [{"key": ",gh", "command": "open https://github.com/${user}"}]
}`
	doc, err := Parse([]byte(src), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "octocat", doc.Palette["user"])
	assert.Equal(t, []string{"tabs.show", "content"}, keys(doc.Settings))
	assert.Equal(t, false, doc.Settings[1].Children[0].Value)
	require.Len(t, doc.Bindings, 1)
	assert.Equal(t, ",gh", doc.Bindings[0].Trigger)
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	src := `
[palette]
bg = "#282828"
size = 10

[settings]
"tabs.position" = "left"
"url.start_pages" = ["https://duckduckgo.com"]
"content.autoplay" = false

[settings.colors.completion]
bg = "${bg}"

[[bindings]]
key = "xb"
command = "config-cycle statusbar.show always never"

[[bindings]]
key = "<F12>"
command = "devtools"
`
	doc, err := Parse([]byte(src), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"bg": "#282828", "size": "10"}, doc.Palette)
	require.Equal(t, []string{"tabs.position", "url.start_pages", "content.autoplay", "colors"}, keys(doc.Settings))
	assert.Equal(t, []any{"https://duckduckgo.com"}, doc.Settings[1].Value)

	colors := doc.Settings[3]
	require.Len(t, colors.Children, 1)
	assert.Equal(t, "completion", colors.Children[0].Key)
	assert.Equal(t, "${bg}", colors.Children[0].Children[0].Value)

	require.Len(t, doc.Bindings, 2)
	assert.Equal(t, "xb", doc.Bindings[0].Trigger)
	assert.Equal(t, "devtools", doc.Bindings[1].Command)
}

func TestParseTOMLRejectsUnknownSection(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("[options]\nx = 1\n"), FormatTOML)
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = Parse([]byte("[settings\n"), FormatTOML)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestSampleParses(t *testing.T) {
	t.Parallel()

	doc, err := Parse(Sample, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "YOUR_USERNAME", doc.Palette["github_user"])
	assert.Equal(t, "#282828", doc.Palette["base03"])
	assert.Len(t, doc.Bindings, 12)
	assert.NotEmpty(t, doc.Settings)
}

func TestEncodeEscapesPaletteReferences(t *testing.T) {
	t.Parallel()

	options := map[string]any{
		"tabs.title.format":  "${literal}",
		"url.start_pages":    []string{"https://duckduckgo.com"},
		"content.cache.size": nil,
	}
	bindings := []binding.Entry{{Trigger: "xb", Command: "open ${x}"}}

	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSON} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, format, options, bindings), format)

		doc, err := Parse(buf.Bytes(), format)
		require.NoError(t, err, format)

		values := map[string]any{}
		for _, e := range doc.Settings {
			values[e.Key] = e.Value
		}
		assert.Equal(t, "$${literal}", values["tabs.title.format"], format)
		assert.Equal(t, []any{"https://duckduckgo.com"}, values["url.start_pages"], format)
		require.Len(t, doc.Bindings, 1, format)
		assert.Equal(t, "open $${x}", doc.Bindings[0].Command, format)

		_, hasNull := values["content.cache.size"]
		assert.Equal(t, format != FormatTOML, hasNull, format)
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Encode(&buf, Format("ini"), nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.True(t, strings.Contains(err.Error(), "ini"))
}
