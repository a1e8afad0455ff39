package jsonrepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fence with language token",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "python fence",
			in:   "```python\n{'a': 1}\n```",
			want: `{'a': 1}`,
		},
		{
			name: "scheme literals stripped",
			in:   `{"link": "https://example.com/x"}`,
			want: `{"link": "example.com/x"}`,
		},
		{
			name: "whitespace collapsed",
			in:   "{  \"a\":\n\n 1,\r\n \"b\":  2 }",
			want: `{ "a": 1, "b": 2 }`,
		},
		{
			name: "backslashes stripped",
			in:   `{\"a\": 1}`,
			want: `{"a": 1}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clean(tc.in))
		})
	}
}

func TestRepairStrictJSONPassthrough(t *testing.T) {
	val, ok := Repair(`{"Yahoo News": [{"title": "A", "summary": "B", "link": "x", "topic": "Energy"}]}`)
	require.True(t, ok)

	doc, ok := val.(map[string]any)
	require.True(t, ok)
	articles, ok := doc["Yahoo News"].([]any)
	require.True(t, ok)
	require.Len(t, articles, 1)

	article := articles[0].(map[string]any)
	assert.Equal(t, "A", article["title"])
	assert.Equal(t, "Energy", article["topic"])
}

func TestRepairFencedSingleQuoted(t *testing.T) {
	// Fenced near-JSON with bare keys, single quotes, and a scheme literal.
	raw := "```json\n{title:'A',summary:'B',link:'http://x',topic:'Energy'}\n```"

	val, ok := Repair(raw)
	require.True(t, ok)

	obj, ok := val.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"title":   "A",
		"summary": "B",
		"link":    "x",
		"topic":   "Energy",
	}, obj)
}

func TestRepairRequotesBareKeys(t *testing.T) {
	// Missing outer braces with double-quoted values: only the final rung
	// (quote keys, re-wrap, strict parse) can recover this.
	val, ok := Repair(`title:"A", summary:"B"`)
	require.True(t, ok)

	obj, ok := val.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "A", obj["title"])
	assert.Equal(t, "B", obj["summary"])
}

func TestRepairDegradesToCleanedString(t *testing.T) {
	raw := "```\nSorry, I could not produce JSON for this request.\n```"

	val, ok := Repair(raw)
	require.False(t, ok)
	assert.Equal(t, "Sorry, I could not produce JSON for this request.", val)
}

func TestRepairNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"{",
		"}{",
		"[1, 2",
		"'unterminated",
		"{'a': }",
		"{:1}",
		"\\\\\\",
		"```json```",
		"{a:1,}",
	}

	for _, in := range inputs {
		require.NotPanics(t, func() {
			val, ok := Repair(in)
			if !ok {
				_, isString := val.(string)
				assert.True(t, isString, "degraded value for %q must be the cleaned string", in)
			}
		})
	}
}

func TestRepairPythonLiterals(t *testing.T) {
	val, ok := Repair(`{'ready': True, 'missing': None, 'count': 3}`)
	require.True(t, ok)

	obj := val.(map[string]any)
	assert.Equal(t, true, obj["ready"])
	assert.Nil(t, obj["missing"])
	assert.Equal(t, float64(3), obj["count"])
}

func TestParseLiteralRejectsTrailingComma(t *testing.T) {
	_, err := parseLiteral(`{"a": 1,}`)
	assert.Error(t, err)
}

func TestRepairNestedMultiSource(t *testing.T) {
	raw := "```json\n{'Yahoo News':[{title:'Rally',summary:'S',link:'https://y/a',topic:'Energy'}]," +
		"'Bloomberg':[{title:'Drop',summary:'T',link:'https://b/c',topic:'Politics'}]}\n```"

	val, ok := Repair(raw)
	require.True(t, ok)

	doc := val.(map[string]any)
	require.Contains(t, doc, "Yahoo News")
	require.Contains(t, doc, "Bloomberg")

	yahoo := doc["Yahoo News"].([]any)
	require.Len(t, yahoo, 1)
	assert.Equal(t, "y/a", yahoo[0].(map[string]any)["link"])
}
