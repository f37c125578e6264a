package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

func TestExtractObject(t *testing.T) {
	t.Parallel()
	n := NewResponseNormalizer()

	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "clean json",
			raw:  `{"problem_statement":"p","target_users":["a"]}`,
			want: map[string]any{"problem_statement": "p", "target_users": []any{"a"}},
		},
		{
			name: "json fence",
			raw:  "```json\n{\"k\":\"v\"}\n```",
			want: map[string]any{"k": "v"},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"k\":\"v\"}\n```",
			want: map[string]any{"k": "v"},
		},
		{
			name: "prose around the object",
			raw:  "Sure! Here is the analysis:\n{\"k\":\"v\"}\nHope that helps.",
			want: map[string]any{"k": "v"},
		},
		{
			name: "single quotes repaired",
			raw:  `{'k': 'v'}`,
			want: map[string]any{"k": "v"},
		},
		{
			name: "trailing comma repaired",
			raw:  `{"k":"v",}`,
			want: map[string]any{"k": "v"},
		},
		{
			name: "bare keys quoted",
			raw:  `{k: "v", other_key: "w"}`,
			want: map[string]any{"k": "v", "other_key": "w"},
		},
		{
			name: "all repairs together",
			raw:  "```json\n{problem: 'solved', users: ['a', 'b'],}\n```",
			want: map[string]any{"problem": "solved", "users": []any{"a", "b"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := n.Extract(tc.raw, ShapeObject)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractArray(t *testing.T) {
	t.Parallel()
	n := NewResponseNormalizer()

	got, err := n.Extract("Here you go:\n```json\n[{\"title\":\"t\"},{\"title\":\"u\"}]\n```", ShapeArray)
	require.NoError(t, err)
	arr, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, arr, 2)
	first, ok := arr[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "t", first["title"])
}

func TestExtractGreedySpan(t *testing.T) {
	t.Parallel()
	n := NewResponseNormalizer()

	// The span runs from the first opening to the last closing delimiter, so
	// nested objects survive intact.
	got, err := n.Extract(`{"outer":{"inner":1}}`, ShapeObject)
	require.NoError(t, err)
	m := got.(map[string]any)
	assert.Contains(t, m, "outer")
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()
	n := NewResponseNormalizer()

	tests := []struct {
		name  string
		raw   string
		shape Shape
	}{
		{name: "no delimiters", raw: "I could not produce JSON, sorry.", shape: ShapeObject},
		{name: "wrong shape", raw: `{"k":"v"}`, shape: ShapeArray},
		{name: "closing before opening", raw: "} nothing {", shape: ShapeObject},
		{name: "unparseable after repair", raw: `{"k": not even close}`, shape: ShapeObject},
		{name: "empty input", raw: "", shape: ShapeArray},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := n.Extract(tc.raw, tc.shape)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}
