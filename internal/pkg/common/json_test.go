package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"surrounded by prose", "Here you go:\n{\"a\":1}\nEnjoy!", `{"a":1}`, true},
		{"code fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"braces in strings", `{"t":"use {curly} braces"}`, `{"t":"use {curly} braces"}`, true},
		{"escaped quote", `{"t":"say \"}\" now"}`, `{"t":"say \"}\" now"}`, true},
		{"first balanced wins", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"unclosed outer object", `{ oops {"a":1}`, "", false},
		{"truncated reply keeps nested object out", `{"title":"Soup","nutrition":{"calories":"200"},"instructions":["boil`, "", false},
		{"no object", "no json here", "", false},
		{"only open brace", "{", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		N interface{} `json:"n"`
	}
	require.NoError(t, ParseJSON(`{"n":1.50}`, &v))
	assert.Equal(t, "1.50", v.N.(interface{ String() string }).String())

	assert.Error(t, ParseJSON(`{"n":1} trailing`, &v))

	var b struct {
		A string `json:"a"`
	}
	require.NoError(t, ParseJSONBytes([]byte(`{"a":"x","extra":true}`), &b))
	assert.Equal(t, "x", b.A)
	assert.Error(t, ParseJSONBytes([]byte(`{"a":`), &b))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "番茄", Truncate("番茄湯", 2))
	assert.Equal(t, "soup", Truncate("soup", 10))
	assert.Equal(t, "", Truncate("soup", 0))
}
