package js_test

import (
	"math"
	"testing"

	"bennypowers.dev/cajoler/internal/js"
	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	assert.Equal(t, `'it\'s'`, js.Quote("it's"))
	assert.Equal(t, `'a\nb\\c'`, js.Quote("a\nb\\c"))
	assert.Equal(t, `'\x3c/script\x3e'`, js.Quote("</script>"))
	assert.Equal(t, `'\u00e9'`, js.Quote("é"))
	assert.Equal(t, `'\ud83d\ude00'`, js.Quote("\U0001F600"))
	assert.Equal(t, `'\x00'`, js.Quote("\x00"))
}

// TestUnquote tests decoding of string literal source text
func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`'plain'`:        "plain",
		`"dq"`:           "dq",
		`'a\nb'`:         "a\nb",
		`'\x41B'`:        "AB",
		`'\u{1F600}'`:    "\U0001F600",
		`'\ud83d\ude00'`: "\U0001F600",
		`'\101'`:         "A",
		`'\q'`:           "q",
		"'line\\\ncont'": "linecont",
		`'\'quoted\''`:   "'quoted'",
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, js.Unquote(raw))
		})
	}
	for _, s := range []string{"", "x'y\"z", "\t \U0001F600<&>"} {
		assert.Equal(t, s, js.Unquote(js.Quote(s)))
	}
}

// TestNumberToString tests JavaScript number formatting
func TestNumberToString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1.5, "-1.5"},
		{100, "100"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{1.23e-18, "1.23e-18"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, js.NumberToString(tt.in))
	}
}

func TestToInt32(t *testing.T) {
	assert.Equal(t, int32(5), js.ToInt32(4294967301))
	assert.Equal(t, int32(-2147483648), js.ToInt32(2147483648))
	assert.Equal(t, int32(-1), js.ToInt32(-1.9))
	assert.Equal(t, int32(0), js.ToInt32(math.Inf(1)))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, js.IsIdentifier("foo$"))
	assert.True(t, js.IsIdentifier("_"))
	assert.False(t, js.IsIdentifier("if"))
	assert.True(t, js.IsIdentifierName("if"))
	assert.False(t, js.IsIdentifier("1a"))
	assert.False(t, js.IsIdentifier("a-b"))
	assert.False(t, js.IsIdentifier(""))
}
