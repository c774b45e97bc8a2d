package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUTF16ToByteOffset(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		utf16Col   int
		expectByte int
	}{
		{"empty string", "", 0, 0},
		{"ASCII only", "hello world", 5, 5},
		{"beyond end", "hello", 100, 5},
		{"emoji at start", "👍 hello", 2, 4},
		{"inside surrogate pair", "👍 hello", 1, 0},
		{"two byte rune", "héllo", 2, 3},
		{"negative column", "abc", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectByte, UTF16ToByteOffset(tt.s, tt.utf16Col))
		})
	}
}

func TestByteOffsetToUTF16(t *testing.T) {
	assert.Equal(t, 0, ByteOffsetToUTF16("abc", 0))
	assert.Equal(t, 2, ByteOffsetToUTF16("👍 hello", 4))
	assert.Equal(t, 3, ByteOffsetToUTF16("👍 hello", 5))
	assert.Equal(t, 2, ByteOffsetToUTF16("héllo", 3))
	assert.Equal(t, 3, ByteOffsetToUTF16("abc", 99))
}

func TestStringLengthUTF16(t *testing.T) {
	assert.Equal(t, 0, StringLengthUTF16(""))
	assert.Equal(t, 5, StringLengthUTF16("hello"))
	assert.Equal(t, 2, StringLengthUTF16("👍"))
	assert.Equal(t, 1, StringLengthUTF16(" "))
}

// TestRoundTrip tests that conversions agree on rune boundaries
func TestRoundTrip(t *testing.T) {
	s := "a👍b héllo"
	for col := 0; col <= StringLengthUTF16(s); col++ {
		off := UTF16ToByteOffset(s, col)
		back := ByteOffsetToUTF16(s, off)
		assert.LessOrEqual(t, back, col)
	}
}
