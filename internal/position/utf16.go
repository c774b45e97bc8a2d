package position

import (
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16ToByteOffset converts a UTF-16 column on a line into a byte offset.
// A column that falls inside a surrogate pair is clamped to the start of the
// rune.
func UTF16ToByteOffset(s string, utf16Col int) int {
	units, off := 0, 0
	for off < len(s) && units < utf16Col {
		r, size := utf8.DecodeRuneInString(s[off:])
		n := 1
		if !(r == utf8.RuneError && size == 1) {
			n = utf16.RuneLen(r)
		}
		if n == 2 && units+1 == utf16Col {
			break
		}
		units += n
		off += size
	}
	return off
}

// ByteOffsetToUTF16 converts a byte offset on a line into a UTF-16 column.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	units, off := 0, 0
	for off < byteOffset {
		r, size := utf8.DecodeRuneInString(s[off:])
		if off+size > byteOffset {
			break
		}
		if r == utf8.RuneError && size == 1 {
			units++
		} else {
			units += utf16.RuneLen(r)
		}
		off += size
	}
	return units
}

// StringLengthUTF16 returns the number of UTF-16 code units in s.
// JavaScript string lengths are measured this way.
func StringLengthUTF16(s string) int {
	return ByteOffsetToUTF16(s, len(s))
}
