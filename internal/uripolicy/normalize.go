package uripolicy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ErrMalformedURI is returned for text that cannot be read as a URI.
var ErrMalformedURI = errors.New("malformed uri")

// Normalize parses a URI as it appears in markup or a stylesheet. Surrounding
// whitespace is dropped and characters that may not appear in a URI are
// percent-encoded.
func Normalize(raw string) (*url.URL, error) {
	s := strings.TrimFunc(raw, unicode.IsSpace)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c < 0x20 || c == 0x7f:
			return nil, fmt.Errorf("%w: control character in %q", ErrMalformedURI, raw)
		case c >= 0x80 || c == ' ' || c == '"' || c == '<' || c == '>' ||
			c == '\\' || c == '^' || c == '`' || c == '{' || c == '|' || c == '}':
			fmt.Fprintf(&b, "%%%02X", c)
		case c == '%' && !isPercentEscape(s, i):
			b.WriteString("%25")
		default:
			b.WriteByte(c)
		}
	}
	u, err := url.Parse(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURI, err)
	}
	return u, nil
}

func isPercentEscape(s string, i int) bool {
	return i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// Resolve normalizes ref and resolves it against base. A nil base leaves
// relative references relative.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	u, err := Normalize(ref)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}

// ParseBase reads a document base URI, which must be absolute.
func ParseBase(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: base %q is not absolute", ErrMalformedURI, raw)
	}
	return u, nil
}
