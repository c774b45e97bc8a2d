package js

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Quote renders s as a single quoted JavaScript string literal. Everything
// outside printable ASCII is escaped, as are the characters that could end
// an enclosing HTML or XML context (<, >, &) so the literal can be embedded
// in a script element or attribute as is.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '<', '>', '&':
			writeHexEscape(&b, r)
		default:
			switch {
			case r < 0x20 || r == 0x7f:
				writeHexEscape(&b, r)
			case r < 0x7f:
				b.WriteRune(r)
			default:
				for _, u := range utf16.Encode([]rune{r}) {
					b.WriteString(`\u`)
					b.WriteString(hex4(int(u)))
				}
			}
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func writeHexEscape(b *strings.Builder, r rune) {
	const digits = "0123456789abcdef"
	b.WriteString(`\x`)
	b.WriteByte(digits[r>>4&0xf])
	b.WriteByte(digits[r&0xf])
}

func hex4(v int) string {
	s := strconv.FormatInt(int64(v), 16)
	return strings.Repeat("0", 4-len(s)) + s
}

// Unquote decodes quoted JavaScript string source text. Malformed escapes
// decode to the escaped character itself, as browsers do in sloppy mode.
func Unquote(raw string) string {
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}
	var units []uint16
	flush := func(r rune) {
		units = utf16.AppendRune(units, r)
	}
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(raw[i:])
			flush(r)
			i += size
			continue
		}
		i++
		if i >= len(raw) {
			break
		}
		c = raw[i]
		switch c {
		case 'n':
			flush('\n')
			i++
		case 't':
			flush('\t')
			i++
		case 'r':
			flush('\r')
			i++
		case 'b':
			flush('\b')
			i++
		case 'f':
			flush('\f')
			i++
		case 'v':
			flush('\v')
			i++
		case '\r':
			i++
			if i < len(raw) && raw[i] == '\n' {
				i++
			}
		case '\n':
			i++
		case 'x':
			if v, ok := parseHex(raw, i+1, 2); ok {
				units = append(units, uint16(v))
				i += 3
			} else {
				flush('x')
				i++
			}
		case 'u':
			if i+1 < len(raw) && raw[i+1] == '{' {
				end := strings.IndexByte(raw[i:], '}')
				if end > 2 {
					if v, err := strconv.ParseUint(raw[i+2:i+end], 16, 32); err == nil && v <= unicode.MaxRune {
						flush(rune(v))
						i += end + 1
						continue
					}
				}
				flush('u')
				i++
			} else if v, ok := parseHex(raw, i+1, 4); ok {
				units = append(units, uint16(v))
				i += 5
			} else {
				flush('u')
				i++
			}
		default:
			if c >= '0' && c <= '7' {
				v, j := 0, i
				for j < len(raw) && j < i+3 && raw[j] >= '0' && raw[j] <= '7' && v*8+int(raw[j]-'0') <= 0377 {
					v = v*8 + int(raw[j]-'0')
					j++
				}
				units = append(units, uint16(v))
				i = j
				continue
			}
			r, size := utf8.DecodeRuneInString(raw[i:])
			if r != 0x2028 && r != 0x2029 {
				flush(r)
			}
			i += size
		}
	}
	return string(utf16.Decode(units))
}

func parseHex(s string, at, n int) (int, bool) {
	if at+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// NumberToString formats f the way JavaScript's Number.prototype.toString
// does for radix 10.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f < 0:
		return "-" + NumberToString(-f)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(s, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k, n := len(digits), exp+1
	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}
	e := n - 1
	sign := "+"
	if e < 0 {
		sign, e = "-", -e
	}
	out := digits[:1]
	if k > 1 {
		out += "." + digits[1:]
	}
	return out + "e" + sign + strconv.Itoa(e)
}

// ToInt32 applies the ECMAScript ToInt32 conversion.
func ToInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	m := math.Mod(f, 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return int32(uint32(m))
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"implements": true, "import": true, "in": true, "instanceof": true,
	"interface": true, "let": true, "new": true, "null": true, "package": true,
	"private": true, "protected": true, "public": true, "return": true,
	"static": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true,
}

// IsReservedWord reports whether s may not be used as an identifier.
func IsReservedWord(s string) bool {
	return reservedWords[s]
}

// IsIdentifierName reports whether s is lexically an identifier name,
// reserved or not.
func IsIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '$' || r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Pc, r)):
		default:
			return false
		}
	}
	return true
}

// IsIdentifier reports whether s can be used as a variable name.
func IsIdentifier(s string) bool {
	return IsIdentifierName(s) && !IsReservedWord(s)
}
