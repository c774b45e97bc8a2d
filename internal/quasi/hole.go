package quasi

import (
	"strings"

	"bennypowers.dev/cajoler/internal/js"
)

// holePrefix marks encoded hole names. The JavaScript grammar has no @
// sigil, so @name holes are rewritten to identifiers before parsing.
const holePrefix = "$$hole$"

type cardinality int

const (
	single cardinality = iota
	optional
	multi
	nonEmptyMulti
)

func (c cardinality) suffix() string {
	switch c {
	case optional:
		return "?"
	case multi:
		return "*"
	case nonEmptyMulti:
		return "+"
	}
	return ""
}

func (c cardinality) bounds() (min, max int) {
	switch c {
	case optional:
		return 0, 1
	case multi:
		return 0, -1
	case nonEmptyMulti:
		return 1, -1
	}
	return 1, 1
}

var suffixCodes = map[byte]string{'*': "s", '+': "p", '?': "o"}

var codeCards = map[string]cardinality{"": single, "s": multi, "p": nonEmptyMulti, "o": optional}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// encodeHoles rewrites the @name, @name*, @name+, @name? and @name__ sigils
// found outside string literals and comments into plain identifiers.
func encodeHoles(text string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j := i + 1
			for j < len(text) && text[j] != c {
				if text[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(text))
			b.WriteString(text[i:j])
			i = j
		case strings.HasPrefix(text[i:], "//"):
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				j = len(text) - i
			}
			b.WriteString(text[i : i+j])
			i += j
		case strings.HasPrefix(text[i:], "/*"):
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				return "", malformed("unterminated comment")
			}
			b.WriteString(text[i : i+j+4])
			i += j + 4
		case c == '@':
			j := i + 1
			for j < len(text) && isNameByte(text[j]) {
				j++
			}
			name := text[i+1 : j]
			if name == "" || name[0] >= '0' && name[0] <= '9' {
				return "", malformed("bad hole name at offset %d", i)
			}
			code := ""
			if j < len(text) {
				if sc, ok := suffixCodes[text[j]]; ok {
					code = sc
					j++
				}
			}
			if code != "" && strings.HasSuffix(name, "_") {
				return "", malformed("hole @%s cannot combine trailing underscores with a suffix", name)
			}
			b.WriteString(holePrefix + name + "$" + code)
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

type holeSpec struct {
	name        string
	card        cardinality
	underscores int
}

// decodeHole recognises an identifier produced by encodeHoles.
func decodeHole(ident string) (holeSpec, bool, error) {
	rest, ok := strings.CutPrefix(ident, holePrefix)
	if !ok {
		return holeSpec{}, false, nil
	}
	i := strings.LastIndexByte(rest, '$')
	if i < 0 {
		return holeSpec{}, false, malformed("bad encoded hole %q", ident)
	}
	name, code := rest[:i], rest[i+1:]
	card, ok := codeCards[code]
	if !ok {
		return holeSpec{}, false, malformed("bad encoded hole %q", ident)
	}
	base := strings.TrimRight(name, "_")
	if base == "" {
		return holeSpec{}, false, malformed("hole %q has no name", ident)
	}
	return holeSpec{name: base, card: card, underscores: len(name) - len(base)}, true, nil
}

// quasiIdent recognises a string literal value of the form @name with an
// optional cardinality suffix.
func quasiIdent(value string) (string, cardinality, bool) {
	name, ok := strings.CutPrefix(value, "@")
	if !ok || name == "" {
		return "", single, false
	}
	card := single
	switch name[len(name)-1] {
	case '*':
		card = multi
	case '+':
		card = nonEmptyMulti
	case '?':
		card = optional
	}
	if card != single {
		name = name[:len(name)-1]
	}
	if !js.IsIdentifierName(name) {
		return "", single, false
	}
	return name, card, true
}
