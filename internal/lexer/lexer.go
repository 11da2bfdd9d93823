// Package lexer tokenizes the surface S-expression syntax. It is grounded
// on original_source/src/frontend/lexer.rs: a single pass over the input
// runes, splitting on whitespace and the two parenthesis characters, with
// no other special characters in the grammar.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/token"
)

// Tokenize converts source text into a flat token stream. It returns a
// *diag.ParseError if it encounters a character outside the supported
// ASCII symbol/punctuation set.
func Tokenize(src string) ([]token.Token, error) {
	var out []token.Token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '(':
			out = append(out, token.Token{Kind: token.LParen})
			i++
		case r == ')':
			out = append(out, token.Token{Kind: token.RParen})
			i++
		case unicode.IsSpace(r):
			i++
		case r < unicode.MaxASCII:
			var sb strings.Builder
			for i < len(runes) && !unicode.IsSpace(runes[i]) && runes[i] != '(' && runes[i] != ')' {
				sb.WriteRune(runes[i])
				i++
			}
			text := sb.String()
			if val, err := strconv.ParseInt(text, 10, 64); err == nil {
				out = append(out, token.Token{Kind: token.Integer, Value: val})
			} else {
				out = append(out, token.Token{Kind: token.Symbol, Text: text})
			}
		default:
			return nil, diag.NewParseError("invalid character %q", r)
		}
	}
	return out, nil
}
