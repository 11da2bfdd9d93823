// Package sexpr implements a recursive-descent reader over a token
// stream, producing a tree of S-expressions. Grounded on
// original_source/src/frontend/parser.rs (read_expr).
package sexpr

import (
	"strconv"
	"strings"

	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/lexer"
	"github.com/rahularya50/lispc/internal/token"
)

// Kind identifies which variant of Expr is populated.
type Kind int

const (
	List Kind = iota
	Symbol
	Integer
)

// Expr is a single S-expression: a list of children, a bare symbol, or an
// integer literal.
type Expr struct {
	Kind     Kind
	Children []Expr // List
	Text     string // Symbol
	Value    int64  // Integer
}

func (e Expr) String() string {
	switch e.Kind {
	case List:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case Symbol:
		return e.Text
	case Integer:
		return strconv.FormatInt(e.Value, 10)
	default:
		return "<invalid expr>"
	}
}

// Parse tokenizes and reads source text into the top-level sequence of
// S-expressions (one per top-level form).
func Parse(src string) ([]Expr, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	r := &reader{toks: toks}
	var out []Expr
	for r.pos < len(r.toks) {
		expr, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

type reader struct {
	toks []token.Token
	pos  int
}

func (r *reader) peek() (token.Token, bool) {
	if r.pos >= len(r.toks) {
		return token.Token{}, false
	}
	return r.toks[r.pos], true
}

func (r *reader) readExpr() (Expr, error) {
	tok, ok := r.peek()
	if !ok {
		return Expr{}, diag.NewParseError("input ended unexpectedly")
	}
	r.pos++
	switch tok.Kind {
	case token.LParen:
		var children []Expr
		for {
			next, ok := r.peek()
			if !ok {
				return Expr{}, diag.NewParseError("unterminated list")
			}
			if next.Kind == token.RParen {
				r.pos++
				return Expr{Kind: List, Children: children}, nil
			}
			child, err := r.readExpr()
			if err != nil {
				return Expr{}, err
			}
			children = append(children, child)
		}
	case token.RParen:
		return Expr{}, diag.NewParseError("unexpected right parenthesis")
	case token.Integer:
		return Expr{Kind: Integer, Value: tok.Value}, nil
	case token.Symbol:
		return Expr{Kind: Symbol, Text: tok.Text}, nil
	default:
		return Expr{}, diag.NewParseError("unrecognized token %v", tok)
	}
}
