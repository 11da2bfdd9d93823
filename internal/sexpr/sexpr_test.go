package sexpr

import (
	"errors"
	"testing"

	"github.com/rahularya50/lispc/internal/diag"
)

func TestParseNestedList(t *testing.T) {
	forms, err := Parse("(func (main a) (+ a 1))")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 {
		t.Fatalf("got %d top-level forms, want 1", len(forms))
	}
	got := forms[0].String()
	want := "(func (main a) (+ a 1))"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseMultipleTopLevelForms(t *testing.T) {
	forms, err := Parse("(func (a) 1) (func (b) 2)")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 2 {
		t.Fatalf("got %d forms, want 2", len(forms))
	}
}

func TestParseAtoms(t *testing.T) {
	forms, err := Parse("(foo 42 -3)")
	if err != nil {
		t.Fatal(err)
	}
	children := forms[0].Children
	if len(children) != 3 {
		t.Fatalf("got %d children, want 3", len(children))
	}
	if children[0].Kind != Symbol || children[0].Text != "foo" {
		t.Errorf("children[0] = %+v, want Symbol foo", children[0])
	}
	if children[1].Kind != Integer || children[1].Value != 42 {
		t.Errorf("children[1] = %+v, want Integer 42", children[1])
	}
	if children[2].Kind != Integer || children[2].Value != -3 {
		t.Errorf("children[2] = %+v, want Integer -3", children[2])
	}
}

func TestParseUnterminatedList(t *testing.T) {
	_, err := Parse("(foo (bar)")
	if err == nil {
		t.Fatal("expected a parse error for an unterminated list")
	}
	var parseErr *diag.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *diag.ParseError, got %T: %v", err, err)
	}
}

func TestParseUnexpectedCloseParen(t *testing.T) {
	_, err := Parse(")")
	if err == nil {
		t.Fatal("expected a parse error for a stray right parenthesis")
	}
	var parseErr *diag.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *diag.ParseError, got %T: %v", err, err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	forms, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 0 {
		t.Fatalf("got %d forms, want 0", len(forms))
	}
}
