// Package diag defines the error taxonomy shared across the compiler
// pipeline: ParseError, SemanticError, IrInvariantViolation, and
// UnimplementedOperation. Each is a distinct type so the CLI driver can
// recover the error kind with errors.As and choose an exit code.
package diag

import "fmt"

// ParseError is raised by the lexer or reader when the input text cannot
// be tokenized or does not form a well-formed S-expression.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "parse error: " + e.Msg }

func NewParseError(format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// SemanticError is raised by the elaborator: undeclared variables,
// shadowing, wrong operator arity, break/continue outside a loop, a
// non-symbol in a function signature, a duplicate function name, or a
// missing main function.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string { return "semantic error: " + e.Msg }

func NewSemanticError(format string, args ...any) *SemanticError {
	return &SemanticError{Msg: fmt.Sprintf(format, args...)}
}

// IrInvariantViolation marks an internal programmer error: a pass observed
// a broken invariant (a phi without a matching predecessor entry, a lookup
// miss on a block that must exist, and so on). These must never occur on
// well-formed input; callers should panic with this type rather than
// attempt to recover a usable result, per spec.md §7.
type IrInvariantViolation struct {
	Msg string
}

func (e *IrInvariantViolation) Error() string { return "internal invariant violation: " + e.Msg }

// Violatef panics with an *IrInvariantViolation. Passes call this instead
// of returning an error because there is no well-formed input that should
// ever reach this path.
func Violatef(format string, args ...any) {
	panic(&IrInvariantViolation{Msg: fmt.Sprintf(format, args...)})
}

// UnimplementedOperation marks a source construct that is recognized by
// the elaborator but not yet wired into the microcode lowering:
// multiplication, division, and integer literals other than 0 and 1.
type UnimplementedOperation struct {
	Msg string
}

func (e *UnimplementedOperation) Error() string { return "unimplemented operation: " + e.Msg }

func NewUnimplementedOperation(format string, args ...any) *UnimplementedOperation {
	return &UnimplementedOperation{Msg: fmt.Sprintf(format, args...)}
}
