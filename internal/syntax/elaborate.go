package syntax

import (
	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/sexpr"
)

// scope tracks which variable names are visible at a point in the
// program, as a chain of lexical blocks. It exists purely for semantic
// analysis — internal/build keeps its own, register-carrying scope chain
// for code generation.
type scope struct {
	names  map[string]bool
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{names: map[string]bool{}, parent: parent}
}

func (s *scope) declared(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

func (s *scope) declare(name string) error {
	if s.declared(name) {
		return diag.NewSemanticError("variable %q shadows an existing binding", name)
	}
	s.names[name] = true
	return nil
}

// Analyze elaborates a forest of top-level S-expressions into a Program,
// rejecting anything that does not parse as a `func` definition, and
// requires a `main` function to be present.
func Analyze(forms []sexpr.Expr) (*Program, error) {
	funcs := map[string]*FuncDef{}
	for _, form := range forms {
		lst, ok := asList(form)
		if !ok || len(lst) == 0 {
			return nil, diag.NewSemanticError("all top-level expressions must be functions")
		}
		head, ok := asSymbol(lst[0])
		if !ok || head != "func" {
			return nil, diag.NewSemanticError("all top-level expressions must be functions")
		}
		fn, err := analyzeFunction(lst[1:])
		if err != nil {
			return nil, err
		}
		if _, exists := funcs[fn.Name]; exists {
			return nil, diag.NewSemanticError("duplicate function name %q", fn.Name)
		}
		funcs[fn.Name] = fn
	}
	if _, ok := funcs["main"]; !ok {
		return nil, diag.NewSemanticError("no main function defined")
	}
	return &Program{Funcs: funcs}, nil
}

func analyzeFunction(forms []sexpr.Expr) (*FuncDef, error) {
	if len(forms) == 0 {
		return nil, diag.NewSemanticError("functions must have a signature")
	}
	sig, ok := asList(forms[0])
	if !ok || len(sig) == 0 {
		return nil, diag.NewSemanticError("function signatures must be a nonempty list")
	}
	name, ok := asSymbol(sig[0])
	if !ok {
		return nil, diag.NewSemanticError("function signatures must begin with the name")
	}
	args := make([]string, 0, len(sig)-1)
	sc := newScope(nil)
	for _, argExpr := range sig[1:] {
		arg, ok := asSymbol(argExpr)
		if !ok {
			return nil, diag.NewSemanticError("all function arguments must be symbols")
		}
		if err := sc.declare(arg); err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	body, err := analyzeBlock(forms[1:], sc, 0)
	if err != nil {
		return nil, err
	}
	return &FuncDef{Name: name, Args: args, Body: body}, nil
}

func analyzeBlock(forms []sexpr.Expr, sc *scope, loopDepth int) (*Block, error) {
	exprs := make([]Expr, 0, len(forms))
	for _, f := range forms {
		e, err := analyzeExpr(f, sc, loopDepth)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return &Block{Exprs: exprs}, nil
}

func analyzeExpr(e sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	switch e.Kind {
	case sexpr.Integer:
		return &IntegerLiteral{Value: e.Value}, nil
	case sexpr.Symbol:
		if !sc.declared(e.Text) {
			return nil, diag.NewSemanticError("variable %q not found in scope", e.Text)
		}
		return &VarAccess{Name: e.Text}, nil
	case sexpr.List:
		return analyzeCall(e.Children, sc, loopDepth)
	default:
		return nil, diag.NewSemanticError("unrecognized expression")
	}
}

func analyzeCall(forms []sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	if len(forms) == 0 {
		return nil, diag.NewSemanticError("call expressions must have an operator")
	}
	op, ok := asSymbol(forms[0])
	if !ok {
		return nil, diag.NewSemanticError("call expressions must have an operator")
	}
	operands := forms[1:]
	switch op {
	case "+":
		return analyzeArith(Add, operands, sc, loopDepth)
	case "*":
		return analyzeArith(Mul, operands, sc, loopDepth)
	case "-":
		return analyzeArith(Sub, operands, sc, loopDepth)
	case "/":
		return analyzeArith(Div, operands, sc, loopDepth)
	case "not":
		if len(operands) != 1 {
			return nil, diag.NewSemanticError("not takes exactly one argument")
		}
		arg, err := analyzeExpr(operands[0], sc, loopDepth)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Operator: Not, Arg: arg}, nil
	case "if":
		return analyzeIf(operands, sc, loopDepth)
	case "define":
		return analyzeDefine(operands, sc, loopDepth)
	case "set":
		return analyzeSet(operands, sc, loopDepth)
	case "loop":
		body, err := analyzeBlock(operands, newScope(sc), loopDepth+1)
		if err != nil {
			return nil, err
		}
		return &Loop{Body: body}, nil
	case "break":
		if len(operands) != 0 {
			return nil, diag.NewSemanticError("break takes no arguments")
		}
		if loopDepth == 0 {
			return nil, diag.NewSemanticError("break used outside of a loop")
		}
		return &Break{}, nil
	case "continue":
		if len(operands) != 0 {
			return nil, diag.NewSemanticError("continue takes no arguments")
		}
		if loopDepth == 0 {
			return nil, diag.NewSemanticError("continue used outside of a loop")
		}
		return &Continue{}, nil
	case "begin":
		return analyzeBlock(operands, sc, loopDepth)
	case "return":
		return analyzeReturn(operands, sc, loopDepth)
	case "input":
		if len(operands) != 0 {
			return nil, diag.NewSemanticError("input takes no arguments")
		}
		return &Input{}, nil
	default:
		return nil, diag.NewSemanticError("invalid operator %q in call expression", op)
	}
}

func analyzeArith(operator Op, operands []sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	args := make([]Expr, 0, len(operands))
	for _, o := range operands {
		a, err := analyzeExpr(o, sc, loopDepth)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	if operator.variadic() {
		return nestVarargs(operator, args)
	}
	if len(args) != 2 {
		return nil, diag.NewSemanticError("operator %s requires exactly two arguments", operator)
	}
	return &ArithOp{Operator: operator, Arg1: args[0], Arg2: args[1]}, nil
}

// nestVarargs right-folds a variadic +/* call into nested binary ArithOp
// nodes, matching original_source's nest_varargs.
func nestVarargs(operator Op, args []Expr) (Expr, error) {
	if len(args) == 0 {
		return nil, diag.NewSemanticError("arithmetic operations require at least one argument")
	}
	first, rest := args[0], args[1:]
	if len(rest) == 0 {
		return first, nil
	}
	tail, err := nestVarargs(operator, rest)
	if err != nil {
		return nil, err
	}
	return &ArithOp{Operator: operator, Arg1: first, Arg2: tail}, nil
}

func analyzeIf(operands []sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	switch len(operands) {
	case 2:
		pred, err := analyzeExpr(operands[0], sc, loopDepth)
		if err != nil {
			return nil, err
		}
		conseq, err := analyzeExpr(operands[1], newScope(sc), loopDepth)
		if err != nil {
			return nil, err
		}
		return &IfElse{Pred: pred, Conseq: conseq, Alt: &Noop{}}, nil
	case 3:
		pred, err := analyzeExpr(operands[0], sc, loopDepth)
		if err != nil {
			return nil, err
		}
		conseq, err := analyzeExpr(operands[1], newScope(sc), loopDepth)
		if err != nil {
			return nil, err
		}
		alt, err := analyzeExpr(operands[2], newScope(sc), loopDepth)
		if err != nil {
			return nil, err
		}
		return &IfElse{Pred: pred, Conseq: conseq, Alt: alt}, nil
	default:
		return nil, diag.NewSemanticError("if statements must have either two or three arguments")
	}
}

func analyzeDefine(operands []sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	if len(operands) != 2 {
		return nil, diag.NewSemanticError("variable declarations must have two arguments")
	}
	name, ok := asSymbol(operands[0])
	if !ok {
		return nil, diag.NewSemanticError("variable declarations must name a symbol")
	}
	value, err := analyzeExpr(operands[1], sc, loopDepth)
	if err != nil {
		return nil, err
	}
	if err := sc.declare(name); err != nil {
		return nil, err
	}
	return &VarDecl{Name: name, Value: value}, nil
}

func analyzeSet(operands []sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	if len(operands) != 2 {
		return nil, diag.NewSemanticError("assignments must have two arguments")
	}
	name, ok := asSymbol(operands[0])
	if !ok {
		return nil, diag.NewSemanticError("assignments must name a symbol")
	}
	if !sc.declared(name) {
		return nil, diag.NewSemanticError("cannot assign to undeclared variable %q", name)
	}
	value, err := analyzeExpr(operands[1], sc, loopDepth)
	if err != nil {
		return nil, err
	}
	return &VarAssign{Name: name, Value: value}, nil
}

func analyzeReturn(operands []sexpr.Expr, sc *scope, loopDepth int) (Expr, error) {
	switch len(operands) {
	case 0:
		return &Return{}, nil
	case 1:
		v, err := analyzeExpr(operands[0], sc, loopDepth)
		if err != nil {
			return nil, err
		}
		return &Return{Value: v}, nil
	default:
		return nil, diag.NewSemanticError("return takes at most one argument")
	}
}

func asList(e sexpr.Expr) ([]sexpr.Expr, bool) {
	if e.Kind != sexpr.List {
		return nil, false
	}
	return e.Children, true
}

func asSymbol(e sexpr.Expr) (string, bool) {
	if e.Kind != sexpr.Symbol {
		return "", false
	}
	return e.Text, true
}
