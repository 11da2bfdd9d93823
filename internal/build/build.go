package build

import (
	"github.com/rahularya50/lispc/internal/diag"
	"github.com/rahularya50/lispc/internal/ir"
	"github.com/rahularya50/lispc/internal/syntax"
)

// scope is a chain of lexical symbol tables, mirroring
// original_source's Frame: lookups walk outward to the parent on miss.
// The elaborator has already rejected shadowing and undeclared
// variables, so lookups here always succeed; a miss would be an
// internal invariant violation, not a user-facing error.
type scope struct {
	vars   map[string]Var
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: map[string]Var{}, parent: parent}
}

func (s *scope) lookup(name string) Var {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v
		}
	}
	diag.Violatef("variable %q not bound during code generation", name)
	panic("unreachable")
}

func (s *scope) declare(name string, v Var) {
	s.vars[name] = v
}

// loopFrame records the blocks `break` and `continue` jump to for the
// innermost enclosing loop.
type loopFrame struct {
	breakDest    ir.BlockID
	continueDest ir.BlockID
}

type builder struct {
	fn    *Func
	loops []loopFrame
}

// Function lowers one elaborated function definition into the Initial
// CFG. Each declared argument is bound to a fresh Var populated by an
// implicit input read at function entry, in declaration order — the
// same InputRHS variant a source-level `(input)` expression produces,
// so a function's arguments simply consume the lowest-numbered hardware
// input registers ahead of whatever the body reads explicitly.
func Function(fd *syntax.FuncDef) (*Func, error) {
	fn := ir.NewFunc[Var, Var, RHS]()
	start := fn.Start()
	top := newScope(nil)

	for _, arg := range fd.Args {
		v := Var{Index: fn.NewRegIndex()}
		start.Instructions = append(start.Instructions, Instruction{Lhs: v, Rhs: RHS{Kind: InputRHS}})
		top.declare(arg, v)
	}

	b := &builder{fn: fn}
	val, end, err := b.genBlock(fd.Body.Exprs, top, start)
	if err != nil {
		return nil, err
	}
	// A function body is a Block (§6.1: "sequence with value = last"),
	// and falling off the end of it returns that value, the same way
	// falling off any other block expression yields it. An explicit
	// (return ...) or a control transfer out of the body (break/continue
	// cannot escape a function, so in practice just an explicit return)
	// already set the terminator, in which case val is stale and unused.
	if end.Terminator.Kind == ir.Unset {
		end.Terminator = ir.ReturnTerm(val)
	}
	fn.Sweep()
	return fn, nil
}

func (b *builder) fresh() Var {
	return Var{Index: b.fn.NewRegIndex()}
}

// genBlock threads a sequence of expressions through the same scope and
// block, returning the value of the last expression (or nil, if empty
// or the last expression is a pure statement) and the block execution
// continues in afterward.
func (b *builder) genBlock(exprs []syntax.Expr, sc *scope, block *Block) (*Var, *Block, error) {
	var val *Var
	cur := block
	for _, e := range exprs {
		var err error
		val, cur, err = b.genExpr(e, sc, cur)
		if err != nil {
			return nil, nil, err
		}
	}
	return val, cur, nil
}

// terminate closes the current block with term and hands back a fresh,
// unreferenced block for the builder to keep emitting (dead) code into.
// It is used wherever control cannot fall through: return, break,
// continue.
func (b *builder) terminate(block *Block, term Terminator) *Block {
	block.Terminator = term
	return b.fn.NewBlock()
}

func addEdge(fn *Func, from ir.BlockID, to ir.BlockID) {
	fn.MustBlock(to).Preds[from] = struct{}{}
}

func (b *builder) genExpr(e syntax.Expr, sc *scope, block *Block) (*Var, *Block, error) {
	switch e := e.(type) {
	case *syntax.VarDecl:
		v, cur, err := b.genExpr(e.Value, sc, block)
		if err != nil {
			return nil, nil, err
		}
		if v == nil {
			diag.Violatef("variable declaration value produced no result")
		}
		sc.declare(e.Name, *v)
		return v, cur, nil

	case *syntax.VarAssign:
		dst := sc.lookup(e.Name)
		src, cur, err := b.genExpr(e.Value, sc, block)
		if err != nil {
			return nil, nil, err
		}
		if src == nil {
			diag.Violatef("assignment value produced no result")
		}
		cur.Instructions = append(cur.Instructions, Instruction{Lhs: dst, Rhs: RHS{Kind: MoveRHS, Arg1: *src}})
		return nil, cur, nil

	case *syntax.VarAccess:
		v := sc.lookup(e.Name)
		return &v, block, nil

	case *syntax.ArithOp:
		arg1, cur, err := b.genExpr(e.Arg1, sc, block)
		if err != nil {
			return nil, nil, err
		}
		arg2, cur, err := b.genExpr(e.Arg2, sc, cur)
		if err != nil {
			return nil, nil, err
		}
		out := b.fresh()
		cur.Instructions = append(cur.Instructions, Instruction{Lhs: out, Rhs: RHS{Kind: ArithRHS, Op: e.Operator, Arg1: *arg1, Arg2: *arg2}})
		return &out, cur, nil

	case *syntax.UnaryExpr:
		arg, cur, err := b.genExpr(e.Arg, sc, block)
		if err != nil {
			return nil, nil, err
		}
		out := b.fresh()
		cur.Instructions = append(cur.Instructions, Instruction{Lhs: out, Rhs: RHS{Kind: UnaryRHS, UnaryOp: e.Operator, Arg1: *arg}})
		return &out, cur, nil

	case *syntax.Block:
		return b.genBlock(e.Exprs, sc, block)

	case *syntax.IfElse:
		return b.genIf(e, sc, block)

	case *syntax.Loop:
		return b.genLoop(e, sc, block)

	case *syntax.Break:
		if len(b.loops) == 0 {
			diag.Violatef("break outside of a loop reached code generation")
		}
		dest := b.loops[len(b.loops)-1].breakDest
		cur := b.terminate(block, ir.GotoTerm[Var](dest))
		addEdge(b.fn, block.ID, dest)
		return nil, cur, nil

	case *syntax.Continue:
		if len(b.loops) == 0 {
			diag.Violatef("continue outside of a loop reached code generation")
		}
		dest := b.loops[len(b.loops)-1].continueDest
		cur := b.terminate(block, ir.GotoTerm[Var](dest))
		addEdge(b.fn, block.ID, dest)
		return nil, cur, nil

	case *syntax.IntegerLiteral:
		out := b.fresh()
		block.Instructions = append(block.Instructions, Instruction{Lhs: out, Rhs: RHS{Kind: LiteralRHS, Literal: e.Value}})
		return &out, block, nil

	case *syntax.Noop:
		return nil, block, nil

	case *syntax.Return:
		var val *Var
		cur := block
		if e.Value != nil {
			var err error
			val, cur, err = b.genExpr(e.Value, sc, block)
			if err != nil {
				return nil, nil, err
			}
		}
		next := b.terminate(cur, ir.ReturnTerm(val))
		return nil, next, nil

	case *syntax.Input:
		out := b.fresh()
		block.Instructions = append(block.Instructions, Instruction{Lhs: out, Rhs: RHS{Kind: InputRHS}})
		return &out, block, nil

	default:
		diag.Violatef("unhandled AST node %T during code generation", e)
		panic("unreachable")
	}
}

func (b *builder) genIf(e *syntax.IfElse, sc *scope, block *Block) (*Var, *Block, error) {
	pred, block, err := b.genExpr(e.Pred, sc, block)
	if err != nil {
		return nil, nil, err
	}
	if pred == nil {
		diag.Violatef("if predicate produced no result")
	}

	conseqBlock := b.fn.NewBlock()
	altBlock := b.fn.NewBlock()
	block.Terminator = ir.BranchIfZeroTerm(*pred, conseqBlock.ID, altBlock.ID)
	addEdge(b.fn, block.ID, conseqBlock.ID)
	addEdge(b.fn, block.ID, altBlock.ID)

	conseqVal, conseqEnd, err := b.genExpr(e.Conseq, newScope(sc), conseqBlock)
	if err != nil {
		return nil, nil, err
	}
	altVal, altEnd, err := b.genExpr(e.Alt, newScope(sc), altBlock)
	if err != nil {
		return nil, nil, err
	}

	merge := b.fn.NewBlock()

	var out *Var
	if conseqVal != nil && altVal != nil && conseqEnd.Terminator.Kind == ir.Unset && altEnd.Terminator.Kind == ir.Unset {
		v := b.fresh()
		conseqEnd.Instructions = append(conseqEnd.Instructions, Instruction{Lhs: v, Rhs: RHS{Kind: MoveRHS, Arg1: *conseqVal}})
		altEnd.Instructions = append(altEnd.Instructions, Instruction{Lhs: v, Rhs: RHS{Kind: MoveRHS, Arg1: *altVal}})
		out = &v
	}

	if conseqEnd.Terminator.Kind == ir.Unset {
		conseqEnd.Terminator = ir.GotoTerm[Var](merge.ID)
		addEdge(b.fn, conseqEnd.ID, merge.ID)
	}
	if altEnd.Terminator.Kind == ir.Unset {
		altEnd.Terminator = ir.GotoTerm[Var](merge.ID)
		addEdge(b.fn, altEnd.ID, merge.ID)
	}

	return out, merge, nil
}

func (b *builder) genLoop(e *syntax.Loop, sc *scope, block *Block) (*Var, *Block, error) {
	header := b.fn.NewBlock()
	block.Terminator = ir.GotoTerm[Var](header.ID)
	addEdge(b.fn, block.ID, header.ID)

	after := b.fn.NewBlock()
	b.loops = append(b.loops, loopFrame{breakDest: after.ID, continueDest: header.ID})

	_, end, err := b.genExpr(e.Body, newScope(sc), header)
	b.loops = b.loops[:len(b.loops)-1]
	if err != nil {
		return nil, nil, err
	}

	if end.Terminator.Kind == ir.Unset {
		end.Terminator = ir.GotoTerm[Var](header.ID)
		addEdge(b.fn, end.ID, header.ID)
	}

	return nil, after, nil
}
