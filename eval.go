package exprtree

import (
	"fmt"
	"math/big"
)

// DefaultPrec is the precision of results when no Prec option is given. It
// is enough to hold any int64 exactly.
const DefaultPrec = 64

// EvalOption is an option used when evaluating an expression.
type EvalOption interface {
	evalOption()
}

type precopt uint

func (precopt) evalOption() {}

// Prec sets the precision of calculations in bits. Prec(0) leaves each value
// at the precision big.Float chooses for it: an operation uses the larger
// precision of its operands, and a float64 keeps its 53 bits.
func Prec(prec uint) EvalOption {
	return precopt(prec)
}

// evaluator holds the settings for one evaluation.
type evaluator struct {
	env  Env
	prec uint
}

// Eval evaluates an expression using the variables in env and returns the
// result. If evaluation fails, e.g. because a variable is undefined or holds
// something that isn't a number, then the result is nil and the error
// describes the first failure, with the left operand of each operation
// evaluated before the right. Eval never modifies e or env, and a nil env is
// treated as empty.
func Eval(e Expr, env Env, opts ...EvalOption) (*big.Float, error) {
	ev := evaluator{env: env, prec: DefaultPrec}
	for _, opt := range opts {
		switch opt := opt.(type) {
		case nil: // do nothing
		case precopt:
			ev.prec = uint(opt)
		default:
			panic("exprtree: unknown option type")
		}
	}
	return ev.eval(e)
}

// eval computes the value of a node into a new Float.
func (ev *evaluator) eval(e Expr) (*big.Float, error) {
	switch e := e.(type) {
	case Const:
		return e.at(ev.prec), nil
	case Var:
		return ev.lookup(e.name)
	case *Op:
		l, err := ev.eval(e.left)
		if err != nil {
			return nil, err
		}
		r, err := ev.eval(e.right)
		if err != nil {
			return nil, err
		}
		return ev.arith(e.op, l, r)
	case nil:
		panic("exprtree: eval of nil expression")
	default:
		panic(fmt.Sprintf("exprtree: invalid expression node %T", e))
	}
}

// lookup finds a variable and converts its value to a number.
func (ev *evaluator) lookup(name string) (*big.Float, error) {
	if ev.env == nil {
		return nil, &NameError{Name: name}
	}
	v, ok := ev.env.Lookup(name)
	if !ok || v == nil {
		return nil, &NameError{Name: name}
	}
	r, ok := Number(v, ev.prec)
	if !ok {
		return nil, &TypeError{Name: name, Value: v}
	}
	return r, nil
}

// arith applies an operator. Results big.Float cannot represent, i.e. NaNs,
// are reported as a *DomainError. Division of a nonzero number by zero gives
// an infinity with the appropriate sign.
func (ev *evaluator) arith(op Operator, l, r *big.Float) (z *big.Float, err error) {
	defer func() {
		x := recover()
		if x == nil {
			return
		}
		nan, ok := x.(big.ErrNaN)
		if !ok {
			panic(x)
		}
		z, err = nil, &DomainError{Op: op, X: l, Y: r, nan: nan}
	}()
	z = new(big.Float).SetPrec(ev.prec)
	switch op {
	case Add:
		return z.Add(l, r), nil
	case Sub:
		return z.Sub(l, r), nil
	case Mul:
		return z.Mul(l, r), nil
	case Div:
		return z.Quo(l, r), nil
	default:
		return nil, &OperatorError{Operator: rune(op)}
	}
}
