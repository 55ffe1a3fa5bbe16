package exprtree

import (
	"math/big"
	"strings"
)

// Expr is a node in an expression tree. The set of node types is closed: an
// Expr is always a Const, a Var, or an *Op. Nodes are immutable once built, so
// a tree can be evaluated any number of times, including concurrently.
type Expr interface {
	String() string
	exprNode()
}

// Operator is a binary arithmetic operator, identified by its symbol.
type Operator rune

// The four operators. Any other Operator value fails evaluation with an
// *OperatorError.
const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
)

// ParseOperator returns the operator for a symbol. × and ÷ are accepted as
// aliases for * and /.
func ParseOperator(sym rune) (Operator, error) {
	switch sym {
	case '+':
		return Add, nil
	case '-':
		return Sub, nil
	case '*', '×':
		return Mul, nil
	case '/', '÷':
		return Div, nil
	}
	return 0, &OperatorError{Operator: sym}
}

// Valid returns whether op is one of the four operators.
func (op Operator) Valid() bool {
	switch op {
	case Add, Sub, Mul, Div:
		return true
	}
	return false
}

func (op Operator) String() string {
	return string(rune(op))
}

// symbol returns the text for op, using typographic symbols if alt is set.
func (op Operator) symbol(alt bool) string {
	if alt {
		switch op {
		case Mul:
			return "×"
		case Div:
			return "÷"
		}
	}
	return string(rune(op))
}

// Const is a constant. The zero Const is zero.
type Const struct {
	// v is the value. It is never modified, and never given out.
	v *big.Float
	// text is the source text of the number, if it was given as text. Text
	// constants are rounded anew to each evaluation precision.
	text string
}

// Num creates a constant from a float64. Num panics if x is NaN.
func Num(x float64) Const {
	return Const{v: new(big.Float).SetFloat64(x)}
}

// NumInt creates a constant from an integer.
func NumInt(x int64) Const {
	return Const{v: new(big.Float).SetInt64(x)}
}

// NumBig creates a constant holding a copy of x. A nil x is zero.
func NumBig(x *big.Float) Const {
	if x == nil {
		return Const{}
	}
	return Const{v: new(big.Float).Copy(x)}
}

// NumString creates a constant from the text of a number, in the syntax of
// big.Float.Parse. The text is kept so that the constant is as precise as
// every evaluation that uses it. ∞ is understood as infinity.
func NumString(s string) (Const, error) {
	v, ok := parsenum(s, 0)
	if !ok {
		return Const{}, &NumberError{Text: s}
	}
	return Const{v: v, text: s}, nil
}

// Value returns a copy of the constant's value.
func (c Const) Value() *big.Float {
	if c.v == nil {
		return new(big.Float)
	}
	return new(big.Float).Copy(c.v)
}

// at returns the constant's value at the given precision in a new Float.
func (c Const) at(prec uint) *big.Float {
	if c.text != "" {
		if v, ok := parsenum(c.text, prec); ok {
			return v
		}
	}
	r := new(big.Float).SetPrec(prec)
	if c.v != nil {
		r.Set(c.v)
	}
	return r
}

func (c Const) String() string {
	return Sprint(c, false)
}

func (Const) exprNode() {}

// Var is a reference to a variable in the evaluation environment.
type Var struct {
	name string
}

// Ref creates a reference to the named variable.
func Ref(name string) Var {
	return Var{name: name}
}

// Name returns the name of the referenced variable.
func (v Var) Name() string {
	return v.name
}

func (v Var) String() string {
	return Sprint(v, false)
}

func (Var) exprNode() {}

// Op is a binary operation on two subexpressions.
type Op struct {
	op    Operator
	left  Expr
	right Expr
}

// Operation creates an operation node. Operation panics if either operand is
// nil. An op outside the four operators is accepted here and reported when the
// node is evaluated; use NewOp to reject it up front.
func Operation(left Expr, op Operator, right Expr) *Op {
	if left == nil || right == nil {
		panic("exprtree: nil operand to " + op.String())
	}
	return &Op{op: op, left: left, right: right}
}

// NewOp creates an operation node from an operator symbol, returning an
// *OperatorError if the symbol is not an operator.
func NewOp(left Expr, sym rune, right Expr) (Expr, error) {
	op, err := ParseOperator(sym)
	if err != nil {
		return nil, err
	}
	return Operation(left, op, right), nil
}

// Operator returns the operation's operator.
func (o *Op) Operator() Operator {
	return o.op
}

// Left returns the left operand.
func (o *Op) Left() Expr {
	return o.left
}

// Right returns the right operand.
func (o *Op) Right() Expr {
	return o.right
}

func (o *Op) String() string {
	return Sprint(o, false)
}

func (*Op) exprNode() {}

// Sprint formats an expression with every node in brackets, alternating
// between round and square brackets at each level. If alt is true, × and ÷
// are used for multiplication and division.
func Sprint(e Expr, alt bool) string {
	var b strings.Builder
	write(&b, e, false, alt)
	return b.String()
}

func write(b *strings.Builder, e Expr, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch e := e.(type) {
	case Const:
		switch {
		case e.text != "":
			b.WriteString(e.text)
		case e.v == nil:
			b.WriteByte('0')
		default:
			b.WriteString(e.v.Text('g', -1))
		}
	case Var:
		b.WriteString(e.name)
	case *Op:
		write(b, e.left, !square, alt)
		b.WriteByte(' ')
		b.WriteString(e.op.symbol(alt))
		b.WriteByte(' ')
		write(b, e.right, !square, alt)
	case nil:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
	default:
		panic("exprtree: invalid expression node after writing " + b.String())
	}
}

// Names returns the sorted names of the variables an expression refers to,
// each listed once. The result is nil if there are none.
func Names(e Expr) []string {
	seen := make(map[string]bool)
	walk(e, func(v Var) {
		seen[v.name] = true
	})
	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

// walk calls f for each variable reference in e, in evaluation order.
func walk(e Expr, f func(Var)) {
	switch e := e.(type) {
	case Var:
		f(e)
	case *Op:
		walk(e.left, f)
		walk(e.right, f)
	}
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}
