package exprtree_test

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/exprtree"
)

func TestDecodeExpr(t *testing.T) {
	cases := []struct {
		name string
		src  string
		s    string
		vars exprtree.Vars
		r    float64
	}{
		{"num", "2", "(2)", nil, 2},
		{"num-float", "2.5", "(2.5)", nil, 2.5},
		{"num-key", "num: -4", "(-4)", nil, -4},
		{"num-string", "num: '8'", "(8)", nil, 8},
		{"num-inf", "-.inf", "(-Inf)", nil, math.Inf(-1)},
		{"num-octal", "0777", "(511)", nil, 511},
		{"num-key-octal", "num: 0o17", "(15)", nil, 15},
		{"num-hex", "0x1F", "(31)", nil, 31},
		{"num-underscore", "1_000", "(1000)", nil, 1000},
		{"num-alias", "op: +\nleft: &a 2\nright: {num: *a}\n", "([2] + [2])", nil, 4},
		{"var", "x", "(x)", exprtree.Vars{"x": 3}, 3},
		{"var-key", "var: x", "(x)", exprtree.Vars{"x": 3}, 3},
		{"var-numeric-name", `var: "1"`, "(1)", exprtree.Vars{"1": 7}, 7},
		{"var-alias", "op: +\nleft: {var: &n x}\nright: {var: *n}\n", "([x] + [x])", exprtree.Vars{"x": 3}, 6},
		{"op-flow", "{op: +, left: x, right: 2}", "([x] + [2])", exprtree.Vars{"x": 3}, 5},
		{"op-alt", "{op: ÷, left: 1, right: 4}", "([1] / [4])", nil, 0.25},
		{"op-alias", "op: &o '*'\nleft: {op: *o, left: 2, right: 3}\nright: 4\n", "([(2) * (3)] * [4])", nil, 24},
		{
			"nested",
			"op: '*'\nleft: x\nright:\n  op: +\n  left: {var: y}\n  right: {num: 2}\n",
			"([x] * [(y) + (2)])",
			exprtree.Vars{"x": 3, "y": 4},
			18,
		},
		{
			"anchor",
			"op: '*'\nleft: &s {op: +, left: y, right: 2}\nright: *s\n",
			"([(y) + (2)] * [(y) + (2)])",
			exprtree.Vars{"y": 1},
			9,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := exprtree.DecodeExprString(c.src)
			require.NoError(t, err)
			assert.Equal(t, c.s, e.String())
			r, err := exprtree.Eval(e, c.vars)
			require.NoError(t, err)
			assert.Equal(t, c.r, f64(t, r))
		})
	}
}

func TestDecodeExprErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
	}{
		{"empty", "", 0},
		{"bad-yaml", "op: [", 0},
		{"null", "~", 1},
		{"bool", "true", 1},
		{"seq", "[1, 2]", 1},
		{"unknown-key", "{op: +, left: 1, right: 2, extra: 3}", 1},
		{"two-kinds", "{num: 1, var: x}", 1},
		{"no-kind", "{left: 1, right: 2}", 1},
		{"missing-right", "{op: +, left: 1}", 1},
		{"long-op", "{op: '**', left: 1, right: 2}", 1},
		{"bad-num", "num: one", 1},
		{"nan", "num: .nan", 1},
		{"empty-var", "var: ''", 1},
		{"bad-child", "op: +\nleft: 1\nright: {num: x}\n", 3},
		{"num-alias-mapping", "op: +\nleft: &m {var: x}\nright: {num: *m}\n", 2},
		{"two-docs", "x\n---\ny\n", 3},
		{"bad-second-doc", "x\n---\nop: [\n", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := exprtree.DecodeExprString(c.src)
			assert.Nil(t, e)
			var u *exprtree.DocError
			require.ErrorAs(t, err, &u)
			assert.Equal(t, c.line, u.Line, "%v", err)
		})
	}
}

func TestDecodeExprExpansion(t *testing.T) {
	// Each anchor doubles the size of the tree.
	var b strings.Builder
	const n = 24
	for k := 0; k < n; k++ {
		b.WriteString("{op: +, left: ")
		if k == 0 {
			b.WriteString("&a0 1")
		} else {
			fmt.Fprintf(&b, "&a%d {op: +, left: *a%d, right: *a%d}", k, k-1, k-1)
		}
		b.WriteString(", right: ")
	}
	b.WriteString("0" + strings.Repeat("}", n))
	_, err := exprtree.DecodeExprString(b.String())
	assert.ErrorAs(t, err, new(*exprtree.DocError))
}

func TestDecodeIntsMatchVars(t *testing.T) {
	// A literal has the same value in a tree as in a variables document.
	for _, lit := range []string{"0777", "0o17", "0x1F", "-12", "1_000", "0b101"} {
		t.Run(lit, func(t *testing.T) {
			vars, err := exprtree.DecodeVars(strings.NewReader("x: " + lit))
			require.NoError(t, err)
			want, err := exprtree.Eval(exprtree.Ref("x"), vars)
			require.NoError(t, err)
			got, err := exprtree.EvalDocument(strings.NewReader(lit), nil)
			require.NoError(t, err)
			assert.Zero(t, want.Cmp(got), "want %g, got %g", want, got)
		})
	}
}

func TestDecodeExprUnknownOperator(t *testing.T) {
	_, err := exprtree.DecodeExprString("{op: '%', left: 1, right: 2}")
	var u *exprtree.OperatorError
	require.ErrorAs(t, err, &u)
	assert.Equal(t, '%', u.Operator)
	assert.ErrorAs(t, err, new(*exprtree.DocError))
}

func TestEncodeExpr(t *testing.T) {
	third, err := exprtree.NumString("0.333")
	require.NoError(t, err)
	twelve, err := exprtree.NumString("12")
	require.NoError(t, err)
	leading, err := exprtree.NumString("0777")
	require.NoError(t, err)
	hex, err := exprtree.NumString("0x10")
	require.NoError(t, err)
	inf, err := exprtree.NumString("inf")
	require.NoError(t, err)
	cases := []struct {
		name string
		e    exprtree.Expr
	}{
		{"num", exprtree.NumInt(2)},
		{"num-float", exprtree.Num(-0.5)},
		{"num-big", exprtree.Num(1e100)},
		{"num-inf", exprtree.Num(math.Inf(1))},
		{"text", third},
		{"text-inf", inf},
		{"text-int", twelve},
		{"text-leading-zero", leading},
		{"text-hex", hex},
		{"var", exprtree.Ref("x")},
		{"var-numeric-name", exprtree.Ref("12")},
		{"nested", exprtree.Operation(x, exprtree.Mul, exprtree.Operation(y, exprtree.Add, two))},
		{"all-ops", exprtree.Operation(
			exprtree.Operation(x, exprtree.Sub, y),
			exprtree.Div,
			exprtree.Operation(x, exprtree.Mul, exprtree.Operation(y, exprtree.Add, two)),
		)},
	}
	vars := exprtree.Vars{"x": 3, "y": 4, "12": 5}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var b bytes.Buffer
			require.NoError(t, exprtree.EncodeExpr(&b, c.e))
			e, err := exprtree.DecodeExpr(&b)
			require.NoError(t, err, "decoding:\n%s", b.String())
			assert.Equal(t, c.e.String(), e.String())
			// Constants without source text are written at their own
			// precision, so compare at that precision.
			want, err := exprtree.Eval(c.e, vars, exprtree.Prec(53))
			require.NoError(t, err)
			got, err := exprtree.Eval(e, vars, exprtree.Prec(53))
			require.NoError(t, err)
			assert.Zero(t, want.Cmp(got), "want %g, got %g", want, got)
		})
	}
}

func TestEncodeExprUnknownOperator(t *testing.T) {
	cases := []struct {
		name string
		e    exprtree.Expr
	}{
		{"top", exprtree.Operation(x, exprtree.Operator('%'), y)},
		{"nested", exprtree.Operation(x, exprtree.Add, exprtree.Operation(y, exprtree.Operator('^'), two))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var b bytes.Buffer
			err := exprtree.EncodeExpr(&b, c.e)
			assert.ErrorAs(t, err, new(*exprtree.OperatorError))
			assert.Zero(t, b.Len())
		})
	}
}

func TestDecodeVars(t *testing.T) {
	src := `
x: 3
y: 2.5
z: "7"
ok: true
none: ~
`
	vars, err := exprtree.DecodeVars(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, exprtree.Vars{"x": 3, "y": 2.5, "z": "7", "ok": true, "none": nil}, vars)

	e := exprtree.Operation(exprtree.Operation(exprtree.Ref("x"), exprtree.Mul, exprtree.Ref("y")), exprtree.Add, exprtree.Ref("z"))
	r, err := exprtree.Eval(e, vars)
	require.NoError(t, err)
	assert.Equal(t, 14.5, f64(t, r))
	_, err = exprtree.Eval(exprtree.Ref("none"), vars)
	assert.ErrorAs(t, err, new(*exprtree.NameError))

	vars, err = exprtree.DecodeVars(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, vars)

	for _, bad := range []string{"[1, 2]", "x: [1]", "x: {y: 1}", "x: [", "x: 1\nx: 2", "x: 1\n---\ny: 2"} {
		_, err := exprtree.DecodeVars(strings.NewReader(bad))
		assert.ErrorAs(t, err, new(*exprtree.DocError), "%q", bad)
	}
}

func TestEvalDocument(t *testing.T) {
	r, err := exprtree.EvalDocument(strings.NewReader("{op: '-', left: x, right: 1}"), exprtree.Vars{"x": 10})
	require.NoError(t, err)
	assert.Equal(t, 9.0, f64(t, r))
	_, err = exprtree.EvalDocument(strings.NewReader("{op: '-', left: x, right: 1}"), nil)
	assert.ErrorAs(t, err, new(*exprtree.NameError))
	_, err = exprtree.EvalDocument(strings.NewReader("{op: '-'}"), nil)
	assert.ErrorAs(t, err, new(*exprtree.DocError))
}
