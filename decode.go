package exprtree

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Tree documents are YAML. Each node is one of:
//
//	num: 2.5              # constant; a bare number is the same
//	var: x                # variable reference; a bare string is the same
//	op: "*"               # operation
//	left: <node>
//	right: <node>
//
// so that "x * (y + 2)" may be written
//
//	op: "*"
//	left: x
//	right: {op: +, left: y, right: 2}

// DecodeExpr reads one tree document. Malformed documents give a *DocError.
func DecodeExpr(src io.Reader) (Expr, error) {
	doc, err := document(src)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &DocError{Msg: "empty document"}
	}
	d := decoder{active: make(map[*yaml.Node]bool)}
	return d.node(doc)
}

// DecodeExprString is a shortcut to decode a tree document from a string.
func DecodeExprString(src string) (Expr, error) {
	return DecodeExpr(strings.NewReader(src))
}

// EvalDocument is a shortcut to decode a tree document and evaluate it.
func EvalDocument(src io.Reader, env Env, opts ...EvalOption) (*big.Float, error) {
	e, err := DecodeExpr(src)
	if err != nil {
		return nil, err
	}
	return Eval(e, env, opts...)
}

// document reads the only YAML document in src. The result is nil if src
// holds no documents.
func document(src io.Reader) (*yaml.Node, error) {
	dec := yaml.NewDecoder(src)
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &DocError{Msg: "invalid YAML", Err: err}
	}
	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return &doc, nil
	case err != nil:
		return nil, &DocError{Msg: "invalid YAML", Err: err}
	default:
		at := &extra
		if len(extra.Content) > 0 {
			at = extra.Content[0]
		}
		return nil, docerr(at, "more than one document")
	}
}

// maxNodes limits the size of decoded trees, counting each use of an alias
// separately, so that documents can't expand exponentially.
const maxNodes = 100000

// decoder converts YAML nodes to expression nodes.
type decoder struct {
	// active is the set of alias targets currently being decoded, so that an
	// alias to its own ancestor is an error rather than an endless loop.
	active map[*yaml.Node]bool
	// count is the number of nodes decoded so far.
	count int
}

func (d *decoder) node(n *yaml.Node) (Expr, error) {
	d.count++
	if d.count > maxNodes {
		return nil, docerr(n, "document expands to too many nodes")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return nil, docerr(n, "document must hold exactly one node")
		}
		return d.node(n.Content[0])
	case yaml.AliasNode:
		if d.active[n.Alias] {
			return nil, docerr(n, "alias *"+n.Value+" refers to itself")
		}
		d.active[n.Alias] = true
		defer delete(d.active, n.Alias)
		return d.node(n.Alias)
	case yaml.ScalarNode:
		return scalar(n)
	case yaml.MappingNode:
		return d.mapping(n)
	default:
		return nil, docerr(n, "expected a number, a name, or a mapping")
	}
}

// scalar decodes the shorthand forms: numbers are constants, strings are
// variables.
func scalar(n *yaml.Node) (Expr, error) {
	switch n.ShortTag() {
	case "!!int", "!!float":
		return number(n)
	case "!!str":
		if n.Value == "" {
			return nil, docerr(n, "empty variable name")
		}
		return Ref(n.Value), nil
	default:
		return nil, docerr(n, "cannot use "+n.ShortTag()+" "+n.Value+" as an expression")
	}
}

// number decodes a scalar as a constant. Integers are read the way YAML
// reads them, so 0777 is octal wherever it appears, and keep their decimal
// text. Other numbers keep their source text.
func number(n *yaml.Node) (Expr, error) {
	n = deref(n)
	if n.Kind != yaml.ScalarNode {
		return nil, docerr(n, "num must be a scalar")
	}
	s := n.Value
	switch n.ShortTag() {
	case "!!int":
		v, ok := intval(n)
		if !ok {
			return nil, &DocError{Line: n.Line, Col: n.Column, Msg: "bad constant", Err: &NumberError{Text: s}}
		}
		return Const{v: v, text: v.Text('f', 0)}, nil
	case "!!float":
		// YAML spells infinities .inf, .Inf, or .INF.
		switch strings.ToLower(s) {
		case ".inf", "+.inf":
			s = "+Inf"
		case "-.inf":
			s = "-Inf"
		}
	}
	c, err := NumString(s)
	if err != nil {
		return nil, &DocError{Line: n.Line, Col: n.Column, Msg: "bad constant", Err: err}
	}
	return c, nil
}

func (d *decoder) mapping(n *yaml.Node) (Expr, error) {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, docerr(k, "keys must be scalars")
		}
		switch k.Value {
		case "num", "var", "op", "left", "right":
		default:
			return nil, docerr(k, "unknown key "+k.Value)
		}
		if fields[k.Value] != nil {
			return nil, docerr(k, "duplicate key "+k.Value)
		}
		fields[k.Value] = v
	}
	switch {
	case fields["num"] != nil:
		if len(fields) != 1 {
			return nil, docerr(n, "num node must have no other keys")
		}
		return number(fields["num"])
	case fields["var"] != nil:
		if len(fields) != 1 {
			return nil, docerr(n, "var node must have no other keys")
		}
		v := deref(fields["var"])
		if v.Kind != yaml.ScalarNode || v.Value == "" {
			return nil, docerr(v, "var must be a non-empty name")
		}
		return Ref(v.Value), nil
	case fields["op"] != nil:
		sym := deref(fields["op"])
		if sym.Kind != yaml.ScalarNode || utf8.RuneCountInString(sym.Value) != 1 {
			return nil, docerr(sym, "op must be a single operator symbol")
		}
		r, _ := utf8.DecodeRuneInString(sym.Value)
		op, err := ParseOperator(r)
		if err != nil {
			return nil, &DocError{Line: sym.Line, Col: sym.Column, Msg: "bad op", Err: err}
		}
		ln, rn := fields["left"], fields["right"]
		if ln == nil || rn == nil {
			return nil, docerr(n, "op node needs both left and right")
		}
		left, err := d.node(ln)
		if err != nil {
			return nil, err
		}
		right, err := d.node(rn)
		if err != nil {
			return nil, err
		}
		return Operation(left, op, right), nil
	default:
		return nil, docerr(n, "node must have num, var, or op")
	}
}

// intval decodes a scalar that YAML resolves as an integer.
func intval(n *yaml.Node) (*big.Float, bool) {
	var x any
	if err := n.Decode(&x); err != nil {
		return nil, false
	}
	return Number(x, 0)
}

// deref follows an alias to its anchored node.
func deref(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}

func docerr(n *yaml.Node, msg string) *DocError {
	return &DocError{Line: n.Line, Col: n.Column, Msg: msg}
}

// EncodeExpr writes a tree document for e. Constants and variables are
// written in shorthand where the shorthand reads back the same way.
func EncodeExpr(w io.Writer, e Expr) error {
	n, err := encode(e)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("exprtree: encoding tree: %w", err)
	}
	return enc.Close()
}

func encode(e Expr) (*yaml.Node, error) {
	switch e := e.(type) {
	case Const:
		return constnode(e), nil
	case Var:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.name}, nil
	case *Op:
		if !e.op.Valid() {
			return nil, &OperatorError{Operator: rune(e.op)}
		}
		left, err := encode(e.left)
		if err != nil {
			return nil, err
		}
		right, err := encode(e.right)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "op"},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.op.String()},
				{Kind: yaml.ScalarNode, Value: "left"},
				left,
				{Kind: yaml.ScalarNode, Value: "right"},
				right,
			},
		}, nil
	default:
		return nil, fmt.Errorf("exprtree: cannot encode %T", e)
	}
}

// constnode creates the node for a constant. Source text that YAML would not
// read as the same number is kept in a num node as a string.
func constnode(c Const) *yaml.Node {
	if c.text != "" {
		plain := &yaml.Node{Kind: yaml.ScalarNode, Value: c.text}
		switch plain.ShortTag() {
		case "!!float":
			return plain
		case "!!int":
			if v, ok := intval(plain); ok && v.Text('f', 0) == c.text {
				return plain
			}
		}
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "num"},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.text},
			},
		}
	}
	v := c.Value()
	switch {
	case v.IsInf() && v.Signbit():
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: "-.inf"}
	case v.IsInf():
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".inf"}
	case v.IsInt() && v.MantExp(nil) < 64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.Text('f', 0)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.Text('g', -1)}
	}
}

// DecodeVars reads a variables document, a mapping from names to scalar
// values. Values keep the types YAML gives them, so they are converted to
// numbers only when an expression looks them up. An empty document gives an
// empty Vars.
func DecodeVars(src io.Reader) (Vars, error) {
	n, err := document(src)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return Vars{}, nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) != 1 {
			return nil, docerr(n, "document must hold exactly one node")
		}
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, docerr(n, "variables must be a mapping")
	}
	vars := make(Vars, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, docerr(k, "variable names must be scalars")
		}
		if _, ok := vars[k.Value]; ok {
			return nil, docerr(k, "duplicate variable "+k.Value)
		}
		v = deref(v)
		if v.Kind != yaml.ScalarNode {
			return nil, docerr(v, "value of "+k.Value+" must be a scalar")
		}
		var x any
		if err := v.Decode(&x); err != nil {
			return nil, &DocError{Line: v.Line, Col: v.Column, Msg: "value of " + k.Value, Err: err}
		}
		vars[k.Value] = x
	}
	return vars, nil
}
