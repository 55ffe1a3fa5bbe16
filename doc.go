// Package exprtree implements arithmetic expression trees evaluated against
// an environment of named variables.
//
// Trees are built from three kinds of node: constants, references to
// variables, and binary operations combining two subtrees with one of
// + - * /. A tree is built once, bottom-up, and never changes afterward. It can
// then be evaluated any number of times against environments whose contents
// may change between evaluations. For example, "x * (y + 2)" is
//
//	e := exprtree.Operation(
//		exprtree.Ref("x"),
//		exprtree.Mul,
//		exprtree.Operation(exprtree.Ref("y"), exprtree.Add, exprtree.NumInt(2)),
//	)
//	r, err := exprtree.Eval(e, exprtree.Vars{"x": 3, "y": 4})
//
// Environment values may be of any numeric Go type, numeric strings, and
// several others; they are converted to numbers when they are looked up.
//
// Trees can also be read from and written to YAML documents.
package exprtree
