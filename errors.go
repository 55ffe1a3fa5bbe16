package exprtree

import (
	"fmt"
	"math/big"
	"strconv"
)

// NameError is an error from a lookup for a variable that is missing from the
// evaluation environment.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// TypeError is an error from a lookup for a variable whose value cannot be
// converted to a number.
type TypeError struct {
	// Name is the variable that was looked up.
	Name string
	// Value is the value the environment holds for Name.
	Value any
}

func (err *TypeError) Error() string {
	return fmt.Sprintf("variable %q holds non-numeric value %v (%T)", err.Name, err.Value, err.Value)
}

// NumberError is an error indicating text that is not a number.
type NumberError struct {
	// Text is the text that was not understood.
	Text string
}

func (err *NumberError) Error() string {
	return "invalid number " + strconv.Quote(err.Text)
}

// OperatorError is an error indicating an operator symbol that is not one of
// + - * /.
type OperatorError struct {
	// Operator is the symbol that was not understood.
	Operator rune
}

func (err *OperatorError) Error() string {
	return "unknown operator " + strconv.QuoteRune(err.Operator)
}

// DomainError is an error returned when an operation has no numeric result,
// such as 0/0 or inf-inf. DomainError unwraps to big.ErrNaN.
type DomainError struct {
	// Op is the operator that was applied.
	Op Operator
	// X and Y are the left and right operands.
	X, Y *big.Float

	nan big.ErrNaN
}

func (err *DomainError) Error() string {
	return fmt.Sprintf("%s %c %s outside domain of %c", err.X.Text('g', -1), rune(err.Op), err.Y.Text('g', -1), rune(err.Op))
}

func (err *DomainError) Unwrap() error {
	return err.nan
}

// DocError is an error indicating a malformed tree or variables document.
type DocError struct {
	// Line and Col give the position of the offending node, starting from 1.
	// Both are 0 if the error is not attached to a node.
	Line, Col int
	// Msg describes the problem.
	Msg string
	// Err is the underlying error, if any.
	Err error
}

func (err *DocError) Error() string {
	msg := err.Msg
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return errpos(err.Line, err.Col, msg)
}

func (err *DocError) Unwrap() error {
	return err.Err
}

// errpos is a shortcut to create an error message with a position.
func errpos(line, col int, msg string) string {
	if line == 0 {
		return msg
	}
	return strconv.Itoa(line) + ":" + strconv.Itoa(col) + ": " + msg
}
