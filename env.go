package exprtree

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"
)

// Env is an environment of named values consulted while evaluating
// expressions. Evaluation only ever calls Lookup, so an Env that is not being
// modified may be shared between any number of concurrent evaluations.
type Env interface {
	// Lookup returns the value bound to name and whether there is one.
	Lookup(name string) (any, bool)
}

// Vars is an Env backed by a map. Values may be of any type that Number
// understands; conversion happens each time a variable is looked up, so
// changes to the map are seen by the next evaluation.
type Vars map[string]any

// Lookup returns the value of a variable.
func (v Vars) Lookup(name string) (any, bool) {
	x, ok := v[name]
	return x, ok
}

type layered []Env

// Layered combines several environments into one. Lookups consult each in
// order and use the first that has a binding for the name. Nil environments
// are skipped.
func Layered(envs ...Env) Env {
	l := make(layered, 0, len(envs))
	for _, e := range envs {
		if e != nil {
			l = append(l, e)
		}
	}
	return l
}

func (l layered) Lookup(name string) (any, bool) {
	for _, e := range l {
		if x, ok := e.Lookup(name); ok {
			return x, true
		}
	}
	return nil, false
}

// Numeric is implemented by boxed values that can report their own numeric
// value. Number uses it for types it does not otherwise know.
type Numeric interface {
	// Number returns the value. A nil result means the value is not a number.
	Number() *big.Float
}

// Number converts a dynamically typed environment value to a number with the
// given precision. Integers of every size are widened to floating point.
// Strings are parsed as numbers in the syntax accepted by big.Float.Parse,
// ignoring surrounding spaces, and booleans are 1 or 0. The second result is
// false if v has no numeric interpretation, including NaN. Defined types
// whose underlying type is an integer or float, like time.Duration, convert
// as their underlying type.
func Number(v any, prec uint) (*big.Float, bool) {
	r := new(big.Float).SetPrec(prec)
	switch v := v.(type) {
	case int:
		r.SetInt64(int64(v))
	case int8:
		r.SetInt64(int64(v))
	case int16:
		r.SetInt64(int64(v))
	case int32:
		r.SetInt64(int64(v))
	case int64:
		r.SetInt64(v)
	case uint:
		r.SetUint64(uint64(v))
	case uint8:
		r.SetUint64(uint64(v))
	case uint16:
		r.SetUint64(uint64(v))
	case uint32:
		r.SetUint64(uint64(v))
	case uint64:
		r.SetUint64(v)
	case uintptr:
		r.SetUint64(uint64(v))
	case float32:
		if math.IsNaN(float64(v)) {
			return nil, false
		}
		r.SetFloat64(float64(v))
	case float64:
		if math.IsNaN(v) {
			return nil, false
		}
		r.SetFloat64(v)
	case *big.Int:
		if v == nil {
			return nil, false
		}
		r.SetInt(v)
	case *big.Float:
		if v == nil {
			return nil, false
		}
		r.Set(v)
	case *big.Rat:
		if v == nil {
			return nil, false
		}
		r.SetRat(v)
	case bool:
		if v {
			r.SetInt64(1)
		}
	case json.Number:
		return parsenum(string(v), prec)
	case string:
		return parsenum(strings.TrimSpace(v), prec)
	case Numeric:
		x := v.Number()
		if x == nil {
			return nil, false
		}
		r.Set(x)
	default:
		return kindnum(r, reflect.ValueOf(v))
	}
	return r, true
}

// kindnum converts values of defined numeric types by their kind.
func kindnum(r *big.Float, v reflect.Value) (*big.Float, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		r.SetInt64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		r.SetUint64(v.Uint())
	case reflect.Float32, reflect.Float64:
		x := v.Float()
		if math.IsNaN(x) {
			return nil, false
		}
		r.SetFloat64(x)
	default:
		return nil, false
	}
	return r, true
}

// parsenum parses the text of a number. Overflowing exponents round to
// infinity.
func parsenum(s string, prec uint) (*big.Float, bool) {
	if s == "∞" || s == "+∞" {
		s = "inf"
	} else if s == "-∞" {
		s = "-inf"
	}
	r, _, err := new(big.Float).SetPrec(prec).Parse(s, 0)
	switch {
	case err == nil:
		return r, true
	case s != "" && (err.Error() == "exponent overflow" ||
		strings.HasSuffix(err.Error(), ": value out of range")):
		// There isn't realistically any better way to detect this error.
		return new(big.Float).SetPrec(prec).SetInf(s[0] == '-'), true
	default:
		return nil, false
	}
}
