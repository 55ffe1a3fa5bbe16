package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/zephyrtronium/exprtree"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run evaluates each tree document named in args, or the one on stdin if
// there are none, and prints the results to stdout.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		varsname, verb string
		echo, deps     bool
		prec           int
	)
	given := exprtree.Vars{}
	addgiven := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		given[strings.TrimSpace(d[0])] = strings.TrimSpace(d[1])
		return nil
	}
	fs := flag.NewFlagSet("exprtree", flag.ContinueOnError)
	fs.StringVar(&varsname, "vars", "", "YAML file of variable definitions")
	fs.StringVar(&verb, "fmt", "%g", "result formatting string")
	fs.Func("given", "name=value variable definition (any number of times, overrides -vars)", addgiven)
	fs.IntVar(&prec, "p", exprtree.DefaultPrec, "precision of calculations in bits")
	fs.BoolVar(&echo, "echo", false, "print trees before their results")
	fs.BoolVar(&deps, "deps", false, "print the variables each tree uses instead of evaluating")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if prec <= 0 {
		return fmt.Errorf("precision (%d) must be positive", prec)
	}

	env := exprtree.Layered(given)
	if varsname != "" {
		f, err := os.Open(varsname)
		if err != nil {
			return err
		}
		vars, err := exprtree.DecodeVars(bufio.NewReader(f))
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", varsname, err)
		}
		env = exprtree.Layered(given, vars)
	}

	var trees []exprtree.Expr
	if fs.NArg() == 0 {
		e, err := exprtree.DecodeExpr(stdin)
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		trees = append(trees, e)
	}
	for _, name := range fs.Args() {
		e, err := decodefile(name, stdin)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		trees = append(trees, e)
	}

	verb += "\n"
	for _, e := range trees {
		if echo {
			fmt.Fprintf(stdout, "%v : ", e)
		}
		if deps {
			fmt.Fprintln(stdout, strings.Join(exprtree.Names(e), " "))
			continue
		}
		r, err := exprtree.Eval(e, env, exprtree.Prec(uint(prec)))
		if err != nil {
			fmt.Fprintln(stdout, err)
			continue
		}
		fmt.Fprintf(stdout, verb, r)
	}
	return nil
}

func decodefile(name string, stdin io.Reader) (exprtree.Expr, error) {
	if name == "-" {
		return exprtree.DecodeExpr(stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return exprtree.DecodeExpr(bufio.NewReader(f))
}
