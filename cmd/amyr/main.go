// Command amyr is the CLI entry point for the Amayori compiler frontend.
//
// Usage:
//
//	amyr tokens <file>              Print the materialized token stream
//	amyr tokens <file> --json       Print tokens as JSON
//	amyr parse  <file>              Print the parsed AST as JSON
//	amyr check  <file>              Parse and run the borrow checker
//	amyr highlight <file>           Print source with ANSI syntax colors
//	amyr highlight <file> --html    Print source as a standalone HTML page
//	amyr repl                       Start an interactive REPL
package main

import (
	"context"
	"fmt"
	"os"

	"amyr/internal/borrow"
	"amyr/internal/driver"
	"amyr/internal/highlight"
	"amyr/internal/parser"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "tokens":
		requireFile("tokens")
		cmdTokens(readFile(os.Args[2]), hasFlag("--json"))
	case "parse":
		requireFile("parse")
		cmdParse(readFile(os.Args[2]))
	case "check":
		requireFile("check")
		cmdCheck(readFile(os.Args[2]))
	case "highlight":
		requireFile("highlight")
		cmdHighlight(readFile(os.Args[2]), hasFlag("--html"))
	case "compile-all":
		cmdCompileAll(os.Args[2:])
	case "repl":
		cmdRepl()
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  amyr tokens <file> [--json]     Print the materialized token stream")
	fmt.Fprintln(os.Stderr, "  amyr parse  <file>              Print the parsed AST (JSON)")
	fmt.Fprintln(os.Stderr, "  amyr check  <file>              Parse and run the borrow checker")
	fmt.Fprintln(os.Stderr, "  amyr highlight <file> [--html]  Syntax-highlight a source file")
	fmt.Fprintln(os.Stderr, "  amyr compile-all <file>...      Compile several units concurrently")
	fmt.Fprintln(os.Stderr, "  amyr repl                       Start an interactive REPL")
}

func requireFile(command string) {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "error: '%s' requires a file argument\n", command)
		os.Exit(1)
	}
}

func readFile(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

func hasFlag(flag string) bool {
	for _, arg := range os.Args[3:] {
		if arg == flag {
			return true
		}
	}
	return false
}

// ---- tokens command ----

func cmdTokens(source string, jsonMode bool) {
	toks := parser.Materialize(source)
	if jsonMode {
		printTokensJSON(toks)
	} else {
		printTokensText(toks)
	}
}

// ---- parse command ----

func cmdParse(source string) {
	p := parser.New(source)
	tree, err := p.ParseProgram()
	if err != nil {
		printJSON(map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	printJSON(map[string]interface{}{"ast": exprToMap(tree)})
}

// ---- check command ----

func cmdCheck(source string) {
	p := parser.New(source)
	tree, err := p.ParseProgram()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ok, violations := borrow.Check(tree)
	if ok {
		fmt.Println("ok: no borrow violations")
		return
	}
	for _, d := range violationsToDiagnostics(violations) {
		fmt.Fprintln(os.Stderr, d.Line())
	}
	os.Exit(1)
}

// ---- highlight command ----

func cmdHighlight(source string, htmlMode bool) {
	var err error
	if htmlMode {
		err = highlight.WriteHTML(os.Stdout, source)
	} else {
		err = highlight.WriteANSI(os.Stdout, source)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: highlighting failed: %v\n", err)
		os.Exit(1)
	}
}

// ---- compile-all command ----

func cmdCompileAll(files []string) {
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: 'compile-all' requires at least one file argument")
		os.Exit(1)
	}

	units := make([]driver.Unit, len(files))
	for i, f := range files {
		units[i] = driver.Unit{Name: f, Source: readFile(f)}
	}

	results, err := driver.CompileAll(context.Background(), units)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(driver.Summary(results))

	for _, r := range results {
		if r.ParseErr != nil || len(r.Violations) > 0 {
			os.Exit(1)
		}
	}
}
