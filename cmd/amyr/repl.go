package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"amyr/internal/borrow"
	"amyr/internal/parser"
)

// ---- ANSI colors ----

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
)

// cmdRepl runs an interactive read-eval-print loop: each balanced chunk
// of input is parsed and borrow-checked, with the result printed and no
// state carried over to the next line — there is no interpreter behind
// this frontend, only diagnostics.
func cmdRepl() {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".amyr_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "amyr> " + colorReset,
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s%sAmyr REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	var accumulated strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "...   " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "amyr> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()

		if strings.TrimSpace(source) == "" {
			continue
		}

		evalLine(rl, source)
	}
}

func evalLine(rl *readline.Instance, source string) {
	p := parser.New(source)
	tree, perr := p.ParseProgram()
	if perr != nil {
		fmt.Fprintf(rl.Stderr(), "%s%s%s\n", colorRed, perr.Error(), colorReset)
		return
	}

	ok, violations := borrow.Check(tree)
	if !ok {
		for _, v := range violations {
			fmt.Fprintf(rl.Stderr(), "%sLine %d: %s (%s)%s\n", colorRed, v.Line, v.Message, v.Kind, colorReset)
		}
		return
	}

	fmt.Fprintf(rl.Stdout(), "%s%s%s\n", colorYellow, exprSummary(tree), colorReset)
}
