// Command asm translates brianiac assembly source into a ROM image.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/brijohn/brianiac/pkg/lexer"
	"github.com/brijohn/brianiac/pkg/parser"
	"github.com/spf13/cobra"
)

func main() {
	var split bool

	rootCmd := &cobra.Command{
		Use:   "asm <source> <destination>",
		Short: "Assemble brianiac source into a ROM image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assemble(args[0], args[1], split)
		},
	}
	rootCmd.Flags().BoolVar(&split, "split", false, "write even/odd byte banks instead of one file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "asm:", err)
		os.Exit(1)
	}
}

func assemble(source, dest string, split bool) error {
	src, err := os.ReadFile(source)
	if err != nil {
		return err
	}

	toks, err := lexer.New(string(src)).Tokens()
	if err != nil {
		printDiagnostic(string(src), err)
		return err
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		printDiagnostic(string(src), err)
		return err
	}
	code, listing, err := prog.Emit()
	if err != nil {
		return err
	}

	fmt.Print(listing)

	if !split {
		return os.WriteFile(dest, code, 0o644)
	}
	return writeSplit(dest, code)
}

// writeSplit emits <dest_stem>_hi<ext> (even-indexed bytes) and
// <dest_stem>_lo<ext> (odd-indexed bytes), for targets that wire the even
// and odd ROM bytes to separate byte-wide chips.
func writeSplit(dest string, code []byte) error {
	stem, ext := splitExt(dest)

	var hi, lo []byte
	for i, b := range code {
		if i%2 == 0 {
			hi = append(hi, b)
		} else {
			lo = append(lo, b)
		}
	}

	if err := os.WriteFile(stem+"_hi"+ext, hi, 0o644); err != nil {
		return err
	}
	return os.WriteFile(stem+"_lo"+ext, lo, 0o644)
}

func splitExt(path string) (stem, ext string) {
	if i := strings.LastIndex(path, "."); i >= 0 && !strings.Contains(path[i:], "/") {
		return path[:i], path[i:]
	}
	return path, ""
}

// printDiagnostic prints the offending source line alongside a lex or parse
// error, trimmed of trailing whitespace so the pointer lines up with visibly
// meaningful text.
func printDiagnostic(src string, err error) {
	var line int
	switch e := err.(type) {
	case *lexer.Error:
		line = e.Line
	case *parser.Error:
		line = e.Token.Line
	default:
		return
	}
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return
	}
	fmt.Fprintf(os.Stderr, "%d: %s\n", line, lexer.TrimIndent(lines[line-1]))
}
