package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// exitUsage is returned for bad invocations and unreadable input; semantic
// errors exit with their SemanticErrorCode.
const exitUsage = 64

func showUsage() {
	fmt.Fprintf(os.Stderr, `minic - checks MiNI program trees and compiles them to CIL assembly

Usage:
    minic <command> [arguments]

Commands:
    build <file>    Compile a program tree to an ilasm source file
    emit <tree>     Compile an inline program tree and print the code
    check <file>    Type-check a program tree
    help            Show this help message

Examples:
    minic build -o prog.il prog.tree
    minic emit '(program (block (write (int 42))))'
    minic check prog.tree

Use "minic <command> -h" for more information about a command.
`)
}

func buildCommand(args []string) int {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.il)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: minic build [-o output] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a program tree to an ilasm source file\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		return exitUsage
	}

	filename := fs.Arg(0)

	// Determine output filename
	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".il"
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s to %s...\n", filename, outputFile)
	}

	source, err := readTree(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	code, err := compileProgram(source, assemblyName(filename), *verbose, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		return exitCode(err)
	}

	if err := os.WriteFile(outputFile, []byte(code), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", errors.Wrapf(err, "writing %s", outputFile))
		return exitUsage
	}

	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(code))
	return 0
}

func emitCommand(args []string) int {
	fs := flag.NewFlagSet("emit", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	body := fs.Bool("body", false, "Print only the method body, without the assembly wrapper")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: minic emit [-v] [-body] <tree>\n")
		fmt.Fprintf(os.Stderr, "Compile an inline program tree and print the code\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one tree argument\n")
		fs.Usage()
		return exitUsage
	}

	program, slots, err := checkProgram(fs.Arg(0), *verbose, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		return exitCode(err)
	}

	if *body {
		fmt.Print(GenerateCode(program, slots))
	} else {
		fmt.Print(GenerateAssembly(program, slots, "eval"))
	}
	return 0
}

func checkCommand(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: minic check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Type-check a program tree\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		return exitUsage
	}

	filename := fs.Arg(0)

	source, err := readTree(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	if _, _, err := checkProgram(source, *verbose, os.Stderr); err != nil {
		fmt.Printf("%s: %v\n", filename, err)
		return exitCode(err)
	}

	fmt.Printf("%s: no errors found\n", filename)
	return 0
}

func readTree(filename string) (string, error) {
	sourceBytes, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", filename)
	}
	return string(sourceBytes), nil
}

// checkProgram parses and checks a program tree. Verbose progress goes to
// log.
func checkProgram(source string, verbose bool, log io.Writer) (*ASTNode, []*VarInfo, error) {
	program, err := ParseTree(source)
	if err != nil {
		return nil, nil, err
	}

	checker := NewChecker(program)
	if err := checker.CheckSemantics(); err != nil {
		return nil, nil, errors.Wrap(err, "semantic error")
	}

	if verbose {
		fmt.Fprintf(log, "AST: %s\n", ToSExpr(program))
		fmt.Fprintf(log, "Locals: %s\n", SlotsToSExpr(checker.Slots()))
	}
	return program, checker.Slots(), nil
}

// compileProgram checks a program tree and returns a complete ilasm
// translation unit for it.
func compileProgram(source, name string, verbose bool, log io.Writer) (string, error) {
	program, slots, err := checkProgram(source, verbose, log)
	if err != nil {
		return "", err
	}

	code := GenerateAssembly(program, slots, name)
	if verbose {
		fmt.Fprintf(log, "Generated %d bytes of CIL\n", len(code))
	}
	return code, nil
}

// exitCode maps a pipeline error to the process exit code. Tree syntax
// errors have no semantic code and exit like usage errors.
func exitCode(err error) int {
	code := ErrorCode(err)
	if code == UnexpectedError {
		var semErr *SemanticError
		if !errors.As(err, &semErr) {
			return exitUsage
		}
	}
	return int(code)
}

func assemblyName(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(exitUsage)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		os.Exit(buildCommand(args))
	case "emit":
		os.Exit(emitCommand(args))
	case "check":
		os.Exit(checkCommand(args))
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(exitUsage)
	}
}
