package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minilang/minic/sexy"
	"github.com/nalgeon/be"
	"github.com/pkg/errors"
)

func TestSexyAllTests(t *testing.T) {
	// Find all test files in the test/ directory
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	// Run tests for each file
	for _, testFile := range testFiles {
		// Extract a clean test name from the file path
		fileName := filepath.Base(testFile)
		testName := strings.TrimSuffix(fileName, ".md")

		t.Run(testName, func(t *testing.T) {
			// Read the test file
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			// Extract test cases
			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			// Generate a subtest for each test case
			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runSexyTestCase(t, tc)
				})
			}
		})
	}
}

func runSexyTestCase(t *testing.T, tc sexy.TestCase) {
	if tc.InputType != sexy.InputTypeMiniTree {
		t.Fatalf("Unknown input type: %s", tc.InputType)
	}

	program, err := ParseTree(tc.Input)
	be.Err(t, err, nil)

	checker := NewChecker(program)
	checkErr := checker.CheckSemantics()

	for i, assertion := range tc.Assertions {
		t.Run("assertion_"+string(rune('a'+i)), func(t *testing.T) {
			if assertion.Type == sexy.AssertionTypeCompileError {
				be.Equal(t, describeCompileError(checkErr), assertion.Content)
				return
			}

			// Every other assertion describes a successful compile.
			be.Err(t, checkErr, nil)

			switch assertion.Type {
			case sexy.AssertionTypeAST:
				be.Equal(t, ToSExpr(program), assertion.ParsedSexy.String())
			case sexy.AssertionTypeTypes:
				be.Equal(t, ToSExprTyped(program), assertion.ParsedSexy.String())
			case sexy.AssertionTypeLocals:
				be.Equal(t, SlotsToSExpr(checker.Slots()), assertion.ParsedSexy.String())
			case sexy.AssertionTypeIL:
				code := GenerateCode(program, checker.Slots())
				be.Equal(t, strings.TrimRight(code, "\n"), assertion.Content)
			default:
				t.Fatalf("Unknown assertion type: %s", assertion.Type)
			}
		})
	}
}

// describeCompileError formats err the way compile-error fences spell it.
func describeCompileError(err error) string {
	var semErr *SemanticError
	if !errors.As(err, &semErr) {
		return fmt.Sprintf("no semantic error (got %v)", err)
	}
	return fmt.Sprintf("%s line %d", semErr.Code, semErr.Line)
}
