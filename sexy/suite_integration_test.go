package sexy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestExtractTestCases_CheckerSuite(t *testing.T) {
	// Read the compiler's checker suite
	content, err := os.ReadFile("../test/checker_test.md")
	be.Err(t, err, nil)

	testCases, err := ExtractTestCases(string(content))
	be.Err(t, err, nil)

	// We expect multiple test cases from the file
	be.True(t, len(testCases) > 5)

	var assignCast *TestCase
	for i := range testCases {
		if testCases[i].Name == "assign int to double" {
			assignCast = &testCases[i]
		}
	}

	be.True(t, assignCast != nil)
	be.Equal(t, assignCast.InputType, InputTypeMiniTree)
	be.Equal(t, assignCast.Assertions[0].Type, AssertionTypeTypes)

	// (program (block (init ...) (assign ...)))
	program := assignCast.Assertions[0].ParsedSexy
	be.Equal(t, program.Type, NodeList)
	be.Equal(t, program.Items[0].Text, "program")
	block := program.Items[1]
	be.Equal(t, block.Items[0].Text, "block")
	assign := block.Items[2]
	be.Equal(t, assign.Items[0].Text, "assign")
	be.Equal(t, assign.Items[2].Items[0].Text, "double-cast")
}

func TestExtractTestCases_AllSuites(t *testing.T) {
	files, err := filepath.Glob("../test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(files) >= 2)

	for _, file := range files {
		content, err := os.ReadFile(file)
		be.Err(t, err, nil)

		testCases, err := ExtractTestCases(string(content))
		be.Err(t, err, nil)

		// Verify that all test cases have proper structure
		for _, tc := range testCases {
			be.True(t, tc.Name != "")
			be.True(t, tc.Input != "")
			be.Equal(t, tc.InputType, InputTypeMiniTree)
			be.True(t, len(tc.Assertions) >= 1)

			// The input must itself be valid Sexy
			_, err := Parse(tc.Input)
			be.Err(t, err, nil)

			for _, assertion := range tc.Assertions {
				be.True(t, assertion.Content != "")
				switch assertion.Type {
				case AssertionTypeIL, AssertionTypeCompileError:
					be.True(t, assertion.ParsedSexy == nil)
				default:
					be.True(t, assertion.ParsedSexy != nil)
				}
			}
		}
	}
}
