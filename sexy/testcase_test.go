package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Writes

## Test: write int
` + "```mini-tree" + `
(program (block (write (int 1))))
` + "```" + `
` + "```ast" + `
(program (block (write (int 1))))
` + "```" + `

## Test: write bool
` + "```mini-tree" + `
(program (block (write (bool true))))
` + "```" + `
` + "```ast" + `
(program (block (write (bool true))))
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	// First test case
	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "write int")
	be.Equal(t, tc1.Input, "(program (block (write (int 1))))")
	be.Equal(t, tc1.InputType, InputTypeMiniTree)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeAST)
	be.Equal(t, tc1.Assertions[0].Content, `(program (block (write (int 1))))`)
	be.Equal(t, tc1.Assertions[0].ParsedSexy.String(), `(program (block (write (int 1))))`)

	// Second test case
	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "write bool")
	be.Equal(t, tc2.InputType, InputTypeMiniTree)
	be.Equal(t, len(tc2.Assertions), 1)
	be.Equal(t, tc2.Assertions[0].ParsedSexy.String(), `(program (block (write (bool true))))`)
}

func TestExtractTestCases_MultipleAssertions(t *testing.T) {
	markdown := `## Test: multiple assertions
` + "```mini-tree" + `
(program (block (init int "x") (write (var "x"))))
` + "```" + `
` + "```types" + `
(program (block (init ^{slot: 0} int "x") (write (var ^{type: Int, slot: 0} "x"))))
` + "```" + `
` + "```locals" + `
(locals (int "x"))
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, tc.Name, "multiple assertions")
	be.Equal(t, len(tc.Assertions), 2)

	be.Equal(t, tc.Assertions[0].Type, AssertionTypeTypes)
	be.Equal(t, tc.Assertions[0].ParsedSexy.String(),
		`(program (block (^{slot: 0} init int "x") (write (^{type: Int, slot: 0} var "x"))))`)

	be.Equal(t, tc.Assertions[1].Type, AssertionTypeLocals)
	be.Equal(t, tc.Assertions[1].ParsedSexy.String(), `(locals (int "x"))`)
}

func TestExtractTestCases_VerbatimAssertions(t *testing.T) {
	markdown := `## Test: verbatim
` + "```mini-tree" + `
(program (block (write (int 1))))
` + "```" + `
` + "```il" + `
ldc.i4 1
call void [mscorlib]System.Console::WriteLine(int32)
ret
` + "```" + `

## Test: rejected
` + "```mini-tree" + `
(program (block (write (var "y"))))
` + "```" + `
` + "```compile-error" + `
UndeclaredVariable line -1
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	il := testCases[0].Assertions[0]
	be.Equal(t, il.Type, AssertionTypeIL)
	be.Equal(t, il.Content, "ldc.i4 1\ncall void [mscorlib]System.Console::WriteLine(int32)\nret")
	be.True(t, il.ParsedSexy == nil)

	compileErr := testCases[1].Assertions[0]
	be.Equal(t, compileErr.Type, AssertionTypeCompileError)
	be.Equal(t, compileErr.Content, "UndeclaredVariable line -1")
	be.True(t, compileErr.ParsedSexy == nil)
}

func TestExtractTestCases_EmptyFile(t *testing.T) {
	markdown := ""

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	markdown := `# Just a document

Some prose, but no tests.

## Another heading
`

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

// tree is a minimal input fence.
const tree = "```mini-tree\n(program (block))\n```\n"

func TestExtractTestCases_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			"unparsable ast",
			"## Test: half a tree\n" + tree + "```ast\n(program (block\n```\n",
			"failed to parse Sexy assertion in test 'half a tree'",
		},
		{
			"unknown language in test",
			"## Test: python\n```python\nprint(1)\n```\n" + tree + "```il\nret\n```\n",
			"unknown fence language 'python'",
		},
		{
			"unknown language outside test",
			"# Notes\n\n```go\nfunc main() {}\n```\n",
			"unknown fence language 'go' found outside of test case",
		},
		{
			"no input",
			"## Test: il only\n```il\nret\n```\n",
			"test 'il only' has no input fence",
		},
		{
			"no assertions",
			"## Test: input only\n" + tree,
			"test 'input only' has no assertion fences",
		},
		{
			"two inputs",
			"## Test: twice\n" + tree + tree + "```il\nret\n```\n",
			"multiple input fences found in test 'twice'",
		},
		{
			"second test broken",
			"## Test: fine\n" + tree + "```il\nret\n```\n\n## Test: broken\n```il\nret\n```\n",
			"test 'broken' has no input fence",
		},
		{
			"line of stray fence",
			"# Title\nLine 2\nLine 3\n\n" + tree,
			"line 6: mini-tree fence found outside",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testCases, err := ExtractTestCases(test.markdown)
			be.Err(t, err, test.expected)
			be.Equal(t, len(testCases), 0)
		})
	}
}

func TestExtractTestCases_FenceOutsideTest(t *testing.T) {
	fences := map[string]string{
		"mini-tree":     "(program (block))",
		"ast":           "(program (block))",
		"types":         "(program (block))",
		"locals":        "(locals)",
		"il":            "ret",
		"compile-error": "IllegalCast line 1",
	}

	for lang, body := range fences {
		t.Run(lang, func(t *testing.T) {
			markdown := "Intro.\n\n```" + lang + "\n" + body + "\n```\n"
			_, err := ExtractTestCases(markdown)
			// Reported at the first line inside the fence.
			be.Err(t, err, "line 4: "+lang+" fence found outside of test case")
		})
	}
}

func TestExtractTestCases_AllowFencesWithoutLanguage(t *testing.T) {
	markdown := `# Notes

` + "```" + `
free-form text
` + "```" + `

## Test: valid test
` + "```mini-tree" + `
(program (block (write (int 3))))
` + "```" + `
` + "```" + `
also ignored
` + "```" + `
` + "```il" + `
ldc.i4 3
call void [mscorlib]System.Console::WriteLine(int32)
ret
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, testCases[0].Name, "valid test")
	be.Equal(t, len(testCases[0].Assertions), 1)
}

func TestExtractTestCases_MultiLineTree(t *testing.T) {
	markdown := `## Test: multi-line tree
` + "```mini-tree" + `
(program
 (block
  (init double "d")
  (assign ^{line: 2} (var "d") (double 1.5))))
` + "```" + `
` + "```ast" + `
(program
 (block
  (init double "d")
  (assign (var "d") (double 1.5))))
` + "```"

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.True(t, strings.HasPrefix(tc.Input, "(program\n"))

	assertion := tc.Assertions[0].ParsedSexy
	be.Equal(t, assertion.Type, NodeList)
	be.Equal(t, len(assertion.Items), 2)
	be.Equal(t, assertion.Items[0].Text, "program")

	block := assertion.Items[1]
	be.Equal(t, len(block.Items), 3)
	assign := block.Items[2]
	be.Equal(t, assign.Items[2].Items[1].Type, NodeFloat)
	be.Equal(t, assign.Items[2].Items[1].Text, "1.5")
}
