package main

import (
	"strconv"

	"github.com/minilang/minic/sexy"
	"github.com/pkg/errors"
)

// Trees travel between the parser and the compiler as Sexy data:
//
//	(program (block
//	  (init int "x")
//	  (assign ^{line: 2} (var "x") (int 2))
//	  (write (var "x"))))
//
// A list may carry ^{line: N}; otherwise it inherits its parent's line.

// ParseTree reads a program tree from its Sexy text.
func ParseTree(text string) (*ASTNode, error) {
	datum, err := sexy.Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "reading tree")
	}
	program, err := TreeFromSexy(datum)
	if err != nil {
		return nil, err
	}
	if program.Kind != NodeProgram {
		return nil, errors.Errorf("line %d: expected (program ...), got %s", program.Line, program.Kind)
	}
	return program, nil
}

// TreeFromSexy converts a Sexy datum into an AST node.
func TreeFromSexy(datum *sexy.Node) (*ASTNode, error) {
	return convertNode(datum, -1)
}

var unaryForms = map[string]NodeKind{
	"paren":       NodeParenthesis,
	"int-cast":    NodeIntCast,
	"double-cast": NodeDoubleCast,
	"not":         NodeNot,
	"minus":       NodeMinus,
	"neg":         NodeNeg,
}

var operatorForms = map[string]NodeKind{
	"binary":  NodeBinaryOp,
	"compare": NodeComparison,
	"logic":   NodeLogicOp,
}

var operatorsByKind = map[NodeKind][]string{
	NodeBinaryOp:   {OpAdd, OpSub, OpMult, OpDiv, OpBitAnd, OpBitOr},
	NodeComparison: {OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual},
	NodeLogicOp:    {OpAnd, OpOr},
}

var typeNames = map[string]ValueType{
	"int":    TypeInt,
	"double": TypeDouble,
	"bool":   TypeBool,
}

func convertNode(datum *sexy.Node, line int) (*ASTNode, error) {
	if datum.Type != sexy.NodeList || len(datum.Items) == 0 || datum.Items[0].Type != sexy.NodeSymbol {
		return nil, errors.Errorf("line %d: expected a (form ...) list, got %s", line, datum)
	}
	line, err := metaLine(datum, line)
	if err != nil {
		return nil, err
	}
	form := datum.Items[0].Text
	args := datum.Items[1:]

	arity := func(lo, hi int) error {
		if len(args) < lo || len(args) > hi {
			if lo == hi {
				return errors.Errorf("line %d: (%s ...) takes %d arguments, got %d", line, form, lo, len(args))
			}
			return errors.Errorf("line %d: (%s ...) takes %d to %d arguments, got %d", line, form, lo, hi, len(args))
		}
		return nil
	}
	children := func(kinds ...NodeKind) ([]*ASTNode, error) {
		nodes := make([]*ASTNode, len(args))
		for i, arg := range args {
			child, err := convertNode(arg, line)
			if err != nil {
				return nil, err
			}
			if i < len(kinds) && kinds[i] != "" && child.Kind != kinds[i] {
				return nil, errors.Errorf("line %d: argument %d of (%s ...) must be %s, got %s", child.Line, i+1, form, kinds[i], child.Kind)
			}
			nodes[i] = child
		}
		return nodes, nil
	}
	expressions := func() ([]*ASTNode, error) {
		nodes, err := children()
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if !n.Kind.IsExpression() {
				return nil, errors.Errorf("line %d: (%s ...) expects an expression, got %s", n.Line, form, n.Kind)
			}
		}
		return nodes, nil
	}

	switch form {
	case "program":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		nodes, err := children(NodeBlock)
		if err != nil {
			return nil, err
		}
		return &ASTNode{Kind: NodeProgram, Line: line, Children: nodes}, nil

	case "block":
		nodes, err := children()
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if n.Kind == NodeProgram {
				return nil, errors.Errorf("line %d: program nested in a block", n.Line)
			}
		}
		return &ASTNode{Kind: NodeBlock, Line: line, Children: nodes}, nil

	case "if", "while":
		maxArgs, kind := 3, NodeIf
		if form == "while" {
			maxArgs, kind = 2, NodeWhile
		}
		if err := arity(2, maxArgs); err != nil {
			return nil, err
		}
		nodes, err := children("", NodeBlock, NodeBlock)
		if err != nil {
			return nil, err
		}
		if !nodes[0].Kind.IsExpression() {
			return nil, errors.Errorf("line %d: condition of (%s ...) must be an expression, got %s", nodes[0].Line, form, nodes[0].Kind)
		}
		return &ASTNode{Kind: kind, Line: line, Children: nodes}, nil

	case "read":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		nodes, err := children(NodeVariable)
		if err != nil {
			return nil, err
		}
		return &ASTNode{Kind: NodeRead, Line: line, Children: nodes}, nil

	case "write":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		nodes, err := expressions()
		if err != nil {
			return nil, err
		}
		return &ASTNode{Kind: NodeWrite, Line: line, Children: nodes}, nil

	case "var":
		name, err := stringArg(args, line, form)
		if err != nil {
			return nil, err
		}
		return NewVariable(line, name), nil

	case "init":
		if err := arity(2, 2); err != nil {
			return nil, err
		}
		t, ok := typeNames[args[0].Text]
		if args[0].Type != sexy.NodeSymbol || !ok {
			return nil, errors.Errorf("line %d: unknown type %s", line, args[0])
		}
		name, err := stringArg(args[1:], line, form)
		if err != nil {
			return nil, err
		}
		return NewInit(line, t, name), nil

	case "assign":
		if err := arity(2, 2); err != nil {
			return nil, err
		}
		nodes, err := children(NodeVariable)
		if err != nil {
			return nil, err
		}
		if !nodes[1].Kind.IsExpression() {
			return nil, errors.Errorf("line %d: (assign ...) expects an expression, got %s", nodes[1].Line, nodes[1].Kind)
		}
		return &ASTNode{Kind: NodeAssign, Line: line, Children: nodes}, nil

	case "int":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		if args[0].Type != sexy.NodeInteger {
			return nil, errors.Errorf("line %d: (int ...) expects an integer, got %s", line, args[0])
		}
		v, err := strconv.ParseInt(args[0].Text, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		return NewIntLiteral(line, v), nil

	case "double":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		if args[0].Type != sexy.NodeFloat && args[0].Type != sexy.NodeInteger {
			return nil, errors.Errorf("line %d: (double ...) expects a number, got %s", line, args[0])
		}
		v, err := strconv.ParseFloat(args[0].Text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		return NewDoubleLiteral(line, v), nil

	case "bool":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		if args[0].Type != sexy.NodeSymbol || (args[0].Text != "true" && args[0].Text != "false") {
			return nil, errors.Errorf("line %d: (bool ...) expects true or false, got %s", line, args[0])
		}
		return NewBoolLiteral(line, args[0].Text == "true"), nil

	case "string":
		text, err := stringArg(args, line, form)
		if err != nil {
			return nil, err
		}
		return NewStringLiteral(line, text), nil
	}

	if kind, ok := unaryForms[form]; ok {
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		nodes, err := expressions()
		if err != nil {
			return nil, err
		}
		return NewUnary(kind, line, nodes[0]), nil
	}

	if kind, ok := operatorForms[form]; ok {
		if err := arity(3, 3); err != nil {
			return nil, err
		}
		if args[0].Type != sexy.NodeString || !isOperatorOf(kind, args[0].Text) {
			return nil, errors.Errorf("line %d: unknown operator %s for (%s ...)", line, args[0], form)
		}
		op := args[0].Text
		args = args[1:]
		nodes, err := expressions()
		if err != nil {
			return nil, err
		}
		return NewOperator(kind, line, op, nodes[0], nodes[1]), nil
	}

	return nil, errors.Errorf("line %d: unknown form (%s ...)", line, form)
}

func isOperatorOf(kind NodeKind, op string) bool {
	for _, candidate := range operatorsByKind[kind] {
		if candidate == op {
			return true
		}
	}
	return false
}

func stringArg(args []*sexy.Node, line int, form string) (string, error) {
	if len(args) != 1 || args[0].Type != sexy.NodeString {
		return "", errors.Errorf("line %d: (%s ...) expects a single string", line, form)
	}
	return args[0].Text, nil
}

// metaLine returns the line recorded in ^{line: N}, or inherited.
func metaLine(datum *sexy.Node, inherited int) (int, error) {
	value, ok := datum.Meta("line")
	if !ok {
		return inherited, nil
	}
	if value.Type != sexy.NodeInteger {
		return 0, errors.Errorf("line %d: line metadata must be an integer, got %s", inherited, value)
	}
	line, err := strconv.Atoi(value.Text)
	if err != nil {
		return 0, errors.Wrapf(err, "line %d", inherited)
	}
	return line, nil
}

// ToSExpr converts an AST node to s-expression string representation
func ToSExpr(node *ASTNode) string {
	return toSexy(node, false).String()
}

// ToSExprTyped is ToSExpr with the resolved type of every expression, and
// the slot of every variable, attached as metadata.
func ToSExprTyped(node *ASTNode) string {
	return toSexy(node, true).String()
}

var formsByKind = map[NodeKind]string{
	NodeProgram:       "program",
	NodeBlock:         "block",
	NodeIf:            "if",
	NodeWhile:         "while",
	NodeRead:          "read",
	NodeWrite:         "write",
	NodeVariable:      "var",
	NodeInit:          "init",
	NodeAssign:        "assign",
	NodeIntLiteral:    "int",
	NodeDoubleLiteral: "double",
	NodeBoolLiteral:   "bool",
	NodeStringLiteral: "string",
	NodeBinaryOp:      "binary",
	NodeComparison:    "compare",
	NodeLogicOp:       "logic",
	NodeParenthesis:   "paren",
	NodeIntCast:       "int-cast",
	NodeDoubleCast:    "double-cast",
	NodeNot:           "not",
	NodeMinus:         "minus",
	NodeNeg:           "neg",
}

func toSexy(node *ASTNode, typed bool) *sexy.Node {
	items := []*sexy.Node{sexy.NewSymbol(formsByKind[node.Kind])}
	switch node.Kind {
	case NodeVariable:
		items = append(items, sexy.NewString(node.Name))
	case NodeInit:
		v := node.Children[0]
		items = append(items, sexy.NewSymbol(typeSymbol(v.Type)), sexy.NewString(v.Name))
		list := sexy.NewList(items)
		if typed {
			list.SetMeta("slot", sexy.NewInteger(strconv.Itoa(v.Slot)))
		}
		return list
	case NodeIntLiteral:
		items = append(items, sexy.NewInteger(strconv.FormatInt(node.Integer, 10)))
	case NodeDoubleLiteral:
		items = append(items, sexy.NewFloat(formatDouble(node.Double)))
	case NodeBoolLiteral:
		items = append(items, sexy.NewSymbol(strconv.FormatBool(node.Boolean)))
	case NodeStringLiteral:
		items = append(items, sexy.NewString(node.Text))
	case NodeBinaryOp, NodeComparison, NodeLogicOp:
		items = append(items, sexy.NewString(node.Op))
	}
	if node.Kind != NodeVariable {
		for _, child := range node.Children {
			items = append(items, toSexy(child, typed))
		}
	}

	list := sexy.NewList(items)
	if typed && node.Kind.IsExpression() && node.Kind != NodeStringLiteral {
		list.SetMeta("type", sexy.NewSymbol(node.Type.String()))
		if node.Kind == NodeVariable {
			list.SetMeta("slot", sexy.NewInteger(strconv.Itoa(node.Slot)))
		}
	}
	return list
}

func typeSymbol(t ValueType) string {
	for name, candidate := range typeNames {
		if candidate == t {
			return name
		}
	}
	return "none"
}

// SlotsToSExpr prints a slot table as (locals (int "x") (double "y") ...),
// in slot order.
func SlotsToSExpr(slots []*VarInfo) string {
	items := []*sexy.Node{sexy.NewSymbol("locals")}
	for _, v := range slots {
		items = append(items, sexy.NewList([]*sexy.Node{sexy.NewSymbol(typeSymbol(v.Type)), sexy.NewString(v.Name)}))
	}
	return sexy.NewList(items).String()
}
