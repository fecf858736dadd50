package main

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeProgram       NodeKind = "NodeProgram"
	NodeBlock         NodeKind = "NodeBlock"
	NodeIf            NodeKind = "NodeIf"
	NodeWhile         NodeKind = "NodeWhile"
	NodeRead          NodeKind = "NodeRead"
	NodeWrite         NodeKind = "NodeWrite"
	NodeVariable      NodeKind = "NodeVariable"
	NodeInit          NodeKind = "NodeInit"
	NodeAssign        NodeKind = "NodeAssign"
	NodeIntLiteral    NodeKind = "NodeIntLiteral"
	NodeDoubleLiteral NodeKind = "NodeDoubleLiteral"
	NodeBoolLiteral   NodeKind = "NodeBoolLiteral"
	NodeStringLiteral NodeKind = "NodeStringLiteral"
	NodeBinaryOp      NodeKind = "NodeBinaryOp"
	NodeLogicOp       NodeKind = "NodeLogicOp"
	NodeComparison    NodeKind = "NodeComparison"
	NodeParenthesis   NodeKind = "NodeParenthesis"
	NodeIntCast       NodeKind = "NodeIntCast"
	NodeDoubleCast    NodeKind = "NodeDoubleCast"
	NodeNot           NodeKind = "NodeNot"
	NodeMinus         NodeKind = "NodeMinus" // unary negation
	NodeNeg           NodeKind = "NodeNeg"   // bitwise complement
)

// IsExpression reports whether nodes of this kind produce a value.
func (k NodeKind) IsExpression() bool {
	switch k {
	case NodeVariable, NodeAssign,
		NodeIntLiteral, NodeDoubleLiteral, NodeBoolLiteral, NodeStringLiteral,
		NodeBinaryOp, NodeLogicOp, NodeComparison, NodeParenthesis,
		NodeIntCast, NodeDoubleCast, NodeNot, NodeMinus, NodeNeg:
		return true
	default:
		return false
	}
}

// ValueType is the static type of an expression.
//
// The order of the constants matters: Bool < Int < Double is the widening
// lattice used by the checker.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeBool
	TypeInt
	TypeDouble
)

func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeInt:
		return "Int"
	case TypeDouble:
		return "Double"
	default:
		return "None"
	}
}

// IsNumeric reports whether arithmetic is defined on t.
func (t ValueType) IsNumeric() bool {
	return t == TypeInt || t == TypeDouble
}

// Operators carried in ASTNode.Op.
const (
	OpAdd    = "+"
	OpSub    = "-"
	OpMult   = "*"
	OpDiv    = "/"
	OpBitAnd = "&"
	OpBitOr  = "|"

	OpEqual          = "=="
	OpNotEqual       = "!="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpLess           = "<"
	OpLessOrEqual    = "<="

	OpAnd = "&&"
	OpOr  = "||"
)

func isBitwiseOp(op string) bool {
	return op == OpBitAnd || op == OpBitOr
}

// ASTNode represents a node in the Abstract Syntax Tree
type ASTNode struct {
	Kind NodeKind
	Line int // 1-based; -1 for nodes synthesized by the checker

	// NodeVariable:
	Name string
	Slot int // -1 until resolved
	// NodeStringLiteral:
	Text string
	// NodeIntLiteral:
	Integer int64
	// NodeDoubleLiteral:
	Double float64
	// NodeBoolLiteral:
	Boolean bool
	// NodeBinaryOp, NodeComparison, NodeLogicOp:
	Op       string
	Children []*ASTNode

	// Expressions only. Type is declared type for the variable of a NodeInit.
	Type          ValueType
	ProducesValue bool
}

// Child accessors. They panic on malformed trees; TreeFromSexy and
// the constructors below only build well-formed ones.

func (n *ASTNode) Body() *ASTNode      { return n.Children[0] }
func (n *ASTNode) Left() *ASTNode      { return n.Children[0] }
func (n *ASTNode) Right() *ASTNode     { return n.Children[1] }
func (n *ASTNode) Operand() *ASTNode   { return n.Children[0] }
func (n *ASTNode) Condition() *ASTNode { return n.Children[0] }
func (n *ASTNode) Then() *ASTNode      { return n.Children[1] }

// Else returns the else block of an if statement, or nil.
func (n *ASTNode) Else() *ASTNode {
	if len(n.Children) > 2 {
		return n.Children[2]
	}
	return nil
}

// NewProgram wraps statements in a program with a single top-level block.
func NewProgram(stmts ...*ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeProgram, Line: -1, Children: []*ASTNode{NewBlock(stmts...)}}
}

func NewBlock(stmts ...*ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeBlock, Line: -1, Children: stmts}
}

func NewVariable(line int, name string) *ASTNode {
	return &ASTNode{Kind: NodeVariable, Line: line, Name: name, Slot: -1}
}

func NewInit(line int, t ValueType, name string) *ASTNode {
	v := NewVariable(line, name)
	v.Type = t
	return &ASTNode{Kind: NodeInit, Line: line, Children: []*ASTNode{v}}
}

func NewAssign(line int, name string, value *ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeAssign, Line: line, Children: []*ASTNode{NewVariable(line, name), value}}
}

func NewIntLiteral(line int, v int64) *ASTNode {
	return &ASTNode{Kind: NodeIntLiteral, Line: line, Integer: v}
}

func NewDoubleLiteral(line int, v float64) *ASTNode {
	return &ASTNode{Kind: NodeDoubleLiteral, Line: line, Double: v}
}

func NewBoolLiteral(line int, v bool) *ASTNode {
	return &ASTNode{Kind: NodeBoolLiteral, Line: line, Boolean: v}
}

func NewStringLiteral(line int, text string) *ASTNode {
	return &ASTNode{Kind: NodeStringLiteral, Line: line, Text: text}
}

// NewOperator builds a NodeBinaryOp, NodeComparison or NodeLogicOp.
func NewOperator(kind NodeKind, line int, op string, left, right *ASTNode) *ASTNode {
	return &ASTNode{Kind: kind, Line: line, Op: op, Children: []*ASTNode{left, right}}
}

// NewUnary builds a node with a single operand: parenthesis, casts, not,
// minus and neg.
func NewUnary(kind NodeKind, line int, operand *ASTNode) *ASTNode {
	return &ASTNode{Kind: kind, Line: line, Children: []*ASTNode{operand}}
}

func NewIf(line int, cond, then, els *ASTNode) *ASTNode {
	children := []*ASTNode{cond, then}
	if els != nil {
		children = append(children, els)
	}
	return &ASTNode{Kind: NodeIf, Line: line, Children: children}
}

func NewWhile(line int, cond, body *ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeWhile, Line: line, Children: []*ASTNode{cond, body}}
}

func NewRead(line int, name string) *ASTNode {
	return &ASTNode{Kind: NodeRead, Line: line, Children: []*ASTNode{NewVariable(line, name)}}
}

func NewWrite(line int, content *ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeWrite, Line: line, Children: []*ASTNode{content}}
}

// wrapDoubleCast replaces *slot with a DoubleCast around the node it held.
func wrapDoubleCast(slot **ASTNode) {
	inner := *slot
	*slot = &ASTNode{
		Kind:          NodeDoubleCast,
		Line:          -1,
		Children:      []*ASTNode{inner},
		Type:          TypeDouble,
		ProducesValue: true,
	}
}
