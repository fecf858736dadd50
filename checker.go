package main

// Checker resolves names, computes expression types and rewrites the tree
// so that every implicit widening is an explicit NodeDoubleCast. It also
// hands out one storage slot per declaration.
type Checker struct {
	program *ASTNode
	slots   []*VarInfo
	checked bool
}

// NewChecker creates a checker that owns program until CheckSemantics
// returns.
func NewChecker(program *ASTNode) *Checker {
	return &Checker{program: program}
}

// Slots returns the declared variables indexed by slot.
func (c *Checker) Slots() []*VarInfo {
	return c.slots
}

// CheckSemantics walks the whole program once and returns nil or the first
// *SemanticError encountered. A Checker can be used only once.
func (c *Checker) CheckSemantics() error {
	if c.checked {
		return semanticErrorf(UnexpectedError, -1, "program already checked")
	}
	c.checked = true

	if c.program == nil || c.program.Kind != NodeProgram || len(c.program.Children) != 1 {
		return semanticErrorf(UnexpectedError, -1, "expected a program with a single block")
	}
	return c.CheckInScope(c.program, NewScope(), NewScope())
}

// CheckInScope validates a statement. inner holds the declarations of the
// innermost block seen so far, outer everything visible from enclosing
// blocks.
func (c *Checker) CheckInScope(node *ASTNode, inner, outer *Scope) error {
	switch node.Kind {
	case NodeProgram:
		return c.CheckInScope(node.Body(), inner, outer)

	case NodeBlock:
		merged := MergeScopes(inner, outer)
		local := NewScope()
		for _, stmt := range node.Children {
			if err := c.CheckInScope(stmt, local, merged); err != nil {
				return err
			}
		}
		return nil

	case NodeIf, NodeWhile:
		cond, err := c.CheckValueType(node.Condition(), inner, outer)
		if err != nil {
			return err
		}
		if cond != TypeBool {
			return semanticErrorf(IllegalCast, node.Line, "Expected Bool, but got %s", cond)
		}
		for _, block := range node.Children[1:] {
			if err := c.CheckInScope(block, inner, outer); err != nil {
				return err
			}
		}
		return nil

	case NodeRead:
		return c.CheckInScope(node.Children[0], inner, outer)

	case NodeWrite:
		content := node.Children[0]
		if content.Kind == NodeStringLiteral {
			content.ProducesValue = true
			return nil
		}
		t, err := c.CheckValueType(content, inner, outer)
		if err != nil {
			return err
		}
		if t == TypeNone {
			return semanticErrorf(IllegalCast, node.Line, "Expected Int, Double or Bool, but got %s", t)
		}
		return nil

	case NodeInit:
		return c.declare(node.Children[0], inner)

	default:
		if !node.Kind.IsExpression() {
			return semanticErrorf(UnexpectedError, node.Line, "unexpected %s in statement position", node.Kind)
		}
		// Expression statement: evaluated for its side effects only.
		if _, err := c.CheckValueType(node, inner, outer); err != nil {
			return err
		}
		node.ProducesValue = false
		return nil
	}
}

// CheckValueType resolves and records the type of an expression, inserting
// widening casts into its children where the language allows them.
func (c *Checker) CheckValueType(node *ASTNode, inner, outer *Scope) (ValueType, error) {
	t, err := c.checkValueType(node, inner, outer)
	if err != nil {
		return TypeNone, err
	}
	node.Type = t
	node.ProducesValue = true
	return t, nil
}

func (c *Checker) checkValueType(node *ASTNode, inner, outer *Scope) (ValueType, error) {
	switch node.Kind {
	case NodeVariable:
		return c.resolve(node, inner, outer)

	case NodeAssign:
		return c.checkAssign(node, inner, outer)

	case NodeIntLiteral:
		return TypeInt, nil
	case NodeDoubleLiteral:
		return TypeDouble, nil
	case NodeBoolLiteral:
		return TypeBool, nil
	case NodeStringLiteral:
		// Strings only appear as write arguments and carry no value type.
		return TypeNone, nil

	case NodeParenthesis:
		return c.CheckValueType(node.Operand(), inner, outer)

	case NodeBinaryOp:
		return c.checkBinary(node, inner, outer)

	case NodeComparison:
		return c.checkComparison(node, inner, outer)

	case NodeLogicOp:
		left, right, err := c.checkOperands(node, inner, outer)
		if err != nil {
			return TypeNone, err
		}
		if left != TypeBool {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Bool on the left side of %s, but got %s", node.Op, left)
		}
		if right != TypeBool {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Bool on the right side of %s, but got %s", node.Op, right)
		}
		return TypeBool, nil

	case NodeNot:
		operand, err := c.CheckValueType(node.Operand(), inner, outer)
		if err != nil {
			return TypeNone, err
		}
		if operand != TypeBool {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Bool, but got %s", operand)
		}
		return TypeBool, nil

	case NodeMinus:
		operand, err := c.CheckValueType(node.Operand(), inner, outer)
		if err != nil {
			return TypeNone, err
		}
		if !operand.IsNumeric() {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Int or Double, but got %s", operand)
		}
		return operand, nil

	case NodeNeg:
		operand, err := c.CheckValueType(node.Operand(), inner, outer)
		if err != nil {
			return TypeNone, err
		}
		if operand != TypeInt {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Int value, but got %s", operand)
		}
		return TypeInt, nil

	case NodeIntCast, NodeDoubleCast:
		operand, err := c.CheckValueType(node.Operand(), inner, outer)
		if err != nil {
			return TypeNone, err
		}
		if operand == TypeNone {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Cannot cast a value of type %s", operand)
		}
		if node.Kind == NodeIntCast {
			return TypeInt, nil
		}
		return TypeDouble, nil

	default:
		return TypeNone, semanticErrorf(UnexpectedError, node.Line, "unexpected %s in expression position", node.Kind)
	}
}

// declare registers the variable of a NodeInit in the innermost scope and
// gives it the next free slot.
func (c *Checker) declare(v *ASTNode, inner *Scope) error {
	if v.Type == TypeNone {
		return semanticErrorf(UnexpectedError, v.Line, "variable '%s' declared without a type", v.Name)
	}
	info := &VarInfo{Name: v.Name, Type: v.Type, Slot: len(c.slots), Line: v.Line}
	if err := inner.Declare(info); err != nil {
		return err
	}
	c.slots = append(c.slots, info)
	v.Slot = info.Slot
	v.ProducesValue = false
	return nil
}

// resolve binds a variable reference to its declaration.
func (c *Checker) resolve(v *ASTNode, inner, outer *Scope) (ValueType, error) {
	info, ok := lookupVariable(v.Name, inner, outer)
	if !ok {
		return TypeNone, semanticErrorf(UndeclaredVariable, v.Line, "variable '%s' used before declaration", v.Name)
	}
	v.Type = info.Type
	v.Slot = info.Slot
	return info.Type, nil
}

func (c *Checker) checkAssign(node *ASTNode, inner, outer *Scope) (ValueType, error) {
	target := node.Left()
	left, err := c.resolve(target, inner, outer)
	if err != nil {
		return TypeNone, err
	}
	target.ProducesValue = false

	right, err := c.CheckValueType(node.Right(), inner, outer)
	if err != nil {
		return TypeNone, err
	}
	if left != right {
		if left == TypeDouble && right == TypeInt {
			wrapDoubleCast(&node.Children[1])
		} else {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Cannot assign %s to variable '%s' of type %s", right, target.Name, left)
		}
	}
	return left, nil
}

func (c *Checker) checkOperands(node *ASTNode, inner, outer *Scope) (ValueType, ValueType, error) {
	left, err := c.CheckValueType(node.Left(), inner, outer)
	if err != nil {
		return TypeNone, TypeNone, err
	}
	right, err := c.CheckValueType(node.Right(), inner, outer)
	if err != nil {
		return TypeNone, TypeNone, err
	}
	return left, right, nil
}

func (c *Checker) checkBinary(node *ASTNode, inner, outer *Scope) (ValueType, error) {
	left, right, err := c.checkOperands(node, inner, outer)
	if err != nil {
		return TypeNone, err
	}
	if isBitwiseOp(node.Op) {
		if left != TypeInt || right != TypeInt {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Int value, but got %s %s %s", left, node.Op, right)
		}
		return TypeInt, nil
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return TypeNone, semanticErrorf(IllegalCast, node.Line, "Expected Int or Double, but got %s %s %s", left, node.Op, right)
	}
	if left != right {
		c.widen(node, left)
		return TypeDouble, nil
	}
	return left, nil
}

func (c *Checker) checkComparison(node *ASTNode, inner, outer *Scope) (ValueType, error) {
	left, right, err := c.checkOperands(node, inner, outer)
	if err != nil {
		return TypeNone, err
	}
	if left == TypeNone || right == TypeNone {
		return TypeNone, semanticErrorf(IllegalCast, node.Line, "Cannot compare %s with %s", left, right)
	}
	if left != right {
		if left == TypeBool || right == TypeBool {
			return TypeNone, semanticErrorf(IllegalCast, node.Line, "Cannot compare %s with %s: not the same type", left, right)
		}
		c.widen(node, left)
	}
	return TypeBool, nil
}

// widen wraps the Int operand of a mixed Int/Double operator in a
// NodeDoubleCast so that both sides have the same representation.
func (c *Checker) widen(node *ASTNode, left ValueType) {
	if left == TypeInt {
		wrapDoubleCast(&node.Children[0])
	} else {
		wrapDoubleCast(&node.Children[1])
	}
}
