package main

import (
	"fmt"
	"strconv"
	"strings"
)

// LabelAllocator hands out label numbers, one counter per kind of branching
// construct. Each Emitter owns its own allocator, so generated code does not
// depend on what was compiled before.
type LabelAllocator struct {
	counters map[string]int
}

func NewLabelAllocator() *LabelAllocator {
	return &LabelAllocator{counters: make(map[string]int)}
}

// Next returns the next unused number for family.
func (a *LabelAllocator) Next(family string) int {
	id := a.counters[family]
	a.counters[family] = id + 1
	return id
}

// Reset restarts every counter at zero.
func (a *LabelAllocator) Reset() {
	clear(a.counters)
}

func label(family, part string, id int) string {
	return family + "_" + part + "_" + strconv.Itoa(id)
}

// Emitter turns a checked program into CIL assembly text.
type Emitter struct {
	buf    strings.Builder
	slots  []*VarInfo
	labels *LabelAllocator

	// Evaluation stack depth after the last emitted instruction, and the
	// deepest it has been.
	depth    int
	maxDepth int
}

func NewEmitter(slots []*VarInfo) *Emitter {
	return &Emitter{slots: slots, labels: NewLabelAllocator()}
}

// GenerateCode returns the body of the program's entry point: the locals
// declaration, their zero initialization, the program's instructions and a
// final ret. program must have passed CheckSemantics and slots must be the
// checker's slot table.
func GenerateCode(program *ASTNode, slots []*VarInfo) string {
	e := NewEmitter(slots)
	e.EmitProgram(program)
	return e.String()
}

// GenerateAssembly returns a complete ilasm translation unit whose entry
// point runs program.
func GenerateAssembly(program *ASTNode, slots []*VarInfo, assemblyName string) string {
	e := NewEmitter(slots)
	e.EmitProgram(program)

	var out strings.Builder
	out.WriteString(".assembly extern mscorlib { }\n")
	fmt.Fprintf(&out, ".assembly '%s' { }\n\n", assemblyName)
	out.WriteString(".method static void main()\n{\n")
	out.WriteString("    .entrypoint\n")
	fmt.Fprintf(&out, "    .maxstack %d\n", e.MaxStack())
	for _, line := range strings.SplitAfter(e.String(), "\n") {
		if line != "" {
			out.WriteString("    " + line)
		}
	}
	out.WriteString("}\n")
	return out.String()
}

func (e *Emitter) String() string {
	return e.buf.String()
}

// MaxStack returns the deepest evaluation stack reached by the emitted code.
func (e *Emitter) MaxStack() int {
	return e.maxDepth
}

// EmitProgram emits a whole program, resetting label numbering first.
func (e *Emitter) EmitProgram(program *ASTNode) {
	e.labels.Reset()
	e.emitLocals()
	e.emitZeroInit()
	e.EmitStatement(program.Body())
	e.op(RET)
}

func (e *Emitter) emitLocals() {
	if len(e.slots) == 0 {
		return
	}
	decls := make([]string, len(e.slots))
	for i, v := range e.slots {
		decls[i] = cilType(v.Type) + " " + localName(v)
	}
	e.buf.WriteString(".locals init (" + strings.Join(decls, ", ") + ")\n")
}

// localName disambiguates variables which share a name in different blocks.
func localName(v *VarInfo) string {
	return "v" + strconv.Itoa(v.Slot) + "_" + v.Name
}

func (e *Emitter) emitZeroInit() {
	for _, v := range e.slots {
		if v.Type == TypeDouble {
			e.op(LDC_R8, "0.0")
		} else {
			e.op(LDC_I4_0)
		}
		e.op(STLOC, strconv.Itoa(v.Slot))
	}
}

// EmitStatement generates code for statements
func (e *Emitter) EmitStatement(node *ASTNode) {
	switch node.Kind {
	case NodeProgram:
		e.EmitStatement(node.Body())

	case NodeBlock:
		for _, stmt := range node.Children {
			e.EmitStatement(stmt)
		}

	case NodeInit:
		// Locals are declared and zeroed in the prologue.

	case NodeIf:
		id := e.labels.Next("IF")
		end := label("IF", "END", id)
		e.EmitExpression(node.Condition())
		if node.Else() == nil {
			e.op(BRFALSE, end)
			e.EmitStatement(node.Then())
		} else {
			els := label("IF", "ELSE", id)
			e.op(BRFALSE, els)
			e.EmitStatement(node.Then())
			e.op(BR, end)
			e.label(els)
			e.EmitStatement(node.Else())
		}
		e.label(end)

	case NodeWhile:
		id := e.labels.Next("WHILE")
		body := label("WHILE", "BODY", id)
		check := label("WHILE", "CHECK", id)
		e.op(BR, check)
		e.label(body)
		e.EmitStatement(node.Children[1])
		e.label(check)
		e.EmitExpression(node.Condition())
		e.op(BRTRUE, body)

	case NodeRead:
		target := node.Children[0]
		e.call(callReadLine)
		switch target.Type {
		case TypeInt:
			e.call(callParseInt)
		case TypeDouble:
			e.call(callInvariantCulture)
			e.call(callParseDouble)
		case TypeBool:
			e.call(callParseBool)
		default:
			panic("Unsupported read type: " + target.Type.String())
		}
		e.op(STLOC, strconv.Itoa(target.Slot))

	case NodeWrite:
		content := node.Children[0]
		switch {
		case content.Kind == NodeStringLiteral:
			e.EmitExpression(content)
			e.call(callWriteString)
		case content.Type == TypeDouble:
			e.call(callInvariantCulture)
			e.op(LDSTR, quoteString(doubleFormat))
			e.EmitExpression(content)
			e.op(BOX, boxedDouble)
			e.call(callFormat)
			e.call(callWriteString)
		case content.Type == TypeBool:
			e.EmitExpression(content)
			e.call(callWriteBool)
		default:
			e.EmitExpression(content)
			e.call(callWriteInt)
		}

	default:
		e.EmitExpression(node)
	}
}

// EmitExpression generates code which leaves the value of node on the
// stack, or nothing if the value is not used.
func (e *Emitter) EmitExpression(node *ASTNode) {
	switch node.Kind {
	case NodeIntLiteral:
		e.op(LDC_I4, strconv.FormatInt(node.Integer, 10))

	case NodeDoubleLiteral:
		e.op(LDC_R8, formatDouble(node.Double))

	case NodeBoolLiteral:
		if node.Boolean {
			e.op(LDC_I4_1)
		} else {
			e.op(LDC_I4_0)
		}

	case NodeStringLiteral:
		e.op(LDSTR, quoteString(node.Text))

	case NodeVariable:
		e.op(LDLOC, strconv.Itoa(node.Slot))

	case NodeAssign:
		slot := strconv.Itoa(node.Left().Slot)
		e.EmitExpression(node.Right())
		e.op(STLOC, slot)
		if node.ProducesValue {
			e.op(LDLOC, slot)
		}
		return

	case NodeParenthesis:
		e.EmitExpression(node.Operand())

	case NodeBinaryOp:
		e.EmitExpression(node.Left())
		e.EmitExpression(node.Right())
		e.op(getBinaryOpcode(node.Op))

	case NodeComparison:
		e.EmitExpression(node.Left())
		e.EmitExpression(node.Right())
		e.emitComparison(node.Op)

	case NodeLogicOp:
		e.emitShortCircuit(node)

	case NodeIntCast:
		e.EmitExpression(node.Operand())
		e.op(CONV_I4)

	case NodeDoubleCast:
		e.EmitExpression(node.Operand())
		e.op(CONV_R8)

	case NodeNot:
		e.EmitExpression(node.Operand())
		e.op(LDC_I4_0)
		e.op(CEQ)

	case NodeMinus:
		e.EmitExpression(node.Operand())
		e.op(NEG)

	case NodeNeg:
		e.EmitExpression(node.Operand())
		e.op(NOT)

	default:
		panic("Unsupported expression: " + string(node.Kind))
	}

	if !node.ProducesValue {
		e.op(POP)
	}
}

func getBinaryOpcode(op string) string {
	switch op {
	case OpAdd:
		return ADD
	case OpSub:
		return SUB
	case OpMult:
		return MUL
	case OpDiv:
		return DIV
	case OpBitAnd:
		return AND
	case OpBitOr:
		return OR
	default:
		panic("Unsupported binary operator: " + op)
	}
}

// emitComparison builds each comparison from ceq, cgt and clt, negating
// the result for the operators CIL has no direct instruction for.
func (e *Emitter) emitComparison(op string) {
	switch op {
	case OpEqual:
		e.op(CEQ)
	case OpNotEqual:
		e.op(CEQ)
		e.op(LDC_I4_0)
		e.op(CEQ)
	case OpGreater:
		e.op(CGT)
	case OpGreaterOrEqual:
		e.op(CLT)
		e.op(LDC_I4_0)
		e.op(CEQ)
	case OpLess:
		e.op(CLT)
	case OpLessOrEqual:
		e.op(CGT)
		e.op(LDC_I4_0)
		e.op(CEQ)
	default:
		panic("Unsupported comparison operator: " + op)
	}
}

// emitShortCircuit evaluates the right operand of && and || only when the
// left one does not decide the result.
func (e *Emitter) emitShortCircuit(node *ASTNode) {
	family, part, branch := "AND", "FALSE", BRFALSE
	decided, undecided := LDC_I4_0, LDC_I4_1
	if node.Op == OpOr {
		family, part, branch = "OR", "TRUE", BRTRUE
		decided, undecided = LDC_I4_1, LDC_I4_0
	}
	id := e.labels.Next(family)
	short := label(family, part, id)
	end := label(family, "END", id)

	e.EmitExpression(node.Left())
	e.op(branch, short)
	e.EmitExpression(node.Right())
	e.op(branch, short)
	e.op(undecided)
	e.op(BR, end)
	// Only one of the two pushes executes.
	e.depth--
	e.label(short)
	e.op(decided)
	e.label(end)
}

func (e *Emitter) op(opcode string, args ...string) {
	effect, ok := stackEffect[opcode]
	if !ok {
		panic("Unknown opcode: " + opcode)
	}
	e.buf.WriteString(opcode)
	for _, arg := range args {
		e.buf.WriteString(" " + arg)
	}
	e.buf.WriteString("\n")
	e.adjust(effect)
}

func (e *Emitter) call(target runtimeCall) {
	e.buf.WriteString(CALL + " " + target.Signature + "\n")
	e.adjust(target.StackEffect)
}

func (e *Emitter) label(name string) {
	e.buf.WriteString(name + ":\n")
}

func (e *Emitter) adjust(delta int) {
	e.depth += delta
	if e.depth > e.maxDepth {
		e.maxDepth = e.depth
	}
}

// formatDouble renders a double literal the same way regardless of locale,
// always with a decimal point so ilasm reads it as a float.
func formatDouble(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var ilStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quoteString(s string) string {
	return `"` + ilStringEscaper.Replace(s) + `"`
}
