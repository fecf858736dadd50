package main

// CIL Opcode Constants
const (
	LDC_I4   = "ldc.i4"
	LDC_I4_0 = "ldc.i4.0"
	LDC_I4_1 = "ldc.i4.1"
	LDC_R8   = "ldc.r8"
	LDSTR    = "ldstr"
	LDLOC    = "ldloc"
	STLOC    = "stloc"
	POP      = "pop"
	ADD      = "add"
	SUB      = "sub"
	MUL      = "mul"
	DIV      = "div"
	AND      = "and"
	OR       = "or"
	NOT      = "not"
	NEG      = "neg"
	CEQ      = "ceq"
	CGT      = "cgt"
	CLT      = "clt"
	CONV_I4  = "conv.i4"
	CONV_R8  = "conv.r8"
	BOX      = "box"
	BR       = "br"
	BRTRUE   = "brtrue"
	BRFALSE  = "brfalse"
	CALL     = "call"
	RET      = "ret"
)

// stackEffect is the change in evaluation stack depth caused by executing
// each opcode. Calls are described by their runtimeCall instead.
var stackEffect = map[string]int{
	LDC_I4:   +1,
	LDC_I4_0: +1,
	LDC_I4_1: +1,
	LDC_R8:   +1,
	LDSTR:    +1,
	LDLOC:    +1,
	STLOC:    -1,
	POP:      -1,
	ADD:      -1,
	SUB:      -1,
	MUL:      -1,
	DIV:      -1,
	AND:      -1,
	OR:       -1,
	NOT:      0,
	NEG:      0,
	CEQ:      -1,
	CGT:      -1,
	CLT:      -1,
	CONV_I4:  0,
	CONV_R8:  0,
	BOX:      0,
	BR:       0,
	BRTRUE:   -1,
	BRFALSE:  -1,
	RET:      0,
}

// runtimeCall is a base class library method invoked by generated code.
type runtimeCall struct {
	Signature   string
	StackEffect int // results pushed minus arguments popped
}

var (
	callReadLine = runtimeCall{"string [mscorlib]System.Console::ReadLine()", +1}

	callParseInt    = runtimeCall{"int32 [mscorlib]System.Int32::Parse(string)", 0}
	callParseDouble = runtimeCall{"float64 [mscorlib]System.Double::Parse(string, class [mscorlib]System.IFormatProvider)", -1}
	callParseBool   = runtimeCall{"bool [mscorlib]System.Boolean::Parse(string)", 0}

	callInvariantCulture = runtimeCall{"class [mscorlib]System.Globalization.CultureInfo [mscorlib]System.Globalization.CultureInfo::get_InvariantCulture()", +1}
	callFormat           = runtimeCall{"string [mscorlib]System.String::Format(class [mscorlib]System.IFormatProvider, string, object)", -2}

	callWriteString = runtimeCall{"void [mscorlib]System.Console::WriteLine(string)", -1}
	callWriteInt    = runtimeCall{"void [mscorlib]System.Console::WriteLine(int32)", -1}
	callWriteBool   = runtimeCall{"void [mscorlib]System.Console::WriteLine(bool)", -1}
)

// doubleFormat renders doubles with six fractional digits.
const doubleFormat = "{0:0.000000}"

const boxedDouble = "[mscorlib]System.Double"

// cilType returns the local variable type used for t.
func cilType(t ValueType) string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int32"
	case TypeDouble:
		return "float64"
	default:
		panic("no CIL type for " + t.String())
	}
}
