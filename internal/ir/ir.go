// Package ir defines the SSA intermediate representation internal/codegen
// lowers typed syntax trees into: modules of functions, each a sequence
// of basic blocks with a single terminator, typed values threaded
// between instructions in dominance order.
package ir

import "fmt"

// Type is a lowered, fully concrete IR type - no generics, no type
// variables, every aggregate already laid out.
type Type struct {
	Kind    TypeKind
	Name    string // IntN/FloatN width name, or aggregate/enum name
	Elem    *Type  // array element / pointer referent
	Fields  []Type // struct/tuple field types, declaration order
	Variants []VariantLayout
}

type TypeKind int

const (
	TypeInt TypeKind = iota
	TypeFloat
	TypeBool
	TypePtr // strings and references: pointer to backing storage
	TypeArray
	TypeStruct
	TypeEnum
	TypeTuple
	TypeVoid
)

// VariantLayout is one member of a lowered enum's payload union.
type VariantLayout struct {
	Name   string
	Index  int
	Fields []Type
}

func (t Type) String() string {
	switch t.Kind {
	case TypeInt, TypeFloat:
		return t.Name
	case TypeBool:
		return "bool"
	case TypePtr:
		return "ptr"
	case TypeVoid:
		return "void"
	case TypeArray:
		return "[" + t.Elem.String() + "]"
	default:
		return t.Name
	}
}

// Value is anything an instruction can consume: a prior instruction's
// result, a block parameter, or a literal constant.
type Value interface {
	ValueType() Type
	valueNode()
}

// Const is a literal integer, float, bool, or string-global-pointer value.
type Const struct {
	Typ     Type
	Int     int64
	Float   float64
	Bool    bool
	GlobalRef string // name of a Global, for string constants
}

func (c Const) ValueType() Type { return c.Typ }
func (Const) valueNode()        {}

// Ref names a value produced by a prior instruction or a function
// parameter, resolved by name within one function.
type Ref struct {
	Name string
	Typ  Type
}

func (r Ref) ValueType() Type { return r.Typ }
func (Ref) valueNode()        {}

// Global is a module-level constant, used for string literals.
type Global struct {
	Name  string
	Bytes string
}

// Param is one function parameter.
type Param struct {
	Name string
	Typ  Type
}

// Function is one lowered function or method (methods are lowered with
// an explicit leading receiver parameter, same as any other parameter).
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type
	Blocks     []*Block
}

// Block is a basic block: a label, a straight-line instruction list, and
// exactly one terminator.
type Block struct {
	Name   string
	Instrs []Instr
	Term   Terminator
}

// Instr is one non-terminating instruction, optionally producing a named
// result value consumed by later instructions or the terminator.
type Instr interface {
	ResultName() string
	ResultType() Type
	fmt.Stringer
	instrNode()
}

// Base holds the name and type every result-producing instruction
// shares; embed it and use NewBase to construct one.
type Base struct {
	Name string
	Typ  Type
}

func (b Base) ResultName() string { return b.Name }
func (b Base) ResultType() Type   { return b.Typ }

// NewBase builds a Base for a fresh instruction result named name with
// type typ.
func NewBase(name string, typ Type) Base { return Base{Name: name, Typ: typ} }

// Alloc reserves a stack slot large enough for one value of Elem.
type Alloc struct {
	Base
	Elem Type
}

func (a Alloc) String() string { return fmt.Sprintf("%s = alloc %s", a.Name, a.Elem) }
func (Alloc) instrNode()       {}

// Load reads the value currently stored at Addr.
type Load struct {
	Base
	Addr Value
}

func (l Load) String() string { return fmt.Sprintf("%s = load %s", l.Name, describe(l.Addr)) }
func (Load) instrNode()       {}

// Store writes Value into the slot at Addr; it produces no result.
type Store struct {
	Addr  Value
	Value Value
}

func (s Store) ResultName() string { return "" }
func (s Store) ResultType() Type   { return Type{Kind: TypeVoid} }
func (s Store) String() string {
	return fmt.Sprintf("store %s, %s", describe(s.Value), describe(s.Addr))
}
func (Store) instrNode() {}

// ArithOp is a binary integer/float arithmetic opcode.
type ArithOp string

const (
	OpAdd ArithOp = "add"
	OpSub ArithOp = "sub"
	OpMul ArithOp = "mul"
	OpDiv ArithOp = "div"
	OpMod ArithOp = "mod"
)

// Arith is a binary arithmetic instruction over two values of the same
// lowered numeric type.
type Arith struct {
	Base
	Op          ArithOp
	Left, Right Value
}

func (a Arith) String() string {
	return fmt.Sprintf("%s = %s %s, %s", a.Name, a.Op, describe(a.Left), describe(a.Right))
}
func (Arith) instrNode() {}

// CmpPred is an integer/float comparison predicate.
type CmpPred string

const (
	CmpEq  CmpPred = "eq"
	CmpNe  CmpPred = "ne"
	CmpLt  CmpPred = "lt"
	CmpLe  CmpPred = "le"
	CmpGt  CmpPred = "gt"
	CmpGe  CmpPred = "ge"
)

// ICmp compares two values of identical lowered type, signed- or
// unsigned-aware per Unsigned, producing a bool result.
type ICmp struct {
	Base
	Pred        CmpPred
	Unsigned    bool
	Left, Right Value
}

func (c ICmp) String() string {
	return fmt.Sprintf("%s = icmp %s %s, %s", c.Name, c.Pred, describe(c.Left), describe(c.Right))
}
func (ICmp) instrNode() {}

// GEP computes the address of a struct field or array element relative
// to Base without dereferencing it.
type GEP struct {
	Base
	Addr    Value
	Field   int // struct-field index, or array index when IsArray
	IsArray bool
	Index   Value // element index value, when IsArray
}

func (g GEP) String() string {
	if g.IsArray {
		return fmt.Sprintf("%s = gep %s[%s]", g.Name, describe(g.Addr), describe(g.Index))
	}
	return fmt.Sprintf("%s = gep %s.%d", g.Name, describe(g.Addr), g.Field)
}
func (GEP) instrNode() {}

// ExtractValue reads one field out of an in-register aggregate value
// (as opposed to GEP, which addresses memory).
type ExtractValue struct {
	Base
	Agg   Value
	Field int
}

func (e ExtractValue) String() string {
	return fmt.Sprintf("%s = extractvalue %s, %d", e.Name, describe(e.Agg), e.Field)
}
func (ExtractValue) instrNode() {}

// InsertValue returns a copy of Agg with Field replaced by Value.
type InsertValue struct {
	Base
	Agg   Value
	Field int
	Value Value
}

func (i InsertValue) String() string {
	return fmt.Sprintf("%s = insertvalue %s, %d, %s", i.Name, describe(i.Agg), i.Field, describe(i.Value))
}
func (InsertValue) instrNode() {}

// PhiEdge is one incoming (predecessor block, value) pair of a Phi.
type PhiEdge struct {
	Block string
	Value Value
}

// Phi selects a value depending on which predecessor block transferred
// control to this one, used at if/else and match merge points.
type Phi struct {
	Base
	Edges []PhiEdge
}

func (p Phi) String() string { return fmt.Sprintf("%s = phi %s", p.Name, p.Typ) }
func (Phi) instrNode()       {}

// Call invokes Callee with Args. Tail is set when codegen has proven the
// call is a self-recursive call in true tail position.
type Call struct {
	Base
	Callee string
	Args   []Value
	Tail   bool
}

func (c Call) String() string {
	prefix := "call"
	if c.Tail {
		prefix = "tail call"
	}
	if c.Name == "" {
		return fmt.Sprintf("%s %s(...)", prefix, c.Callee)
	}
	return fmt.Sprintf("%s = %s %s(...)", c.Name, prefix, c.Callee)
}
func (Call) instrNode() {}

func describe(v Value) string {
	switch val := v.(type) {
	case Ref:
		return val.Name
	case Const:
		return fmt.Sprintf("const(%s)", val.Typ)
	default:
		return "?"
	}
}

// Terminator ends a basic block's instruction sequence.
type Terminator interface {
	fmt.Stringer
	termNode()
}

// Ret returns Value (nil for a void function) from the enclosing function.
type Ret struct {
	Value Value
}

func (r Ret) String() string {
	if r.Value == nil {
		return "ret void"
	}
	return fmt.Sprintf("ret %s", describe(r.Value))
}
func (Ret) termNode() {}

// Br is an unconditional branch to Target.
type Br struct {
	Target string
}

func (b Br) String() string { return fmt.Sprintf("br %s", b.Target) }
func (Br) termNode()        {}

// CondBr branches to Then when Cond is true, else to Else.
type CondBr struct {
	Cond       Value
	Then, Else string
}

func (c CondBr) String() string {
	return fmt.Sprintf("br %s, %s, %s", describe(c.Cond), c.Then, c.Else)
}
func (CondBr) termNode() {}

// Unreachable terminates a block that codegen treats as never entered,
// such as the fall-through path of a match with no catch-all arm; no
// pass verifies that the block cannot be reached.
type Unreachable struct{}

func (Unreachable) String() string { return "unreachable" }
func (Unreachable) termNode()      {}

// Module is a compiled unit: its functions and any global string
// constants they reference.
type Module struct {
	Name      string
	Globals   []Global
	Functions []*Function
}
