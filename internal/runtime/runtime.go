// Package runtime names the C-ABI functions code generated by
// internal/codegen calls into: allocation, string primitives, and the
// conversions println needs. Nothing here executes Go code at compile
// time; these are symbol names and signatures the backend emits calls
// against.
package runtime

// Symbol is a runtime entry point's external name and signature, in the
// same declaration order codegen will emit extern declarations for a
// module that uses it.
type Symbol struct {
	Name    string
	Params  []string // C-ABI parameter type names, for declaration emission
	Returns string   // empty for void
}

var (
	Alloc          = Symbol{Name: "yuni_alloc", Params: []string{"i64"}, Returns: "ptr"}
	Free           = Symbol{Name: "yuni_free", Params: []string{"ptr"}, Returns: ""}
	StrLen         = Symbol{Name: "yuni_str_len", Params: []string{"ptr"}, Returns: "i64"}
	StringConcat   = Symbol{Name: "yuni_string_concat", Params: []string{"ptr", "ptr"}, Returns: "ptr"}
	Int64ToString  = Symbol{Name: "yuni_i64_to_string", Params: []string{"i64"}, Returns: "ptr"}
	FloatToString  = Symbol{Name: "yuni_f64_to_string", Params: []string{"f64"}, Returns: "ptr"}
	StringEq       = Symbol{Name: "yuni_string_eq", Params: []string{"ptr", "ptr"}, Returns: "bool"}
	Printf         = Symbol{Name: "printf", Params: []string{"ptr", "..."}, Returns: "i32"}
)

// All lists every runtime symbol codegen is permitted to reference,
// in the order a fresh module declares them.
var All = []Symbol{Alloc, Free, StrLen, StringConcat, Int64ToString, FloatToString, StringEq, Printf}

// ToStringFor returns the conversion symbol for a primitive type name
// used as a println argument, and ok=false for a type println cannot
// stringify at the ABI boundary (aggregates must be field-formatted by
// the caller first).
func ToStringFor(typeName string) (Symbol, bool) {
	switch typeName {
	case "String", "str":
		return Symbol{}, false // already a string; no conversion needed
	case "f8", "f16", "f32", "f64":
		return FloatToString, true
	case "bool":
		return Symbol{}, false // bool is formatted inline by codegen, not via a runtime call
	default:
		return Int64ToString, true
	}
}
