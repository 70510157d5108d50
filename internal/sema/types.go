package sema

import "github.com/dekarrin/yunic/internal/ast"

var voidType = ast.Type{}

func isVoid(t ast.Type) bool { return t.Kind == ast.TypePrimitive && t.Name == "" && t.Elem == nil }

func isNumeric(t ast.Type) bool {
	if t.Kind != ast.TypePrimitive {
		return false
	}
	switch t.Name {
	case "bool", "str", "String", "":
		return false
	default:
		return true
	}
}

func isBool(t ast.Type) bool  { return t.Kind == ast.TypePrimitive && t.Name == "bool" }
func isString(t ast.Type) bool {
	return t.Kind == ast.TypePrimitive && (t.Name == "String" || t.Name == "str")
}

// substituteTypeVars replaces every TypeVar occurrence named by subst
// with its solved concrete type, leaving anything unsolved untouched.
func substituteTypeVars(t ast.Type, subst map[string]ast.Type) ast.Type {
	if t.Kind == ast.TypeVar {
		if c, ok := subst[t.Name]; ok {
			return c
		}
		return t
	}
	if t.Elem != nil {
		e := substituteTypeVars(*t.Elem, subst)
		t.Elem = &e
	}
	for i := range t.Args {
		t.Args[i] = substituteTypeVars(t.Args[i], subst)
	}
	for i := range t.Elems {
		t.Elems[i] = substituteTypeVars(t.Elems[i], subst)
	}
	return t
}

// unify attempts to solve param against arg, recording any bare type
// variable in param into subst. It reports a conflict only when a
// variable is already solved to something incompatible; partial failure
// to unify non-variable shapes is left to the ordinary type-mismatch
// check the caller performs afterward.
func unify(param, arg ast.Type, subst map[string]ast.Type) {
	if param.Kind == ast.TypeVar {
		if existing, ok := subst[param.Name]; ok {
			if !existing.Equal(arg) {
				// Conflicting solutions; leave the first one and let the
				// caller's normal type-check surface the mismatch against
				// whichever binding occurs first.
				return
			}
			return
		}
		subst[param.Name] = arg
		return
	}
	switch param.Kind {
	case ast.TypeArray:
		if arg.Kind == ast.TypeArray {
			unify(*param.Elem, *arg.Elem, subst)
		}
	case ast.TypeRef:
		if arg.Kind == ast.TypeRef {
			unify(*param.Elem, *arg.Elem, subst)
		}
	case ast.TypeGeneric:
		if arg.Kind == ast.TypeGeneric && len(param.Args) == len(arg.Args) {
			for i := range param.Args {
				unify(param.Args[i], arg.Args[i], subst)
			}
		}
	case ast.TypeTuple:
		if arg.Kind == ast.TypeTuple && len(param.Elems) == len(arg.Elems) {
			for i := range param.Elems {
				unify(param.Elems[i], arg.Elems[i], subst)
			}
		}
	}
}
