package sema

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/token"
)

// BorrowSet tracks the active borrows of one binding: any number of
// shared borrows plus at most one exclusive borrow.
type BorrowSet struct {
	Shared    int
	Exclusive bool
}

func (b BorrowSet) any() bool { return b.Shared > 0 || b.Exclusive }

func isCopyType(t ast.Type) bool {
	switch t.Kind {
	case ast.TypePrimitive:
		return t.Name != "String" && t.Name != "str"
	case ast.TypeRef:
		return true
	default:
		return false
	}
}

// checkMove applies the use-after-move and move-while-borrowed rules to a
// read of binding b occurring at span. isMoveContext is true when the
// expression consumes the binding by value rather than merely reading it
// (e.g. passing it as a non-reference argument, or the right-hand side of
// a let that does not itself take a reference).
func (a *Analyzer) checkMove(b *Binding, span token.Span, isMoveContext bool) {
	if b.Moved {
		a.bag.Addf(diag.StageAnalysis, diag.KindUseAfterMove, span,
			"use of moved binding %q", b.Name)
		return
	}
	if !isMoveContext {
		return
	}
	if isCopyType(b.Type) {
		return
	}
	if b.Borrows.any() {
		a.bag.Addf(diag.StageAnalysis, diag.KindMoveWhileBorrowed, span,
			"cannot move %q while it is borrowed", b.Name)
		return
	}
	b.Moved = true
}

// checkAssign applies the immutable-assignment rule.
func (a *Analyzer) checkAssign(b *Binding, span token.Span) {
	if !b.Mut {
		a.bag.Addf(diag.StageAnalysis, diag.KindImmutableAssign, span,
			"cannot assign to immutable binding %q", b.Name)
	}
	b.Moved = false
}

// checkBorrow applies the shared/exclusive borrow compatibility rules and,
// if permitted, records the new borrow against b.
func (a *Analyzer) checkBorrow(b *Binding, mut bool, span token.Span) {
	if mut {
		if b.Borrows.any() {
			a.bag.Addf(diag.StageAnalysis, diag.KindMultipleExclusive, span,
				"cannot borrow %q as mutable because it is already borrowed", b.Name)
			return
		}
		b.Borrows.Exclusive = true
		return
	}
	if b.Borrows.Exclusive {
		a.bag.Addf(diag.StageAnalysis, diag.KindMultipleExclusive, span,
			"cannot borrow %q as immutable because it is already borrowed as mutable", b.Name)
		return
	}
	b.Borrows.Shared++
}

// releaseBinding ends one borrow held against target when the reference
// binding that took it goes out of scope: a mutable borrow clears the
// exclusive flag, a shared borrow decrements the shared count.
func releaseBinding(target *Binding, mut bool) {
	if target == nil {
		return
	}
	if mut {
		target.Borrows.Exclusive = false
	} else if target.Borrows.Shared > 0 {
		target.Borrows.Shared--
	}
}
