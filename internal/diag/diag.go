// Package diag implements the compiler's error pipeline: a single
// accumulating sink for diagnostics produced by every stage - a message
// plus optional human rendering, composable with errors.Is/errors.As.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/yunic/internal/token"
	"github.com/dekarrin/yunic/internal/util"
)

// OneOf renders a human-readable, oxford-comma'd list of alternatives for
// use in an "expected one of ..." message.
func OneOf(alternatives ...string) string {
	return util.MakeTextList(alternatives)
}

// Stage identifies which pipeline stage produced a diagnostic.
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageAnalysis
	StageCodegen
	StageInternal
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageAnalysis:
		return "analysis"
	case StageCodegen:
		return "codegen"
	case StageInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Sentinel kind errors usable with errors.Is against a Diagnostic.
var (
	ErrLex      = errors.New("lexical error")
	ErrParse    = errors.New("syntax error")
	ErrAnalysis = errors.New("semantic error")
	ErrCodegen  = errors.New("codegen error")
	ErrInternal = errors.New("internal compiler error")
)

func sentinelFor(s Stage) error {
	switch s {
	case StageLex:
		return ErrLex
	case StageParse:
		return ErrParse
	case StageAnalysis:
		return ErrAnalysis
	case StageCodegen:
		return ErrCodegen
	default:
		return ErrInternal
	}
}

// Kind further classifies a semantic diagnostic. The zero value,
// KindNone, is used for lex/parse/codegen diagnostics that do not need a
// finer classification than their Stage.
type Kind string

const (
	KindNone                  Kind = ""
	KindUndefined             Kind = "undefined-symbol"
	KindDuplicate             Kind = "duplicate-symbol"
	KindTypeMismatch          Kind = "type-mismatch"
	KindReturnMismatch        Kind = "return-type-mismatch"
	KindMissingReturn         Kind = "missing-return"
	KindArgCount              Kind = "argument-count-mismatch"
	KindMethodNotFound        Kind = "method-not-found"
	KindUnreachable           Kind = "unreachable-code"
	KindImmutableAssign       Kind = "immutable-assignment"
	KindUseAfterMove          Kind = "use-after-move"
	KindMultipleExclusive     Kind = "multiple-exclusive-borrows"
	KindMoveWhileBorrowed     Kind = "move-while-borrowed"
	KindInconsistentLifetime  Kind = "inconsistent-lifetime"
	KindUnsolvedGeneric       Kind = "unsolved-generic-parameter"
	KindUnsupportedConstruct  Kind = "unsupported-construct"
)

// Diagnostic is one reported problem, carrying enough context to be
// rendered for a human and matched programmatically via errors.Is.
type Diagnostic struct {
	Stage   Stage
	Kind    Kind
	Message string
	Human   string
	Spans   []token.Span
	wrap    error
}

// New builds a Diagnostic with one span.
func New(stage Stage, kind Kind, span token.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Stage:   stage,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Spans:   []token.Span{span},
	}
}

// WithHuman attaches a friendlier, operator-facing rendering.
func (d Diagnostic) WithHuman(human string) Diagnostic {
	d.Human = human
	return d
}

// WithWrap records an underlying cause, reachable via errors.Unwrap.
func (d Diagnostic) WithWrap(err error) Diagnostic {
	d.wrap = err
	return d
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Stage, d.Message)
}

func (d Diagnostic) Unwrap() error {
	return d.wrap
}

// Is lets errors.Is(diagnostic, diag.ErrAnalysis) succeed for any
// diagnostic from the matching stage.
func (d Diagnostic) Is(target error) bool {
	return sentinelFor(d.Stage) == target
}

// Span returns the primary (first) span of the diagnostic.
func (d Diagnostic) Span() token.Span {
	if len(d.Spans) == 0 {
		return token.Span{}
	}
	return d.Spans[0]
}

// Render produces a width-wrapped, human-facing rendering of the
// diagnostic.
func (d Diagnostic) Render(width int) string {
	msg := d.Message
	if d.Human != "" {
		msg = d.Human
	}
	header := fmt.Sprintf("%s:%d:%d: %s: %s", d.Stage, d.Span().Line, d.Span().Col, d.kindLabel(), msg)
	return rosed.Edit(header).Wrap(width).String()
}

func (d Diagnostic) kindLabel() string {
	if d.Kind != KindNone {
		return string(d.Kind)
	}
	return d.Stage.String() + " error"
}

// Bag accumulates diagnostics across stages, preserving source order within
// a stage and pipeline order across stages.
type Bag struct {
	diags []Diagnostic
}

// Add appends d to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

// Addf is a convenience wrapper around New+Add.
func (b *Bag) Addf(stage Stage, kind Kind, span token.Span, format string, args ...any) {
	b.Add(New(stage, kind, span, format, args...))
}

// HasErrors reports whether any diagnostic has been recorded. The core
// treats every recorded Diagnostic as a hard error; warnings are not
// modeled at the core level.
func (b *Bag) HasErrors() bool {
	return len(b.diags) > 0
}

// HasStage reports whether any diagnostic was recorded for the given
// stage.
func (b *Bag) HasStage(s Stage) bool {
	for _, d := range b.diags {
		if d.Stage == s {
			return true
		}
	}
	return false
}

// All returns every diagnostic recorded so far, in report order.
func (b *Bag) All() []Diagnostic {
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	return out
}

// Len returns the number of recorded diagnostics.
func (b *Bag) Len() int {
	return len(b.diags)
}

// Strings renders every diagnostic at the given wrap width, one per line.
func (b *Bag) Strings(width int) []string {
	out := make([]string, len(b.diags))
	for i, d := range b.diags {
		out[i] = d.Render(width)
	}
	return out
}

func (b *Bag) String() string {
	lines := b.Strings(100)
	return strings.Join(lines, "\n")
}
