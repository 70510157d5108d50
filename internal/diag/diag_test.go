package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/yunic/internal/token"
)

func Test_Diagnostic_Is_matchesStageSentinel(t *testing.T) {
	d := New(StageAnalysis, KindUndefined, token.Span{}, "undefined symbol %q", "foo")

	assert.True(t, errors.Is(d, ErrAnalysis))
	assert.False(t, errors.Is(d, ErrParse))
}

func Test_Diagnostic_WithWrap_unwraps(t *testing.T) {
	cause := errors.New("root cause")
	d := New(StageInternal, KindNone, token.Span{}, "wrapped").WithWrap(cause)

	assert.Same(t, cause, errors.Unwrap(d))
}

func Test_Diagnostic_Render_prefersHuman(t *testing.T) {
	d := New(StageParse, KindNone, token.Span{Line: 3, Col: 5}, "technical message").
		WithHuman("a friendlier message")

	rendered := d.Render(80)
	assert.Contains(t, rendered, "a friendlier message")
	assert.Contains(t, rendered, "3:5")
	assert.NotContains(t, rendered, "technical message")
}

func Test_Bag_ordersInReportOrder(t *testing.T) {
	bag := &Bag{}
	bag.Addf(StageLex, KindNone, token.Span{Line: 1}, "first")
	bag.Addf(StageParse, KindNone, token.Span{Line: 2}, "second")

	all := bag.All()
	assert.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "second", all[1].Message)
}

func Test_Bag_HasStage(t *testing.T) {
	bag := &Bag{}
	assert.False(t, bag.HasErrors())

	bag.Addf(StageAnalysis, KindTypeMismatch, token.Span{}, "boom")

	assert.True(t, bag.HasErrors())
	assert.True(t, bag.HasStage(StageAnalysis))
	assert.False(t, bag.HasStage(StageCodegen))
}

func Test_OneOf(t *testing.T) {
	assert.Equal(t, "'fn'", OneOf("'fn'"))
	assert.Equal(t, "'fn' and 'type'", OneOf("'fn'", "'type'"))
	assert.Equal(t, "'fn', 'impl fn', and 'type'", OneOf("'fn'", "'impl fn'", "'type'"))
}
