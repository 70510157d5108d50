package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_MakeTextList(t *testing.T) {
	assert.Equal(t, "", MakeTextList(nil))
	assert.Equal(t, "a", MakeTextList([]string{"a"}))
	assert.Equal(t, "a and b", MakeTextList([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", MakeTextList([]string{"a", "b", "c"}))
}
