package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "generic", cfg.Target)
	assert.Equal(t, 100, cfg.DiagWidth)
	assert.False(t, cfg.WarningsFatal)
	assert.True(t, cfg.Opt.FoldConstants)
}

func Test_LoadBytes_overridesOnlyGivenFields(t *testing.T) {
	data := []byte(`
diag_width = 72

[opt]
fold_constants = false
`)

	cfg, err := LoadBytes(data)
	require.NoError(t, err)

	assert.Equal(t, 72, cfg.DiagWidth)
	assert.Equal(t, "generic", cfg.Target, "unset fields should keep their default")
	assert.False(t, cfg.Opt.FoldConstants)
	assert.True(t, cfg.Opt.TailCallOnly, "unset nested field should keep its default")
}

func Test_LoadBytes_backendTablePrimitive(t *testing.T) {
	data := []byte(`
[backend]
abi = "c"
inline_threshold = 40
`)

	cfg, err := LoadBytes(data)
	require.NoError(t, err)

	var opts struct {
		ABI              string `toml:"abi"`
		InlineThreshold int    `toml:"inline_threshold"`
	}
	require.NoError(t, cfg.DecodeBackend(&opts))
	assert.Equal(t, "c", opts.ABI)
	assert.Equal(t, 40, opts.InlineThreshold)
}

func Test_Load_missingFile(t *testing.T) {
	_, err := Load("/nonexistent/yunic.toml")
	assert.Error(t, err)
}
