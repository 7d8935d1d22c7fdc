package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepScript_QuotesArguments(t *testing.T) {
	script, err := stepScript(`input[name="first_name"]`, "append", `"`)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(script, `})("input[name=\"first_name\"]", "append", "\"")`))
	assert.Contains(t, script, `case "append":`)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.Headless)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultSettleDelay, opts.SettleDelay)
}
