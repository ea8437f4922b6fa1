package integration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	script, err := render("/usr/bin/zsh")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/zsh\n"))
	assert.Contains(t, script, "dirsize --output plain")
	assert.NotContains(t, script, "{{")
}
