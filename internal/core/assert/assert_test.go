package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThat(t *testing.T) {
	require.NotPanics(t, func() { That(true, "never") })

	if Enabled {
		require.PanicsWithValue(t, "assertion failed: item 3", func() { Fail("item %d", 3) })
		return
	}
	require.NotPanics(t, func() { Fail("item %d", 3) })
}
