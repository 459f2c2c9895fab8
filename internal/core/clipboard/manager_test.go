package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoundTrip(t *testing.T) {
	m := NewManager(false)
	assert.False(t, m.System())

	text, err := m.Paste()
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, m.Copy("héllo\nworld"))
	text, err = m.Paste()
	require.NoError(t, err)
	assert.Equal(t, "héllo\nworld", text)
}
