package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red color = iota + 1
	blue
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]color{"Red": red, "blue": blue}, red)

	assert.Equal(t, red, n.Normalize(" RED "))
	assert.Equal(t, blue, n.Normalize("Blue"))
	assert.Equal(t, red, n.Normalize("green"), "unknown falls back to the default")

	got, err := n.NormalizeWithError("BLUE")
	require.NoError(t, err)
	assert.Equal(t, blue, got)

	got, err = n.NormalizeWithError("green")
	require.Error(t, err)
	assert.Zero(t, got)
}
