package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPort(t *testing.T) {
	p, err := toPort(3001)
	require.NoError(t, err)
	assert.EqualValues(t, 3001, p)

	_, err = toPort(70000)
	assert.Error(t, err)
}
