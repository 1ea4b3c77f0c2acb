package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	scan, _, err := root.Find([]string{"scan"})
	require.NoError(t, err)
	assert.Equal(t, "scan", scan.Name())
	assert.NotNil(t, scan.Flags().Lookup("json"))

	up, _, err := root.Find([]string{"migrate", "up"})
	require.NoError(t, err)
	assert.Equal(t, "0", up.Flags().Lookup("steps").DefValue)

	down, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.Equal(t, "1", down.Flags().Lookup("steps").DefValue)
}

func TestScanCommand_RejectsArgs(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"scan", "extra"})

	err := root.Execute()
	assert.Error(t, err)
}
