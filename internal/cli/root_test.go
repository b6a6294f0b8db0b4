package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"mint", "grant", "revoke-zone", "fault", "runs"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestFaultSubcommands(t *testing.T) {
	sub := make(map[string]bool)
	for _, c := range faultCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["stop"])
	assert.True(t, sub["partition"])
}

func TestMintArgs(t *testing.T) {
	require.Error(t, mintCmd.Args(mintCmd, []string{"only-zone"}))
	require.NoError(t, mintCmd.Args(mintCmd, []string{"z1", "u1"}))
}
