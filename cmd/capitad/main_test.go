package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveGenesisPath(t *testing.T) {
	env := map[string]string{}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	require.Equal(t, "config.json", resolveGenesisPath("", " config.json ", lookup))

	env[genesisEnv] = "/env/genesis.json"
	require.Equal(t, "/env/genesis.json", resolveGenesisPath("", "config.json", lookup))

	require.Equal(t, "/flag/genesis.json", resolveGenesisPath("/flag/genesis.json", "config.json", lookup))
}

func TestRunTokenRejectsBadAddress(t *testing.T) {
	err := runToken([]string{"-address", "nope"})
	require.Error(t, err)
}
