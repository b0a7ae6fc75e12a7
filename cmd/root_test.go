package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"analyze", "init", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "paperscope", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Version)
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "root command should have --config flag")
	assert.Equal(t, "c", flag.Shorthand)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, name := range []string{"type", "output", "title", "format", "prompt", "verbose"} {
		flag := analyzeCmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "analyze should have --%s flag", name)
	}
	assert.Equal(t, "single", analyzeCmd.Flags().Lookup("type").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	portFlag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, portFlag, "serve command should have --port flag")
	assert.Equal(t, "0", portFlag.DefValue)

	dirFlag := serveCmd.Flags().Lookup("dir")
	require.NotNil(t, dirFlag, "serve command should have --dir flag")
	assert.Equal(t, ".", dirFlag.DefValue)
}

func TestInitCommand_Flags(t *testing.T) {
	flag := initCmd.Flags().Lookup("output")
	require.NotNil(t, flag, "init command should have --output flag")
	assert.Equal(t, "config.yaml", flag.DefValue)
}
