package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptOptionsDefaults(t *testing.T) {
	// A run of empty lines accepts every default.
	in := strings.NewReader("\n\n\n\n\n\n\n")
	var out bytes.Buffer

	opts, err := promptOptions(in, &out)
	require.NoError(t, err)

	assert.Equal(t, "./ircserv", opts.Binary)
	assert.Equal(t, "pass", opts.Password)
	assert.Equal(t, "v2", opts.Tester)
	assert.False(t, opts.Valgrind)
	assert.False(t, opts.Verbose)
	assert.Zero(t, opts.Port)
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Contains(t, opts.OutDir, "runs")
}

func TestPromptOptionsAnswers(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"./build/ircserv",
		"sekret",
		"v1",
		"y",
		"logs/session",
		"yes",
		"6697",
	}, "\n") + "\n")
	var out bytes.Buffer

	opts, err := promptOptions(in, &out)
	require.NoError(t, err)

	assert.Equal(t, "./build/ircserv", opts.Binary)
	assert.Equal(t, "sekret", opts.Password)
	assert.Equal(t, "v1", opts.Tester)
	assert.True(t, opts.Valgrind)
	assert.Equal(t, "logs/session", opts.OutDir)
	assert.True(t, opts.Verbose)
	assert.Equal(t, 6697, opts.Port)
}

func TestPromptOptionsInvalidTesterFallsBack(t *testing.T) {
	in := strings.NewReader("\n\nv3\n\n\n\n\n")
	var out bytes.Buffer

	opts, err := promptOptions(in, &out)
	require.NoError(t, err)
	assert.Equal(t, "v2", opts.Tester)
}

func TestPromptOptionsInvalidPort(t *testing.T) {
	in := strings.NewReader("\n\n\n\n\n\nnot-a-port\n")
	var out bytes.Buffer

	_, err := promptOptions(in, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestLevelFromString(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "crit"} {
		_, err := levelFromString(level)
		assert.NoError(t, err, level)
	}

	_, err := levelFromString("loud")
	assert.Error(t, err)
}
