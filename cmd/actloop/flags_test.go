package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_RequestDefaultsToOnce(t *testing.T) {
	opts, err := parseFlags([]string{"-agent", "bash", "-max-iterations", "4", "list", "the", "files"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, modeOnce, opts.mode)
	assert.Equal(t, "list the files", opts.request)
	assert.Equal(t, "bash", opts.agent)
	assert.Equal(t, 4, opts.maxIterations)
	assert.Equal(t, ".env", opts.envFile)
}

func TestParseFlags_NoRequestDefaultsToMenu(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, modeMenu, opts.mode)
}

func TestParseFlags_ExplicitMode(t *testing.T) {
	opts, err := parseFlags([]string{"-mode", "route-demo"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, modeRouteDemo, opts.mode)
}

func TestParseFlags_VerboseFromEnv(t *testing.T) {
	t.Setenv("ACTLOOP_VERBOSE", "true")

	opts, err := parseFlags([]string{"hi"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, opts.verbose)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown mode", []string{"-mode", "party"}, `unknown mode "party"`},
		{"once without request", []string{"-mode", "once"}, "needs a request"},
		{"negative budget", []string{"-max-iterations", "-1", "hi"}, "must not be negative"},
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, &bytes.Buffer{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
