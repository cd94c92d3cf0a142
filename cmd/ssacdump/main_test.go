package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoMainRunsEachBuiltinDemo(t *testing.T) {
	for name := range demos {
		var stdout, stderr bytes.Buffer
		code := doMain(&stdout, &stderr, []string{"-demo", name})
		require.Equal(t, 0, code, "stderr: %s", stderr.String())
		require.Contains(t, stdout.String(), name)
		require.Contains(t, stdout.String(), "frame")
	}
}

func TestDoMainRejectsUnknownDemo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := doMain(&stdout, &stderr, []string{"-demo", "nonexistent"})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "unknown demo")
}

func TestDoMainPrintsUsageOnHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := doMain(&stdout, &stderr, []string{"-h"})
	require.Equal(t, 0, code)
	require.Contains(t, stderr.String(), "ssacdump")
}
