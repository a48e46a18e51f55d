package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummaries(t *testing.T) {
	setColor(true)
	repo, err := openRules(log.New(io.Discard), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSummaries(&buf, repo.List()))
	assert.Contains(t, buf.String(), "classic_13")
	assert.Contains(t, buf.String(), "quick_7")
}

func TestPrintRuleTable(t *testing.T) {
	setColor(true)
	repo, err := openRules(log.New(io.Discard), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printRuleTable(&buf, repo, "classic_13"))
	assert.Contains(t, buf.String(), "alle")
	assert.Contains(t, buf.String(), "111")

	require.Error(t, printRuleTable(&buf, repo, "nope"))
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, log.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, log.InfoLevel, newLogger("bogus").GetLevel())
}
