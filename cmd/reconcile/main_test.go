package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-tax", "dian.xlsx", "-ledger", "aux.xlsx", "-issued-feed", "fe.xlsx", "-csv-dir", "out", "-parallel"})
	require.NoError(t, err)

	assert.Equal(t, "dian.xlsx", opts.tax)
	assert.Equal(t, "aux.xlsx", opts.ledger)
	assert.Equal(t, "fe.xlsx", opts.issuedFeed)
	assert.Empty(t, opts.receivedFeed)
	assert.Equal(t, "reconciliation.xlsx", opts.out)
	assert.Equal(t, "out", opts.csvDir)
	assert.True(t, opts.parallel)
}

func TestParseFlags_RequiresSources(t *testing.T) {
	_, err := parseFlags([]string{"-tax", "dian.xlsx"})
	assert.Error(t, err)
}
