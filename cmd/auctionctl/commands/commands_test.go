package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTaxCommand(t *testing.T) {
	out, err := execute(t, "tax", "--price", "500000000")
	require.NoError(t, err)
	assert.Contains(t, out, "category:          residential")
	assert.Contains(t, out, "acquisition tax:   5000000")

	out, err = execute(t, "tax", "--price", "300000000", "--type", "오피스텔")
	require.NoError(t, err)
	assert.Contains(t, out, "acquisition tax:   13800000")
}

func TestBidCommand(t *testing.T) {
	out, err := execute(t, "bid", "--market-value", "1000000000", "--deduction", "50000000", "--minimum-bid", "640000000")
	require.NoError(t, err)
	assert.Contains(t, out, "conservative:  640000000")
	assert.Contains(t, out, "moderate:      700000000")
	assert.Contains(t, out, "aggressive:    800000000")
}

func TestCommandValidation(t *testing.T) {
	_, err := execute(t, "bid")
	assert.Error(t, err)

	_, err = execute(t, "tax", "--price", "-1")
	assert.Error(t, err)

	_, err = execute(t, "run")
	assert.Error(t, err)
}
