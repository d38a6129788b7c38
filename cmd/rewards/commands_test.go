package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authorHex = "0x0101010101010101010101010101010101010101010101010101010101010101"
	voterAHex = "0x0202020202020202020202020202020202020202020202020202020202020202"
	voterBHex = "0x0303030303030303030303030303030303030303030303030303030303030303"
	voterCHex = "0x0404040404040404040404040404040404040404040404040404040404040404"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--datadir", dataDir, "--log-level", "warn"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// flat collapses the tabwriter padding so assertions do not depend on column widths.
func flat(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestCLIChain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	out, err := run(t, dir, "state")
	require.Error(t, err)
	assert.Empty(t, out)

	out, err = run(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, flat(out), "block reward 1000")

	_, err = run(t, dir, "init")
	require.Error(t, err)

	out, err = run(t, dir, "produce", "--author", authorHex, "--vote", voterAHex, "--vote", voterBHex, "--vote", voterCHex)
	require.NoError(t, err)
	assert.Contains(t, out, "block 1: 4 credits, total 1000")
	assert.Contains(t, out, "700")

	out, err = run(t, dir, "propose", "--activate-at", "3", "--block-reward", "500", "--voter-share", "1/2")
	require.NoError(t, err)
	assert.Contains(t, out, "proposal 1 scheduled at height 3: block_reward=500 voter_share=1/2")

	for i := 0; i < 2; i++ {
		_, err = run(t, dir, "produce", "--author", authorHex, "--vote", voterAHex)
		require.NoError(t, err)
	}

	out, err = run(t, dir, "credits", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "block 3: 2 credits, total 500")

	out, err = run(t, dir, "credits", "1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "block 1:")
	assert.Contains(t, out, "block 2:")
	assert.Contains(t, out, "block 3:")

	out, err = run(t, dir, "audit")
	require.NoError(t, err)
	assert.Contains(t, flat(out), "credited 2500")
	assert.Contains(t, flat(out), "status ok")

	out, err = run(t, dir, "state")
	require.NoError(t, err)
	assert.Contains(t, flat(out), "height 3")
	assert.Contains(t, flat(out), "total issued 2500")
}

func TestCLIProduceRejectsBadInput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	_, err := run(t, dir, "init")
	require.NoError(t, err)

	_, err = run(t, dir, "produce", "--author", "0x01")
	require.Error(t, err)

	_, err = run(t, dir, "produce", "--author", authorHex, "--height", "5")
	require.Error(t, err)

	_, err = run(t, dir, "propose", "--activate-at", "1", "--cap", "0")
	require.Error(t, err)
}

func TestCLIInitFromGenesisFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_reward: \"250\"\nvoter_share_ratio: \"0.2\"\ncap: \"1000\"\n"), 0o644))

	out, err := run(t, filepath.Join(tmp, "db"), "init", "--genesis", path, "--write-genesis", filepath.Join(tmp, "copy.yaml"))
	require.NoError(t, err)
	assert.Contains(t, flat(out), "block reward 250")
	assert.FileExists(t, filepath.Join(tmp, "copy.yaml"))
}

func TestCLISimulate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "unused")

	first, err := run(t, dir, "simulate", "--blocks", "300", "--seed", "42", "--replicas", "2")
	require.NoError(t, err)
	assert.Contains(t, flat(first), "status ok")

	second, err := run(t, dir, "simulate", "--blocks", "300", "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "simulate must not touch the data directory")
}

func TestCloseAfter(t *testing.T) {
	errRun := errors.New("run failed")
	errClose := errors.New("flush failed")
	ok := func() error { return nil }

	tests := []struct {
		name    string
		fn      func() error
		closeFn func() error
		want    []error
	}{
		{"both succeed", ok, ok, nil},
		{"close fails after success", ok, func() error { return errClose }, []error{errClose}},
		{"run fails", func() error { return errRun }, ok, []error{errRun}},
		{"both fail", func() error { return errRun }, func() error { return errClose }, []error{errRun, errClose}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closed := false
			err := closeAfter(tt.fn, func() error {
				closed = true
				return tt.closeFn()
			})
			assert.True(t, closed)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			for _, want := range tt.want {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}
