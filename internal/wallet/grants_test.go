package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantCacheEmpty(t *testing.T) {
	g := NewGrantCache(filepath.Join(t.TempDir(), "grants.json"))
	_, ok := g.Load("rpc:http://wallet")
	assert.False(t, ok)
}

func TestGrantCacheSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "grants.json")
	g := NewGrantCache(path)
	require.NoError(t, g.Save("keystore", []string{"0xa", "0xb"}))

	got, ok := NewGrantCache(path).Load("keystore")
	require.True(t, ok)
	assert.Equal(t, []string{"0xa", "0xb"}, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGrantCacheIsolatedPerProvider(t *testing.T) {
	g := NewGrantCache(filepath.Join(t.TempDir(), "grants.json"))
	require.NoError(t, g.Save("one", []string{"0x1"}))
	require.NoError(t, g.Save("two", []string{"0x2"}))

	require.NoError(t, g.Clear("one"))
	_, ok := g.Load("one")
	assert.False(t, ok)
	got, ok := g.Load("two")
	require.True(t, ok)
	assert.Equal(t, []string{"0x2"}, got)
}

func TestGrantCacheEmptyListNotAGrant(t *testing.T) {
	g := NewGrantCache(filepath.Join(t.TempDir(), "grants.json"))
	require.NoError(t, g.Save("p", nil))
	_, ok := g.Load("p")
	assert.False(t, ok)
}

func TestGrantCacheCorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))
	g := NewGrantCache(path)
	_, ok := g.Load("p")
	assert.False(t, ok)
	require.NoError(t, g.Save("p", []string{"0x1"}))
	_, ok = g.Load("p")
	assert.True(t, ok)
}

func TestGrantCacheClearAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.json")
	g := NewGrantCache(path)
	require.NoError(t, g.ClearAll()) // no file yet
	require.NoError(t, g.Save("p", []string{"0x1"}))
	require.NoError(t, g.ClearAll())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
