package storage

import (
	"path/filepath"
	"testing"

	"github.com/azure/review-analyzer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "snapshots"))
	require.NoError(t, err)

	require.NoError(t, s.Store("reviews-2024-01-02.json", []byte(`[]`)))
	require.NoError(t, s.Store("reviews-2024-01-01.json", []byte(`[{}]`)))
	require.NoError(t, s.Store("seed.csv", []byte("ReviewId")))

	data, err := s.Retrieve("reviews-2024-01-01.json")
	require.NoError(t, err)
	assert.Equal(t, `[{}]`, string(data))

	names, err := s.List("reviews-")
	require.NoError(t, err)
	assert.Equal(t, []string{"reviews-2024-01-01.json", "reviews-2024-01-02.json"}, names)

	require.NoError(t, s.Delete("reviews-2024-01-01.json"))
	names, err = s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"reviews-2024-01-02.json", "seed.csv"}, names)

	_, err = s.Retrieve("reviews-2024-01-01.json")
	assert.Error(t, err)
}

func TestLocalStorage_RejectsPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.Store("../escape.json", []byte("x")))
	assert.Error(t, s.Store("nested/file.json", []byte("x")))
	_, err = s.Retrieve("..")
	assert.Error(t, err)
}

func TestNewLocalStorage_RequiresDir(t *testing.T) {
	_, err := NewLocalStorage("")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	backend, err := New(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, backend)

	backend, err = New(&config.Config{SnapshotDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, backend)
}
