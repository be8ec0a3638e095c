package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/actuallystonmai/users-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePersisterMissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "users.json"))

	users, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)
}

func TestFilePersisterOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	p := NewFilePersister(path)

	require.NoError(t, p.Save(ctx, []domain.User{{ID: 1, FirstName: "Ann"}, {ID: 2, FirstName: "Bo"}}))
	require.NoError(t, p.Save(ctx, []domain.User{{ID: 2, FirstName: "Bo"}}))

	users, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: 2, FirstName: "Bo"}}, users)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")
}

func TestFilePersisterCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFilePersister(path).Load(context.Background())
	assert.Error(t, err)
}
