package storage

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*LocalStorage, string) {
	tempDir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors in tests
	}))

	storage, err := NewLocalStorage(&Config{
		BasePath: tempDir,
	}, logger)
	require.NoError(t, err)

	return storage, tempDir
}

func TestLocalStorage_Stage(t *testing.T) {
	storage, basePath := setupTestStorage(t)
	ctx := context.Background()

	content := []byte("N COMPARENDO;VALOR MULTA\n'123';$ 64.000,00\n")

	staged, err := storage.Stage(ctx, "comparendos.csv", bytes.NewReader(content))
	require.NoError(t, err)
	require.NotNil(t, staged)

	assert.Equal(t, "comparendos.csv", staged.OriginalName)
	assert.Equal(t, int64(len(content)), staged.Size)
	assert.NotEmpty(t, staged.Hash)
	assert.NotZero(t, staged.CreatedAt)

	_, err = os.Stat(filepath.Join(basePath, staged.ID.String(), "comparendos.csv"))
	assert.NoError(t, err)
}

func TestLocalStorage_Open(t *testing.T) {
	storage, _ := setupTestStorage(t)
	ctx := context.Background()

	content := []byte("COMPARENDOS;VALOR TOTAL\n111-222;5000.00\n")

	staged, err := storage.Stage(ctx, "acuerdos.csv", bytes.NewReader(content))
	require.NoError(t, err)

	reader, meta, err := storage.Open(ctx, staged.ID)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, staged.OriginalName, meta.OriginalName)
	assert.Equal(t, staged.Hash, meta.Hash)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(reader)
	require.NoError(t, err)
	assert.Equal(t, content, buf.Bytes())
}

func TestLocalStorage_Stage_SanitizesFilename(t *testing.T) {
	storage, _ := setupTestStorage(t)
	ctx := context.Background()

	staged, err := storage.Stage(ctx, "../../etc/passwd.csv", bytes.NewReader([]byte("a;b\n1;2\n")))
	require.NoError(t, err)
	assert.Equal(t, "passwd.csv", staged.OriginalName)
}

func TestLocalStorage_Stage_RejectsOversizedFile(t *testing.T) {
	tempDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	storage, err := NewLocalStorage(&Config{BasePath: tempDir, MaxFileSizeMB: 1}, logger)
	require.NoError(t, err)

	big := bytes.Repeat([]byte("x"), 1024*1024+1)
	_, err = storage.Stage(context.Background(), "big.csv", bytes.NewReader(big))
	require.Error(t, err)

	// nothing left behind
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_Remove(t *testing.T) {
	storage, basePath := setupTestStorage(t)
	ctx := context.Background()

	staged, err := storage.Stage(ctx, "test.csv", bytes.NewReader([]byte("a;b\n1;2\n")))
	require.NoError(t, err)

	dir := filepath.Join(basePath, staged.ID.String())
	_, err = os.Stat(dir)
	assert.NoError(t, err)

	err = storage.Remove(ctx, staged.ID)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	_, _, err = storage.Open(ctx, staged.ID)
	assert.Error(t, err)
}

func TestLocalStorage_CleanupOldFiles(t *testing.T) {
	storage, basePath := setupTestStorage(t)
	ctx := context.Background()

	old, err := storage.Stage(ctx, "old.csv", bytes.NewReader([]byte("a;b\n1;2\n")))
	require.NoError(t, err)

	oldDir := filepath.Join(basePath, old.ID.String())
	twoHoursAgo := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldDir, twoHoursAgo, twoHoursAgo))

	recent, err := storage.Stage(ctx, "recent.csv", bytes.NewReader([]byte("a;b\n1;2\n")))
	require.NoError(t, err)

	err = storage.CleanupOldFiles(ctx, 1*time.Hour)
	require.NoError(t, err)

	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(basePath, recent.ID.String()))
	assert.NoError(t, err)
}

func TestLocalStorage_HashConsistency(t *testing.T) {
	storage, _ := setupTestStorage(t)
	ctx := context.Background()

	content := []byte("same bytes, two uploads")

	meta1, err := storage.Stage(ctx, "a.csv", bytes.NewReader(content))
	require.NoError(t, err)

	meta2, err := storage.Stage(ctx, "b.csv", bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, meta1.Hash, meta2.Hash)
	assert.NotEqual(t, meta1.ID, meta2.ID)
}
