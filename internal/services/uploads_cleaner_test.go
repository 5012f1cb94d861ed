package services

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type mockFileReferences struct {
	mock.Mock
}

func (m *mockFileReferences) ReferencedFiles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	files, _ := args.Get(0).([]string)
	return files, args.Error(1)
}

func Test_UploadsCleaner_Clean_ShouldRemoveOnlyOldOrphans(t *testing.T) {

	dir := t.TempDir()
	old := time.Now().Add(-40 * 24 * time.Hour)

	for name, modTime := range map[string]time.Time{
		"file-1-referenced.pdf": old,
		"file-2-orphan.pdf":     old,
		"file-3-fresh.pdf":      time.Now(),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}

	references := &mockFileReferences{}
	references.On("ReferencedFiles", mock.Anything).Return([]string{"/api/files/file-1-referenced.pdf"}, nil)

	cleaner, err := NewUploadsCleaner(references, dir, 30)
	require.NoError(t, err)

	removed, err := cleaner.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.FileExists(t, filepath.Join(dir, "file-1-referenced.pdf"))
	assert.FileExists(t, filepath.Join(dir, "file-3-fresh.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "file-2-orphan.pdf"))
}

func Test_NewUploadsCleaner_InvalidRetention_ShouldFail(t *testing.T) {

	_, err := NewUploadsCleaner(&mockFileReferences{}, t.TempDir(), 0)
	assert.Error(t, err)
}
