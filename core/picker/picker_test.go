package picker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, IsAudioFile("/a/b.MP3"))
	assert.True(t, IsAudioFile("b.flac"))
	assert.False(t, IsAudioFile("cover.jpg"))
	assert.False(t, IsAudioFile("mp3"))
}

func TestStatic(t *testing.T) {
	in := Static{"/b.mp3", "/a.mp3"}
	got, err := in.Pick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/b.mp3", "/a.mp3"}, got, "order is kept")

	got[0] = "changed"
	assert.Equal(t, "/b.mp3", in[0])

	got, err = Static(nil).Pick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b - two.mp3"))
	touch(t, filepath.Join(root, "A - one.FLAC"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.ogg"))

	got, err := Dir{Root: root}.Pick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "A - one.FLAC"),
		filepath.Join(root, "b - two.mp3"),
	}, got)

	got, err = Dir{Root: root, Recursive: true}.Pick(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Contains(t, got, filepath.Join(root, "sub", "c.ogg"))
}

func TestDir_Missing(t *testing.T) {
	_, err := Dir{Root: filepath.Join(t.TempDir(), "nope")}.Pick(context.Background())
	assert.Error(t, err)
}

func TestDropFolder(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- DropFolder{Dir: dir, QuietPeriod: 100 * time.Millisecond}.Watch(ctx, func(paths []string) {
			mu.Lock()
			got = append(got, paths...)
			mu.Unlock()
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(200 * time.Millisecond)
	touch(t, filepath.Join(dir, "Artist - New.mp3"))
	touch(t, filepath.Join(dir, "readme.txt"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{filepath.Join(dir, "Artist - New.mp3")}, got)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestDropFolder_MissingDir(t *testing.T) {
	err := DropFolder{Dir: filepath.Join(t.TempDir(), "nope")}.Watch(context.Background(), func([]string) {})
	assert.Error(t, err)
}
