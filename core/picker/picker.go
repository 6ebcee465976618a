// Package picker selects audio files to play: from the command line, from a
// directory, or as they are dropped into a watched folder.
package picker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// AudioExtensions 支持的音频文件扩展名
var AudioExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".m4a", ".aac"}

// IsAudioFile reports whether path has one of AudioExtensions, ignoring case.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range AudioExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Picker returns the paths the user selected. An empty result means nothing
// was selected and is not an error.
type Picker interface {
	Pick(ctx context.Context) ([]string, error)
}

// Static returns a fixed list of paths.
type Static []string

func (s Static) Pick(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// Dir picks every audio file under Root, sorted by path.
type Dir struct {
	Root      string
	Recursive bool
}

func (d Dir) Pick(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if path != d.Root && !d.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.Root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
