package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/saavn/saavn/fs"
	"github.com/xeptore/saavn/saavn/types"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Arijit Singh - Tum Hi Ho (320kbps)", want: "Arijit Singh - Tum Hi Ho (320kbps)"},
		{name: "separators", in: "AC/DC: Back in Black?", want: "AC_DC_ Back in Black_"},
		{name: "control characters", in: "line\nbreak\ttab", want: "linebreaktab"},
		{name: "leading dots", in: "..hidden. ", want: "hidden"},
		{name: "empty", in: " . ", want: "untitled"},
		{name: "decomposed accents", in: "Cafe\u0301", want: "Caf\u00e9"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.want, fs.SanitizeFilename(test.in))
		})
	}
}

func TestSanitizeFilenameTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	got := fs.SanitizeFilename(strings.Repeat("तुम", 100))
	assert.LessOrEqual(t, len(got), 200)
	assert.True(t, strings.HasPrefix(strings.Repeat("तुम", 100), got))
}

func TestSongFile(t *testing.T) {
	t.Parallel()

	dir := fs.DownloadDirFrom(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, dir.Ensure())

	song := types.Song{ID: "1", Title: "Tum Hi Ho", PrimaryArtists: "Arijit Singh"}
	f := dir.Song(song, types.Bitrate320, ".m4a")
	assert.Equal(t, "Arijit Singh - Tum Hi Ho (320kbps).m4a", filepath.Base(f.Path))

	exists, err := f.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(f.Path, []byte("audio"), 0o600))
	require.NoError(t, f.InfoFile.Write(song))

	info, err := f.InfoFile.Read()
	require.NoError(t, err)
	assert.Equal(t, song.Title, info.Title)

	exists, err = f.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, f.Remove())
	exists, err = fs.FileExists(f.InfoFile.Path)
	require.NoError(t, err)
	assert.False(t, exists)

	untitled := dir.Song(types.Song{Title: "Solo"}, types.Bitrate96, ".mp4")
	assert.Equal(t, "Solo (96kbps).mp4", filepath.Base(untitled.Path))
}
