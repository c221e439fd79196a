package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"

	"github.com/xeptore/saavn/saavn/types"
)

// maxFilenameBytes keeps generated names below the common 255 byte limit
// with room for the temporary suffix.
const maxFilenameBytes = 200

type DownloadDir string

func DownloadDirFrom(d string) DownloadDir {
	return DownloadDir(d)
}

func (dir DownloadDir) path() string {
	return string(dir)
}

func (dir DownloadDir) Ensure() error {
	if err := os.MkdirAll(dir.path(), 0o755); nil != err {
		return fmt.Errorf("failed to create downloads directory: %v", err)
	}

	return nil
}

// TempFile creates an empty file in dir that a download is streamed into
// before it is renamed to its final name.
func (dir DownloadDir) TempFile() (*os.File, error) {
	f, err := os.CreateTemp(dir.path(), ".saavn-*.part")
	if nil != err {
		return nil, fmt.Errorf("failed to create temporary file: %v", err)
	}

	return f, nil
}

// Song returns the file a song is saved to. ext includes the leading dot.
func (dir DownloadDir) Song(song types.Song, bitrate types.Bitrate, ext string) SongFile {
	name := fmt.Sprintf("%s - %s (%s)", song.PrimaryArtists, song.Title, bitrate)
	if song.PrimaryArtists == "" {
		name = fmt.Sprintf("%s (%s)", song.Title, bitrate)
	}

	return SongFileAt(filepath.Join(dir.path(), SanitizeFilename(name)+ext))
}

// SongFileAt returns the song file saved at path along with its info file.
func SongFileAt(path string) SongFile {
	return SongFile{
		Path:     path,
		InfoFile: InfoFile[types.Song]{Path: path + ".json"},
	}
}

type SongFile struct {
	Path     string
	InfoFile InfoFile[types.Song]
}

func (f SongFile) Exists() (bool, error) {
	return FileExists(f.Path)
}

func (f SongFile) Remove() error {
	if err := os.Remove(f.Path); nil != err && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove song file: %v", err)
	}

	if err := os.Remove(f.InfoFile.Path); nil != err && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove song info file: %v", err)
	}

	return nil
}

func FileExists(path string) (bool, error) {
	if _, err := os.Stat(path); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to stat file: %v", err)
	}

	return true, nil
}

// SanitizeFilename makes s usable as a file name on common filesystems.
func SanitizeFilename(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
	s = strings.Trim(strings.TrimSpace(s), ".")

	for len(s) > maxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}

	if s == "" {
		return "untitled"
	}

	return s
}

type InfoFile[T any] struct {
	Path string
}

func (p InfoFile[T]) Read() (t *T, err error) {
	f, err := os.OpenFile(p.Path, os.O_RDONLY, 0o600)
	if nil != err {
		return nil, fmt.Errorf("failed to open info file for read: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close info file: %v", closeErr))
		}
	}()

	var out T
	if err := json.NewDecoder(f).Decode(&out); nil != err {
		return nil, fmt.Errorf("failed to decode info file contents: %v", err)
	}

	return &out, nil
}

func (p InfoFile[T]) Write(v T) (err error) {
	f, err := os.OpenFile(p.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if nil != err {
		return fmt.Errorf("failed to open info file for write: %v", err)
	}
	defer func() {
		if nil != err {
			if removeErr := os.Remove(p.Path); nil != removeErr &&
				!errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(
					err,
					fmt.Errorf("failed to remove incomplete info file: %v", removeErr),
				)
			}
		} else {
			if closeErr := f.Close(); nil != closeErr {
				err = fmt.Errorf("failed to close info file: %v", closeErr)
			}
		}
	}()

	if err := json.NewEncoder(f).Encode(v); nil != err {
		return fmt.Errorf("failed to write info content: %v", err)
	}

	return nil
}
