package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"
)

var downloadsBucketName = []byte("downloads")

var ErrNotFound = errors.New("download record not found")

// Download records a song file saved to disk.
type Download struct {
	SongID  string    `json:"song_id"`
	Title   string    `json:"title"`
	Bitrate string    `json:"bitrate"`
	Path    string    `json:"path"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}

func (d Download) key() []byte {
	return downloadKey(d.SongID, d.Bitrate)
}

func downloadKey(songID, bitrate string) []byte {
	return []byte(songID + "/" + bitrate)
}

// Store is the downloads index kept next to the downloaded files.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	opts := &bbolt.Options{ //nolint:exhaustruct
		NoFreelistSync: true,
		ReadOnly:       false,
		Timeout:        1 * time.Second,
		NoGrowSync:     false,
		FreelistType:   bbolt.FreelistArrayType,
	}
	db, err := bbolt.Open(path, 0o600, opts)
	if nil != err {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := createBuckets(db); nil != err {
		return nil, errors.Join(err, db.Close())
	}

	return &Store{db: db}, nil
}

func createBuckets(db *bbolt.DB) error {
	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(downloadsBucketName); nil != err {
			return fmt.Errorf("failed to create downloads bucket: %v", err)
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to create buckets: %v", err)
	}

	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); nil != err {
		return fmt.Errorf("failed to close database: %v", err)
	}

	return nil
}

func (s *Store) Get(songID, bitrate string) (*Download, error) {
	var d Download
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(downloadsBucketName).Get(downloadKey(songID, bitrate))
		if nil == v {
			return ErrNotFound
		}

		if err := json.Unmarshal(v, &d); nil != err {
			return fmt.Errorf("failed to decode download record: %v", err)
		}

		return nil
	})
	if nil != err {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load download record: %v", err)
	}

	return &d, nil
}

func (s *Store) Put(d Download) error {
	v, err := json.Marshal(d)
	if nil != err {
		return fmt.Errorf("failed to encode download record: %v", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(downloadsBucketName).Put(d.key(), v); nil != err {
			return fmt.Errorf("failed to put download record: %v", err)
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to store download record: %v", err)
	}

	return nil
}

func (s *Store) Delete(songID, bitrate string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(downloadsBucketName).Delete(downloadKey(songID, bitrate)); nil != err {
			return fmt.Errorf("failed to delete download record: %v", err)
		}

		return nil
	})
	if nil != err {
		return fmt.Errorf("failed to delete download record: %v", err)
	}

	return nil
}

// List returns every record ordered by song id, then bitrate.
func (s *Store) List() ([]Download, error) {
	var out []Download
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(downloadsBucketName).ForEach(func(k, v []byte) error {
			var d Download
			if err := json.Unmarshal(v, &d); nil != err {
				return fmt.Errorf("failed to decode download record %s: %v", k, err)
			}
			out = append(out, d)

			return nil
		})
	})
	if nil != err {
		return nil, fmt.Errorf("failed to list download records: %v", err)
	}

	return out, nil
}
