package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const indexFile = "index.json"

// Caches downloaded archives in a directory, surviving restarts.
// Each body is kept in its own file, named by a hash of the URL, and
// index.json records when it was retrieved.
type Filesystem struct {
	Dir   string
	Index map[string]cachedArchive

	mutex sync.Mutex
}

type cachedArchive struct {
	File        string    `json:"file"`
	Size        int       `json:"size"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	fs := &Filesystem{
		Dir:   dir,
		Index: map[string]cachedArchive{},
	}

	buf, err := os.ReadFile(filepath.Join(dir, indexFile))
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if err := json.Unmarshal(buf, &fs.Index); err != nil {
		return nil, fmt.Errorf("unmarshalling index: %w", err)
	}

	return fs, nil
}

func (f *Filesystem) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if options.Cache {
		if body, found := f.cached(url, options.CacheTTL); found {
			return body, nil
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}

	if options.Cache {
		if err := f.store(url, body); err != nil {
			return nil, fmt.Errorf("caching %s: %w", url, err)
		}
	}

	return body, nil
}

func (f *Filesystem) cached(url string, ttl time.Duration) ([]byte, bool) {
	entry, found := f.Index[url]
	if !found {
		return nil, false
	}
	if !entry.RetrievedAt.Add(ttl).After(time.Now()) {
		log.Debug().Str("url", url).Time("retrieved_at", entry.RetrievedAt).Msg("cache expired")
		return nil, false
	}

	body, err := os.ReadFile(filepath.Join(f.Dir, entry.File))
	if err != nil || len(body) != entry.Size {
		log.Warn().Str("url", url).Str("file", entry.File).Msg("cached archive unreadable, refetching")
		return nil, false
	}

	log.Debug().Str("url", url).Msg("cache hit")
	return body, true
}

func (f *Filesystem) store(url string, body []byte) error {
	name := fmt.Sprintf("%x.zip", sha256.Sum256([]byte(url)))
	if err := os.WriteFile(filepath.Join(f.Dir, name), body, 0644); err != nil {
		return err
	}

	f.Index[url] = cachedArchive{
		File:        name,
		Size:        len(body),
		RetrievedAt: time.Now().UTC(),
	}

	buf, err := json.MarshalIndent(f.Index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling index: %w", err)
	}
	return os.WriteFile(filepath.Join(f.Dir, indexFile), buf, 0644)
}
