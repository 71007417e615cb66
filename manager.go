package timetable

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"busboard.dev/timetable/downloader"
	"busboard.dev/timetable/metrics"
	"busboard.dev/timetable/parse"
	"busboard.dev/timetable/storage"
)

const (
	DefaultStaticTimeout = 60 * time.Second
	DefaultStaticMaxSize = 200 << 20 // 200 MB
)

var ErrNoActiveFeed = errors.New("no active feed found")

// Manager loads timetable snapshots into storage and builds query
// contexts from them.
type Manager struct {
	StaticTimeout time.Duration
	StaticMaxSize int
	Downloader    downloader.Downloader

	// Downloaded archives are reused for this long. Zero disables
	// caching.
	CacheTTL time.Duration

	// Location in which dates and clock times are interpreted.
	Location *time.Location

	// Optional.
	Metrics *metrics.Collector

	storage storage.Storage
}

// Creates a new Manager on top of the given storage. Times are
// interpreted in the local timezone unless Location is changed.
func NewManager(s storage.Storage) *Manager {
	return &Manager{
		StaticTimeout: DefaultStaticTimeout,
		StaticMaxSize: DefaultStaticMaxSize,
		Downloader:    downloader.NewMemoryDownloader(),
		Location:      time.Local,
		storage:       s,
	}
}

// Loads a snapshot from source, which is a directory holding the
// JSON files, a zip archive of them, or an http(s) URL to such an
// archive.
//
// Snapshots are identified by a sha256 of their content, and only
// parsed into storage if not already present. The most recently
// retrieved snapshot from source with a schedule version valid at
// when is then returned. ErrNoActiveFeed is returned if there is
// none.
func (m *Manager) LoadStatic(ctx context.Context, source string, when time.Time) (*Static, error) {
	start := time.Now()

	err := m.load(ctx, source)
	if m.Metrics != nil {
		m.Metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	return m.LoadStaticAsync(source, when)
}

// Builds a query context from what is already in storage for
// source, without fetching anything. Returns ErrNoActiveFeed if
// nothing suitable has been loaded.
func (m *Manager) LoadStaticAsync(source string, when time.Time) (*Static, error) {
	feeds, err := m.storage.ListFeeds(storage.ListFeedsFilter{Source: source})
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}

	static, err := m.loadMostRecentActive(feeds, when)
	if err != nil {
		if errors.Is(err, ErrNoActiveFeed) && m.Metrics != nil {
			m.Metrics.NoActiveVersion.Inc()
		}
		return nil, err
	}

	if m.Metrics != nil {
		m.Metrics.SetActive(static.Schedule.ID, len(static.Lines()), len(static.tripByID))
	}
	return static, nil
}

func (m *Manager) load(ctx context.Context, source string) error {
	parseFn, hash, err := m.fetch(ctx, source)
	if err != nil {
		m.failed("fetch")
		return err
	}

	// The data may already be in storage, possibly under another
	// source.
	feeds, err := m.storage.ListFeeds(storage.ListFeedsFilter{Hash: hash})
	if err != nil {
		return fmt.Errorf("listing feeds: %w", err)
	}
	if len(feeds) > 0 {
		for _, feed := range feeds {
			if feed.Source == source {
				log.Debug().Str("source", source).Str("hash", hash).Msg("snapshot already loaded")
				m.loaded("cached")
				return nil
			}
		}

		metadata := *feeds[0]
		metadata.Source = source
		metadata.RetrievedAt = time.Now().UTC()
		if err := m.storage.WriteFeedMetadata(&metadata); err != nil {
			return fmt.Errorf("writing metadata: %w", err)
		}
		m.loaded("cached")
		return nil
	}

	writer, err := m.storage.GetWriter(hash)
	if err != nil {
		return fmt.Errorf("getting writer: %w", err)
	}
	defer writer.Close()

	metadata, err := parseFn(writer)
	if err != nil {
		m.failed("parse")
		return fmt.Errorf("parsing %s: %w", source, err)
	}

	metadata.Hash = hash
	metadata.Source = source
	metadata.RetrievedAt = time.Now().UTC()
	if err := m.storage.WriteFeedMetadata(metadata); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	log.Info().
		Str("source", source).
		Str("hash", hash).
		Str("earliest_valid_from", metadata.EarliestValidFrom).
		Str("latest_valid_from", metadata.LatestValidFrom).
		Msg("loaded snapshot")
	m.loaded("parsed")
	return nil
}

type parseFunc func(storage.FeedWriter) (*storage.FeedMetadata, error)

// Reads source and returns a function parsing it, along with its
// content hash.
func (m *Manager) fetch(ctx context.Context, source string) (parseFunc, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := m.Downloader.Get(ctx, source, nil, downloader.GetOptions{
			Cache:    m.CacheTTL > 0,
			CacheTTL: m.CacheTTL,
			Timeout:  m.StaticTimeout,
			MaxSize:  m.StaticMaxSize,
		})
		if err != nil {
			return nil, "", fmt.Errorf("downloading %s: %w", source, err)
		}
		return zipParser(body), fmt.Sprintf("%x", sha256.Sum256(body)), nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", source, err)
	}

	if info.IsDir() {
		hash, err := hashDir(source)
		if err != nil {
			return nil, "", fmt.Errorf("hashing %s: %w", source, err)
		}
		return func(w storage.FeedWriter) (*storage.FeedMetadata, error) {
			return parse.ParseDir(w, source)
		}, hash, nil
	}

	body, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", source, err)
	}
	return zipParser(body), fmt.Sprintf("%x", sha256.Sum256(body)), nil
}

func zipParser(body []byte) parseFunc {
	return func(w storage.FeedWriter) (*storage.FeedMetadata, error) {
		return parse.ParseStatic(w, body)
	}
}

// Hash over the names and contents of the regular files in dir, in
// name order.
func hashDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		buf, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%d\x00", name, len(buf))
		h.Write(buf)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Selects the most recently retrieved feed from feeds that has a
// schedule version valid at the given time.
func (m *Manager) loadMostRecentActive(feeds []*storage.FeedMetadata, when time.Time) (*Static, error) {
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].RetrievedAt.Before(feeds[j].RetrievedAt)
	})

	for i := len(feeds) - 1; i >= 0; i-- {
		if !m.feedActive(feeds[i], when) {
			continue
		}

		// This is the one!
		reader, err := m.storage.GetReader(feeds[i].Hash)
		if err != nil {
			m.failed("activate")
			return nil, fmt.Errorf("getting reader: %w", err)
		}
		static, err := NewStatic(reader, feeds[i], when, m.Location)
		if err != nil {
			m.failed("activate")
			return nil, fmt.Errorf("creating static: %w", err)
		}
		return static, nil
	}

	// No active feed found.
	return nil, ErrNoActiveFeed
}

func (m *Manager) feedActive(feed *storage.FeedMetadata, when time.Time) bool {
	today := when.In(m.Location).Format("2006-01-02")
	return feed.EarliestValidFrom != "" && feed.EarliestValidFrom <= today
}

func (m *Manager) loaded(result string) {
	if m.Metrics != nil {
		m.Metrics.DatasetsLoaded.WithLabelValues(result).Inc()
	}
}

func (m *Manager) failed(stage string) {
	if m.Metrics != nil {
		m.Metrics.LoadFailures.WithLabelValues(stage).Inc()
	}
}
