package storage

import (
	"fmt"
	"sort"
)

// In memory implementation of Storage below

type memoryMetadataKey struct {
	Source string
	Hash   string
}

type MemoryStorage struct {
	Feeds    map[string]*MemoryStorageFeed
	Metadata map[memoryMetadataKey]*FeedMetadata
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds:    map[string]*MemoryStorageFeed{},
		Metadata: map[memoryMetadataKey]*FeedMetadata{},
	}
}

func (s *MemoryStorage) ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error) {
	feeds := []*FeedMetadata{}
	for _, metadata := range s.Metadata {
		if filter.Source != "" && metadata.Source != filter.Source {
			continue
		}
		if filter.Hash != "" && metadata.Hash != filter.Hash {
			continue
		}
		feeds = append(feeds, metadata)
	}
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].RetrievedAt.After(feeds[j].RetrievedAt)
	})
	return feeds, nil
}

func (s *MemoryStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	s.Metadata[memoryMetadataKey{feed.Source, feed.Hash}] = feed
	return nil
}

func (s *MemoryStorage) GetReader(feed string) (FeedReader, error) {
	f, ok := s.Feeds[feed]
	if !ok {
		return nil, fmt.Errorf("feed not found")
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(feed string) (FeedWriter, error) {
	f := &MemoryStorageFeed{}
	s.Feeds[feed] = f
	return f, nil
}

// Holds a feed as plain slices. Indexing for lookups is done by the
// consumer of FeedReader.
type MemoryStorageFeed struct {
	stops      []*Stop
	platforms  []*Platform
	routes     []*Route
	lines      []*Line
	directions []*Direction
	trips      []*Trip
	schedules  []*Schedule
}

func (f *MemoryStorageFeed) WriteStop(stop *Stop) error {
	f.stops = append(f.stops, stop)
	return nil
}

func (f *MemoryStorageFeed) WritePlatform(platform *Platform) error {
	f.platforms = append(f.platforms, platform)
	return nil
}

func (f *MemoryStorageFeed) WriteRoute(route *Route) error {
	f.routes = append(f.routes, route)
	return nil
}

func (f *MemoryStorageFeed) WriteLine(line *Line) error {
	f.lines = append(f.lines, line)
	return nil
}

func (f *MemoryStorageFeed) WriteDirection(direction *Direction) error {
	f.directions = append(f.directions, direction)
	return nil
}

func (f *MemoryStorageFeed) WriteTrip(trip *Trip) error {
	f.trips = append(f.trips, trip)
	return nil
}

func (f *MemoryStorageFeed) WriteSchedule(schedule *Schedule) error {
	f.schedules = append(f.schedules, schedule)
	return nil
}

func (f *MemoryStorageFeed) WriteNonOperatingDay(scheduleID string, day *NonOperatingDay) error {
	for _, s := range f.schedules {
		if s.ID == scheduleID {
			s.NonOperatingDays = append(s.NonOperatingDays, *day)
			return nil
		}
	}
	return fmt.Errorf("unknown schedule '%s'", scheduleID)
}

func (f *MemoryStorageFeed) Close() error {
	return nil
}

func (f *MemoryStorageFeed) Stops() ([]*Stop, error) {
	return append([]*Stop{}, f.stops...), nil
}

func (f *MemoryStorageFeed) Platforms() ([]*Platform, error) {
	return append([]*Platform{}, f.platforms...), nil
}

func (f *MemoryStorageFeed) Routes() ([]*Route, error) {
	return append([]*Route{}, f.routes...), nil
}

func (f *MemoryStorageFeed) Lines() ([]*Line, error) {
	return append([]*Line{}, f.lines...), nil
}

func (f *MemoryStorageFeed) Directions() ([]*Direction, error) {
	return append([]*Direction{}, f.directions...), nil
}

func (f *MemoryStorageFeed) Trips() ([]*Trip, error) {
	return append([]*Trip{}, f.trips...), nil
}

func (f *MemoryStorageFeed) Schedules() ([]*Schedule, error) {
	return append([]*Schedule{}, f.schedules...), nil
}
