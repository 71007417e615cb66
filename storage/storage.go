package storage

import (
	"time"

	"busboard.dev/timetable/model"
)

type Storage interface {
	// Retrieves all feed metadata records matching the given
	// filter, most recently retrieved first.
	ListFeeds(filter ListFeedsFilter) ([]*FeedMetadata, error)

	// Writes a FeedMetadata record. If a record with the same
	// source and hash exists, it is updated.
	WriteFeedMetadata(metadata *FeedMetadata) error

	// Gets a reader for the feed with the given hash.
	GetReader(feed string) (FeedReader, error)

	// Gets a writer for the feed with the given hash. Any
	// previously written data for the feed is replaced.
	GetWriter(feed string) (FeedWriter, error)
}

type ListFeedsFilter struct {
	// If set, only include feeds loaded from the given source.
	Source string

	// If set, only include feeds with the given hash.
	Hash string
}

// Metadata for a loaded timetable snapshot. The parsed data can be
// accessed via FeedReader.
type FeedMetadata struct {
	Source      string
	Hash        string
	RetrievedAt time.Time

	// Range of valid_from across all schedule versions in the
	// feed, as YYYY-MM-DD.
	EarliestValidFrom string
	LatestValidFrom   string
}

// Writes the seven collections of a single feed.
//
// Nothing is guaranteed to be readable before Close() has been
// called, allowing transactions/batching/whathaveyou.
type FeedWriter interface {
	WriteStop(stop *model.Stop) error
	WritePlatform(platform *model.Platform) error
	WriteRoute(route *model.Route) error
	WriteLine(line *model.Line) error
	WriteDirection(direction *model.Direction) error
	WriteTrip(trip *model.Trip) error
	WriteSchedule(schedule *model.Schedule) error

	// Adds a non-operating day to an already written schedule.
	WriteNonOperatingDay(scheduleID string, day *model.NonOperatingDay) error

	Close() error
}

// Reads back the collections of a feed. Records are returned in the
// order they were written.
type FeedReader interface {
	Stops() ([]*model.Stop, error)
	Platforms() ([]*model.Platform, error)
	Routes() ([]*model.Route, error)
	Lines() ([]*model.Line, error)
	Directions() ([]*model.Direction, error)
	Trips() ([]*model.Trip, error)

	// Schedules with their NonOperatingDays populated.
	Schedules() ([]*model.Schedule, error)
}
