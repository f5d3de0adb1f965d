package model

import (
	"database/sql"
	"time"
)

// DateTime is the wire format for release dates and review timestamps.
// Values are stored and compared in UTC.
const DateTime = "2006-01-02 15:04:05"

// AgeRatings is the fixed set of classifications a film may carry.
// "TBC" is the default while a film awaits classification.
var AgeRatings = []string{"G", "PG", "M", "R13", "R16", "R18", "TBC"}

// ValidAgeRating reports whether s is one of the fixed classification values.
func ValidAgeRating(s string) bool {
	for _, r := range AgeRatings {
		if s == r {
			return true
		}
	}
	return false
}

// ParseDateTime parses a wire-format datetime string in UTC.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTime, s, time.UTC)
}

// Film represents a row in the `film` table.  A film is owned by the
// user who created it (the director); only the director may edit,
// delete or replace its hero image.  Once a film has accrued a review
// or its release date has passed it is locked: core metadata becomes
// immutable, though the hero image may still be replaced.
//
// Fields:
//
//	ID            – primary key identifier.
//	Title         – globally unique title.
//	Description   – synopsis text.
//	ReleaseDate   – when the film releases; may not be in the past at creation.
//	GenreID       – reference into the read-only genre table.
//	DirectorID    – owning user.
//	Runtime       – minutes, null when unknown.
//	AgeRating     – one of AgeRatings.
//	ImageFilename – stored hero image filename, null when no image is set.
type Film struct {
	ID            int64          // film.id
	Title         string         // film.title
	Description   string         // film.description
	ReleaseDate   time.Time      // film.release_date
	GenreID       int64          // film.genre_id
	DirectorID    int64          // film.director_id
	Runtime       sql.NullInt64  // film.runtime
	AgeRating     string         // film.age_rating
	ImageFilename sql.NullString // film.image_filename
}

// Released reports whether the film's release date is at or before now.
func (f Film) Released(now time.Time) bool {
	return !f.ReleaseDate.After(now)
}
