package models

import "strings"

// AnimeType is the closed set of release formats an entry can have
type AnimeType string

const (
	TypeTV      AnimeType = "TV"
	TypeMovie   AnimeType = "MOVIE"
	TypeOVA     AnimeType = "OVA"
	TypeONA     AnimeType = "ONA"
	TypeSpecial AnimeType = "SPECIAL"
	TypeUnknown AnimeType = "UNKNOWN"
)

// String implements fmt.Stringer for logging
func (t AnimeType) String() string {
	if t == "" {
		return "unset"
	}
	return string(t)
}

// IsValid returns true if the type is one of the known values
func (t AnimeType) IsValid() bool {
	switch t {
	case TypeTV, TypeMovie, TypeOVA, TypeONA, TypeSpecial, TypeUnknown:
		return true
	}
	return false
}

// AnimeStatus represents the airing state of an entry
type AnimeStatus string

const (
	StatusFinished AnimeStatus = "FINISHED"
	StatusOngoing  AnimeStatus = "ONGOING"
	StatusUpcoming AnimeStatus = "UPCOMING"
)

// String implements fmt.Stringer for logging
func (s AnimeStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is one of the known values
func (s AnimeStatus) IsValid() bool {
	switch s {
	case StatusFinished, StatusOngoing, StatusUpcoming:
		return true
	}
	return false
}

// Season is the quarter of the year in which an entry premiered
type Season string

const (
	SeasonUndefined Season = "UNDEFINED"
	SeasonWinter    Season = "WINTER"
	SeasonSpring    Season = "SPRING"
	SeasonSummer    Season = "SUMMER"
	SeasonFall      Season = "FALL"
)

// ParseSeason maps a season name (any case) to a Season.
// Anything it does not recognize yields SeasonUndefined.
func ParseSeason(value string) Season {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "winter":
		return SeasonWinter
	case "spring":
		return SeasonSpring
	case "summer":
		return SeasonSummer
	case "fall":
		return SeasonFall
	}
	return SeasonUndefined
}

// String implements fmt.Stringer for logging
func (s Season) String() string {
	if s == "" {
		return string(SeasonUndefined)
	}
	return string(s)
}
