package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AnimeSeason combines the premiere season and year. Year 0 means unknown
type AnimeSeason struct {
	Season Season `json:"season" yaml:"season"`
	Year   int    `json:"year" yaml:"year"`
}

// Duration is the running time of a single episode
type Duration struct {
	Seconds int `json:"seconds" yaml:"seconds"`
}

// Anime is the normalized record produced from a single entry page.
// Set-valued fields are trimmed, deduplicated and sorted by NewAnime.
type Anime struct {
	Title        string      `json:"title" yaml:"title"`
	Sources      []string    `json:"sources" yaml:"sources"`
	Type         AnimeType   `json:"type" yaml:"type"`
	Episodes     int         `json:"episodes" yaml:"episodes"`
	Status       AnimeStatus `json:"status" yaml:"status"`
	AnimeSeason  AnimeSeason `json:"animeSeason" yaml:"anime_season"`
	Picture      string      `json:"picture" yaml:"picture"`
	Thumbnail    string      `json:"thumbnail" yaml:"thumbnail"`
	Duration     Duration    `json:"duration" yaml:"duration"`
	Synonyms     []string    `json:"synonyms" yaml:"synonyms"`
	RelatedAnime []string    `json:"relatedAnime" yaml:"related_anime"`
	Tags         []string    `json:"tags" yaml:"tags"`
}

// NewAnime validates a draft record and returns a normalized copy.
// The returned value shares no slices with the draft.
func NewAnime(draft Anime) (Anime, error) {
	a := draft
	a.Title = norm.NFC.String(strings.TrimSpace(draft.Title))
	if a.Title == "" {
		return Anime{}, errors.New("anime title must not be blank")
	}
	if !a.Type.IsValid() {
		return Anime{}, fmt.Errorf("type %s is not a known anime type", a.Type)
	}
	if !a.Status.IsValid() {
		return Anime{}, fmt.Errorf("status %s is not a known anime status", a.Status)
	}
	if a.Episodes < 0 {
		return Anime{}, fmt.Errorf("episodes must not be negative, got %d", a.Episodes)
	}
	if a.Duration.Seconds < 0 {
		return Anime{}, fmt.Errorf("duration must not be negative, got %d", a.Duration.Seconds)
	}
	if a.AnimeSeason.Year < 0 {
		return Anime{}, fmt.Errorf("year must not be negative, got %d", a.AnimeSeason.Year)
	}
	if a.AnimeSeason.Season == "" {
		a.AnimeSeason.Season = SeasonUndefined
	}

	a.Sources = normalizeSet(draft.Sources)
	if len(a.Sources) == 0 {
		return Anime{}, errors.New("anime must have at least one source")
	}
	a.RelatedAnime = normalizeSet(draft.RelatedAnime)
	a.Tags = normalizeSet(draft.Tags)

	// A synonym equal to the title carries no information
	a.Synonyms = slices.DeleteFunc(normalizeSet(draft.Synonyms), func(s string) bool {
		return s == a.Title
	})
	return a, nil
}

// normalizeSet trims every value and composes it to NFC, drops blanks and duplicates, and sorts the result
func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = norm.NFC.String(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
