package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnimeType_String(t *testing.T) {
	tests := []struct {
		typ  AnimeType
		want string
	}{
		{AnimeType(""), "unset"},
		{TypeTV, "TV"},
		{TypeMovie, "MOVIE"},
		{TypeSpecial, "SPECIAL"},
		{TypeUnknown, "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestAnimeType_IsValid(t *testing.T) {
	tests := []struct {
		typ  AnimeType
		want bool
	}{
		{TypeTV, true},
		{TypeMovie, true},
		{TypeOVA, true},
		{TypeONA, true},
		{TypeSpecial, true},
		{TypeUnknown, true},
		{AnimeType(""), false},
		{AnimeType("MUSIC"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.IsValid(), "AnimeType(%q).IsValid()", string(tt.typ))
	}
}

func TestAnimeStatus_IsValid(t *testing.T) {
	tests := []struct {
		status AnimeStatus
		want   bool
	}{
		{StatusFinished, true},
		{StatusOngoing, true},
		{StatusUpcoming, true},
		{AnimeStatus(""), false},
		{AnimeStatus("UNKNOWN"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsValid(), "AnimeStatus(%q).IsValid()", string(tt.status))
	}
	assert.Equal(t, "unset", AnimeStatus("").String())
}

func TestParseSeason(t *testing.T) {
	tests := []struct {
		input string
		want  Season
	}{
		{"Winter", SeasonWinter},
		{"spring", SeasonSpring},
		{"SUMMER", SeasonSummer},
		{" Fall ", SeasonFall},
		{"Autumn", SeasonUndefined},
		{"", SeasonUndefined},
		{"?", SeasonUndefined},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeason(tt.input), "ParseSeason(%q)", tt.input)
	}
	assert.Equal(t, "UNDEFINED", Season("").String())
}
