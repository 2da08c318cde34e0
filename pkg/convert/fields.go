package convert

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Sriram-PR/mal-scraper/pkg/models"
	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

var (
	digitsRegex            = regexp.MustCompile(`[0-9]+`)
	yearRegex              = regexp.MustCompile(`[0-9]{4}`)
	wordRegex              = regexp.MustCompile(`[A-Za-z]+`)
	durationUnitRegex      = regexp.MustCompile(`(hr|min|sec)`)
	sourceIDRegex          = regexp.MustCompile(`/[0-9]+/`)
	relatedIDRegex         = regexp.MustCompile(`/anime/([0-9]+)`)
	unspacedSemicolonRegex = regexp.MustCompile(`[^ ];[^ ]`)
)

var typeLabels = map[string]models.AnimeType{
	"tv":         models.TypeTV,
	"movie":      models.TypeMovie,
	"ova":        models.TypeOVA,
	"ona":        models.TypeONA,
	"special":    models.TypeSpecial,
	"tv special": models.TypeSpecial,
	"music":      models.TypeSpecial,
	"pv":         models.TypeSpecial,
	"cm":         models.TypeSpecial,
	"unknown":    models.TypeUnknown,
}

var statusLabels = map[string]models.AnimeStatus{
	"finished airing":  models.StatusFinished,
	"currently airing": models.StatusOngoing,
	"not yet aired":    models.StatusUpcoming,
}

var monthSeasons = []struct {
	month  string
	season models.Season
}{
	{"january", models.SeasonWinter}, {"february", models.SeasonWinter}, {"march", models.SeasonWinter},
	{"april", models.SeasonSpring}, {"may", models.SeasonSpring}, {"june", models.SeasonSpring},
	{"july", models.SeasonSummer}, {"august", models.SeasonSummer}, {"september", models.SeasonSummer},
	{"october", models.SeasonFall}, {"november", models.SeasonFall}, {"december", models.SeasonFall},
}

var durationUnitSeconds = map[string]int{"hr": 3600, "min": 60, "sec": 1}

// ExtractType maps the "Type" label of an entry, case-insensitively
func ExtractType(label string) (models.AnimeType, error) {
	if t, ok := typeLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: '%s'", utils.ErrUnrecognizedTypeLabel, label)
}

// ExtractStatus maps the "Status" label of an entry, case-insensitively
func ExtractStatus(label string) (models.AnimeStatus, error) {
	if s, ok := statusLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: '%s'", utils.ErrUnrecognizedStatusLabel, label)
}

// ExtractEpisodes returns the first number in text, 0 if there is none ("Unknown")
func ExtractEpisodes(text string) int {
	n, err := strconv.Atoi(digitsRegex.FindString(text))
	if err != nil {
		return 0
	}
	return n
}

// ExtractDuration pairs the numbers of text with its units in order and sums them.
// values and units are the counts found. On error the duration is 0: utils.ErrDurationMismatch
// when the counts differ, utils.ErrDurationOutOfRange when a value does not fit an int.
func ExtractDuration(text string) (d models.Duration, values, units int, err error) {
	nums := digitsRegex.FindAllString(text, -1)
	unitNames := durationUnitRegex.FindAllString(text, -1)
	values, units = len(nums), len(unitNames)
	if values != units {
		return models.Duration{}, values, units, utils.ErrDurationMismatch
	}

	total := 0
	for i, raw := range nums {
		unit := durationUnitSeconds[unitNames[i]]
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n > (math.MaxInt-total)/unit {
			return models.Duration{}, values, units, fmt.Errorf("%w: %q", utils.ErrDurationOutOfRange, raw)
		}
		total += n * unit
	}
	return models.Duration{Seconds: total}, values, units, nil
}

// ExtractAnimeSeason resolves season and year from the "Premiered" text, falling back to the "Aired" text
func ExtractAnimeSeason(premiered, aired string) models.AnimeSeason {
	season := models.ParseSeason(wordRegex.FindString(premiered))
	if season == models.SeasonUndefined {
		season = seasonOfMonth(wordRegex.FindString(aired))
	}

	year := 0
	if y := yearRegex.FindString(premiered); y != "" {
		year, _ = strconv.Atoi(y)
	} else if y := yearRegex.FindString(aired); y != "" {
		year, _ = strconv.Atoi(y)
	}

	return models.AnimeSeason{Season: season, Year: year}
}

// seasonOfMonth maps a (possibly abbreviated) month name to the season it starts in
func seasonOfMonth(token string) models.Season {
	token = strings.ToLower(token)
	if len(token) < 3 {
		return models.SeasonUndefined
	}
	for _, m := range monthSeasons {
		if strings.HasPrefix(m.month, token) {
			return m.season
		}
	}
	return models.SeasonUndefined
}

// ExtractSourceID reads the numeric entry id from the canonical link of a page
func ExtractSourceID(canonical string) (string, error) {
	match := sourceIDRegex.FindString(canonical)
	if match == "" {
		return "", fmt.Errorf("%w: no entry id in '%s'", utils.ErrMissingCanonicalSource, canonical)
	}
	return strings.Trim(match, "/"), nil
}

// ExtractRelatedIDs reads the entry id of every related-anime link, skipping links without one
func ExtractRelatedIDs(hrefs []string) []string {
	ids := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if m := relatedIDRegex.FindStringSubmatch(href); m != nil {
			ids = append(ids, m[1])
		}
	}
	return ids
}

// PostProcessSynonyms splits the raw synonym lines of an entry. How a line is split depends on title:
// a title without ';' means a ';' inside a line only separates synonyms, so it is removed.
// A title that itself uses ';' (unspaced or trailing) keeps it and lines are only split on "; ".
// Any other title leaves lines whole. The result is trimmed, deduplicated and sorted.
func PostProcessSynonyms(title string, lines []string) []string {
	var parts []string
	for _, line := range lines {
		switch {
		case !strings.Contains(title, ";"):
			for _, p := range strings.Split(line, "; ") {
				parts = append(parts, strings.ReplaceAll(p, ";", ""))
			}
		case unspacedSemicolonRegex.MatchString(title) || strings.HasSuffix(title, ";"):
			parts = append(parts, strings.Split(line, "; ")...)
		default:
			parts = append(parts, line)
		}
	}

	seen := make(map[string]struct{}, len(parts))
	synonyms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		synonyms = append(synonyms, p)
	}
	sort.Strings(synonyms)
	return synonyms
}

// FindThumbnail derives the thumbnail link of a picture by inserting "t" before its extension
func FindThumbnail(picture string) string {
	ext := path.Ext(picture)
	if ext == "" || strings.Contains(ext, "/") {
		return picture
	}
	return strings.TrimSuffix(picture, ext) + "t" + ext
}
