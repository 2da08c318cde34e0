package convert

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/mal-scraper/pkg/config"
	"github.com/Sriram-PR/mal-scraper/pkg/models"
	"github.com/Sriram-PR/mal-scraper/pkg/parse"
	"github.com/Sriram-PR/mal-scraper/pkg/utils"
)

// RulesetVersion identifies the page layout the ruleset below was written against (the mobile entry page)
const RulesetVersion = 3

const (
	fieldTitle        = "title"
	fieldEpisodes     = "episodes"
	fieldType         = "type"
	fieldPicture      = "picture"
	fieldSynonyms     = "synonyms"
	fieldSource       = "source"
	fieldRelatedAnime = "relatedAnime"
	fieldStatus       = "status"
	fieldDuration     = "duration"
	fieldPremiered    = "premiered"
	fieldAired        = "aired"
	fieldTags         = "tags"
)

// infoCell selects the value cell next to the label cell of an information table row
func infoCell(label string) string {
	return fmt.Sprintf(`td:first-child:containsOwn(%q) + td`, label)
}

// fieldRule binds a field to its query and to the function that turns the query's result into part of the record
type fieldRule struct {
	field string
	query parse.Query
	apply func(c *Converter, data *parse.Result, draft *models.Anime) error
}

// ruleset is applied in order. Title comes first: synonyms and tags are post-processed against it.
// Premiered has no apply step of its own; the aired rule resolves season and year from both.
var ruleset = []fieldRule{
	{fieldTitle, parse.Attr(`meta[property="og:title"]`, "content"), applyTitle},
	{fieldEpisodes, parse.Text(infoCell("Episodes")), applyEpisodes},
	{fieldType, parse.Text(infoCell("Type")), applyType},
	{fieldPicture, parse.Attr(`div.status-block [itemprop="image"]`, "content"), applyPicture},
	{fieldSynonyms, parse.TextNodes(infoCell("Synonyms")), applySynonyms},
	{fieldSource, parse.Attr(`meta[property="og:url"]`, "content"), applySource},
	{fieldRelatedAnime, parse.AttrAll(`h2:containsOwn("Related Anime") + table tr:not(:matches(^\s*Adaptation)) a[href*="/anime/"]`, "href"), applyRelatedAnime},
	{fieldStatus, parse.Text(infoCell("Status")), applyStatus},
	{fieldDuration, parse.Text(infoCell("Duration")), applyDuration},
	{fieldPremiered, parse.Text(infoCell("Premiered")), nil},
	{fieldAired, parse.Text(infoCell("Aired")), applyAnimeSeason},
	{fieldTags, parse.TextAll(`span[itemprop="genre"]`), applyTags},
}

// Converter turns the raw markup of an entry page into a models.Anime
type Converter struct {
	provider config.ProviderConfig
	queries  map[string]parse.Query
	log      *logrus.Entry
}

// NewConverter creates a Converter building links and sentinel pictures from provider
func NewConverter(provider config.ProviderConfig, log *logrus.Entry) (*Converter, error) {
	queries := make(map[string]parse.Query, len(ruleset))
	for _, rule := range ruleset {
		queries[rule.field] = rule.query
	}
	if _, err := parse.Compile(queries); err != nil {
		return nil, utils.WrapErrorf(err, "ruleset v%d", RulesetVersion)
	}

	return &Converter{
		provider: provider,
		queries:  queries,
		log:      log.WithFields(logrus.Fields{"component": "converter", "ruleset": RulesetVersion}),
	}, nil
}

// Convert extracts every field of rawContent. It performs no I/O and never mutates a previously returned record.
func (c *Converter) Convert(rawContent string) (models.Anime, error) {
	data, err := parse.Extract(rawContent, c.queries)
	if err != nil {
		return models.Anime{}, err
	}
	c.log.WithField("fields_found", data.Fields()).Debug("Extracted raw fields")

	var draft models.Anime
	for _, rule := range ruleset {
		if rule.apply == nil {
			continue
		}
		if err := rule.apply(c, data, &draft); err != nil {
			return models.Anime{}, err
		}
	}

	anime, err := models.NewAnime(draft)
	if err != nil {
		return models.Anime{}, fmt.Errorf("%w: %w", utils.ErrParsing, err)
	}
	return anime, nil
}

func applyTitle(_ *Converter, data *parse.Result, draft *models.Anime) error {
	if data.NotFound(fieldTitle) {
		return utils.ErrMissingTitle
	}
	draft.Title = data.String(fieldTitle)
	return nil
}

func applyEpisodes(_ *Converter, data *parse.Result, draft *models.Anime) error {
	draft.Episodes = ExtractEpisodes(data.String(fieldEpisodes))
	return nil
}

func applyType(_ *Converter, data *parse.Result, draft *models.Anime) error {
	t, err := ExtractType(data.String(fieldType))
	if err != nil {
		return err
	}
	draft.Type = t
	return nil
}

func applyPicture(c *Converter, data *parse.Result, draft *models.Anime) error {
	draft.Picture, draft.Thumbnail = c.findPicture(data.String(fieldPicture))
	return nil
}

func applySynonyms(_ *Converter, data *parse.Result, draft *models.Anime) error {
	draft.Synonyms = PostProcessSynonyms(draft.Title, data.List(fieldSynonyms))
	return nil
}

func applySource(c *Converter, data *parse.Result, draft *models.Anime) error {
	id, err := ExtractSourceID(data.String(fieldSource))
	if err != nil {
		return err
	}
	draft.Sources = []string{c.provider.BuildAnimeLink(id)}
	return nil
}

func applyRelatedAnime(c *Converter, data *parse.Result, draft *models.Anime) error {
	for _, id := range ExtractRelatedIDs(data.List(fieldRelatedAnime)) {
		draft.RelatedAnime = append(draft.RelatedAnime, c.provider.BuildAnimeLink(id))
	}
	return nil
}

func applyStatus(_ *Converter, data *parse.Result, draft *models.Anime) error {
	s, err := ExtractStatus(data.String(fieldStatus))
	if err != nil {
		return err
	}
	draft.Status = s
	return nil
}

func applyDuration(c *Converter, data *parse.Result, draft *models.Anime) error {
	text := data.String(fieldDuration)
	d, values, units, err := ExtractDuration(text)
	durLog := c.log.WithFields(logrus.Fields{"duration_text": text, "values": values, "units": units})
	switch {
	case errors.Is(err, utils.ErrDurationMismatch):
		durLog.Warnf("The amount of values [%d] does not match the amount of units [%d].", values, units)
	case err != nil:
		durLog.Warnf("Duration dropped: %v", err)
	}
	draft.Duration = d
	return nil
}

func applyAnimeSeason(_ *Converter, data *parse.Result, draft *models.Anime) error {
	draft.AnimeSeason = ExtractAnimeSeason(data.String(fieldPremiered), data.String(fieldAired))
	return nil
}

func applyTags(_ *Converter, data *parse.Result, draft *models.Anime) error {
	for _, tag := range data.List(fieldTags) {
		if tag == draft.Title {
			continue
		}
		draft.Tags = append(draft.Tags, tag)
	}
	return nil
}

// findPicture substitutes the sentinel pair for missing or placeholder images
func (c *Converter) findPicture(raw string) (picture, thumbnail string) {
	if raw == "" || c.provider.IsPlaceholderPicture(raw) {
		return c.provider.NoPicture, c.provider.NoPictureThumbnail
	}
	return raw, FindThumbnail(raw)
}
