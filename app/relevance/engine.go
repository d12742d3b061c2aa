package relevance

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Weights for score accumulation. These are heuristic knobs, not sacred
// values; the decision rule below is the stable contract.
type Config struct {
	CategoryWeight  float64
	UniversalWeight float64
	TitleBonus      float64
	LengthBonus     float64
	LengthThreshold int // description length in characters that earns the bonus
}

func DefaultConfig() Config {
	return Config{
		CategoryWeight:  2.0,
		UniversalWeight: 3.0,
		TitleBonus:      1.0,
		LengthBonus:     0.5,
		LengthThreshold: 200,
	}
}

// Result of scoring one entry. MatchedKeywords counts distinct keyword
// hits across both tables.
type Result struct {
	Relevant        bool
	Score           float64
	MatchedKeywords int
	Tags            []string
}

// Engine scores title+description text against category-specific and
// universal keyword tables. Scoring is deterministic and idempotent: the
// same text and tables always yield the same result. This is a heuristic,
// not a classifier; false positives and negatives are expected.
type Engine struct {
	cfg       Config
	category  map[string][]string
	universal []string
	tagGroups []TagGroup
	folder    cases.Caser
}

func NewEngine() *Engine {
	return NewEngineWithTables(DefaultConfig(), CategoryKeywords, UniversalKeywords, TagGroups)
}

func NewEngineWithTables(cfg Config, category map[string][]string, universal []string, tagGroups []TagGroup) *Engine {
	return &Engine{
		cfg:       cfg,
		category:  category,
		universal: universal,
		tagGroups: tagGroups,
		folder:    cases.Fold(),
	}
}

// Score evaluates an entry's text for the given source category.
//
// An entry is relevant when score >= 2.0 or at least 2 distinct keywords
// matched. The dual threshold keeps entries with several weak category
// signals while still admitting a single strong universal hit.
func (e *Engine) Score(title, description, category string) Result {
	foldedTitle := e.folder.String(title)
	foldedText := foldedTitle + " " + e.folder.String(description)

	var score float64
	matched := make(map[string]struct{})

	categoryKeywords := e.category[category]
	for _, keyword := range categoryKeywords {
		if strings.Contains(foldedText, keyword) {
			score += e.cfg.CategoryWeight
			matched[keyword] = struct{}{}
		}
	}

	for _, keyword := range e.universal {
		if strings.Contains(foldedText, keyword) {
			score += e.cfg.UniversalWeight
			matched[keyword] = struct{}{}
		}
	}

	// Title mentions earn an extra bonus on top of the combined-text hit
	for _, keyword := range categoryKeywords {
		if strings.Contains(foldedTitle, keyword) {
			score += e.cfg.TitleBonus
		}
	}
	for _, keyword := range e.universal {
		if strings.Contains(foldedTitle, keyword) {
			score += e.cfg.TitleBonus
		}
	}

	if utf8.RuneCountInString(description) > e.cfg.LengthThreshold {
		score += e.cfg.LengthBonus
	}

	return Result{
		Relevant:        score >= 2.0 || len(matched) >= 2,
		Score:           score,
		MatchedKeywords: len(matched),
		Tags:            e.deriveTags(foldedText, category),
	}
}

// deriveTags produces the semantic tag set: the source category always, plus
// every tag group with at least one keyword hit. The result is sorted and
// free of duplicates so repeated scoring yields identical output.
func (e *Engine) deriveTags(foldedText, category string) []string {
	set := make(map[string]struct{})

	if category != "" {
		set[category] = struct{}{}
	}

	for _, group := range e.tagGroups {
		for _, keyword := range group.Keywords {
			if strings.Contains(foldedText, keyword) {
				set[group.Tag] = struct{}{}
				break
			}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}
