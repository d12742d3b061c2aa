package feed

import (
	"bytes"
	"cmp"
	"strings"

	"github.com/mmcdole/gofeed"
)

// PlaceholderTitle is used when a feed entry carries no title at all.
// Titles are never empty: the dedup fallback key depends on them.
const PlaceholderTitle = "No Title"

type Parser struct {
	gofeedParser *gofeed.Parser
	cleaner      *Cleaner
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		cleaner:      NewCleaner(),
	}
}

// Run parses raw feed bytes into normalized entries using the field priority
// of the given strategy. A payload gofeed cannot recognize yields a
// Malformed ParseError; a recognizable feed with zero items yields an Empty
// ParseError alongside an empty slice.
func (p *Parser) Run(data []byte, strategy Strategy) (*Metadata, []Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &ParseError{Kind: ParseMalformed, Err: err}
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	if parsed.Image != nil {
		metadata.ImageURL = parsed.Image.URL
	}

	if len(parsed.Items) == 0 {
		return metadata, []Entry{}, &ParseError{Kind: ParseEmpty}
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item, parsed, strategy))
	}

	return metadata, entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, parsed *gofeed.Feed, strategy Strategy) Entry {
	entry := Entry{
		Title:        cmp.Or(strings.TrimSpace(item.Title), PlaceholderTitle),
		Link:         strings.TrimSpace(item.Link),
		Description:  p.cleaner.Run(strategy.Description(item), 0),
		Author:       extractAuthor(item, parsed),
		PublishedAt:  item.PublishedParsed,
		UpdatedAt:    item.UpdatedParsed,
		RawPublished: item.Published,
		RawUpdated:   item.Updated,
		Categories:   item.Categories,
	}

	if item.Image != nil {
		entry.ThumbnailURL = item.Image.URL
	}

	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		enclosure := item.Enclosures[0]
		entry.EnclosureURL = enclosure.URL
		entry.EnclosureType = enclosure.Type
		entry.EnclosureLength = parseEnclosureLength(enclosure.Length)

		if entry.ThumbnailURL == "" && strings.HasPrefix(enclosure.Type, "image/") {
			entry.ThumbnailURL = enclosure.URL
		}
	}

	if entry.ThumbnailURL == "" && item.ITunesExt != nil {
		entry.ThumbnailURL = item.ITunesExt.Image
	}

	return entry
}

// extractAuthor prefers entry-level authors; the feed title serves as a
// last-resort attribution so records never lose their origin.
func extractAuthor(item *gofeed.Item, parsed *gofeed.Feed) string {
	if len(item.Authors) > 0 {
		var names []string
		for _, author := range item.Authors {
			if author == nil {
				continue
			}
			if formatted := formatAuthor(author.Name, author.Email); formatted != "" {
				names = append(names, formatted)
			}
		}
		if len(names) > 0 {
			return strings.Join(names, ", ")
		}
	}

	if item.Author != nil {
		if formatted := formatAuthor(item.Author.Name, item.Author.Email); formatted != "" {
			return formatted
		}
	}

	return strings.TrimSpace(parsed.Title)
}

func formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name != "" && email != "":
		return name + " (" + email + ")"
	case name != "":
		return name
	default:
		return email
	}
}

func parseEnclosureLength(raw string) int64 {
	var length int64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		length = length*10 + int64(r-'0')
	}
	return length
}
