package feed

import (
	"cmp"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/mediapulse/mediapulse/app/registry"
)

// Strategy adapts normalization and scoring defaults to a source's feed
// shape. No single code path assumes one shape for all sources; the
// dispatcher picks a strategy once per source and the pipeline runs against
// the interface.
type Strategy interface {
	Name() string
	DefaultCategory() string
	// Description picks the richest raw description candidate for an item,
	// in the strategy's field priority order. The result is still HTML.
	Description(item *gofeed.Item) string
}

// Feed hosts that identify a podcast feed even when the source's declared
// type is missing or wrong.
var podcastHosts = []string{
	"megaphone.fm",
	"transistor.fm",
	"buzzsprout.com",
	"art19.com",
	"feeds.npr.org",
	"anchor.fm",
	"podbean.com",
	"spotify.com",
}

var socialHosts = []string{
	"reddit.com",
	"twitter.com",
	"x.com",
	"nitter.net",
	"bsky.app",
}

// SelectStrategy routes a source to its processing strategy: declared type
// first, then category hints, then URL-pattern heuristics, defaulting to
// blog handling.
func SelectStrategy(source *registry.Source) Strategy {
	switch strings.ToLower(source.Type) {
	case "podcast":
		return PodcastStrategy{}
	case "social":
		return SocialStrategy{}
	case "blog":
		return BlogStrategy{}
	}

	category := strings.ToLower(source.Category)
	if strings.Contains(category, "podcast") {
		return PodcastStrategy{}
	}
	if strings.Contains(category, "social") {
		return SocialStrategy{}
	}

	if host := hostOf(source.URL); host != "" {
		if matchesHost(host, podcastHosts) {
			return PodcastStrategy{}
		}
		if matchesHost(host, socialHosts) {
			return SocialStrategy{}
		}
	}

	return BlogStrategy{}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func matchesHost(host string, patterns []string) bool {
	for _, pattern := range patterns {
		if host == pattern || strings.HasSuffix(host, "."+pattern) {
			return true
		}
	}
	return false
}

// BlogStrategy handles article feeds: summary text first, full content
// block as fallback.
type BlogStrategy struct{}

func (BlogStrategy) Name() string            { return "blog" }
func (BlogStrategy) DefaultCategory() string { return "business_news" }

func (BlogStrategy) Description(item *gofeed.Item) string {
	return cmp.Or(item.Description, item.Content)
}

// PodcastStrategy prefers the iTunes episode summary, which is usually the
// only field podcast hosts fill with show notes.
type PodcastStrategy struct{}

func (PodcastStrategy) Name() string            { return "podcast" }
func (PodcastStrategy) DefaultCategory() string { return "business_podcasts" }

func (PodcastStrategy) Description(item *gofeed.Item) string {
	if item.ITunesExt != nil && item.ITunesExt.Summary != "" {
		return item.ITunesExt.Summary
	}
	return cmp.Or(item.Description, item.Content)
}

// SocialStrategy handles syndicated social feeds (Reddit Atom and the
// like), where the post body lives in the content block and summaries are
// rarely present.
type SocialStrategy struct{}

func (SocialStrategy) Name() string            { return "social" }
func (SocialStrategy) DefaultCategory() string { return "creator_economy" }

func (SocialStrategy) Description(item *gofeed.Item) string {
	return cmp.Or(item.Content, item.Description)
}
