package relevance

// Keyword tables are plain data: loaded once at startup, passed by
// reference into the engine, and never mutated afterwards. Categories mirror
// the source registry's category labels.

// CategoryKeywords are matched for sources of that category only.
var CategoryKeywords = map[string][]string{
	"creator_economy": {
		"creator", "influencer", "youtube", "tiktok", "instagram", "social media",
		"monetization", "brand deal", "sponsorship", "patreon", "onlyfans",
		"content creation", "subscriber", "follower", "viral", "algorithm",
	},
	"media_analysis": {
		"media business", "streaming", "netflix", "disney", "platform",
		"advertising", "subscription", "cord cutting", "digital media",
		"content strategy", "audience", "engagement", "media company",
	},
	"business_news": {
		"startup", "funding", "investment", "ipo", "acquisition", "merger",
		"business model", "revenue", "growth", "market", "industry",
	},
	"tech_news": {
		"artificial intelligence", "ai", "machine learning", "blockchain",
		"cryptocurrency", "web3", "metaverse", "saas", "platform", "api",
	},
	"vc_insights": {
		"venture capital", "fund", "portfolio", "seed", "series a", "series b",
		"founder", "startup", "valuation", "thesis",
	},
	"business_podcasts": {
		"founder", "entrepreneur", "scaling", "business", "startup",
		"interview", "growth", "strategy",
	},
	"creator_podcasts": {
		"creator", "youtube", "audience", "channel", "video", "monetization",
		"sponsorship", "brand",
	},
}

// UniversalKeywords are high-value cross-category terms and carry a higher
// weight than category matches.
var UniversalKeywords = []string{
	"business model", "revenue model", "monetization strategy",
	"digital transformation", "platform economics", "network effects",
	"creator economy", "influencer marketing", "content marketing",
	"subscription business", "freemium", "marketplace", "ecosystem",
}

// TagGroup derives a semantic tag whenever any of its keywords appears in
// the combined title+description text. Tags are a superset signal,
// independent of the pass/fail relevance decision.
type TagGroup struct {
	Tag      string
	Keywords []string
}

// TagGroups are evaluated in order; output tags are deduplicated and sorted,
// so the order here only aids readability.
var TagGroups = []TagGroup{
	{"startup_funding", []string{
		"startup", "funding", "venture", "vc", "investment", "fundraising",
		"seed", "series a", "series b",
	}},
	{"business_models", []string{
		"business model", "monetization", "revenue", "profit", "subscription", "saas",
	}},
	{"creator_economy", []string{
		"creator", "influencer", "content creator", "youtube", "tiktok",
		"instagram", "patreon",
	}},
	{"creator_monetization", []string{
		"monetization", "sponsorship", "brand partnership", "affiliate marketing",
	}},
	{"ai_technology", []string{
		"ai", "artificial intelligence", "machine learning", "deep learning",
		"gpt", "llm",
	}},
	{"crypto_web3", []string{
		"crypto", "bitcoin", "ethereum", "blockchain", "web3", "defi", "nft",
	}},
	{"media_industry", []string{
		"media", "journalism", "publishing", "news", "content", "streaming",
		"podcast",
	}},
	{"media_business_models", []string{
		"subscription", "paywall", "digital media", "newsletter",
	}},
	{"market_trends", []string{
		"trend", "market", "analysis", "forecast", "prediction", "outlook",
	}},
	{"finance_economics", []string{
		"stock", "market", "trading", "finance", "economy", "inflation", "recession",
	}},
}
