package feed

import (
	"strings"
	"testing"
)

func TestCleanerStripsHTML(t *testing.T) {
	cleaner := NewCleaner()

	result := cleaner.Run("<p>Hello <b>world</b></p>", 0)
	if result != "Hello world" {
		t.Errorf("Expected 'Hello world', got: %s", result)
	}
}

func TestCleanerKeepsWordBoundariesBetweenBlocks(t *testing.T) {
	cleaner := NewCleaner()

	result := cleaner.Run("<p>first</p><p>second</p>", 0)
	if result != "first second" {
		t.Errorf("Expected 'first second', got: %s", result)
	}
}

func TestCleanerRemovesScriptAndStyleContent(t *testing.T) {
	cleaner := NewCleaner()

	input := `<p>Visible text</p><script>var hidden = "secret";</script><style>.x { color: red }</style>`
	result := cleaner.Run(input, 0)

	if result != "Visible text" {
		t.Errorf("Expected script and style content removed, got: %s", result)
	}
	if strings.Contains(result, "secret") {
		t.Error("Expected script body to never leak into cleaned text")
	}
}

func TestCleanerUnescapesEntities(t *testing.T) {
	cleaner := NewCleaner()

	result := cleaner.Run("Ben &amp; Jerry&#39;s", 0)
	if result != "Ben & Jerry's" {
		t.Errorf("Expected entities unescaped, got: %s", result)
	}
}

func TestCleanerCollapsesWhitespace(t *testing.T) {
	cleaner := NewCleaner()

	result := cleaner.Run("too    many\n\n\tspaces", 0)
	if result != "too many spaces" {
		t.Errorf("Expected collapsed whitespace, got: %s", result)
	}
}

func TestCleanerRemovesJunkSuffixes(t *testing.T) {
	cleaner := NewCleaner()

	tests := []struct {
		input    string
		expected string
	}{
		{"Great analysis here. Read more at the site", "Great analysis here."},
		{"Solid piece. Continue reading on the blog", "Solid piece."},
		{"An update [sponsored] on funding", "An update  on funding"},
	}

	for _, tt := range tests {
		result := cleaner.Run(tt.input, 0)
		if result != tt.expected {
			t.Errorf("Input %q: expected %q, got: %q", tt.input, tt.expected, result)
		}
	}
}

func TestCleanerTruncatesLongText(t *testing.T) {
	cleaner := NewCleaner()

	long := strings.Repeat("word ", 200)
	result := cleaner.Run(long, 50)

	if !strings.HasSuffix(result, "...") {
		t.Errorf("Expected truncated text to end with ellipsis, got: %s", result)
	}
	if len([]rune(result)) > 53 {
		t.Errorf("Expected at most 53 runes, got: %d", len([]rune(result)))
	}
}

func TestCleanerEmptyInput(t *testing.T) {
	cleaner := NewCleaner()

	if result := cleaner.Run("", 0); result != "" {
		t.Errorf("Expected empty result for empty input, got: %s", result)
	}
}
