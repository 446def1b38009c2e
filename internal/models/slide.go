package models

import "strings"

// BulletGlyph prefixes every content line written into a slide.
const BulletGlyph = "• "

// SlideRecord is one slide produced by the structuring service.
type SlideRecord struct {
	SlideNumber int      `json:"slideNumber"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Content     []string `json:"content"`
}

// BulletText renders the content lines as glyph-prefixed, newline-joined text.
func (s SlideRecord) BulletText() string {
	if len(s.Content) == 0 {
		return ""
	}
	lines := make([]string, len(s.Content))
	for i, line := range s.Content {
		lines[i] = BulletGlyph + line
	}
	return strings.Join(lines, "\n")
}

// Renumber overwrites SlideNumber with the 1-based position and normalizes nil content.
func Renumber(slides []SlideRecord) []SlideRecord {
	for i := range slides {
		slides[i].SlideNumber = i + 1
		if slides[i].Content == nil {
			slides[i].Content = []string{}
		}
	}
	return slides
}
