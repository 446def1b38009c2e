package structuring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"pdf2slides/internal/apperr"
	"pdf2slides/internal/models"
)

const instructions = `Analyze this text and return a structured JSON for PowerPoint slides.
- Each slide must have a "slideNumber".
- Each slide must have a "title".
- Each slide may have a "subtitle" (if applicable).
- Each slide must have "content" as bullet points.
- Each point should have at least 10 - 15 words.
- Ensure content fits within a slide (max 300 characters).
- The number of slides should be appropriate for the given text.
Return only the JSON array.

Input Text:

`

var (
	leadingFence  = regexp.MustCompile("^\\s*```[a-zA-Z]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// ChatModel is the slice of an eino chat model the service needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Service turns extracted text into slide records with one completion call.
type Service struct {
	model  ChatModel
	logger logrus.FieldLogger
}

func NewService(chatModel ChatModel, logger logrus.FieldLogger) *Service {
	return &Service{model: chatModel, logger: logger}
}

// BuildPrompt returns the full instruction sent for text.
func BuildPrompt(text string) string {
	return instructions + text
}

// Structure asks the model for slides describing text.
func (s *Service) Structure(ctx context.Context, text string) ([]models.SlideRecord, error) {
	if s.model == nil {
		return nil, apperr.Structuring("structuring model unavailable", nil)
	}
	resp, err := s.model.Generate(ctx, []*schema.Message{schema.UserMessage(BuildPrompt(text))})
	if err != nil {
		s.logger.WithError(err).Error("structuring completion failed")
		return nil, apperr.Structuring("failed to generate slides", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, apperr.Structuring("model returned an empty completion", nil)
	}
	s.logger.WithField("chars", len(resp.Content)).Debug("structuring completion received")

	slides, err := ParseSlides(resp.Content)
	if err != nil {
		s.logger.WithError(err).Warn("structuring completion could not be parsed")
		return nil, err
	}
	return slides, nil
}

type rawSlide struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Content  json.RawMessage `json:"content"`
}

// ParseSlides strips code fences from a completion and decodes its JSON array.
// slideNumber is always reassigned from position.
func ParseSlides(completion string) ([]models.SlideRecord, error) {
	body := StripFences(completion)
	if !strings.HasPrefix(body, "[") {
		return nil, apperr.Structuring("model output is not a JSON array", errors.New(preview(body)))
	}
	var raw []rawSlide
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, apperr.Structuring("model output is not valid JSON", err)
	}
	if len(raw) == 0 {
		return nil, apperr.Structuring("model returned no slides", nil)
	}
	slides := make([]models.SlideRecord, 0, len(raw))
	for i, r := range raw {
		content, err := decodeContent(r.Content)
		if err != nil {
			return nil, apperr.Structuring(fmt.Sprintf("slide %d has malformed content", i+1), err)
		}
		slides = append(slides, models.SlideRecord{
			Title:    r.Title,
			Subtitle: r.Subtitle,
			Content:  content,
		})
	}
	return models.Renumber(slides), nil
}

// StripFences removes a leading ```lang and trailing ``` marker.
func StripFences(s string) string {
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// decodeContent accepts a list of bullets, a single string, or nothing.
func decodeContent(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []string{}, nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var line string
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, err
		}
		return []string{line}, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func preview(s string) string {
	const max = 80
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
