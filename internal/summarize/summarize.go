// Package summarize condenses article bodies into short summaries.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// DefaultMaxWords is the target summary length.
const DefaultMaxWords = 60

// Config controls the summarization service.
type Config struct {
	Model     string
	ServerURL string
	MaxWords  int
}

// textGenerator is the slice of the LLM surface the service needs.
type textGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ollamaGenerator struct {
	llm *ollama.LLM
}

func (g ollamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return out, nil
}

// Service implements news.Summarizer. When no model backend is reachable it
// degrades to an extractive lead-sentence summary so the pipeline never
// blocks on the model.
type Service struct {
	gen      textGenerator
	maxWords int
	logger   *zap.Logger
}

// New builds the service. A failed model connection is logged and the
// extractive fallback takes over.
func New(cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = DefaultMaxWords
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{maxWords: cfg.MaxWords, logger: logger}

	if cfg.Model != "" {
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			logger.Warn("summarization model unavailable, using extractive fallback",
				zap.String("model", cfg.Model), zap.Error(err))
		} else {
			s.gen = ollamaGenerator{llm: llm}
			logger.Info("summarization model ready", zap.String("model", cfg.Model))
		}
	}
	return s
}

// Summarize returns a summary of at most MaxWords words. Content shorter
// than the budget is returned verbatim (after HTML stripping).
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	text := stripHTML(content)
	if text == "" {
		return "", nil
	}

	words := strings.Fields(text)
	if len(words) <= s.maxWords {
		return text, nil
	}

	if s.gen != nil {
		prompt := fmt.Sprintf(
			"Summarize the following news article in at most %d words. Reply with the summary only.\n\n%s",
			s.maxWords, text,
		)
		out, err := s.gen.Generate(ctx, prompt)
		if err == nil {
			if summary := strings.TrimSpace(out); summary != "" {
				return summary, nil
			}
		} else {
			s.logger.Warn("abstractive summary failed, using extractive fallback", zap.Error(err))
		}
	}

	return leadSentences(text, s.maxWords), nil
}

// stripHTML extracts visible text from markup and normalizes whitespace.
// Plain text passes through untouched apart from whitespace normalization.
func stripHTML(content string) string {
	text := content
	if strings.Contains(content, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err == nil {
			doc.Find("script, style, noscript").Remove()
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// leadSentences takes whole sentences from the front of the text until the
// word budget is hit. The first sentence is always included.
func leadSentences(text string, maxWords int) string {
	sentences := splitSentences(text)
	var (
		out   []string
		count int
	)
	for i, sentence := range sentences {
		n := len(strings.Fields(sentence))
		if i > 0 && count+n > maxWords {
			break
		}
		out = append(out, sentence)
		count += n
	}
	return strings.Join(out, " ")
}

func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Sentence boundary only when followed by a space or end of text.
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
