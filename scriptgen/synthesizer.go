package scriptgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/llm"
	"newsshorts/logger"
	"newsshorts/retry"
	"newsshorts/types"
)

// Synthesizer turns the final article set into narration scripts.
type Synthesizer struct {
	generator  llm.Generator
	policy     retry.Policy
	expressive bool
	log        logrus.FieldLogger
}

// NewSynthesizer creates a synthesizer. expressive asks the model for
// bracketed emotion cues and should follow the narrator's capability.
func NewSynthesizer(generator llm.Generator, policy retry.Policy, expressive bool, log logrus.FieldLogger) *Synthesizer {
	return &Synthesizer{
		generator:  generator,
		policy:     policy,
		expressive: expressive,
		log:        logger.OrDiscard(log),
	}
}

// CraftScript writes the English monologue and returns it as ordered segments.
func (s *Synthesizer) CraftScript(ctx context.Context, articles []types.Article) ([]string, error) {
	return s.CraftLanguageScript(ctx, "en", articles)
}

// CraftLanguageScript writes the monologue in language and returns ordered
// segments. A reply that is not the requested JSON shape is sentence-split.
func (s *Synthesizer) CraftLanguageScript(ctx context.Context, language string, articles []types.Article) ([]string, error) {
	log := s.log.WithField("language", language)
	log.Info("Crafting & segmenting script")

	if len(articles) == 0 {
		log.Warn("No articles to script")
		return []string{}, nil
	}

	req := llm.Request{
		System:      scriptSystemPrompt(language, s.expressive),
		User:        scriptUserMessage(articles),
		Temperature: scriptTemperature,
	}
	content, err := retry.Do(ctx, s.policy, "craft script "+language, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("script synthesis (%s): %w", language, err)
	}

	seg := ParseSegments(content)
	segments := seg.Result()
	if seg.Kind == Unparsed {
		log.Warnf("Segmentation JSON parse failed (%s), falling back to sentences", seg.Reason)
	}
	log.WithFields(logrus.Fields{
		"segments": len(segments),
		"result":   seg.Kind.String(),
	}).Info("✓ Script segmented")

	return segments, nil
}

// CraftDailySummary returns a neutral single-paragraph summary of the top
// articles.
func (s *Synthesizer) CraftDailySummary(ctx context.Context, articles []types.Article) (string, error) {
	s.log.Info("Crafting daily summary")

	if len(articles) == 0 {
		s.log.Warn("No articles to summarize")
		return "", nil
	}

	req := llm.Request{
		System:      summarySystemPrompt,
		User:        summaryUserMessage(articles, config.SummaryArticleLimit),
		Temperature: summaryTemperature,
	}
	content, err := retry.Do(ctx, s.policy, "daily summary", func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("daily summary: %w", err)
	}

	s.log.Info("✓ Summary crafted")
	return strings.TrimSpace(content), nil
}

// CraftBundle produces the primary script, the optional second-language
// script and the optional summary from the same articles.
func (s *Synthesizer) CraftBundle(ctx context.Context, articles []types.Article, languages []string, withSummary bool) (types.ScriptBundle, error) {
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	bundle := types.ScriptBundle{Language: languages[0]}

	primary, err := s.CraftLanguageScript(ctx, languages[0], articles)
	if err != nil {
		return bundle, err
	}
	bundle.Primary = primary

	if len(languages) > 1 {
		secondary, err := s.CraftLanguageScript(ctx, languages[1], articles)
		if err != nil {
			return bundle, err
		}
		bundle.SecondaryLanguage = languages[1]
		bundle.Secondary = secondary
	}

	if withSummary {
		summary, err := s.CraftDailySummary(ctx, articles)
		if err != nil {
			return bundle, err
		}
		bundle.Summary = summary
	}

	return bundle, nil
}
