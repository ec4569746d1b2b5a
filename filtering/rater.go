package filtering

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"newsshorts/llm"
	"newsshorts/logger"
	"newsshorts/retry"
	"newsshorts/types"
)

const raterSystemPrompt = "You are a news editor. Rate each of the following article headlines+summaries " +
	"on a scale 1 (least) to 10 (most) for newsworthiness. " +
	"Reply in JSON as a list of {\"index\": <i>, \"score\": <0-10>}"

type rating struct {
	Index int
	Score float64
}

// Rater asks a chat model to score newsworthiness and keeps the best.
type Rater struct {
	generator llm.Generator
	policy    retry.Policy
	log       logrus.FieldLogger
}

func NewRater(generator llm.Generator, policy retry.Policy, log logrus.FieldLogger) *Rater {
	return &Rater{
		generator: generator,
		policy:    policy,
		log:       logger.OrDiscard(log),
	}
}

// FilterStage2 returns up to topK articles ordered by the model's score,
// highest first. If the reply cannot be parsed or rates no valid article it
// returns the first topK articles in input order. Transport failures are returned.
func (r *Rater) FilterStage2(ctx context.Context, articles []types.Article, topK int) ([]types.Article, error) {
	r.log.Info("Phase 2: rating newsworthiness")

	if len(articles) == 0 || topK <= 0 {
		return []types.Article{}, nil
	}

	req := llm.Request{
		System:      raterSystemPrompt,
		User:        ratingPayload(articles),
		Temperature: 0,
	}
	content, err := retry.Do(ctx, r.policy, "rate articles", func(ctx context.Context) (string, error) {
		return r.generator.Generate(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("newsworthiness rater: %w", err)
	}

	ratings, ok := parseRatings(content)
	if !ok {
		r.log.Warn("Could not parse ratings JSON, skipping Phase 2")
		return firstK(articles, topK), nil
	}

	kept := selectRated(articles, ratings, topK, r.log)
	if len(kept) == 0 {
		r.log.Warn("No rating matched an article, skipping Phase 2")
		return firstK(articles, topK), nil
	}
	r.log.WithField("count", len(kept)).Info("Kept top articles after rating")
	logSample(r.log, kept)
	return kept, nil
}

func ratingPayload(articles []types.Article) string {
	lines := make([]string, len(articles))
	for i, a := range articles {
		lines[i] = fmt.Sprintf("%d. %s — %s", i, a.Title, a.Summary)
	}
	return strings.Join(lines, "\n")
}

// parseRatings decodes a JSON list of {index, score}. ok is false when the
// reply is not that shape, is null, or is an empty list.
func parseRatings(content string) (ratings []rating, ok bool) {
	raw := llm.StripCodeFence(content)

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}

	ratings = make([]rating, 0, len(items))
	for _, item := range items {
		idxRaw, hasIdx := item["index"]
		scoreRaw, hasScore := item["score"]
		if !hasIdx || !hasScore {
			return nil, false
		}
		var idx, score float64
		if err := json.Unmarshal(idxRaw, &idx); err != nil || idx != math.Trunc(idx) {
			return nil, false
		}
		if err := json.Unmarshal(scoreRaw, &score); err != nil {
			return nil, false
		}
		ratings = append(ratings, rating{Index: int(idx), Score: score})
	}
	return ratings, true
}

func firstK(articles []types.Article, topK int) []types.Article {
	return append([]types.Article{}, articles[:min(topK, len(articles))]...)
}

// selectRated sorts by score (stable) and maps the first topK valid indices
// back to articles.
func selectRated(articles []types.Article, ratings []rating, topK int, log logrus.FieldLogger) []types.Article {
	sort.SliceStable(ratings, func(i, j int) bool { return ratings[i].Score > ratings[j].Score })

	seen := make(map[int]bool)
	kept := make([]types.Article, 0, min(topK, len(articles)))
	for _, rt := range ratings {
		if len(kept) == topK {
			break
		}
		if rt.Index < 0 || rt.Index >= len(articles) || seen[rt.Index] {
			log.WithField("index", rt.Index).Warn("ignoring invalid rating index")
			continue
		}
		seen[rt.Index] = true
		kept = append(kept, articles[rt.Index])
	}
	return kept
}
