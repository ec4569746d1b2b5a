package filtering

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/embeddings"
	"newsshorts/logger"
	"newsshorts/retry"
	"newsshorts/types"
)

// scored is an article with its score for the current stage only.
type scored struct {
	article types.Article
	score   float64
}

// SemanticFilter ranks articles by embedding similarity to an anchor text.
type SemanticFilter struct {
	embedder embeddings.Provider
	anchor   string
	policy   retry.Policy
	log      logrus.FieldLogger
}

func NewSemanticFilter(embedder embeddings.Provider, anchor string, policy retry.Policy, log logrus.FieldLogger) *SemanticFilter {
	if anchor == "" {
		anchor = config.DefaultAnchorText
	}
	return &SemanticFilter{
		embedder: embedder,
		anchor:   anchor,
		policy:   policy,
		log:      logger.OrDiscard(log),
	}
}

// FilterStage1 returns the topK articles most similar to the anchor, most
// similar first. Ties keep input order. Embedding failures are returned.
func (f *SemanticFilter) FilterStage1(ctx context.Context, articles []types.Article, topK int) ([]types.Article, error) {
	f.log.Info("Phase 1: Semantic filtering via embeddings")

	if len(articles) == 0 || topK <= 0 {
		return []types.Article{}, nil
	}

	texts := make([]string, 0, len(articles)+1)
	texts = append(texts, f.anchor)
	for _, a := range articles {
		texts = append(texts, a.EmbeddingText())
	}

	vecs, err := retry.Do(ctx, f.policy, "embeddings", func(ctx context.Context) ([][]float32, error) {
		return f.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("semantic filter: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("semantic filter: %w: sent %d, got %d", embeddings.ErrCountMismatch, len(texts), len(vecs))
	}

	anchorVec := vecs[0]
	ranked := make([]scored, len(articles))
	for i, a := range articles {
		ranked[i] = scored{article: a, score: CosineSimilarity(vecs[i+1], anchorVec)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	kept := make([]types.Article, 0, min(topK, len(ranked)))
	for _, r := range ranked[:min(topK, len(ranked))] {
		kept = append(kept, r.article)
	}

	f.log.WithField("count", len(kept)).Info("Kept top articles after embedding filter")
	logSample(f.log, kept)
	return kept, nil
}

func logSample(log logrus.FieldLogger, articles []types.Article) {
	for _, a := range articles[:min(5, len(articles))] {
		log.Debugf("   • [%s] %s", a.Source, a.Title)
	}
}
