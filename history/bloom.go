package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/logger"
	"newsshorts/types"
)

const bloomErrorRate = 0.001

// bloomClient is the subset of RedisBloom commands the history needs.
type bloomClient interface {
	BFMExists(ctx context.Context, key string, elements ...interface{}) *redis.BoolSliceCmd
	BFMAdd(ctx context.Context, key string, elements ...interface{}) *redis.BoolSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// BloomHistory remembers published articles in a RedisBloom filter so
// later runs can skip stories that already made it into a video.
type BloomHistory struct {
	client bloomClient
	closer func() error
	key    string
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewBloomHistory connects to cfg.RedisURL and reserves the filter if it
// does not exist yet.
func NewBloomHistory(ctx context.Context, cfg config.HistoryConfig, log logrus.FieldLogger) (*BloomHistory, error) {
	log = logger.OrDiscard(log)

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	// BF.ADD auto-creates the filter with server defaults if this fails
	exists, err := client.Exists(pingCtx, cfg.Key).Result()
	if err == nil && exists == 0 && cfg.Capacity > 0 {
		if err := client.BFReserve(pingCtx, cfg.Key, bloomErrorRate, cfg.Capacity).Err(); err != nil {
			log.WithError(err).Warn("BF.RESERVE failed, relying on auto-created filter")
		}
	}

	h := newBloomHistory(client, cfg.Key, cfg.TTL, log)
	h.closer = client.Close
	return h, nil
}

func newBloomHistory(client bloomClient, key string, ttl time.Duration, log logrus.FieldLogger) *BloomHistory {
	return &BloomHistory{
		client: client,
		key:    key,
		ttl:    ttl,
		log:    logger.OrDiscard(log),
	}
}

// Close closes the underlying Redis client
func (h *BloomHistory) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

// Unseen drops articles already remembered by an earlier run. If Redis
// cannot be queried the input is returned unchanged.
func (h *BloomHistory) Unseen(ctx context.Context, articles []types.Article) []types.Article {
	if len(articles) == 0 {
		return articles
	}

	hashes := make([]interface{}, len(articles))
	for i, a := range articles {
		hashes[i] = NormalizeAndHash(a)
	}

	seen, err := h.client.BFMExists(ctx, h.key, hashes...).Result()
	if err != nil || len(seen) != len(articles) {
		h.log.WithError(err).Warn("History lookup failed, keeping all articles")
		return articles
	}

	fresh := make([]types.Article, 0, len(articles))
	for i, a := range articles {
		if !seen[i] {
			fresh = append(fresh, a)
		}
	}
	if skipped := len(articles) - len(fresh); skipped > 0 {
		h.log.WithField("skipped", skipped).Info("Skipped previously published articles")
	}
	return fresh
}

// Remember adds articles to the filter and slides the key's TTL forward.
func (h *BloomHistory) Remember(ctx context.Context, articles []types.Article) error {
	if len(articles) == 0 {
		return nil
	}
	hashes := make([]interface{}, len(articles))
	for i, a := range articles {
		hashes[i] = NormalizeAndHash(a)
	}

	if err := h.client.BFMAdd(ctx, h.key, hashes...).Err(); err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	if h.ttl > 0 {
		if err := h.client.Expire(ctx, h.key, h.ttl).Err(); err != nil {
			return fmt.Errorf("history expire: %w", err)
		}
	}
	return nil
}

// NormalizeAndHash returns sha256(normalizedURL + "|" + normalizedTitle).
// URLs lose fragments and tracking parameters; titles are lowercased with
// whitespace collapsed.
func NormalizeAndHash(a types.Article) string {
	combined := normalizeURL(a.Link) + "|" + normalizeTitle(a.Title)
	h := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(h[:])
}

func normalizeTitle(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return strings.TrimRight(u.String(), "/")
}
