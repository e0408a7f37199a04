package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

const (
	viewKeyPrefix     = "dashboard:view"
	viewScanBatchSize = 100
)

// ViewCache stores rendered views per snapshot, tab and filter.
type ViewCache interface {
	GetView(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter) (*domain.View, bool, error)
	SetView(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter, view *domain.View) error
	InvalidateSnapshot(ctx context.Context, snapshotID string) error
}

type redisViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopViewCache struct{}

// NewViewCache returns a Redis-backed cache over client when caching is
// enabled, and a no-op cache otherwise.
func NewViewCache(cfg config.CacheConfig, client *redis.Client) ViewCache {
	if !cfg.Enabled || client == nil {
		return &noopViewCache{}
	}
	return NewRedisViewCache(client, viewTTL(cfg))
}

// NewRedisViewCache wraps an existing client.
func NewRedisViewCache(client *redis.Client, ttl time.Duration) ViewCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisViewCache{
		client: client,
		ttl:    ttl,
	}
}

func NewNoopViewCache() ViewCache {
	return &noopViewCache{}
}

func (c *redisViewCache) GetView(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter) (*domain.View, bool, error) {
	key := buildViewKey(snapshotID, tab, filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var view domain.View
	if err := json.Unmarshal(payload, &view); err != nil {
		return nil, false, fmt.Errorf("decode view cache: %w", err)
	}

	return &view, true, nil
}

func (c *redisViewCache) SetView(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter, view *domain.View) error {
	key := buildViewKey(snapshotID, tab, filter)
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisViewCache) InvalidateSnapshot(ctx context.Context, snapshotID string) error {
	removed, err := purgeSnapshotViews(ctx, c.client, snapshotID)
	if err != nil {
		return err
	}
	log.Debug().Str("snapshot_id", snapshotID).Int("views", removed).Msg("view cache invalidated")
	return nil
}

func (n *noopViewCache) GetView(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter) (*domain.View, bool, error) {
	return nil, false, nil
}

func (n *noopViewCache) SetView(ctx context.Context, snapshotID string, tab domain.Tab, filter domain.Filter, view *domain.View) error {
	return nil
}

func (n *noopViewCache) InvalidateSnapshot(ctx context.Context, snapshotID string) error {
	return nil
}

func snapshotKeyPrefix(snapshotID string) string {
	return fmt.Sprintf("%s:%s:", viewKeyPrefix, snapshotID)
}

func buildViewKey(snapshotID string, tab domain.Tab, filter domain.Filter) string {
	return fmt.Sprintf("%s%s:%s", snapshotKeyPrefix(snapshotID), tab, filterHash(filter))
}

// filterHash normalizes the filter so equivalent filter bars share an entry.
func filterHash(filter domain.Filter) string {
	parts := []string{
		"window=" + strconv.Itoa(filter.WindowDays),
		"top_n=" + strconv.Itoa(filter.TopN),
		"sort=" + string(filter.Sort),
		"expiration=" + strconv.Itoa(int(filter.Expiration)),
		"on_hand_gt_zero=" + strconv.FormatBool(filter.OnHandGtZero),
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		parts = append(parts, "search="+search)
	}
	if !domain.IsAny(filter.Category) {
		parts = append(parts, "category="+strings.ToLower(strings.TrimSpace(filter.Category)))
	}
	if !domain.IsAny(filter.Subcategory) {
		parts = append(parts, "subcategory="+strings.ToLower(strings.TrimSpace(filter.Subcategory)))
	}
	if !domain.IsAny(filter.Vendor) {
		parts = append(parts, "vendor="+strings.ToLower(strings.TrimSpace(filter.Vendor)))
	}
	if filter.DOHMin != nil {
		parts = append(parts, "doh_min="+strconv.FormatFloat(*filter.DOHMin, 'f', -1, 64))
	}
	if filter.DOHMax != nil {
		parts = append(parts, "doh_max="+strconv.FormatFloat(*filter.DOHMax, 'f', -1, 64))
	}
	if filter.AsOf != nil {
		parts = append(parts, "as_of="+filter.AsOf.Format("2006-01-02"))
	}

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
