package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"

	"stocksignal-api/internal/config"
	"stocksignal-api/internal/models"
)

// Generic in-memory cache with type safety
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*cacheItem[V]
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items: make(map[K]*cacheItem[V]),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	go c.cleanup(5 * time.Minute)

	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiration) {
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem[V]{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Purge drops every entry and returns how many were held.
func (c *Cache[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[K]*cacheItem[V])
	return n
}

// Close stops the cleanup goroutine.
func (c *Cache[K, V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[K, V]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Cache[K, V]) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}

// CacheService keeps provider responses in memory and, when a Firestore
// project is configured, in a shared Firestore collection.
type CacheService struct {
	ttl             time.Duration
	collection      string
	firestoreClient *firestore.Client
	historyCache    *Cache[string, *models.History]
	quoteCache      *Cache[string, *models.Quote]
	log             zerolog.Logger
	rec             Recorder
}

func NewCacheService(ctx context.Context, cfg config.CacheConfig, log zerolog.Logger, rec Recorder) *CacheService {
	s := &CacheService{
		ttl:          cfg.TTL,
		collection:   cfg.FirestoreCollection,
		historyCache: NewCache[string, *models.History](cfg.TTL),
		quoteCache:   NewCache[string, *models.Quote](cfg.TTL),
		log:          log,
		rec:          recorderOrNop(rec),
	}

	if cfg.FirestoreProject == "" || cfg.TTL <= 0 {
		return s
	}

	client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
	if err != nil {
		// fall back to in-memory only
		log.Warn().Err(err).Str("project", cfg.FirestoreProject).Msg("failed to initialize Firestore")
		return s
	}
	s.firestoreClient = client
	return s
}

// GetHistory retrieves a daily series from cache
func (s *CacheService) GetHistory(ctx context.Context, symbol string) (*models.History, bool) {
	if h, found := s.historyCache.Get(symbol); found {
		s.rec.CacheLookup("memory", true)
		return h, true
	}
	s.rec.CacheLookup("memory", false)

	if s.firestoreClient == nil {
		return nil, false
	}

	var h models.History
	if !s.readDoc(ctx, historyDocID(symbol), &h) || time.Since(h.FetchedAt) >= s.ttl || len(h.Bars) == 0 {
		s.rec.CacheLookup("firestore", false)
		return nil, false
	}
	s.rec.CacheLookup("firestore", true)
	s.historyCache.Set(symbol, &h)
	return &h, true
}

// SetHistory stores a daily series in cache
func (s *CacheService) SetHistory(ctx context.Context, symbol string, h *models.History) error {
	s.historyCache.Set(symbol, h)
	return s.writeDoc(ctx, historyDocID(symbol), h)
}

// GetQuote retrieves a quote from cache
func (s *CacheService) GetQuote(ctx context.Context, symbol string) (*models.Quote, bool) {
	if q, found := s.quoteCache.Get(symbol); found {
		s.rec.CacheLookup("memory", true)
		return q, true
	}
	s.rec.CacheLookup("memory", false)

	if s.firestoreClient == nil {
		return nil, false
	}

	var q models.Quote
	if !s.readDoc(ctx, quoteDocID(symbol), &q) || time.Since(q.LastUpdated) >= s.ttl {
		s.rec.CacheLookup("firestore", false)
		return nil, false
	}
	s.rec.CacheLookup("firestore", true)
	s.quoteCache.Set(symbol, &q)
	return &q, true
}

// SetQuote stores a quote in cache
func (s *CacheService) SetQuote(ctx context.Context, symbol string, q *models.Quote) error {
	s.quoteCache.Set(symbol, q)
	return s.writeDoc(ctx, quoteDocID(symbol), q)
}

func (s *CacheService) readDoc(ctx context.Context, id string, dst any) bool {
	doc, err := s.firestoreClient.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		return false
	}
	if err := doc.DataTo(dst); err != nil {
		s.log.Warn().Err(err).Str("doc", id).Msg("discarding unreadable cache document")
		return false
	}
	return true
}

func (s *CacheService) writeDoc(ctx context.Context, id string, v any) error {
	if s.firestoreClient == nil {
		return nil
	}
	_, err := s.firestoreClient.Collection(s.collection).Doc(id).Set(ctx, v)
	return err
}

// Firestore document IDs may not contain '/'.
func historyDocID(symbol string) string {
	return "history_" + strings.ReplaceAll(symbol, "/", "_")
}

func quoteDocID(symbol string) string {
	return "quote_" + strings.ReplaceAll(symbol, "/", "_")
}

// Ready reports whether the optional Firestore layer is reachable.
func (s *CacheService) Ready(ctx context.Context) error {
	if s.firestoreClient == nil {
		return nil
	}
	_, err := s.firestoreClient.Collection(s.collection).Limit(1).Documents(ctx).GetAll()
	return err
}

// FirestoreEnabled reports whether the Firestore layer is active.
func (s *CacheService) FirestoreEnabled() bool {
	return s.firestoreClient != nil
}

// Purge clears the in-memory layer. Firestore documents expire on their own
// through FetchedAt/LastUpdated.
func (s *CacheService) Purge() int {
	return s.historyCache.Purge() + s.quoteCache.Purge()
}

// Close stops the in-memory caches and closes the Firestore client
func (s *CacheService) Close() error {
	s.historyCache.Close()
	s.quoteCache.Close()
	if s.firestoreClient != nil {
		return s.firestoreClient.Close()
	}
	return nil
}
