package extract

import (
	"container/list"
	"sync"
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// cacheKey is (page_url_without_query, container_identity, extraction_type)
// per spec.md §4.C; extraction_type is always "all" in this design since
// the extractor always produces a full MetadataRecord.
type cacheKey struct {
	pageURL     string
	containerID string
}

type cacheEntry struct {
	key     cacheKey
	record  models.MetadataRecord
	expires time.Time
}

// lruCache is a fixed-capacity, TTL-expiring cache keyed by cacheKey. Only
// results with confidence >= the configured floor are ever stored (spec.md
// §4.C: "Serve cached results only if confidence >= 0.7").
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	floor    float64
	order    *list.List // front = most recently used
	items    map[cacheKey]*list.Element
}

func newLRUCache(capacity int, ttl time.Duration, floor float64) *lruCache {
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		floor:    floor,
		order:    list.New(),
		items:    make(map[cacheKey]*list.Element),
	}
}

func (c *lruCache) get(key cacheKey) (models.MetadataRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return models.MetadataRecord{}, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expires) {
		c.order.Remove(el)
		delete(c.items, key)
		return models.MetadataRecord{}, false
	}
	c.order.MoveToFront(el)
	return entry.record, true
}

func (c *lruCache) put(key cacheKey, record models.MetadataRecord) {
	if record.Confidence < c.floor {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).record = record
		el.Value.(*cacheEntry).expires = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	entry := &cacheEntry{key: key, record: record, expires: time.Now().Add(c.ttl)}
	el := c.order.PushFront(entry)
	c.items[key] = el

	if c.capacity > 0 {
		for c.order.Len() > c.capacity {
			oldest := c.order.Back()
			if oldest == nil {
				break
			}
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}
