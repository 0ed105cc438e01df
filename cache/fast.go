package cache

import (
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/coocood/freecache"
	metrics "github.com/rcrowley/go-metrics"
)

type FastCache struct {
	cached *fastcache.Cache

	gets metrics.Timer
	puts metrics.Timer
}

func NewFastCache(maxBytes int64) *FastCache {
	cache := fastcache.New(int(maxBytes))
	gets := metrics.NewTimer()
	puts := metrics.NewTimer()
	metrics.GetOrRegister("cache.gets", gets)
	metrics.GetOrRegister("cache.puts", puts)
	return &FastCache{cached: cache, gets: gets, puts: puts}
}

func (c FastCache) Get(key []byte) ([]byte, bool) {
	ts := time.Now()
	value := c.cached.Get(nil, key)
	c.gets.UpdateSince(ts)
	if value == nil {
		return nil, false
	}
	return value, true
}

func (c *FastCache) Put(key, value []byte) {
	ts := time.Now()
	c.cached.Set(key, value)
	c.puts.UpdateSince(ts)
}

func (c *FastCache) Fill(r EntryReader) error {
	defer r.Close()
	for {
		entries := make([]*Entry, 100)
		n, err := r.Read(entries)
		if err != nil || n == 0 {
			break
		}
		for _, entry := range entries {
			if entry != nil {
				c.cached.Set(entry.Key, entry.Value)
			}
		}
	}
	return nil
}

func (c FastCache) Size() int {
	var s fastcache.Stats
	c.cached.UpdateStats(&s)
	return int(s.EntriesCount)
}

type FreeCache struct {
	cached *freecache.Cache

	gets metrics.Timer
	puts metrics.Timer
}

func NewFreeCache(initialSize int) *FreeCache {
	cache := freecache.NewCache(initialSize)
	gets := metrics.NewTimer()
	puts := metrics.NewTimer()
	metrics.GetOrRegister("cache.gets", gets)
	metrics.GetOrRegister("cache.puts", puts)
	return &FreeCache{cached: cache, gets: gets, puts: puts}
}

func (c FreeCache) Get(key []byte) ([]byte, bool) {
	ts := time.Now()
	value, err := c.cached.Get(key)
	c.gets.UpdateSince(ts)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *FreeCache) Put(key, value []byte) {
	ts := time.Now()
	c.cached.Set(key, value, 0)
	c.puts.UpdateSince(ts)
}

func (c *FreeCache) Fill(r EntryReader) error {
	defer r.Close()
	for {
		entries := make([]*Entry, 100)
		n, err := r.Read(entries)
		if err != nil || n == 0 {
			break
		}
		for _, entry := range entries {
			if entry != nil {
				c.cached.Set(entry.Key, entry.Value, 0)
			}
		}
	}
	return nil
}

func (c FreeCache) Size() int {
	return int(c.cached.EntryCount())
}
