package cache

import (
	"time"

	"github.com/allegro/bigcache"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/statlas/densitree/log"
)

type BigCache struct {
	cached *bigcache.BigCache

	gets metrics.Timer
	puts metrics.Timer
}

func NewBigCache(maxEntries, maxEntrySize int64) *BigCache {
	config := bigcache.DefaultConfig(10 * time.Minute)
	config.MaxEntriesInWindow = int(maxEntries)
	config.MaxEntrySize = int(maxEntrySize)
	config.HardMaxCacheSize = int(maxEntries) * 100
	config.CleanWindow = -1
	cache, err := bigcache.NewBigCache(config)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	gets := metrics.NewTimer()
	puts := metrics.NewTimer()
	metrics.GetOrRegister("cache.gets", gets)
	metrics.GetOrRegister("cache.puts", puts)
	return &BigCache{cached: cache, gets: gets, puts: puts}
}

func (c BigCache) Get(key []byte) ([]byte, bool) {
	ts := time.Now()
	value, err := c.cached.Get(string(key))
	c.gets.UpdateSince(ts)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *BigCache) Put(key, value []byte) {
	ts := time.Now()
	c.cached.Set(string(key), value)
	c.puts.UpdateSince(ts)
}

func (c *BigCache) Fill(r EntryReader) error {
	defer r.Close()
	for {
		entries := make([]*Entry, 100)
		n, err := r.Read(entries)
		if err != nil || n == 0 {
			break
		}
		for _, entry := range entries {
			if entry != nil {
				c.cached.Set(string(entry.Key), entry.Value)
			}
		}
	}
	return nil
}

func (c BigCache) Size() int {
	return c.cached.Len()
}
