package commands

import (
	"sync"
	"time"
)

type CacheItem struct {
	ChartData  []byte
	Caption    string
	Expiration time.Time
}

var (
	chartCache   = make(map[string]*CacheItem)
	chartCacheMu sync.Mutex
)

func cacheGet(key string) (*CacheItem, bool) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()

	if item, found := chartCache[key]; found && time.Now().Before(item.Expiration) {
		return item, true
	}
	return nil, false
}

func cacheSet(key string, chartData []byte, caption string, duration time.Duration) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()

	for k, item := range chartCache {
		if time.Now().After(item.Expiration) {
			delete(chartCache, k)
		}
	}
	chartCache[key] = &CacheItem{
		ChartData:  chartData,
		Caption:    caption,
		Expiration: time.Now().Add(duration),
	}
}
