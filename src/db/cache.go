package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Cache keys are tracked per kind so a write to rules, categories or
// transactions can clear every cached read of that kind in one sweep.
var (
	Cache         *ristretto.Cache
	RuleCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	CategoryCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	TransactionCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

// Rule Cache Functions
func SetRuleCache(cacheKey string, value interface{}) {
	RuleCacheKeys.Lock()
	RuleCacheKeys.m[cacheKey] = struct{}{}
	RuleCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllRuleCaches() {
	RuleCacheKeys.Lock()
	for key := range RuleCacheKeys.m {
		Cache.Del(key)
	}
	RuleCacheKeys.m = make(map[string]struct{})
	RuleCacheKeys.Unlock()
}

// Category Cache Functions
func SetCategoryCache(cacheKey string, value interface{}) {
	CategoryCacheKeys.Lock()
	CategoryCacheKeys.m[cacheKey] = struct{}{}
	CategoryCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllCategoryCaches() {
	CategoryCacheKeys.Lock()
	for key := range CategoryCacheKeys.m {
		Cache.Del(key)
	}
	CategoryCacheKeys.m = make(map[string]struct{})
	CategoryCacheKeys.Unlock()
}

// Transaction Cache Functions
func SetTransactionCache(cacheKey string, value interface{}) {
	TransactionCacheKeys.Lock()
	TransactionCacheKeys.m[cacheKey] = struct{}{}
	TransactionCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllTransactionCaches() {
	TransactionCacheKeys.Lock()
	for key := range TransactionCacheKeys.m {
		Cache.Del(key)
	}
	TransactionCacheKeys.m = make(map[string]struct{})
	TransactionCacheKeys.Unlock()
}
