// Package iocache is for caching I/O calls and recording fetch runs.
package iocache

import (
	"sync"

	"github.com/huangsam/hypeplot/internal/contract"
)

// CacheStoreManager manages the fetch cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	fetch        contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetFetchStore returns the fetch CacheStore.
func (mgr *CacheStoreManager) GetFetchStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.fetch
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
