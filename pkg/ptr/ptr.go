package ptr

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 100 * time.Millisecond
	defaultCacheTTL   = 10 * time.Minute
)

// PtrManager handles PTR lookups with caching. An empty cached name marks a
// lookup in progress or one that found nothing.
type PtrManager struct {
	cache      *ttlcache.Cache[string, string]
	lookupFunc func(ctx context.Context, ip string) ([]string, error)
	retries    int
	retryDelay time.Duration
	wg         sync.WaitGroup
}

// NewPtrManager creates a new PtrManager
func NewPtrManager() *PtrManager {
	return &PtrManager{
		cache:      ttlcache.New(ttlcache.WithTTL[string, string](defaultCacheTTL)),
		lookupFunc: net.DefaultResolver.LookupAddr,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
}

// RequestPTR looks up the name for ip unless it is cached or already being
// looked up
func (pm *PtrManager) RequestPTR(ctx context.Context, ip string) {
	if _, exists := pm.cache.GetOrSet(ip, ""); exists {
		return
	}
	for attempt := range pm.retries {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pm.retryDelay):
			}
		}
		names, err := pm.lookupFunc(ctx, ip)
		if err == nil && len(names) > 0 {
			pm.cache.Set(ip, normalizePTR(names[0]), ttlcache.DefaultTTL)
			return
		}
	}
}

// RequestPTRAsync runs RequestPTR in the background. Wait blocks until all
// background lookups are done.
func (pm *PtrManager) RequestPTRAsync(ctx context.Context, ip string) {
	pm.wg.Add(1)
	go func() {
		defer pm.wg.Done()
		pm.RequestPTR(ctx, ip)
	}()
}

// Wait blocks until background lookups finish or ctx is done
func (pm *PtrManager) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		pm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// GetPTR retrieves the cached PTR result for the given IP address
// Returns the PTR and a boolean indicating if it was found
func (pm *PtrManager) GetPTR(ip string) (string, bool) {
	item := pm.cache.Get(ip)
	if item == nil || item.Value() == "" {
		return "", false
	}
	return item.Value(), true
}

func normalizePTR(name string) string {
	return strings.TrimSuffix(name, ".")
}
