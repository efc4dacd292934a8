/*
 * cache.go, part of goconf.
 *
 *
 * Copyright 2021 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 *
 */

//Package fragcache keeps the geometries of rigid fragments (ring systems) so conformer
//generation can reuse them. A Cache is safe for concurrent use. Geometries are keyed by
//the canonical code of the fragment and stored in its canonical atom order.
package fragcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	chem "github.com/rmera/goconf"
	v3 "github.com/rmera/goconf/v3"
	"golang.org/x/sync/singleflight"
)

//Store is an optional second tier, shared between processes, behind a Cache.
//Values are coordinate codes.
type Store interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
}

//Stats are the lookup statistics of a Cache. Under contention they may be slightly
//inconsistent with each other.
type Stats struct {
	Requests int64
	Hits     int64
	Misses   int64
	Entries  int
}

//HitRate returns the fraction of requests that were hits.
func (S Stats) HitRate() float64 {
	if S.Requests == 0 {
		return 0
	}
	return float64(S.Hits) / float64(S.Requests)
}

//Cache is an in-memory map of fragment geometries, optionally backed by a Store.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*v3.Matrix
	maxEntries int
	store      Store
	group      singleflight.Group

	requests atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64

	observer func(hit bool)
}

//New returns an empty cache holding at most maxEntries geometries in memory (no limit if
//maxEntries <= 0). store can be nil.
func New(store Store, maxEntries int) *Cache {
	return &Cache{entries: make(map[string]*v3.Matrix), maxEntries: maxEntries, store: store}
}

//SetObserver sets a function called after every lookup, with whether it was a hit.
//It must be set before the cache is shared.
func (C *Cache) SetObserver(f func(hit bool)) {
	C.observer = f
}

func (C *Cache) record(hit bool) {
	C.requests.Add(1)
	if hit {
		C.hits.Add(1)
	} else {
		C.misses.Add(1)
	}
	if C.observer != nil {
		C.observer(hit)
	}
}

//Get returns a copy of the geometry stored for key, which must have natoms atoms.
//The memory tier is checked first, then the Store, if any.
func (C *Cache) Get(ctx context.Context, key string, natoms int) (*v3.Matrix, bool) {
	C.mu.RLock()
	c, ok := C.entries[key]
	C.mu.RUnlock()
	if ok && c.NVecs() == natoms {
		C.record(true)
		return c.Clone(), true
	}
	if C.store != nil {
		if c, err := C.load(ctx, key, natoms); err == nil && c != nil {
			C.record(true)
			C.putMemory(key, c)
			return c.Clone(), true
		}
	}
	C.record(false)
	return nil, false
}

func (C *Cache) load(ctx context.Context, key string, natoms int) (*v3.Matrix, error) {
	v, err, _ := C.group.Do(key, func() (interface{}, error) {
		code, ok, err := C.store.Load(ctx, key)
		if err != nil || !ok {
			return nil, err
		}
		return chem.DecodeRawCoords(code, natoms)
	})
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*v3.Matrix), nil
}

func (C *Cache) putMemory(key string, coords *v3.Matrix) {
	C.mu.Lock()
	defer C.mu.Unlock()
	if _, ok := C.entries[key]; !ok && C.maxEntries > 0 && len(C.entries) >= C.maxEntries {
		//full, drop an arbitrary entry
		for k := range C.entries {
			delete(C.entries, k)
			break
		}
	}
	C.entries[key] = coords
}

//Put stores a copy of coords for key. If the cache has a Store, the geometry is also
//saved there, and the error from the Store is returned.
func (C *Cache) Put(ctx context.Context, key string, coords *v3.Matrix) error {
	if key == "" || coords == nil {
		return errors.New("fragcache: empty key or geometry")
	}
	C.putMemory(key, coords.Clone())
	if C.store == nil {
		return nil
	}
	code, err := chem.EncodeRawCoords(coords)
	if err != nil {
		return fmt.Errorf("fragcache: encoding %s: %w", key, err)
	}
	if err := C.store.Save(ctx, key, code); err != nil {
		return fmt.Errorf("fragcache: saving %s: %w", key, err)
	}
	return nil
}

//Len returns the number of geometries in memory.
func (C *Cache) Len() int {
	C.mu.RLock()
	defer C.mu.RUnlock()
	return len(C.entries)
}

//Stats returns the current statistics of the cache.
func (C *Cache) Stats() Stats {
	return Stats{Requests: C.requests.Load(), Hits: C.hits.Load(), Misses: C.misses.Load(), Entries: C.Len()}
}
