// Copyright 2024 Wes Nick
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mailctl

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cache is an advisory JSON file cache for provider listings. It is
// never a source of truth: a miss, a stale read or a lost write only
// costs an extra API call. Entries expire by TTL at read time.
type Cache struct {
	Dir string
	TTL time.Duration
	// Now is replaceable for tests.
	Now func() time.Time
}

// NewCache returns a cache rooted at dir with the given TTL.
func NewCache(dir string, ttl time.Duration) *Cache {
	return &Cache{Dir: dir, TTL: ttl, Now: time.Now}
}

type cacheEntry struct {
	StoredAt time.Time       `json:"storedAt"`
	Payload  json.RawMessage `json:"payload"`
}

// Get loads the cached value for key into v. It returns false on miss,
// expiry or any read problem.
func (c *Cache) Get(key string, v interface{}) bool {
	if c == nil {
		return false
	}
	b, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	var e cacheEntry
	if err := json.Unmarshal(b, &e); err != nil {
		log.Debugf("discarding unreadable cache entry %q: %v", key, err)
		return false
	}
	if c.Now().Sub(e.StoredAt) > c.TTL {
		return false
	}
	return json.Unmarshal(e.Payload, v) == nil
}

// Put stores v under key. Failures are logged and swallowed; the cache
// must never break the operation it is shadowing.
func (c *Cache) Put(key string, v interface{}) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		log.Debugf("not caching %q: %v", key, err)
		return
	}
	b, err := json.Marshal(cacheEntry{StoredAt: c.Now(), Payload: payload})
	if err != nil {
		log.Debugf("not caching %q: %v", key, err)
		return
	}
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		log.Debugf("not caching %q: %v", key, err)
		return
	}
	if err := os.WriteFile(c.path(key), b, 0o600); err != nil {
		log.Debugf("not caching %q: %v", key, err)
	}
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	if c == nil {
		return
	}
	_ = os.Remove(c.path(key))
}

func (c *Cache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.Dir, fmt.Sprintf("%x.json", sum[:8]))
}
