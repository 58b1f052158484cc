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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache(t.TempDir(), time.Minute)
	c.Put("labels", []string{"a", "b"})

	var got []string
	require.True(t, c.Get("labels", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(t.TempDir(), time.Minute)
	var got []string
	assert.False(t, c.Get("nothing", &got))
}

func TestCacheTTLExpiry(t *testing.T) {
	now := time.Now()
	c := NewCache(t.TempDir(), time.Minute)
	c.Now = func() time.Time { return now }
	c.Put("labels", []string{"a"})

	var got []string
	require.True(t, c.Get("labels", &got))

	c.Now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, c.Get("labels", &got), "entries past the TTL must miss")
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(t.TempDir(), time.Minute)
	c.Put("labels", []string{"a"})
	c.Invalidate("labels")

	var got []string
	assert.False(t, c.Get("labels", &got))
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	c.Put("k", 1)
	var got int
	assert.False(t, c.Get("k", &got))
	c.Invalidate("k")
}
