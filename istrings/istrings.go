// Package istrings lets time-series field and key names be boxed down into a
// small comparable handle so that the same field/key string used across many
// outputs in a large graph is stored once.
package istrings

import (
	"encoding/json"
	"sort"
	"sync"
)

const shardCount = 1 << 8 // must be a power of 2

var shards [shardCount]*shard

type shard struct {
	mu sync.RWMutex
	m  map[string]*value
}

func init() {
	for i := range shards {
		shards[i] = &shard{m: make(map[string]*value)}
	}
}

// IString is the handle to an interned string value. The zero value is the
// empty string.
type IString struct {
	v *value
}

type value struct {
	s string
}

func (v *value) String() string {
	if v == nil {
		return ""
	}
	return v.s
}

func (s IString) String() string { return s.v.String() }

func (s IString) Len() int { return len(s.String()) }

func (s *IString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Get(v)
	return nil
}

func (s IString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func shardFor(k string) *shard {
	var h uint32 = 2166136261
	for i := 0; i < len(k); i++ {
		h ^= uint32(k[i])
		h *= 16777619
	}
	return shards[h&(shardCount-1)]
}

// Get returns the interned handle for k, allocating it the first time k is
// seen by this process.
func Get(k string) IString {
	if k == "" {
		return IString{}
	}
	sh := shardFor(k)
	sh.mu.RLock()
	v, ok := sh.m[k]
	sh.mu.RUnlock()
	if ok {
		return IString{v}
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if v, ok := sh.m[k]; ok {
		return IString{v}
	}
	v = &value{s: k}
	sh.m[k] = v
	return IString{v}
}

// Sort sorts s in place by underlying string value.
func Sort(s []IString) {
	sort.Sort(IStringSlice(s))
}

// IStringSlice attaches sort.Interface to []IString, sorting in increasing order.
type IStringSlice []IString

func (x IStringSlice) Len() int           { return len(x) }
func (x IStringSlice) Less(i, j int) bool { return x[i].String() < x[j].String() }
func (x IStringSlice) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }
func (x IStringSlice) Sort()              { Sort(x) }
