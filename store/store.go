/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package store defines the host key-value stores that hold form
// snapshots.
//
// A Store is the host's business.  The component only hands it
// values.  Reading happens once, when the host boots the component.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Store is a persistence interface suitable for snapshots.
type Store interface {
	// Get returns the value stored at the key.  An absent key
	// gives nil and no error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value at the key, replacing any existing
	// value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases the Store's resources.
	Close(ctx context.Context) error
}

// Deleter is implemented by Stores that can remove keys.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// ErrClosed is returned by a Store that has been closed.
var ErrClosed = errors.New("store closed")

// MemStore keeps values in memory.
//
// Values are copied in and out.
type MemStore struct {
	sync.Mutex

	m      map[string][]byte
	closed bool

	// Sets counts calls to Set.
	Sets int
}

// NewMemStore makes an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		m: make(map[string][]byte),
	}
}

func (s *MemStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, have := s.m[key]
	if !have {
		return nil, nil
	}
	return clone(v), nil
}

func (s *MemStore) Set(ctx context.Context, key string, value []byte) error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.m[key] = clone(value)
	s.Sets++
	return nil
}

func (s *MemStore) Delete(ctx context.Context, key string) error {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.m, key)
	return nil
}

// Keys returns the stored keys in order.
func (s *MemStore) Keys() []string {
	s.Lock()
	defer s.Unlock()
	acc := make([]string, 0, len(s.m))
	for k := range s.m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}

func (s *MemStore) Close(ctx context.Context) error {
	s.Lock()
	s.closed = true
	s.Unlock()
	return nil
}

// NoopStore remembers nothing.
type NoopStore struct {
}

func (s *NoopStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (s *NoopStore) Set(ctx context.Context, key string, value []byte) error {
	return nil
}

func (s *NoopStore) Close(ctx context.Context) error {
	return nil
}

func clone(bs []byte) []byte {
	if bs == nil {
		return nil
	}
	acc := make([]byte, len(bs))
	copy(acc, bs)
	return acc
}
