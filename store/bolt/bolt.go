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

// Package bolt is a store.Store backed by BoltDB.
package bolt

import (
	"context"
	"time"

	"github.com/elm-community/js-integration-examples/store"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds snapshots unless told otherwise.
const DefaultBucket = "snapshots"

// Storage keeps snapshots in one bucket of a BoltDB file.
type Storage struct {
	Log    zerolog.Logger
	Bucket string

	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		Log:      zerolog.Nop(),
		Bucket:   DefaultBucket,
		filename: filename,
	}, nil
}

// Open opens (or creates) the database file.
func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db

	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		return err
	})
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, store.ErrClosed
	}
	var acc []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// v is only valid during the transaction.
			acc = make([]byte, len(v))
			copy(acc, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Debug().Str("key", key).Bool("found", acc != nil).Msg("bolt get")
	return acc, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return store.ErrClosed
	}
	s.Log.Debug().Str("key", key).Bytes("value", value).Msg("bolt set")
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return store.ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
