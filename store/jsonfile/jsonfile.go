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

// Package jsonfile is a primitive store.Store that keeps every
// snapshot in one JSON file.
//
// Not glamorous or efficient.  The whole file is rewritten on every
// Set.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store maps keys to snapshots in the file at Filename.
//
// Values are kept as raw JSON when they are compact JSON, so the file
// stays readable.  Other values are kept as JSON strings.  Either way
// Get returns exactly the bytes given to Set, even after a reload.
type Store struct {
	Filename string

	sync.Mutex
	state map[string]json.RawMessage
}

// Open reads the file if it exists.
func Open(filename string) (*Store, error) {
	s := &Store{
		Filename: filename,
		state:    make(map[string]json.RawMessage),
	}
	js, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(js) == 0 {
		return s, nil
	}
	if err = json.Unmarshal(js, &s.state); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if s.state == nil {
		s.state = make(map[string]json.RawMessage)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()
	v, have := s.state[key]
	if !have {
		return nil, nil
	}
	if 0 < len(v) && v[0] == '"' {
		// Non-JSON value stored as a string.
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return nil, err
		}
		return []byte(str), nil
	}
	acc := make([]byte, len(v))
	copy(acc, v)
	return acc, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.Lock()
	defer s.Unlock()
	s.state[key] = asJSON(value)
	return s.write()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.Lock()
	defer s.Unlock()
	delete(s.state, key)
	return s.write()
}

// Close does nothing since every Set already wrote the file.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// write replaces the file via a temporary file and a rename.
func (s *Store) write() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&s.state); err != nil {
		return err
	}
	js := buf.Bytes()
	dir := filepath.Dir(s.Filename)
	f, err := os.CreateTemp(dir, ".snapshots-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(js); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.Filename)
}

// asJSON keeps valid, compact JSON as is and quotes everything else.
// Encoding compacts raw values, so anything else wouldn't survive.
func asJSON(value []byte) json.RawMessage {
	if 0 < len(value) && value[0] != '"' && compact(value) {
		acc := make([]byte, len(value))
		copy(acc, value)
		return acc
	}
	js, _ := json.Marshal(string(value))
	return js
}

func compact(value []byte) bool {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return false
	}
	return bytes.Equal(buf.Bytes(), value)
}
