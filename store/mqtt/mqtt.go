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

// Package mqtt is a store.Store that keeps snapshots as retained
// messages on an MQTT broker.
//
// Set publishes the value, retained, to Prefix/key.  Get subscribes to
// that topic and waits briefly for the broker to hand over the
// retained message.  No retained message means no value.
package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Client is the part of mqtt.Client that a Store uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// Config describes the broker connection.
type Config struct {
	Broker   string `json:"broker" yaml:"broker" toml:"broker"`
	ClientID string `json:"clientId" yaml:"clientId" toml:"clientId"`
	Username string `json:"username" yaml:"username" toml:"username"`
	Password string `json:"password" yaml:"password" toml:"password"`

	// Prefix is prepended (with a '/') to keys to make topics.
	Prefix string `json:"prefix" yaml:"prefix" toml:"prefix"`

	QoS byte `json:"qos" yaml:"qos" toml:"qos"`

	// Insecure skips broker cert checking.
	Insecure bool `json:"insecure" yaml:"insecure" toml:"insecure"`

	// Timeout bounds connecting, publishing, and waiting for a
	// retained message.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

// DefaultConfig is a local broker with no auth.
func DefaultConfig() Config {
	return Config{
		Broker:  "tcp://localhost:1883",
		Prefix:  "forms",
		QoS:     1,
		Timeout: 2 * time.Second,
	}
}

// Store is an MQTT-backed store.Store.
type Store struct {
	Log     zerolog.Logger
	Prefix  string
	QoS     byte
	Timeout time.Duration

	// Quiesce is milliseconds to wait for work to complete at
	// Close.
	Quiesce uint

	client Client
}

// Dial connects to the broker.
func Dial(ctx context.Context, cfg Config) (*Store, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	if cfg.Insecure {
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	}

	client := mqtt.NewClient(opts)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	t := client.Connect()
	if err := wait(ctx, t, timeout); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}

	s := NewStore(client, cfg.Prefix)
	s.QoS = cfg.QoS
	s.Timeout = timeout
	return s, nil
}

// NewStore makes a Store using an existing client.
func NewStore(client Client, prefix string) *Store {
	return &Store{
		Log:     zerolog.Nop(),
		Prefix:  prefix,
		QoS:     1,
		Timeout: DefaultConfig().Timeout,
		Quiesce: 100,
		client:  client,
	}
}

// Topic is the topic for the given key.
func (s *Store) Topic(key string) string {
	if s.Prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.Prefix, "/") + "/" + key
}

// ErrTimeout occurs when the broker doesn't finish an operation in
// time.
var ErrTimeout = errors.New("mqtt timeout")

func wait(ctx context.Context, t mqtt.Token, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		done <- t.WaitTimeout(timeout)
	}()

	select {
	case <-ctx.Done():
		return ErrTimeout
	case ok := <-done:
		if !ok {
			return ErrTimeout
		}
		return t.Error()
	}
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	topic := s.Topic(key)
	s.Log.Debug().Str("topic", topic).Int("bytes", len(value)).Msg("mqtt publish")
	if err := wait(ctx, s.client.Publish(topic, s.QoS, true, value), s.Timeout); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Get waits up to Timeout for a retained message.
//
// A retained message with an empty payload is how MQTT deletes a
// retained message, so that's also no value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	topic := s.Topic(key)

	got := make(chan []byte, 1)
	handler := func(c mqtt.Client, m mqtt.Message) {
		if !m.Retained() {
			return
		}
		select {
		case got <- m.Payload():
		default:
		}
	}

	if err := wait(ctx, s.client.Subscribe(topic, s.QoS, handler), s.Timeout); err != nil {
		return nil, fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	defer func() {
		if err := wait(context.Background(), s.client.Unsubscribe(topic), s.Timeout); err != nil {
			s.Log.Warn().Err(err).Str("topic", topic).Msg("mqtt unsubscribe")
		}
	}()

	timer := time.NewTimer(s.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		s.Log.Debug().Str("topic", topic).Msg("no retained message")
		return nil, nil
	case bs := <-got:
		if len(bs) == 0 {
			return nil, nil
		}
		acc := make([]byte, len(bs))
		copy(acc, bs)
		return acc, nil
	}
}

// Delete clears the retained message.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Set(ctx, key, []byte{})
}

func (s *Store) Close(ctx context.Context) error {
	s.client.Disconnect(s.Quiesce)
	return nil
}
