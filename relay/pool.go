// SPDX-License-Identifier: MIT

package relay

import (
	"context"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/nbd-wtf/go-nostr"
	"github.com/puzpuzpuz/xsync/v3"
)

// Pool caches live relay connections by URL so consecutive operations against
// the same relay set reuse sockets. Connections live until dropped or until
// the pool is closed; the per-attempt context only bounds the dial.
type Pool struct {
	relays *xsync.Map
}

func NewPool() *Pool {
	return &Pool{relays: xsync.NewMap()}
}

func (p *Pool) Get(ctx context.Context, url string) (*nostr.Relay, error) {
	if cached, found := p.relays.Load(url); found {
		relay := cached.(*nostr.Relay)
		if relay.IsConnected() {
			return relay, nil
		}
		p.relays.Delete(url)
	}
	relay := nostr.NewRelay(context.Background(), url)
	if err := relay.Connect(ctx); err != nil {
		return nil, errors.Wrapf(err, "can't connect to relay %v", url)
	}
	// Two concurrent cache misses both dial; the loser's connection is closed
	// so every caller ends up sharing the single pooled one.
	if cached, loaded := p.relays.LoadOrStore(url, relay); loaded {
		closeRelay(relay)

		return cached.(*nostr.Relay), nil
	}

	return relay, nil
}

func (p *Pool) Drop(url string) {
	if cached, found := p.relays.LoadAndDelete(url); found {
		closeRelay(cached.(*nostr.Relay))
	}
}

func (p *Pool) Close() {
	p.relays.Range(func(url string, cached any) bool {
		p.relays.Delete(url)
		closeRelay(cached.(*nostr.Relay))

		return true
	})
}

func closeRelay(relay *nostr.Relay) {
	if err := relay.Close(); err != nil {
		log.Printf("can't close relay:%v, err:%v", relay.URL, err)
	}
}
