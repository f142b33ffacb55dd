// SPDX-License-Identifier: MIT

// Package fixture runs an in-process relay speaking just enough of the nostr
// wire protocol (EVENT/OK, REQ/EOSE) to test publishing and fetching without
// the network.
package fixture

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/nbd-wtf/go-nostr"
)

type (
	Config struct {
		// RejectReason makes the relay answer every EVENT with OK=false and
		// this reason.
		RejectReason string
		// Silent makes the relay accept connections and swallow every message
		// without answering, for timeout tests.
		Silent bool
	}

	Relay struct {
		cfg    Config
		srv    *httptest.Server
		mu     sync.Mutex
		events map[string]nostr.Event
	}
)

func New(cfg Config) *Relay {
	relay := &Relay{cfg: cfg, events: make(map[string]nostr.Event)}
	relay.srv = httptest.NewServer(http.HandlerFunc(relay.upgrade))

	return relay
}

// URL is the ws:// endpoint clients connect to.
func (r *Relay) URL() string {
	return "ws" + strings.TrimPrefix(r.srv.URL, "http")
}

func (r *Relay) Close() {
	r.srv.Close()
}

// Event returns the stored event by id, if the relay accepted one.
func (r *Relay) Event(id string) (nostr.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]

	return ev, ok
}

func (r *Relay) StoredCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

// Store seeds an event as if it had been published earlier.
func (r *Relay) Store(ev nostr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[ev.ID] = ev
}

func (r *Relay) upgrade(w http.ResponseWriter, req *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(req, w)
	if err != nil {
		return
	}
	go r.serve(conn)
}

func (r *Relay) serve(conn net.Conn) {
	defer conn.Close()
	for {
		msg, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			return
		}
		if op != ws.OpText || len(msg) == 0 {
			continue
		}
		if r.cfg.Silent {
			continue
		}
		r.dispatch(conn, msg)
	}
}

func (r *Relay) dispatch(conn net.Conn, msg []byte) {
	var frame []json.RawMessage
	if err := json.Unmarshal(msg, &frame); err != nil || len(frame) == 0 {
		return
	}
	var label string
	if err := json.Unmarshal(frame[0], &label); err != nil {
		return
	}
	switch label {
	case "EVENT":
		r.handleEvent(conn, frame)
	case "REQ":
		r.handleReq(conn, frame)
	}
}

func (r *Relay) handleEvent(conn net.Conn, frame []json.RawMessage) {
	if len(frame) < 2 {
		return
	}
	var ev nostr.Event
	if err := json.Unmarshal(frame[1], &ev); err != nil {
		return
	}
	if r.cfg.RejectReason != "" {
		write(conn, "OK", ev.ID, false, r.cfg.RejectReason)

		return
	}
	r.Store(ev)
	write(conn, "OK", ev.ID, true, "")
}

func (r *Relay) handleReq(conn net.Conn, frame []json.RawMessage) {
	if len(frame) < 3 {
		return
	}
	var subID string
	if err := json.Unmarshal(frame[1], &subID); err != nil {
		return
	}
	r.mu.Lock()
	matched := make([]nostr.Event, 0, len(r.events))
	for _, raw := range frame[2:] {
		var filter nostr.Filter
		if err := json.Unmarshal(raw, &filter); err != nil {
			continue
		}
		for _, ev := range r.events {
			if filter.Matches(&ev) {
				matched = append(matched, ev)
			}
		}
	}
	r.mu.Unlock()
	for i := range matched {
		write(conn, "EVENT", subID, matched[i])
	}
	write(conn, "EOSE", subID)
}

func write(conn net.Conn, frame ...any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = wsutil.WriteServerMessage(conn, ws.OpText, payload)
}
