// SPDX-License-Identifier: MIT

package model

import (
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/nbd-wtf/go-nostr"
)

type Event struct {
	nostr.Event
}

// Sign computes the event id and schnorr signature in place. The private key
// must be 32 bytes of hex; nsec input is rejected here, decode it first via
// DecodePrivateKey.
func (e *Event) Sign(privateKey string) error {
	if e.Tags == nil {
		e.Tags = make(Tags, 0)
	}
	if raw, err := hex.DecodeString(privateKey); err != nil || len(raw) != 32 {
		return errors.Wrap(ErrInvalidKey, "private key must be 32 bytes of hex")
	}

	return errors.Wrap(e.Event.Sign(privateKey), "failed to sign event")
}

func (e *Event) GetTag(tagName string) Tag {
	for _, tag := range e.Tags {
		if tag.Key() == tagName {
			return tag
		}
	}

	return nil
}
