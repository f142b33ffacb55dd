// SPDX-License-Identifier: MIT

package model

import (
	"errors"

	"github.com/nbd-wtf/go-nostr"
)

type (
	TagMap    = nostr.TagMap
	Tag       = nostr.Tag
	Tags      = nostr.Tags
	Timestamp = nostr.Timestamp
	Kind      = int
	Filter    = nostr.Filter
)

const (
	KindBadgeDefinition Kind = 30_009
	KindBadgeAward      Kind = 8
	KindProfileBadges   Kind = 30_008
)

const (
	// ProfileBadgesDTag is the fixed `d` tag value of the kind 30008 aggregate, per NIP-58.
	ProfileBadgesDTag = "profile_badges"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrInvalidKey        = errors.New("invalid key material")
	ErrNotFound          = errors.New("not found")
	ErrCorruptAggregate  = errors.New("corrupt profile badges aggregate")
	ErrInternalInvariant = errors.New("internal invariant violation")
)
