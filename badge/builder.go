// SPDX-License-Identifier: MIT

package badge

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nbd-wtf/go-nostr"

	"github.com/nostr-badger/badger/model"
)

// Definition is the typed form of a kind 30009 badge definition. Identifier is
// the stable handle awards reference, everything else is display material.
type Definition struct {
	Identifier  string
	Name        string
	Description string
	ImageURL    string
	ThumbURLs   []string
}

func (d *Definition) Validate() error {
	if d.Identifier == "" {
		return errors.Wrap(model.ErrValidation, "badge identifier is empty")
	}
	// The identifier is embedded into the `kind:pubkey:identifier` a tag value,
	// so a colon or whitespace would break every downstream reference.
	if strings.ContainsAny(d.Identifier, ": \t\n\r") {
		return errors.Wrapf(model.ErrValidation, "badge identifier %q contains characters disallowed by the a tag encoding", d.Identifier)
	}

	return nil
}

func (d *Definition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}

	return d.Identifier
}

// BuildDefinition constructs an unsigned kind 30009 event.
func BuildDefinition(def Definition, createdAt model.Timestamp) (*model.Event, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	tags := model.Tags{model.Tag{"d", def.Identifier}}
	if def.Name != "" {
		tags = append(tags, model.Tag{"name", def.Name})
	}
	if def.Description != "" {
		tags = append(tags, model.Tag{"description", def.Description})
	}
	if def.ImageURL != "" {
		tags = append(tags, model.Tag{"image", def.ImageURL})
	}
	for _, thumb := range def.ThumbURLs {
		tags = append(tags, model.Tag{"thumb", thumb})
	}

	return &model.Event{Event: nostr.Event{
		Kind:      model.KindBadgeDefinition,
		CreatedAt: createdAt,
		Content:   fmt.Sprintf("Badge definition: %v", def.DisplayName()),
		Tags:      tags,
	}}, nil
}

// ParseDefinition is the inverse of BuildDefinition.
func ParseDefinition(ev *model.Event) (Definition, error) {
	if ev.Kind != model.KindBadgeDefinition {
		return Definition{}, errors.Wrapf(model.ErrValidation, "not a badge definition event, kind %v", ev.Kind)
	}
	def := Definition{}
	for _, tag := range ev.Tags {
		if len(tag) < 2 {
			continue
		}
		switch tag.Key() {
		case "d":
			def.Identifier = tag.Value()
		case "name":
			def.Name = tag.Value()
		case "description":
			def.Description = tag.Value()
		case "image":
			def.ImageURL = tag.Value()
		case "thumb":
			def.ThumbURLs = append(def.ThumbURLs, tag.Value())
		}
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}

	return def, nil
}

// BuildAward constructs an unsigned kind 8 event awarding the referenced badge
// to every recipient, order-preserved. Recipients are hex pubkeys; awarding
// the same badge twice to one key is the caller's choice, not an error.
func BuildAward(ref model.BadgeReference, recipients []string, createdAt model.Timestamp) (*model.Event, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, errors.Wrap(model.ErrValidation, "badge award requires at least one recipient")
	}
	tags := make(model.Tags, 0, 1+len(recipients))
	tags = append(tags, model.Tag{"a", ref.String()})
	for _, pubkey := range recipients {
		if !model.IsValidPublicKey(pubkey) {
			return nil, errors.Wrapf(model.ErrValidation, "recipient %q is not a hex pubkey", pubkey)
		}
		tags = append(tags, model.Tag{"p", pubkey})
	}

	return &model.Event{Event: nostr.Event{
		Kind:      model.KindBadgeAward,
		CreatedAt: createdAt,
		Content:   fmt.Sprintf("Awarded badge to %v recipient(s)", len(recipients)),
		Tags:      tags,
	}}, nil
}

// BuildProfileBadges serializes the aggregate into an unsigned kind 30008
// event, one adjacent a/e tag pair per entry. The aggregate comes out of the
// merger already validated, so a malformed entry here is a merger bug.
func BuildProfileBadges(agg *Aggregate, relayHint string, createdAt model.Timestamp) (*model.Event, error) {
	if agg == nil {
		return nil, errors.Wrap(model.ErrInternalInvariant, "aggregate is nil")
	}
	tags := make(model.Tags, 0, 1+2*len(agg.Entries))
	tags = append(tags, model.Tag{"d", model.ProfileBadgesDTag})
	for i := range agg.Entries {
		entry := &agg.Entries[i]
		if err := entry.Validate(); err != nil {
			return nil, errors.Wrapf(model.ErrInternalInvariant, "aggregate entry %v is malformed: %v", i, err)
		}
		tags = append(tags, model.Tag{"a", entry.Badge.String()})
		awardTag := model.Tag{"e", entry.AwardID}
		if relayHint != "" {
			awardTag = append(awardTag, relayHint)
		}
		tags = append(tags, awardTag)
	}

	return &model.Event{Event: nostr.Event{
		Kind:      model.KindProfileBadges,
		CreatedAt: createdAt,
		Content:   fmt.Sprintf("Profile badges: %v badges displayed", len(agg.Entries)),
		Tags:      tags,
	}}, nil
}
