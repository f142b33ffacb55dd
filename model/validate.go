// SPDX-License-Identifier: MIT

package model

import (
	"github.com/cockroachdb/errors"
)

var KindSupportedTags = map[Kind][]string{
	KindBadgeDefinition: {"d", "name", "description", "image", "thumb", "alt"},
	KindBadgeAward:      {"a", "p"},
	KindProfileBadges:   {"d", "a", "e"},
}

// Validate checks the NIP-58 shape of the three badge kinds. Events of any
// other kind are rejected, this model carries nothing else.
func (e *Event) Validate() error {
	if !areTagsSupported(e) {
		return errors.Wrapf(ErrValidation, "unsupported tag for this event kind: %+v", e)
	}
	switch e.Kind {
	case KindBadgeDefinition:
		return validateKindBadgeDefinitionEvent(e)
	case KindBadgeAward:
		return validateKindBadgeAwardEvent(e)
	case KindProfileBadges:
		return validateKindProfileBadgesEvent(e)
	}

	return errors.Wrapf(ErrValidation, "unexpected event kind %v", e.Kind)
}

func validateKindBadgeDefinitionEvent(e *Event) error {
	dTag := e.Tags.GetFirst([]string{"d"})
	if dTag == nil || dTag.Value() == "" {
		return errors.Wrapf(ErrValidation, "nip-58: badge definition requires a non-empty d tag: %+v", e)
	}

	return nil
}

func validateKindBadgeAwardEvent(e *Event) error {
	aTag := e.Tags.GetFirst([]string{"a"})
	if aTag == nil {
		return errors.Wrapf(ErrValidation, "nip-58: badge award requires an a tag: %+v", e)
	}
	if _, err := ParseBadgeReference(aTag.Value()); err != nil {
		return errors.Wrapf(err, "nip-58: badge award a tag is malformed: %+v", e)
	}
	pTags := e.Tags.GetAll([]string{"p"})
	if len(pTags) == 0 {
		return errors.Wrapf(ErrValidation, "nip-58: badge award requires at least one p tag: %+v", e)
	}
	for _, tag := range pTags {
		if !IsValidPublicKey(tag.Value()) {
			return errors.Wrapf(ErrValidation, "nip-58: badge award p tag is not a pubkey: %q", tag.Value())
		}
	}

	return nil
}

// validateKindProfileBadgesEvent enforces the positional pairing of a/e
// tags: every a is immediately followed by its e, no strays on either side.
func validateKindProfileBadgesEvent(e *Event) error {
	dTag := e.Tags.GetFirst([]string{"d"})
	if dTag == nil || dTag.Value() != ProfileBadgesDTag {
		return errors.Wrapf(ErrValidation, "nip-58: profile badges requires d tag %q: %+v", ProfileBadgesDTag, e)
	}
	expectAward := false
	for _, tag := range e.Tags {
		switch tag.Key() {
		case "a":
			if expectAward {
				return errors.Wrapf(ErrCorruptAggregate, "nip-58: a tag %q has no paired e tag: %+v", tag.Value(), e)
			}
			expectAward = true
		case "e":
			if !expectAward {
				return errors.Wrapf(ErrCorruptAggregate, "nip-58: e tag %q has no preceding a tag: %+v", tag.Value(), e)
			}
			expectAward = false
		}
	}
	if expectAward {
		return errors.Wrapf(ErrCorruptAggregate, "nip-58: trailing a tag has no paired e tag: %+v", e)
	}

	return nil
}

func areTagsSupported(e *Event) bool {
	supportedTags, ok := KindSupportedTags[e.Kind]
	if !ok {
		return true
	}
next:
	for _, tag := range e.Tags {
		for _, supportedTag := range supportedTags {
			if tag.Key() == supportedTag {
				continue next
			}
		}

		return false
	}

	return true
}
