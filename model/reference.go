// SPDX-License-Identifier: MIT

package model

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// BadgeReference addresses a badge definition the way NIP-58 awards do: the
// `a` tag triple `kind:issuerPubkey:identifier`. The definition is replaceable,
// so the triple, not the event id, is the durable handle.
type BadgeReference struct {
	Kind       int
	PubKey     string
	Identifier string
}

func NewBadgeReference(issuerPubKey, identifier string) BadgeReference {
	return BadgeReference{
		Kind:       KindBadgeDefinition,
		PubKey:     issuerPubKey,
		Identifier: identifier,
	}
}

func ParseBadgeReference(aTag string) (BadgeReference, error) {
	val := strings.Split(aTag, ":")
	if len(val) != 3 {
		return BadgeReference{}, errors.Wrapf(ErrValidation, "failed to parse badge reference, len != 3: %v", val)
	}
	kind, err := strconv.ParseInt(val[0], 10, 64)
	if err != nil {
		return BadgeReference{}, errors.Wrapf(ErrValidation, "failed to parse badge reference kind: %v", val)
	}
	ref := BadgeReference{
		Kind:       int(kind),
		PubKey:     val[1],
		Identifier: val[2],
	}
	if err := ref.Validate(); err != nil {
		return BadgeReference{}, err
	}

	return ref, nil
}

func (r *BadgeReference) Validate() error {
	if r.Kind != KindBadgeDefinition {
		return errors.Wrapf(ErrValidation, "badge reference kind must be %v, got %v", KindBadgeDefinition, r.Kind)
	}
	if !IsValidPublicKey(r.PubKey) {
		return errors.Wrapf(ErrValidation, "badge reference pubkey is not 64 chars of hex: %q", r.PubKey)
	}
	if r.Identifier == "" {
		return errors.Wrap(ErrValidation, "badge reference identifier is empty")
	}

	return nil
}

func (r *BadgeReference) String() string {
	return strconv.Itoa(r.Kind) + ":" + r.PubKey + ":" + r.Identifier
}

// Filter matches the current version of the referenced definition.
func (r *BadgeReference) Filter() Filter {
	f := Filter{
		Kinds:   []int{r.Kind},
		Authors: []string{r.PubKey},
	}
	if r.Identifier != "" {
		f.Tags = TagMap{"d": {r.Identifier}}
	}

	return f
}
