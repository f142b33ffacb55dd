// SPDX-License-Identifier: MIT

package badge

import (
	"github.com/cockroachdb/errors"

	"github.com/nostr-badger/badger/model"
)

type (
	// AcceptanceEntry is one accepted badge: the definition reference plus the
	// id of the award event that granted it.
	AcceptanceEntry struct {
		Badge   model.BadgeReference
		AwardID string
	}

	// Aggregate is a recipient's ordered profile badges list. It is replaced
	// wholesale on every acceptance, never mutated in place.
	Aggregate struct {
		Entries []AcceptanceEntry
	}
)

func (e *AcceptanceEntry) Validate() error {
	if err := e.Badge.Validate(); err != nil {
		return err
	}
	if !model.IsValidEventID(e.AwardID) {
		return errors.Wrapf(model.ErrValidation, "award event id is not 64 chars of hex: %q", e.AwardID)
	}

	return nil
}

func (e *AcceptanceEntry) Equal(other *AcceptanceEntry) bool {
	return e.Badge == other.Badge && e.AwardID == other.AwardID
}

func (a *Aggregate) Contains(entry *AcceptanceEntry) bool {
	for i := range a.Entries {
		if a.Entries[i].Equal(entry) {
			return true
		}
	}

	return false
}

// ParseAggregate reads the a/e tag pairs out of a kind 30008 event. A
// desynchronized pairing means some prior client corrupted the record: that is
// surfaced as ErrCorruptAggregate, never silently realigned or truncated.
func ParseAggregate(ev *model.Event) (*Aggregate, error) {
	if ev.Kind != model.KindProfileBadges {
		return nil, errors.Wrapf(model.ErrCorruptAggregate, "not a profile badges event, kind %v", ev.Kind)
	}
	if err := ev.Validate(); err != nil {
		return nil, errors.Wrapf(err, "profile badges event is malformed: %+v", ev)
	}
	agg := &Aggregate{}
	var pending *model.BadgeReference
	for _, tag := range ev.Tags {
		switch tag.Key() {
		case "a":
			ref, err := model.ParseBadgeReference(tag.Value())
			if err != nil {
				return nil, errors.Wrapf(model.ErrCorruptAggregate, "bad badge reference %q: %v", tag.Value(), err)
			}
			pending = &ref
		case "e":
			if !model.IsValidEventID(tag.Value()) {
				return nil, errors.Wrapf(model.ErrCorruptAggregate, "bad award event id %q", tag.Value())
			}
			agg.Entries = append(agg.Entries, AcceptanceEntry{Badge: *pending, AwardID: tag.Value()})
			pending = nil
		}
	}

	return agg, nil
}

// Merge computes the next aggregate. A nil current aggregate yields a
// singleton, a duplicate entry yields current unchanged (re-acceptance is
// replay-safe), otherwise the entry is appended preserving acceptance order.
// The current aggregate is never modified, so a failed publish of the result
// leaves the caller's view intact for retry.
func Merge(current *Aggregate, entry AcceptanceEntry) (*Aggregate, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if current == nil {
		return &Aggregate{Entries: []AcceptanceEntry{entry}}, nil
	}
	if current.Contains(&entry) {
		return current, nil
	}
	next := &Aggregate{Entries: make([]AcceptanceEntry, len(current.Entries), len(current.Entries)+1)}
	copy(next.Entries, current.Entries)
	next.Entries = append(next.Entries, entry)

	return next, nil
}
