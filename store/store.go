// SPDX-License-Identifier: MIT

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/nostr-badger/badger/badge"
	"github.com/nostr-badger/badger/model"
)

const defaultMaxBackups = 5

type (
	// Store keeps a local paper trail: every signed event as JSON, plus
	// pre-merge snapshots of the profile badges aggregate so an operator can
	// rebuild after a bad publish. Recovery is never automatic.
	Store struct {
		dir        string
		maxBackups int
	}

	backupRecord struct {
		Timestamp  int64       `json:"timestamp"`
		EventID    string      `json:"event_id"`
		Recipient  string      `json:"recipient,omitempty"`
		BadgePairs [][2]string `json:"badge_pairs"`
	}
)

func New(dir string) *Store {
	return &Store{dir: dir, maxBackups: defaultMaxBackups}
}

// SaveEvent writes the signed event under <dir>/events and returns the path.
func (s *Store) SaveEvent(ev *model.Event) (string, error) {
	eventsDir := filepath.Join(s.dir, "events")
	if err := os.MkdirAll(eventsDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create events dir %q", eventsDir)
	}
	raw, err := json.MarshalIndent(&ev.Event, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "failed to serialize event %v", ev.GetID())
	}
	path := filepath.Join(eventsDir, fmt.Sprintf("signed_event_%v_%v.json", time.Now().UTC().Format("20060102_150405"), shortID(ev.GetID())))
	if err = os.WriteFile(path, raw, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write event file %q", path)
	}

	return path, nil
}

// SaveBackup snapshots the aggregate before it gets replaced on the relays.
func (s *Store) SaveBackup(agg *badge.Aggregate, recipientPubKey, eventID string) (string, error) {
	backupsDir := filepath.Join(s.dir, "backups")
	if err := os.MkdirAll(backupsDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create backups dir %q", backupsDir)
	}
	record := backupRecord{
		Timestamp: time.Now().Unix(),
		EventID:   eventID,
		Recipient: recipientPubKey,
	}
	for i := range agg.Entries {
		entry := &agg.Entries[i]
		record.BadgePairs = append(record.BadgePairs, [2]string{entry.Badge.String(), entry.AwardID})
	}
	raw, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize backup")
	}
	path := filepath.Join(backupsDir, fmt.Sprintf("profile_badges_%v_%v.json", record.Timestamp, shortID(eventID)))
	if err = os.WriteFile(path, raw, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write backup file %q", path)
	}
	s.cleanupBackups(backupsDir)

	return path, nil
}

// LatestBackup loads the most recent aggregate snapshot, ErrNotFound when none
// exists.
func (s *Store) LatestBackup() (*badge.Aggregate, error) {
	backupsDir := filepath.Join(s.dir, "backups")
	files, err := backupFiles(backupsDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "no aggregate backups in %q", backupsDir)
	}
	raw, err := os.ReadFile(files[len(files)-1])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read backup %q", files[len(files)-1])
	}
	var record backupRecord
	if err = json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrapf(err, "failed to parse backup %q", files[len(files)-1])
	}
	agg := &badge.Aggregate{}
	for _, pair := range record.BadgePairs {
		ref, rErr := model.ParseBadgeReference(pair[0])
		if rErr != nil {
			return nil, errors.Wrapf(rErr, "backup %q holds a bad badge reference", files[len(files)-1])
		}
		agg.Entries = append(agg.Entries, badge.AcceptanceEntry{Badge: ref, AwardID: pair[1]})
	}

	return agg, nil
}

// cleanupBackups keeps only the newest maxBackups snapshots. Failures only log
// noise at the caller, so they are swallowed here.
func (s *Store) cleanupBackups(backupsDir string) {
	files, err := backupFiles(backupsDir)
	if err != nil || len(files) <= s.maxBackups {
		return
	}
	for _, path := range files[:len(files)-s.maxBackups] {
		_ = os.Remove(path)
	}
}

// backupFiles returns snapshot paths sorted oldest first. The unix timestamp
// in the name makes lexicographic order chronological.
func backupFiles(backupsDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(backupsDir, "profile_badges_*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob failed for backups dir %q", backupsDir)
	}
	sort.Strings(files)

	return files, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
