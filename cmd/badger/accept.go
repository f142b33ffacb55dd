// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/nostr-badger/badger/model"
	"github.com/nostr-badger/badger/relay"
)

var acceptCmd = &cobra.Command{
	Use:   "accept [nsec] [badgeReference] [awardEventID]",
	Short: "accept an awarded badge into your profile badges",
	Long: `Accept an awarded badge: fetches your current profile badges aggregate,
merges the new badge in (re-accepting is a no-op), and republishes the
aggregate. Arguments may be given positionally for non-interactive use,
otherwise they are prompted for.`,
	Args: cobra.MaximumNArgs(3),
	RunE: runAccept,
}

func runAccept(cmd *cobra.Command, args []string) error {
	conf := loadConfig()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reader := stdinReader()
	key, aTag, awardEventID := "", "", ""
	switch len(args) {
	case 3:
		key, aTag, awardEventID = args[0], args[1], args[2]
	case 0:
		var err error
		if key, err = resolveKey(reader); err != nil {
			return err
		}
		if aTag, err = promptLine(reader, "Badge Definition (e.g. 30009:pubkey:identifier): "); err != nil {
			return err
		}
		if awardEventID, err = promptLine(reader, "Badge Award Event ID (64-char hex): "); err != nil {
			return err
		}
	default:
		return errors.Wrap(model.ErrValidation, "accept takes either all three arguments or none")
	}

	ref, err := model.ParseBadgeReference(aTag)
	if err != nil {
		return err
	}
	if !model.IsValidEventID(awardEventID) {
		return errors.Wrapf(model.ErrValidation, "award event id must be 64 chars of hex: %q", awardEventID)
	}

	publisher := relay.New()
	defer publisher.Close()
	engine := newEngine(conf, publisher)

	fmt.Printf("Accepting badge %v (award %v)...\n", ref.String(), awardEventID)
	result, ev, err := engine.AcceptBadge(ctx, key, ref, awardEventID, nil)
	if err != nil {
		return err
	}
	if err = reportResult(result); err != nil {
		return errors.Wrap(err, "profile badges update was accepted by no relay")
	}
	verifyStored(ctx, publisher, ev, conf)
	fmt.Printf("Profile Badges Event ID: %v\n", ev.GetID())

	return nil
}
