// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/spf13/cobra"

	"github.com/nostr-badger/badger/badge"
	"github.com/nostr-badger/badger/model"
	"github.com/nostr-badger/badger/relay"
)

var (
	badgeIdentifier string
	recipients      []string
	assumeYes       bool

	awardCmd = &cobra.Command{
		Use:   "award",
		Short: "publish a badge definition and award it to one or more recipients",
		RunE:  runAward,
	}
)

func init() {
	awardCmd.Flags().StringVar(&badgeIdentifier, "badge", "", "identifier of the badge definition to award; prompted for when omitted")
	awardCmd.Flags().StringSliceVar(&recipients, "recipient", nil, "recipient pubkey(s), npub or hex; prompted for when omitted")
	awardCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}

func runAward(cmd *cobra.Command, _ []string) error {
	conf := loadConfig()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reader := stdinReader()
	key, err := resolveKey(reader)
	if err != nil {
		return err
	}
	hexKey, err := model.DecodePrivateKey(key)
	if err != nil {
		return err
	}
	issuerPubKey, err := nostr.GetPublicKey(hexKey)
	if err != nil {
		return errors.Wrap(model.ErrInvalidKey, "can't derive issuer public key")
	}
	if npub, nErr := nip19.EncodePublicKey(issuerPubKey); nErr == nil {
		fmt.Printf("Issuer: %v\n", npub)
	}

	source, err := badge.NewSource(conf.DefinitionsDir)
	if err != nil {
		return errors.Wrapf(err, "can't load badge definitions from %q", conf.DefinitionsDir)
	}
	if err = source.Watch(ctx); err != nil {
		return err
	}
	def, err := pickBadge(reader, source)
	if err != nil {
		return err
	}
	toAward, err := collectRecipients(reader)
	if err != nil {
		return err
	}
	if !assumeYes {
		answer, pErr := promptLine(reader, fmt.Sprintf("Award %q to %v recipient(s)? (y/n): ", def.DisplayName(), len(toAward)))
		if pErr != nil {
			return pErr
		}
		if answer != "y" {
			fmt.Println("cancelled")

			return nil
		}
	}

	publisher := relay.New()
	defer publisher.Close()
	engine := newEngine(conf, publisher)

	fmt.Printf("Publishing badge definition %q to %v relay(s)...\n", def.Identifier, len(conf.RelayURLs))
	defResult, defEvent, err := engine.CreateDefinition(ctx, def, key)
	if err != nil {
		return err
	}
	if err = reportResult(defResult); err != nil {
		return errors.Wrap(err, "badge definition was accepted by no relay")
	}

	ref := model.NewBadgeReference(issuerPubKey, def.Identifier)
	fmt.Printf("Awarding %v to %v recipient(s)...\n", ref.String(), len(toAward))
	awardResult, awardEvent, err := engine.AwardBadge(ctx, ref, toAward, key)
	if err != nil {
		return err
	}
	if err = reportResult(awardResult); err != nil {
		return errors.Wrap(err, "badge award was accepted by no relay")
	}
	verifyStored(ctx, publisher, awardEvent, conf)

	fmt.Println()
	fmt.Println("For recipients to accept this badge:")
	fmt.Printf("  Badge Definition: %v\n", ref.String())
	fmt.Printf("  Award Event ID:   %v\n", awardEvent.GetID())
	fmt.Printf("  (definition event id %v)\n", defEvent.GetID())

	return nil
}

func pickBadge(reader *bufio.Reader, source *badge.Source) (badge.Definition, error) {
	defs := source.Definitions()
	if badgeIdentifier != "" {
		for _, def := range defs {
			if def.Identifier == badgeIdentifier {
				return def, nil
			}
		}

		return badge.Definition{}, errors.Wrapf(model.ErrNotFound, "no badge definition with identifier %q", badgeIdentifier)
	}
	fmt.Println("\nAvailable badges:")
	for ix, def := range defs {
		fmt.Printf("[%v] %v — %v\n", ix+1, def.DisplayName(), def.Description)
	}
	answer, err := promptLine(reader, "Select badge to award (number): ")
	if err != nil {
		return badge.Definition{}, err
	}
	choice, err := strconv.Atoi(answer)
	if err != nil || choice < 1 || choice > len(defs) {
		return badge.Definition{}, errors.Wrapf(model.ErrValidation, "invalid badge selection %q", answer)
	}

	return defs[choice-1], nil
}

func collectRecipients(reader *bufio.Reader) ([]string, error) {
	if len(recipients) > 0 {
		return recipients, nil
	}
	fmt.Println("Enter recipient pubkeys (npub or hex), empty line to finish:")
	var collected []string
	for {
		line, err := promptLine(reader, "Recipient: ")
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		collected = append(collected, line)
	}
	if len(collected) == 0 {
		return nil, errors.Wrap(model.ErrValidation, "no recipients provided")
	}

	return collected, nil
}
