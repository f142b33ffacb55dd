// SPDX-License-Identifier: MIT

package model

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// DecodePrivateKey accepts an nsec1... string or 64 chars of hex and returns
// the hex form expected by the signer.
func DecodePrivateKey(key string) (string, error) {
	if strings.HasPrefix(key, "nsec1") {
		prefix, value, err := nip19.Decode(key)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidKey, "failed to decode nsec: %v", err)
		}
		if prefix != "nsec" {
			return "", errors.Wrapf(ErrInvalidKey, "unexpected bech32 prefix %q", prefix)
		}

		return value.(string), nil
	}
	if !isHex32(key) {
		return "", errors.Wrap(ErrInvalidKey, "private key must be nsec1... or 64 chars of hex")
	}

	return strings.ToLower(key), nil
}

// NormalizePublicKey accepts an npub1... string or 64 chars of hex and returns
// the hex form used in tags and filters.
func NormalizePublicKey(pubkey string) (string, error) {
	if strings.HasPrefix(pubkey, "npub1") {
		prefix, value, err := nip19.Decode(pubkey)
		if err != nil {
			return "", errors.Wrapf(ErrValidation, "failed to decode npub %q: %v", pubkey, err)
		}
		if prefix != "npub" {
			return "", errors.Wrapf(ErrValidation, "unexpected bech32 prefix %q", prefix)
		}

		return value.(string), nil
	}
	if !isHex32(pubkey) {
		return "", errors.Wrapf(ErrValidation, "public key must be npub1... or 64 chars of hex: %q", pubkey)
	}

	return strings.ToLower(pubkey), nil
}

// IsValidPublicKey reports whether pubkey is already in the canonical hex form.
func IsValidPublicKey(pubkey string) bool {
	return isHex32(pubkey) && strings.ToLower(pubkey) == pubkey
}

// IsValidEventID reports whether id looks like a sha256 event id.
func IsValidEventID(id string) bool {
	return isHex32(id) && strings.ToLower(id) == id
}

func isHex32(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)

	return err == nil
}
