// Package signer resolves a per-request signing secret — either a raw
// hex private key or a BIP-39 mnemonic plus derivation index — into an
// ECDSA key for the duration of one call. Nothing here is persisted;
// the caller is responsible for letting the key fall out of scope once
// the request completes.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// derivationPath is m/44'/60'/0'/0/{index}, the standard Ethereum BIP-44
// path.
const (
	purposeIndex  = 44
	coinTypeIndex = 60
	accountIndex  = 0
	changeIndex   = 0
)

// Secret is the caller-supplied signing material for one request. Either
// HexKey or Mnemonic must be set, never both. It is never logged — see
// Secret.String, which redacts.
type Secret struct {
	HexKey         string
	Mnemonic       string
	DerivationIndex uint32
}

// String deliberately never reveals the secret, so a Secret accidentally
// reaching a %v or %s format verb in a log statement degrades safely.
func (s Secret) String() string {
	return "signer.Secret{REDACTED}"
}

// Resolve turns a Secret into an ECDSA private key, valid only for the
// call that requested it.
func Resolve(s Secret) (*ecdsa.PrivateKey, error) {
	switch {
	case s.HexKey != "":
		return resolveHexKey(s.HexKey)
	case s.Mnemonic != "":
		return deriveFromMnemonic(s.Mnemonic, s.DerivationIndex)
	default:
		return nil, fmt.Errorf("signer: secret has neither a hex key nor a mnemonic")
	}
}

func resolveHexKey(hexKey string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("signer: invalid hex private key")
	}
	return key, nil
}

// deriveFromMnemonic derives an ECDSA key at m/44'/60'/0'/0/{index}.
func deriveFromMnemonic(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	seed := bip39.NewSeed(mnemonic, "")

	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("signer: creating master key: %w", err)
	}

	purpose, err := masterKey.NewChildKey(bip32.FirstHardenedChild + purposeIndex)
	if err != nil {
		return nil, fmt.Errorf("signer: deriving purpose: %w", err)
	}
	coinType, err := purpose.NewChildKey(bip32.FirstHardenedChild + coinTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("signer: deriving coin type: %w", err)
	}
	account, err := coinType.NewChildKey(bip32.FirstHardenedChild + accountIndex)
	if err != nil {
		return nil, fmt.Errorf("signer: deriving account: %w", err)
	}
	change, err := account.NewChildKey(changeIndex)
	if err != nil {
		return nil, fmt.Errorf("signer: deriving change: %w", err)
	}
	child, err := change.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("signer: deriving child %d: %w", index, err)
	}

	key, err := crypto.ToECDSA(child.Key)
	if err != nil {
		return nil, fmt.Errorf("signer: converting to ECDSA: %w", err)
	}
	return key, nil
}

// AddressOf returns the Ethereum address a key derives to, for logs and
// balance/allowance lookups.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
