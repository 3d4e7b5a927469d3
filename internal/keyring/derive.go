package keyring

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"ewt/internal/common"
)

// Standard account derivation path: m/44'/60'/0'/0/index.
const (
	purpose  = 44
	coinType = 60
)

// seedFromMnemonic stretches a validated mnemonic into the 64-byte BIP39
// seed. Caller owns the returned bytes and must zero them on lock.
func seedFromMnemonic(mnemonic string) []byte {
	return bip39.NewSeed(mnemonic, "")
}

// deriveKey derives the private key at m/44'/60'/0'/0/index from the seed.
func deriveKey(seed []byte, index uint32) (*btcec.PrivateKey, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	defer master.Zero()

	path := []uint32{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart, // account 0'
		0,                           // external chain
		index,
	}

	key := master
	for _, step := range path {
		next, err := key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("failed to derive step %d: %w", step, err)
		}
		if key != master {
			key.Zero()
		}
		key = next
	}
	defer key.Zero()

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}
	return priv, nil
}

// addressFromKey computes the EVM address of a key: the last 20 bytes of
// keccak256 over the uncompressed public key without its 0x04 prefix.
func addressFromKey(priv *btcec.PrivateKey) (address, publicKey string) {
	pub := priv.PubKey().SerializeUncompressed()
	digest := common.Keccak256(pub[1:])
	return common.BytesToHex(digest[12:]), common.BytesToHex(pub)
}

// validMnemonic checks word count and checksum against the standard wordlist.
func validMnemonic(mnemonic string) bool {
	switch len(strings.Fields(mnemonic)) {
	case 12, 15, 24:
		return bip39.IsMnemonicValid(mnemonic)
	default:
		return false
	}
}
