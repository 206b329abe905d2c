package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"
)

// masterSecret is the HMAC key for deriving the ed25519 master node from a
// seed, per SLIP-0010.
const masterSecret = "ed25519 seed"

// NewMnemonic generates a fresh BIP-39 mnemonic with the given entropy size
// in bits (128 to 256, multiple of 32).
func NewMnemonic(entropyBits int) (string, error) {
	if entropyBits%32 != 0 || entropyBits < 128 || entropyBits > 256 {
		return "", ErrInvalidEntropySize
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// SeedFromMnemonic validates the mnemonic and returns its BIP-39 seed.
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, ""), nil
}

// IsMnemonicValid reports whether the mnemonic is a valid BIP-39 phrase.
func IsMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// extendedKey is one node of the SLIP-0010 ed25519 tree.
type extendedKey struct {
	key       []byte
	chainCode []byte
}

func masterKey(seed []byte) *extendedKey {
	mac := hmac.New(sha512.New, []byte(masterSecret))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return &extendedKey{key: sum[:32], chainCode: sum[32:]}
}

// child derives one hardened level. The ed25519 scheme defines hardened
// derivation only, so the hardened marker is forced onto the index.
func (k *extendedKey) child(index uint32) *extendedKey {
	index |= hardenedKeyStart

	data := make([]byte, 0, 37)
	data = append(data, 0x00)
	data = append(data, k.key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	zeroBytes(data)

	return &extendedKey{key: sum[:32], chainCode: sum[32:]}
}

func (k *extendedKey) wipe() {
	zeroBytes(k.key)
	zeroBytes(k.chainCode)
}

// deriveKey walks the path from the seed and returns the keypair of the
// leaf node. Intermediate node material is wiped as the walk advances.
func deriveKey(seed []byte, path DerivationPath) solana.PrivateKey {
	node := masterKey(seed)
	for _, component := range path {
		next := node.child(component)
		node.wipe()
		node = next
	}
	key := solana.PrivateKey(ed25519.NewKeyFromSeed(node.key))
	node.wipe()
	return key
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
