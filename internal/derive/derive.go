// Package derive turns a candidate phrase into its Solana address.
//
// The pipeline is the standard wallet derivation: PBKDF2-HMAC-SHA512 stretches
// the NFKD-normalized phrase into a 64-byte seed, SLIP-0010 walks the hardened
// path m/44'/501'/0'/0' to an ed25519 private key, and the base58-encoded
// public key is the address.
//
// Everything here is pure CPU work: deterministic, no I/O, no shared state.
// Two equal phrases always yield the same address, so derivation is safe to
// run concurrently on every worker.
package derive

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

const (
	seedIterations = 2048
	seedBytes      = 64
	saltPrefix     = "mnemonic"

	hardenedOffset = 0x80000000
	masterHMACKey  = "ed25519 seed"
)

// solanaPath is the account path m/44'/501'/0'/0'. All SLIP-0010 ed25519
// derivation is hardened; the offset is applied at walk time.
var solanaPath = [...]uint32{44, 501, 0, 0}

// Seed stretches a phrase into a 64-byte derivation seed.
// Phrase and passphrase are NFKD-normalized per BIP39 before hashing.
func Seed(phrase, passphrase string) []byte {
	p := norm.NFKD.String(phrase)
	salt := norm.NFKD.String(saltPrefix + passphrase)
	return pbkdf2.Key([]byte(p), []byte(salt), seedIterations, seedBytes, sha512.New)
}

// extendedKey is a SLIP-0010 node: 32 bytes of key material plus chain code.
type extendedKey struct {
	key       []byte
	chainCode []byte
}

func masterKey(seed []byte) extendedKey {
	mac := hmac.New(sha512.New, []byte(masterHMACKey))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return extendedKey{key: sum[:32], chainCode: sum[32:]}
}

// child derives the hardened child at index. The caller passes the raw index;
// the hardened offset is added here. Non-hardened derivation does not exist
// for ed25519 under SLIP-0010.
func (k extendedKey) child(index uint32) extendedKey {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, k.key...)
	data = binary.BigEndian.AppendUint32(data, index+hardenedOffset)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return extendedKey{key: sum[:32], chainCode: sum[32:]}
}

// Key returns the ed25519 private key for a phrase with no passphrase.
func Key(phrase string) ed25519.PrivateKey {
	node := masterKey(Seed(phrase, ""))
	for _, index := range solanaPath {
		node = node.child(index)
	}
	return ed25519.NewKeyFromSeed(node.key)
}

// Address returns the Solana address for a phrase: the base58-encoded
// ed25519 public key at m/44'/501'/0'/0'.
//
// Total over all inputs. Phrase shape (word count, vocabulary membership)
// is the candidate source's responsibility, not validated here.
func Address(phrase string) string {
	pub := Key(phrase).Public().(ed25519.PublicKey)
	return base58.Encode(pub)
}
