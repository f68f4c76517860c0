package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// PublicKeySize is the length of a Tox long-term public key.
const PublicKeySize = 32

// PublicKey is a Tox long-term public key. Friends are addressed by it once
// the nospam part of their address no longer matters.
type PublicKey [PublicKeySize]byte

// String returns the upper-case hexadecimal form used by Tox clients.
func (pk PublicKey) String() string {
	return strings.ToUpper(hex.EncodeToString(pk[:]))
}

// IsZero reports whether the key is all zeros.
func (pk PublicKey) IsZero() bool {
	return isZeroKey(pk)
}

// ParsePublicKey decodes a hexadecimal public key in either case.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	if len(s) != 2*PublicKeySize {
		return pk, fmt.Errorf("%w: got %d characters", ErrInvalidPublicKey, len(s))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	copy(pk[:], data)
	return pk, nil
}

// KeyPair represents a NaCl crypto_box key pair used for Tox communications.
type KeyPair struct {
	Public  PublicKey
	Private [32]byte
}

// GenerateKeyPair creates a new random NaCl key pair.
func GenerateKeyPair() (*KeyPair, error) {
	publicKey, privateKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		Public:  *publicKey,
		Private: *privateKey,
	}, nil
}

// FromSecretKey rebuilds a key pair from a stored private key.
func FromSecretKey(secretKey [32]byte) (*KeyPair, error) {
	if isZeroKey(secretKey) {
		return nil, ErrInvalidSecretKey
	}

	public, err := curve25519.X25519(secretKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}

	kp := &KeyPair{Private: secretKey}
	copy(kp.Public[:], public)
	return kp, nil
}

// Wipe overwrites the private key with zeros. The pair cannot open or seal
// packets afterwards.
func (kp *KeyPair) Wipe() {
	if kp == nil {
		return
	}
	zeros := make([]byte, len(kp.Private))
	subtle.ConstantTimeCompare(kp.Private[:], zeros)
	copy(kp.Private[:], zeros)
	runtime.KeepAlive(kp)
}

func isZeroKey(key [32]byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}
