package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// NonceSize is the length of a crypto_box nonce.
const NonceSize = 24

// Nonce is a 24-byte value used for encryption.
type Nonce [NonceSize]byte

// GenerateNonce creates a cryptographically secure random nonce.
func GenerateNonce() (Nonce, error) {
	var nonce Nonce
	if _, err := rand.Read(nonce[:]); err != nil {
		return Nonce{}, err
	}
	return nonce, nil
}

// Packet is a message sealed for one recipient, with the nonce it was sealed
// under.
type Packet struct {
	Nonce      Nonce
	Ciphertext []byte
}

// Seal encrypts message for recipient with authenticated encryption.
func Seal(message []byte, recipient PublicKey, sender *KeyPair) (Packet, error) {
	if len(message) == 0 {
		return Packet{}, ErrEmptyMessage
	}

	nonce, err := GenerateNonce()
	if err != nil {
		return Packet{}, fmt.Errorf("generate nonce: %w", err)
	}

	pub := [32]byte(recipient)
	out := box.Seal(nil, message, (*[NonceSize]byte)(&nonce), &pub, &sender.Private)
	return Packet{Nonce: nonce, Ciphertext: out}, nil
}

// Open authenticates and decrypts a packet sealed by sender.
func Open(p Packet, sender PublicKey, recipient *KeyPair) ([]byte, error) {
	if len(p.Ciphertext) == 0 {
		return nil, ErrEmptyMessage
	}

	pub := [32]byte(sender)
	out, ok := box.Open(nil, p.Ciphertext, (*[NonceSize]byte)(&p.Nonce), &pub, &recipient.Private)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}
