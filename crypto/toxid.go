package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// NospamSize is the length of the anti-spam part of an address.
	NospamSize = 4
	// ChecksumSize is the length of the address checksum.
	ChecksumSize = 2
	// ToxIDSize is the binary length of a full Tox address.
	ToxIDSize = PublicKeySize + NospamSize + ChecksumSize
)

// ToxID represents a Tox address: a public key, a nospam value and a checksum
// over both.
type ToxID struct {
	PublicKey PublicKey
	Nospam    [NospamSize]byte
	Checksum  [ChecksumSize]byte
}

// NewToxID creates a ToxID from a public key and nospam value.
func NewToxID(publicKey PublicKey, nospam [NospamSize]byte) *ToxID {
	id := &ToxID{
		PublicKey: publicKey,
		Nospam:    nospam,
	}
	id.Checksum = id.checksum()
	return id
}

// NospamFromUint32 encodes a nospam value the way it appears in an address.
func NospamFromUint32(v uint32) [NospamSize]byte {
	var n [NospamSize]byte
	binary.BigEndian.PutUint32(n[:], v)
	return n
}

// NospamValue returns the nospam part as a number.
func (id *ToxID) NospamValue() uint32 {
	return binary.BigEndian.Uint32(id.Nospam[:])
}

// ToxIDFromString parses a Tox address from its 76 character hexadecimal
// form. Upper and lower case are both accepted.
func ToxIDFromString(s string) (*ToxID, error) {
	if len(s) != 2*ToxIDSize {
		return nil, fmt.Errorf("%w: got %d characters", ErrInvalidToxIDLength, len(s))
	}

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToxID, err)
	}
	return ToxIDFromBytes(data)
}

// ToxIDFromBytes parses the binary form of an address and verifies its
// checksum.
func ToxIDFromBytes(data []byte) (*ToxID, error) {
	if len(data) != ToxIDSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidToxIDLength, len(data))
	}

	id := &ToxID{}
	copy(id.PublicKey[:], data[:PublicKeySize])
	copy(id.Nospam[:], data[PublicKeySize:PublicKeySize+NospamSize])
	copy(id.Checksum[:], data[PublicKeySize+NospamSize:])

	if id.Checksum != id.checksum() {
		return nil, ErrBadChecksum
	}
	return id, nil
}

// Bytes returns the 38 byte binary form.
func (id *ToxID) Bytes() []byte {
	data := make([]byte, ToxIDSize)
	copy(data[:PublicKeySize], id.PublicKey[:])
	copy(data[PublicKeySize:PublicKeySize+NospamSize], id.Nospam[:])
	copy(data[PublicKeySize+NospamSize:], id.Checksum[:])
	return data
}

// String returns the upper-case hexadecimal form of the address.
func (id *ToxID) String() string {
	return strings.ToUpper(hex.EncodeToString(id.Bytes()))
}

// checksum XORs the public key and nospam together two bytes at a time.
func (id *ToxID) checksum() [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	for i, b := range id.PublicKey {
		sum[i%2] ^= b
	}
	for i, b := range id.Nospam {
		sum[(PublicKeySize+i)%2] ^= b
	}
	return sum
}
