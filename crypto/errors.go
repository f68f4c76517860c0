package crypto

import "errors"

var (
	// ErrInvalidSecretKey indicates a private key that cannot produce a key pair.
	ErrInvalidSecretKey = errors.New("invalid secret key")
	// ErrInvalidPublicKey indicates a malformed public key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidToxID indicates an address that is not valid hexadecimal.
	ErrInvalidToxID = errors.New("invalid Tox ID")
	// ErrInvalidToxIDLength indicates an address of the wrong length.
	ErrInvalidToxIDLength = errors.New("invalid Tox ID length")
	// ErrBadChecksum indicates an address whose checksum does not match.
	ErrBadChecksum = errors.New("invalid Tox ID checksum")
)

var (
	// ErrEmptyMessage indicates there was nothing to seal or open.
	ErrEmptyMessage = errors.New("empty message")
	// ErrDecryptionFailed indicates a packet that does not authenticate
	// against the given keys.
	ErrDecryptionFailed = errors.New("decryption failed")
)
