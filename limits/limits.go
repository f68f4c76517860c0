// Package limits provides centralized size limits for the Tox protocol.
// This ensures consistent validation across the actors and the simulated network.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxNameLength is the longest nickname a peer may set (128 bytes).
	MaxNameLength = 128

	// MaxStatusMessageLength is the longest status message (1007 bytes).
	MaxStatusMessageLength = 1007

	// MaxMessageLength is the largest friend or group message carried in one
	// packet (1368 bytes). Longer text must be split by the sender.
	MaxMessageLength = 1368

	// MaxFriendRequestLength is the largest friend request message (1016 bytes).
	MaxFriendRequestLength = 1016

	// MaxFilenameLength is the longest file name offered in a transfer.
	MaxFilenameLength = 255

	// MaxFileChunkLength is the largest piece of file data sent at once.
	MaxFileChunkLength = MaxMessageLength

	// MaxAvatarDataLength bounds avatar images (16 KiB).
	MaxAvatarDataLength = 16384

	// HashLength is the length of avatar hashes.
	HashLength = 32
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")
)

// ValidateMessageSize validates data against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateMessage validates a friend or group message against MaxMessageLength.
func ValidateMessage(message string) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > MaxMessageLength {
		return fmt.Errorf("%w: message size %d exceeds limit %d", ErrMessageTooLarge, len(message), MaxMessageLength)
	}
	return nil
}

// ValidateFriendRequest validates a friend request message.
func ValidateFriendRequest(message string) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > MaxFriendRequestLength {
		return fmt.Errorf("%w: friend request size %d exceeds limit %d", ErrMessageTooLarge, len(message), MaxFriendRequestLength)
	}
	return nil
}

// ValidateName validates a nickname. Empty names are allowed.
func ValidateName(name string) error {
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name size %d exceeds limit %d", ErrMessageTooLarge, len(name), MaxNameLength)
	}
	return nil
}

// ValidateStatusMessage validates a status message. Empty messages are allowed.
func ValidateStatusMessage(message string) error {
	if len(message) > MaxStatusMessageLength {
		return fmt.Errorf("%w: status message size %d exceeds limit %d", ErrMessageTooLarge, len(message), MaxStatusMessageLength)
	}
	return nil
}

// ValidateFilename validates the name of an offered file.
func ValidateFilename(name string) error {
	if len(name) == 0 {
		return ErrMessageEmpty
	}
	if len(name) > MaxFilenameLength {
		return fmt.Errorf("%w: file name size %d exceeds limit %d", ErrMessageTooLarge, len(name), MaxFilenameLength)
	}
	return nil
}

// ValidateFileChunk validates one piece of file data.
func ValidateFileChunk(data []byte) error {
	return ValidateMessageSize(data, MaxFileChunkLength)
}

// ValidateAvatar validates avatar image data.
func ValidateAvatar(data []byte) error {
	return ValidateMessageSize(data, MaxAvatarDataLength)
}
