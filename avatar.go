package toxloop

import (
	"crypto/sha256"
	"fmt"

	"github.com/opd-ai/toxloop/limits"
)

// AvatarFormat is the image format of an avatar.
type AvatarFormat uint8

const (
	// AvatarFormatNone means no avatar is set.
	AvatarFormatNone AvatarFormat = iota
	AvatarFormatPNG
)

func (f AvatarFormat) String() string {
	switch f {
	case AvatarFormatNone:
		return "none"
	case AvatarFormatPNG:
		return "png"
	default:
		return fmt.Sprintf("AvatarFormat(%d)", uint8(f))
	}
}

// AvatarHash identifies avatar data. Peers compare hashes to skip
// downloading an avatar they already have.
type AvatarHash [limits.HashLength]byte

// HashAvatar returns the SHA-256 hash of avatar data.
func HashAvatar(data []byte) AvatarHash {
	return sha256.Sum256(data)
}

// Avatar is an avatar image with its format and hash. Format
// AvatarFormatNone comes with no data and a zero hash.
type Avatar struct {
	Format AvatarFormat
	Data   []byte
	Hash   AvatarHash
}
