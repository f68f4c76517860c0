// Package limits provides the Tox protocol size constants and the validation
// functions built on them.
//
// # Size Limits
//
//   - MaxNameLength (128 bytes): nicknames of the local user and of peers.
//   - MaxStatusMessageLength (1007 bytes): free-form status text.
//   - MaxMessageLength (1368 bytes): one friend or group message. Longer text
//     is split by the sender, see toxloop.SplitMessage.
//   - MaxFriendRequestLength (1016 bytes): the message attached to a friend
//     request.
//   - MaxFilenameLength (255 bytes) and MaxFileChunkLength: file transfers.
//   - MaxAvatarDataLength (16 KiB): avatar images, hashed to HashLength bytes.
//
// # Validation Functions
//
// Message validators reject empty input with ErrMessageEmpty and oversized
// input with ErrMessageTooLarge:
//
//	if err := limits.ValidateMessage(text); err != nil {
//	    // errors.Is(err, limits.ErrMessageTooLarge)
//	}
//
// Names and status messages may be empty; only their upper bound is checked.
package limits
