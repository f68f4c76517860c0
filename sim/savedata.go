package sim

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/crypto"
	"github.com/opd-ai/toxloop/limits"
)

// saveData is the persisted state of a node.
type saveData struct {
	SecretKey     string             `json:"secret_key"`
	Nospam        uint32             `json:"nospam"`
	Name          string             `json:"name"`
	StatusMessage string             `json:"status_message"`
	Status        toxloop.UserStatus `json:"status"`
	Friends       []savedFriend      `json:"friends"`
	Timestamp     int64              `json:"timestamp"`
}

type savedFriend struct {
	FriendID      uint32    `json:"friend_id"`
	PublicKey     string    `json:"public_key"`
	Name          string    `json:"name"`
	StatusMessage string    `json:"status_message"`
	LastOnline    time.Time `json:"last_online"`
}

func (n *Node) Save() []byte {
	defer n.core.enter("Save")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	s := saveData{
		SecretKey:     hex.EncodeToString(n.keys.Private[:]),
		Nospam:        n.nospam,
		Name:          n.name,
		StatusMessage: n.statusMessage,
		Status:        n.status,
		Timestamp:     time.Now().Unix(),
	}
	for _, num := range sortedKeys(n.friends) {
		f := n.friends[num]
		s.Friends = append(s.Friends, savedFriend{
			FriendID:      num,
			PublicKey:     f.publicKey.String(),
			Name:          f.name,
			StatusMessage: f.statusMessage,
			LastOnline:    f.lastOnline,
		})
	}

	data, _ := json.Marshal(s)
	return data
}

func (n *Node) Load(data []byte) error {
	defer n.core.enter("Load")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if err := n.restore(data); err != nil {
		return err
	}
	n.net.relink()
	return nil
}

// restore replaces identity and friends with data. Nothing changes when data
// is invalid. Invalid data yields ErrInvalidSaveData followed by every
// problem found, as one multierr error. Caller holds net.mu.
func (n *Node) restore(data []byte) error {
	var s saveData
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %w", toxloop.ErrInvalidSaveData, err)
	}

	keys, friends, err := s.validate()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Node.restore",
			"problems": len(multierr.Errors(err)),
			"error":    err.Error(),
		}).Warn("Rejecting save data")
		// The sentinel joins the problem list so multierr.Errors still
		// yields every problem.
		return multierr.Append(toxloop.ErrInvalidSaveData, err)
	}

	n.keys = keys
	n.nospam = s.Nospam
	n.name = s.Name
	n.statusMessage = s.StatusMessage
	n.status = s.Status
	n.friends = friends
	n.nextFriend = 0
	for num := range friends {
		if num >= n.nextFriend {
			n.nextFriend = num + 1
		}
	}
	n.transfers = make(map[transferKey]*transfer)
	n.nextFile = make(map[uint32]uint8)
	return nil
}

// validate checks every field and reports all problems at once.
func (s *saveData) validate() (*crypto.KeyPair, map[uint32]*friend, error) {
	var err error

	var keys *crypto.KeyPair
	raw, decErr := hex.DecodeString(s.SecretKey)
	switch {
	case decErr != nil:
		err = multierr.Append(err, fmt.Errorf("secret key: %w", decErr))
	case len(raw) != 32:
		err = multierr.Append(err, fmt.Errorf("secret key: %d bytes", len(raw)))
	default:
		var sk [32]byte
		copy(sk[:], raw)
		kp, kerr := crypto.FromSecretKey(sk)
		if kerr != nil {
			err = multierr.Append(err, kerr)
		}
		keys = kp
	}

	err = multierr.Append(err, limits.ValidateName(s.Name))
	err = multierr.Append(err, limits.ValidateStatusMessage(s.StatusMessage))
	if s.Status > toxloop.UserStatusBusy {
		err = multierr.Append(err, fmt.Errorf("user status %d", s.Status))
	}

	friends := make(map[uint32]*friend, len(s.Friends))
	seen := make(map[crypto.PublicKey]bool, len(s.Friends))
	for _, sf := range s.Friends {
		pk, perr := crypto.ParsePublicKey(sf.PublicKey)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("friend %d: %w", sf.FriendID, perr))
			continue
		}
		if seen[pk] {
			err = multierr.Append(err, fmt.Errorf("friend %d: duplicate key", sf.FriendID))
			continue
		}
		if _, dup := friends[sf.FriendID]; dup {
			err = multierr.Append(err, fmt.Errorf("friend %d: duplicate number", sf.FriendID))
			continue
		}
		if keys != nil && pk == keys.Public {
			err = multierr.Append(err, fmt.Errorf("friend %d: own key", sf.FriendID))
			continue
		}
		seen[pk] = true
		friends[sf.FriendID] = &friend{
			publicKey:     pk,
			name:          sf.Name,
			statusMessage: sf.StatusMessage,
			lastOnline:    sf.LastOnline,
			sendsReceipts: true,
		}
	}

	return keys, friends, err
}
