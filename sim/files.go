package sim

import (
	"github.com/opd-ai/toxloop"
	"github.com/opd-ai/toxloop/limits"
)

type transferKey struct {
	friend    uint32
	direction toxloop.TransferDirection
	file      uint8
}

type transfer struct {
	filename  string
	size      uint64
	remaining uint64
	accepted  bool
	paused    bool
}

func opposite(d toxloop.TransferDirection) toxloop.TransferDirection {
	if d == toxloop.TransferSending {
		return toxloop.TransferReceiving
	}
	return toxloop.TransferSending
}

// dropTransfers forgets every transfer with friendID. Caller holds net.mu.
func (n *Node) dropTransfers(friendID uint32) {
	for k := range n.transfers {
		if k.friend == friendID {
			delete(n.transfers, k)
		}
	}
}

func (n *Node) NewFileSender(friendID uint32, size uint64, filename string) (uint8, error) {
	defer n.core.enter("NewFileSender")()
	if err := limits.ValidateFilename(filename); err != nil {
		return 0, err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, err := n.lookup(friendID); err != nil {
		return 0, err
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return 0, toxloop.ErrFriendNotConnected
	}

	file := n.nextFile[friendID]
	key := transferKey{friend: friendID, direction: toxloop.TransferSending, file: file}
	if _, busy := n.transfers[key]; busy {
		return 0, toxloop.ErrFileTransferState
	}
	n.nextFile[friendID] = file + 1

	n.transfers[key] = &transfer{filename: filename, size: size, remaining: size}
	p.transfers[transferKey{friend: back, direction: toxloop.TransferReceiving, file: file}] =
		&transfer{filename: filename, size: size, remaining: size}

	p.post(func(cb *callbacks) {
		if cb.fileSendRequest != nil {
			cb.fileSendRequest(back, file, size, filename)
		}
	})
	return file, nil
}

func (n *Node) FileSendControl(friendID uint32, direction toxloop.TransferDirection, fileID uint8, control toxloop.FileControl, data []byte) error {
	defer n.core.enter("FileSendControl")()

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	key := transferKey{friend: friendID, direction: direction, file: fileID}
	t, ok := n.transfers[key]
	if !ok {
		return toxloop.ErrFileNotFound
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return toxloop.ErrFriendNotConnected
	}
	peerKey := transferKey{friend: back, direction: opposite(direction), file: fileID}
	pt := p.transfers[peerKey]

	switch control {
	case toxloop.FileControlAccept:
		// The receiver accepts an offer; either side may resume a pause.
		if direction == toxloop.TransferSending && !t.paused {
			return toxloop.ErrFileTransferState
		}
		t.accepted, t.paused = true, false
		if pt != nil {
			pt.accepted, pt.paused = true, false
		}
	case toxloop.FileControlPause:
		if !t.accepted {
			return toxloop.ErrFileTransferState
		}
		t.paused = true
		if pt != nil {
			pt.paused = true
		}
	case toxloop.FileControlResumeBroken:
		if !t.accepted {
			return toxloop.ErrFileTransferState
		}
		t.paused = false
		if pt != nil {
			pt.paused = false
		}
	case toxloop.FileControlKill:
		delete(n.transfers, key)
		delete(p.transfers, peerKey)
	case toxloop.FileControlFinished:
		if direction != toxloop.TransferSending || t.remaining != 0 {
			return toxloop.ErrFileTransferState
		}
		delete(n.transfers, key)
		delete(p.transfers, peerKey)
	default:
		return toxloop.ErrFileTransferState
	}

	dir := opposite(direction)
	p.post(func(cb *callbacks) {
		if cb.fileControl != nil {
			cb.fileControl(back, dir, fileID, control, data)
		}
	})
	return nil
}

func (n *Node) FileSendData(friendID uint32, fileID uint8, data []byte) error {
	defer n.core.enter("FileSendData")()
	if err := limits.ValidateFileChunk(data); err != nil {
		return err
	}

	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	t, ok := n.transfers[transferKey{friend: friendID, direction: toxloop.TransferSending, file: fileID}]
	if !ok {
		return toxloop.ErrFileNotFound
	}
	if !t.accepted || t.paused || uint64(len(data)) > t.remaining {
		return toxloop.ErrFileTransferState
	}
	p, back, ok := n.peer(friendID)
	if !ok {
		return toxloop.ErrFriendNotConnected
	}

	t.remaining -= uint64(len(data))
	if pt, ok := p.transfers[transferKey{friend: back, direction: toxloop.TransferReceiving, file: fileID}]; ok {
		pt.remaining = t.remaining
	}

	chunk := append([]byte(nil), data...)
	p.post(func(cb *callbacks) {
		if cb.fileData != nil {
			cb.fileData(back, fileID, chunk)
		}
	})
	return nil
}

func (n *Node) FileDataSize(friendID uint32) (int, error) {
	defer n.core.enter("FileDataSize")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	if _, err := n.lookup(friendID); err != nil {
		return 0, err
	}
	return limits.MaxFileChunkLength, nil
}

func (n *Node) FileDataRemaining(friendID uint32, fileID uint8, direction toxloop.TransferDirection) (uint64, error) {
	defer n.core.enter("FileDataRemaining")()
	n.net.mu.Lock()
	defer n.net.mu.Unlock()

	t, ok := n.transfers[transferKey{friend: friendID, direction: direction, file: fileID}]
	if !ok {
		return 0, toxloop.ErrFileNotFound
	}
	return t.remaining, nil
}
