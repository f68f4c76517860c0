// Package crypto holds the Tox identity types shared by the actors and the
// simulated network.
//
// A Tox identity is a Curve25519 key pair. Peers publish an address (ToxID)
// made of the public key, a four byte nospam value that can be changed to
// stop unwanted friend requests, and a two byte checksum:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id := crypto.NewToxID(keys.Public, crypto.NospamFromUint32(0xDEADBEEF))
//	fmt.Println(id) // 76 upper-case hex characters
//
// Parsing an address checks its length and checksum:
//
//	id, err := crypto.ToxIDFromString(address)
//	if errors.Is(err, crypto.ErrBadChecksum) {
//	    // typo in the address
//	}
//
// Seal and Open wrap NaCl crypto_box. A packet carries its random nonce.
package crypto
