package state

import (
	"crypto/ed25519"
	"crypto/rand"
)

type OsPrivateKey [ed25519.PrivateKeySize]byte
type OsPublicKey [ed25519.PublicKeySize]byte

func GenerateKey() OsPrivateKey {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return OsPrivateKey(key)
}

func (k OsPrivateKey) Pubkey() OsPublicKey {
	return OsPublicKey(ed25519.PrivateKey(k[:]).Public().(ed25519.PublicKey))
}

func (k OsPrivateKey) Ed() ed25519.PrivateKey {
	return ed25519.PrivateKey(k[:])
}

func (k OsPublicKey) Ed() ed25519.PublicKey {
	return ed25519.PublicKey(k[:])
}
