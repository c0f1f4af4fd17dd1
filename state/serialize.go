package state

import (
	"encoding/base64"
	"fmt"
)

func (k OsPrivateKey) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(k[:])), nil
}
func (k OsPublicKey) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(k[:])), nil
}
func (k *OsPrivateKey) UnmarshalText(text []byte) error {
	data, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(data) != len(k) {
		return fmt.Errorf("private key must be %d bytes, got %d", len(k), len(data))
	}
	*k = OsPrivateKey(data)
	return nil
}
func (k *OsPublicKey) UnmarshalText(text []byte) error {
	data, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(data) != len(k) {
		return fmt.Errorf("public key must be %d bytes, got %d", len(k), len(data))
	}
	*k = OsPublicKey(data)
	return nil
}
