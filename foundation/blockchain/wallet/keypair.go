// Package wallet manages account key pairs, their encrypted storage on disk
// and the account operations built on top of a ledger.
package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"github.com/aurumchain/aurum/foundation/blockchain/signature"
)

// KeyPair represents an account's signing key and the address derived
// from its public key.
type KeyPair struct {
	privateKey *ecdsa.PrivateKey
	address    database.Address
}

// Generate creates a fresh key pair.
func Generate() (*KeyPair, error) {
	privateKey, err := signature.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return newKeyPair(privateKey), nil
}

// FromPrivateKeyPEM rebuilds the key pair from a serialized private key.
func FromPrivateKeyPEM(pemStr string) (*KeyPair, error) {
	privateKey, err := signature.DecodePrivateKey(pemStr)
	if err != nil {
		return nil, fmt.Errorf("invalid private key format: %w", err)
	}

	return newKeyPair(privateKey), nil
}

func newKeyPair(privateKey *ecdsa.PrivateKey) *KeyPair {
	return &KeyPair{
		privateKey: privateKey,
		address:    database.Address(signature.PublicKeyToAddress(&privateKey.PublicKey)),
	}
}

// Address returns the account address.
func (kp *KeyPair) Address() database.Address {
	return kp.address
}

// PublicKeyPEM returns the serialized public key.
func (kp *KeyPair) PublicKeyPEM() string {
	return signature.EncodePublicKey(&kp.privateKey.PublicKey)
}

// PrivateKeyPEM returns the serialized private key.
func (kp *KeyPair) PrivateKeyPEM() string {
	return signature.EncodePrivateKey(kp.privateKey)
}

// PrivateKey returns the signing key.
func (kp *KeyPair) PrivateKey() *ecdsa.PrivateKey {
	return kp.privateKey
}
