// Package signature provides helper functions for handling the blockchain
// hashing, key encoding and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// AddressPrefix is the literal prefix every Aurum address starts with.
const AddressPrefix = "AUR"

// addressHexLength is the number of hash characters kept in an address.
const addressHexLength = 40

// aurumID is an arbitrary number for signing messages. This will make it
// clear that the signature comes from the Aurum ledger.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const aurumID = 31

// PEM block types used to serialize secp256k1 keys. The standard library
// x509 package does not know the curve, so the raw key bytes are stored.
const (
	publicKeyPEMType  = "SECP256K1 PUBLIC KEY"
	privateKeyPEMType = "SECP256K1 PRIVATE KEY"
)

// ErrInvalidSignature is returned when a signature can't be decoded or
// doesn't recover to a public key.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the SHA-256 lowercase hex digest of the data.
func Hash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// GenerateKey produces a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// EncodePublicKey serializes the public key into a PEM string. This string
// is the input for address derivation.
func EncodePublicKey(publicKey *ecdsa.PublicKey) string {
	block := pem.Block{
		Type:  publicKeyPEMType,
		Bytes: crypto.FromECDSAPub(publicKey),
	}

	return string(pem.EncodeToMemory(&block))
}

// DecodePublicKey parses a PEM string produced by EncodePublicKey.
func DecodePublicKey(pemStr string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil || block.Type != publicKeyPEMType {
		return nil, errors.New("public key is not a secp256k1 pem block")
	}

	return crypto.UnmarshalPubkey(block.Bytes)
}

// EncodePrivateKey serializes the private key into a PEM string.
func EncodePrivateKey(privateKey *ecdsa.PrivateKey) string {
	block := pem.Block{
		Type:  privateKeyPEMType,
		Bytes: crypto.FromECDSA(privateKey),
	}

	return string(pem.EncodeToMemory(&block))
}

// DecodePrivateKey parses a PEM string produced by EncodePrivateKey.
func DecodePrivateKey(pemStr string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil || block.Type != privateKeyPEMType {
		return nil, errors.New("private key is not a secp256k1 pem block")
	}

	return crypto.ToECDSA(block.Bytes)
}

// =============================================================================

// Address derives the account address from a serialized public key.
func Address(publicKeyPEM string) string {
	return AddressPrefix + Hash(publicKeyPEM)[:addressHexLength]
}

// PublicKeyToAddress derives the account address from the public key.
func PublicKeyToAddress(publicKey *ecdsa.PublicKey) string {
	return Address(EncodePublicKey(publicKey))
}

// IsAddress verifies the string is formatted as an Aurum address.
func IsAddress(s string) bool {
	if len(s) != len(AddressPrefix)+addressHexLength {
		return false
	}

	if !strings.HasPrefix(s, AddressPrefix) {
		return false
	}

	for _, c := range s[len(AddressPrefix):] {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}

	return true
}

// =============================================================================

// Sign uses the specified private key to sign the message. The signature
// is returned hex encoded in the [R|S|V] format.
func Sign(message string, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data := stamp(message)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", ErrInvalidSignature
	}

	// Stamp the recovery id with the Aurum id.
	sig[crypto.RecoveryIDOffset] += aurumID

	return hexutil.Encode(sig), nil
}

// RecoverPublicKey extracts the public key that produced the signature for
// the specified message.
func RecoverPublicKey(message string, sigStr string) (*ecdsa.PublicKey, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	// Check the recovery id is either 0 or 1.
	v := sig[crypto.RecoveryIDOffset] - aurumID
	if v != 0 && v != 1 {
		return nil, fmt.Errorf("%w: recovery id", ErrInvalidSignature)
	}

	// Check the signature values are valid.
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return nil, fmt.Errorf("%w: signature values", ErrInvalidSignature)
	}

	sig[crypto.RecoveryIDOffset] = v

	return crypto.SigToPub(stamp(message), sig)
}

// VerifyAddress reports whether the signature over the message was produced
// by the key behind the specified address.
func VerifyAddress(message string, sigStr string, address string) bool {
	publicKey, err := RecoverPublicKey(message, sigStr)
	if err != nil {
		return false
	}

	return PublicKeyToAddress(publicKey) == address
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this message with
// the Aurum stamp embedded into the final hash.
func stamp(message string) []byte {

	// Hash the message into a 32 byte array. This will provide
	// a data length consistency with all data.
	msgHash := crypto.Keccak256([]byte(message))

	// This stamp is used so signatures we produce when signing data
	// are always unique to the Aurum ledger.
	stamp := []byte("\x19Aurum Signed Message:\n32")

	// Hash the stamp and msgHash together in a final 32 byte array
	// that represents the data.
	return crypto.Keccak256(stamp, msgHash)
}
