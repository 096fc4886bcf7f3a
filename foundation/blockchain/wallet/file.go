package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aurumchain/aurum/foundation/blockchain/database"
	"golang.org/x/crypto/scrypt"
)

// Set of error variables for wallet files.
var (
	ErrDecrypt          = errors.New("unable to decrypt private key, wrong password or corrupted file")
	ErrMalformedWallet  = errors.New("wallet file is malformed")
	ErrAddressMismatch  = errors.New("private key does not match the wallet address")
	ErrPasswordRequired = errors.New("password is required")
)

// Key derivation parameters. The salt is fixed so existing wallet files
// remain readable.
const (
	scryptSalt = "salt"
	scryptN    = 16384
	scryptR    = 8
	scryptP    = 1
	keyLen     = 32
)

// File is the on disk representation of a key pair.
type File struct {
	PublicKey           string           `json:"publicKey"`
	EncryptedPrivateKey string           `json:"encryptedPrivateKey"`
	Address             database.Address `json:"address"`
}

// Save encrypts the private key with the password and writes the wallet
// file, creating parent directories as needed.
func (kp *KeyPair) Save(path string, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}

	encrypted, err := encrypt([]byte(kp.PrivateKeyPEM()), password)
	if err != nil {
		return fmt.Errorf("encrypting private key: %w", err)
	}

	file := File{
		PublicKey:           kp.PublicKeyPEM(),
		EncryptedPrivateKey: encrypted,
		Address:             kp.Address(),
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating wallet directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing wallet file: %w", err)
	}

	return nil
}

// Load reads the wallet file and decrypts the private key with the password.
func Load(path string, password string) (*KeyPair, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}

	pemStr, err := decrypt(file.EncryptedPrivateKey, password)
	if err != nil {
		return nil, err
	}

	kp, err := FromPrivateKeyPEM(string(pemStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}

	if file.Address != "" && kp.Address() != file.Address {
		return nil, fmt.Errorf("%w: file[%s]: key[%s]", ErrAddressMismatch, file.Address, kp.Address())
	}

	return kp, nil
}

// ReadAddress returns the address stored in the wallet file without
// decrypting the private key.
func ReadAddress(path string) (database.Address, error) {
	file, err := readFile(path)
	if err != nil {
		return "", err
	}

	if !file.Address.IsAddress() {
		return "", fmt.Errorf("%w: invalid address %q", ErrMalformedWallet, file.Address)
	}

	return file.Address, nil
}

// =============================================================================

func readFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading wallet file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrMalformedWallet, err)
	}

	return file, nil
}

// deriveKey stretches the password into an AES-256 key.
func deriveKey(password string) ([]byte, error) {
	return scrypt.Key([]byte(password), []byte(scryptSalt), scryptN, scryptR, scryptP, keyLen)
}

// encrypt seals the data with AES-256-CBC and returns "<hex iv>:<hex data>".
func encrypt(data []byte, password string) (string, error) {
	key, err := deriveKey(password)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	plain := pad(data, aes.BlockSize)
	sealed := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(sealed, plain)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(sealed), nil
}

// decrypt reverses encrypt.
func decrypt(encrypted string, password string) ([]byte, error) {
	ivHex, dataHex, found := strings.Cut(encrypted, ":")
	if !found {
		return nil, fmt.Errorf("%w: encrypted key has no iv", ErrMalformedWallet)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid iv", ErrMalformedWallet)
	}

	sealed, err := hex.DecodeString(dataHex)
	if err != nil || len(sealed) == 0 || len(sealed)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: invalid ciphertext", ErrMalformedWallet)
	}

	key, err := deriveKey(password)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(sealed))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, sealed)

	data, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, ErrDecrypt
	}

	return data, nil
}

// pad applies PKCS#7 padding.
func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// unpad removes PKCS#7 padding.
func unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, errors.New("invalid padded length")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, errors.New("invalid padding")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}

	return data[:len(data)-n], nil
}
