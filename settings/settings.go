// Copyright 2025 Kaspeak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package settings persists the local identity in an encrypted settings
// file. The wallet seed and derived username are serialized with CBOR and
// encrypted with AES-256-GCM under an application-wide key
package settings

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"github.com/kaspeak/kaspeak-go/cbor"
)

const (
	// DefaultPath is the default location of the settings file
	DefaultPath = "settings.kspk"

	// DefaultLogPath is the default location of the log file
	DefaultLogPath = "kaspeak.log"

	// SeedSize is the size of the generated wallet seed
	SeedSize = 32

	nonceSize = 12
)

// encryptionKey is the fixed application-wide settings key
var encryptionKey = []byte("E31CCF4FDF6446A2712294C6C757398F")

var (
	// ErrNoFile is returned by Load when the settings file does not exist
	ErrNoFile = errors.New("settings file does not exist")

	// ErrCiphertextTooShort is returned when the settings file is too small
	// to contain a nonce
	ErrCiphertextTooShort = errors.New("ciphertext is too short")
)

// Data holds the persisted settings
type Data struct {
	cbor.StructAsArray
	Seed     []byte
	Username string
}

// Settings manages the encrypted settings file
type Settings struct {
	Current Data
	path    string
}

// New returns a Settings instance backed by the provided file path, or the
// default path when empty
func New(path string) *Settings {
	if path == "" {
		path = DefaultPath
	}
	return &Settings{
		path: path,
	}
}

// Load reads and decrypts the settings file. It returns ErrNoFile when the
// file does not exist
func (s *Settings) Load() error {
	encrypted, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoFile
		}
		return fmt.Errorf("error reading file %s: %w", s.path, err)
	}
	decrypted, err := decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("error decrypting: %w", err)
	}
	var data Data
	if _, err := cbor.Decode(decrypted, &data); err != nil {
		return fmt.Errorf("error decoding settings: %w", err)
	}
	s.Current = data
	return nil
}

// Save encrypts and writes the current settings to the settings file
func (s *Settings) Save() error {
	serialized, err := cbor.Encode(&s.Current)
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	encrypted, err := encrypt(serialized)
	if err != nil {
		return fmt.Errorf("error encrypting: %w", err)
	}
	if err := os.WriteFile(s.path, encrypted, 0o600); err != nil {
		return fmt.Errorf("error writing file %s: %w", s.path, err)
	}
	return nil
}

// Initialize generates a fresh random seed and derived username and saves
// them to the settings file
func (s *Settings) Initialize() error {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return fmt.Errorf("error generating seed: %w", err)
	}
	s.Current = Data{
		Seed:     seed,
		Username: GenerateUsername(seed),
	}
	return s.Save()
}

// encrypt seals the plaintext with AES-256-GCM, prefixing the random nonce
func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens a nonce-prefixed AES-256-GCM ciphertext
func decrypt(combined []byte) ([]byte, error) {
	if len(combined) < nonceSize {
		return nil, ErrCiphertextTooShort
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce, ciphertext := combined[:nonceSize], combined[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
