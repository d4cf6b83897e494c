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

package settings_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kaspeak/kaspeak-go/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsInitializeAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.kspk")
	s := settings.New(path)
	require.NoError(t, s.Initialize())
	assert.Len(t, s.Current.Seed, settings.SeedSize)
	assert.NotEmpty(t, s.Current.Username)

	loaded := settings.New(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, s.Current.Seed, loaded.Current.Seed)
	assert.Equal(t, s.Current.Username, loaded.Current.Username)
}

func TestSettingsLoadMissingFile(t *testing.T) {
	s := settings.New(filepath.Join(t.TempDir(), "missing.kspk"))
	assert.ErrorIs(t, s.Load(), settings.ErrNoFile)
}

func TestSettingsLoadCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.kspk")
	require.NoError(t, os.WriteFile(path, []byte("not encrypted data"), 0o600))
	s := settings.New(path)
	assert.Error(t, s.Load())
}

func TestSettingsFileIsEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.kspk")
	s := settings.New(path)
	require.NoError(t, s.Initialize())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// The username must not appear in the file as plaintext
	assert.NotContains(t, string(raw), s.Current.Username)
}

func TestGenerateUsernameDeterministic(t *testing.T) {
	seed := []byte("fixed seed for username generation")
	first := settings.GenerateUsername(seed)
	second := settings.GenerateUsername(seed)
	assert.Equal(t, first, second)
	// "{adjective}{noun} {emoji}"
	assert.Contains(t, first, " ")
	assert.NotEqual(t, first, settings.GenerateUsername([]byte("other seed")))
}

func TestGenerateUsernameSpread(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		name := settings.GenerateUsername([]byte{byte(i)})
		require.False(t, strings.HasPrefix(name, " "))
		seen[name] = struct{}{}
	}
	// Different seeds should map to mostly distinct names
	assert.Greater(t, len(seen), 60)
}
