// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package services

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

func TestClientRegistry_GetOrRegister(t *testing.T) {
	t.Run("Unknown client is created", func(t *testing.T) {
		registry := NewClientRegistry(testLogger())

		client, created := registry.GetOrRegister("c1", "secret", "https://app/x")
		assert.True(t, created)
		assert.Equal(t, "c1", client.ClientID)
		assert.Equal(t, "secret", client.ClientSecret)
		assert.Equal(t, []string{"https://app/x"}, client.RedirectURIs)
	})

	t.Run("Redirect URIs have set semantics and keep insertion order", func(t *testing.T) {
		registry := NewClientRegistry(testLogger())

		registry.GetOrRegister("c1", "", "https://app/x")
		registry.GetOrRegister("c1", "", "https://app/y")
		client, created := registry.GetOrRegister("c1", "", "https://app/x")

		assert.False(t, created)
		assert.Equal(t, []string{"https://app/x", "https://app/y"}, client.RedirectURIs)
	})

	t.Run("Client without redirect URI has an empty list", func(t *testing.T) {
		registry := NewClientRegistry(testLogger())

		client, _ := registry.GetOrRegister("c1", "", "")
		assert.NotNil(t, client.RedirectURIs)
		assert.Empty(t, client.RedirectURIs)
	})

	t.Run("Secret is kept from first registration", func(t *testing.T) {
		registry := NewClientRegistry(testLogger())

		registry.GetOrRegister("c1", "first", "")
		client, _ := registry.GetOrRegister("c1", "second", "")
		assert.Equal(t, "first", client.ClientSecret)
	})

	t.Run("Returned client is a copy", func(t *testing.T) {
		registry := NewClientRegistry(testLogger())

		client, _ := registry.GetOrRegister("c1", "", "https://app/x")
		client.RedirectURIs[0] = "https://evil/x"

		stored, err := registry.Get("c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://app/x"}, stored.RedirectURIs)
	})

	t.Run("Concurrent registration creates the client once", func(t *testing.T) {
		registry := NewClientRegistry(testLogger())

		var wg sync.WaitGroup
		var mu sync.Mutex
		created := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, isNew := registry.GetOrRegister("c1", "", "https://app/x"); isNew {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, created)
		client, err := registry.Get("c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://app/x"}, client.RedirectURIs)
	})
}

func TestClientRegistry_GetAndList(t *testing.T) {
	registry := NewClientRegistry(testLogger())

	_, err := registry.Get("missing")
	assert.ErrorIs(t, err, utils.ErrClientNotFound)

	registry.GetOrRegister("zeta", "", "")
	registry.GetOrRegister("alpha", "", "")
	assert.Equal(t, []string{"alpha", "zeta"}, registry.List())
}

func TestLoadClientRegistry(t *testing.T) {
	t.Run("Empty path yields an empty registry", func(t *testing.T) {
		registry, err := LoadClientRegistry("", testLogger())
		require.NoError(t, err)
		assert.Empty(t, registry.List())
	})

	t.Run("YAML seed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clients.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
clients:
  - client_id: diary-web
    client_secret: s3cret
    redirect_uris:
      - http://localhost:3001/callback
      - http://localhost:3001/callback
      - http://localhost:3001/popup
  - client_id: cli
`), 0o600))

		registry, err := LoadClientRegistry(path, testLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"cli", "diary-web"}, registry.List())

		client, err := registry.Get("diary-web")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", client.ClientSecret)
		assert.Equal(t, []string{"http://localhost:3001/callback", "http://localhost:3001/popup"}, client.RedirectURIs)
	})

	t.Run("JSON seed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clients.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"clients":[{"client_id":"c1","redirect_uris":["https://app/x"]}]}`), 0o600))

		registry, err := LoadClientRegistry(path, testLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"c1"}, registry.List())
	})

	t.Run("Entry without client_id is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clients.yaml")
		require.NoError(t, os.WriteFile(path, []byte("clients:\n  - client_secret: x\n"), 0o600))

		_, err := LoadClientRegistry(path, testLogger())
		assert.ErrorContains(t, err, "client_id is required")
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := LoadClientRegistry(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
		assert.Error(t, err)
	})
}
