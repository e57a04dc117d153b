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
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/models"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// ClientRegistry tracks OAuth clients and their redirect URIs.
// Unknown clients are registered on first sight.
type ClientRegistry interface {
	// GetOrRegister upserts a client and reports whether it was newly created
	GetOrRegister(clientID, clientSecret, redirectURI string) (*models.Client, bool)
	Get(clientID string) (*models.Client, error)
	List() []string
}

type clientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
	logger  *slog.Logger
}

// NewClientRegistry creates an empty in-memory client registry
func NewClientRegistry(logger *slog.Logger) ClientRegistry {
	return &clientRegistry{
		clients: make(map[string]*models.Client),
		logger:  logger,
	}
}

// LoadClientRegistry creates a registry pre-populated from a YAML or JSON seed file
func LoadClientRegistry(path string, logger *slog.Logger) (ClientRegistry, error) {
	registry := NewClientRegistry(logger)
	if path == "" {
		return registry, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clients config file: %w", err)
	}

	var clientsConfig models.ClientsConfig
	if err := yaml.Unmarshal(data, &clientsConfig); err != nil {
		return nil, fmt.Errorf("failed to parse clients config: %w", err)
	}

	for i, c := range clientsConfig.Clients {
		if c.ClientID == "" {
			return nil, fmt.Errorf("clients[%d]: client_id is required", i)
		}
		registry.GetOrRegister(c.ClientID, c.ClientSecret, "")
		for _, uri := range c.RedirectURIs {
			registry.GetOrRegister(c.ClientID, "", uri)
		}
	}

	logger.Info("Loaded pre-registered clients", "path", path, "count", len(clientsConfig.Clients))
	return registry, nil
}

func (r *clientRegistry) GetOrRegister(clientID, clientSecret, redirectURI string) (*models.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, exists := r.clients[clientID]
	if !exists {
		client = &models.Client{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURIs: []string{},
		}
		if redirectURI != "" {
			client.RedirectURIs = append(client.RedirectURIs, redirectURI)
		}
		r.clients[clientID] = client
		r.logger.Info("Auto-registered client", "clientID", clientID)
		return cloneClient(client), true
	}

	if redirectURI != "" && !slices.Contains(client.RedirectURIs, redirectURI) {
		client.RedirectURIs = append(client.RedirectURIs, redirectURI)
		r.logger.Debug("Added redirect URI to client", "clientID", clientID, "redirectURI", redirectURI)
	}
	return cloneClient(client), false
}

func (r *clientRegistry) Get(clientID string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[clientID]
	if !exists {
		return nil, utils.ErrClientNotFound
	}
	return cloneClient(client), nil
}

// List returns the registered client IDs in sorted order
func (r *clientRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneClient(c *models.Client) *models.Client {
	return &models.Client{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURIs: slices.Clone(c.RedirectURIs),
	}
}
