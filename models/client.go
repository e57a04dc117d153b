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

package models

// Client is an OAuth client known to the registry
type Client struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret,omitempty"`
	RedirectURIs []string `json:"redirect_uris"`
}

// ClientsConfig is the layout of the optional client seed file
type ClientsConfig struct {
	Clients []Client `json:"clients"`
}

// RegisterClientRequest is the body of POST /api/auth/register-client
type RegisterClientRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
}

// RegisterClientResponse is returned by POST /api/auth/register-client
type RegisterClientResponse struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// ClientStatusResponse is returned by GET /api/auth/clients/{clientId}
type ClientStatusResponse struct {
	ClientID       string   `json:"client_id"`
	Registered     bool     `json:"registered"`
	RedirectURIs   []string `json:"redirect_uris"`
	AutoRegistered bool     `json:"auto_registered,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	OK                bool     `json:"ok"`
	Service           string   `json:"service"`
	Version           string   `json:"version,omitempty"`
	RegisteredClients []string `json:"registered_clients"`
}
