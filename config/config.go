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

package config

import "time"

// Token verifier strategies accepted by TOKEN_VERIFIER_STRATEGY
const (
	VerifierStrategyRemoteJWKS    = "remote_jwks"
	VerifierStrategyStaticKey     = "static_key"
	VerifierStrategyIntrospection = "introspection"
)

// Config holds all configuration for the application
type Config struct {
	PackageVersion      string
	ServerHost          string
	ServerPort          int
	AuthHeader          string
	AutoMaxProcsEnabled bool
	LogLevel            string
	// PublicBaseURL is the externally visible base URL of this server
	PublicBaseURL string
	// HTTP Server timeout configurations
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
	MaxHeaderBytes      int

	// CORSAllowedOrigin is the single allowed origin for CORS; use "*" to reflect any origin
	CORSAllowedOrigin string

	TLS TLSConfig

	// Signing holds the configuration of the token signing key
	Signing SigningConfig

	// OAuth holds authorization code and token issuance settings
	OAuth OAuthConfig

	// KeyManagerConfigurations configures how bearer tokens are verified
	KeyManagerConfigurations KeyManagerConfigurations
}

// TLSConfig holds the optional HTTPS listener configuration
type TLSConfig struct {
	Enabled bool
	// CertDir holds cert.pem/key.pem; a self-signed pair is generated when missing
	CertDir string
}

// SigningConfig holds configuration for the lazily generated signing key
type SigningConfig struct {
	// KeyID overrides the RFC 7638 thumbprint used as kid
	KeyID string
	// KeyBits is the RSA modulus size
	KeyBits int
}

// OAuthConfig holds configuration for the authorization code flow
type OAuthConfig struct {
	// Issuer is the iss claim; defaults to PublicBaseURL
	Issuer               string
	AuthorizationCodeTTL time.Duration
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	// DevMode accepts authorization codes that were never registered with this server
	DevMode bool
	// ExternalCodePrefix marks codes that embed their issuance time (prefix<unix-millis>_<suffix>)
	ExternalCodePrefix string
	// ClientsConfigPath optionally points to a YAML/JSON file of pre-registered clients
	ClientsConfigPath string
	MockUser          MockUserConfig
}

// MockUserConfig describes the identity every successful login resolves to
type MockUserConfig struct {
	Subject string
	Name    string
	Email   string
}

// KeyManagerConfigurations configures bearer token verification
type KeyManagerConfigurations struct {
	// Strategy is one of remote_jwks, static_key or introspection
	Strategy string
	Issuer   []string
	Audience []string
	JWKSUrl  string
	// StaticPublicKey is a PEM encoded RSA public key; takes precedence over StaticPublicKeyPath
	StaticPublicKey     string `json:"-"`
	StaticPublicKeyPath string
	StaticKeyID         string
	IntrospectionURL    string
	// RequestTimeout bounds each outbound call to a remote trust source
	RequestTimeout time.Duration
	// RetryAttemptsMax is the number of retries for remote trust source calls; 0 fails closed immediately
	RetryAttemptsMax int
	// JWKSMinRefreshInterval throttles re-fetches triggered by unknown key ids
	JWKSMinRefreshInterval time.Duration
}
