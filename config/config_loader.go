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

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Version is set through ldflags at build time
var Version = "dev"

var config *Config

func GetConfig() *Config {
	return config
}

func init() {
	loadEnvs()
}

func loadEnvs() {
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath != "" {
		err := godotenv.Load(envFilePath)
		if err != nil {
			panic(err)
		}
	}

	r := &configReader{}
	config = readConfig(r)
	r.logAndExitIfErrorsFound()

	slog.Info("configReader: configs loaded")
}

func readConfig(r *configReader) *Config {
	cfg := &Config{}
	cfg.ServerHost = r.readOptionalString("SERVER_HOST", "")
	cfg.ServerPort = int(r.readOptionalInt64("SERVER_PORT", 5000))
	cfg.AuthHeader = r.readOptionalString("AUTH_HEADER", "Authorization")
	cfg.AutoMaxProcsEnabled = r.readOptionalBool("AUTO_MAX_PROCS_ENABLED", true)
	cfg.CORSAllowedOrigin = r.readOptionalString("CORS_ALLOWED_ORIGIN", "*")
	cfg.PublicBaseURL = strings.TrimRight(r.readOptionalString("PUBLIC_BASE_URL", "http://localhost:5000"), "/")

	// Logging configuration
	cfg.LogLevel = r.readOptionalString("LOG_LEVEL", "INFO")
	cfg.PackageVersion = r.readOptionalString("IAA_AUTH_VERSION", Version)

	// HTTP Server timeout configurations
	cfg.ReadTimeoutSeconds = int(r.readOptionalInt64("HTTP_READ_TIMEOUT_SECONDS", 10))
	cfg.WriteTimeoutSeconds = int(r.readOptionalInt64("HTTP_WRITE_TIMEOUT_SECONDS", 30))
	cfg.IdleTimeoutSeconds = int(r.readOptionalInt64("HTTP_IDLE_TIMEOUT_SECONDS", 60))
	cfg.MaxHeaderBytes = int(r.readOptionalInt64("HTTP_MAX_HEADER_BYTES", 65536)) // 1024 * 64

	cfg.TLS = TLSConfig{
		Enabled: r.readOptionalBool("TLS_ENABLED", false),
		CertDir: r.readOptionalString("TLS_CERT_DIR", "./data/certs"),
	}

	cfg.Signing = SigningConfig{
		KeyID:   r.readOptionalString("SIGNING_KEY_ID", ""),
		KeyBits: int(r.readOptionalInt64("SIGNING_KEY_BITS", 2048)),
	}

	cfg.OAuth = OAuthConfig{
		Issuer:               strings.TrimRight(r.readOptionalString("OAUTH_ISSUER", cfg.PublicBaseURL), "/"),
		AuthorizationCodeTTL: r.readOptionalDuration("OAUTH_CODE_TTL", 10*time.Minute),
		AccessTokenTTL:       r.readOptionalDuration("OAUTH_ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:      r.readOptionalDuration("OAUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		DevMode:              r.readOptionalBool("OAUTH_DEV_MODE", true),
		ExternalCodePrefix:   r.readOptionalString("OAUTH_EXTERNAL_CODE_PREFIX", "mock_auth_code_"),
		ClientsConfigPath:    r.readOptionalString("OAUTH_CLIENTS_CONFIG_PATH", ""),
		MockUser: MockUserConfig{
			Subject: r.readOptionalString("MOCK_USER_SUBJECT", "mock-user-123"),
			Name:    r.readOptionalString("MOCK_USER_NAME", "Mock User"),
			Email:   r.readOptionalString("MOCK_USER_EMAIL", "mock@example.com"),
		},
	}

	cfg.KeyManagerConfigurations = KeyManagerConfigurations{
		Strategy: strings.ToLower(r.readOptionalString("TOKEN_VERIFIER_STRATEGY", VerifierStrategyRemoteJWKS)),
		// Comma-separated lists; empty disables the respective check
		Issuer:                 r.readOptionalStringList("KEY_MANAGER_ISSUER", cfg.OAuth.Issuer),
		Audience:               r.readOptionalStringList("KEY_MANAGER_AUDIENCE", ""),
		JWKSUrl:                r.readOptionalString("KEY_MANAGER_JWKS_URL", cfg.PublicBaseURL+"/api/auth/jwks"),
		StaticPublicKey:        r.readOptionalString("KEY_MANAGER_STATIC_PUBLIC_KEY", ""),
		StaticPublicKeyPath:    r.readOptionalString("KEY_MANAGER_STATIC_PUBLIC_KEY_PATH", ""),
		StaticKeyID:            r.readOptionalString("KEY_MANAGER_STATIC_KEY_ID", ""),
		IntrospectionURL:       r.readOptionalString("KEY_MANAGER_INTROSPECTION_URL", cfg.PublicBaseURL+"/api/auth/introspect"),
		RequestTimeout:         time.Duration(r.readOptionalInt64("REMOTE_AUTH_TIMEOUT_SECONDS", 5)) * time.Second,
		RetryAttemptsMax:       int(r.readOptionalInt64("REMOTE_AUTH_RETRY_ATTEMPTS", 0)),
		JWKSMinRefreshInterval: time.Duration(r.readOptionalInt64("JWKS_MIN_REFRESH_INTERVAL_SECONDS", 10)) * time.Second,
	}

	validateHTTPServerConfigs(cfg, r)
	validateOAuthConfigs(cfg, r)
	validateKeyManagerConfigs(cfg, r)

	return cfg
}

func validateHTTPServerConfigs(cfg *Config, r *configReader) {
	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		r.errors = append(r.errors, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort))
	}
	if cfg.ReadTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.ReadTimeoutSeconds))
	}
	if cfg.WriteTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_WRITE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.WriteTimeoutSeconds))
	}
	if cfg.ReadTimeoutSeconds >= cfg.WriteTimeoutSeconds {
		r.errors = append(r.errors, fmt.Errorf("HTTP_READ_TIMEOUT_SECONDS (%d) must be < HTTP_WRITE_TIMEOUT_SECONDS (%d)",
			cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds))
	}
	if cfg.IdleTimeoutSeconds <= 0 {
		r.errors = append(r.errors, fmt.Errorf("HTTP_IDLE_TIMEOUT_SECONDS must be greater than 0, got %d", cfg.IdleTimeoutSeconds))
	}
	if cfg.MaxHeaderBytes < 1024 || cfg.MaxHeaderBytes > 1048576 { // 1KB to 1MB
		r.errors = append(r.errors, fmt.Errorf("HTTP_MAX_HEADER_BYTES must be between 1024 and 1048576, got %d", cfg.MaxHeaderBytes))
	}
	if _, err := url.ParseRequestURI(cfg.PublicBaseURL); err != nil {
		r.errors = append(r.errors, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL: %w", err))
	}
	if cfg.TLS.Enabled && cfg.TLS.CertDir == "" {
		r.errors = append(r.errors, fmt.Errorf("TLS_CERT_DIR must be non-empty when TLS_ENABLED is set"))
	}
}

func validateOAuthConfigs(cfg *Config, r *configReader) {
	if cfg.Signing.KeyBits < 2048 {
		r.errors = append(r.errors, fmt.Errorf("SIGNING_KEY_BITS must be at least 2048, got %d", cfg.Signing.KeyBits))
	}
	if cfg.OAuth.AuthorizationCodeTTL <= 0 {
		r.errors = append(r.errors, fmt.Errorf("OAUTH_CODE_TTL must be greater than 0"))
	}
	if cfg.OAuth.AccessTokenTTL <= 0 {
		r.errors = append(r.errors, fmt.Errorf("OAUTH_ACCESS_TOKEN_TTL must be greater than 0"))
	}
	if cfg.OAuth.RefreshTokenTTL <= 0 {
		r.errors = append(r.errors, fmt.Errorf("OAUTH_REFRESH_TOKEN_TTL must be greater than 0"))
	}
	if cfg.OAuth.MockUser.Subject == "" {
		r.errors = append(r.errors, fmt.Errorf("MOCK_USER_SUBJECT must be non-empty"))
	}
	if cfg.OAuth.DevMode {
		slog.Warn("OAUTH_DEV_MODE is enabled: unregistered authorization codes are accepted, never use this outside local development")
	}
}

func validateKeyManagerConfigs(cfg *Config, r *configReader) {
	km := cfg.KeyManagerConfigurations
	switch km.Strategy {
	case VerifierStrategyRemoteJWKS:
		if km.JWKSUrl == "" {
			r.errors = append(r.errors, fmt.Errorf("KEY_MANAGER_JWKS_URL is required for the %s strategy", km.Strategy))
		}
	case VerifierStrategyStaticKey:
		if km.StaticPublicKey == "" && km.StaticPublicKeyPath == "" {
			r.errors = append(r.errors, fmt.Errorf("KEY_MANAGER_STATIC_PUBLIC_KEY or KEY_MANAGER_STATIC_PUBLIC_KEY_PATH is required for the %s strategy", km.Strategy))
		}
	case VerifierStrategyIntrospection:
		if km.IntrospectionURL == "" {
			r.errors = append(r.errors, fmt.Errorf("KEY_MANAGER_INTROSPECTION_URL is required for the %s strategy", km.Strategy))
		}
	default:
		r.errors = append(r.errors, fmt.Errorf("TOKEN_VERIFIER_STRATEGY must be one of %s, %s, %s; got %q",
			VerifierStrategyRemoteJWKS, VerifierStrategyStaticKey, VerifierStrategyIntrospection, km.Strategy))
	}
	if km.RequestTimeout <= 0 {
		r.errors = append(r.errors, fmt.Errorf("REMOTE_AUTH_TIMEOUT_SECONDS must be greater than 0"))
	}
	if km.RetryAttemptsMax < 0 {
		r.errors = append(r.errors, fmt.Errorf("REMOTE_AUTH_RETRY_ATTEMPTS must be zero or positive, got %d", km.RetryAttemptsMax))
	}
	if km.JWKSMinRefreshInterval < 0 {
		r.errors = append(r.errors, fmt.Errorf("JWKS_MIN_REFRESH_INTERVAL_SECONDS must be zero or positive"))
	}
}
