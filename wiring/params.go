// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
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

package wiring

import (
	"fmt"
	"log/slog"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/controllers"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/jwtassertion"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/services"
)

// AppParams contains all wired application dependencies
type AppParams struct {
	Config config.Config

	// Middleware
	AuthMiddleware jwtassertion.Middleware
	Logger         *slog.Logger

	// Controllers
	AuthController  controllers.AuthController
	TokenController controllers.TokenController
	LoginController controllers.LoginController

	// Services
	KeyManager services.KeyManager
}

func ProvideConfigFromPtr(config *config.Config) config.Config {
	return *config
}

func ProvideSigningConfig(config config.Config) config.SigningConfig {
	return config.Signing
}

func ProvideOAuthConfig(config config.Config) config.OAuthConfig {
	return config.OAuth
}

// ProvideAuthMiddleware builds the bearer middleware around the configured verification strategy
func ProvideAuthMiddleware(config config.Config) (jwtassertion.Middleware, error) {
	verifier, err := jwtassertion.NewTokenVerifier(config.KeyManagerConfigurations)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}
	return jwtassertion.BearerAuthMiddleware(config.AuthHeader, verifier), nil
}

// ProvideLocalTokenVerifier verifies tokens against this server's own signing key
func ProvideLocalTokenVerifier(keyManager services.KeyManager, oauthConfig config.OAuthConfig) jwtassertion.TokenVerifier {
	return jwtassertion.NewLocalVerifier(keyManager, jwtassertion.ClaimRules{
		Issuers: []string{oauthConfig.Issuer},
	})
}

// ProvideClientRegistry creates the client registry, seeding it from the configured file if any
func ProvideClientRegistry(oauthConfig config.OAuthConfig, logger *slog.Logger) (services.ClientRegistry, error) {
	if oauthConfig.ClientsConfigPath == "" {
		return services.NewClientRegistry(logger), nil
	}
	return services.LoadClientRegistry(oauthConfig.ClientsConfigPath, logger)
}
