//go:build wireinject
// +build wireinject

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
	"log/slog"

	"github.com/google/wire"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/controllers"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/middleware/jwtassertion"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/services"
)

var configProviderSet = wire.NewSet(
	ProvideConfigFromPtr,
	ProvideSigningConfig,
	ProvideOAuthConfig,
)

var serviceProviderSet = wire.NewSet(
	ProvideClientRegistry,
	services.NewKeyManager,
	services.NewAuthorizationCodeStore,
	services.NewTokenIssuer,
	ProvideLocalTokenVerifier,
)

var controllerProviderSet = wire.NewSet(
	controllers.NewAuthController,
	controllers.NewTokenController,
	controllers.NewLoginController,
)

// ProvideLogger provides the configured slog.Logger instance
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

var loggerProviderSet = wire.NewSet(
	ProvideLogger,
)

func InitializeAppParams(cfg *config.Config) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		serviceProviderSet,
		controllerProviderSet,
		ProvideAuthMiddleware, wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}

func InitializeTestAppParams(cfg *config.Config, authMiddleware jwtassertion.Middleware) (*AppParams, error) {
	wire.Build(
		configProviderSet,
		loggerProviderSet,
		serviceProviderSet,
		controllerProviderSet,
		wire.Struct(new(AppParams), "*"),
	)
	return &AppParams{}, nil
}
