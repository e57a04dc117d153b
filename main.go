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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/api"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/server"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/signals"
	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/wiring"
)

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default to INFO
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Logger configured",
		"level", level.String())
}

func main() {
	cfg := config.GetConfig()

	setupLogger(cfg)

	if cfg.AutoMaxProcsEnabled {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			// Convert printf-style format string to plain message for structured logging
			slog.Info(fmt.Sprintf(format, args...))
		})); err != nil {
			slog.Error("Failed to set maxprocs", "error", err)
			os.Exit(1)
		}
	}

	dependencies, err := wiring.InitializeAppParams(cfg)
	if err != nil {
		slog.Error("failed to initialize app dependencies", "error", err)
		os.Exit(1)
	}

	// Generate the signing key up front; the service cannot issue or publish anything without it
	signingKey, err := dependencies.KeyManager.GetSigningKey(context.Background())
	if err != nil {
		slog.Error("failed to generate signing key", "error", err)
		os.Exit(1)
	}
	slog.Info("Signing key ready", "keyID", signingKey.KeyID, "algorithm", signingKey.Algorithm)

	handler := api.MakeHTTPHandler(dependencies)
	mainServer := server.NewServer(cfg, handler)

	stopCh := signals.SetupSignalHandler()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		<-stopCh
		slog.Info("Shutdown signal received, stopping server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := mainServer.Shutdown(ctx); err != nil {
			slog.Error("Server forced shutdown after timeout", "error", err)
		}
	}()

	slog.Info("IAA auth service is running",
		"address", mainServer.Addr(),
		"publicBaseURL", cfg.PublicBaseURL,
		"issuer", cfg.OAuth.Issuer,
		"verifierStrategy", cfg.KeyManagerConfigurations.Strategy,
		"devMode", cfg.OAuth.DevMode,
		"version", cfg.PackageVersion)
	if err := mainServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	wg.Wait()
	slog.Info("Server shut down successfully")
}
