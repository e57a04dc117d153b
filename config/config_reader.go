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
	"os"
	"strconv"
	"strings"
	"time"
)

// configReader reads typed values from the environment and collects every
// parse error so that all misconfigurations are reported at once.
type configReader struct {
	errors []error
	// lookup defaults to os.LookupEnv
	lookup func(key string) (string, bool)
}

func (r *configReader) get(key string) (string, bool) {
	if r.lookup != nil {
		return r.lookup(key)
	}
	return os.LookupEnv(key)
}

func (r *configReader) readOptionalString(key string, defaultValue string) string {
	value, ok := r.get(key)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}

func (r *configReader) readOptionalInt64(key string, defaultValue int64) int64 {
	value, ok := r.get(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be an integer: %w", key, err))
		return defaultValue
	}
	return parsed
}

func (r *configReader) readOptionalBool(key string, defaultValue bool) bool {
	value, ok := r.get(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be a boolean: %w", key, err))
		return defaultValue
	}
	return parsed
}

func (r *configReader) readOptionalDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := r.get(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		r.errors = append(r.errors, fmt.Errorf("%s must be a duration: %w", key, err))
		return defaultValue
	}
	return parsed
}

// readOptionalStringList splits a comma-separated value, dropping empty entries
func (r *configReader) readOptionalStringList(key string, defaultValue string) []string {
	raw := r.readOptionalString(key, defaultValue)
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func (r *configReader) logAndExitIfErrorsFound() {
	if len(r.errors) == 0 {
		return
	}
	for _, err := range r.errors {
		slog.Error("configReader: invalid configuration", "error", err)
	}
	os.Exit(1)
}
