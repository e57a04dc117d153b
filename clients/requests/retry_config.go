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

package requests

import (
	"net/http"
	"slices"
	"time"
)

// Defaults applied to outbound calls to the JWKS, introspection and auth service endpoints
const (
	DefaultRetryWaitMin     = 1 * time.Second
	DefaultRetryWaitMax     = 10 * time.Second
	DefaultRetryAttemptsMax = 3
	DefaultAttemptTimeout   = 30 * time.Second

	// RetryAttemptsNone makes a single attempt, as REMOTE_AUTH_RETRY_ATTEMPTS=0 does
	RetryAttemptsNone = -1
)

// TransientHTTPErrorCodes are retried for POST calls such as introspection.
// A 500 is not retried there since the token may already have been evaluated.
var TransientHTTPErrorCodes = []int{
	http.StatusTooManyRequests,    // 429
	http.StatusBadGateway,         // 502
	http.StatusServiceUnavailable, // 503
	http.StatusGatewayTimeout,     // 504
}

// TransientHTTPGETErrorCodes are retried for key set and client lookups
var TransientHTTPGETErrorCodes = []int{
	http.StatusTooManyRequests,     // 429
	http.StatusInternalServerError, // 500
	http.StatusBadGateway,          // 502
	http.StatusServiceUnavailable,  // 503
	http.StatusGatewayTimeout,      // 504
}

// RequestRetryConfig bounds how long a verifier waits on its trust source
type RequestRetryConfig struct {
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RetryAttemptsMax counts retries after the first attempt; zero selects DefaultRetryAttemptsMax
	RetryAttemptsMax int
	// AttemptTimeout caps each attempt, mirroring REMOTE_AUTH_TIMEOUT_SECONDS
	AttemptTimeout time.Duration
	// RetryOnStatus overrides the transient status lists above
	RetryOnStatus func(method string, status int) bool
}

func (cfg RequestRetryConfig) withDefaults() RequestRetryConfig {
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = DefaultRetryWaitMin
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = DefaultRetryWaitMax
	}
	switch {
	case cfg.RetryAttemptsMax == 0:
		cfg.RetryAttemptsMax = DefaultRetryAttemptsMax
	case cfg.RetryAttemptsMax < 0:
		cfg.RetryAttemptsMax = 0
	}
	if cfg.AttemptTimeout == 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.RetryOnStatus == nil {
		cfg.RetryOnStatus = func(method string, status int) bool {
			if method == http.MethodGet || method == http.MethodDelete {
				return slices.Contains(TransientHTTPGETErrorCodes, status)
			}
			return slices.Contains(TransientHTTPErrorCodes, status)
		}
	}
	return cfg
}
