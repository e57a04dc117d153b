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
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryableHTTPClient wraps a retryablehttp client with the service retry policy.
// It implements the HttpClient interface.
type RetryableHTTPClient struct {
	client *retryablehttp.Client
	config RequestRetryConfig
}

// Compile-time check that RetryableHTTPClient implements HttpClient
var _ HttpClient = (*RetryableHTTPClient)(nil)

// NewRetryableHTTPClient creates a new RetryableHTTPClient.
// Config is optional - defaults will be used if not provided.
func NewRetryableHTTPClient(config ...RequestRetryConfig) *RetryableHTTPClient {
	var cfg RequestRetryConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg = cfg.withDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryAttemptsMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.HTTPClient.Timeout = cfg.AttemptTimeout
	rc.Logger = slog.Default()
	rc.Backoff = func(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return calculateBackoff(min, max, attemptNum+1)
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return cfg.RetryOnStatus(resp.Request.Method, resp.StatusCode), nil
	}
	// Hand the last response back to the caller instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &RetryableHTTPClient{
		client: rc,
		config: cfg,
	}
}

// Do executes the HTTP request with retry logic.
func (c *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare retryable request: %w", err)
	}
	resp, err := c.client.Do(rreq)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("context cancelled or timed out: %w", ctxErr)
		}
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.RetryAttemptsMax+1, err)
	}
	return resp, nil
}

// StandardClient returns an *http.Client that routes through the retry policy.
func (c *RetryableHTTPClient) StandardClient() *http.Client {
	return c.client.StandardClient()
}

// calculateBackoff returns an exponential backoff duration with jitter, capped by max.
// Uses "equal jitter" strategy: base/2 + random(0, base/2), giving a range of [base/2, base].
func calculateBackoff(min, max time.Duration, attempt int) time.Duration {
	// Calculate base exponential backoff: 2^(attempt-1) * min
	base := min * time.Duration(1<<uint(attempt-1))
	if base > max {
		base = max
	}
	halfBase := base / 2
	if halfBase <= 0 {
		return base
	}
	return halfBase + time.Duration(rand.Int64N(int64(halfBase)))
}
