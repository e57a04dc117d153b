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

import "time"

// AuthorizationCodeState is the lifecycle state of an authorization code
type AuthorizationCodeState string

const (
	AuthorizationCodeIssued   AuthorizationCodeState = "Issued"
	AuthorizationCodeConsumed AuthorizationCodeState = "Consumed"
	AuthorizationCodeExpired  AuthorizationCodeState = "Expired"
)

// AuthorizationCode is a single-use code bound to a client and redirect URI
type AuthorizationCode struct {
	Code        string
	ClientID    string
	RedirectURI string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	State       AuthorizationCodeState
}

// IsExpired reports whether the code is past its expiry at the given instant
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// RegisterCodeRequest is the body of POST /api/auth/code
type RegisterCodeRequest struct {
	Code        string `json:"code"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
}

// OKResponse is the generic {"ok": true} acknowledgement
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the error body returned by every endpoint.
// ErrorDescription is only set for OAuth protocol errors.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
