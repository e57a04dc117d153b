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

package models

// GrantTypeAuthorizationCode is the only grant supported by the token endpoint
const GrantTypeAuthorizationCode = "authorization_code"

// TokenTypeRefresh marks refresh tokens in the "type" claim
const TokenTypeRefresh = "refresh"

// TokenExchangeRequest is the body of POST /api/auth/tokens
type TokenExchangeRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// TokenResponse is the successful token endpoint response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expires_in"`
}

// TokenPair holds a freshly minted access/refresh token pair
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	KeyID        string
	IssuedAt     int64
	ExpiresIn    int64
}

// SubjectClaims identifies the authenticated user a token pair is minted for
type SubjectClaims struct {
	Subject string
	Name    string
	Email   string
}

// IntrospectionRequest is the body of POST /api/auth/introspect
type IntrospectionRequest struct {
	Token string `json:"token"`
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	// Kty is the key type (RSA)
	Kty string `json:"kty"`
	// Alg is the algorithm (RS256)
	Alg string `json:"alg"`
	// Use is the intended use (sig for signature)
	Use string `json:"use"`
	// Kid is the key ID
	Kid string `json:"kid"`
	// N is the modulus value for the RSA public key (Base64urlUInt-encoded)
	N string `json:"n"`
	// E is the exponent value for the RSA public key (Base64urlUInt-encoded)
	E string `json:"e"`
}

// UserInfoResponse is returned by GET /api/auth/userinfo
type UserInfoResponse struct {
	Sub    string         `json:"sub"`
	Claims map[string]any `json:"claims"`
}

// InactiveTokenResponse is the introspection answer for any token that failed verification
type InactiveTokenResponse struct {
	Active bool `json:"active"`
}
