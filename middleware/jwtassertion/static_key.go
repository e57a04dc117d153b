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

package jwtassertion

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/utils"
)

// StaticKeySource resolves every token against a single configured public key
type StaticKeySource struct {
	key *rsa.PublicKey
	// kid, when set, must match the token header
	kid string
}

// NewStaticKeySource loads the public key once from a PEM value, or from pemPath when pemValue is empty
func NewStaticKeySource(pemValue, pemPath, kid string) (*StaticKeySource, error) {
	data := []byte(pemValue)
	if pemValue == "" {
		if pemPath == "" {
			return nil, fmt.Errorf("static public key is not configured")
		}
		var err error
		data, err = os.ReadFile(pemPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key file: %w", err)
		}
	} else {
		// Env files often carry PEM with escaped newlines
		data = []byte(strings.ReplaceAll(pemValue, `\n`, "\n"))
	}

	key, err := ParseRSAPublicKeyPEM(data)
	if err != nil {
		return nil, err
	}
	return &StaticKeySource{key: key, kid: kid}, nil
}

func (s *StaticKeySource) ResolveKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	if s.kid != "" && kid != s.kid {
		return nil, fmt.Errorf("%w: unexpected kid %q", utils.ErrUnknownSigningKey, kid)
	}
	return s.key, nil
}

// ParseRSAPublicKeyPEM parses a PKIX or PKCS#1 encoded RSA public key
func ParseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	publicKeyBlock, _ := pem.Decode(data)
	if publicKeyBlock == nil {
		return nil, fmt.Errorf("failed to decode public key PEM")
	}

	// Try parsing as PKIX/SubjectPublicKeyInfo format first
	pubKey, err := x509.ParsePKIXPublicKey(publicKeyBlock.Bytes)
	if err != nil {
		// Try PKCS#1 format
		publicKey, err := x509.ParsePKCS1PublicKey(publicKeyBlock.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		return publicKey, nil
	}

	publicKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return publicKey, nil
}
