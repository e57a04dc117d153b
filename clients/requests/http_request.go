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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HttpRequest describes an outbound HTTP request built with the Set* helpers.
type HttpRequest struct {
	// Name identifies the request in logs, e.g. "authsvc.exchangeTokens"
	Name   string
	URL    string
	Method string

	headers http.Header
	query   url.Values
	body    []byte
	err     error
}

// HttpError is returned by ScanResponse when the response status is not the expected one.
type HttpError struct {
	StatusCode int
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected response status %d: %s", e.StatusCode, e.Body)
}

// SetHeader sets a request header.
func (r *HttpRequest) SetHeader(key, value string) *HttpRequest {
	if r.headers == nil {
		r.headers = http.Header{}
	}
	r.headers.Set(key, value)
	return r
}

// SetQuery adds a query parameter.
func (r *HttpRequest) SetQuery(key, value string) *HttpRequest {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Add(key, value)
	return r
}

// SetJson marshals body as the JSON request payload.
func (r *HttpRequest) SetJson(body any) *HttpRequest {
	data, err := json.Marshal(body)
	if err != nil {
		r.err = fmt.Errorf("failed to marshal request body: %w", err)
		return r
	}
	r.body = data
	return r.SetHeader("Content-Type", "application/json")
}

// SetFormData sets an application/x-www-form-urlencoded payload.
func (r *HttpRequest) SetFormData(data map[string]string) *HttpRequest {
	form := url.Values{}
	for k, v := range data {
		form.Set(k, v)
	}
	r.body = []byte(form.Encode())
	return r.SetHeader("Content-Type", "application/x-www-form-urlencoded")
}

func (r *HttpRequest) buildHttpRequest(ctx context.Context) (*http.Request, error) {
	if r.err != nil {
		return nil, r.err
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", r.URL, err)
	}
	if len(r.query) > 0 {
		q := u.Query()
		for k, values := range r.query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, values := range r.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}
