// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is where a locally started server listens.
const DefaultServerURL = "http://localhost:12310"

// apiClient is shared by all commands. Report generation waits on
// county lookups, so the timeout is generous.
var apiClient = &http.Client{Timeout: 60 * time.Second}

// getServerBaseURL returns the report server address: the --server
// flag, then PARCEL_SERVER_URL, then the local default.
func getServerBaseURL() string {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/")
	}
	if url := os.Getenv("PARCEL_SERVER_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return DefaultServerURL
}

// getAccount resolves the credit account: the command's flag, then
// PARCEL_ACCOUNT. Empty means the caller must decide.
func getAccount(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("PARCEL_ACCOUNT")
}

// apiError is a non-2xx answer from the report server.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// postJSON sends body to the server path and decodes the answer into
// out. A non-2xx status comes back as *apiError carrying the server's
// error code.
func postJSON(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, getServerBaseURL()+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the report server at %s: %w", getServerBaseURL(), err)
	}
	return decodeAPIResponse(resp, out)
}

// getJSON fetches the server path (query string included) into out.
func getJSON(path string, out interface{}) error {
	resp, err := apiClient.Get(getServerBaseURL() + path)
	if err != nil {
		return fmt.Errorf("failed to reach the report server at %s: %w", getServerBaseURL(), err)
	}
	return decodeAPIResponse(resp, out)
}

func decodeAPIResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
			apiErr.Code = body.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// decodeRequestFile reads a YAML or JSON request file into out.
//
// # Description
//
// Files use the same field names as the HTTP API bodies, so a layout
// saved from report JSON can be edited and fed back in. YAML goes
// through a JSON bridge: decode to a plain tree, re-encode as JSON,
// then unmarshal with the wire struct's json tags. A .json suffix
// skips the bridge.
//
// # Inputs
//
//   - path: File to read.
//   - out: Pointer to the wire struct to fill.
//
// # Outputs
//
//   - error: Read, parse, or mapping failure.
func decodeRequestFile(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}

	var tree interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	bridge, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to map %s: %w", path, err)
	}
	if err := json.Unmarshal(bridge, out); err != nil {
		return fmt.Errorf("failed to map %s: %w", path, err)
	}
	return nil
}

// outputJSONValue prints v as indented JSON for scripting.
func outputJSONValue(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}
