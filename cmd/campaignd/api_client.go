package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// daemonClient is shared by every subcommand that talks to a running
// daemon, so one timeout covers them all.
var daemonClient = &http.Client{Timeout: 30 * time.Second}

func apiGet(path string) ([]byte, error) {
	return apiDo(http.MethodGet, path, nil)
}

func apiPost(path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return apiDo(http.MethodPost, path, body)
}

func apiDo(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, apiAddr+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := daemonClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daemon unreachable at %s (is `campaignd daemon` running?): %w", apiAddr, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading daemon response: %w", err)
	}
	if resp.StatusCode >= 400 {
		detail := strings.TrimSpace(string(data))
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("daemon responded %d: %s", resp.StatusCode, detail)
	}
	return data, nil
}

// DaemonHealth is the payload of the daemon's /health endpoint.
type DaemonHealth struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// CheckHealth fetches /health. An unhealthy daemon still returns the
// parsed payload alongside the error so callers can report which check
// failed.
func CheckHealth() (*DaemonHealth, error) {
	resp, err := daemonClient.Get(apiAddr + "/health")
	if err != nil {
		return nil, fmt.Errorf("daemon unreachable at %s (is `campaignd daemon` running?): %w", apiAddr, err)
	}
	defer resp.Body.Close()

	var health DaemonHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("parsing health payload: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !health.OK {
		return &health, fmt.Errorf("daemon unhealthy (status %d, db %s)", resp.StatusCode, health.DB)
	}
	return &health, nil
}
