package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/utils"
)

// apiClient talks to the REST API of a running server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient creates a client for the server bound to bindAddr. Wildcard
// bind addresses are reached through loopback. A full URL is used as is.
func newAPIClient(bindAddr string, timeout time.Duration) *apiClient {
	baseURL := bindAddr
	if !strings.Contains(bindAddr, "://") {
		host, port, err := net.SplitHostPort(bindAddr)
		if err == nil {
			switch host {
			case "", "0.0.0.0", "::":
				host = "127.0.0.1"
			}
			bindAddr = net.JoinHostPort(host, port)
		}
		baseURL = "http://" + bindAddr
	}
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// post sends body as JSON and decodes the "data" field of the response into out.
func (c *apiClient) post(path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach keen-route server at %s: %w", c.baseURL, err)
	}
	defer utils.CloseOrWarn(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error.Message == "" {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		return fmt.Errorf("server returned %s: %s", apiErr.Error.Code, apiErr.Error.Message)
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	return json.NewDecoder(resp.Body).Decode(&envelope)
}
