// File: httpds.go
// Title: HTTP/REST Datasource Adapter
// Description: Calls REST endpoints as a datasource backend. The payload is
//              the URL; method and headers come from the extra options and
//              a JSON request body is built from the parameters. JSON
//              responses decode into structured data, anything else is
//              returned as text.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial HTTP adapter

package httpds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/datasource"
)

// KindHTTP is the backend kind string this adapter serves
const KindHTTP = "http-rest"

// headerPrefix marks extra options that become request headers,
// e.g. "header.Authorization"
const headerPrefix = "header."

// maxResponseBytes bounds response bodies read into memory
const maxResponseBytes = 8 << 20

// Options configures an Adapter
type Options struct {
	// Client is the HTTP client to use (optional; a client with a 30s
	// timeout is created when absent)
	Client *http.Client

	// BaseURL is prefixed to relative payload URLs (optional)
	BaseURL string

	// Logger for adapter diagnostics (optional)
	Logger *log.Logger
}

// Adapter performs REST calls
type Adapter struct {
	client  *http.Client
	baseURL string
	logger  *log.Logger
}

// New creates an HTTP adapter
func New(opts Options) *Adapter {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Adapter{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		logger:  logger.WithName("datasource.http"),
	}
}

// Kind implements datasource.Adapter
func (a *Adapter) Kind() string {
	return KindHTTP
}

// Execute performs the request described by the descriptor
func (a *Adapter) Execute(ctx context.Context, desc *datasource.QueryDescriptor) (*datasource.QueryResult, error) {
	url := strings.TrimSpace(desc.Payload)
	if url == "" {
		return nil, formaerror.New("http payload requires a URL").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("httpds.Execute")
	}
	if a.baseURL != "" && !strings.Contains(url, "://") {
		url = a.baseURL + "/" + strings.TrimLeft(url, "/")
	}

	method := http.MethodGet
	if desc.Options.Extra != nil {
		if declared, ok := desc.Options.Extra["method"]; ok && declared != "" {
			method = strings.ToUpper(strings.TrimSpace(declared))
		}
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead && len(desc.Params) > 0 {
		encoded, err := json.Marshal(desc.Params)
		if err != nil {
			return nil, formaerror.Wrap(err, "failed to encode request body").
				WithCode(formaerror.CodeInvalidInput).
				WithOperation("httpds.Execute")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to build request").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("httpds.Execute")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range desc.Options.Extra {
		if strings.HasPrefix(key, headerPrefix) {
			req.Header.Set(strings.TrimPrefix(key, headerPrefix), value)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		// Network failures are transient: the router may retry
		return nil, formaerror.Wrap(err, "request failed").
			WithCode(formaerror.CodeNetworkError).
			WithOperation("httpds.Execute").
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to read response").
			WithCode(formaerror.CodeNetworkError).
			WithOperation("httpds.Execute")
	}

	a.logger.Debug("http request completed", log.Fields{
		"method": method,
		"url":    url,
		"status": resp.StatusCode,
	})

	if resp.StatusCode >= 400 {
		code := formaerror.CodeBackendError
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			code = formaerror.CodeNetworkError
		}
		return nil, formaerror.Newf("endpoint returned status %d: %s",
			resp.StatusCode, truncateBody(payload)).
			WithCode(code).
			WithOperation("httpds.Execute").
			WithDetail("url", url)
	}

	result := &datasource.QueryResult{Success: true}
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") && len(payload) > 0 {
		var decoded interface{}
		if err := json.Unmarshal(payload, &decoded); err == nil {
			result.Data = decoded
			return result, nil
		}
	}
	result.Text = string(payload)
	return result, nil
}

// truncateBody keeps error messages short
func truncateBody(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return fmt.Sprintf("%s...", s[:max])
	}
	return s
}
