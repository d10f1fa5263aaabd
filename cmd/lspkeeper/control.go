package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
)

// controlClient talks to the control API of a running "lspkeeper run".
type controlClient struct {
	base string
	http *http.Client
}

func newControlClient(addr string) *controlClient {
	return &controlClient{
		base: "http://" + addr,
		http: &http.Client{Transport: http.DefaultTransport},
	}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("control API: %s (HTTP %d)", e.Message, e.Status)
}

func (c *controlClient) status(ctx context.Context) (lspDomain.SessionInfo, error) {
	return c.call(ctx, http.MethodGet, "/api/v1/status")
}

func (c *controlClient) restart(ctx context.Context) (lspDomain.SessionInfo, error) {
	return c.call(ctx, http.MethodPost, "/api/v1/restart")
}

func (c *controlClient) call(ctx context.Context, method, path string) (lspDomain.SessionInfo, error) {
	var info lspDomain.SessionInfo

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, http.NoBody)
	if err != nil {
		return info, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return info, fmt.Errorf("is \"lspkeeper run\" running? %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return info, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return info, &apiError{Status: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return info, fmt.Errorf("decode response: %w", err)
	}
	return info, nil
}

// dialTimeout bounds read-only control calls. Restart is not bounded since
// it may run a full install.
const dialTimeout = 10 * time.Second
