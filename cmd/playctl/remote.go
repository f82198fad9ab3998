package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
)

type remoteRequest struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

type remoteResponse struct {
	Result dispatch.Result `json:"result"`
	Error  string          `json:"error"`
}

func newRemoteClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil
	return client
}

// runRemote posts the snippet to a playground server's one-shot /run
// endpoint. Server errors and dropped connections are retried.
func runRemote(ctx context.Context, client *retryablehttp.Client, server, languageID, source string) (dispatch.Result, error) {
	body, err := sonic.Marshal(remoteRequest{Language: languageID, Source: source})
	if err != nil {
		return dispatch.Result{}, err
	}

	url := strings.TrimRight(server, "/") + "/run"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return dispatch.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return dispatch.Result{}, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return dispatch.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	var out remoteResponse
	if err := sonic.Unmarshal(data, &out); err != nil {
		return dispatch.Result{}, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if resp.StatusCode != http.StatusOK {
		return dispatch.Result{}, fmt.Errorf("server returned %s: %s", resp.Status, out.Error)
	}
	return out.Result, nil
}
