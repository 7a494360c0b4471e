package cipher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

// HTTPClient implements Vault against a remote cipher-vault service.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPClient constructs an HTTP-backed vault client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cipher vault url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

type encryptRequest struct {
	Value     int64          `json:"value"`
	Recipient domain.Address `json:"recipient"`
}

type constantRequest struct {
	Value int64 `json:"value"`
}

type addRequest struct {
	A domain.Handle `json:"a"`
	B domain.Handle `json:"b"`
}

type grantRequest struct {
	Handle   domain.Handle  `json:"handle"`
	Identity domain.Address `json:"identity"`
}

type decryptRequest struct {
	Handle    domain.Handle  `json:"handle"`
	Requester domain.Address `json:"requester"`
}

type handleResponse struct {
	Handle domain.Handle `json:"handle"`
}

type valueResponse struct {
	Value int64 `json:"value"`
}

// Encrypt implements Vault.
func (c *HTTPClient) Encrypt(ctx context.Context, value int64, recipient domain.Address) (domain.Handle, error) {
	var resp handleResponse
	if err := c.post(ctx, "/v1/encrypt", encryptRequest{Value: value, Recipient: recipient}, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// EncryptConstant implements Vault.
func (c *HTTPClient) EncryptConstant(ctx context.Context, value int64) (domain.Handle, error) {
	var resp handleResponse
	if err := c.post(ctx, "/v1/constant", constantRequest{Value: value}, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// Add implements Vault.
func (c *HTTPClient) Add(ctx context.Context, a, b domain.Handle) (domain.Handle, error) {
	var resp handleResponse
	if err := c.post(ctx, "/v1/add", addRequest{A: a, B: b}, &resp); err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// Grant implements Vault.
func (c *HTTPClient) Grant(ctx context.Context, handle domain.Handle, identity domain.Address) error {
	return c.post(ctx, "/v1/grant", grantRequest{Handle: handle, Identity: identity}, nil)
}

// Decrypt implements Vault.
func (c *HTTPClient) Decrypt(ctx context.Context, handle domain.Handle, requester domain.Address) (int64, error) {
	var resp valueResponse
	if err := c.post(ctx, "/v1/decrypt", decryptRequest{Handle: handle, Requester: requester}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode cipher vault response: %w", err)
		}
		return nil
	case http.StatusNoContent:
		return nil
	case http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusNotFound:
		return ErrUnknownHandle
	default:
		c.logger.Printf("cipher: unexpected status %d from %s", resp.StatusCode, path)
		return fmt.Errorf("cipher: vault returned %d", resp.StatusCode)
	}
}
