// Package afip talks to the afipsdk.com REST gateway in front of AFIP's
// electronic invoicing web service (WSFE).
package afip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServiceWSFE is the AFIP web service id for electronic invoices.
const ServiceWSFE = "wsfe"

// Environment selects AFIP homologation or production.
type Environment string

const (
	EnvironmentDev  Environment = "dev"
	EnvironmentProd Environment = "prod"
)

// Credentials identify a business against afipsdk.
type Credentials struct {
	Environment Environment
	CUIT        string
	AccessToken string
	Certificate string
	PrivateKey  string
}

// Ticket is the short-lived token/sign pair returned by /auth.
type Ticket struct {
	Expiration string `json:"expiration"`
	Token      string `json:"token"`
	Sign       string `json:"sign"`
}

// Client wraps the afipsdk REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient constructs a client. A zero timeout defaults to 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type authRequest struct {
	Environment Environment `json:"environment"`
	TaxID       string      `json:"tax_id"`
	WSID        string      `json:"wsid"`
	Cert        string      `json:"cert,omitempty"`
	Key         string      `json:"key,omitempty"`
}

type serviceRequest struct {
	Environment Environment `json:"environment"`
	TaxID       string      `json:"tax_id"`
	WSID        string      `json:"wsid"`
	Method      string      `json:"method"`
	Params      any         `json:"params"`
	Token       string      `json:"token"`
	Sign        string      `json:"sign"`
}

// Authenticate obtains a WSFE ticket for the credentials.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (Ticket, error) {
	var ticket Ticket
	err := c.post(ctx, creds, "/auth", authRequest{
		Environment: creds.Environment,
		TaxID:       creds.CUIT,
		WSID:        ServiceWSFE,
		Cert:        creds.Certificate,
		Key:         creds.PrivateKey,
	}, &ticket)
	if err != nil {
		return Ticket{}, fmt.Errorf("afip: auth: %w", err)
	}
	if ticket.Token == "" || ticket.Sign == "" {
		return Ticket{}, fmt.Errorf("afip: auth: empty ticket")
	}
	return ticket, nil
}

// Call invokes a WSFE method through /requests and decodes the response into out.
func (c *Client) Call(ctx context.Context, creds Credentials, ticket Ticket, method string, params, out any) error {
	err := c.post(ctx, creds, "/requests", serviceRequest{
		Environment: creds.Environment,
		TaxID:       creds.CUIT,
		WSID:        ServiceWSFE,
		Method:      method,
		Params:      params,
		Token:       ticket.Token,
		Sign:        ticket.Sign,
	}, out)
	if err != nil {
		return fmt.Errorf("afip: %s: %w", method, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, creds Credentials, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
