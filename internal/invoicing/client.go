// Package invoicing provides the HTTP client for the external invoicing
// provider that issues price-quote documents.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/platform/apperr"
	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
	"github.com/yossefJiy/caravan-creator-sub000/platform/logger"
)

const (
	// DocumentTypePriceQuote is the provider's document type for a price quote.
	DocumentTypePriceQuote = 10

	// VatTypeExclusive marks line prices as VAT-exclusive; the provider adds VAT on top.
	VatTypeExclusive = 0

	// errorCodeInvalidTaxID is the provider's code for a malformed or unknown tax id.
	errorCodeInvalidTaxID = 1111
)

// ErrInvalidTaxID marks a document rejection caused by the customer tax id.
// The quote builder persists a lead-visible validation message for this case.
var ErrInvalidTaxID = errors.New("invoicing: invalid tax id")

// Client is the HTTP client for the invoicing provider.
type Client struct {
	httpClient *http.Client
	cfg        config.InvoicingConfig
	log        *logger.Logger
}

// NewClient creates an invoicing API client.
func NewClient(cfg config.InvoicingConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cfg:        cfg,
		log:        log,
	}
}

// Authenticate exchanges the API key for a short-lived bearer token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{
		ID:     c.cfg.GetInvoicingCompanyID(),
		Secret: c.cfg.GetInvoicingAPIKey(),
	})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, "/account/token", "", body)
	if err != nil {
		return "", c.upstreamErr("authenticate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.UpstreamError("invoicing", "authenticate", fmt.Errorf("status %d", resp.StatusCode))
		return "", apperr.UpstreamAuth("invoicing authentication failed")
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamAuth, "invalid authentication response", err)
	}
	if token.Token == "" {
		return "", apperr.UpstreamAuth("invoicing authentication returned empty token")
	}
	return token.Token, nil
}

// CreateDocument submits a price-quote document and returns its identity.
func (c *Client) CreateDocument(ctx context.Context, token string, req DocumentRequest) (Document, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Document{}, err
	}

	resp, err := c.post(ctx, "/documents", token, body)
	if err != nil {
		return Document{}, c.upstreamErr("create_document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := decodeAPIError(resp)
		c.log.UpstreamError("invoicing", "create_document",
			fmt.Errorf("status %d code %d: %s", resp.StatusCode, apiErr.ErrorCode, apiErr.ErrorMessage))
		if apiErr.ErrorCode == errorCodeInvalidTaxID {
			return Document{}, ErrInvalidTaxID
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return Document{}, apperr.UpstreamAuth("invoicing rejected credentials")
		}
		return Document{}, apperr.UpstreamRejected("invoicing rejected the document")
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, apperr.Wrap(apperr.KindUpstreamRejected, "invalid document response", err)
	}
	return doc, nil
}

// CloseDocument voids a previously created quote document. Callers treat
// failures here as best-effort; the client only reports them.
func (c *Client) CloseDocument(ctx context.Context, token, documentID string) error {
	resp, err := c.post(ctx, "/documents/"+url.PathEscape(documentID)+"/close", token, []byte(`{}`))
	if err != nil {
		return c.upstreamErr("close_document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.UpstreamRejected(fmt.Sprintf("close document failed: status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GetInvoicingAPIURL()+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

func (c *Client) upstreamErr(operation string, err error) error {
	c.log.UpstreamError("invoicing", operation, err)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindUpstreamTimeout, "invoicing request timed out", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return apperr.Wrap(apperr.KindUpstreamTimeout, "invoicing request timed out", err)
	}
	return apperr.Wrap(apperr.KindUpstreamRejected, "invoicing request failed", err)
}

func decodeAPIError(resp *http.Response) apiError {
	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	return apiErr
}
