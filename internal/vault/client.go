// Package vault talks to the external card vault. Raw card data never
// touches the database; the vault hands back an opaque reference the
// attempt stores instead.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kestrelpay/switchboard-backend/pkg/config"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
)

var jwsSigningMethod = jwt.SigningMethodHS256

// Card is the raw payment method data tokenized into the vault.
type Card struct {
	Number     string `json:"card_number"`
	ExpMonth   string `json:"card_exp_month"`
	ExpYear    string `json:"card_exp_year"`
	HolderName string `json:"name_on_card,omitempty"`
}

type Client struct {
	baseURL    string
	signingKey string
	http       *http.Client
	logg       *logger.Logger
}

func New(cfg config.VaultConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("vault base url is required")
	}
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, errors.New("vault signing key is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		signingKey: cfg.SigningKey,
		http:       &http.Client{Timeout: timeout},
		logg:       logg,
	}, nil
}

type addCardRequest struct {
	Payload string `json:"payload"`
}

type addCardResponse struct {
	CardReference string `json:"card_reference"`
}

// TokenizeCard stores the card in the vault and returns the reference to
// persist on the attempt. Every failure surfaces as VAULT_ERROR so callers
// can distinguish vault outages from connector declines.
func (c *Client) TokenizeCard(ctx context.Context, merchantID, customerID string, card Card) (string, error) {
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeVault, err, "encoding card payload")
	}

	claims := jwt.MapClaims{
		"merchant_id": merchantID,
		"customer_id": customerID,
		"payload":     string(cardJSON),
		"iat":         jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwsSigningMethod, claims).SignedString([]byte(c.signingKey))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeVault, err, "signing vault payload")
	}

	body, err := json.Marshal(addCardRequest{Payload: signed})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeVault, err, "encoding vault request")
	}

	resp, err := c.do(ctx, http.MethodPost, "/cards/add", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeVault, fmt.Sprintf("vault returned status %d", resp.StatusCode))
	}

	var parsed addCardResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeVault, err, "decoding vault response")
	}
	if parsed.CardReference == "" {
		return "", pkgerrors.New(pkgerrors.CodeVault, "vault response missing card reference")
	}
	if c.logg != nil {
		logCtx := c.logg.WithMerchantID(ctx, merchantID)
		c.logg.Info(logCtx, "card tokenized")
	}
	return parsed.CardReference, nil
}

// DeleteCard removes a vaulted card; called when a customer is redacted.
func (c *Client) DeleteCard(ctx context.Context, merchantID, cardReference string) error {
	body, err := json.Marshal(map[string]string{
		"merchant_id":    merchantID,
		"card_reference": cardReference,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeVault, err, "encoding vault request")
	}

	resp, err := c.do(ctx, http.MethodPost, "/cards/delete", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeVault, fmt.Sprintf("vault returned status %d", resp.StatusCode))
	}
	return nil
}

// DeleteCustomerCards removes every card the vault holds for a customer.
// Customer redaction calls this before touching the database so a vault
// failure leaves the customer record intact and retryable.
func (c *Client) DeleteCustomerCards(ctx context.Context, merchantID, customerID string) error {
	body, err := json.Marshal(map[string]string{
		"merchant_id": merchantID,
		"customer_id": customerID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeVault, err, "encoding vault request")
	}

	resp, err := c.do(ctx, http.MethodPost, "/cards/delete-by-customer", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeVault, fmt.Sprintf("vault returned status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeVault, err, "building vault request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeVault, err, "calling vault")
	}
	return resp, nil
}
