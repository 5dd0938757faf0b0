package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelpay/switchboard-backend/pkg/config"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

const testSigningKey = "vault-test-key"

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(config.VaultConfig{
		BaseURL:    baseURL,
		SigningKey: testSigningKey,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestTokenizeCardSignsPayloadAndReturnsReference(t *testing.T) {
	var receivedPayload string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/add", r.URL.Path)
		var body struct {
			Payload string `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		receivedPayload = body.Payload
		_ = json.NewEncoder(w).Encode(map[string]string{"card_reference": "ref_123"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ref, err := client.TokenizeCard(context.Background(), "merchant_1", "cus_1", Card{
		Number:   "4242424242424242",
		ExpMonth: "12",
		ExpYear:  "2030",
	})
	require.NoError(t, err)
	assert.Equal(t, "ref_123", ref)

	// The envelope must verify against the shared signing key.
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(receivedPayload, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return []byte(testSigningKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	assert.Equal(t, "merchant_1", claims["merchant_id"])
	assert.Contains(t, claims["payload"], "4242424242424242")
}

func TestTokenizeCardMapsFailuresToVaultError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.TokenizeCard(context.Background(), "merchant_1", "cus_1", Card{Number: "4111111111111111"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeVault))
}

func TestTokenizeCardRejectsEmptyReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.TokenizeCard(context.Background(), "merchant_1", "cus_1", Card{Number: "4111111111111111"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeVault))
}

func TestDeleteCardToleratesMissingReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/delete", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.DeleteCard(context.Background(), "merchant_1", "ref_gone")
	require.NoError(t, err)
}

func TestNewRequiresConfiguration(t *testing.T) {
	_, err := New(config.VaultConfig{SigningKey: "k"}, nil)
	require.Error(t, err)

	_, err = New(config.VaultConfig{BaseURL: "https://vault.internal"}, nil)
	require.Error(t, err)
}
