// Package phoneid confirms phone ownership proofs issued by Firebase
// Authentication.
package phoneid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/CompanyDirectory/pkg/httpclient"
)

var (
	// ErrInvalidProof means the provider rejected the token or it does not
	// identify a verified phone number.
	ErrInvalidProof = errors.New("phone proof rejected")

	// ErrUnavailable means the provider could not be asked.
	ErrUnavailable = errors.New("phone identity provider unavailable")
)

// Identity is the account the provider resolved a proof to.
type Identity struct {
	UID         string
	PhoneNumber string
}

// Verifier resolves an externally issued phone proof token.
type Verifier interface {
	Verify(ctx context.Context, proof string) (*Identity, error)
}

// Doer is satisfied by *httpclient.CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// FirebaseVerifier calls the identitytoolkit accounts:lookup endpoint.
type FirebaseVerifier struct {
	client  Doer
	baseURL string
	apiKey  string
}

// NewFirebaseVerifier creates a verifier against baseURL, for example
// https://identitytoolkit.googleapis.com.
func NewFirebaseVerifier(client Doer, baseURL, apiKey string) *FirebaseVerifier {
	return &FirebaseVerifier{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		PhoneNumber string `json:"phoneNumber"`
	} `json:"users"`
}

// Verify resolves proof to the phone number it was issued for.
func (v *FirebaseVerifier) Verify(ctx context.Context, proof string) (*Identity, error) {
	if strings.TrimSpace(proof) == "" {
		return nil, ErrInvalidProof
	}

	body, err := json.Marshal(lookupRequest{IDToken: proof})
	if err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	endpoint := v.baseURL + "/v1/accounts:lookup?key=" + url.QueryEscape(v.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		err := httpclient.ParseResponseError(resp, "identitytoolkit")
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsClientError() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProof, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode lookup response: %w", ErrUnavailable, err)
	}
	if len(out.Users) == 0 || out.Users[0].PhoneNumber == "" {
		return nil, ErrInvalidProof
	}

	return &Identity{UID: out.Users[0].LocalID, PhoneNumber: out.Users[0].PhoneNumber}, nil
}

// Disabled rejects every call as unavailable. It stands in when no API key
// is configured.
type Disabled struct{}

// Verify always fails with ErrUnavailable.
func (Disabled) Verify(context.Context, string) (*Identity, error) {
	return nil, fmt.Errorf("%w: FIREBASE_API_KEY is not set", ErrUnavailable)
}
