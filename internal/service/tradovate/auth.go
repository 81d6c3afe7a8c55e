package tradovate

import (
	"context"
	"errors"

	"CandlePull/internal/domain/models"
	drepo "CandlePull/internal/domain/repository"
	xhttp "CandlePull/pkg/http"
)

type renewResponse struct {
	AccessToken   string `json:"accessToken"`
	MDAccessToken string `json:"mdAccessToken"`
}

// AuthClient exchanges a long-lived token for a fresh trading/market-data pair.
type AuthClient struct {
	renewURL string
	client   *xhttp.Client
}

var _ drepo.TokenRenewer = (*AuthClient)(nil)

// NewAuthClient creates a renewal client for renewURL.
func NewAuthClient(renewURL string, client *xhttp.Client) *AuthClient {
	if client == nil {
		client = xhttp.NewClient()
	}
	return &AuthClient{renewURL: renewURL, client: client}
}

// Renew performs a single renewal call. There is no retry.
func (a *AuthClient) Renew(ctx context.Context, token string) (models.SessionTokens, error) {
	var resp renewResponse
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.renewURL,
		Headers: map[string]string{
			"Accept":        "application/json",
			"Authorization": "Bearer " + token,
		},
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return models.SessionTokens{}, &RenewalError{Status: se.StatusCode, Reason: string(se.Body), Err: err}
		}
		return models.SessionTokens{}, &RenewalError{Reason: err.Error(), Err: err}
	}

	if resp.AccessToken == "" || resp.MDAccessToken == "" {
		return models.SessionTokens{}, &RenewalError{Reason: "missing tokens in renewal response"}
	}

	return models.SessionTokens{
		AccessToken:   resp.AccessToken,
		MDAccessToken: resp.MDAccessToken,
	}, nil
}
