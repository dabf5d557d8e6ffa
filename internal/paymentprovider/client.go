// Package paymentprovider содержит HTTP-клиент Stripe для создания
// checkout-сессий. Запросы кодируются формой, как того требует API провайдера.
package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Stripe.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     "https://api.stripe.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values) (*http.Request, error) {
	reqURL := c.apiURL + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// CreateCheckoutSession отправляет запрос на создание checkout-сессии в режиме
// подписки и возвращает данные сессии с hosted-ссылкой на оплату.
// Сессия действует 30 минут, email покупателя дублируется в client_reference_id.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqParams CreateCheckoutSessionRequest) (*CheckoutSession, error) {
	if c.secretKey == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	params := url.Values{}
	params.Set("mode", "subscription")
	params.Set("payment_method_types[0]", "card")
	params.Set("line_items[0][price]", reqParams.PriceID)
	params.Set("line_items[0][quantity]", "1")
	params.Set("success_url", reqParams.SuccessURL)
	params.Set("cancel_url", reqParams.CancelURL)
	params.Set("customer_email", reqParams.CustomerEmail)
	params.Set("allow_promotion_codes", "true")
	params.Set("billing_address_collection", "auto")
	params.Set("client_reference_id", reqParams.CustomerEmail)
	params.Set("expires_at", strconv.FormatInt(time.Now().Add(30*time.Minute).Unix(), 10))
	for key, value := range reqParams.Metadata {
		params.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", params)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, errors.New("stripe: " + apiErr.Error.Message)
		}
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}
