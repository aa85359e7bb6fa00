package lib

import (
	"bytes"
	"context"
	"dcp/src/types"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

const paystackDefaultBaseURL = "https://api.paystack.co"

var paystackClient *PaystackClient

type PaystackClient struct {
	BaseURL   string
	secretKey string
	http      *http.Client
}

func GetPaystackClient() *PaystackClient {
	if paystackClient != nil {
		return paystackClient
	}
	baseURL := os.Getenv("PAYSTACK_BASE_URL")
	if baseURL == "" {
		baseURL = paystackDefaultBaseURL
	}
	c := &PaystackClient{
		BaseURL:   baseURL,
		secretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
	paystackClient = c
	return c
}

// NewPaystackClient Replace the paystack instance with a custom client implementation
func NewPaystackClient(c *PaystackClient) {
	paystackClient = c
}

type PaystackInitializeParams struct {
	Email       string      `json:"email"`
	Amount      int64       `json:"amount"` // minor units (kobo)
	Reference   string      `json:"reference"`
	CallbackURL string      `json:"callback_url"`
	Metadata    types.JSONB `json:"metadata,omitempty"`
}

// InitializeTransaction starts a hosted checkout session and returns the
// authorization URL the donor is redirected to.
func (c *PaystackClient) InitializeTransaction(ctx context.Context, params *PaystackInitializeParams) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Paystack] Error on initialize: %s\n", err.Error())
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode >= 400 || !gjson.GetBytes(body, "status").Bool() {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = "failed to initialize payment"
		}
		return "", fmt.Errorf("[Paystack] %s", msg)
	}
	return gjson.GetBytes(body, "data.authorization_url").String(), nil
}

// VerifyTransaction queries the terminal outcome for a reference. The bool
// is true only when Paystack reports the charge as successful; a transport
// or HTTP error is returned as err and means "unknown", not "failed".
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (bool, []byte, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Paystack] Error on verify [%s]: %s\n", reference, err.Error())
		return false, nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, nil, err
	}
	if res.StatusCode >= 500 {
		return false, body, fmt.Errorf("[Paystack] unexpected status %d", res.StatusCode)
	}
	succeeded := gjson.GetBytes(body, "status").Bool() &&
		gjson.GetBytes(body, "data.status").String() == "success"
	return succeeded, body, nil
}
