package lib

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

const opayDefaultBaseURL = "https://api.opaycheckout.com"

var opayClient *OpayClient

type OpayClient struct {
	BaseURL    string
	merchantID string
	secretKey  string
	http       *http.Client
}

func GetOpayClient() *OpayClient {
	if opayClient != nil {
		return opayClient
	}
	baseURL := os.Getenv("OPAY_BASE_URL")
	if baseURL == "" {
		baseURL = opayDefaultBaseURL
	}
	c := &OpayClient{
		BaseURL:    baseURL,
		merchantID: os.Getenv("OPAY_MERCHANT_ID"),
		secretKey:  os.Getenv("OPAY_SECRET_KEY"),
		http:       &http.Client{Timeout: 15 * time.Second},
	}
	opayClient = c
	return c
}

// NewOpayClient Replace the opay instance with a custom client implementation
func NewOpayClient(c *OpayClient) {
	opayClient = c
}

type OpayPaymentParams struct {
	Amount        int64 // minor units (kobo); Opay takes major units at the wire
	Reference     string
	CustomerName  string
	CustomerEmail string
	ReturnURL     string
	CallbackURL   string
}

// CreatePayment starts a merchant-hosted cashier session and returns the
// cashier URL. Amounts cross this boundary in major units; that conversion
// happens nowhere else.
func (c *OpayClient) CreatePayment(ctx context.Context, params *OpayPaymentParams) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"country":            "NG",
		"currency":           "NGN",
		"amount":             params.Amount / 100,
		"reference":          params.Reference,
		"productDescription": "Donation",
		"customerEmail":      params.CustomerEmail,
		"customerName":       params.CustomerName,
		"returnUrl":          params.ReturnURL,
		"callbackUrl":        params.CallbackURL,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v3/merchant-hosted/payment", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Opay] Error on payment init: %s\n", err.Error())
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if code := gjson.GetBytes(body, "code").String(); code != "00000" {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = "failed to initialize payment"
		}
		return "", fmt.Errorf("[Opay] %s (code=%s)", msg, code)
	}
	return gjson.GetBytes(body, "data.cashierUrl").String(), nil
}

// CashierStatus queries the cashier session outcome for a reference. The
// status request body is signed with HMAC-SHA512 using the secret key.
func (c *OpayClient) CashierStatus(ctx context.Context, reference string) (bool, []byte, error) {
	payload, err := json.Marshal(map[string]string{
		"reference": reference,
		"country":   "NG",
	})
	if err != nil {
		return false, nil, err
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/international/cashier/status", bytes.NewReader(payload))
	if err != nil {
		return false, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+signature)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("MerchantId", c.merchantID)
	res, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Opay] Error on status query [%s]: %s\n", reference, err.Error())
		return false, nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, nil, err
	}
	if res.StatusCode >= 500 {
		return false, body, fmt.Errorf("[Opay] unexpected status %d", res.StatusCode)
	}
	succeeded := res.StatusCode < 400 && gjson.GetBytes(body, "data.status").String() == "SUCCESS"
	return succeeded, body, nil
}
