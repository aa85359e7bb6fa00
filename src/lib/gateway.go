package lib

import (
	"context"
	"dcp/src/types"
	"fmt"
	"strings"
)

// SessionInput carries everything a provider needs to open a hosted payment
// session. Amount is in minor units throughout; adapters that speak major
// units convert at their own wire boundary.
type SessionInput struct {
	Amount      int64
	Reference   string
	Name        string
	Email       string
	ReturnURL   string
	CallbackURL string
	Metadata    types.JSONB
}

type Session struct {
	RedirectURL string
}

type StatusResult struct {
	Succeeded bool
	Raw       []byte
}

type PaymentGateway interface {
	Name() types.PaymentMethod
	InitiateSession(ctx context.Context, input *SessionInput) (*Session, error)
	QueryStatus(ctx context.Context, reference string) (*StatusResult, error)
}

type PaystackGateway struct {
	inner *PaystackClient
}

func (g *PaystackGateway) Name() types.PaymentMethod {
	return types.PAYMENT_PAYSTACK
}

func (g *PaystackGateway) InitiateSession(ctx context.Context, input *SessionInput) (*Session, error) {
	url, err := g.inner.InitializeTransaction(ctx, &PaystackInitializeParams{
		Email:       input.Email,
		Amount:      input.Amount,
		Reference:   input.Reference,
		CallbackURL: input.ReturnURL,
		Metadata:    input.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &Session{RedirectURL: url}, nil
}

func (g *PaystackGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	succeeded, raw, err := g.inner.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Succeeded: succeeded, Raw: raw}, nil
}

type OpayGateway struct {
	inner *OpayClient
}

func (g *OpayGateway) Name() types.PaymentMethod {
	return types.PAYMENT_OPAY
}

func (g *OpayGateway) InitiateSession(ctx context.Context, input *SessionInput) (*Session, error) {
	url, err := g.inner.CreatePayment(ctx, &OpayPaymentParams{
		Amount:        input.Amount,
		Reference:     input.Reference,
		CustomerName:  input.Name,
		CustomerEmail: input.Email,
		ReturnURL:     input.ReturnURL,
		CallbackURL:   input.CallbackURL,
	})
	if err != nil {
		return nil, err
	}
	return &Session{RedirectURL: url}, nil
}

func (g *OpayGateway) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	succeeded, raw, err := g.inner.CashierStatus(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Succeeded: succeeded, Raw: raw}, nil
}

var gateways = map[types.PaymentMethod]PaymentGateway{}

// NewGateway Replace the gateway registered for a method with a custom
// implementation. Passing nil restores the default client-backed gateway.
func NewGateway(method types.PaymentMethod, g PaymentGateway) {
	if g == nil {
		delete(gateways, method)
		return
	}
	gateways[method] = g
}

func GatewayFor(method types.PaymentMethod) (PaymentGateway, error) {
	if g, ok := gateways[method]; ok {
		return g, nil
	}
	switch method {
	case types.PAYMENT_PAYSTACK:
		return &PaystackGateway{inner: GetPaystackClient()}, nil
	case types.PAYMENT_OPAY:
		return &OpayGateway{inner: GetOpayClient()}, nil
	}
	return nil, fmt.Errorf("unknown payment method [%s]", method)
}

// GatewayForReference routes a callback reference to its provider by the
// namespace prefix baked into the reference at intake.
func GatewayForReference(reference string) (PaymentGateway, error) {
	switch {
	case strings.HasPrefix(reference, "PAYSTACK-"):
		return GatewayFor(types.PAYMENT_PAYSTACK)
	case strings.HasPrefix(reference, "OPAY-"):
		return GatewayFor(types.PAYMENT_OPAY)
	}
	return nil, fmt.Errorf("could not determine provider for reference [%s]", reference)
}
