package lib

import (
	"dcp/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayForReference(t *testing.T) {
	g, err := GatewayForReference("PAYSTACK-2c3f0b9e")
	assert.NoError(t, err)
	assert.Equal(t, types.PAYMENT_PAYSTACK, g.Name())

	g, err = GatewayForReference("OPAY-2c3f0b9e")
	assert.NoError(t, err)
	assert.Equal(t, types.PAYMENT_OPAY, g.Name())

	_, err = GatewayForReference("unknown-ref")
	assert.Error(t, err)
}

func TestGatewayForUnknownMethod(t *testing.T) {
	_, err := GatewayFor(types.PaymentMethod("cash"))
	assert.Error(t, err)
}

func TestNewGatewayOverride(t *testing.T) {
	original, err := GatewayFor(types.PAYMENT_PAYSTACK)
	assert.NoError(t, err)

	override := &OpayGateway{inner: GetOpayClient()}
	NewGateway(types.PAYMENT_PAYSTACK, override)
	g, err := GatewayFor(types.PAYMENT_PAYSTACK)
	assert.NoError(t, err)
	assert.Same(t, override, g)

	NewGateway(types.PAYMENT_PAYSTACK, nil)
	g, err = GatewayFor(types.PAYMENT_PAYSTACK)
	assert.NoError(t, err)
	assert.IsType(t, original, g)
}
