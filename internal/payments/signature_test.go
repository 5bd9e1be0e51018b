package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := "test-secret"
	sig := ComputeSignature(secret, "order_123", "pay_456")

	assert.True(t, VerifySignature(secret, "order_123", "pay_456", sig))
	assert.False(t, VerifySignature(secret, "order_123", "pay_456", sig+"00"))
	assert.False(t, VerifySignature(secret, "order_999", "pay_456", sig))
	assert.False(t, VerifySignature("other-secret", "order_123", "pay_456", sig))
	assert.False(t, VerifySignature(secret, "order_123", "pay_456", ""))
}

func TestComputeSignatureIsDeterministic(t *testing.T) {
	a := ComputeSignature("s", "o", "p")
	b := ComputeSignature("s", "o", "p")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
