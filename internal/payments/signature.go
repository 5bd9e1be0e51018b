package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature returns the hex HMAC-SHA256 of "orderId|paymentId" under
// the gateway key secret, matching the gateway's checkout callback signature.
func ComputeSignature(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the caller-supplied signature against the expected
// one in constant time.
func VerifySignature(secret, gatewayOrderID, paymentID, signature string) bool {
	expected := ComputeSignature(secret, gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
