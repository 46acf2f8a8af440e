package beautypay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerify(t *testing.T) {
	body := []byte(`{"transaction_id":"BP-123","status":"Paid","amount":"212.75"}`)

	sig := Sign(body, "secret")

	assert.True(t, Verify(sig, body, "secret"))
	assert.True(t, Verify(" "+sig+"\n", body, "secret"), "surrounding whitespace is tolerated")
	assert.True(t, Verify(strings.ToUpper(sig), body, "secret"), "hex case is irrelevant")
}

func TestVerify_RejectsTampering(t *testing.T) {
	body := []byte(`{"transaction_id":"BP-123","status":"Paid","amount":"212.75"}`)
	sig := Sign(body, "secret")

	tampered := []byte(`{"transaction_id":"BP-123","status":"Paid","amount":"999.00"}`)
	assert.False(t, Verify(sig, tampered, "secret"))
	assert.False(t, Verify(sig, body, "other-secret"))
	assert.False(t, Verify("", body, "secret"))
	assert.False(t, Verify("not-hex", body, "secret"))
}
