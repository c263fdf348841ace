package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandKeyDeterminism(t *testing.T) {
	k1 := CommandKey("Products?$filter=ProductName eq 'Chai'")
	k2 := CommandKey("Products?$filter=ProductName eq 'Chai'")
	k3 := CommandKey("Products?$filter=ProductName eq 'Chang'")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, 64, "SHA-256 hex is 64 characters")
}

func TestCommandKeyNFC(t *testing.T) {
	assert.Equal(t,
		CommandKey("Customers?$filter=City eq 'caf\u00E9'"),
		CommandKey("Customers?$filter=City eq 'cafe\u0301'"))
}

func TestRequestKey(t *testing.T) {
	body := map[string]any{"ProductName": "Chai", "UnitPrice": 18}

	k1, err := RequestKey("POST", "Products", body)
	require.NoError(t, err)
	k2 := MustRequestKey("POST", "Products", map[string]any{"UnitPrice": 18, "ProductName": "Chai"})
	k3 := MustRequestKey("PATCH", "Products", body)
	k4 := MustRequestKey("POST", "Products", nil)

	assert.Equal(t, k1, k2, "key order must not matter")
	assert.NotEqual(t, k1, k3, "method is part of the key")
	assert.NotEqual(t, k1, k4, "body is part of the key")
}

func TestRequestKeyRejectsUnsupportedBody(t *testing.T) {
	_, err := RequestKey("POST", "Products", struct{}{})
	require.Error(t, err)
}
