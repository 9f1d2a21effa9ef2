// Package signature implements the keyed digest the gateway uses to
// authenticate requests: md5(username + api_key + nonce), lowercase hex.
// The nonce is the transaction ref_id, or a fixed literal for calls that are
// not tied to a single transaction.
package signature

import (
	"crypto/md5"
	"encoding/hex"
)

// Fixed nonces for non-transactional endpoints.
const (
	BalanceNonce   = "depo"
	PriceListNonce = "pricelist"
)

// Sign computes the request signature. Deterministic, no side effects: the
// gateway recomputes the same digest server-side to authenticate the caller.
func Sign(username, apiKey, nonce string) string {
	sum := md5.Sum([]byte(username + apiKey + nonce))
	return hex.EncodeToString(sum[:])
}
