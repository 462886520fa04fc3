//go:build unit

package commands

// HashParamsForTest exposes request hashing so idempotency tests can build
// matching stored records.
var HashParamsForTest = hashParams
