package format

import (
	dcrypt "github.com/dovecot/dcrypt-go"
)

// The key-format entry points join the dispatch table at link time, the
// same moment the default primitive set is installed.
func init() {
	b := dcrypt.GetBackend()
	b.LoadPrivateKey = LoadPrivateKey
	b.LoadPublicKey = LoadPublicKey
	b.StorePrivateKey = StorePrivateKey
	b.StorePublicKey = StorePublicKey
	b.KeyStringInfo = KeyStringInfo
}
