package identity

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
)

// Principal is the stable textual address derived from a public key. Two
// sessions delegated from the same root resolve to the same principal.
type Principal string

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// PrincipalOf derives the principal for a DER-encoded public key.
func PrincipalOf(pubDER []byte) Principal {
	sum := sha256.Sum256(pubDER)
	return Principal(strings.ToLower(principalEncoding.EncodeToString(sum[:20])))
}

func (p Principal) String() string { return string(p) }
