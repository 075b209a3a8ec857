// Package identity implements the delegation mechanism that lets a long-term
// signing identity grant a short-lived session key limited, time-boxed
// authority over the remote ledger. Authority is proven by a chain of signed
// delegations; only ephemeral keys and proofs ever cross the wire.
package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	// ErrMalformedKey indicates key material that could not be decoded.
	ErrMalformedKey = errors.New("malformed key material")
)

// Signer is anything that can extend a delegation chain: a root Identity or
// an already-delegated session identity (re-delegation).
type Signer interface {
	// PublicKeyDER returns the DER-encoded public key that signs the next
	// chain link.
	PublicKeyDER() []byte

	// OriginKey returns the DER-encoded public key at the root of the chain.
	OriginKey() []byte

	// Chain returns the existing delegation proofs, outermost first. Empty
	// for a root identity.
	Chain() []SignedDelegation

	// Sign signs message with the identity's private key.
	Sign(message []byte) ([]byte, error)
}

// Identity owns a long-lived P-256 keypair. The private key never leaves the
// process; delegation wires carry only fresh session keys.
type Identity struct {
	key    *ecdsa.PrivateKey
	pubDER []byte
}

// Generate creates a fresh root identity.
func Generate() (*Identity, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	return FromPrivateKey(key)
}

// FromPrivateKey wraps an existing P-256 key as an Identity.
func FromPrivateKey(key *ecdsa.PrivateKey) (*Identity, error) {
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return &Identity{key: key, pubDER: pubDER}, nil
}

// FromPEM loads an identity from an EC PRIVATE KEY PEM block, the form the
// service's administrative key is configured in.
func FromPEM(pemData []byte) (*Identity, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, ErrMalformedKey
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return FromPrivateKey(key)
}

func (i *Identity) PublicKeyDER() []byte { return i.pubDER }

func (i *Identity) OriginKey() []byte { return i.pubDER }

func (i *Identity) Chain() []SignedDelegation { return nil }

func (i *Identity) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return ecdsa.SignASN1(rand.Reader, i.key, digest[:])
}

// Principal returns the identity's public address.
func (i *Identity) Principal() Principal {
	return PrincipalOf(i.pubDER)
}

// VerifySignature checks an ASN.1 ECDSA signature over message against a
// DER-encoded public key. The ledger side of the call protocol performs the
// same check on every envelope.
func VerifySignature(pubDER, message, sig []byte) error {
	pub, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return ErrMalformedKey
	}
	digest := sha256.Sum256(message)
	if !ecdsa.VerifyASN1(ecPub, digest[:], sig) {
		return ErrBadSignature
	}
	return nil
}
