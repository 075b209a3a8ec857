package identity

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Wire is the serialized form of a delegated identity, carried between the
// issuing process and the session holder. SessionKey is a bearer credential:
// holding a valid Wire is holding the delegated authority, so wires must be
// transported confidentially and never logged.
type Wire struct {
	// FromKey is the DER-encoded public key at the root of the chain.
	FromKey []byte `json:"from_key"`

	// SessionKey is the session private key as a JSON Web Key.
	SessionKey json.RawMessage `json:"session_key"`

	// Chain holds the delegation proofs, root-issued first.
	Chain []SignedDelegation `json:"delegation_chain"`
}

// encodeSessionKey renders a session private key as a JWK document.
func encodeSessionKey(key *ecdsa.PrivateKey) (json.RawMessage, error) {
	k, err := jwk.FromRaw(key)
	if err != nil {
		return nil, fmt.Errorf("encode session key: %w", err)
	}
	raw, err := json.Marshal(k)
	if err != nil {
		return nil, fmt.Errorf("encode session key: %w", err)
	}
	return raw, nil
}

// decodeSessionKey parses a JWK document back into a P-256 private key.
func decodeSessionKey(raw json.RawMessage) (*ecdsa.PrivateKey, error) {
	k, err := jwk.ParseKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	var key ecdsa.PrivateKey
	if err := k.Raw(&key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return &key, nil
}

// DelegatedIdentity is a session identity reconstructed from a Wire. It signs
// with the ephemeral session key and presents the chain as proof of authority.
type DelegatedIdentity struct {
	session *Identity
	fromKey []byte
	chain   []SignedDelegation
}

// Reconstruct validates a Wire and returns a usable session identity. It
// rejects malformed key material, chains whose signatures do not verify,
// chains that do not terminate at the presented session key, and chains with
// any link already elapsed at now. Refusing expired wires here keeps dead
// credentials from ever reaching the remote ledger.
func Reconstruct(wire *Wire, now time.Time) (*DelegatedIdentity, error) {
	key, err := decodeSessionKey(wire.SessionKey)
	if err != nil {
		return nil, err
	}
	session, err := FromPrivateKey(key)
	if err != nil {
		return nil, err
	}
	if err := VerifyChain(wire.FromKey, wire.Chain, now); err != nil {
		return nil, err
	}
	last := wire.Chain[len(wire.Chain)-1]
	sessionDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if !bytes.Equal(last.Delegation.Pubkey, sessionDER) {
		return nil, ErrBrokenChain
	}
	return &DelegatedIdentity{
		session: session,
		fromKey: bytes.Clone(wire.FromKey),
		chain:   cloneChain(wire.Chain),
	}, nil
}

func (d *DelegatedIdentity) PublicKeyDER() []byte { return d.session.PublicKeyDER() }

func (d *DelegatedIdentity) OriginKey() []byte { return d.fromKey }

func (d *DelegatedIdentity) Chain() []SignedDelegation { return d.chain }

func (d *DelegatedIdentity) Sign(message []byte) ([]byte, error) {
	return d.session.Sign(message)
}

// Principal reports the address the ledger attributes the session's requests
// to: the root identity's, not the session key's.
func (d *DelegatedIdentity) Principal() Principal {
	return PrincipalOf(d.fromKey)
}

// EffectiveExpiry returns the moment the session's authority lapses.
func (d *DelegatedIdentity) EffectiveExpiry() time.Time {
	return time.Unix(0, int64(EffectiveExpiry(d.chain)))
}

func cloneChain(chain []SignedDelegation) []SignedDelegation {
	out := make([]SignedDelegation, len(chain))
	copy(out, chain)
	return out
}
