package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	platformstrings "fleetbook/pkg/platform/strings"
)

// Default lifetimes for session delegations.
const (
	SessionMaxAge      = 7 * 24 * time.Hour
	ShortSessionMaxAge = 24 * time.Hour
)

var (
	// ErrEmptyChain indicates a wire identity without delegation proofs.
	ErrEmptyChain = errors.New("empty delegation chain")

	// ErrBadSignature indicates a chain link whose signature does not verify
	// against the preceding key.
	ErrBadSignature = errors.New("delegation signature does not verify")

	// ErrChainExpired indicates a chain with at least one elapsed link.
	ErrChainExpired = errors.New("delegation chain expired")

	// ErrBrokenChain indicates a chain whose final link does not delegate to
	// the presented session key.
	ErrBrokenChain = errors.New("delegation chain does not terminate at session key")
)

// Delegation grants authority to a subject public key until an absolute
// deadline. Targets, when present, restricts the grant to the named ledger
// services.
type Delegation struct {
	// Pubkey is the DER-encoded public key being delegated to.
	Pubkey []byte `json:"pubkey"`

	// Expiration is an absolute deadline in nanoseconds since the Unix epoch.
	Expiration uint64 `json:"expiration"`

	// Targets optionally restricts the delegation to specific services.
	Targets []string `json:"targets,omitempty"`
}

// SignedDelegation is one link of a delegation chain: a Delegation plus the
// signature of the key one step closer to the root.
type SignedDelegation struct {
	Delegation Delegation `json:"delegation"`
	Signature  []byte     `json:"signature"`
}

// signedPayload is the byte string a delegation signature covers. A fixed
// domain-separation prefix keeps delegation signatures distinct from request
// signatures made with the same key.
func (d Delegation) signedPayload() []byte {
	buf := make([]byte, 0, len(delegationDomainSep)+8+len(d.Pubkey))
	buf = append(buf, delegationDomainSep...)
	buf = binary.BigEndian.AppendUint64(buf, d.Expiration)
	buf = append(buf, d.Pubkey...)
	for _, t := range d.Targets {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		buf = append(buf, t...)
	}
	return buf
}

const delegationDomainSep = "\x1afleetbook-delegation"

// Delegate mints a fresh session keypair and extends from's chain with a
// delegation to it, valid for maxAge from now. The returned Wire is the only
// form in which the session secret leaves the process.
func Delegate(from Signer, maxAge time.Duration) (*Wire, error) {
	return delegateAt(from, maxAge, time.Now())
}

// DelegateScoped is Delegate with the grant restricted to the named target
// services. Target names are normalized before signing so scope checks are
// case-insensitive.
func DelegateScoped(from Signer, maxAge time.Duration, targets ...string) (*Wire, error) {
	return delegateAt(from, maxAge, time.Now(), targets...)
}

func delegateAt(from Signer, maxAge time.Duration, now time.Time, targets ...string) (*Wire, error) {
	session, err := Generate()
	if err != nil {
		return nil, err
	}

	d := Delegation{
		Pubkey:     session.PublicKeyDER(),
		Expiration: uint64(now.Add(maxAge).UnixNano()),
		Targets:    platformstrings.NormalizeList(targets),
	}
	sig, err := from.Sign(d.signedPayload())
	if err != nil {
		return nil, fmt.Errorf("sign delegation: %w", err)
	}

	chain := make([]SignedDelegation, 0, len(from.Chain())+1)
	chain = append(chain, from.Chain()...)
	chain = append(chain, SignedDelegation{Delegation: d, Signature: sig})

	sessionJWK, err := encodeSessionKey(session.key)
	if err != nil {
		return nil, err
	}
	return &Wire{
		FromKey:    from.OriginKey(),
		SessionKey: sessionJWK,
		Chain:      chain,
	}, nil
}

// DelegateSession issues a standard session delegation.
func DelegateSession(from Signer) (*Wire, error) {
	return Delegate(from, SessionMaxAge)
}

// DelegateShortSession issues a short-lived delegation for exposed contexts.
func DelegateShortSession(from Signer) (*Wire, error) {
	return Delegate(from, ShortSessionMaxAge)
}

// VerifyChain walks a delegation chain from the origin key, checking that
// each link is signed by the holder of the previous link's subject key and
// that no link has expired at now.
func VerifyChain(origin []byte, chain []SignedDelegation, now time.Time) error {
	if len(chain) == 0 {
		return ErrEmptyChain
	}
	nowNS := uint64(now.UnixNano())
	signer := origin
	for _, link := range chain {
		if err := VerifySignature(signer, link.Delegation.signedPayload(), link.Signature); err != nil {
			return err
		}
		if link.Delegation.Expiration <= nowNS {
			return ErrChainExpired
		}
		signer = link.Delegation.Pubkey
	}
	return nil
}

// EffectiveExpiry returns the earliest deadline across the chain, the moment
// the composed authority lapses. Returns 0 for an empty chain.
func EffectiveExpiry(chain []SignedDelegation) uint64 {
	var min uint64
	for i, link := range chain {
		if i == 0 || link.Delegation.Expiration < min {
			min = link.Delegation.Expiration
		}
	}
	return min
}
