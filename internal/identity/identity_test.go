package identity

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelegateAndReconstruct(t *testing.T) {
	root, err := Generate()
	require.NoError(t, err)

	wire, err := DelegateSession(root)
	require.NoError(t, err)
	require.Len(t, wire.Chain, 1)

	session, err := Reconstruct(wire, time.Now())
	require.NoError(t, err)

	assert.Equal(t, root.Principal(), session.Principal(),
		"session must act as the root principal")
	assert.NotEqual(t, root.PublicKeyDER(), session.PublicKeyDER())

	msg := []byte("availability check")
	sig, err := session.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, VerifySignature(session.PublicKeyDER(), msg, sig))
}

func TestDelegateScopedNormalizesTargets(t *testing.T) {
	root, err := Generate()
	require.NoError(t, err)

	wire, err := DelegateScoped(root, time.Hour, "  Fleet-Ledger ", "payments", "fleet-ledger")
	require.NoError(t, err)
	require.Len(t, wire.Chain, 1)
	assert.Equal(t, []string{"fleet-ledger", "payments"}, wire.Chain[0].Delegation.Targets)

	_, err = Reconstruct(wire, time.Now())
	require.NoError(t, err, "targets are part of the signed payload")
}

func TestWireRoundTrip(t *testing.T) {
	root, err := Generate()
	require.NoError(t, err)

	wire, err := DelegateShortSession(root)
	require.NoError(t, err)

	first, err := json.Marshal(wire)
	require.NoError(t, err)

	var decoded Wire
	require.NoError(t, json.Unmarshal(first, &decoded))
	second, err := json.Marshal(&decoded)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))

	_, err = Reconstruct(&decoded, time.Now())
	require.NoError(t, err, "decoded wire must remain usable")
}

func TestEffectiveExpiryIsChainMinimum(t *testing.T) {
	now := time.Now()

	root, err := Generate()
	require.NoError(t, err)

	wire, err := delegateAt(root, 10*time.Second, now)
	require.NoError(t, err)
	mid, err := Reconstruct(wire, now)
	require.NoError(t, err)

	wire, err = delegateAt(mid, 5*time.Second, now)
	require.NoError(t, err)
	mid, err = Reconstruct(wire, now)
	require.NoError(t, err)

	wire, err = delegateAt(mid, 20*time.Second, now)
	require.NoError(t, err)
	leaf, err := Reconstruct(wire, now)
	require.NoError(t, err)

	require.Len(t, leaf.Chain(), 3)
	want := now.Add(5 * time.Second)
	assert.Equal(t, uint64(want.UnixNano()), EffectiveExpiry(leaf.Chain()),
		"effective expiry must be the tightest link, not the last")
	assert.True(t, leaf.EffectiveExpiry().Equal(time.Unix(0, want.UnixNano())))
}

func TestReconstructRejectsExpiredChain(t *testing.T) {
	now := time.Now()

	root, err := Generate()
	require.NoError(t, err)
	wire, err := delegateAt(root, 10*time.Second, now)
	require.NoError(t, err)
	mid, err := Reconstruct(wire, now)
	require.NoError(t, err)
	wire, err = delegateAt(mid, 5*time.Second, now)
	require.NoError(t, err)

	_, err = Reconstruct(wire, now.Add(6*time.Second))
	assert.ErrorIs(t, err, ErrChainExpired,
		"one elapsed link expires the whole chain")

	_, err = Reconstruct(wire, now.Add(4*time.Second))
	assert.NoError(t, err)
}

func TestReconstructRejectsTamperedLinks(t *testing.T) {
	now := time.Now()

	root, err := Generate()
	require.NoError(t, err)
	wire, err := delegateAt(root, time.Hour, now)
	require.NoError(t, err)
	mid, err := Reconstruct(wire, now)
	require.NoError(t, err)
	wire, err = delegateAt(mid, time.Hour, now)
	require.NoError(t, err)

	for i := range wire.Chain {
		t.Run("link", func(t *testing.T) {
			raw, err := json.Marshal(wire)
			require.NoError(t, err)
			var tampered Wire
			require.NoError(t, json.Unmarshal(raw, &tampered))

			tampered.Chain[i].Delegation.Expiration += uint64(time.Hour)
			_, err = Reconstruct(&tampered, now)
			assert.ErrorIs(t, err, ErrBadSignature)
		})
	}
}

func TestReconstructRejectsForeignSessionKey(t *testing.T) {
	now := time.Now()

	root, err := Generate()
	require.NoError(t, err)
	wire, err := delegateAt(root, time.Hour, now)
	require.NoError(t, err)

	other, err := delegateAt(root, time.Hour, now)
	require.NoError(t, err)

	wire.SessionKey = other.SessionKey
	_, err = Reconstruct(wire, now)
	assert.ErrorIs(t, err, ErrBrokenChain)
}

func TestReconstructRejectsMalformedWire(t *testing.T) {
	now := time.Now()

	root, err := Generate()
	require.NoError(t, err)
	wire, err := delegateAt(root, time.Hour, now)
	require.NoError(t, err)

	t.Run("garbage session key", func(t *testing.T) {
		bad := *wire
		bad.SessionKey = json.RawMessage(`{"kty":"EC"}`)
		_, err := Reconstruct(&bad, now)
		assert.ErrorIs(t, err, ErrMalformedKey)
	})

	t.Run("empty chain", func(t *testing.T) {
		bad := *wire
		bad.Chain = nil
		_, err := Reconstruct(&bad, now)
		assert.ErrorIs(t, err, ErrEmptyChain)
	})

	t.Run("garbage origin key", func(t *testing.T) {
		bad := *wire
		bad.FromKey = []byte("not a der key")
		_, err := Reconstruct(&bad, now)
		assert.ErrorIs(t, err, ErrMalformedKey)
	})
}

func TestFromPEM(t *testing.T) {
	t.Run("round trips a generated key", func(t *testing.T) {
		orig, err := Generate()
		require.NoError(t, err)

		der, err := x509.MarshalECPrivateKey(orig.key)
		require.NoError(t, err)
		pemData := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

		loaded, err := FromPEM(pemData)
		require.NoError(t, err)
		assert.Equal(t, orig.Principal(), loaded.Principal())
	})

	t.Run("rejects junk", func(t *testing.T) {
		_, err := FromPEM([]byte("not pem at all"))
		assert.ErrorIs(t, err, ErrMalformedKey)
	})
}
