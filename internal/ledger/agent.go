package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetbook/internal/identity"
)

const requestDomainSep = "\x1afleetbook-request"

// agent sends signed calls to the ledger on behalf of an identity. The
// signature is made with the caller's key (session or root) and the
// delegation chain, when present, proves the session's authority.
type agent struct {
	baseURL    string
	httpClient *http.Client
	signer     identity.Signer
}

func newAgent(baseURL string, timeout time.Duration, signer identity.Signer) *agent {
	return &agent{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		signer:     signer,
	}
}

// envelope is the wire form of a ledger call.
type envelope struct {
	Method       string                      `json:"method"`
	Arg          json.RawMessage             `json:"arg"`
	SenderPubkey []byte                      `json:"sender_pubkey"`
	OriginPubkey []byte                      `json:"origin_pubkey"`
	Chain        []identity.SignedDelegation `json:"delegation_chain,omitempty"`
	Signature    []byte                      `json:"signature"`
}

// signedPayload is the byte string the envelope signature covers.
func signedPayload(method string, arg []byte) []byte {
	buf := make([]byte, 0, len(requestDomainSep)+len(method)+1+len(arg))
	buf = append(buf, requestDomainSep...)
	buf = append(buf, method...)
	buf = append(buf, 0)
	buf = append(buf, arg...)
	return buf
}

type reply struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Reply   json.RawMessage `json:"reply,omitempty"`
}

// call signs and posts a method invocation and decodes the reply into out.
func (a *agent) call(ctx context.Context, method string, arg, out any) error {
	argRaw, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("encode %s arg: %w", method, err)
	}
	sig, err := a.signer.Sign(signedPayload(method, argRaw))
	if err != nil {
		return fmt.Errorf("sign %s call: %w", method, err)
	}
	body, err := json.Marshal(envelope{
		Method:       method,
		Arg:          argRaw,
		SenderPubkey: a.signer.PublicKeyDER(),
		OriginPubkey: a.signer.OriginKey(),
		Chain:        a.signer.Chain(),
		Signature:    sig,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/call", bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Kind: RemoteTransport, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Kind: RemoteTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	var r reply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return &RemoteError{Kind: RemoteTransport, Message: fmt.Sprintf("decode reply: %v", err)}
	}
	switch {
	case resp.StatusCode >= 500:
		// The ledger reports rejections as 4xx with a status field; a 5xx
		// comes from infrastructure in front of it and is retriable.
		return &RemoteError{Kind: RemoteTransport, Message: fmt.Sprintf("http %d", resp.StatusCode)}
	case r.Status == "":
		return &RemoteError{Kind: RemoteTransport, Message: fmt.Sprintf("reply missing status (http %d)", resp.StatusCode)}
	case resp.StatusCode >= 300 || r.Status != "ok":
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("http %d", resp.StatusCode)
		}
		return &RemoteError{Kind: RemoteRejected, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(r.Reply, out); err != nil {
			return &RemoteError{Kind: RemoteTransport, Message: fmt.Sprintf("decode %s reply: %v", method, err)}
		}
	}
	return nil
}

// principal reports who the ledger attributes the agent's calls to.
func (a *agent) principal() identity.Principal {
	return identity.PrincipalOf(a.signer.OriginKey())
}
