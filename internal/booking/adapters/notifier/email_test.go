package notifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain"
	"fleetbook/internal/platform/config"
)

func testTransaction(t *testing.T) domain.Transaction {
	t.Helper()
	name, err := domain.ParseUserName("Asha Rao")
	require.NoError(t, err)
	email, err := domain.ParseEmailAddress("asha@example.com")
	require.NoError(t, err)
	age, err := domain.ParseAge(30)
	require.NoError(t, err)
	mobile, err := domain.ParseMobileNumber("9876543210")
	require.NoError(t, err)
	pan, err := domain.ParsePAN("ABCDE1234F")
	require.NoError(t, err)
	aadhar, err := domain.ParseAadhar("123456789012")
	require.NoError(t, err)
	return domain.NewTransaction(42, 3, domain.Customer{
		Name:        name,
		Email:       email,
		Age:         age,
		CountryCode: 91,
		Mobile:      mobile,
		PAN:         pan,
		Aadhar:      aadhar,
	}, domain.Window{Start: 1_900_000_000, End: 1_900_003_600})
}

type fakeGmail struct {
	validToken  atomic.Value // string
	sends       atomic.Int64
	refreshes   atomic.Int64
	lastMessage atomic.Value // string
}

func newFakeGmail(valid string) *fakeGmail {
	f := &fakeGmail{}
	f.validToken.Store(valid)
	return f
}

func (f *fakeGmail) sendHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.sends.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+f.validToken.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		msg, err := base64.URLEncoding.DecodeString(body.Raw)
		require.NoError(t, err)
		f.lastMessage.Store(string(msg))
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeGmail) tokenHandler(t *testing.T, next string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
		f.validToken.Store(next)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": next})
	}
}

func newEmail(t *testing.T, fake *fakeGmail, accessToken string) *Email {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/send", fake.sendHandler(t))
	mux.Handle("/token", fake.tokenHandler(t, "token-2"))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewEmail(config.EmailConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		AccessToken:  accessToken,
		RefreshToken: "refresh-1",
		TokenURL:     srv.URL + "/token",
		SendURL:      srv.URL + "/send",
		BCC:          "ops@fleetbook.example.com",
	}, 5*time.Second)
}

func TestNotifySendsConfirmation(t *testing.T) {
	fake := newFakeGmail("token-1")
	email := newEmail(t, fake, "token-1")

	require.NoError(t, email.Notify(context.Background(), testTransaction(t)))

	assert.EqualValues(t, 1, fake.sends.Load())
	assert.EqualValues(t, 0, fake.refreshes.Load())

	msg := fake.lastMessage.Load().(string)
	assert.Contains(t, msg, "To: asha@example.com")
	assert.Contains(t, msg, "Bcc: ops@fleetbook.example.com")
	assert.Contains(t, msg, "Booking confirmed: #42")
	assert.Contains(t, msg, "car 3")
}

func TestNotifyRefreshesStaleTokenOnce(t *testing.T) {
	fake := newFakeGmail("token-2")
	email := newEmail(t, fake, "token-1")

	require.NoError(t, email.Notify(context.Background(), testTransaction(t)))

	assert.EqualValues(t, 2, fake.sends.Load(), "one failed send, one retry")
	assert.EqualValues(t, 1, fake.refreshes.Load())

	// The refreshed token is cached for later sends.
	require.NoError(t, email.Notify(context.Background(), testTransaction(t)))
	assert.EqualValues(t, 1, fake.refreshes.Load())
}

func TestNotifyFailsWhenRefreshRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	email := NewEmail(config.EmailConfig{
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
		TokenURL:     srv.URL + "/token",
		SendURL:      srv.URL + "/send",
	}, time.Second)

	err := email.Notify(context.Background(), testTransaction(t))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "token refresh failed"))
}
