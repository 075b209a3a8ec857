// Package notifier delivers booking confirmations over the Gmail send API.
// Delivery is best-effort: callers treat errors as advisory.
package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fleetbook/internal/domain"
	"fleetbook/internal/platform/config"
)

// Email sends confirmation mail with a cached OAuth access token. The token
// is read and swapped under a mutex; the refresh call itself runs outside
// the lock, collapsed through singleflight so concurrent 401s trigger a
// single refresh.
type Email struct {
	cfg        config.EmailConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string

	refresh singleflight.Group
}

func NewEmail(cfg config.EmailConfig, timeout time.Duration) *Email {
	return &Email{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: timeout},
		accessToken: cfg.AccessToken,
	}
}

// Notify sends the booking confirmation to the customer. A stale access
// token is refreshed once and the send retried.
func (e *Email) Notify(ctx context.Context, tx domain.Transaction) error {
	token := e.token()
	status, err := e.send(ctx, token, tx)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		token, err = e.refreshToken(ctx, token)
		if err != nil {
			return err
		}
		status, err = e.send(ctx, token, tx)
		if err != nil {
			return err
		}
	}
	if status >= 300 {
		return fmt.Errorf("mail send failed: http %d", status)
	}
	return nil
}

func (e *Email) token() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accessToken
}

func (e *Email) setToken(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accessToken = token
}

func (e *Email) send(ctx context.Context, token string, tx domain.Transaction) (int, error) {
	raw := base64.URLEncoding.EncodeToString(confirmationMessage(e.cfg.BCC, tx))
	body, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return 0, fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.SendURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("mail send call: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// refreshToken exchanges the refresh token for a fresh access token.
// staleToken lets concurrent callers detect that another goroutine already
// replaced the token so they can reuse it instead of refreshing again.
func (e *Email) refreshToken(ctx context.Context, staleToken string) (string, error) {
	if current := e.token(); current != staleToken {
		return current, nil
	}
	v, err, _ := e.refresh.Do("token", func() (any, error) {
		form := url.Values{}
		form.Set("client_id", e.cfg.ClientID)
		form.Set("client_secret", e.cfg.ClientSecret)
		form.Set("refresh_token", e.cfg.RefreshToken)
		form.Set("grant_type", "refresh_token")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("build token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("token refresh call: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("token refresh failed: http %d", resp.StatusCode)
		}

		var out struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		if out.AccessToken == "" {
			return nil, fmt.Errorf("token response missing access_token")
		}
		e.setToken(out.AccessToken)
		return out.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func confirmationMessage(bcc string, tx domain.Transaction) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", tx.Customer.Email)
	if bcc != "" {
		fmt.Fprintf(&b, "Bcc: %s\r\n", bcc)
	}
	fmt.Fprintf(&b, "Subject: Booking confirmed: #%d\r\n", tx.BookingID)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", tx.Customer.Name)
	fmt.Fprintf(&b, "Your booking #%d for car %d is confirmed.\r\n", tx.BookingID, tx.CarID)
	fmt.Fprintf(&b, "Pickup: %s\r\n", time.Unix(int64(tx.Window.Start), 0).UTC().Format(time.RFC1123))
	fmt.Fprintf(&b, "Return: %s\r\n", time.Unix(int64(tx.Window.End), 0).UTC().Format(time.RFC1123))
	b.WriteString("\r\nSafe travels!\r\n")
	return []byte(b.String())
}
