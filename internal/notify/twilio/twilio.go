// Package twilio dispatches SMS and voice notifications through the
// Twilio-compatible carrier REST API.
package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 30 * time.Second

// Dispatcher sends messages through the carrier API. One attempt per send,
// no retries; the alert engine treats each failure as final for the tick.
type Dispatcher struct {
	apiBase    string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

// New creates a carrier dispatcher. apiBase is the API root without a
// trailing slash, e.g. "https://api.twilio.com/2010-04-01".
func New(apiBase, accountSID, authToken, from string) *Dispatcher {
	return &Dispatcher{
		apiBase:    strings.TrimRight(apiBase, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// SendSMS sends one text message.
func (d *Dispatcher) SendSMS(ctx context.Context, to, body string) error {
	form := url.Values{
		"To":   {to},
		"From": {d.from},
		"Body": {body},
	}
	return d.post(ctx, "Messages.json", form)
}

// SendCall places one voice call whose flow is read from scriptURL.
func (d *Dispatcher) SendCall(ctx context.Context, to, scriptURL string) error {
	form := url.Values{
		"To":   {to},
		"From": {d.from},
		"Url":  {scriptURL},
	}
	return d.post(ctx, "Calls.json", form)
}

func (d *Dispatcher) post(ctx context.Context, resource string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/%s", d.apiBase, url.PathEscape(d.accountSID), resource)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("carrier: create request: %w", err)
	}
	req.SetBasicAuth(d.accountSID, d.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.httpClient.Do(req) //nolint:gosec // G704: apiBase is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("carrier: post %s: %w", resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("carrier: %s returned %d: %s", resource, resp.StatusCode, string(respBody))
	}
	return nil
}
