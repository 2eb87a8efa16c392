package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type capturedRequest struct {
	path string
	auth string
	form url.Values
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()

	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content-type = %q, want application/x-www-form-urlencoded", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.form = r.PostForm
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestSendSMS_PostsMessage(t *testing.T) {
	t.Parallel()

	srv, got := newCaptureServer(t, http.StatusCreated)

	d := New(srv.URL, "AC123", "secret", "+15550001111")
	if err := d.SendSMS(context.Background(), "+15552223333", "Sismo M6.1"); err != nil {
		t.Fatalf("SendSMS: %v", err)
	}

	if got.path != "/Accounts/AC123/Messages.json" {
		t.Errorf("path = %q, want /Accounts/AC123/Messages.json", got.path)
	}
	if got.auth == "" || !strings.HasPrefix(got.auth, "Basic ") {
		t.Errorf("expected basic auth header, got %q", got.auth)
	}
	if got.form.Get("To") != "+15552223333" {
		t.Errorf("To = %q, want +15552223333", got.form.Get("To"))
	}
	if got.form.Get("From") != "+15550001111" {
		t.Errorf("From = %q, want +15550001111", got.form.Get("From"))
	}
	if got.form.Get("Body") != "Sismo M6.1" {
		t.Errorf("Body = %q, want Sismo M6.1", got.form.Get("Body"))
	}
}

func TestSendCall_PostsScriptURL(t *testing.T) {
	t.Parallel()

	srv, got := newCaptureServer(t, http.StatusCreated)

	d := New(srv.URL+"/", "AC123", "secret", "+15550001111")
	if err := d.SendCall(context.Background(), "+15552223333", "https://alerts.example.com/twiml?text=hola"); err != nil {
		t.Fatalf("SendCall: %v", err)
	}

	if got.path != "/Accounts/AC123/Calls.json" {
		t.Errorf("path = %q, want /Accounts/AC123/Calls.json", got.path)
	}
	if got.form.Get("Url") != "https://alerts.example.com/twiml?text=hola" {
		t.Errorf("Url = %q", got.form.Get("Url"))
	}
	if got.form.Get("Body") != "" {
		t.Errorf("calls must not carry a Body field, got %q", got.form.Get("Body"))
	}
}

func TestSend_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 21211, "message": "invalid To number"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	d := New(srv.URL, "AC123", "secret", "+15550001111")
	err := d.SendSMS(context.Background(), "not-a-number", "hi")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should mention status code, got %v", err)
	}
	if !strings.Contains(err.Error(), "21211") {
		t.Errorf("error should include response body, got %v", err)
	}
}

func TestSend_ConnectionErrorIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d := New(srv.URL, "AC123", "secret", "+15550001111")
	if err := d.SendSMS(context.Background(), "+15552223333", "hi"); err == nil {
		t.Fatal("expected error when carrier is unreachable")
	}
}
