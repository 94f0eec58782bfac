// Package auth verifies customers by one-time password and keeps their
// sessions in Redis.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/bagshop/internal/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrInvalidOTP        = errors.New("invalid or expired otp")
	ErrOTPUnavailable    = errors.New("otp provider unavailable")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrOTPRequestInvalid = errors.New("otp request rejected")
)

// OTPClient calls the external provider that sends and checks codes.
type OTPClient struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker[struct{}]
}

func NewOTPClient(baseURL string, timeout time.Duration, log *zap.Logger) *OTPClient {
	return &OTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[struct{}](circuitbreaker.DefaultSettings("otp-provider"), log,
			func(err error) bool {
				return err == nil || errors.Is(err, ErrInvalidOTP) || errors.Is(err, ErrOTPRequestInvalid)
			}),
	}
}

func (c *OTPClient) Send(ctx context.Context, phone string) error {
	return c.call(ctx, "/otp/send", map[string]string{"phone": phone})
}

// Verify returns ErrInvalidOTP when the provider refuses the code.
func (c *OTPClient) Verify(ctx context.Context, phone, otp string) error {
	return c.call(ctx, "/otp/verify", map[string]string{"phone": phone, "otp": otp})
}

func (c *OTPClient) call(ctx context.Context, path string, body any) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.post(ctx, path, body)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %w", ErrOTPUnavailable, err)
	}
	return err
}

func (c *OTPClient) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal otp request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOTPUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrOTPUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrInvalidOTP
	case resp.StatusCode >= 400:
		if path == "/otp/verify" {
			return ErrInvalidOTP
		}
		return fmt.Errorf("%w: status %d", ErrOTPRequestInvalid, resp.StatusCode)
	}
	return nil
}
