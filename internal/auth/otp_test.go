package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func otpServer(t *testing.T, validOTP string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/otp/send":
			if body["phone"] == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		case "/otp/verify":
			if body["otp"] != validOTP {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"verified":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOTPClient_SendAndVerify(t *testing.T) {
	srv := otpServer(t, "123456")
	c := NewOTPClient(srv.URL, time.Second, zap.NewNop())

	require.NoError(t, c.Send(context.Background(), "9876543210"))
	require.NoError(t, c.Verify(context.Background(), "9876543210", "123456"))
	assert.ErrorIs(t, c.Verify(context.Background(), "9876543210", "000000"), ErrInvalidOTP)
}

func TestOTPClient_SendRejected(t *testing.T) {
	srv := otpServer(t, "123456")
	c := NewOTPClient(srv.URL, time.Second, zap.NewNop())

	assert.ErrorIs(t, c.Send(context.Background(), ""), ErrOTPRequestInvalid)
}

func TestOTPClient_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOTPClient(srv.URL, time.Second, zap.NewNop())
	for i := 0; i < 6; i++ {
		assert.ErrorIs(t, c.Send(context.Background(), "9876543210"), ErrOTPUnavailable)
	}
	assert.Equal(t, "open", c.breaker.State())
}

func TestOTPClient_WrongCodesDoNotTripBreaker(t *testing.T) {
	srv := otpServer(t, "123456")
	c := NewOTPClient(srv.URL, time.Second, zap.NewNop())

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, c.Verify(context.Background(), "9876543210", "111111"), ErrInvalidOTP)
	}
	assert.Equal(t, "closed", c.breaker.State())
}
