package mailer

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		To:      "rider@example.com",
		Subject: "Booking confirmed: BK-20260828-042137",
		Body:    "Your booking is confirmed.",
	}
}

func TestHTTPGatewaySend(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var loginCalls, sendCalls int
		var gotAuth string
		var gotSend SendRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/login":
				loginCalls++
				var req LoginRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "api-user", req.Username)
				json.NewEncoder(w).Encode(LoginResponse{
					Status:     "success",
					Token:      "test-token",
					Expiration: 3600,
				})
			case "/messages":
				sendCalls++
				gotAuth = r.Header.Get("Authorization")
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSend))
				json.NewEncoder(w).Encode(SendResponse{Status: "success", MessageID: "msg-1"})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		gateway := NewHTTPGateway(GatewayConfig{
			APIURL:   server.URL,
			Username: "api-user",
			Password: "secret",
			Sender:   "bookings@routewise.example",
		})

		err := gateway.Send(testMessage())
		require.NoError(t, err)
		assert.Equal(t, 1, loginCalls)
		assert.Equal(t, 1, sendCalls)
		assert.Equal(t, "Bearer test-token", gotAuth)
		assert.Equal(t, "bookings@routewise.example", gotSend.From)
		assert.Equal(t, "rider@example.com", gotSend.To)
	})

	t.Run("Token Is Reused Across Sends", func(t *testing.T) {
		var loginCalls int

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/login":
				loginCalls++
				json.NewEncoder(w).Encode(LoginResponse{Status: "success", Token: "t", Expiration: 3600})
			case "/messages":
				json.NewEncoder(w).Encode(SendResponse{Status: "success"})
			}
		}))
		defer server.Close()

		gateway := NewHTTPGateway(GatewayConfig{APIURL: server.URL, Username: "u", Password: "p"})

		require.NoError(t, gateway.Send(testMessage()))
		require.NoError(t, gateway.Send(testMessage()))
		assert.Equal(t, 1, loginCalls)
	})

	t.Run("Login Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(LoginResponse{Status: "error", Comment: "bad credentials", ErrCode: "E401"})
		}))
		defer server.Close()

		gateway := NewHTTPGateway(GatewayConfig{APIURL: server.URL, Username: "u", Password: "wrong"})

		err := gateway.Send(testMessage())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "bad credentials")
	})

	t.Run("Send Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/login":
				json.NewEncoder(w).Encode(LoginResponse{Status: "success", Token: "t", Expiration: 3600})
			case "/messages":
				json.NewEncoder(w).Encode(SendResponse{Status: "error", Comment: "quota exceeded", ErrCode: "E429"})
			}
		}))
		defer server.Close()

		gateway := NewHTTPGateway(GatewayConfig{APIURL: server.URL, Username: "u", Password: "p"})

		err := gateway.Send(testMessage())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestDevTransport(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	transport := NewDevTransport(logger)
	assert.NoError(t, transport.Send(testMessage()))
	assert.Equal(t, "Dev Transport", transport.GetName())
}
