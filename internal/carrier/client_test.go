package carrier_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numport/numport/internal/carrier"
	"github.com/numport/numport/internal/porting"
)

func testRequest() *porting.Request {
	return &porting.Request{
		ID:             "prt_test1234567890",
		UserID:         "usr_customer1",
		PhoneNumber:    "+12025551234",
		CurrentCarrier: "Verizon",
		AccountNumber:  "123456789",
		PIN:            "1234",
		AuthorizedName: "Jordan Smith",
		BillingAddress: porting.BillingAddress{
			Street:  "100 Main St",
			City:    "Washington",
			State:   "DC",
			ZipCode: "20001",
			Country: "US",
		},
		Status: porting.StatusSubmitted,
	}
}

func TestInitiatePort_SubmitsOrder(t *testing.T) {
	var received map[string]interface{}
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/ports", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		authHeader = r.Header.Get("Authorization")

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-api-key",
	})

	err := client.InitiatePort(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-api-key", authHeader)
	assert.Equal(t, "+12025551234", received["phone_number"])
	assert.Equal(t, "Verizon", received["losing_carrier"])
	assert.Equal(t, "prt_test1234567890", received["reference"])
	assert.Equal(t, "1234", received["pin"])
}

func TestInitiatePort_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 3,
	})

	err := client.InitiatePort(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestInitiatePort_RejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 3,
	})

	err := client.InitiatePort(context.Background(), testRequest())

	require.ErrorIs(t, err, carrier.ErrRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInitiatePort_ExhaustedRetriesReturnError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 2,
	})

	err := client.InitiatePort(context.Background(), testRequest())

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt + 2 retries
}

func TestInitiatePort_BreakerOpensAfterSustainedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 10,
	})

	err := client.InitiatePort(context.Background(), testRequest())

	require.ErrorIs(t, err, carrier.ErrCircuitOpen)
	assert.NotEqual(t, "closed", client.State().String())
}

func TestInitiatePort_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{
		BaseURL:    server.URL,
		MaxRetries: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := client.InitiatePort(ctx, testRequest())
	require.Error(t, err)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ports", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := carrier.NewClient(carrier.ClientConfig{BaseURL: server.URL + "/"})

	require.NoError(t, client.InitiatePort(context.Background(), testRequest()))
}
