package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propshield/climarisk/pkg/errors"
)

func TestFetchRisk(t *testing.T) {
	var gotPropertyID, gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPropertyID = r.URL.Query().Get("property_id")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"flood": 80, "data_quality": 0.9}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("FEMA_NRI", srv.URL, "secret-key", nil)
	require.Equal(t, "FEMA_NRI", p.SourceID())

	payload, err := p.FetchRisk(context.Background(), "prop-1")

	require.NoError(t, err)
	assert.Equal(t, "prop-1", gotPropertyID)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, 80.0, payload["flood"])
}

func TestFetchRisk_NoAPIKeyNoAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("FEMA_NRI", srv.URL, "", nil)
	_, err := p.FetchRisk(context.Background(), "prop-1")

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestFetchRisk_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider("FEMA_NRI", srv.URL, "", nil)
	_, err := p.FetchRisk(context.Background(), "prop-1")

	assert.Equal(t, errors.ErrCodeProviderFetchFailed, errors.GetCode(err))
}

func TestFetchRisk_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	p := NewHTTPProvider("FEMA_NRI", srv.URL, "", nil)
	_, err := p.FetchRisk(context.Background(), "prop-1")

	assert.Equal(t, errors.ErrCodeSerialization, errors.GetCode(err))
}

func TestFetchRisk_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider("FEMA_NRI", srv.URL, "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.FetchRisk(ctx, "prop-1")
	assert.Equal(t, errors.ErrCodeProviderTimeout, errors.GetCode(err))
}

func TestFetchRisk_Unreachable(t *testing.T) {
	// A server that is immediately shut down leaves a dead port behind.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	p := NewHTTPProvider("FEMA_NRI", addr, "", nil)
	_, err := p.FetchRisk(context.Background(), "prop-1")

	assert.Equal(t, errors.ErrCodeProviderFetchFailed, errors.GetCode(err))
}

func TestFetchRisk_InvalidBaseURL(t *testing.T) {
	p := NewHTTPProvider("FEMA_NRI", "://bad url", "", nil)
	_, err := p.FetchRisk(context.Background(), "prop-1")
	assert.Error(t, err)
}
