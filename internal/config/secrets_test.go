package config_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/sync-service/internal/config"
)

func TestNewSecretManager_BuildsAClientWithoutDialing(t *testing.T) {
	s, err := config.NewSecretManager("http://127.0.0.1:8200", "root")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func vaultServer(t *testing.T, body map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestGetSecret_ReturnsRawData(t *testing.T) {
	srv := vaultServer(t, map[string]interface{}{
		"data": map[string]interface{}{"PG_URL": "postgres://x"},
	})
	defer srv.Close()

	s, err := config.NewSecretManager(srv.URL, "root")
	require.NoError(t, err)

	data, err := s.GetSecret("secret/arc/sync-service")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", data["PG_URL"])
}

func TestGetKV2_UnwrapsNestedDataKey(t *testing.T) {
	srv := vaultServer(t, map[string]interface{}{
		"data": map[string]interface{}{
			"data":     map[string]interface{}{"PG_URL": "postgres://x"},
			"metadata": map[string]interface{}{"version": 1},
		},
	})
	defer srv.Close()

	s, err := config.NewSecretManager(srv.URL, "root")
	require.NoError(t, err)

	data, err := s.GetKV2("secret/data/arc/sync-service")
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", data["PG_URL"])
}

func TestGetSecret_NilResponseIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s, err := config.NewSecretManager(srv.URL, "root")
	require.NoError(t, err)

	_, err = s.GetSecret("secret/missing")
	assert.Error(t, err)
}
