package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkouts/8acda4c8/payment", r.URL.Path)
		assert.Equal(t, "entity", r.URL.Query().Get("entityId"))
		_, _ = w.Write([]byte(`{"result":{"code":"000.400.020","description":"Request successfully processed"}}`))
	}))
	t.Cleanup(server.Close)

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("HYPERPAY_BASE_URL", server.URL)
	t.Setenv("HYPERPAY_ENTITY_ID", "entity")
	t.Setenv("HYPERPAY_BEARER_TOKEN", "token")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"status", "8acda4c8.9934719"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "checkout:    8acda4c8")
	assert.Contains(t, out.String(), "status:      Success")
}

func TestStatusCommand_MissingCredentials(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("HYPERPAY_ENTITY_ID", "")
	t.Setenv("HYPERPAY_BEARER_TOKEN", "")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"status", "8acda4c8"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HYPERPAY_ENTITY_ID")
}
