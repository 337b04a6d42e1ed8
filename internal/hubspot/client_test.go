package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scheduling_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetHubSpotBaseURL() string        { return c.baseURL }
func (c testConfig) GetHubSpotAccessToken() string    { return "pat-test" }
func (c testConfig) GetHubSpotTimeout() time.Duration { return 2 * time.Second }
func (c testConfig) IsHubSpotEnabled() bool           { return true }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(testConfig{baseURL: srv.URL}, logger.Discard())
}

func TestUpdateProperties(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/crm/v3/objects/deals/987", r.URL.Path)
		assert.Equal(t, "Bearer pat-test", r.Header.Get("Authorization"))

		var body dealPropertiesBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-06-02", body.Properties["site_survey_date"])
		_, _ = w.Write([]byte(`{"id":"987"}`))
	})

	ok, err := client.UpdateProperties(context.Background(), "987", map[string]string{"site_survey_date": "2025-06-02"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdatePropertiesRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"Property values were not valid"}`))
	})

	ok, err := client.UpdateProperties(context.Background(), "987", map[string]string{"x": "y"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadPropertiesMapsNullsToEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "site_survey_date,site_surveyor", r.URL.Query().Get("properties"))
		_, _ = w.Write([]byte(`{"id":"987","properties":{"site_survey_date":"2025-06-02","site_surveyor":null}}`))
	})

	props, err := client.ReadProperties(context.Background(), "987", []string{"site_survey_date", "site_surveyor"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", props["site_survey_date"])
	v, present := props["site_surveyor"]
	assert.True(t, present)
	assert.Empty(t, v)
}

func TestReadPropertiesNon200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ReadProperties(context.Background(), "missing", []string{"a"})
	require.Error(t, err)
}

func TestConfiguredIsNilSafe(t *testing.T) {
	var c *Client
	assert.False(t, c.Configured())
}
