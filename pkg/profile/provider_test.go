package profile

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileFormatsBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/u1", r.URL.Path)
		w.Write([]byte(`{
			"name": "Sam",
			"age": 31,
			"fitness_level": "intermediate",
			"goals": ["lose weight", "build muscle"],
			"plan": "3x full body per week"
		}`))
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL)
	got, err := p.GetProfile(context.Background(), "u1")

	require.NoError(t, err)
	assert.Contains(t, got, "Name: Sam")
	assert.Contains(t, got, "Age: 31")
	assert.Contains(t, got, "Fitness level: intermediate")
	assert.Contains(t, got, "Goals: lose weight, build muscle")
	assert.Contains(t, got, "3x full body per week")
}

func TestGetProfileOmitsMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "Sam"}`))
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL)
	got, err := p.GetProfile(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "Name: Sam", got)
}

func TestGetProfileServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL)
	_, err := p.GetProfile(context.Background(), "nobody")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

type flakyProvider struct {
	profile string
	err     error
	calls   int
}

func (f *flakyProvider) GetProfile(ctx context.Context, userID string) (string, error) {
	f.calls++
	return f.profile, f.err
}

func TestCachedProviderMemoizesSuccess(t *testing.T) {
	inner := &flakyProvider{profile: "Name: Sam"}
	c := NewCachedProvider(inner, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := c.GetProfile(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "Name: Sam", got)
	}

	assert.Equal(t, 1, inner.calls)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &flakyProvider{err: fmt.Errorf("down")}
	c := NewCachedProvider(inner, time.Minute)

	_, err1 := c.GetProfile(context.Background(), "u1")
	_, err2 := c.GetProfile(context.Background(), "u1")

	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, 2, inner.calls, "errors must retry, not cache")
}

func TestCachedProviderIsPerUser(t *testing.T) {
	inner := &flakyProvider{profile: "Name: Sam"}
	c := NewCachedProvider(inner, time.Minute)

	_, _ = c.GetProfile(context.Background(), "u1")
	_, _ = c.GetProfile(context.Background(), "u2")

	assert.Equal(t, 2, inner.calls)
}
