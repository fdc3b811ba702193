package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientEmptyKey(t *testing.T) {
	assert.Nil(t, NewClient(""))
	var c *Client
	assert.False(t, c.Enabled())
	v := c.Float64()
	assert.True(t, v >= 0 && v < 1)
}

func TestNewSelectsSource(t *testing.T) {
	assert.IsType(t, Crypto{}, New(""))
	assert.IsType(t, &Client{}, New("key"))
}

func TestClientRefillsFromAPI(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "generateDecimalFractions", req["method"])

		data := make([]float64, 20)
		for i := range data {
			data[i] = 0.25
		}
		data[0] = 1.0
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"random": map[string]any{"data": data}},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.endpoint = srv.URL

	assert.Equal(t, 0.25, c.Float64(), "1.0 is outside [0,1) and must be dropped")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Intn(4))
}

func TestClientFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key"}})
	}))
	defer srv.Close()

	c := NewClient("bad")
	c.endpoint = srv.URL
	for i := 0; i < 5; i++ {
		v := c.Float64()
		assert.True(t, v >= 0 && v < 1)
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestSequenceCycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.9, s.Float64())
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 9, s.Intn(10))
}

func TestIntnClampsUpperEdge(t *testing.T) {
	assert.Equal(t, 4, intn(0.9999999999, 5))
	assert.Panics(t, func() { intn(0.5, 0) })
}
