package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	p, err := ParseParams(`{"product_code":"GT10S","tier":"A级","color_type":null,"material":"SILICONE"}`)
	require.NoError(t, err)
	assert.Equal(t, "GT10S", p.ProductCode)
	assert.Equal(t, "A级", p.Tier)
	assert.Empty(t, p.ColorType)

	p, err = ParseParams("```json\n{\"product_code\": \"F9970\", \"tier\": \"C级\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "F9970", p.ProductCode)

	_, err = ParseParams("no json here")
	assert.Error(t, err)

	_, err = ParseParams("{broken")
	assert.Error(t, err)
}

func TestPlaceholderKeyDisablesClient(t *testing.T) {
	for _, key := range []string{"", "changeme", "None", "your_deepseek_api_key_here"} {
		c := NewClient(key, "", "")
		assert.False(t, c.Enabled(), key)
		_, err := c.ExtractParams(context.Background(), "GT10S 价格")
		assert.ErrorIs(t, err, ErrNoAPIKey)
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
}

func TestExtractParams(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"product_code":"GT10P","tier":"B级","color_type":"定制色","material":"PVC"}`)
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "")
	p, err := c.ExtractParams(context.Background(), "GT10P B级 定制色")
	require.NoError(t, err)
	assert.Equal(t, "GT10P", p.ProductCode)
	assert.Equal(t, "B级", p.Tier)
	assert.Equal(t, "定制色", p.ColorType)
	assert.Equal(t, "PVC", p.Material)
}

func TestExtractParamsNon200(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "")
	_, err := c.ExtractParams(context.Background(), "GT10P")
	assert.Error(t, err)
}
