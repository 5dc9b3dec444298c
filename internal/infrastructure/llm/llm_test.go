package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/config"
)

func TestAnthropicClient_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"category\":\"Must Know\"}"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(config.LLMConfig{
		Endpoint: srv.URL, Model: "claude-3-haiku-20240307", APIKey: "sk-ant", MaxTokens: 1024, Temperature: 0.3,
	})

	reply, err := c.Complete(context.Background(), "classify this")
	require.NoError(t, err)

	assert.Equal(t, `{"category":"Must Know"}`, reply)
	assert.Equal(t, "claude-3-haiku-20240307", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, anthropicMessage{Role: "user", Content: "classify this"}, got.Messages[0])
}

func TestAnthropicClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, 529)
	}))
	defer srv.Close()

	c := NewAnthropicClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "529")
	assert.Contains(t, err.Error(), "overloaded_error")

	_, err = NewAnthropicClient(config.LLMConfig{Endpoint: srv.URL, Model: "m"}).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "misconfigured")
}

func TestAnthropicClient_NoTextBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	_, err := NewAnthropicClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"}).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "no text content")
}

func TestChatGPTClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-oai", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "sk-oai"})
	reply, err := c.Complete(context.Background(), "classify this")
	require.NoError(t, err)

	assert.Equal(t, "ok", reply)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.NotEmpty(t, got.Messages[0].Content)
	assert.Equal(t, chatMessage{Role: "user", Content: "classify this"}, got.Messages[1])
}

func TestChatGPTClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"}).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "no choices")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewAnthropicClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k", Timeout: 20 * time.Millisecond})
	_, err := c.Complete(context.Background(), "p")
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(config.LLMConfig{Provider: config.ProviderAnthropic})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	c, err = NewClient(config.LLMConfig{Provider: config.ProviderOpenAI})
	require.NoError(t, err)
	assert.IsType(t, &ChatGPTClient{}, c)

	_, err = NewClient(config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}
