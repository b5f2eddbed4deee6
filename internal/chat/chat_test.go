package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"data:image/png;base64,AAAA", "AAAA"},
		{"data:text/plain,hello", "hello"},
		{"AAAA", "AAAA"},
		{"not-a-data-url,with-comma", "not-a-data-url,with-comma"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripDataURL(tt.input), "input %q", tt.input)
	}
}

func newChatServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithBaseURL("test-key", srv.URL)
}

func TestGenerate(t *testing.T) {
	var gotBody generateRequest
	var gotPath, gotKey string

	client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"there."}]}}]}`)
	})

	history := []Message{
		{Role: "user", Text: "hi"},
		{Role: "model", Text: "hey"},
	}
	files := []Attachment{
		{Name: "a.png", MimeType: "image/png", Data: "data:image/png;base64,QUJD"},
	}

	text, err := client.Generate(context.Background(), history, "what is this?", files)
	require.NoError(t, err)

	// multi-part candidates concatenate into one reply
	assert.Equal(t, "Hello there.", text)

	assert.Equal(t, "/v1beta/models/"+DefaultModel+":generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, gotBody.Contents, 3)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "model", gotBody.Contents[1].Role)

	last := gotBody.Contents[2]
	assert.Equal(t, "user", last.Role)
	require.Len(t, last.Parts, 2)
	assert.Equal(t, "what is this?", last.Parts[0].Text)
	require.NotNil(t, last.Parts[1].InlineData)
	assert.Equal(t, "image/png", last.Parts[1].InlineData.MimeType)
	assert.Equal(t, "QUJD", last.Parts[1].InlineData.Data, "the data url wrapper is stripped")
}

func TestGenerateNormalizesRoles(t *testing.T) {
	var gotBody generateRequest
	client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	history := []Message{{Role: "assistant", Text: "previous"}}
	_, err := client.Generate(context.Background(), history, "hi", nil)
	require.NoError(t, err)

	// anything other than "user" is sent as "model"
	assert.Equal(t, "model", gotBody.Contents[0].Role)
}

func TestGenerateEmptyResponse(t *testing.T) {
	client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	_, err := client.Generate(context.Background(), nil, "hi", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateAPIError(t *testing.T) {
	client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	})

	_, err := client.Generate(context.Background(), nil, "hi", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, err.Error(), "429")
}

func TestSetModel(t *testing.T) {
	var gotPath string
	client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})

	client.SetModel("gemini-2.5-flash")
	_, err := client.Generate(context.Background(), nil, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)

	// empty names keep the current model
	client.SetModel("")
	_, err = client.Generate(context.Background(), nil, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
}
