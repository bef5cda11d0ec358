package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastUserMessage(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{
			name:   "picks last user",
			body:   `{"messages":[{"role":"user","content":"first"},{"role":"assistant","content":"x"},{"role":"user","content":"second"},{"role":"assistant","content":"y"}]}`,
			want:   "second",
			wantOK: true,
		},
		{
			name: "no user",
			body: `{"messages":[{"role":"system","content":"be nice"},{"role":"assistant","content":"hi"}]}`,
		},
		{
			name: "no messages",
			body: `{}`,
		},
		{
			name: "empty last user does not fall back",
			body: `{"messages":[{"role":"user","content":"earlier"},{"role":"user","content":""}]}`,
		},
		{
			name:   "content parts",
			body:   `{"messages":[{"role":"user","content":[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"x"}},{"type":"text","text":"b"}]}]}`,
			want:   "ab",
			wantOK: true,
		},
		{
			name: "null content",
			body: `{"messages":[{"role":"user","content":null}]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req ChatRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			got, ok := req.LastUserMessage()
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMessageContentRejectsScalars(t *testing.T) {
	var req ChatRequest
	err := json.Unmarshal([]byte(`{"messages":[{"role":"user","content":42}]}`), &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content must be a string")
}

func TestModelOr(t *testing.T) {
	assert.Equal(t, "fallback", ChatRequest{}.ModelOr("fallback"))
	assert.Equal(t, "gpt-x", ChatRequest{Model: "gpt-x"}.ModelOr("fallback"))
}

func TestNewModelList(t *testing.T) {
	list := NewModelList(42, "owner", "only-model")
	require.Len(t, list.Data, 1)
	assert.Equal(t, ObjectList, list.Object)
	assert.Equal(t, ModelCard{ID: "only-model", Object: ObjectModel, Created: 42, OwnedBy: "owner"}, list.Data[0])
}
