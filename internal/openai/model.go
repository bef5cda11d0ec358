package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ObjectChunk      = "chat.completion.chunk"
	ObjectModel      = "model"
	ObjectList       = "list"
	RoleUser         = "user"
	RoleAssistant    = "assistant"
	FinishReasonStop = "stop"
)

type ChatRequest struct {
	Model    string    `json:"model"`
	Stream   bool      `json:"stream"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is the flattened text of a message. It accepts the plain string form and
// the array-of-parts form, where only "text" parts contribute.
type MessageContent string

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (m *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MessageContent(s)
		return nil
	case '[':
		var parts []contentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("content parts: %w", err)
		}
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "" || p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		*m = MessageContent(b.String())
		return nil
	default:
		return fmt.Errorf("content must be a string or an array of parts, got %s", truncate(string(data), 32))
	}
}

// LastUserMessage returns the content of the last message whose role is "user".
// An empty content counts as missing.
func (r ChatRequest) LastUserMessage() (string, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			content := string(r.Messages[i].Content)
			return content, content != ""
		}
	}
	return "", false
}

// ModelOr returns the requested model, or def when the request left it empty.
func (r ChatRequest) ModelOr(def string) string {
	if r.Model == "" {
		return def
	}
	return r.Model
}

type ChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// StreamChunk SSE chunk (OpenAI chat.completion.chunk)
type StreamChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// NewChunk builds a single-choice chunk. A nil finishReason marks a content chunk.
func NewChunk(id string, created int64, model, content string, finishReason *string) StreamChunk {
	return StreamChunk{
		ID:      id,
		Object:  ObjectChunk,
		Created: created,
		Model:   model,
		Choices: []ChunkChoice{{
			Index:        0,
			Delta:        ChunkDelta{Content: content},
			FinishReason: finishReason,
		}},
	}
}

type ModelCard struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelCard `json:"data"`
}

func NewModelList(created int64, owner string, ids ...string) ModelList {
	list := ModelList{Object: ObjectList, Data: make([]ModelCard, 0, len(ids))}
	for _, id := range ids {
		list.Data = append(list.Data, ModelCard{
			ID:      id,
			Object:  ObjectModel,
			Created: created,
			OwnedBy: owner,
		})
	}
	return list
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
