package openai

import (
	"bytes"
	"encoding/json"
	"io"
)

const donePayload = "[DONE]"

var doneFrame = []byte("data: " + donePayload + "\n\n")

// EncodeChunk renders a chunk as one SSE data frame: "data: <json>\n\n".
func EncodeChunk(c StreamChunk) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("data: ")

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	// Encode terminates with '\n'; one more makes the blank line.
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DoneFrame returns the stream terminator "data: [DONE]\n\n".
func DoneFrame() []byte {
	out := make([]byte, len(doneFrame))
	copy(out, doneFrame)
	return out
}

func WriteChunk(w io.Writer, c StreamChunk) error {
	b, err := EncodeChunk(c)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func WriteDone(w io.Writer) error {
	_, err := w.Write(doneFrame)
	return err
}
