// Package stream replays a one-shot upstream answer as an OpenAI chat.completion.chunk SSE
// stream, one code point per chunk with a fixed pause between chunks.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungtweek/pollinations-proxy/internal/config"
	"github.com/yungtweek/pollinations-proxy/internal/logger"
	"github.com/yungtweek/pollinations-proxy/internal/openai"
)

// ErrNoUserMessage is shown to the caller when the request has nothing to forward.
var ErrNoUserMessage = errors.New("no user message found")

// Fetcher returns the complete upstream answer for a prompt.
type Fetcher interface {
	FetchAnswer(ctx context.Context, prompt string) (string, error)
}

type Translator struct {
	fetcher      Fetcher
	defaultModel string
	delay        time.Duration

	sleep func(ctx context.Context, d time.Duration)
	newID func() string
	now   func() time.Time
}

type Option func(*Translator)

// WithSleep replaces the pacing wait.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(t *Translator) { t.sleep = fn }
}

func WithIDGenerator(fn func() string) Option {
	return func(t *Translator) { t.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(t *Translator) { t.now = fn }
}

func NewTranslator(cfg config.Config, fetcher Fetcher, opts ...Option) *Translator {
	t := &Translator{
		fetcher:      fetcher,
		defaultModel: cfg.DefaultModel,
		delay:        cfg.StreamDelay(),
		sleep:        sleepWithContext,
		newID:        func() string { return "chatcmpl-" + uuid.NewString() },
		now:          time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Translate writes the full SSE stream for req to w. Upstream and request problems are
// rendered as assistant text and the stream still ends with a stop chunk and [DONE].
// The returned error is non-nil only when the caller went away (context done or a failed
// write); nothing more is written in that case.
func (t *Translator) Translate(ctx context.Context, req openai.ChatRequest, w io.Writer) (err error) {
	id := t.newID()
	created := t.now().Unix()
	model := req.ModelOr(t.defaultModel)
	start := time.Now()

	logger.Log.Infow("[stream] start", "id", id, "model", model, "messages", len(req.Messages))

	out := newSink(w)
	emitted := 0
	defer func() {
		if err != nil {
			logger.Log.Infow("[stream] client gone", "id", id, "emitted", emitted, "err", err)
			return
		}
		logger.Log.Infow("[stream] done", "id", id, "emitted", emitted, "latencyMs", time.Since(start).Milliseconds())
	}()

	ans := t.resolve(ctx, req)
	if ans.err != nil {
		logger.Log.Warnw("[stream] answering with error text", "id", id, "err", ans.err)
	}

	for unit := range ans.units() {
		if err = ctx.Err(); err != nil {
			return err
		}

		chunk := openai.NewChunk(id, created, model, unit, nil)
		if emitted == 0 {
			chunk.Choices[0].Delta.Role = openai.RoleAssistant
		}
		if err = out.chunk(chunk); err != nil {
			return err
		}
		emitted++

		t.sleep(ctx, t.delay)
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	stop := openai.FinishReasonStop
	if err = out.chunk(openai.NewChunk(id, created, model, "", &stop)); err != nil {
		return err
	}
	return out.done()
}

// resolve runs the upstream call and folds every failure into the answer.
func (t *Translator) resolve(ctx context.Context, req openai.ChatRequest) (ans answer) {
	prompt, found := req.LastUserMessage()
	if !found {
		return errAnswer(ErrNoUserMessage)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorw("[stream] upstream panic", "panic", r)
			ans = errAnswer(fmt.Errorf("internal server error: %v", r))
		}
	}()

	text, err := t.fetcher.FetchAnswer(ctx, prompt)
	if err != nil {
		return errAnswer(err)
	}
	return okAnswer(text)
}

// sink frames and flushes each write so the caller sees every chunk as it is produced.
type sink struct {
	bw      *bufio.Writer
	flusher http.Flusher
}

func newSink(w io.Writer) *sink {
	s := &sink{bw: bufio.NewWriter(w)}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

func (s *sink) chunk(c openai.StreamChunk) error {
	if err := openai.WriteChunk(s.bw, c); err != nil {
		return err
	}
	return s.flush()
}

func (s *sink) done() error {
	if err := openai.WriteDone(s.bw); err != nil {
		return err
	}
	return s.flush()
}

func (s *sink) flush() error {
	if err := s.bw.Flush(); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
		return
	}
}
