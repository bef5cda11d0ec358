package stream

import (
	"iter"
	"unicode/utf8"
)

// Units yields text one code point at a time. Each unit is a substring of text, so joining
// the units reproduces text byte for byte, invalid UTF-8 included.
func Units(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < len(text); {
			_, size := utf8.DecodeRuneInString(text[i:])
			if !yield(text[i : i+size]) {
				return
			}
			i += size
		}
	}
}

// answer is the outcome of the upstream call: either text to replay, or a reason to show
// the caller in place of it.
type answer struct {
	text string
	err  error
}

func okAnswer(text string) answer { return answer{text: text} }

func errAnswer(err error) answer { return answer{err: err} }

// units is the sequence the pacing loop replays: the text split into code points, or the
// error message as one synthetic unit.
func (a answer) units() iter.Seq[string] {
	if a.err != nil {
		msg := a.err.Error()
		return func(yield func(string) bool) {
			yield(msg)
		}
	}
	return Units(a.text)
}
