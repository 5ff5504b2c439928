package directive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInlineReplaceLF(t *testing.T) {
	src := "keep\n@@NAME@@\nkeep2\n"
	isCandidate := func(line string, lineNo int, payload any) (Candidate, bool) {
		if line != "@@NAME@@" {
			return Candidate{}, false
		}
		return Candidate{Render: func(any) (string, error) { return "widgets", nil }}, true
	}

	var out strings.Builder
	n, err := Run(strings.NewReader(src), &out, Options{IsCandidate: isCandidate})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "keep\nwidgets\nkeep2\n", out.String())
}

func TestRunBlockReplaceCRLF(t *testing.T) {
	src := "head\r\n@@BEGIN@@\r\nold1\r\nold2\r\n@@END@@\r\ntail\r\n"
	isCandidate := func(line string, lineNo int, payload any) (Candidate, bool) {
		if line != "@@BEGIN@@" {
			return Candidate{}, false
		}
		return Candidate{
			Render:   func(any) (string, error) { return "new content", nil },
			BlockEnd: func(l string) bool { return l == "@@END@@" },
		}, true
	}

	var out strings.Builder
	_, err := Run(strings.NewReader(src), &out, Options{IsCandidate: isCandidate})
	require.NoError(t, err)
	assert.Equal(t, "head\r\n@@BEGIN@@\r\nnew content\r\n@@END@@\r\ntail\r\n", out.String())
}

func TestRunUnterminatedBlockContinues(t *testing.T) {
	src := "@@BEGIN@@\nold1\nold2\n"
	isCandidate := func(line string, lineNo int, payload any) (Candidate, bool) {
		if line != "@@BEGIN@@" {
			return Candidate{}, false
		}
		return Candidate{
			Render:   func(any) (string, error) { return "new", nil },
			BlockEnd: func(l string) bool { return l == "@@END@@" },
		}, true
	}

	var out strings.Builder
	_, err := Run(strings.NewReader(src), &out, Options{
		IsCandidate: isCandidate,
		OnError:     func(err error, ctx ErrorContext) string { return ActionContinue },
	})
	require.NoError(t, err)
	assert.Equal(t, "@@BEGIN@@\nold1\nold2\n", out.String())
}

func TestTokenizeQuoting(t *testing.T) {
	toks, err := Tokenize(`foo 'bar baz' "qu\"ote" plain`)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar baz", `qu"ote`, "plain"}, toks)
}

func TestTokenizeUnclosedQuoteFails(t *testing.T) {
	_, err := Tokenize(`foo "unterminated`)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestLineCommentParser(t *testing.T) {
	p := NewLineCommentParser("--", "@")
	token, remainder, prefix, ok := p.Parse("-- @spry.nature sql")
	require.True(t, ok)
	assert.Equal(t, "spry.nature", token)
	assert.Equal(t, "sql", remainder)
	assert.Equal(t, "@", prefix)
}

func TestLineCommentParserNoMarkerMatch(t *testing.T) {
	p := NewLineCommentParser("--", "@")
	_, _, _, ok := p.Parse("select 1;")
	assert.False(t, ok)
}
