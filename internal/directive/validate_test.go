package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidGo(t *testing.T) {
	src := []byte(`package main

func hello() string {
	return "world"
}
`)
	assert.NoError(t, Validate(src, "test.go"))
}

func TestValidateBrokenGo(t *testing.T) {
	src := []byte(`package main

func hello() string {
	return "world"
// missing closing brace
`)
	err := Validate(src, "test.go")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "test.go", ve.FilePath)
	assert.Contains(t, ve.Message, "syntax error")
}

func TestValidateValidPython(t *testing.T) {
	src := []byte(`def hello():
    return "world"
`)
	assert.NoError(t, Validate(src, "test.py"))
}

func TestValidateBrokenPython(t *testing.T) {
	src := []byte(`def hello(
    return "world"
`)
	require.Error(t, Validate(src, "test.py"))
}

func TestValidateUnknownExtensionPassesThrough(t *testing.T) {
	src := []byte(`this is not valid code in any language {{{`)
	assert.NoError(t, Validate(src, "test.txt"))
}

func TestValidateEmptyContent(t *testing.T) {
	assert.NoError(t, Validate([]byte{}, "test.go"))
}

func TestASTErrorsBrokenGo(t *testing.T) {
	src := []byte(`package main

func hello() {
	x :=
}
`)
	errs := ASTErrors(src, "test.go")
	require.NotEmpty(t, errs)
	assert.Equal(t, "test.go", errs[0].FilePath)
}

func TestASTErrorsValidGoReturnsNil(t *testing.T) {
	src := []byte(`package main

func hello() {}
`)
	assert.Nil(t, ASTErrors(src, "test.go"))
}
