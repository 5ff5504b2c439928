package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBufferFormatsGo(t *testing.T) {
	input := []byte("package main\n\nfunc A()  {\nreturn\n}\n")
	got := FormatBuffer(input, "main.go")
	assert.Equal(t, "package main\n\nfunc A() {\n\treturn\n}\n", string(got))
}

func TestFormatBufferNonGoPassthrough(t *testing.T) {
	input := []byte("def foo():\n  pass\n")
	assert.Equal(t, input, FormatBuffer(input, "main.py"))
}

func TestFormatBufferInvalidGoPassthrough(t *testing.T) {
	input := []byte("func broken {{{")
	assert.Equal(t, input, FormatBuffer(input, "main.go"))
}

func TestFormatBufferFormatsHCL(t *testing.T) {
	input := []byte("resource \"aws_instance\" \"web\" {\n  ami           = \"abc-123\"\ninstance_type = \"t2.micro\"\n}\n")
	got := FormatBuffer(input, "main.tf")
	assert.Contains(t, string(got), "resource")
	assert.NotEmpty(t, got)
}
