package lang

import "fmt"

// LexError is raised by the Lexer and carries the position of the offending
// character, unterminated literal, or overflowing number.
type LexError struct {
	Message string
	Line    int
	Column  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseError is raised by the Parser and carries the position of the
// offending token. The parser never recovers: the first error aborts.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// newParseError builds a ParseError positioned at tok.
func newParseError(tok Token, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}
