package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerPunctuationAndOperators(t *testing.T) {
	toks, err := NewLexer(`{ } ( ) [ ] ; . , = == != + += -= *= /= ^= :: ? !! && ||`).Tokenize()
	require.NoError(t, err)

	want := []Kind{
		KindLBrace, KindRBrace, KindLParen, KindRParen, KindLBracket, KindRBracket,
		KindSemicolon, KindDot, KindComma, KindAssign, KindEq, KindNotEq, KindPlus,
		KindPlusAssign, KindMinusAssign, KindStarAssign, KindSlashAssign, KindCaretAssign,
		KindDoubleColon, KindQuestion, KindDoubleBang, KindAmpAmp, KindPipePipe, KindEOF,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		assert.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks, err := NewLexer(`"hello world"`).Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, KindString, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Text)
}

func TestLexerUnterminatedStringReportsOpenerPosition(t *testing.T) {
	_, err := NewLexer(`val x = "oops`).Tokenize()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Line)
	assert.Equal(t, 9, lexErr.Column)
}

func TestLexerUnterminatedBlockCommentReportsOpenerPosition(t *testing.T) {
	_, err := NewLexer("route \"/\" GET { } /* oops").Tokenize()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 19, lexErr.Column)
}

func TestLexerNumberOverflow(t *testing.T) {
	_, err := NewLexer("99999999999999999999999").Tokenize()
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestLexerKeywordsAndMethodsWinOverIdentifiers(t *testing.T) {
	toks, err := NewLexer("route val GET x").Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, KindRoute, toks[0].Kind)
	assert.Equal(t, KindVal, toks[1].Kind)
	assert.Equal(t, KindHTTPMethod, toks[2].Kind)
	assert.Equal(t, KindIdentifier, toks[3].Kind)
}

func TestLexerIdentifierAllowsBraces(t *testing.T) {
	toks, err := NewLexer("x{id}").Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, KindIdentifier, toks[0].Kind)
	assert.Equal(t, "x{id}", toks[0].Text)
}

func TestLexerCommentsAreTokenizedButDiscardedByParserFeed(t *testing.T) {
	toks, err := NewLexer("// a comment\nval /* block */ x = 1;").Tokenize()
	require.NoError(t, err)

	hasComment := false
	for _, tk := range toks {
		if tk.Kind == KindComment {
			hasComment = true
		}
	}
	assert.True(t, hasComment, "lexer must still emit comment tokens")

	p := NewParser(toks)
	for _, tk := range p.toks {
		assert.NotEqual(t, KindComment, tk.Kind, "parser feed must filter comments")
	}
}

func TestLexerLineColumnTracking(t *testing.T) {
	toks, err := NewLexer("val x = 1;\nval y = 2;").Tokenize()
	require.NoError(t, err)
	// second "val" is on line 2.
	var secondVal Token
	count := 0
	for _, tk := range toks {
		if tk.Kind == KindVal {
			count++
			if count == 2 {
				secondVal = tk
			}
		}
	}
	assert.Equal(t, 2, secondVal.Line)
	assert.Equal(t, 1, secondVal.Column)
}
