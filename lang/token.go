// Package lang implements the lexer, AST, and parser for the netter DSL.
package lang

import "fmt"

// Kind is the closed set of lexical token kinds produced by the Lexer.
type Kind uint8

// Token kinds.
const (
	KindEOF Kind = iota
	KindComment

	// Literals.
	KindString
	KindNumber
	KindIdentifier
	KindHTTPMethod

	// Keywords.
	KindRoute
	KindVal
	KindVar
	KindIf
	KindElse
	KindTLS
	KindEnabled
	KindCertPath
	KindKeyPath
	KindGlobalErrorHandler
	KindOnError
	KindConfig
	KindType
	KindHost
	KindPort
	KindImport
	KindAs
	KindWhile
	KindFor
	KindIn

	// Punctuation.
	KindLBrace
	KindRBrace
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindSemicolon
	KindDot
	KindComma

	// Operators.
	KindAssign         // =
	KindEq             // ==
	KindNotEq          // !=
	KindPlus           // +
	KindPlusAssign     // +=
	KindMinus          // -
	KindMinusAssign    // -=
	KindStar           // *
	KindStarAssign     // *=
	KindSlash          // /
	KindSlashAssign    // /=
	KindCaret          // ^
	KindCaretAssign    // ^=
	KindDoubleColon    // ::
	KindQuestion       // ?
	KindBang           // !
	KindDoubleBang     // !!
	KindAmpAmp         // &&
	KindPipePipe       // ||
)

var kindNames = map[Kind]string{
	KindEOF:               "EOF",
	KindComment:           "Comment",
	KindString:            "String",
	KindNumber:            "Number",
	KindIdentifier:        "Identifier",
	KindHTTPMethod:        "HttpMethod",
	KindRoute:             "route",
	KindVal:               "val",
	KindVar:               "var",
	KindIf:                "if",
	KindElse:              "else",
	KindTLS:               "tls",
	KindEnabled:           "enabled",
	KindCertPath:          "cert_path",
	KindKeyPath:           "key_path",
	KindGlobalErrorHandler: "global_error_handler",
	KindOnError:           "onError",
	KindConfig:            "config",
	KindType:              "type",
	KindHost:              "host",
	KindPort:              "port",
	KindImport:            "import",
	KindAs:                "as",
	KindWhile:             "while",
	KindFor:               "for",
	KindIn:                "in",
	KindLBrace:            "{",
	KindRBrace:            "}",
	KindLParen:            "(",
	KindRParen:            ")",
	KindLBracket:          "[",
	KindRBracket:          "]",
	KindSemicolon:         ";",
	KindDot:               ".",
	KindComma:             ",",
	KindAssign:            "=",
	KindEq:                "==",
	KindNotEq:             "!=",
	KindPlus:              "+",
	KindPlusAssign:        "+=",
	KindMinus:             "-",
	KindMinusAssign:       "-=",
	KindStar:              "*",
	KindStarAssign:        "*=",
	KindSlash:             "/",
	KindSlashAssign:       "/=",
	KindCaret:             "^",
	KindCaretAssign:       "^=",
	KindDoubleColon:       "::",
	KindQuestion:          "?",
	KindBang:              "!",
	KindDoubleBang:        "!!",
	KindAmpAmp:            "&&",
	KindPipePipe:          "||",
}

// String returns the human-readable name of k.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// keywords maps reserved identifier text to its keyword Kind.
var keywords = map[string]Kind{
	"route":                KindRoute,
	"val":                  KindVal,
	"var":                  KindVar,
	"if":                   KindIf,
	"else":                 KindElse,
	"tls":                  KindTLS,
	"enabled":              KindEnabled,
	"cert_path":            KindCertPath,
	"key_path":             KindKeyPath,
	"global_error_handler": KindGlobalErrorHandler,
	"onError":              KindOnError,
	"config":               KindConfig,
	"type":                 KindType,
	"host":                 KindHost,
	"port":                 KindPort,
	"import":               KindImport,
	"as":                   KindAs,
	"while":                KindWhile,
	"for":                  KindFor,
	"in":                   KindIn,
}

// httpMethods is the closed set of HTTP verbs (plus the WS pseudo-method for
// the supplemental WebSocket routes described in SPEC_FULL.md §4.9).
var httpMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
	"WS":      true,
}

// Token is a single lexical token with its source position.
type Token struct {
	Kind   Kind
	Text   string // raw text for Identifier/HttpMethod/Comment, decoded payload for String
	Number int64  // populated when Kind == KindNumber
	Line   int
	Column int
}

// String returns a debug representation of t.
func (t Token) String() string {
	switch t.Kind {
	case KindString:
		return fmt.Sprintf("String(%q)@%d:%d", t.Text, t.Line, t.Column)
	case KindNumber:
		return fmt.Sprintf("Number(%d)@%d:%d", t.Number, t.Line, t.Column)
	case KindIdentifier, KindHTTPMethod, KindComment:
		return fmt.Sprintf("%s(%s)@%d:%d", t.Kind, t.Text, t.Line, t.Column)
	default:
		return fmt.Sprintf("%s@%d:%d", t.Kind, t.Line, t.Column)
	}
}
