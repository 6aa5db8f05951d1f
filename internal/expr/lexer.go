// Package expr implements the list expression language of typelist
// manifests: a lexer, a precedence-climbing parser and an evaluator that
// drives the typelist engine over tags.
package expr

import (
	"fmt"
	"strconv"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenInt
	TokenLParen
	TokenRParen
	TokenComma
	TokenPlus
	TokenStar
	TokenBang
	TokenTilde
	TokenDecrement
	TokenEqual
	TokenNotEqual
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "end of expression",
	TokenIdent:     "identifier",
	TokenInt:       "integer",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenComma:     "','",
	TokenPlus:      "'+'",
	TokenStar:      "'*'",
	TokenBang:      "'!'",
	TokenTilde:     "'~'",
	TokenDecrement: "'--'",
	TokenEqual:     "'=='",
	TokenNotEqual:  "'!='",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// Token is a lexeme with its byte range in the expression.
type Token struct {
	Type  TokenType
	Text  string
	Int   int
	Start int
	End   int
}

// SyntaxError reports a malformed expression at a byte offset.
type SyntaxError struct {
	Offset int
	End    int
	Msg    string
}

func (e *SyntaxError) Error() string { return e.Msg }

// Lex splits an expression into tokens. The final token is always TokenEOF.
func Lex(src string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, Token{Type: TokenIdent, Text: src[start:i], Start: start, End: i})
			continue
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			n, err := strconv.Atoi(src[start:i])
			if err != nil {
				return nil, &SyntaxError{Offset: start, End: i, Msg: fmt.Sprintf("integer %s out of range", src[start:i])}
			}
			toks = append(toks, Token{Type: TokenInt, Text: src[start:i], Int: n, Start: start, End: i})
			continue
		}

		two := ""
		if i+1 < len(src) {
			two = src[i : i+2]
		}
		switch two {
		case "--":
			toks = append(toks, Token{Type: TokenDecrement, Text: two, Start: i, End: i + 2})
			i += 2
			continue
		case "==":
			toks = append(toks, Token{Type: TokenEqual, Text: two, Start: i, End: i + 2})
			i += 2
			continue
		case "!=":
			toks = append(toks, Token{Type: TokenNotEqual, Text: two, Start: i, End: i + 2})
			i += 2
			continue
		}

		var tt TokenType
		switch c {
		case '(':
			tt = TokenLParen
		case ')':
			tt = TokenRParen
		case ',':
			tt = TokenComma
		case '+':
			tt = TokenPlus
		case '*':
			tt = TokenStar
		case '!':
			tt = TokenBang
		case '~':
			tt = TokenTilde
		default:
			return nil, &SyntaxError{Offset: i, End: i + 1, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
		toks = append(toks, Token{Type: tt, Text: string(c), Start: i, End: i + 1})
		i++
	}
	toks = append(toks, Token{Type: TokenEOF, Start: len(src), End: len(src)})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
