// File: lexer.go
// Title: Expression Lexer
// Description: Tokenizes expression source strings into the token stream
//              consumed by the expression parser. Supports numbers, single-
//              and double-quoted strings, identifiers, operators, and the
//              keyword forms of the boolean operators.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial lexer implementation

package expr

import (
	"fmt"
	"strings"
)

// TokenType identifies the type of a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals and identifiers
	TokenIdent
	TokenNumber
	TokenString

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenEQ
	TokenNEQ
	TokenLT
	TokenLTE
	TokenGT
	TokenGTE
	TokenAnd
	TokenOr
	TokenNot

	// Delimiters
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenDot

	// Keywords
	TokenTrue
	TokenFalse
	TokenNull
)

// Token represents a single lexical token
type Token struct {
	Type    TokenType
	Literal string
	Column  int // 1-based column in the source string
}

// String returns a readable representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Literal, t.Column)
}

// String returns the name of the token type
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "EOF"
	case TokenIllegal:
		return "ILLEGAL"
	case TokenIdent:
		return "IDENT"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenPercent:
		return "%"
	case TokenEQ:
		return "=="
	case TokenNEQ:
		return "!="
	case TokenLT:
		return "<"
	case TokenLTE:
		return "<="
	case TokenGT:
		return ">"
	case TokenGTE:
		return ">="
	case TokenAnd:
		return "&&"
	case TokenOr:
		return "||"
	case TokenNot:
		return "!"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenLBracket:
		return "["
	case TokenRBracket:
		return "]"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenTrue:
		return "TRUE"
	case TokenFalse:
		return "FALSE"
	case TokenNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// keywords maps keyword spellings to token types, matched case-insensitively
var keywords = map[string]TokenType{
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
	"nil":   TokenNull,
}

// lookupIdent returns the keyword token type or TokenIdent
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return TokenIdent
}

// Lexer tokenizes an expression source string
type Lexer struct {
	input    string
	position int  // current position (points to ch)
	readPos  int  // next reading position
	ch       byte // current character
}

// NewLexer creates a lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Tokenize returns all tokens of the input, failing on the first illegal one
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenIllegal {
			return nil, fmt.Errorf("illegal character %q at column %d", tok.Literal, tok.Column)
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// NextToken scans and returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	col := l.position + 1
	var tok Token

	switch l.ch {
	case 0:
		tok = Token{Type: TokenEOF, Column: col}
	case '+':
		tok = Token{Type: TokenPlus, Literal: "+", Column: col}
	case '-':
		tok = Token{Type: TokenMinus, Literal: "-", Column: col}
	case '*':
		tok = Token{Type: TokenStar, Literal: "*", Column: col}
	case '/':
		tok = Token{Type: TokenSlash, Literal: "/", Column: col}
	case '%':
		tok = Token{Type: TokenPercent, Literal: "%", Column: col}
	case '(':
		tok = Token{Type: TokenLParen, Literal: "(", Column: col}
	case ')':
		tok = Token{Type: TokenRParen, Literal: ")", Column: col}
	case '[':
		tok = Token{Type: TokenLBracket, Literal: "[", Column: col}
	case ']':
		tok = Token{Type: TokenRBracket, Literal: "]", Column: col}
	case ',':
		tok = Token{Type: TokenComma, Literal: ",", Column: col}
	case '.':
		if isDigit(l.peekChar()) {
			literal := l.readNumber()
			return Token{Type: TokenNumber, Literal: literal, Column: col}
		}
		tok = Token{Type: TokenDot, Literal: ".", Column: col}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenEQ, Literal: "==", Column: col}
		} else {
			tok = Token{Type: TokenIllegal, Literal: "=", Column: col}
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenNEQ, Literal: "!=", Column: col}
		} else {
			tok = Token{Type: TokenNot, Literal: "!", Column: col}
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenLTE, Literal: "<=", Column: col}
		} else {
			tok = Token{Type: TokenLT, Literal: "<", Column: col}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGTE, Literal: ">=", Column: col}
		} else {
			tok = Token{Type: TokenGT, Literal: ">", Column: col}
		}
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			tok = Token{Type: TokenAnd, Literal: "&&", Column: col}
		} else {
			tok = Token{Type: TokenIllegal, Literal: "&", Column: col}
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = Token{Type: TokenOr, Literal: "||", Column: col}
		} else {
			tok = Token{Type: TokenIllegal, Literal: "|", Column: col}
		}
	case '"', '\'':
		literal, ok := l.readString(l.ch)
		if !ok {
			return Token{Type: TokenIllegal, Literal: literal, Column: col}
		}
		return Token{Type: TokenString, Literal: literal, Column: col}
	default:
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			return Token{Type: lookupIdent(literal), Literal: literal, Column: col}
		}
		if isDigit(l.ch) {
			literal := l.readNumber()
			return Token{Type: TokenNumber, Literal: literal, Column: col}
		}
		tok = Token{Type: TokenIllegal, Literal: string(l.ch), Column: col}
	}

	l.readChar()
	return tok
}

// readChar advances to the next character
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.position = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// readIdentifier reads an identifier starting at the current position
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads an integer or decimal number
func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

// readString reads a quoted string with backslash escapes, returning the
// unquoted content and whether the closing quote was found
func (l *Lexer) readString(quote byte) (string, bool) {
	var b strings.Builder
	l.readChar() // consume opening quote

	for l.ch != quote {
		if l.ch == 0 {
			return b.String(), false
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(l.ch)
			}
		} else {
			b.WriteByte(l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume closing quote

	return b.String(), true
}

// skipWhitespace advances past spaces, tabs, and newlines
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
