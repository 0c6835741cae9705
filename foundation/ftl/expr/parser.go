// File: parser.go
// Title: Expression Parser and Compiler
// Description: Parses a token stream into the compiled closure tree using
//              recursive descent with one precedence level per production.
//              Safety screening happens here: forbidden identifiers and
//              unknown functions fail the compile and are never evaluated.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial parser implementation

package expr

import (
	"strconv"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/utils/stringx"
)

// Compile compiles an expression source string into an immutable Program.
// Compilation performs the safety screening described in funcs.go.
func Compile(source string) (*Program, error) {
	if stringx.IsBlank(source) {
		return nil, formaerror.New("expression source cannot be empty").
			WithCode(formaerror.CodeExprSyntax).
			WithOperation("expr.Compile")
	}

	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, formaerror.Wrap(err, "failed to tokenize expression").
			WithCode(formaerror.CodeExprSyntax).
			WithOperation("expr.Compile").
			WithDetail("source", stringx.Truncate(source, 120))
	}

	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenEOF {
		return nil, p.syntaxError("unexpected token %s", p.current())
	}

	return &Program{source: source, root: root, compiledAt: time.Now()}, nil
}

// parser consumes the token stream produced by the lexer
type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, p.syntaxError("expected %s, got %s", tt, tok)
	}
	p.advance()
	return tok, nil
}

func (p *parser) syntaxError(format string, args ...interface{}) error {
	return formaerror.Newf(format, args...).
		WithCode(formaerror.CodeExprSyntax).
		WithOperation("expr.Compile").
		WithDetail("column", p.current().Column)
}

// parseOr handles: and-expr (("||" | "or") and-expr)*
func (p *parser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: TokenOr, left: left, right: right}
	}
	return left, nil
}

// parseAnd handles: equality (("&&" | "and") equality)*
func (p *parser) parseAnd() (exprNode, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: TokenAnd, left: left, right: right}
	}
	return left, nil
}

// parseEquality handles: comparison (("==" | "!=") comparison)*
func (p *parser) parseEquality() (exprNode, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenEQ || p.current().Type == TokenNEQ {
		op := p.current().Type
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

// parseComparison handles: additive (("<" | "<=" | ">" | ">=") additive)*
func (p *parser) parseComparison() (exprNode, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		op := p.current().Type
		if op != TokenLT && op != TokenLTE && op != TokenGT && op != TokenGTE {
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

// parseAdditive handles: multiplicative (("+" | "-") multiplicative)*
func (p *parser) parseAdditive() (exprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		op := p.current().Type
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

// parseMultiplicative handles: unary (("*" | "/" | "%") unary)*
func (p *parser) parseMultiplicative() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenStar || p.current().Type == TokenSlash || p.current().Type == TokenPercent {
		op := p.current().Type
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

// parseUnary handles: ("-" | "!" | "not") unary | postfix
func (p *parser) parseUnary() (exprNode, error) {
	switch p.current().Type {
	case TokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: TokenMinus, operand: operand}, nil
	case TokenNot:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: TokenNot, operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles member access and indexing on a primary expression:
// primary ("." IDENT | "[" expr "]")*
func (p *parser) parsePostfix() (exprNode, error) {
	target, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case TokenDot:
			p.advance()
			field, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			if err := screenIdentifier(field.Literal, field.Column); err != nil {
				return nil, err
			}
			target = &memberNode{target: target, field: field.Literal}

		case TokenLBracket:
			p.advance()
			index, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}
			target = &indexNode{target: target, index: index}

		default:
			return target, nil
		}
	}
}

// parsePrimary handles literals, identifiers, function calls, grouping, and
// array literals
func (p *parser) parsePrimary() (exprNode, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.syntaxError("invalid number %q", tok.Literal)
		}
		return &literalNode{value: value}, nil

	case TokenString:
		p.advance()
		return &literalNode{value: tok.Literal}, nil

	case TokenTrue:
		p.advance()
		return &literalNode{value: true}, nil

	case TokenFalse:
		p.advance()
		return &literalNode{value: false}, nil

	case TokenNull:
		p.advance()
		return &literalNode{value: nil}, nil

	case TokenIdent:
		p.advance()
		if err := screenIdentifier(tok.Literal, tok.Column); err != nil {
			return nil, err
		}
		if p.current().Type == TokenLParen {
			return p.parseCall(tok)
		}
		return &identNode{name: tok.Literal}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenLBracket:
		return p.parseArray()

	default:
		return nil, p.syntaxError("unexpected token %s", tok)
	}
}

// parseCall handles a function call on an already-consumed identifier. The
// function is resolved against the allow-list now, at compile time.
func (p *parser) parseCall(name Token) (exprNode, error) {
	fn, err := lookupBuiltin(name.Literal, name.Column)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var args []exprNode
	if p.current().Type != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &callNode{name: name.Literal, fn: fn, args: args}, nil
}

// parseArray handles an array literal: "[" (expr ("," expr)*)? "]"
func (p *parser) parseArray() (exprNode, error) {
	if _, err := p.expect(TokenLBracket); err != nil {
		return nil, err
	}

	var elements []exprNode
	if p.current().Type != TokenRBracket {
		for {
			elem, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			elements = append(elements, elem)

			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	return &arrayNode{elements: elements}, nil
}
