package query

import "strings"

// Lexer tokenizes a filter expression such as "($a AND NOT $b) OR $c".
type Lexer struct {
	input   string
	pos     int  // current position in input (points to current char)
	readPos int  // current reading position in input (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a lexer for input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// NextToken returns the next token. After the input is exhausted it keeps
// returning TokenEOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.pos
	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: start}
	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: start}
	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: start}
	case l.ch == '$':
		l.readChar()
		if !isIdentStart(l.ch) {
			return Token{Type: TokenIllegal, Literal: "$", Pos: start}
		}
		name := l.readIdent()
		return Token{Type: TokenRef, Literal: name, Pos: start}
	case isIdentStart(l.ch):
		word := l.readIdent()
		if tt, ok := keywords[strings.ToUpper(word)]; ok {
			return Token{Type: tt, Literal: word, Pos: start}
		}
		return Token{Type: TokenIllegal, Literal: word, Pos: start}
	default:
		ch := l.ch
		l.readChar()
		return Token{Type: TokenIllegal, Literal: string(ch), Pos: start}
	}
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
