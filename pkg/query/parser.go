package query

import "fmt"

// Parse parses a filter expression into a tree.
//
// Grammar, lowest precedence first:
//
//	or      := and ("OR" and)*
//	and     := not ("AND" not)*
//	not     := "NOT" not | primary
//	primary := "$" name | "(" or ")"
func Parse(input string) (Node, error) {
	p := &parser{lexer: NewLexer(input)}
	p.next()
	p.next()

	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, p.unexpected()
	}
	return n, nil
}

type parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
}

func (p *parser) next() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: TokenOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: TokenAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.cur.Type == TokenNot {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.Type {
	case TokenRef:
		ref := &Ref{Name: p.cur.Literal, Pos: p.cur.Pos}
		p.next()
		return ref, nil
	case TokenLParen:
		open := p.cur.Pos
		p.next()
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenRParen {
			if p.cur.Type == TokenEOF {
				return nil, &ParseError{Pos: open, Message: "unclosed parenthesis"}
			}
			return nil, p.unexpected()
		}
		p.next()
		return x, nil
	default:
		return nil, p.unexpected()
	}
}

func (p *parser) unexpected() error {
	switch p.cur.Type {
	case TokenEOF:
		return &ParseError{Pos: p.cur.Pos, Message: "unexpected end of expression"}
	case TokenIllegal:
		return &ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf("unexpected %q", p.cur.Literal)}
	default:
		return &ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf("unexpected %s", p.cur.Type)}
	}
}
