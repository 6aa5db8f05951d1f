package expr

import (
	"fmt"
)

// Node is a parsed expression. Start and End are byte offsets into the
// expression text.
type Node interface {
	Range() (start, end int)
}

// Ident names a tag, a previously defined list, or a function value.
type Ident struct {
	Name       string
	Start, End int
}

// IntLit is a non-negative integer literal.
type IntLit struct {
	Value      int
	Start, End int
}

// Call applies a built-in to arguments.
type Call struct {
	Func       string
	Args       []Node
	Start, End int
}

// Unary is a prefix operator (* ! ~ --) or the postfix --.
type Unary struct {
	Op         TokenType
	Postfix    bool
	X          Node
	Start, End int
}

// Binary is + (concat), == or !=.
type Binary struct {
	Op         TokenType
	X, Y       Node
	Start, End int
}

func (n *Ident) Range() (int, int)  { return n.Start, n.End }
func (n *IntLit) Range() (int, int) { return n.Start, n.End }
func (n *Call) Range() (int, int)   { return n.Start, n.End }
func (n *Unary) Range() (int, int)  { return n.Start, n.End }
func (n *Binary) Range() (int, int) { return n.Start, n.End }

const (
	precLowest = iota
	precEquality
	precConcat
	precPrefix
)

type parser struct {
	toks []Token
	pos  int
}

// Parse parses a complete expression.
func Parse(src string) (Node, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expr(precLowest)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %s after expression", tok.Type)
	}
	return n, nil
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(tok Token, format string, args ...interface{}) error {
	return &SyntaxError{Offset: tok.Start, End: tok.End, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, found %s", tt, tok.Type)
	}
	return tok, nil
}

func infixPrec(tt TokenType) int {
	switch tt {
	case TokenEqual, TokenNotEqual:
		return precEquality
	case TokenPlus:
		return precConcat
	default:
		return precLowest
	}
}

func (p *parser) expr(min int) (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		prec := infixPrec(tok.Type)
		if prec == precLowest || prec <= min {
			return left, nil
		}
		p.next()
		right, err := p.expr(prec)
		if err != nil {
			return nil, err
		}
		start, _ := left.Range()
		_, end := right.Range()
		left = &Binary{Op: tok.Type, X: left, Y: right, Start: start, End: end}
	}
}

func (p *parser) unary() (Node, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenStar, TokenBang, TokenTilde, TokenDecrement:
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		_, end := x.Range()
		return &Unary{Op: tok.Type, X: x, Start: tok.Start, End: end}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenDecrement {
		tok := p.next()
		start, _ := n.Range()
		n = &Unary{Op: TokenDecrement, Postfix: true, X: n, Start: start, End: tok.End}
	}
	return n, nil
}

func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.Type {
	case TokenInt:
		return &IntLit{Value: tok.Int, Start: tok.Start, End: tok.End}, nil
	case TokenIdent:
		if p.peek().Type != TokenLParen {
			return &Ident{Name: tok.Text, Start: tok.Start, End: tok.End}, nil
		}
		p.next()
		call := &Call{Func: tok.Text, Start: tok.Start}
		if p.peek().Type == TokenRParen {
			call.End = p.next().End
			return call, nil
		}
		for {
			arg, err := p.expr(precLowest)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			sep := p.next()
			if sep.Type == TokenRParen {
				call.End = sep.End
				return call, nil
			}
			if sep.Type != TokenComma {
				return nil, p.errorf(sep, "expected ',' or ')' in call to %s, found %s", call.Func, sep.Type)
			}
		}
	case TokenLParen:
		n, err := p.expr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, p.errorf(tok, "unexpected %s", tok.Type)
}
