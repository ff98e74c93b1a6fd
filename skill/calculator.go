package skill

import (
	"context"
	"fmt"
	"strconv"
	"unicode"
)

// Calculator returns the built-in arithmetic skill. Malformed expressions and
// division by zero are reported as "Error: ..." text, never as handler errors.
func Calculator() Skill {
	return Skill{
		ID:          "calculator",
		Description: "Evaluate an arithmetic expression supporting +, -, *, / and parentheses",
		Handler: func(_ context.Context, input string) (string, error) {
			value, err := Evaluate(input)
			if err != nil {
				return "Error: " + err.Error(), nil
			}
			return strconv.FormatFloat(value, 'f', -1, 64), nil
		},
	}
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
)

type token struct {
	kind  tokenKind
	value float64
}

// Evaluate parses and evaluates an arithmetic expression in one pass using a
// recursive-descent grammar (expression -> term -> factor) with one token of
// lookahead. Standard precedence applies and unary minus is supported.
func Evaluate(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty expression")
	}
	p := &exprParser{tokens: tokens}
	value, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
	return value, nil
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+':
			tokens = append(tokens, token{kind: tokenPlus})
			i++
		case r == '-':
			tokens = append(tokens, token{kind: tokenMinus})
			i++
		case r == '*':
			tokens = append(tokens, token{kind: tokenStar})
			i++
		case r == '/':
			tokens = append(tokens, token{kind: tokenSlash})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			literal := string(runes[start:i])
			value, err := strconv.ParseFloat(literal, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q", literal)
			}
			tokens = append(tokens, token{kind: tokenNumber, value: value})
		default:
			return nil, fmt.Errorf("unexpected character %q", string(r))
		}
	}
	return tokens, nil
}

type exprParser struct {
	tokens []token
	pos    int
}

func (p *exprParser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *exprParser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokenPlus && t.kind != tokenMinus) {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if t.kind == tokenPlus {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) term() (float64, error) {
	left, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokenStar && t.kind != tokenSlash) {
			return left, nil
		}
		p.pos++
		right, err := p.factor()
		if err != nil {
			return 0, err
		}
		if t.kind == tokenStar {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
}

func (p *exprParser) factor() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokenNumber:
		p.pos++
		return t.value, nil
	case tokenMinus:
		p.pos++
		value, err := p.factor()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case tokenLParen:
		p.pos++
		value, err := p.expression()
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokenRParen {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	default:
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
}
