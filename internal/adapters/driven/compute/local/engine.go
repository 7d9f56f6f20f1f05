// Package local provides a built-in computation engine for when no remote
// CAS is configured. It collects like terms of linear sums ("x + x" becomes
// "2x") and reports anything else as unsupported.
package local

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.ComputationEngine = (*Engine)(nil)

// Engine simplifies sums of numbers and coefficient-variable terms.
type Engine struct{}

// New creates a local engine.
func New() *Engine {
	return &Engine{}
}

// Evaluate simplifies expr. A definition "name = expr" keeps its left-hand
// side and simplifies the right.
func (e *Engine) Evaluate(ctx context.Context, expr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lhs, rhs, isDefinition := strings.Cut(expr, "=")
	if !isDefinition {
		return simplify(expr)
	}

	name := strings.TrimSpace(lhs)
	if !isIdentifier(name) || strings.Contains(rhs, "=") {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExpression, expr)
	}
	body, err := simplify(rhs)
	if err != nil {
		return "", err
	}
	return name + " = " + body, nil
}

// term is a coefficient and an optional variable; the constant term has
// an empty variable.
type term struct {
	variable string
	coef     *big.Rat
}

// simplify parses a sum and prints it with like terms combined, variables
// in order of first appearance and the constant last.
func simplify(expr string) (string, error) {
	unsupported := fmt.Errorf("%w: %q", domain.ErrUnsupportedExpression, strings.TrimSpace(expr))

	p := &parser{src: []rune(expr)}
	var terms []term
	index := make(map[string]int)

	for first := true; ; first = false {
		p.skipSpace()
		if p.done() {
			if first {
				return "", unsupported
			}
			break
		}

		sign := int64(1)
		if !first {
			switch p.next() {
			case '+':
			case '-':
				sign = -1
			default:
				return "", unsupported
			}
			p.skipSpace()
		}
		for p.peek() == '+' || p.peek() == '-' {
			if p.next() == '-' {
				sign = -sign
			}
			p.skipSpace()
		}

		t, ok := p.term()
		if !ok {
			return "", unsupported
		}
		t.coef.Mul(t.coef, big.NewRat(sign, 1))

		if i, seen := index[t.variable]; seen {
			terms[i].coef.Add(terms[i].coef, t.coef)
			continue
		}
		index[t.variable] = len(terms)
		terms = append(terms, t)
	}

	return format(terms), nil
}

func format(terms []term) string {
	var constant *term
	var b strings.Builder
	write := func(t term, text string) {
		switch {
		case b.Len() == 0 && t.coef.Sign() < 0:
			b.WriteString("-")
		case b.Len() > 0 && t.coef.Sign() < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		b.WriteString(text)
	}

	for i := range terms {
		t := terms[i]
		if t.variable == "" {
			constant = &terms[i]
			continue
		}
		if t.coef.Sign() == 0 {
			continue
		}
		abs := new(big.Rat).Abs(t.coef)
		text := t.variable
		if abs.Cmp(big.NewRat(1, 1)) != 0 {
			text = number(abs) + t.variable
		}
		write(t, text)
	}

	if constant != nil && constant.coef.Sign() != 0 {
		write(*constant, number(new(big.Rat).Abs(constant.coef)))
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

func number(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	f, _ := r.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// parser is a cursor over an expression.
type parser struct {
	src []rune
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() rune {
	r := p.peek()
	p.pos++
	return r
}

func (p *parser) skipSpace() {
	for !p.done() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

// term reads "3", "x", "3x", "3*x" or "0.5 y".
func (p *parser) term() (term, bool) {
	t := term{coef: big.NewRat(1, 1)}

	start := p.pos
	for !p.done() && (unicode.IsDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	hasNumber := p.pos > start
	if hasNumber {
		if _, ok := t.coef.SetString(string(p.src[start:p.pos])); !ok {
			return t, false
		}
		p.skipSpace()
		if p.peek() == '*' {
			p.pos++
			p.skipSpace()
			if !p.identifierAhead() {
				return t, false
			}
		}
	}

	if p.identifierAhead() {
		start = p.pos
		for !p.done() && (p.peek() == '_' || unicode.IsLetter(p.peek()) || unicode.IsDigit(p.peek())) {
			p.pos++
		}
		t.variable = string(p.src[start:p.pos])
	} else if !hasNumber {
		return t, false
	}
	return t, true
}

func (p *parser) identifierAhead() bool {
	r := p.peek()
	return r == '_' || unicode.IsLetter(r)
}
