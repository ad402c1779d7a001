// Package reader implements the tokenizer, atom classifier and
// recursive-descent parser, grounded on get_next_token/examine_string/
// parse_atom/parse_expression in main.cpp. Unlike the original's
// position-cursor over a mutable buffer, tokenizing happens upfront into
// a slice; the recursive-descent shape over that slice is otherwise the
// same algorithm.
package reader

import (
	"errors"
	"strconv"
	"strings"

	"lispirito/internal/ops"
	"lispirito/internal/value"
)

var (
	ErrUnexpectedEOF      = errors.New("parse error: unexpected end of input")
	ErrUnmatchedClose     = errors.New("parse error: unmatched )")
	ErrMalformedCharacter = errors.New("parse error: malformed character literal")
	ErrMalformedNumber    = errors.New("parse error: malformed number literal")
)

const (
	flagCharacter = 1 << iota
	flagQuoted
	flagAlpha
	flagDigit
	flagDot
)

// Reader parses source text into values owned by reg.
type Reader struct {
	reg *value.Registry
}

func New(reg *value.Registry) *Reader {
	return &Reader{reg: reg}
}

// Parse reads exactly one expression from source. Input is case-folded
// to lowercase before tokenization, per the grammar.
func (p *Reader) Parse(source string) (*value.VHandle, error) {
	tokens := tokenize(strings.ToLower(source))
	pos := 0
	return p.parseExpr(tokens, &pos)
}

func isDelim(c byte) bool {
	return c == '(' || c == ')' || c == '\''
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func tokenize(s string) []string {
	var tokens []string
	i, n := 0, len(s)
	for i < n {
		c := s[i]
		if isSpace(c) {
			i++
			continue
		}
		if c == '"' {
			start := i
			i++
			for i < n && s[i] != '"' {
				i++
			}
			if i < n {
				i++ // consume the closing quote
			}
			tokens = append(tokens, s[start:i])
			continue
		}
		if isDelim(c) {
			tokens = append(tokens, string(c))
			i++
			continue
		}
		start := i
		for i < n && !isSpace(s[i]) && !isDelim(s[i]) {
			i++
		}
		tokens = append(tokens, s[start:i])
	}
	return tokens
}

func classify(token string) int {
	n := len(token)
	if n == 0 {
		return 0
	}

	if n >= 2 && token[0] == '#' && token[1] == '\\' {
		return flagCharacter
	}
	if n >= 2 && token[0] == '"' && token[n-1] == '"' {
		return flagQuoted
	}
	if n >= 2 && token[0] == '\'' && token[n-1] == '\'' {
		return flagQuoted
	}

	flags := 0
	for i := 0; i < n; i++ {
		c := token[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			flags |= flagAlpha
		case c >= '0' && c <= '9':
			flags |= flagDigit
		case c == '.':
			flags |= flagDot
		}
	}
	return flags
}

func (p *Reader) parseExpr(tokens []string, pos *int) (*value.VHandle, error) {
	if *pos >= len(tokens) {
		return nil, ErrUnexpectedEOF
	}
	tok := tokens[*pos]
	*pos++

	switch tok {
	case "'":
		quoted, err := p.parseExpr(tokens, pos)
		if err != nil {
			return nil, err
		}
		idx, _ := ops.Lookup("quote")
		return p.reg.Cons(p.reg.NewOperator(idx), p.reg.Cons(quoted, p.reg.Empty.Retain())), nil

	case "(":
		var items []*value.VHandle
		for {
			if *pos < len(tokens) && tokens[*pos] == ")" {
				*pos++
				break
			}
			item, err := p.parseExpr(tokens, pos)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return p.buildList(items), nil

	case ")":
		return nil, ErrUnmatchedClose

	default:
		return p.parseAtom(tok)
	}
}

func (p *Reader) buildList(items []*value.VHandle) *value.VHandle {
	result := p.reg.Empty.Retain()
	for i := len(items) - 1; i >= 0; i-- {
		result = p.reg.Cons(items[i], result)
	}
	return result
}

func (p *Reader) parseAtom(token string) (*value.VHandle, error) {
	if token == "#t" {
		return p.reg.True.Retain(), nil
	}
	if token == "#f" {
		return p.reg.False.Retain(), nil
	}

	flags := classify(token)

	if flags&flagCharacter != 0 {
		if len(token) < 3 {
			return nil, ErrMalformedCharacter
		}
		return p.reg.NewChar(rune(token[2])), nil
	}

	if flags&flagQuoted != 0 {
		return p.reg.NewString(token[1 : len(token)-1]), nil
	}

	if flags&flagAlpha == 0 && flags&flagDigit != 0 {
		if flags&flagDot != 0 {
			f, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, ErrMalformedNumber
			}
			return p.reg.NewRealValue(value.NewReal(p.reg.Profile, f)), nil
		}
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, ErrMalformedNumber
		}
		return p.reg.NewInteger(n), nil
	}

	if idx, ok := ops.Lookup(token); ok {
		return p.reg.NewOperator(idx), nil
	}

	return p.reg.NewSymbol(token), nil
}
