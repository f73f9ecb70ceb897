// Package fulltext translates boolean-mode search strings into PostgreSQL tsquery text.
//
// The accepted language is the one users of the archive search already type:
//
//	+word     the word must be present
//	-word     the word must be absent
//	word      optional; at least one optional word must match when nothing is required
//	word*     prefix match
//	"a b"     phrase, words adjacent and in order
//	(a b)     grouping, operators apply to the whole group
//	~ < >     relevance modifiers; accepted and treated as optional words
//
// Each word or phrase becomes one quoted operand. Only its edge punctuation is
// trimmed: to_tsquery runs the operand through the same parser as the
// to_tsvector index, so hosts, emails and decimals ("example.com", "3.14")
// stay single lexemes on both sides. The rendered text is always a valid
// argument for to_tsquery('simple', $n).
package fulltext

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrEmptyQuery means the input holds no searchable word at all.
	ErrEmptyQuery = errors.New("full-text query has no searchable words")

	// ErrNoPositiveTerms means every word is excluded; such a query matches nothing.
	ErrNoPositiveTerms = errors.New("full-text query only excludes words")
)

type operator int

const (
	opOptional operator = iota
	opRequired
	opExcluded
)

type node interface {
	// render returns the tsquery text, whether it needs parentheses when
	// combined with other operands, and whether it matches anything.
	render() (expr string, compound bool, ok bool)
	hasLexemes() bool
}

type clause struct {
	op   operator
	node node
}

// Query is a parsed boolean-mode search string.
type Query struct {
	root *group
}

// Parse parses a boolean-mode search string.
// Unbalanced parentheses and unterminated quotes are tolerated.
func Parse(input string) (*Query, error) {
	p := &parser{src: []rune(input)}
	root := p.parseGroup(0)
	if !root.hasLexemes() {
		return nil, ErrEmptyQuery
	}
	return &Query{root: root}, nil
}

// TSQuery renders the query as to_tsquery text.
func (q *Query) TSQuery() (string, error) {
	expr, _, ok := q.root.render()
	if !ok {
		return "", ErrNoPositiveTerms
	}
	return expr, nil
}

// Translate parses input and renders it in one step.
func Translate(input string) (string, error) {
	q, err := Parse(input)
	if err != nil {
		return "", err
	}
	return q.TSQuery()
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) parseGroup(depth int) *group {
	g := &group{}
	afterPhrase := false
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return g
		}

		r := p.src[p.pos]
		if r == ')' {
			p.pos++
			if depth > 0 {
				return g
			}
			continue
		}

		op := opOptional
		switch r {
		case '+':
			op = opRequired
			p.pos++
		case '-':
			op = opExcluded
			p.pos++
		case '~', '<', '>':
			p.pos++
		case '@':
			// "a b" @3 is a proximity distance; tsquery has no bounded-distance phrase
			if afterPhrase && p.pos+1 < len(p.src) && unicode.IsDigit(p.src[p.pos+1]) {
				p.pos++
				for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
					p.pos++
				}
				afterPhrase = false
				continue
			}
		}

		if p.pos >= len(p.src) {
			return g
		}

		var n node
		afterPhrase = false
		switch r = p.src[p.pos]; {
		case unicode.IsSpace(r), r == ')':
			continue
		case r == '(':
			p.pos++
			n = p.parseGroup(depth + 1)
		case r == '"':
			p.pos++
			n = p.parsePhrase()
			afterPhrase = true
		default:
			n = p.parseWord()
		}
		g.clauses = append(g.clauses, clause{op: op, node: n})
	}
}

func (p *parser) parsePhrase() node {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		p.pos++
	}
	text := string(p.src[start:p.pos])
	if p.pos < len(p.src) {
		p.pos++
	}
	return &term{text: operand(text)}
}

func (p *parser) parseWord() node {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' {
			break
		}
		p.pos++
	}
	word := string(p.src[start:p.pos])
	return &term{
		text:   operand(word),
		prefix: strings.HasSuffix(word, "*"),
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// operand lowercases text, trims punctuation at its edges and collapses inner
// whitespace. Quotes and backslashes would end or escape a tsquery operand;
// the text search parser treats them as separators, so they become spaces.
// An empty result means the text has nothing to search for.
func operand(text string) string {
	text = strings.Map(func(r rune) rune {
		if r == '\'' || r == '\\' {
			return ' '
		}
		return unicode.ToLower(r)
	}, text)
	text = strings.TrimFunc(text, func(r rune) bool { return !isWordRune(r) })
	return strings.Join(strings.Fields(text), " ")
}

// term is a word or a phrase. PostgreSQL splits a quoted operand into
// lexemes and chains them with the followed-by operator, so "e-mail" and
// "big deal" keep their word order.
type term struct {
	text   string
	prefix bool
}

func (t *term) hasLexemes() bool {
	return t.text != ""
}

func (t *term) render() (string, bool, bool) {
	if t.text == "" {
		return "", false, false
	}
	expr := "'" + t.text + "'"
	if t.prefix {
		expr += ":*"
	}
	return expr, false, true
}

type group struct {
	clauses []clause
}

func (g *group) hasLexemes() bool {
	for _, c := range g.clauses {
		if c.node.hasLexemes() {
			return true
		}
	}
	return false
}

// render applies boolean-mode matching rules: every required operand must
// match; when nothing is required at least one optional operand must; no
// excluded operand may match. Optional operands next to required ones only
// influence ranking, so they are dropped. A required operand that can match
// nothing, such as +(-foo), makes the whole group match nothing.
func (g *group) render() (string, bool, bool) {
	var required, optional, excluded []string
	for _, c := range g.clauses {
		expr, compound, ok := c.node.render()
		if !ok {
			if c.op == opRequired && c.node.hasLexemes() {
				return "", false, false
			}
			continue
		}
		if compound {
			expr = "(" + expr + ")"
		}
		switch c.op {
		case opRequired:
			required = append(required, expr)
		case opExcluded:
			excluded = append(excluded, expr)
		default:
			optional = append(optional, expr)
		}
	}

	var parts []string
	switch {
	case len(required) > 0:
		parts = append(parts, required...)
	case len(optional) == 1:
		parts = append(parts, optional[0])
	case len(optional) > 1:
		parts = append(parts, "("+strings.Join(optional, " | ")+")")
	}
	if len(parts) == 0 {
		return "", false, false
	}
	for _, e := range excluded {
		parts = append(parts, "!"+e)
	}
	return strings.Join(parts, " & "), len(parts) > 1, true
}
