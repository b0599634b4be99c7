// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package wire

// This file implements the erl wire format: a term-encoded list of
// service configurations on the way in, and the canonical printable
// form of an Erlang-style term on the way out. No library in the
// reference pack offers an Erlang external term format codec, so this
// one small surface is hand-rolled against the stdlib rather than built
// on a third-party dependency, unlike every other concern in this
// package.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

// term is the parsed shape of one erl-format value: an atom, a binary
// string, an integer, or a list/tuple of further terms.
type term struct {
	atom   string
	binary string
	number int64
	isNum  bool
	list   []term
	tuple  bool
}

// parseTerms parses the canonical printable form `[{k, v}, ...]` or
// `[term, term, ...]` accepted as an erl-format request body.
func parseTerms(body string) (t term, err kv.Error) {
	p := &erlParser{src: strings.TrimSpace(body)}
	t, errGo := p.parseTerm()
	if errGo != nil {
		return term{}, kv.Wrap(errGo).With("body", body)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return term{}, kv.NewError("trailing data after erl term").With("body", body)
	}
	return t, nil
}

type erlParser struct {
	src string
	pos int
}

func (p *erlParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *erlParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *erlParser) parseTerm() (term, error) {
	p.skipSpace()
	switch p.peek() {
	case '[':
		return p.parseList('[', ']', false)
	case '{':
		return p.parseList('{', '}', true)
	case '"':
		return p.parseBinary()
	default:
		return p.parseAtomOrNumber()
	}
}

func (p *erlParser) parseList(open, close byte, tuple bool) (term, error) {
	if p.peek() != open {
		return term{}, fmt.Errorf("expected %q at position %d", open, p.pos)
	}
	p.pos++
	out := term{tuple: tuple}
	p.skipSpace()
	if p.peek() == close {
		p.pos++
		return out, nil
	}
	for {
		el, err := p.parseTerm()
		if err != nil {
			return term{}, err
		}
		out.list = append(out.list, el)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case close:
			p.pos++
			return out, nil
		default:
			return term{}, fmt.Errorf("expected ',' or %q at position %d", close, p.pos)
		}
	}
}

func (p *erlParser) parseBinary() (term, error) {
	if p.peek() != '"' {
		return term{}, fmt.Errorf("expected '\"' at position %d", p.pos)
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return term{}, fmt.Errorf("unterminated binary starting at %d", start)
	}
	s := p.src[start:p.pos]
	p.pos++
	return term{binary: s}, nil
}

func (p *erlParser) parseAtomOrNumber() (term, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == '}' || c == ']' || c == ' ' || c == '\t' || c == '\n' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return term{}, fmt.Errorf("empty token at position %d", start)
	}
	tok := p.src[start:p.pos]
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return term{number: n, isNum: true}, nil
	}
	return term{atom: tok}, nil
}

// DecodeConfigs interprets an erl-format request body as the list of
// service configurations a services_add request carries: a list of
// `{kind, [{key, value}, ...]}` tuples.
func DecodeConfigs(body string) ([]queue.Config, kv.Error) {
	if len(strings.TrimSpace(body)) == 0 {
		return nil, nil
	}
	t, err := parseTerms(body)
	if err != nil {
		return nil, err
	}
	if t.tuple || len(t.list) == 0 && t.binary == "" && t.atom == "" {
		// A bare tuple at the top level means a single configuration.
		cfg, errGo := decodeConfigTerm(t)
		if errGo != nil {
			return nil, errGo
		}
		return []queue.Config{cfg}, nil
	}
	cfgs := make([]queue.Config, 0, len(t.list))
	for _, el := range t.list {
		cfg, errGo := decodeConfigTerm(el)
		if errGo != nil {
			return nil, errGo
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func decodeConfigTerm(t term) (queue.Config, kv.Error) {
	if !t.tuple || len(t.list) < 1 {
		return queue.Config{}, kv.NewError("expected a {kind, kv-list} tuple")
	}
	cfg := queue.Config{Kind: t.list[0].atom}
	if len(t.list) > 1 {
		for _, pair := range t.list[1].list {
			if !pair.tuple || len(pair.list) != 2 {
				return queue.Config{}, kv.NewError("expected a {key, value} tuple")
			}
			cfg.KV = append(cfg.KV, queue.KeyValue{Key: pair.list[0].atom, Value: termValue(pair.list[1])})
		}
	}
	return cfg, nil
}

func termValue(t term) interface{} {
	switch {
	case t.isNum:
		return t.number
	case len(t.binary) != 0 || (t.atom == "" && len(t.list) == 0):
		return t.binary
	case len(t.atom) != 0:
		return t.atom
	default:
		vals := make([]interface{}, 0, len(t.list))
		for _, el := range t.list {
			vals = append(vals, termValue(el))
		}
		return vals
	}
}

// EncodeConfigs renders cfgs back into the canonical printable erl form
// for a queue command's success response.
func EncodeConfigs(cfgs []queue.Config) string {
	parts := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		parts = append(parts, encodeConfig(cfg))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func encodeConfig(cfg queue.Config) string {
	kvParts := make([]string, 0, len(cfg.KV))
	for _, pair := range cfg.KV {
		kvParts = append(kvParts, fmt.Sprintf("{%s,%s}", pair.Key, encodeValue(pair.Value)))
	}
	return fmt.Sprintf("{%s,[%s]}", cfg.Kind, strings.Join(kvParts, ","))
}

func encodeValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, el := range val {
			parts = append(parts, encodeValue(el))
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// EncodeSuccess renders the canonical erl success envelope for commands
// that return no payload besides the pending count (services_add) or
// nothing at all.
func EncodeSuccess(fields ...string) string {
	if len(fields) == 0 {
		return "{ok}"
	}
	return "{ok," + strings.Join(fields, ",") + "}"
}

// EncodeError renders the canonical erl error envelope.
func EncodeError(reason string) string {
	return fmt.Sprintf("{error,%q}", reason)
}
