package turing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Move is a head movement.
type Move string

const (
	MoveLeft  Move = "<"
	MoveStay  Move = "^"
	MoveRight Move = ">"
)

// Rule is one transition: in state State reading Read, write Write, go to Next and move the head.
type Rule struct {
	State string `json:"state"`
	Read  string `json:"read"`
	Next  string `json:"next"`
	Write string `json:"write"`
	Move  Move   `json:"move"`
	Line  int    `json:"line"`
	Text  string `json:"text"`
}

func (r Rule) String() string {
	return fmt.Sprintf("line %d: %s", r.Line, r.Text)
}

// Program is a parsed machine description.
type Program struct {
	Start  string `json:"start"`
	Accept string `json:"accept"`
	Reject string `json:"reject"`
	Blank  string `json:"blank"`
	Rules  []Rule `json:"rules"`
}

var (
	ErrParse          = errors.New("cannot parse program")
	ErrAmbiguousRules = errors.New("more than one rule matches")
	headerPattern     = regexp.MustCompile(`^(start|accept|reject|blank): (.+)$`)
	rulePattern       = regexp.MustCompile(`^([^ ]+) ([^ ]+) -> ([^ ]+) ([^ ]+) (\^|<|>)$`)
)

// Parse reads a program. The header declares start, accept and reject states and
// optionally the blank symbol; every following line is a rule
// "state symbol -> state symbol move". Lines starting with # and empty lines are skipped.
// Input is case-insensitive.
func Parse(src string) (*Program, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	p := &Program{Blank: Blank}

	n := 0
	for ; n < len(lines); n++ {
		line := strings.ToLower(strings.TrimSpace(lines[n]))
		if skip(line) {
			continue
		}
		m := headerPattern.FindStringSubmatch(line)
		if m == nil {
			break
		}
		switch value := strings.TrimSpace(m[2]); m[1] {
		case "start":
			p.Start = value
		case "accept":
			p.Accept = value
		case "reject":
			p.Reject = value
		case "blank":
			p.Blank = value
		}
	}

	for ; n < len(lines); n++ {
		raw := strings.TrimSpace(lines[n])
		line := strings.ToLower(raw)
		if skip(line) {
			continue
		}
		m := rulePattern.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrParse, n+1, raw)
		}
		p.Rules = append(p.Rules, Rule{
			State: m[1],
			Read:  m[2],
			Next:  m[3],
			Write: m[4],
			Move:  Move(m[5]),
			Line:  n + 1,
			Text:  raw,
		})
	}

	switch {
	case p.Start == "":
		return nil, fmt.Errorf("%w: no start state", ErrParse)
	case p.Accept == "":
		return nil, fmt.Errorf("%w: no accept state", ErrParse)
	case p.Reject == "":
		return nil, fmt.Errorf("%w: no reject state", ErrParse)
	}
	return p, nil
}

// Match returns the rule for state reading symbol, or nil when there is none.
func (p *Program) Match(state, symbol string) (*Rule, error) {
	var found *Rule
	for i := range p.Rules {
		r := &p.Rules[i]
		if r.State != state || r.Read != symbol {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: state %s, symbol %s: %s and %s", ErrAmbiguousRules, state, symbol, found, r)
		}
		found = r
	}
	return found, nil
}

func skip(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}
