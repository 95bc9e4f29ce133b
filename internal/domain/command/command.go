// Package command parses battle directives out of inbound chat text.
//
// The grammar is a closed table of case-sensitive prefixes recognized at
// the very start of a message. Parsing is pure: no I/O, same input always
// yields the same result. Adding a directive is one table entry.
package command

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
)

// Kind discriminates the directive variants.
type Kind int

const (
	// KindStart opens a new session and names which side speaks first.
	KindStart Kind = iota + 1
	// KindBattle asks one side of an existing session to speak.
	KindBattle
	// KindOutcome records the human judgment and locks the session.
	KindOutcome
)

// String returns a short name for logging.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindBattle:
		return "battle"
	case KindOutcome:
		return "outcome"
	default:
		return "unknown"
	}
}

// Directive is the typed intent extracted from a message prefix.
type Directive struct {
	Kind      Kind
	Side      model.Side    // Start and Battle
	Outcome   model.Outcome // Outcome only
	SessionID string        // Start only; caller-chosen id
}

// rule maps one lexical prefix to a directive shape.
type rule struct {
	prefix  string
	kind    Kind
	side    model.Side
	outcome model.Outcome
	wantsID bool
}

// rules is ordered longest-prefix-first so that e.g. "$startA77" matches
// $startA rather than $sA, and "$battleA" is tried before "$bad".
var rules = []rule{
	{prefix: "$battleA", kind: KindBattle, side: model.SideA},
	{prefix: "$battleB", kind: KindBattle, side: model.SideB},
	{prefix: "$startA", kind: KindStart, side: model.SideA, wantsID: true},
	{prefix: "$startB", kind: KindStart, side: model.SideB, wantsID: true},
	{prefix: "$winA", kind: KindOutcome, outcome: model.OutcomeWinA},
	{prefix: "$winB", kind: KindOutcome, outcome: model.OutcomeWinB},
	{prefix: "$tie", kind: KindOutcome, outcome: model.OutcomeTie},
	{prefix: "$bad", kind: KindOutcome, outcome: model.OutcomeBad},
	{prefix: "$sA", kind: KindStart, side: model.SideA, wantsID: true},
	{prefix: "$sB", kind: KindStart, side: model.SideB, wantsID: true},
	{prefix: "$wA", kind: KindOutcome, outcome: model.OutcomeWinA},
	{prefix: "$wB", kind: KindOutcome, outcome: model.OutcomeWinB},
	{prefix: "$A", kind: KindBattle, side: model.SideA},
	{prefix: "$B", kind: KindBattle, side: model.SideB},
}

// Parse extracts a directive from the start of msg.
//
// It returns the directive, the remaining text with the directive token
// stripped (content otherwise untouched), and whether a directive was
// present. A message that does not begin with '$' passes through with
// found=false and no error. A message that begins with '$' but matches no
// known form is a parse error so that typo'd commands never leak into
// model input.
func Parse(msg string) (Directive, string, bool, error) {
	if !strings.HasPrefix(msg, "$") {
		return Directive{}, msg, false, nil
	}

	for _, r := range rules {
		rest, ok := strings.CutPrefix(msg, r.prefix)
		if !ok {
			continue
		}
		d := Directive{Kind: r.kind, Side: r.side, Outcome: r.outcome}
		if !r.wantsID {
			return d, rest, true, nil
		}
		id, rest := cutToken(rest)
		if id == "" {
			return Directive{}, msg, false, fmt.Errorf("%w after %q", ErrMissingSessionID, r.prefix)
		}
		d.SessionID = id
		return d, rest, true, nil
	}

	tok, _ := cutToken(msg)
	return Directive{}, msg, false, fmt.Errorf("%w: %q", ErrUnknownDirective, tok)
}

// cutToken splits s into its leading run of non-whitespace characters and
// the rest. The separator, if any, is left on the rest.
func cutToken(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
