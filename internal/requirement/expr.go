// Package requirement parses and evaluates the boolean requirement expressions
// used by unlockable milestones and by qualitative report categories.
//
// Expressions arrive as loosely typed values decoded from YAML or JSON
// (string, []any, map[string]any) and are compiled once into a small sum type:
//
//	Token      "itemX"
//	All        ["a", "b"]                   every entry holds
//	Any        ["a", "b"] nested in an All  at least one entry holds
//	Not        entries of and_not / or_not
//	Combinator {and: [...], or: [...], and_not: [...], or_not: [...]}
//	Condition  {type: made-choice, choice: "M1"}
//
// Sequences alternate polarity as they nest: a sequence inside an All is an
// Any, and a sequence inside an Any is an All.
package requirement

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMalformedExpression is returned for objects that carry none of the
	// recognized keys (and, or, and_not, or_not, type).
	ErrMalformedExpression = errors.New("malformed expression")

	// ErrMalformedRequirements is returned when a value is neither a string,
	// a sequence, nor an object.
	ErrMalformedRequirements = errors.New("malformed requirements")

	// ErrUnknownConditionType is returned when an atomic condition with an
	// unrecognized type is evaluated.
	ErrUnknownConditionType = errors.New("unknown condition type")
)

// Combinator keys recognized in object expressions.
const (
	KeyAnd    = "and"
	KeyOr     = "or"
	KeyAndNot = "and_not"
	KeyOrNot  = "or_not"
	KeyType   = "type"
)

// ConditionKind identifies an atomic condition.
type ConditionKind int

const (
	// KindUnknown is any type string this package does not understand.
	KindUnknown ConditionKind = iota
	// KindMadeChoice holds once the named milestone has been chosen.
	KindMadeChoice
	// KindGotFindable holds once the named item has been found.
	KindGotFindable
)

// Condition type names as they appear in description files.
const (
	TypeMadeChoice  = "made-choice"
	TypeGotFindable = "got-findable"
)

func (k ConditionKind) String() string {
	switch k {
	case KindMadeChoice:
		return TypeMadeChoice
	case KindGotFindable:
		return TypeGotFindable
	default:
		return "unknown"
	}
}

// Expr is a compiled requirement expression. The set of implementations is
// closed: Token, All, Any, Not, Combinator and Condition.
type Expr interface {
	isExpr()
}

// Token is satisfied when the name is in the satisfied set.
type Token string

// All is satisfied when every entry is satisfied. An empty All holds.
type All []Expr

// Any is satisfied when at least one entry is satisfied. An empty Any does not hold.
type Any []Expr

// Not negates its inner expression.
type Not struct {
	Inner Expr
}

// Combinator is the keyed object form. Only present keys participate; the
// present parts are combined with AND.
type Combinator struct {
	And    All
	Or     Any
	AndNot All // each entry is wrapped in Not
	OrNot  Any // each entry is wrapped in Not

	HasAnd, HasOr, HasAndNot, HasOrNot bool
}

// Condition is an atomic event condition such as made-choice or got-findable.
type Condition struct {
	Kind ConditionKind
	// Type is the raw type string, kept for error reporting on unknown kinds.
	Type string
	// Name is the choice or findable the condition refers to.
	Name string
}

func (Token) isExpr()      {}
func (All) isExpr()        {}
func (Any) isExpr()        {}
func (Not) isExpr()        {}
func (Combinator) isExpr() {}
func (Condition) isExpr()  {}

// Parse compiles a decoded value into an Expr. A top-level sequence is an All.
func Parse(value any) (Expr, error) {
	return parse(value, true)
}

// parse compiles value; inAll reports whether a bare sequence at this
// position is an AND (true) or an OR (false).
func parse(value any, inAll bool) (Expr, error) {
	switch v := value.(type) {
	case string:
		return Token(v), nil
	case []any:
		return parseSeq(v, inAll)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return parseSeq(items, inAll)
	case map[string]any:
		return parseObject(v)
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", ErrMalformedRequirements, value)
	}
}

// parseSeq compiles a sequence. Nested sequences flip polarity.
func parseSeq(items []any, asAll bool) (Expr, error) {
	exprs := make([]Expr, 0, len(items))
	for i, item := range items {
		e, err := parse(item, !asAll)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		exprs = append(exprs, e)
	}
	if asAll {
		return All(exprs), nil
	}
	return Any(exprs), nil
}

func parseObject(m map[string]any) (Expr, error) {
	_, hasAnd := m[KeyAnd]
	_, hasOr := m[KeyOr]
	_, hasAndNot := m[KeyAndNot]
	_, hasOrNot := m[KeyOrNot]

	if !hasAnd && !hasOr && !hasAndNot && !hasOrNot {
		if t, ok := m[KeyType]; ok {
			return parseCondition(t, m)
		}
		return nil, fmt.Errorf("%w: object has keys [%s], want one of and, or, and_not, or_not, type",
			ErrMalformedExpression, strings.Join(sortedKeys(m), ", "))
	}

	c := Combinator{HasAnd: hasAnd, HasOr: hasOr, HasAndNot: hasAndNot, HasOrNot: hasOrNot}
	var err error
	if hasAnd {
		if c.And, err = parseEntries(m[KeyAnd], true); err != nil {
			return nil, fmt.Errorf("%s: %w", KeyAnd, err)
		}
	}
	if hasOr {
		var entries []Expr
		if entries, err = parseEntries(m[KeyOr], false); err != nil {
			return nil, fmt.Errorf("%s: %w", KeyOr, err)
		}
		c.Or = Any(entries)
	}
	if hasAndNot {
		var entries []Expr
		if entries, err = parseEntries(m[KeyAndNot], true); err != nil {
			return nil, fmt.Errorf("%s: %w", KeyAndNot, err)
		}
		c.AndNot = negateAll(entries)
	}
	if hasOrNot {
		var entries []Expr
		if entries, err = parseEntries(m[KeyOrNot], false); err != nil {
			return nil, fmt.Errorf("%s: %w", KeyOrNot, err)
		}
		c.OrNot = Any(negateAll(entries))
	}
	return c, nil
}

// parseEntries compiles the value of a combinator key. A single non-sequence
// value is treated as a one-element list.
func parseEntries(value any, asAll bool) ([]Expr, error) {
	var e Expr
	var err error
	switch value.(type) {
	case []any, []string:
		e, err = parse(value, asAll)
	default:
		var single Expr
		if single, err = parse(value, !asAll); err == nil {
			e = All{single}
		}
	}
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case All:
		return v, nil
	case Any:
		return v, nil
	}
	return []Expr{e}, nil
}

func parseCondition(t any, m map[string]any) (Expr, error) {
	typ, ok := t.(string)
	if !ok {
		return nil, fmt.Errorf("%w: condition type must be a string, got %T", ErrMalformedExpression, t)
	}
	c := Condition{Type: typ}
	var key string
	switch typ {
	case TypeMadeChoice:
		c.Kind, key = KindMadeChoice, "choice"
	case TypeGotFindable:
		c.Kind, key = KindGotFindable, "findable"
	default:
		c.Kind = KindUnknown
		return c, nil
	}
	name, ok := m[key].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %s condition needs a %q name", ErrMalformedExpression, typ, key)
	}
	c.Name = name
	return c, nil
}

func negateAll(entries []Expr) All {
	out := make(All, len(entries))
	for i, e := range entries {
		out[i] = Not{Inner: e}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tokens returns every token and condition target referenced by expr, in
// first-reference order without duplicates.
func Tokens(expr Expr) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Expr)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	walk = func(e Expr) {
		switch v := e.(type) {
		case Token:
			add(string(v))
		case All:
			for _, x := range v {
				walk(x)
			}
		case Any:
			for _, x := range v {
				walk(x)
			}
		case Not:
			walk(v.Inner)
		case Combinator:
			walk(v.And)
			walk(v.Or)
			walk(v.AndNot)
			walk(v.OrNot)
		case Condition:
			add(v.Name)
		}
	}
	if expr != nil {
		walk(expr)
	}
	return out
}
