package requirement

import "fmt"

// Env answers membership questions for an evaluation.
type Env interface {
	// HasToken reports whether a bare token is satisfied.
	HasToken(name string) bool
	// MadeChoice reports whether the named milestone has been chosen.
	MadeChoice(name string) bool
	// GotFindable reports whether the named item has been found.
	GotFindable(name string) bool
}

// Evaluate reports whether expr holds in env. It is pure. The only error it
// returns wraps ErrUnknownConditionType.
func Evaluate(expr Expr, env Env) (bool, error) {
	switch e := expr.(type) {
	case nil:
		return true, nil
	case Token:
		return env.HasToken(string(e)), nil
	case All:
		for _, x := range e {
			ok, err := Evaluate(x, env)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Any:
		for _, x := range e {
			ok, err := Evaluate(x, env)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Evaluate(e.Inner, env)
		return !ok, err
	case Combinator:
		return evaluateCombinator(e, env)
	case Condition:
		switch e.Kind {
		case KindMadeChoice:
			return env.MadeChoice(e.Name), nil
		case KindGotFindable:
			return env.GotFindable(e.Name), nil
		default:
			return false, fmt.Errorf("%w: %q", ErrUnknownConditionType, e.Type)
		}
	default:
		return false, fmt.Errorf("%w: %T", ErrMalformedExpression, expr)
	}
}

// evaluateCombinator ANDs together every present key.
func evaluateCombinator(c Combinator, env Env) (bool, error) {
	parts := make([]Expr, 0, 4)
	if c.HasAnd {
		parts = append(parts, c.And)
	}
	if c.HasOr {
		parts = append(parts, c.Or)
	}
	if c.HasAndNot {
		parts = append(parts, c.AndNot)
	}
	if c.HasOrNot {
		parts = append(parts, c.OrNot)
	}
	return Evaluate(All(parts), env)
}

// SetEnv is an Env backed by plain sets. Bare tokens are satisfied by either
// set; conditions consult only their own.
type SetEnv struct {
	Chosen map[string]bool
	Found  map[string]bool
}

// HasToken implements Env.
func (s SetEnv) HasToken(name string) bool { return s.Chosen[name] || s.Found[name] }

// MadeChoice implements Env.
func (s SetEnv) MadeChoice(name string) bool { return s.Chosen[name] }

// GotFindable implements Env.
func (s SetEnv) GotFindable(name string) bool { return s.Found[name] }
