package typed

import (
	"fmt"
)

// MatchError chains every enclosing unification attempt around the
// innermost conflict.
type MatchError struct {
	Left  Mono
	Right Mono
	Sub   *MatchError
}

func (e *MatchError) Error() string {
	s := fmt.Sprintf("`%s` cannot be matched with `%s`", e.Left, e.Right)
	if inner := e.Innermost(); inner != e {
		s += fmt.Sprintf(" (`%s` vs `%s`)", inner.Left, inner.Right)
	}
	return s
}

func (e *MatchError) Innermost() *MatchError {
	for e.Sub != nil {
		e = e.Sub
	}
	return e
}

func failMatch(a, b Mono, sub error) error {
	var inner *MatchError
	if sub != nil {
		inner = sub.(*MatchError)
	}
	return &MatchError{Left: a, Right: b, Sub: inner}
}

// Unify computes the most general unifier of a and b, destructively
// binding cells, and returns the resolved representative.
func Unify(a, b Mono) (Mono, error) {
	a = InnerMono(a)
	b = InnerMono(b)
	if a == b {
		return a, nil
	}

	if cell := cellOf(a); cell != nil {
		if occurs(cell, b) {
			return nil, failMatch(a, b, nil)
		}
		cell.Bound = b
		return b, nil
	}
	if cell := cellOf(b); cell != nil {
		if occurs(cell, a) {
			return nil, failMatch(a, b, nil)
		}
		cell.Bound = a
		return a, nil
	}

	switch x := a.(type) {
	case *Pointer:
		if y, ok := b.(*Pointer); ok {
			if _, err := Unify(x.To, y.To); err != nil {
				return nil, failMatch(a, b, err)
			}
			return a, nil
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			if len(x.Items) != len(y.Items) {
				return nil, failMatch(a, b, nil)
			}
			for i := range x.Items {
				if _, err := Unify(x.Items[i], y.Items[i]); err != nil {
					return nil, failMatch(a, b, err)
				}
			}
			return a, nil
		}
	case *Func:
		if y, ok := b.(*Func); ok {
			if _, err := Unify(x.Arg, y.Arg); err != nil {
				return nil, failMatch(a, b, err)
			}
			if _, err := Unify(x.Result, y.Result); err != nil {
				return nil, failMatch(a, b, err)
			}
			return a, nil
		}
	case *Opaque:
		if y, ok := b.(*Opaque); ok {
			if _, err := Unify(x.Inner, y.Inner); err != nil {
				return nil, failMatch(a, b, err)
			}
			return a, nil
		}
		// opaque never unifies with anything else, aliases included
		return nil, failMatch(a, b, nil)
	case *User:
		if y, ok := b.(*User); ok && x.Decl.ReprName == y.Decl.ReprName {
			for i := range x.Args {
				if _, err := Unify(x.Args[i], y.Args[i]); err != nil {
					return nil, failMatch(a, b, err)
				}
			}
			return a, nil
		}
	}

	// alias expansion fires only when exactly one side is a user type;
	// two distinct aliases of the same structural type stay apart
	_, aUser := a.(*User)
	_, bUser := b.(*User)
	if x, ok := a.(*User); ok && !bUser {
		if m, ok := x.Monify(); ok {
			r, err := Unify(m, b)
			if err != nil {
				return nil, failMatch(a, b, err)
			}
			return r, nil
		}
	}
	if y, ok := b.(*User); ok && !aUser {
		if m, ok := y.Monify(); ok {
			r, err := Unify(a, m)
			if err != nil {
				return nil, failMatch(a, b, err)
			}
			return r, nil
		}
	}

	return nil, failMatch(a, b, nil)
}

func occurs(cell *Cell, m Mono) bool {
	m = InnerMono(m)
	switch t := m.(type) {
	case *Var:
		return t.Cell == cell
	case *Indir:
		return t.Cell == cell
	case *Pointer:
		return occurs(cell, t.To)
	case *Tuple:
		for _, x := range t.Items {
			if occurs(cell, x) {
				return true
			}
		}
	case *Func:
		return occurs(cell, t.Arg) || occurs(cell, t.Result)
	case *Opaque:
		return occurs(cell, t.Inner)
	case *User:
		for _, x := range t.Args {
			if occurs(cell, x) {
				return true
			}
		}
	}
	return false
}
