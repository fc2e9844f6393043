// Package borrow implements Amyr's static borrow checker: a post-order
// walk over the finished expression tree that statically enforces
// Rust-style exclusivity rules through an OwnershipTracker, independent
// of and later than parsing. Grounded on
// original_source/amyr-borrow-check/BorrowChecker.hpp's OwnershipTracker
// (its older BorrowSet/BorrowData two-phase-borrow machinery is a
// separate, unused draft and is not followed here).
package borrow

import (
	"fmt"

	"amyr/internal/ast"
)

// Kind is a borrow's requested access mode, mirroring ast.BorrowKind
// without the "none" zero value — a borrow request always means
// something specific.
type Kind int

const (
	Shared Kind = iota
	Mutable
	Move
)

func fromAST(k ast.BorrowKind) Kind {
	switch k {
	case ast.BorrowMutable:
		return Mutable
	case ast.BorrowMove:
		return Move
	default:
		return Shared
	}
}

// ViolationKind classifies a borrow-check failure.
type ViolationKind int

const (
	BorrowWhileMutable ViolationKind = iota
	UseAfterMove
	InvalidBorrow
)

func (k ViolationKind) String() string {
	switch k {
	case BorrowWhileMutable:
		return "BorrowWhileMutable"
	case UseAfterMove:
		return "UseAfterMove"
	default:
		return "InvalidBorrow"
	}
}

// Violation is one recorded borrow-check failure.
type Violation struct {
	Kind    ViolationKind
	Message string
	Line    int
}

// record is the per-name ownership state kept at the scope level it was
// declared at.
type record struct {
	mutable    bool
	borrowers  []string
	scopeLevel int
	moved      bool
}

// OwnershipTracker owns the ownership-record table and the current scope
// counter, matching original_source's OwnershipTracker one-to-one.
type OwnershipTracker struct {
	records      map[string]*record
	currentScope int
}

// NewOwnershipTracker returns a tracker starting at scope level 0.
func NewOwnershipTracker() *OwnershipTracker {
	return &OwnershipTracker{records: make(map[string]*record)}
}

func (t *OwnershipTracker) EnterScope() { t.currentScope++ }

// ExitScope removes every record declared at the current level, then
// decrements it — names declared inside a block do not outlive it.
func (t *OwnershipTracker) ExitScope() {
	for name, r := range t.records {
		if r.scopeLevel == t.currentScope {
			delete(t.records, name)
		}
	}
	t.currentScope--
}

// RegisterVariable records a new name at the current scope. It fails if a
// record with that name already exists at any level.
func (t *OwnershipTracker) RegisterVariable(name string, mutable bool) bool {
	if _, exists := t.records[name]; exists {
		return false
	}
	t.records[name] = &record{mutable: mutable, scopeLevel: t.currentScope}
	return true
}

// CanBorrow decides, for the stricter reading the spec requires when in
// doubt, whether a new borrow of kind may be taken: a Mutable borrow is
// forbidden while any other borrower exists, and — unlike upstream Rust —
// concurrent Shared borrows are not permitted either.
func (t *OwnershipTracker) CanBorrow(name string, kind Kind) bool {
	r, ok := t.records[name]
	if !ok || r.moved {
		return false
	}
	switch kind {
	case Shared:
		return len(r.borrowers) == 0
	case Mutable:
		return len(r.borrowers) == 0 && r.mutable
	case Move:
		return len(r.borrowers) == 0
	default:
		return false
	}
}

// RegisterBorrow appends borrowerID to name's borrower list, succeeding
// only if CanBorrow is true.
func (t *OwnershipTracker) RegisterBorrow(name, borrowerID string, kind Kind) bool {
	r, ok := t.records[name]
	if !ok || !t.CanBorrow(name, kind) {
		return false
	}
	r.borrowers = append(r.borrowers, borrowerID)
	return true
}

// MarkMoved flags name as moved, failing if already moved or still
// borrowed.
func (t *OwnershipTracker) MarkMoved(name string) bool {
	r, ok := t.records[name]
	if !ok || r.moved || len(r.borrowers) > 0 {
		return false
	}
	r.moved = true
	return true
}

func (t *OwnershipTracker) lookup(name string) (*record, bool) {
	r, ok := t.records[name]
	return r, ok
}

// ---- checker ----

// Checker walks a finished AST and reports every borrow violation found.
type Checker struct {
	tracker *OwnershipTracker
	errors  []Violation
}

// NewChecker returns a Checker with a fresh OwnershipTracker.
func NewChecker() *Checker {
	return &Checker{tracker: NewOwnershipTracker()}
}

// Check clears any previous error list and walks root, post-order,
// applying the rules from the compiler's borrow-checking contract. It
// returns whether the walk found no violations, plus the full list.
func Check(root ast.Expr) (bool, []Violation) {
	c := NewChecker()
	c.walk(root)
	return len(c.errors) == 0, c.errors
}

func (c *Checker) walk(expr ast.Expr) {
	switch e := expr.(type) {
	case ast.Int:
		// no effect

	case ast.Variable:
		c.checkVariable(e)

	case ast.Let:
		c.walk(e.Init)
		c.tracker.RegisterVariable(e.Name, e.Mutable)

	case ast.Binary:
		c.walk(e.Lhs)
		c.walk(e.Rhs)

	case ast.Block:
		c.tracker.EnterScope()
		for _, item := range e.Items {
			c.walk(item)
		}
		c.tracker.ExitScope()

	case ast.Call:
		for _, arg := range e.Args {
			c.walk(arg)
		}

	case ast.FunctionPrototype:
		c.tracker.EnterScope()
		for _, p := range e.Parameters {
			c.tracker.RegisterVariable(p.Name, p.Kind == ast.BorrowMutable)
		}
		c.tracker.ExitScope()

	case ast.Function:
		c.tracker.EnterScope()
		for _, p := range e.Prototype.Parameters {
			c.tracker.RegisterVariable(p.Name, p.Kind == ast.BorrowMutable)
		}
		for _, item := range e.Body.Items {
			c.walk(item)
		}
		c.tracker.ExitScope()
	}
}

func (c *Checker) checkVariable(v ast.Variable) {
	kind := fromAST(v.Kind)
	line := v.Span.Start.Line
	borrowerID := fmt.Sprintf("read@%d:%d", v.Span.Start.Line, v.Span.Start.Column)

	if !c.tracker.CanBorrow(v.Name, kind) {
		r, ok := c.tracker.lookup(v.Name)
		switch {
		case !ok:
			c.errors = append(c.errors, Violation{
				Kind:    InvalidBorrow,
				Message: fmt.Sprintf("Borrow of undeclared variable '%s'", v.Name),
				Line:    line,
			})
		case r.moved:
			c.errors = append(c.errors, Violation{
				Kind:    UseAfterMove,
				Message: fmt.Sprintf("Use of moved value: '%s'", v.Name),
				Line:    line,
			})
		default:
			c.errors = append(c.errors, Violation{
				Kind:    BorrowWhileMutable,
				Message: fmt.Sprintf("Cannot borrow '%s' while it is already borrowed", v.Name),
				Line:    line,
			})
		}
		return
	}

	if kind == Move {
		c.tracker.MarkMoved(v.Name)
		return
	}
	c.tracker.RegisterBorrow(v.Name, borrowerID, kind)
}
