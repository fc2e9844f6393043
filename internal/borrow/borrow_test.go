package borrow

import (
	"testing"

	"amyr/internal/ast"
	"amyr/internal/span"
)

func sp(line int) span.Span {
	return span.Span{Start: span.Position{Line: line, Column: 1}, End: span.Position{Line: line, Column: 2}}
}

func ident(name string) ast.Expr {
	return ast.Variable{ExprBase: ast.ExprBase{Span: sp(1)}, Name: name, Kind: ast.BorrowShared}
}

func TestLetThenReadIsClean(t *testing.T) {
	program := ast.Block{
		ExprBase: ast.ExprBase{Span: sp(1)},
		Items: []ast.Expr{
			ast.Let{ExprBase: ast.ExprBase{Span: sp(1)}, Name: "x", Init: ast.Int{ExprBase: ast.ExprBase{Span: sp(1)}, Value: 1}},
			ident("x"),
		},
	}
	ok, violations := Check(program)
	if !ok {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

func TestMoveThenReadIsUseAfterMove(t *testing.T) {
	program := ast.Block{
		ExprBase: ast.ExprBase{Span: sp(1)},
		Items: []ast.Expr{
			ast.Let{ExprBase: ast.ExprBase{Span: sp(1)}, Name: "x", Init: ast.Int{ExprBase: ast.ExprBase{Span: sp(1)}, Value: 1}},
			ast.Variable{ExprBase: ast.ExprBase{Span: sp(2)}, Name: "x", Kind: ast.BorrowMove},
			ast.Variable{ExprBase: ast.ExprBase{Span: sp(3)}, Name: "x", Kind: ast.BorrowShared},
		},
	}
	ok, violations := Check(program)
	if ok {
		t.Fatalf("expected a violation for reading a moved value")
	}
	if len(violations) != 1 || violations[0].Kind != UseAfterMove {
		t.Errorf("expected a single UseAfterMove violation, got %+v", violations)
	}
	if violations[0].Line != 3 {
		t.Errorf("violation line = %d, want 3", violations[0].Line)
	}
}

func TestNoConcurrentSharedBorrows(t *testing.T) {
	// Stricter-than-Rust reading: a second Shared borrow while the first
	// is still live is rejected, since the tracker never releases a
	// borrower once registered within the same walk.
	tracker := NewOwnershipTracker()
	tracker.RegisterVariable("x", false)
	if !tracker.CanBorrow("x", Shared) {
		t.Fatalf("expected the first shared borrow to be allowed")
	}
	tracker.RegisterBorrow("x", "first", Shared)
	if tracker.CanBorrow("x", Shared) {
		t.Errorf("expected a second concurrent shared borrow to be rejected")
	}
}

func TestMutableBorrowRequiresDeclaredMutable(t *testing.T) {
	tracker := NewOwnershipTracker()
	tracker.RegisterVariable("x", false)
	if tracker.CanBorrow("x", Mutable) {
		t.Errorf("expected a mutable borrow of an immutable binding to be rejected")
	}
	tracker.RegisterVariable("y", true)
	if !tracker.CanBorrow("y", Mutable) {
		t.Errorf("expected a mutable borrow of a mutable binding to be allowed")
	}
}

func TestScopeExitDropsInnerNames(t *testing.T) {
	tracker := NewOwnershipTracker()
	tracker.EnterScope()
	tracker.RegisterVariable("inner", false)
	tracker.ExitScope()
	if _, ok := tracker.lookup("inner"); ok {
		t.Errorf("expected 'inner' to be dropped after its scope exits")
	}
}

func TestRegisterVariableRejectsRedeclaration(t *testing.T) {
	tracker := NewOwnershipTracker()
	if !tracker.RegisterVariable("x", false) {
		t.Fatalf("expected the first registration to succeed")
	}
	if tracker.RegisterVariable("x", false) {
		t.Errorf("expected redeclaring 'x' at any level to fail")
	}
}

func TestMarkMovedFailsWhileBorrowed(t *testing.T) {
	tracker := NewOwnershipTracker()
	tracker.RegisterVariable("x", false)
	tracker.RegisterBorrow("x", "b1", Shared)
	if tracker.MarkMoved("x") {
		t.Errorf("expected mark_moved to fail while a borrower is live")
	}
}

func TestBinaryChecksLhsThenRhs(t *testing.T) {
	program := ast.Block{
		ExprBase: ast.ExprBase{Span: sp(1)},
		Items: []ast.Expr{
			ast.Let{ExprBase: ast.ExprBase{Span: sp(1)}, Name: "x", Init: ast.Int{ExprBase: ast.ExprBase{Span: sp(1)}, Value: 1}},
			ast.Binary{
				ExprBase: ast.ExprBase{Span: sp(2)},
				Op:       "+",
				Lhs:      ident("x"),
				Rhs:      ast.Int{ExprBase: ast.ExprBase{Span: sp(2)}, Value: 2},
			},
		},
	}
	ok, violations := Check(program)
	if !ok {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}
