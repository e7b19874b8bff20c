// Package ast defines the syntax tree consumed by the phy interpreter.
package ast

import "fmt"

// Loc tracks a source location within a phy source file.
type Loc struct {
	Offset int // zero-based byte offset
	Line   int // one-based line number
	Column int // one-based column number (rune count)
	Span   int // length of the node's leading token in bytes
}

func (l Loc) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Node represents any AST node with a source location.
type Node interface {
	Pos() Loc
}

// Stmt represents a statement.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression.
type Expr interface {
	Node
	exprNode()
}

// ExprStmt evaluates an expression; its value is the statement's value.
type ExprStmt struct {
	Expr Expr
	Loc  Loc
}

func (s *ExprStmt) Pos() Loc { return s.Loc }
func (*ExprStmt) stmtNode()  {}

// PrintStmt writes the textual form of a value.
type PrintStmt struct {
	Expr Expr
	Loc  Loc
}

func (s *PrintStmt) Pos() Loc { return s.Loc }
func (*PrintStmt) stmtNode()  {}

// VarDeclStmt declares a binding in the current scope, optionally initialised.
type VarDeclStmt struct {
	Name  string
	Value Expr // may be nil
	Loc   Loc
}

func (s *VarDeclStmt) Pos() Loc { return s.Loc }
func (*VarDeclStmt) stmtNode()  {}

// BlockStmt is a braced block introducing a new scope.
type BlockStmt struct {
	Stmts []Stmt
	Loc   Loc
}

func (s *BlockStmt) Pos() Loc { return s.Loc }
func (*BlockStmt) stmtNode()  {}

// IfStmt conditionally executes one of two optional branches.
type IfStmt struct {
	Cond Expr
	Then Stmt // may be nil
	Else Stmt // may be nil
	Loc  Loc
}

func (s *IfStmt) Pos() Loc { return s.Loc }
func (*IfStmt) stmtNode()  {}

// WhileStmt repeats its body while the condition is true.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Loc  Loc
}

func (s *WhileStmt) Pos() Loc { return s.Loc }
func (*WhileStmt) stmtNode()  {}

// ForRange is an inclusive integer range. A nil End means the range 0..=Start.
type ForRange struct {
	Start int64
	End   *int64
}

// Bounds returns the first and last value of the range.
func (r ForRange) Bounds() (int64, int64) {
	if r.End == nil {
		return 0, r.Start
	}
	return r.Start, *r.End
}

// ForStmt binds Placeholder to every integer of Range in turn.
type ForStmt struct {
	Placeholder string
	Range       ForRange
	Body        Stmt
	Loc         Loc
}

func (s *ForStmt) Pos() Loc { return s.Loc }
func (*ForStmt) stmtNode()  {}

// FnDeclStmt declares a named function.
type FnDeclStmt struct {
	Name   string
	Params []string
	Body   []Stmt
	Loc    Loc
}

func (s *FnDeclStmt) Pos() Loc { return s.Loc }
func (*FnDeclStmt) stmtNode()  {}

// ReturnStmt exits the current function, optionally with a value.
type ReturnStmt struct {
	Value Expr // may be nil
	Loc   Loc
}

func (s *ReturnStmt) Pos() Loc { return s.Loc }
func (*ReturnStmt) stmtNode()  {}

// BinaryExpr applies an arithmetic or comparison operator.
type BinaryExpr struct {
	Op          string
	Left, Right Expr
	Loc         Loc
}

func (e *BinaryExpr) Pos() Loc { return e.Loc }
func (*BinaryExpr) exprNode()  {}

// AssignExpr mutates an existing binding.
type AssignExpr struct {
	Name  string
	Value Expr
	Loc   Loc
}

func (e *AssignExpr) Pos() Loc { return e.Loc }
func (*AssignExpr) exprNode()  {}

// GroupingExpr is a parenthesised expression.
type GroupingExpr struct {
	Expr Expr
	Loc  Loc
}

func (e *GroupingExpr) Pos() Loc { return e.Loc }
func (*GroupingExpr) exprNode()  {}

// IntLiteralExpr is an integer literal.
type IntLiteralExpr struct {
	Value int64
	Loc   Loc
}

func (e *IntLiteralExpr) Pos() Loc { return e.Loc }
func (*IntLiteralExpr) exprNode()  {}

// RealLiteralExpr is a floating-point literal.
type RealLiteralExpr struct {
	Value float64
	Loc   Loc
}

func (e *RealLiteralExpr) Pos() Loc { return e.Loc }
func (*RealLiteralExpr) exprNode()  {}

// StrLiteralExpr is a double-quoted string literal.
type StrLiteralExpr struct {
	Value string
	Loc   Loc
}

func (e *StrLiteralExpr) Pos() Loc { return e.Loc }
func (*StrLiteralExpr) exprNode()  {}

// IdentifierExpr refers to a variable or function name.
type IdentifierExpr struct {
	Name string
	Loc  Loc
}

func (e *IdentifierExpr) Pos() Loc { return e.Loc }
func (*IdentifierExpr) exprNode()  {}

// UnaryExpr represents prefix operator application ("-" or "!").
type UnaryExpr struct {
	Op    string
	Right Expr
	Loc   Loc
}

func (e *UnaryExpr) Pos() Loc { return e.Loc }
func (*UnaryExpr) exprNode()  {}

// LogicalExpr is a short-circuiting "and" / "or".
type LogicalExpr struct {
	Op          string
	Left, Right Expr
	Loc         Loc
}

func (e *LogicalExpr) Pos() Loc { return e.Loc }
func (*LogicalExpr) exprNode()  {}

// CallExpr invokes an expression with arguments.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Loc    Loc
}

func (e *CallExpr) Pos() Loc { return e.Loc }
func (*CallExpr) exprNode()  {}
