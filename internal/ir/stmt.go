package ir

import "github.com/alecthomas/participle/v2/lexer"

type Stmt interface {
	Position() lexer.Position
	stmtNode()
}

type Block struct {
	node
	Stmts     []Stmt
	Unchecked bool
}

type LocalVar struct {
	Name string
	Type Type
}

// DeclStmt declares one variable, or several from a tuple. Vars may hold nil
// entries for skipped tuple components.
type DeclStmt struct {
	node
	Vars  []*LocalVar
	Value Expr
}

// AssignStmt stores Value into Target. Compound assignments and ++/-- are
// desugared into a Binary on the right-hand side.
type AssignStmt struct {
	node
	Target Expr
	Value  Expr
}

type ExprStmt struct {
	node
	X Expr
}

type IfStmt struct {
	node
	Cond Expr
	Then *Block
	Else *Block
}

type WhileStmt struct {
	node
	Cond    Expr
	Body    *Block
	DoWhile bool
}

type ForStmt struct {
	node
	Init Stmt
	Cond Expr
	Post Stmt
	Body *Block
}

type ReturnStmt struct {
	node
	Value Expr
}

// RequireStmt aborts with Error unless Cond holds.
type RequireStmt struct {
	node
	Cond  Expr
	Error *ErrorEntry
}

// RevertStmt aborts unconditionally. Args are set for custom errors.
type RevertStmt struct {
	node
	Error *ErrorEntry
	Args  []Expr
}

type EmitStmt struct {
	node
	Event *Event
	Args  []Expr
}

type BreakStmt struct{ node }

type ContinueStmt struct{ node }

// PlaceholderStmt is `_;` inside a modifier body.
type PlaceholderStmt struct{ node }

func (*Block) stmtNode()           {}
func (*DeclStmt) stmtNode()        {}
func (*AssignStmt) stmtNode()      {}
func (*ExprStmt) stmtNode()        {}
func (*IfStmt) stmtNode()          {}
func (*WhileStmt) stmtNode()       {}
func (*ForStmt) stmtNode()         {}
func (*ReturnStmt) stmtNode()      {}
func (*RequireStmt) stmtNode()     {}
func (*RevertStmt) stmtNode()      {}
func (*EmitStmt) stmtNode()        {}
func (*BreakStmt) stmtNode()       {}
func (*ContinueStmt) stmtNode()    {}
func (*PlaceholderStmt) stmtNode() {}

// EndsInReturn reports whether control cannot fall off the end of b.
func EndsInReturn(b *Block) bool {
	if b == nil || len(b.Stmts) == 0 {
		return false
	}
	switch s := b.Stmts[len(b.Stmts)-1].(type) {
	case *ReturnStmt, *RevertStmt:
		return true
	case *Block:
		return EndsInReturn(s)
	case *IfStmt:
		return s.Else != nil && EndsInReturn(s.Then) && EndsInReturn(s.Else)
	}
	return false
}
