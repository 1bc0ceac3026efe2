package ir

// WalkExpr visits e and its sub-expressions depth-first. Returning false
// from visit skips the children of that node.
func WalkExpr(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, child := range children(e) {
		WalkExpr(child, visit)
	}
}

func children(e Expr) []Expr {
	switch x := e.(type) {
	case *Member:
		return []Expr{x.Target}
	case *Index:
		return []Expr{x.Target, x.Key}
	case *Binary:
		return []Expr{x.Left, x.Right}
	case *Unary:
		return []Expr{x.Operand}
	case *Call:
		return x.Args
	case *LibraryCall:
		return x.Args
	case *ExternalCall:
		return append([]Expr{x.Address}, x.Args...)
	case *ArrayPush:
		return []Expr{x.Array, x.Value}
	case *ArrayPop:
		return []Expr{x.Array}
	case *ArrayLength:
		return []Expr{x.Array}
	case *Ternary:
		return []Expr{x.Cond, x.Then, x.Else}
	case *TupleExpr:
		return x.Elements
	case *Cast:
		return []Expr{x.Value}
	case *StructLit:
		return x.Fields
	case *NewArray:
		return []Expr{x.Length}
	case *ArrayLit:
		return x.Elements
	}
	return nil
}

// DirectExprs returns the expressions a statement evaluates itself, without
// descending into nested blocks. Loop conditions are included.
func DirectExprs(s Stmt) []Expr {
	switch x := s.(type) {
	case *DeclStmt:
		return []Expr{x.Value}
	case *AssignStmt:
		return []Expr{x.Target, x.Value}
	case *ExprStmt:
		return []Expr{x.X}
	case *IfStmt:
		return []Expr{x.Cond}
	case *WhileStmt:
		return []Expr{x.Cond}
	case *ForStmt:
		return []Expr{x.Cond}
	case *ReturnStmt:
		return []Expr{x.Value}
	case *RequireStmt:
		return []Expr{x.Cond}
	case *RevertStmt:
		return x.Args
	case *EmitStmt:
		return x.Args
	}
	return nil
}

// WalkStmt visits every statement nested in s, s included.
func WalkStmt(s Stmt, visit func(Stmt)) {
	if s == nil {
		return
	}
	visit(s)
	switch x := s.(type) {
	case *Block:
		for _, st := range x.Stmts {
			WalkStmt(st, visit)
		}
	case *IfStmt:
		WalkStmt(x.Then, visit)
		if x.Else != nil {
			WalkStmt(x.Else, visit)
		}
	case *WhileStmt:
		WalkStmt(x.Body, visit)
	case *ForStmt:
		WalkStmt(x.Init, visit)
		WalkStmt(x.Post, visit)
		WalkStmt(x.Body, visit)
	}
}
