package lang

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node.
type Node interface {
	// Format renders the node back to netter DSL source text.
	Format() string
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// File is the result of parsing a whole source file: either a bare Program
// (no TLS/config/global-handler/import at top level) or a ServerConfig.
type File interface {
	Node
	fileNode()
}

// Program is the top-level file shape when none of tls/config/global error
// handler/import appear.
type Program struct {
	Routes []*Route
}

func (p *Program) fileNode() {}
func (p *Program) Format() string {
	var b strings.Builder
	for _, r := range p.Routes {
		b.WriteString(r.Format())
		b.WriteString("\n")
	}
	return b.String()
}

// ServerConfig is the top-level file shape when at least one of tls/config/
// global error handler/import is present. Imports are kept in their own
// list, which Interpreter.Load binds before any route, so that plugin
// loading precedes route binding (SPEC_FULL.md §4.3).
type ServerConfig struct {
	Routes             []*Route
	Imports            []*Import
	TLS                *TlsConfig
	GlobalErrorHandler *GlobalErrorHandler
	Config             *ConfigBlock
}

func (s *ServerConfig) fileNode() {}
func (s *ServerConfig) Format() string {
	var b strings.Builder
	if s.TLS != nil {
		b.WriteString(s.TLS.Format())
		b.WriteString("\n")
	}
	if s.Config != nil {
		b.WriteString(s.Config.Format())
		b.WriteString("\n")
	}
	if s.GlobalErrorHandler != nil {
		b.WriteString(s.GlobalErrorHandler.Format())
		b.WriteString("\n")
	}
	for _, im := range s.Imports {
		b.WriteString(im.Format())
		b.WriteString("\n")
	}
	for _, r := range s.Routes {
		b.WriteString(r.Format())
		b.WriteString("\n")
	}
	return b.String()
}

// Import binds a native plugin's shared library path to an alias usable as
// `alias::function(...)` inside route bodies.
type Import struct {
	Path  string
	Alias string
}

func (i *Import) Format() string {
	return fmt.Sprintf("import %q as %s;", i.Path, i.Alias)
}

// TlsConfig is the top-level tls { ... }; block.
type TlsConfig struct {
	Enabled  bool
	CertPath string
	KeyPath  string
}

func (t *TlsConfig) Format() string {
	return fmt.Sprintf(
		"tls {\nenabled = %t;\ncert_path = %q;\nkey_path = %q;\n};",
		t.Enabled, t.CertPath, t.KeyPath,
	)
}

// ConfigBlock is the top-level config { ... }; block.
type ConfigBlock struct {
	ConfigType string
	Host       string
	Port       string
}

func (c *ConfigBlock) Format() string {
	return fmt.Sprintf(
		"config {\ntype = %q;\nhost = %q;\nport = %q;\n};",
		c.ConfigType, c.Host, c.Port,
	)
}

// ErrorHandlerBlock is a route-local `onError(var) { ... }` tail.
type ErrorHandlerBlock struct {
	ErrorVar string
	Body     *Block
}

func (e *ErrorHandlerBlock) Format() string {
	return fmt.Sprintf("onError(%s) %s", e.ErrorVar, e.Body.Format())
}

// GlobalErrorHandler is the top-level `global_error_handler(var) { ... };`.
type GlobalErrorHandler struct {
	ErrorVar string
	Body     *Block
}

func (g *GlobalErrorHandler) Format() string {
	return fmt.Sprintf("global_error_handler(%s) %s;", g.ErrorVar, g.Body.Format())
}

// Route is a single `route "path" METHOD { ... } [onError(...) {...}];`.
type Route struct {
	Path     string
	Method   string
	Body     *Block
	OnError  *ErrorHandlerBlock
	Line     int
	Column   int
}

func (r *Route) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "route %q %s %s", r.Path, r.Method, r.Body.Format())
	if r.OnError != nil {
		b.WriteString(" ")
		b.WriteString(r.OnError.Format())
	}
	b.WriteString(";")
	return b.String()
}

// Block is an ordered list of statements enclosed in braces.
type Block struct {
	Statements []Stmt
}

func (b *Block) Format() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b.Statements {
		sb.WriteString(s.Format())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// VarDeclaration is `val`/`var name = value;`.
type VarDeclaration struct {
	Name  string
	Value Expr
}

func (v *VarDeclaration) stmtNode() {}
func (v *VarDeclaration) Format() string {
	return fmt.Sprintf("var %s = %s;", v.Name, v.Value.Format())
}

// IfStatement is `if (cond) { ... } [else ...]`.
type IfStatement struct {
	Cond Expr
	Then *Block
	Else Stmt // either *Block wrapped in BlockStmt, or *IfStatement; nil if absent
}

func (i *IfStatement) stmtNode() {}
func (i *IfStatement) Format() string {
	s := fmt.Sprintf("if (%s) %s", i.Cond.Format(), i.Then.Format())
	if i.Else != nil {
		s += " else " + i.Else.Format()
	} else {
		s += ";"
	}
	return s
}

// BlockStmt wraps a Block so that it can serve as an IfStatement.Else target.
type BlockStmt struct {
	Body *Block
}

func (b *BlockStmt) stmtNode() {}
func (b *BlockStmt) Format() string {
	return b.Body.Format() + ";"
}

// WhileLoop is `while (cond) { ... }`.
type WhileLoop struct {
	Cond Expr
	Body *Block
}

func (w *WhileLoop) stmtNode() {}
func (w *WhileLoop) Format() string {
	return fmt.Sprintf("while (%s) %s", w.Cond.Format(), w.Body.Format())
}

// ForLoop is `for (name in iterable) { ... }`.
type ForLoop struct {
	VarName  string
	Iterable Expr
	Body     *Block
}

func (f *ForLoop) stmtNode() {}
func (f *ForLoop) Format() string {
	return fmt.Sprintf("for (%s in %s) %s", f.VarName, f.Iterable.Format(), f.Body.Format())
}

// ExprStatement is a bare expression followed by `;` (function calls, mostly).
type ExprStatement struct {
	X Expr
}

func (e *ExprStatement) stmtNode() {}
func (e *ExprStatement) Format() string {
	return e.X.Format() + ";"
}

// CompoundAssign is `name OP= expr;` for OP in + - * / ^. It is represented
// as its own statement node (SPEC_FULL.md encodes it as a BinaryOp at the AST
// level conceptually; this module keeps a dedicated node for clarity while
// preserving identical operator semantics in the evaluator).
type CompoundAssign struct {
	Name     string
	Operator Kind // KindPlusAssign, KindMinusAssign, KindStarAssign, KindSlashAssign, KindCaretAssign
	Value    Expr
}

func (c *CompoundAssign) stmtNode() {}
func (c *CompoundAssign) Format() string {
	return fmt.Sprintf("%s %s %s;", c.Name, c.Operator, c.Value.Format())
}

// StringLiteral is a "..." literal.
type StringLiteral struct {
	Value string
}

func (s *StringLiteral) exprNode() {}
func (s *StringLiteral) Format() string {
	return fmt.Sprintf("%q", s.Value)
}

// NumberLiteral is a signed 64-bit integer literal.
type NumberLiteral struct {
	Value int64
}

func (n *NumberLiteral) exprNode() {}
func (n *NumberLiteral) Format() string {
	return fmt.Sprintf("%d", n.Value)
}

// Identifier is a bare name reference.
type Identifier struct {
	Name string
}

func (i *Identifier) exprNode() {}
func (i *Identifier) Format() string {
	return i.Name
}

// ArrayLiteral is `[ expr, ... ]`.
type ArrayLiteral struct {
	Elements []Expr
}

func (a *ArrayLiteral) exprNode() {}
func (a *ArrayLiteral) Format() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.Format()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ArrayAccess is `array[index]`.
type ArrayAccess struct {
	Array Expr
	Index Expr
}

func (a *ArrayAccess) exprNode() {}
func (a *ArrayAccess) Format() string {
	return fmt.Sprintf("%s[%s]", a.Array.Format(), a.Index.Format())
}

// PropertyAccess is `object.property` with no call parens. Reserved: any
// evaluation of it is a runtime error (SPEC_FULL.md §4.4).
type PropertyAccess struct {
	Object   Expr
	Property string
}

func (p *PropertyAccess) exprNode() {}
func (p *PropertyAccess) Format() string {
	return fmt.Sprintf("%s.%s", p.Object.Format(), p.Property)
}

// BinaryOp is a left/right expression joined by a binary operator.
type BinaryOp struct {
	Left     Expr
	Operator Kind
	Right    Expr
}

func (b *BinaryOp) exprNode() {}
func (b *BinaryOp) Format() string {
	return fmt.Sprintf("%s %s %s", b.Left.Format(), b.Operator, b.Right.Format())
}

// FunctionCall is `object?.name(args)` / `object?::name(args)` / `name(args)`,
// with at most one of TryOperator/UnwrapOperator set.
type FunctionCall struct {
	Object         Expr // nil for a bare global call
	Namespaced     bool // true when called via `::` (plugin dispatch)
	Name           string
	Args           []Expr
	TryOperator    bool
	UnwrapOperator bool
	Line           int
	Column         int
}

func (f *FunctionCall) exprNode() {}
func (f *FunctionCall) Format() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Format()
	}
	args := strings.Join(parts, ", ")

	var s string
	switch {
	case f.Object == nil:
		s = fmt.Sprintf("%s(%s)", f.Name, args)
	case f.Namespaced:
		s = fmt.Sprintf("%s::%s(%s)", f.Object.Format(), f.Name, args)
	default:
		s = fmt.Sprintf("%s.%s(%s)", f.Object.Format(), f.Name, args)
	}

	if f.TryOperator {
		s += "?"
	} else if f.UnwrapOperator {
		s += "!!"
	}
	return s
}
