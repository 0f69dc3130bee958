package hdlast

import "github.com/sarchlab/rhgforge/rhg"

// ExprKind discriminates the closed set of expression shapes the
// Statement Lowerer switches on. No reflection or type assertion chain
// is needed: every Expr implementation reports its own kind.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprIdent
	ExprXmrPath
	ExprUnary
	ExprBinary
	ExprTernary
	ExprConcat
	ExprReplicate
	ExprPartSelect
	ExprIndexSelect
	ExprIndexedPartSelect
	ExprMemberSelect
	ExprSystemCall
	ExprDpiCall
)

// UnaryOp and BinaryOp enumerate the operators the lowerer maps onto
// rhg.OperationKind.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryBitwiseNot
	UnaryNeg
	UnaryReduceAnd
	UnaryReduceOr
	UnaryReduceXor
	UnaryReduceNand
	UnaryReduceNor
	UnaryReduceXnor
)

type BinaryOp int

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryShl
	BinaryShr
	BinaryAShr
	BinaryEq
	BinaryNeq
	BinaryLt
	BinaryLe
	BinaryGt
	BinaryGe
	BinaryLogicalAnd
	BinaryLogicalOr
)

// Expr is one node of a procedural or continuous-assign expression
// tree, as handed over by the front end. Every concrete node in this
// package also implements Expr.
type Expr interface {
	Kind() ExprKind
	Width() int
	IsSigned() bool
	Type() rhg.ValueType
}

// exprBase factors the width/sign/type hints every concrete node
// carries so each literal struct only adds its own payload.
type exprBase struct {
	width    int
	isSigned bool
	typ      rhg.ValueType
}

func (e exprBase) Width() int          { return e.width }
func (e exprBase) IsSigned() bool      { return e.isSigned }
func (e exprBase) Type() rhg.ValueType { return e.typ }

// LiteralExpr is a constant value, carried as canonical text (e.g.
// "8'hFF", "1'b1") so no base/radix decoding happens in hdlast itself.
type LiteralExpr struct {
	exprBase
	Text string
}

func (LiteralExpr) Kind() ExprKind { return ExprLiteral }

// IdentExpr references a signal or port declared in the enclosing Body.
type IdentExpr struct {
	exprBase
	Name string
}

func (IdentExpr) Kind() ExprKind { return ExprIdent }

// XmrPathExpr is a hierarchical (cross-module) reference, recorded as
// a dotted path rooted at the current instance.
type XmrPathExpr struct {
	exprBase
	Path []string
}

func (XmrPathExpr) Kind() ExprKind { return ExprXmrPath }

// UnaryExpr applies a unary operator to one operand.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expr
}

func (UnaryExpr) Kind() ExprKind { return ExprUnary }

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (BinaryExpr) Kind() ExprKind { return ExprBinary }

// TernaryExpr is `cond ? whenTrue : whenFalse`.
type TernaryExpr struct {
	exprBase
	Cond      Expr
	WhenTrue  Expr
	WhenFalse Expr
}

func (TernaryExpr) Kind() ExprKind { return ExprTernary }

// ConcatExpr is `{a, b, c}`, MSB-first.
type ConcatExpr struct {
	exprBase
	Operands []Expr
}

func (ConcatExpr) Kind() ExprKind { return ExprConcat }

// ReplicateExpr is `{n{a}}`.
type ReplicateExpr struct {
	exprBase
	Count   int
	Operand Expr
}

func (ReplicateExpr) Kind() ExprKind { return ExprReplicate }

// PartSelectExpr is a static bit- or range-select `base[hi:lo]`
// (Hi == Lo for a single-bit select).
type PartSelectExpr struct {
	exprBase
	Base Expr
	Hi   int
	Lo   int
}

func (PartSelectExpr) Kind() ExprKind { return ExprPartSelect }

// IndexSelectExpr is a dynamically-indexed single-element select
// `base[index]`, used for both bit-selects on vectors and row selects
// on memories.
type IndexSelectExpr struct {
	exprBase
	Base  Expr
	Index Expr
}

func (IndexSelectExpr) Kind() ExprKind { return ExprIndexSelect }

// IndexedPartSelectExpr is `base[index +: width]` (Up=true) or
// `base[index -: width]` (Up=false).
type IndexedPartSelectExpr struct {
	exprBase
	Base  Expr
	Index Expr
	Width int
	Up    bool
}

func (IndexedPartSelectExpr) Kind() ExprKind { return ExprIndexedPartSelect }

// MemberSelectExpr selects one field of a packed struct/union base.
type MemberSelectExpr struct {
	exprBase
	Base  Expr
	Field string
}

func (MemberSelectExpr) Kind() ExprKind { return ExprMemberSelect }

// SystemCallExpr is a system function used in expression position (for
// example `$random` or `$bits`), distinct from a SystemTaskStmt used in
// statement position.
type SystemCallExpr struct {
	exprBase
	Name string
	Args []Expr
}

func (SystemCallExpr) Kind() ExprKind { return ExprSystemCall }

// DpiCallExpr is a call to a DPI-imported function used in expression
// position.
type DpiCallExpr struct {
	exprBase
	Import DpiImportInfo
	Args   []Expr
}

func (DpiCallExpr) Kind() ExprKind { return ExprDpiCall }

// DpiImportInfo names the imported C function a DpiCallExpr/DpiCallStmt
// invokes.
type DpiImportInfo struct {
	CFunctionName string
	IsPure        bool
	IsContext     bool
}

// Constructors for every concrete Expr node. hdlast/fixture (and any
// other caller outside this package) builds nodes exclusively through
// these: exprBase is unexported, so a keyed composite literal for any
// of the types above cannot set width/sign/type from another package.

func NewLiteral(text string, width int, isSigned bool, typ rhg.ValueType) LiteralExpr {
	return LiteralExpr{exprBase: exprBase{width, isSigned, typ}, Text: text}
}

func NewIdent(name string, width int, isSigned bool, typ rhg.ValueType) IdentExpr {
	return IdentExpr{exprBase: exprBase{width, isSigned, typ}, Name: name}
}

func NewXmrPath(path []string, width int, isSigned bool, typ rhg.ValueType) XmrPathExpr {
	return XmrPathExpr{exprBase: exprBase{width, isSigned, typ}, Path: path}
}

func NewUnary(op UnaryOp, operand Expr, width int, isSigned bool, typ rhg.ValueType) UnaryExpr {
	return UnaryExpr{exprBase: exprBase{width, isSigned, typ}, Op: op, Operand: operand}
}

func NewBinary(op BinaryOp, left, right Expr, width int, isSigned bool, typ rhg.ValueType) BinaryExpr {
	return BinaryExpr{exprBase: exprBase{width, isSigned, typ}, Op: op, Left: left, Right: right}
}

func NewTernary(cond, whenTrue, whenFalse Expr, width int, isSigned bool, typ rhg.ValueType) TernaryExpr {
	return TernaryExpr{exprBase: exprBase{width, isSigned, typ}, Cond: cond, WhenTrue: whenTrue, WhenFalse: whenFalse}
}

func NewConcat(operands []Expr, width int, isSigned bool, typ rhg.ValueType) ConcatExpr {
	return ConcatExpr{exprBase: exprBase{width, isSigned, typ}, Operands: operands}
}

func NewReplicate(count int, operand Expr, width int, isSigned bool, typ rhg.ValueType) ReplicateExpr {
	return ReplicateExpr{exprBase: exprBase{width, isSigned, typ}, Count: count, Operand: operand}
}

func NewPartSelect(base Expr, hi, lo int, isSigned bool, typ rhg.ValueType) PartSelectExpr {
	return PartSelectExpr{exprBase: exprBase{hi - lo + 1, isSigned, typ}, Base: base, Hi: hi, Lo: lo}
}

func NewIndexSelect(base, index Expr, width int, isSigned bool, typ rhg.ValueType) IndexSelectExpr {
	return IndexSelectExpr{exprBase: exprBase{width, isSigned, typ}, Base: base, Index: index}
}

func NewIndexedPartSelect(base, index Expr, width int, up bool, isSigned bool, typ rhg.ValueType) IndexedPartSelectExpr {
	return IndexedPartSelectExpr{exprBase: exprBase{width, isSigned, typ}, Base: base, Index: index, Width: width, Up: up}
}

func NewMemberSelect(base Expr, field string, width int, isSigned bool, typ rhg.ValueType) MemberSelectExpr {
	return MemberSelectExpr{exprBase: exprBase{width, isSigned, typ}, Base: base, Field: field}
}

func NewSystemCall(name string, args []Expr, width int, isSigned bool, typ rhg.ValueType) SystemCallExpr {
	return SystemCallExpr{exprBase: exprBase{width, isSigned, typ}, Name: name, Args: args}
}

func NewDpiCall(imp DpiImportInfo, args []Expr, width int, isSigned bool, typ rhg.ValueType) DpiCallExpr {
	return DpiCallExpr{exprBase: exprBase{width, isSigned, typ}, Import: imp, Args: args}
}
