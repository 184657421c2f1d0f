package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"requitec/ast"
	"requitec/common"
	"requitec/depm"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"
)

// Cataloger fills in the symbol tables of the modules of a binary and
// determines the types of every declared entity.  Cataloging is split into
// passes which must each be run over every module before the next begins:
// Tabulate, TabulateExtensions, Catalog, and ResolveTypeAliases.
type Cataloger struct {
	bin *depm.Binary
	r   *resolve.Resolver

	// The declaration scope of the tabulation in progress.
	module      *depm.Module
	exportGroup depm.ExportGroupID
	object      types.ObjectID
}

// NewCataloger creates a new cataloger for a binary.
func NewCataloger(bin *depm.Binary, r *resolve.Resolver) *Cataloger {
	return &Cataloger{
		bin:         bin,
		r:           r,
		exportGroup: depm.None,
		object:      depm.NoObject,
	}
}

// CatalogBinary runs every cataloging pass over every module of the binary in
// module order.  The binary must already be assembled.
func (c *Cataloger) CatalogBinary() error {
	passes := []func(*depm.Module) error{
		c.Tabulate,
		c.TabulateExtensions,
		c.Catalog,
		c.ResolveTypeAliases,
	}

	for _, pass := range passes {
		for _, m := range c.bin.OrderedModules() {
			if err := pass(m); err != nil {
				return report.InModule(err, m.Path)
			}
		}
	}

	return nil
}

// enterScope sets the declaration scope of the cataloger and returns a
// function restoring the previous scope.
func (c *Cataloger) enterScope(m *depm.Module, eg depm.ExportGroupID, obj types.ObjectID) func() {
	prevModule, prevEG, prevObj := c.module, c.exportGroup, c.object
	c.module, c.exportGroup, c.object = m, eg, obj

	return func() {
		c.module, c.exportGroup, c.object = prevModule, prevEG, prevObj
	}
}

// table returns the table new symbols are defined in.
func (c *Cataloger) table() *depm.SymbolTable {
	if c.object != depm.NoObject {
		return c.bin.Object(c.object).Table
	}

	if c.exportGroup != depm.None {
		return c.bin.ExportGroup(c.exportGroup).Table
	}

	return c.module.Table
}

// define adds a symbol to the current table.
func (c *Cataloger) define(name string, sym depm.Symbol, span *report.TextSpan) error {
	if err := c.table().Define(name, sym); err != nil {
		return report.InSpan(err, span)
	}

	return nil
}

// -----------------------------------------------------------------------------

// declName returns the name of a declaration: its first branch.
func declName(op *ast.Operation) (string, error) {
	if len(op.Branches) > 0 {
		if name, ok := ast.NameOf(op.Branches[0]); ok {
			return name, nil
		}
	}

	return "", report.Raise(report.InvalidDeclaration, op.Span(), "%s must be named by an identifier", op.Opcode)
}

// generateName produces the IR name of a declaration which does not specify
// one.  The declaration order index keeps overloads apart.
func (c *Cataloger) generateName(m *depm.Module, obj types.ObjectID, name string, symbolI int) string {
	var sb strings.Builder
	sb.WriteString(common.ReservedPrefix)
	sb.WriteString(strings.TrimPrefix(m.Name, common.ReservedPrefix))

	if obj != depm.NoObject {
		sb.WriteRune('.')
		sb.WriteString(c.bin.Object(obj).Name)
	}

	if name != "" {
		sb.WriteRune('.')
		sb.WriteString(name)
	}

	fmt.Fprintf(&sb, ".%d", symbolI)
	return sb.String()
}

// userMangledName returns the name given by a `mangled_name` attribute.
func userMangledName(attrs ast.AttributeList) (string, bool, error) {
	attr, ok := attrs.Get(ast.MangledName)
	if !ok {
		return "", false, nil
	}

	if len(attr.Branches) == 1 {
		if lit, ok := attr.Branches[0].(*ast.Literal); ok && lit.Kind == ast.String {
			name, err := strconv.Unquote(lit.Text)
			if err != nil {
				name = strings.Trim(lit.Text, `"`)
			}

			if name != "" {
				return name, true, nil
			}
		}
	}

	return "", false, report.Raise(report.InvalidAttribute, attr.Span(), "mangled name must be a single non-empty string")
}

// callingConvention returns the convention given by a `calling_convention`
// attribute.  The C convention is the default.
func callingConvention(attrs ast.AttributeList) (depm.CallingConvention, error) {
	attr, ok := attrs.Get(ast.CallingConvention)
	if !ok {
		return depm.CallConvC, nil
	}

	if len(attr.Branches) == 1 {
		if name, ok := ast.NameOf(attr.Branches[0]); ok {
			if cc, ok := depm.CallingConventionFromName(strings.ToUpper(name)); ok {
				return cc, nil
			}

			return depm.CallConvUnknown, report.Raise(report.InvalidAttribute, attr.Span(), "unknown calling convention: `%s`", name)
		}
	}

	return depm.CallConvUnknown, report.Raise(report.InvalidAttribute, attr.Span(), "calling convention must be a single name")
}
