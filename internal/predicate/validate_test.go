package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

func TestValidate_ValidTrees(t *testing.T) {
	contains, err := Call("contains", Prop("ProductName"), Lit(ir.String("ai")))
	require.NoError(t, err)

	tests := []struct {
		name string
		node Node
	}{
		{"comparison", Compare(Prop("ProductID"), Eq, Lit(ir.Int(1)))},
		{"pointer comparison", &Comparison{Left: Prop("ProductID"), Op: Lt, Right: Lit(ir.Int(1))}},
		{"and", And(Compare(Prop("A"), Eq, Lit(ir.Int(1))), Compare(Prop("B"), Ne, Lit(ir.Null{})))},
		{"empty and", And()},
		{"not", Not(Prop("Discontinued"))},
		{"function", contains},
		{"arithmetic", Compare(Math(Prop("Price"), Mul, Lit(ir.Int(2))), Gt, Lit(ir.Int(100)))},
		{"quantifier", Any(Prop("Items"), Compare(Prop("Quantity"), Gt, Lit(ir.Int(50))))},
		{"element ref in body", Any(Prop("Tags"), Compare(PropertyRef{}, Eq, Lit(ir.String("x"))))},
		{"root ref in body", All(Prop("Items"), Compare(Prop("Quantity"), Lt, VarProp(RootVar, "Stock")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.node)
			assert.True(t, result.IsValid, "problems: %v", result.Problems)
			assert.Empty(t, result.Problems)
			assert.NoError(t, result.Err())
		})
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name      string
		node      Node
		construct string
		contains  string
	}{
		{"nil", nil, "nil", "nil node"},
		{"bad compare op", Comparison{Left: Prop("A"), Op: "like", Right: Lit(ir.Int(1))}, "like", "unknown comparison operator"},
		{"bad logical op", Logical{Op: "xor"}, "xor", "unknown logical operator"},
		{"not arity", Logical{Op: NotOp, Operands: []Node{Prop("A"), Prop("B")}}, "not", "exactly one operand"},
		{"unknown function", FunctionCall{Name: "soundex", Args: []Node{Prop("A")}}, "soundex", "unsupported function"},
		{"function arity", FunctionCall{Name: "tolower"}, "tolower", "1 argument"},
		{"substring arity", FunctionCall{Name: "substring", Args: []Node{Prop("A")}}, "substring", "2 to 3 arguments"},
		{"bad arithmetic", Arithmetic{Left: Prop("A"), Op: "pow", Right: Lit(ir.Int(2))}, "pow", "unknown arithmetic operator"},
		{"empty path at root", Compare(PropertyRef{}, Eq, Lit(ir.Int(1))), "property", "empty property path"},
		{"slash in name", Compare(PropertyRef{Path: []string{"A/B"}}, Eq, Lit(ir.Int(1))), "A/B", "invalid property name"},
		{"quantifier without body", Quantifier{Kind: AnyKind, Navigation: Prop("Items")}, "any", "has no body"},
		{"quantifier without collection", Quantifier{Kind: AllKind, Body: Lit(ir.Bool(true))}, "all", "no collection property"},
		{"bad quantifier", Quantifier{Kind: "some", Navigation: Prop("Items"), Body: Lit(ir.Bool(true))}, "some", "unknown quantifier"},
		{"nil literal", Compare(Prop("A"), Eq, Literal{}), "literal", "no value"},
		{"unknown node", &struct{ Comparison }{}, "", "unknown node type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.node)
			assert.False(t, result.IsValid)
			require.NotEmpty(t, result.Problems)
			assert.Contains(t, result.Problems[0], tt.contains)
			if tt.construct != "" {
				assert.Equal(t, tt.construct, result.Construct)
			}

			err := result.Err()
			require.Error(t, err)
			assert.True(t, odataerr.IsUnsupportedExpression(err))
		})
	}
}

func TestValidate_AccumulatesProblems(t *testing.T) {
	node := And(
		Comparison{Left: Prop("A"), Op: "like", Right: Lit(ir.Int(1))},
		FunctionCall{Name: "soundex"},
	)

	result := Validate(node)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Problems, 2)
	assert.Equal(t, "like", result.Construct, "first offending construct is reported")
}
