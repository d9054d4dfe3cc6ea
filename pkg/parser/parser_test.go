package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qexec/pkg/dberror"
	"qexec/pkg/execution/scanner"
	"qexec/pkg/iterator"
	"qexec/pkg/primitives"
	"qexec/pkg/registry"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

type fakeCatalog struct {
	ctx    *registry.ExecContext
	tables map[string][]string
}

func (c *fakeCatalog) Relation(table, alias string) (iterator.Operator, error) {
	cols, ok := c.tables[table]
	if !ok {
		return nil, fmt.Errorf("no table %s", table)
	}
	ts := make([]types.Type, len(cols))
	for i := range ts {
		ts[i] = types.IntType
	}
	td, err := tuple.NewTableDesc(alias, cols, ts)
	if err != nil {
		return nil, err
	}
	return scanner.NewMemoryScan(c.ctx, alias, td, nil)
}

func newCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	ctx, err := registry.NewExecContext(4096, t.TempDir(), nil)
	require.NoError(t, err)
	return &fakeCatalog{ctx: ctx, tables: map[string][]string{
		"emp":  {"id", "dept", "salary"},
		"dept": {"id", "budget"},
	}}
}

func names(op iterator.Operator) string {
	return op.(interface{ TableName() string }).TableName()
}

func TestParse_JoinQuery(t *testing.T) {
	q, err := ParseQuery(`SELECT DISTINCT e.id, d.budget FROM emp e, dept d
		WHERE e.dept = d.id AND e.salary > 1000 AND 3 >= d.budget
		ORDER BY d.budget DESC, e.id DESC`, newCatalog(t))
	require.NoError(t, err)

	require.Len(t, q.Relations, 2)
	assert.Equal(t, "e", names(q.Relations[0]))
	assert.Equal(t, "d", names(q.Relations[1]))

	require.Len(t, q.JoinConditions, 1)
	assert.Equal(t, "e.dept = d.id", q.JoinConditions[0].String())

	require.Len(t, q.Selections, 2)
	assert.Equal(t, "e.salary > 1000", q.Selections[0].String())
	assert.Equal(t, primitives.LessThanOrEqual, q.Selections[1].Op)
	assert.Equal(t, "d.budget", q.Selections[1].Attr.String())

	assert.True(t, q.Distinct)
	assert.True(t, q.Descending)
	assert.Equal(t, []tuple.Attribute{{Table: "d", Column: "budget"}, {Table: "e", Column: "id"}}, q.OrderBy)
	assert.Equal(t, []tuple.Attribute{{Table: "e", Column: "id"}, {Table: "d", Column: "budget"}}, q.Projection)
	assert.Equal(t, 1, q.NumJoins())
}

func TestParse_ExplicitJoinAndStar(t *testing.T) {
	q, err := ParseQuery("SELECT * FROM emp JOIN dept ON emp.dept = dept.id WHERE emp.id = -4", newCatalog(t))
	require.NoError(t, err)

	assert.Nil(t, q.Projection)
	assert.False(t, q.Distinct)
	require.Len(t, q.Relations, 2)
	assert.Equal(t, "emp", names(q.Relations[0]))
	require.Len(t, q.JoinConditions, 1)
	require.Len(t, q.Selections, 1)
	assert.Equal(t, types.NewIntField(-4), q.Selections[0].Operand)
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		where string
		want  types.Field
	}{
		{"salary = 7", types.NewIntField(7)},
		{"salary < 2.5", types.NewFloatField(2.5)},
		{"salary != 'x'", types.NewStringField("x")},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			q, err := ParseQuery("SELECT id FROM emp WHERE "+tt.where, newCatalog(t))
			require.NoError(t, err)
			require.Len(t, q.Selections, 1)
			assert.True(t, tt.want.Equals(q.Selections[0].Operand))
		})
	}
}

func TestParse_Unsupported(t *testing.T) {
	tests := []string{
		"INSERT INTO emp VALUES (1, 2, 3)",
		"SELECT id FROM emp GROUP BY id",
		"SELECT id FROM emp LIMIT 3",
		"SELECT id FROM emp WHERE id = 1 OR id = 2",
		"SELECT e.id FROM emp e, dept d WHERE e.dept < d.id",
		"SELECT e.id FROM emp e LEFT JOIN dept d ON e.dept = d.id",
		"SELECT count(id) FROM emp",
		"SELECT id FROM emp ORDER BY id ASC, salary DESC",
		"SELECT id FROM (SELECT id FROM emp) x",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := ParseQuery(sql, newCatalog(t))
			require.Error(t, err)
			assert.True(t, dberror.HasCode(err, dberror.CodeUnsupportedSQL), err.Error())
		})
	}
}

func TestParse_SyntaxAndCatalogErrors(t *testing.T) {
	_, err := ParseQuery("SELEC id FRM emp", newCatalog(t))
	assert.True(t, dberror.IsCategory(err, dberror.CategoryPlan))

	_, err = ParseQuery("SELECT id FROM nowhere", newCatalog(t))
	assert.Error(t, err)
}
