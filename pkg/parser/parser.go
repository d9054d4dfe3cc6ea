// Package parser turns SELECT statements into optimizer queries.
//
// The supported subset is
//
//	SELECT [DISTINCT] * | col, ... FROM t [alias], ... [JOIN t ON ...]
//	[WHERE conjunction] [ORDER BY col, ... [ASC|DESC]]
//
// where every conjunct compares a column with a literal (a selection) or
// equates two columns of different relations (a join condition).
package parser

import (
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"qexec/pkg/dberror"
	"qexec/pkg/execution"
	"qexec/pkg/execution/join"
	"qexec/pkg/iterator"
	"qexec/pkg/optimizer"
	"qexec/pkg/primitives"
	"qexec/pkg/tuple"
	"qexec/pkg/types"
)

// Catalog resolves a table reference to a scan whose attributes are
// qualified by alias.
type Catalog interface {
	Relation(table, alias string) (iterator.Operator, error)
}

// Parser converts SQL text into queries over the relations of a catalog.
type Parser struct {
	catalog Catalog
}

func New(catalog Catalog) *Parser {
	return &Parser{catalog: catalog}
}

// ParseQuery is shorthand for New(catalog).Parse(sql).
func ParseQuery(sql string, catalog Catalog) (*optimizer.Query, error) {
	return New(catalog).Parse(sql)
}

func (p *Parser) Parse(sql string) (*optimizer.Query, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CategoryPlan, dberror.CodeUnsupportedSQL, "Parse", "Parser")
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, unsupported("only SELECT statements are supported")
	}
	if len(sel.GroupBy) > 0 || sel.Having != nil || sel.Limit != nil {
		return nil, unsupported("GROUP BY, HAVING and LIMIT are not supported")
	}

	q := &optimizer.Query{Distinct: strings.TrimSpace(sel.Distinct) == strings.TrimSpace(sqlparser.DistinctStr)}

	for _, te := range sel.From {
		if err := p.addTable(q, te); err != nil {
			return nil, err
		}
	}

	if sel.Where != nil {
		if err := p.addConjuncts(q, sel.Where.Expr); err != nil {
			return nil, err
		}
	}

	if q.Projection, err = projection(sel.SelectExprs); err != nil {
		return nil, err
	}

	if err := orderBy(q, sel.OrderBy); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *Parser) addTable(q *optimizer.Query, te sqlparser.TableExpr) error {
	switch t := te.(type) {
	case *sqlparser.AliasedTableExpr:
		name, ok := t.Expr.(sqlparser.TableName)
		if !ok {
			return unsupported("subqueries in FROM are not supported")
		}
		alias := name.Name.String()
		if !t.As.IsEmpty() {
			alias = t.As.String()
		}
		rel, err := p.catalog.Relation(name.Name.String(), alias)
		if err != nil {
			return err
		}
		q.Relations = append(q.Relations, rel)
		return nil

	case *sqlparser.JoinTableExpr:
		if t.Join != sqlparser.JoinStr {
			return unsupported("only inner joins are supported, got " + t.Join)
		}
		if err := p.addTable(q, t.LeftExpr); err != nil {
			return err
		}
		if err := p.addTable(q, t.RightExpr); err != nil {
			return err
		}
		if t.Condition.On == nil {
			return unsupported("JOIN needs an ON condition")
		}
		return p.addConjuncts(q, t.Condition.On)

	case *sqlparser.ParenTableExpr:
		for _, inner := range t.Exprs {
			if err := p.addTable(q, inner); err != nil {
				return err
			}
		}
		return nil
	}
	return unsupported("unsupported FROM clause " + sqlparser.String(te))
}

func (p *Parser) addConjuncts(q *optimizer.Query, expr sqlparser.Expr) error {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		if err := p.addConjuncts(q, e.Left); err != nil {
			return err
		}
		return p.addConjuncts(q, e.Right)
	case *sqlparser.ParenExpr:
		return p.addConjuncts(q, e.Expr)
	case *sqlparser.ComparisonExpr:
		return addComparison(q, e)
	}
	return unsupported("unsupported condition " + sqlparser.String(expr))
}

func addComparison(q *optimizer.Query, e *sqlparser.ComparisonExpr) error {
	op, ok := primitives.ParsePredicate(e.Operator)
	if !ok {
		return unsupported("unsupported operator " + e.Operator)
	}

	lcol, lIsCol := e.Left.(*sqlparser.ColName)
	rcol, rIsCol := e.Right.(*sqlparser.ColName)

	switch {
	case lIsCol && rIsCol:
		if op != primitives.Equals {
			return unsupported("only equality joins are supported: " + sqlparser.String(e))
		}
		q.JoinConditions = append(q.JoinConditions, join.Condition{Left: attribute(lcol), Right: attribute(rcol)})
		return nil

	case lIsCol:
		lit, err := literal(e.Right)
		if err != nil {
			return err
		}
		q.Selections = append(q.Selections, execution.NewPredicate(attribute(lcol), op, lit))
		return nil

	case rIsCol:
		flipped, ok := op.Flip()
		if !ok {
			return unsupported("LIKE needs the column on the left: " + sqlparser.String(e))
		}
		lit, err := literal(e.Left)
		if err != nil {
			return err
		}
		q.Selections = append(q.Selections, execution.NewPredicate(attribute(rcol), flipped, lit))
		return nil
	}
	return unsupported("comparison needs at least one column: " + sqlparser.String(e))
}

func projection(exprs sqlparser.SelectExprs) ([]tuple.Attribute, error) {
	var attrs []tuple.Attribute
	for _, expr := range exprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			if len(exprs) > 1 || !e.TableName.IsEmpty() {
				return nil, unsupported("* must be the only select expression")
			}
			return nil, nil
		case *sqlparser.AliasedExpr:
			col, ok := e.Expr.(*sqlparser.ColName)
			if !ok {
				return nil, unsupported("only columns can be selected: " + sqlparser.String(e))
			}
			attrs = append(attrs, attribute(col))
		default:
			return nil, unsupported("unsupported select expression " + sqlparser.String(expr))
		}
	}
	return attrs, nil
}

// orderBy accepts one direction for all columns.
func orderBy(q *optimizer.Query, orders sqlparser.OrderBy) error {
	for i, o := range orders {
		col, ok := o.Expr.(*sqlparser.ColName)
		if !ok {
			return unsupported("ORDER BY accepts columns only")
		}
		desc := o.Direction == sqlparser.DescScr
		if i > 0 && desc != q.Descending {
			return unsupported("ORDER BY columns must share one direction")
		}
		q.Descending = desc
		q.OrderBy = append(q.OrderBy, attribute(col))
	}
	return nil
}

func attribute(col *sqlparser.ColName) tuple.Attribute {
	return tuple.Attribute{Table: col.Qualifier.Name.String(), Column: col.Name.String()}
}

func literal(expr sqlparser.Expr) (types.Field, error) {
	switch e := expr.(type) {
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.IntVal:
			v, err := strconv.ParseInt(string(e.Val), 10, 64)
			if err != nil {
				return nil, unsupported("bad integer literal " + string(e.Val))
			}
			return types.NewIntField(v), nil
		case sqlparser.FloatVal:
			v, err := strconv.ParseFloat(string(e.Val), 64)
			if err != nil {
				return nil, unsupported("bad float literal " + string(e.Val))
			}
			return types.NewFloatField(v), nil
		case sqlparser.StrVal:
			return types.NewStringField(string(e.Val)), nil
		}
	case *sqlparser.UnaryExpr:
		if e.Operator == sqlparser.UMinusStr {
			f, err := literal(e.Expr)
			if err != nil {
				return nil, err
			}
			switch v := f.(type) {
			case *types.IntField:
				return types.NewIntField(-v.Value), nil
			case *types.FloatField:
				return types.NewFloatField(-v.Value), nil
			}
		}
	}
	return nil, unsupported("unsupported literal " + sqlparser.String(expr))
}

func unsupported(msg string) error {
	return dberror.New(dberror.CategoryPlan, dberror.CodeUnsupportedSQL, msg)
}
