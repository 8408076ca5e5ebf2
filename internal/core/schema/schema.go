package schema

import (
	"strings"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
)

// Semantic types assigned to columns during inference.
const (
	TypeNumerical   = "numerical"
	TypeDatetime    = "datetime"
	TypeCategorical = "categorical"
	TypeUnknown     = "unknown"
)

// Roles assigned from names and semantic types.
const (
	RoleIdentifier = "identifier"
	RoleMetric     = "metric"
	RoleDimension  = "dimension"
)

// Field describes one dataset column. Built once during inference and
// immutable afterward.
type Field struct {
	TableName    string `json:"table_name"`
	FieldName    string `json:"field_name"`
	DType        string `json:"dtype"`
	SemanticType string `json:"semantic_type"`
	Role         string `json:"role"`
}

// Summary is the role-partitioned field listing consumed by every
// downstream agent. AllFields preserves the column order of the input.
type Summary struct {
	AllFields   []string `json:"all_fields"`
	Metrics     []string `json:"metrics"`
	Dimensions  []string `json:"dimensions"`
	Identifiers []string `json:"identifiers"`
}

// Infer produces one Field per column. Semantic typing follows the column
// kind (numeric checked first, then datetime, then string, else unknown).
//
// Role assignment is purely name/type based: a field named "id" or ending
// in "_id" is an identifier regardless of its type, so a numeric
// "amount_id" is an identifier too. The name check deliberately precedes
// the metric check; cardinality and content are never consulted.
func Infer(t *dataset.Table, tableName string) []Field {
	fields := make([]Field, 0, len(t.Columns))
	for _, col := range t.Columns {
		kind := t.ColumnKind(col)
		f := Field{
			TableName:    tableName,
			FieldName:    col,
			DType:        kind.String(),
			SemanticType: semanticType(kind),
		}
		name := strings.ToLower(f.FieldName)
		switch {
		case name == "id" || strings.HasSuffix(name, "_id"):
			f.Role = RoleIdentifier
		case f.SemanticType == TypeNumerical:
			f.Role = RoleMetric
		default:
			f.Role = RoleDimension
		}
		fields = append(fields, f)
	}
	return fields
}

func semanticType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindNumeric:
		return TypeNumerical
	case dataset.KindDatetime:
		return TypeDatetime
	case dataset.KindString:
		return TypeCategorical
	default:
		return TypeUnknown
	}
}

// Summarize partitions inferred fields by role.
func Summarize(fields []Field) Summary {
	s := Summary{}
	for _, f := range fields {
		s.AllFields = append(s.AllFields, f.FieldName)
		switch f.Role {
		case RoleMetric:
			s.Metrics = append(s.Metrics, f.FieldName)
		case RoleDimension:
			s.Dimensions = append(s.Dimensions, f.FieldName)
		case RoleIdentifier:
			s.Identifiers = append(s.Identifiers, f.FieldName)
		}
	}
	return s
}

// Contains reports whether a field name exists in the schema.
func (s Summary) Contains(field string) bool {
	for _, f := range s.AllFields {
		if f == field {
			return true
		}
	}
	return false
}
