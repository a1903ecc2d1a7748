package sqlschema

import (
	"fmt"

	"ariga.io/atlas/sql/schema"

	"github.com/mschmiderer/mogenerator/dialect"
	"github.com/mschmiderer/mogenerator/schema/field"
)

// typeMap returns the column types of a dialect.
func typeMap(name string) (map[field.Type]schema.Type, schema.Type, error) {
	switch name {
	case dialect.SQLite:
		return map[field.Type]schema.Type{
			field.TypeUndefined:     &schema.BinaryType{T: "blob"},
			field.TypeInteger16:     &schema.IntegerType{T: "integer"},
			field.TypeInteger32:     &schema.IntegerType{T: "integer"},
			field.TypeInteger64:     &schema.IntegerType{T: "integer"},
			field.TypeDecimal:       &schema.DecimalType{T: "decimal"},
			field.TypeDouble:        &schema.FloatType{T: "real"},
			field.TypeFloat:         &schema.FloatType{T: "real"},
			field.TypeString:        &schema.StringType{T: "text"},
			field.TypeBoolean:       &schema.BoolType{T: "bool"},
			field.TypeDate:          &schema.TimeType{T: "datetime"},
			field.TypeBinaryData:    &schema.BinaryType{T: "blob"},
			field.TypeTransformable: &schema.BinaryType{T: "blob"},
			field.TypeObjectID:      &schema.StringType{T: "text"},
		}, &schema.IntegerType{T: "integer"}, nil
	case dialect.Postgres:
		return map[field.Type]schema.Type{
			field.TypeUndefined:     &schema.BinaryType{T: "bytea"},
			field.TypeInteger16:     &schema.IntegerType{T: "smallint"},
			field.TypeInteger32:     &schema.IntegerType{T: "integer"},
			field.TypeInteger64:     &schema.IntegerType{T: "bigint"},
			field.TypeDecimal:       &schema.DecimalType{T: "numeric"},
			field.TypeDouble:        &schema.FloatType{T: "double precision"},
			field.TypeFloat:         &schema.FloatType{T: "real"},
			field.TypeString:        &schema.StringType{T: "text"},
			field.TypeBoolean:       &schema.BoolType{T: "boolean"},
			field.TypeDate:          &schema.TimeType{T: "timestamp with time zone"},
			field.TypeBinaryData:    &schema.BinaryType{T: "bytea"},
			field.TypeTransformable: &schema.BinaryType{T: "bytea"},
			field.TypeObjectID:      &schema.StringType{T: "text"},
		}, &schema.IntegerType{T: "bigint"}, nil
	case dialect.MySQL:
		return map[field.Type]schema.Type{
			field.TypeUndefined:     &schema.BinaryType{T: "longblob"},
			field.TypeInteger16:     &schema.IntegerType{T: "smallint"},
			field.TypeInteger32:     &schema.IntegerType{T: "int"},
			field.TypeInteger64:     &schema.IntegerType{T: "bigint"},
			field.TypeDecimal:       &schema.DecimalType{T: "decimal", Precision: 65, Scale: 30},
			field.TypeDouble:        &schema.FloatType{T: "double"},
			field.TypeFloat:         &schema.FloatType{T: "float"},
			field.TypeString:        &schema.StringType{T: "varchar", Size: 255},
			field.TypeBoolean:       &schema.BoolType{T: "bool"},
			field.TypeDate:          &schema.TimeType{T: "datetime"},
			field.TypeBinaryData:    &schema.BinaryType{T: "longblob"},
			field.TypeTransformable: &schema.BinaryType{T: "longblob"},
			field.TypeObjectID:      &schema.StringType{T: "varchar", Size: 255},
		}, &schema.IntegerType{T: "bigint"}, nil
	default:
		return nil, nil, fmt.Errorf("sqlschema: unsupported dialect %q", name)
	}
}
