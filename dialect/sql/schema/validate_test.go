package schema

import (
	"testing"

	"github.com/australsoft/folio/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTable(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		result := ValidateTable(vendorsTable)
		assert.False(t, result.HasErrors())
		assert.False(t, result.HasWarnings())
		assert.Equal(t, "No issues found", result.String())
	})

	t.Run("no_primary_key", func(t *testing.T) {
		tbl := &Table{
			Name:    "orphan",
			Columns: []*Column{{Name: "id", Type: field.TypeInt64}},
		}
		result := ValidateTable(tbl)
		assert.False(t, result.HasErrors())
		require.True(t, result.HasWarnings())
		assert.Contains(t, result.Warnings[0].Message, "no primary key")
	})

	t.Run("duplicate_column", func(t *testing.T) {
		tbl := &Table{
			Name: "dup",
			Columns: []*Column{
				{Name: "code", Type: field.TypeString},
				{Name: "code", Type: field.TypeString},
			},
		}
		result := ValidateTable(tbl)
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "duplicate column name")
	})

	t.Run("untyped_column", func(t *testing.T) {
		tbl := &Table{
			Name:    "untyped",
			Columns: []*Column{{Name: "mystery"}},
		}
		result := ValidateTable(tbl)
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "no type")
	})

	t.Run("schema_type_override_is_enough", func(t *testing.T) {
		tbl := &Table{
			Name: "prices",
			Columns: []*Column{
				{Name: "amount", SchemaType: map[string]string{"postgres": "numeric(18,4)"}},
			},
		}
		result := ValidateTable(tbl)
		assert.False(t, result.HasErrors())
	})

	t.Run("index_unknown_column", func(t *testing.T) {
		tbl := &Table{
			Name:    "idx",
			Columns: []*Column{{Name: "id", Type: field.TypeInt64}},
			Indexes: []*Index{
				{Name: "idx_ghost", Columns: []*Column{{Name: "ghost"}}},
			},
		}
		result := ValidateTable(tbl)
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "non-existent column")
	})

	t.Run("empty_index", func(t *testing.T) {
		tbl := &Table{
			Name:    "idx",
			Columns: []*Column{{Name: "id", Type: field.TypeInt64}},
			Indexes: []*Index{{Name: "idx_empty"}},
		}
		result := ValidateTable(tbl)
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "has no columns")
	})

	t.Run("fk_column_count_mismatch", func(t *testing.T) {
		id := &Column{Name: "id", Type: field.TypeInt64}
		other := &Column{Name: "other_id", Type: field.TypeInt64}
		tbl := &Table{
			Name:    "links",
			Columns: []*Column{id, other},
			ForeignKeys: []*ForeignKey{
				{Symbol: "links_pair", Columns: []*Column{id, other}, RefColumns: []*Column{id}},
			},
		}
		result := ValidateTable(tbl)
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "mismatched column count")
	})
}

func TestValidateSchema(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		result := ValidateSchema(testTables)
		assert.False(t, result.HasErrors())
	})

	t.Run("duplicate_table", func(t *testing.T) {
		result := ValidateSchema([]*Table{vendorsTable, vendorsTable})
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "duplicate table name")
	})

	t.Run("fk_to_unknown_table", func(t *testing.T) {
		// vendor_notes references vendors, which is not part of the set.
		result := ValidateSchema([]*Table{vendorNotesTable})
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, `non-existent table "vendors"`)
	})

	t.Run("fk_without_ref_table", func(t *testing.T) {
		id := &Column{Name: "id", Type: field.TypeInt64}
		tbl := &Table{
			Name:        "dangling",
			Columns:     []*Column{id},
			PrimaryKey:  []*Column{id},
			ForeignKeys: []*ForeignKey{{Symbol: "dangling_fk", Columns: []*Column{id}, RefColumns: []*Column{id}}},
		}
		result := ValidateSchema([]*Table{tbl})
		require.True(t, result.HasErrors())
		assert.Contains(t, result.Errors[0].Message, "no referenced table")
	})
}

func TestValidationErrorFormat(t *testing.T) {
	err := &ValidationError{Table: "vendors", Column: "rut", Message: "boom"}
	assert.Equal(t, "vendors.rut: boom", err.Error())
	err = &ValidationError{Table: "vendors", Message: "boom"}
	assert.Equal(t, "vendors: boom", err.Error())
}
