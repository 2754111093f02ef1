package schema

import (
	"fmt"
	"strings"

	atlas "ariga.io/atlas/sql/schema"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateChanges reports the differences between the database and the
// expected layout that Create does not apply. Create only adds missing
// tables; everything else is returned as a warning for the operator.
// Dropping or rewriting existing columns is flagged as breaking.
func ValidateChanges(changes []atlas.Change) *ValidationResult {
	result := &ValidationResult{}
	for _, c := range changes {
		switch c := c.(type) {
		case *atlas.AddTable:
			// Applied by Create.
		case *atlas.DropTable:
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    c.T.Name,
				Message:  "table is not part of the storage layout",
				Breaking: true,
			})
		case *atlas.ModifyTable:
			for _, mc := range c.Changes {
				result.Warnings = append(result.Warnings, tableChange(c.T.Name, mc))
			}
		default:
			result.Warnings = append(result.Warnings, &ValidationError{
				Message: fmt.Sprintf("unexpected schema change %T", c),
			})
		}
	}
	return result
}

func tableChange(table string, c atlas.Change) *ValidationError {
	switch c := c.(type) {
	case *atlas.AddColumn:
		return &ValidationError{Table: table, Column: c.C.Name, Message: "column is missing"}
	case *atlas.DropColumn:
		return &ValidationError{Table: table, Column: c.C.Name, Message: "column is not part of the storage layout", Breaking: true}
	case *atlas.ModifyColumn:
		return &ValidationError{Table: table, Column: c.To.Name, Message: "column definition differs", Breaking: true}
	case *atlas.AddIndex:
		return &ValidationError{Table: table, Message: fmt.Sprintf("index %q is missing", c.I.Name)}
	case *atlas.DropIndex:
		return &ValidationError{Table: table, Message: fmt.Sprintf("index %q is not part of the storage layout", c.I.Name)}
	case *atlas.AddForeignKey:
		return &ValidationError{Table: table, Message: fmt.Sprintf("foreign key %q is missing", c.F.Symbol)}
	default:
		return &ValidationError{Table: table, Message: fmt.Sprintf("table differs (%T)", c)}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}

	// Check for primary key
	if len(t.PrimaryKey) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}

	// Check for duplicate column names
	colNames := make(map[string]bool)
	for _, c := range t.Columns {
		if colNames[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		colNames[c.Name] = true
	}

	// Check for duplicate index names
	idxNames := make(map[string]bool)
	for _, idx := range t.Indexes {
		if idxNames[idx.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("duplicate index name: %s", idx.Name),
			})
		}
		idxNames[idx.Name] = true

		// Check that index columns exist
		for _, col := range idx.Columns {
			if col == nil || !colNames[col.Name] {
				name := "<nil>"
				if col != nil {
					name = col.Name
				}
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("index %q references non-existent column %q", idx.Name, name),
				})
			}
		}
	}

	// Check foreign keys
	for _, fk := range t.ForeignKeys {
		// Check that FK columns exist
		for _, col := range fk.Columns {
			if !colNames[col.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent column %q", col.Name),
				})
			}
		}
	}

	return result
}

// ValidateSchema validates all tables in a schema.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}

	tableNames := make(map[string]bool)
	for _, t := range tables {
		// Check for duplicate table names
		if tableNames[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		tableNames[t.Name] = true

		// Validate individual table
		tableResult := ValidateTable(t)
		result.Errors = append(result.Errors, tableResult.Errors...)
		result.Warnings = append(result.Warnings, tableResult.Warnings...)
	}

	// Validate foreign key references
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if !tableNames[fk.RefTable.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", fk.RefTable.Name),
				})
			}
		}
	}

	return result
}
