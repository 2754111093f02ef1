package schema

import (
	"fmt"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/contentkit/dialect"
)

// ColumnType is the portable type of a storage column.
type ColumnType int

// Column types.
const (
	TypeID     ColumnType = iota // auto-increment primary key
	TypeRef                      // 64-bit reference to another table
	TypeInt                      // small integer
	TypeString                   // bounded text, usable in indexes
	TypeText                     // unbounded text
	TypeBool                     // boolean
	TypeTime                     // timestamp
)

// Column describes a table column.
type Column struct {
	Name     string
	Type     ColumnType
	Size     int64 // TypeString only
	Nullable bool
}

// Index describes a table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// ForeignKey describes a reference to another table. Deletes always
// cascade.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
}

// Table describes a storage table.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// toAtlas converts the table to its atlas form for the given dialect. Tables
// referenced by foreign keys are looked up in tables.
func (t *Table) toAtlas(name string, tables map[string]*atlas.Table) (*atlas.Table, error) {
	at := atlas.NewTable(t.Name)
	cols := make(map[string]*atlas.Column, len(t.Columns))
	for _, c := range t.Columns {
		ac, err := c.toAtlas(name)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		at.AddColumns(ac)
		cols[c.Name] = ac
	}
	pk := make([]*atlas.Column, 0, len(t.PrimaryKey))
	for _, c := range t.PrimaryKey {
		pk = append(pk, cols[c.Name])
	}
	at.SetPrimaryKey(atlas.NewPrimaryKey(pk...))
	for _, idx := range t.Indexes {
		ai := atlas.NewIndex(idx.Name)
		if idx.Unique {
			ai = atlas.NewUniqueIndex(idx.Name)
		}
		for _, c := range idx.Columns {
			ai.AddColumns(cols[c.Name])
		}
		at.AddIndexes(ai)
	}
	for _, fk := range t.ForeignKeys {
		ref, ok := tables[fk.RefTable.Name]
		if !ok {
			return nil, fmt.Errorf("table %q: foreign key %q references unknown table %q", t.Name, fk.Symbol, fk.RefTable.Name)
		}
		afk := atlas.NewForeignKey(fk.Symbol).SetRefTable(ref).SetOnDelete(atlas.Cascade)
		for _, c := range fk.Columns {
			afk.AddColumns(cols[c.Name])
		}
		for _, c := range fk.RefColumns {
			rc, ok := ref.Column(c.Name)
			if !ok {
				return nil, fmt.Errorf("table %q: foreign key %q references unknown column %q", t.Name, fk.Symbol, c.Name)
			}
			afk.AddRefColumns(rc)
		}
		at.AddForeignKeys(afk)
	}
	return at, nil
}

func (c *Column) toAtlas(name string) (*atlas.Column, error) {
	ac := atlas.NewColumn(c.Name).SetNull(c.Nullable)
	switch name {
	case dialect.SQLite:
		switch c.Type {
		case TypeID:
			ac.SetType(&atlas.IntegerType{T: "integer"}).AddAttrs(&sqlite.AutoIncrement{})
		case TypeRef, TypeInt:
			ac.SetType(&atlas.IntegerType{T: "integer"})
		case TypeString, TypeText:
			ac.SetType(&atlas.StringType{T: "text"})
		case TypeBool:
			ac.SetType(&atlas.BoolType{T: "bool"})
		case TypeTime:
			ac.SetType(&atlas.TimeType{T: "datetime"})
		}
	case dialect.Postgres:
		switch c.Type {
		case TypeID:
			ac.SetType(&postgres.SerialType{T: "bigserial"})
		case TypeRef:
			ac.SetType(&atlas.IntegerType{T: "bigint"})
		case TypeInt:
			ac.SetType(&atlas.IntegerType{T: "integer"})
		case TypeString:
			ac.SetType(&atlas.StringType{T: "character varying", Size: int(c.Size)})
		case TypeText:
			ac.SetType(&atlas.StringType{T: "text"})
		case TypeBool:
			ac.SetType(&atlas.BoolType{T: "boolean"})
		case TypeTime:
			ac.SetType(&atlas.TimeType{T: "timestamp with time zone"})
		}
	case dialect.MySQL:
		switch c.Type {
		case TypeID:
			ac.SetType(&atlas.IntegerType{T: "bigint"}).AddAttrs(&mysql.AutoIncrement{})
		case TypeRef:
			ac.SetType(&atlas.IntegerType{T: "bigint"})
		case TypeInt:
			ac.SetType(&atlas.IntegerType{T: "int"})
		case TypeString:
			ac.SetType(&atlas.StringType{T: "varchar", Size: int(c.Size)})
		case TypeText:
			ac.SetType(&atlas.StringType{T: "longtext"})
		case TypeBool:
			ac.SetType(&atlas.BoolType{T: "bool"})
		case TypeTime:
			ac.SetType(&atlas.TimeType{T: "datetime"})
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", name)
	}
	if ac.Type.Type == nil {
		return nil, fmt.Errorf("column %q: unknown column type %d", c.Name, c.Type)
	}
	return ac, nil
}

// ToAtlas converts tables into an atlas schema named schemaName for the
// dialect.
func ToAtlas(name, schemaName string, tables []*Table) (*atlas.Schema, error) {
	s := atlas.New(schemaName)
	converted := make(map[string]*atlas.Table, len(tables))
	for _, t := range tables {
		at, err := t.toAtlas(name, converted)
		if err != nil {
			return nil, err
		}
		converted[t.Name] = at
		s.AddTables(at)
	}
	return s, nil
}
