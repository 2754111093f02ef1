package schema

// Table names.
const (
	CollectionsTable = "collections"
	FieldsTable      = "fields"
	RecordsTable     = "records"
	ValuesTable      = "record_values"
)

var (
	// CollectionsColumns holds the columns of the "collections" table.
	CollectionsColumns = []*Column{
		{Name: "id", Type: TypeID},
		{Name: "name", Type: TypeString, Size: 255},
		{Name: "slug", Type: TypeString, Size: 255},
		{Name: "description", Type: TypeText, Nullable: true},
		{Name: "icon", Type: TypeString, Size: 255, Nullable: true},
		{Name: "active", Type: TypeBool},
		{Name: "is_system", Type: TypeBool},
		{Name: "settings", Type: TypeText, Nullable: true},
		{Name: "permissions", Type: TypeText, Nullable: true},
		{Name: "sort_order", Type: TypeInt},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	}
	// CollectionsTableDef holds the schema information for the "collections" table.
	CollectionsTableDef = &Table{
		Name:       CollectionsTable,
		Columns:    CollectionsColumns,
		PrimaryKey: []*Column{CollectionsColumns[0]},
		Indexes: []*Index{
			{Name: "collections_slug", Unique: true, Columns: []*Column{CollectionsColumns[2]}},
		},
	}

	// FieldsColumns holds the columns of the "fields" table.
	FieldsColumns = []*Column{
		{Name: "id", Type: TypeID},
		{Name: "collection_id", Type: TypeRef},
		{Name: "name", Type: TypeString, Size: 255},
		{Name: "label", Type: TypeString, Size: 255},
		{Name: "type", Type: TypeString, Size: 32},
		{Name: "default_value", Type: TypeText, Nullable: true},
		{Name: "required", Type: TypeBool},
		{Name: "is_unique", Type: TypeBool},
		{Name: "searchable", Type: TypeBool},
		{Name: "rules", Type: TypeText, Nullable: true},
		{Name: "options", Type: TypeText, Nullable: true},
		{Name: "ui", Type: TypeText, Nullable: true},
		{Name: "active", Type: TypeBool},
		{Name: "sort_order", Type: TypeInt},
		{Name: "related_collection_id", Type: TypeRef, Nullable: true},
		{Name: "relation_kind", Type: TypeString, Size: 32, Nullable: true},
		{Name: "foreign_key", Type: TypeString, Size: 255, Nullable: true},
		{Name: "local_key", Type: TypeString, Size: 255, Nullable: true},
		{Name: "cascade_delete", Type: TypeBool},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	}
	// FieldsTableDef holds the schema information for the "fields" table.
	FieldsTableDef = &Table{
		Name:       FieldsTable,
		Columns:    FieldsColumns,
		PrimaryKey: []*Column{FieldsColumns[0]},
		Indexes: []*Index{
			{Name: "fields_collection_name", Unique: true, Columns: []*Column{FieldsColumns[1], FieldsColumns[2]}},
		},
		ForeignKeys: []*ForeignKey{
			{
				Symbol:     "fields_collections_fields",
				Columns:    []*Column{FieldsColumns[1]},
				RefTable:   CollectionsTableDef,
				RefColumns: []*Column{CollectionsColumns[0]},
			},
		},
	}

	// RecordsColumns holds the columns of the "records" table.
	RecordsColumns = []*Column{
		{Name: "id", Type: TypeID},
		{Name: "collection_id", Type: TypeRef},
		{Name: "uuid", Type: TypeString, Size: 36},
		{Name: "status", Type: TypeText, Nullable: true},
		{Name: "created_by", Type: TypeString, Size: 255, Nullable: true},
		{Name: "updated_by", Type: TypeString, Size: 255, Nullable: true},
		{Name: "published_at", Type: TypeTime, Nullable: true},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	}
	// RecordsTableDef holds the schema information for the "records" table.
	RecordsTableDef = &Table{
		Name:       RecordsTable,
		Columns:    RecordsColumns,
		PrimaryKey: []*Column{RecordsColumns[0]},
		Indexes: []*Index{
			{Name: "records_uuid", Unique: true, Columns: []*Column{RecordsColumns[2]}},
			{Name: "records_collection_id", Columns: []*Column{RecordsColumns[1]}},
		},
		ForeignKeys: []*ForeignKey{
			{
				Symbol:     "records_collections_records",
				Columns:    []*Column{RecordsColumns[1]},
				RefTable:   CollectionsTableDef,
				RefColumns: []*Column{CollectionsColumns[0]},
			},
		},
	}

	// ValuesColumns holds the columns of the "record_values" table.
	ValuesColumns = []*Column{
		{Name: "id", Type: TypeID},
		{Name: "collection_id", Type: TypeRef},
		{Name: "record_id", Type: TypeRef},
		{Name: "field_id", Type: TypeRef},
		{Name: "value", Type: TypeText, Nullable: true},
		{Name: "type", Type: TypeString, Size: 32},
		{Name: "meta", Type: TypeText, Nullable: true},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	}
	// ValuesTableDef holds the schema information for the "record_values" table.
	ValuesTableDef = &Table{
		Name:       ValuesTable,
		Columns:    ValuesColumns,
		PrimaryKey: []*Column{ValuesColumns[0]},
		Indexes: []*Index{
			{Name: "record_values_record_field", Unique: true, Columns: []*Column{ValuesColumns[2], ValuesColumns[3]}},
			{Name: "record_values_field_id", Columns: []*Column{ValuesColumns[3]}},
			{Name: "record_values_collection_id", Columns: []*Column{ValuesColumns[1]}},
		},
		ForeignKeys: []*ForeignKey{
			{
				Symbol:     "record_values_collections_values",
				Columns:    []*Column{ValuesColumns[1]},
				RefTable:   CollectionsTableDef,
				RefColumns: []*Column{CollectionsColumns[0]},
			},
			{
				Symbol:     "record_values_records_values",
				Columns:    []*Column{ValuesColumns[2]},
				RefTable:   RecordsTableDef,
				RefColumns: []*Column{RecordsColumns[0]},
			},
			{
				Symbol:     "record_values_fields_values",
				Columns:    []*Column{ValuesColumns[3]},
				RefTable:   FieldsTableDef,
				RefColumns: []*Column{FieldsColumns[0]},
			},
		},
	}

	// Tables holds all the tables in creation order.
	Tables = []*Table{
		CollectionsTableDef,
		FieldsTableDef,
		RecordsTableDef,
		ValuesTableDef,
	}
)
