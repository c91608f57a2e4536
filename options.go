package multimorph

// descriptor holds the configuration gathered for one relationship declaration.
type descriptor struct {
	name       string
	label      string
	typeColumn string
	idColumn   string
	localKey   string
	ownerKey   string
	idType     string
	registry   *Registry
}

func newDescriptor(name, label string, opts []Option) descriptor {
	d := descriptor{
		name:     name,
		label:    label,
		idType:   "bigint",
		registry: DefaultRegistry,
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry
	}
	return d
}

func (d descriptor) columns() Columns {
	return Morphs(d.name, d.typeColumn, d.idColumn)
}

// Option configures a relationship declaration.
type Option func(*descriptor)

// WithTypeColumn overrides the {name}_type column.
func WithTypeColumn(column string) Option {
	return func(d *descriptor) {
		d.typeColumn = column
	}
}

// WithIDColumn overrides the {name}_id column.
func WithIDColumn(column string) Option {
	return func(d *descriptor) {
		d.idColumn = column
	}
}

// WithLocalKey sets the owner column stored in {name}_id for forward
// relationships. Defaults to the owner's primary key. Inverse
// relationships ignore it.
func WithLocalKey(column string) Option {
	return func(d *descriptor) {
		d.localKey = column
	}
}

// WithOwnerKey sets the target column matched against {name}_id for inverse
// relationships. Defaults to the target's primary key. Forward
// relationships ignore it.
func WithOwnerKey(column string) Option {
	return func(d *descriptor) {
		d.ownerKey = column
	}
}

// WithRegistry resolves morph types through r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(d *descriptor) {
		d.registry = r
	}
}

// WithIDColumnType sets the SQL type used when EnsureColumns adds the
// {name}_id column. Defaults to bigint.
func WithIDColumnType(sqlType string) Option {
	return func(d *descriptor) {
		if sqlType != "" {
			d.idType = sqlType
		}
	}
}
