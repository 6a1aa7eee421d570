package domain

// Record is implemented by every migrated entity type.
type Record interface {
	IDGet() any
}

// Base carries the identity and labels shared by all records. It is never
// modified after NewBase returns.
type Base struct {
	id          any
	name        *string
	description *string
}

func NewBase(id any, name, description *string) Base {
	return Base{
		id:          id,
		name:        cloneString(name),
		description: cloneString(description),
	}
}

// IDGet returns the identifier the source system uses for the record.
func (b Base) IDGet() any {
	return b.id
}

func (b Base) Name() *string {
	return cloneString(b.name)
}

func (b Base) Description() *string {
	return cloneString(b.description)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
