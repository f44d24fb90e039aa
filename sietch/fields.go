package sietch

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// entityMeta maps the `db` tags of a struct type to its fields.
// The first tagged field is the primary key.
type entityMeta struct {
	typ     reflect.Type
	columns []string
	byTag   map[string]int
	byName  map[string]int
}

var metaCache sync.Map // reflect.Type -> *entityMeta

func getEntityMeta[T any]() (*entityMeta, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return nil, fmt.Errorf("entity type must be a struct")
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if cached, ok := metaCache.Load(typ); ok {
		return cached.(*entityMeta), nil
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type must be a struct, got %s", typ.Kind())
	}

	meta := &entityMeta{
		typ:    typ,
		byTag:  make(map[string]int),
		byName: make(map[string]int),
	}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		meta.byName[strings.ToLower(field.Name)] = i
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.columns = append(meta.columns, tag)
		meta.byTag[tag] = i
	}
	if len(meta.columns) == 0 {
		return nil, fmt.Errorf("no columns found")
	}

	metaCache.Store(typ, meta)
	return meta, nil
}

// getColumns returns the `db` tagged column names of T in declaration order
func getColumns[T any]() ([]string, error) {
	meta, err := getEntityMeta[T]()
	if err != nil {
		return nil, err
	}
	return meta.columns, nil
}

func (m *entityMeta) idColumn() string {
	return m.columns[0]
}

// fieldIndex resolves a column name; untagged fields are found by their Go name
func (m *entityMeta) fieldIndex(column string) (int, bool) {
	if i, ok := m.byTag[column]; ok {
		return i, true
	}
	i, ok := m.byName[strings.ToLower(strings.ReplaceAll(column, "_", ""))]
	return i, ok
}

func (m *entityMeta) hasColumn(column string) bool {
	_, ok := m.byTag[column]
	return ok
}

func structValue(item any) reflect.Value {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}

// getValues returns the column values of item in column order
func (m *entityMeta) getValues(item any) []any {
	v := structValue(item)
	values := make([]any, len(m.columns))
	for i, col := range m.columns {
		values[i] = v.Field(m.byTag[col]).Interface()
	}
	return values
}

// getScanDestinations returns pointers to the tagged fields of ptr in column order
func (m *entityMeta) getScanDestinations(ptr any) []any {
	v := structValue(ptr)
	dests := make([]any, len(m.columns))
	for i, col := range m.columns {
		dests[i] = v.Field(m.byTag[col]).Addr().Interface()
	}
	return dests
}

// fieldValue returns the dereferenced value of column; nil pointers yield nil
func (m *entityMeta) fieldValue(item any, column string) (any, error) {
	i, ok := m.fieldIndex(column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, column)
	}
	f := structValue(item).Field(i)
	for f.Kind() == reflect.Ptr {
		if f.IsNil() {
			return nil, nil
		}
		f = f.Elem()
	}
	return f.Interface(), nil
}

// setField assigns value to column, allocating pointer fields and converting
// between numeric kinds. A nil value clears pointer fields.
func (m *entityMeta) setField(item any, column string, value any) error {
	i, ok := m.fieldIndex(column)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, column)
	}
	f := structValue(item).Field(i)

	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}

	src := reflect.ValueOf(value)
	for src.Kind() == reflect.Ptr {
		if src.IsNil() {
			f.Set(reflect.Zero(f.Type()))
			return nil
		}
		src = src.Elem()
	}

	target := f.Type()
	if target.Kind() == reflect.Ptr {
		elem := target.Elem()
		if !src.Type().ConvertibleTo(elem) {
			return fmt.Errorf("cannot assign %s to %s", src.Type(), target)
		}
		p := reflect.New(elem)
		p.Elem().Set(src.Convert(elem))
		f.Set(p)
		return nil
	}
	if !src.Type().ConvertibleTo(target) {
		return fmt.Errorf("cannot assign %s to %s", src.Type(), target)
	}
	f.Set(src.Convert(target))
	return nil
}

// addInt adds delta to an integer column. NULL stays NULL, as in SQL.
func (m *entityMeta) addInt(item any, column string, delta int) error {
	i, ok := m.fieldIndex(column)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, column)
	}
	f := structValue(item).Field(i)
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			return nil
		}
		// never write through a pointer that copies of item may share
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(f.Elem())
		f.Set(p)
		f = p.Elem()
	}
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f.SetInt(f.Int() + int64(delta))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f.SetUint(uint64(int64(f.Uint()) + int64(delta)))
	default:
		return fmt.Errorf("column %s is not an integer (%s)", column, f.Kind())
	}
	return nil
}
