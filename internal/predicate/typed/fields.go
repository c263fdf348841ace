package typed

import (
	"reflect"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// member is a struct field resolved to its protocol name.
type member struct {
	name string
	typ  reflect.Type
}

var bytesType = reflect.TypeFor[[]byte]()

// structOf dereferences pointers and requires a struct.
func structOf(t reflect.Type) (reflect.Type, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, odataerr.Unsupported(t.String(), "%s is not a struct type", t)
	}
	return t, nil
}

// lookupMember finds the field of t addressed by name.
func lookupMember(t reflect.Type, name string) (member, error) {
	st, err := structOf(t)
	if err != nil {
		return member{}, err
	}
	if m, ok := findField(st, name); ok {
		return m, nil
	}
	return member{}, odataerr.UnknownProperty(st.Name(), name)
}

func findField(st reflect.Type, name string) (member, bool) {
	var embedded []reflect.StructField
	var byGoName *member
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if f.Anonymous {
			embedded = append(embedded, f)
			continue
		}
		if !f.IsExported() {
			continue
		}
		protocolName := fieldName(f)
		if protocolName == "" {
			continue
		}
		if protocolName == name {
			return member{name: protocolName, typ: f.Type}, true
		}
		if f.Name == name && byGoName == nil {
			byGoName = &member{name: protocolName, typ: f.Type}
		}
	}
	if byGoName != nil {
		return *byGoName, true
	}
	for _, f := range embedded {
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		if m, ok := findField(ft, name); ok {
			return m, true
		}
	}
	return member{}, false
}

// fieldName returns the protocol name of f, or "" for a field excluded
// with `json:"-"`.
func fieldName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("odata"); ok && tag != "" {
		return tag
	}
	if tag, ok := f.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		switch name {
		case "-":
			return ""
		case "":
		default:
			return name
		}
	}
	return f.Name
}

// assignable reports whether a field of type field holds values of type
// want, directly or through a pointer.
func assignable(field, want reflect.Type) bool {
	if field == want {
		return true
	}
	return field.Kind() == reflect.Pointer && field.Elem() == want
}

// elementOf returns the element type of a slice field, dereferencing
// pointer elements. []byte is a binary value, not a collection.
func elementOf(field reflect.Type) (reflect.Type, bool) {
	if field.Kind() == reflect.Pointer {
		field = field.Elem()
	}
	if field.Kind() != reflect.Slice || field == bytesType {
		return nil, false
	}
	elem := field.Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	return elem, true
}

// typedMember resolves name on owner and checks its type against want.
func typedMember(owner reflect.Type, name string, want reflect.Type) (member, error) {
	m, err := lookupMember(owner, name)
	if err != nil {
		return member{}, err
	}
	if !assignable(m.typ, want) {
		return member{}, odataerr.Unsupported(name,
			"property %s of %s has type %s, not %s", name, owner, m.typ, want)
	}
	return m, nil
}

// collectionMember resolves name on owner and checks it is a slice of
// elem.
func collectionMember(owner reflect.Type, name string, elem reflect.Type) (member, error) {
	m, err := lookupMember(owner, name)
	if err != nil {
		return member{}, err
	}
	got, ok := elementOf(m.typ)
	if !ok {
		return member{}, odataerr.Unsupported(name,
			"property %s of %s has type %s, not a collection", name, owner, m.typ)
	}
	if got != elem {
		return member{}, odataerr.Unsupported(name,
			"collection %s of %s holds %s, not %s", name, owner, got, elem)
	}
	return m, nil
}
