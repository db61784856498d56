package meta

// TypesEqual compares two types structurally
func TypesEqual(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypePointer, TypeIncompleteArray:
		return TypesEqual(*a.Inner, *b.Inner)
	case TypeConstantArray:
		return a.Size == b.Size && TypesEqual(*a.Inner, *b.Inner)
	case TypeBlock, TypeFunctionPointer:
		return SignaturesEqual(a.Signature, b.Signature)
	case TypeStruct, TypeUnion:
		return a.Name == b.Name
	case TypeInterface:
		return a.Name == b.Name && namesEqual(a.Protocols, b.Protocols)
	case TypeClass, TypeID:
		return namesEqual(a.Protocols, b.Protocols)
	case TypeAnonymousStruct, TypeAnonymousUnion:
		return fieldsEqual(a.Fields, b.Fields)
	default:
		return true
	}
}

// SignaturesEqual compares two ordered type lists element by element
func SignaturesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func fieldsEqual(a, b []RecordField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !TypesEqual(a[i].Encoding, b[i].Encoding) {
			return false
		}
	}
	return true
}

func namesEqual(a, b []FQName) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MethodsEqual reports whether two methods have the same selector and the
// same full ordered signature.
func MethodsEqual(a, b *MethodMeta) bool {
	return a.Selector == b.Selector && SignaturesEqual(a.Signature, b.Signature)
}

// PropertiesEqual reports whether two properties share a name, the same
// accessor presence and matching accessor signatures. The getter is compared
// when present, otherwise the setter.
func PropertiesEqual(a, b *PropertyMeta) bool {
	if a.Name != b.Name {
		return false
	}
	if a.HasGetter() != b.HasGetter() || a.HasSetter() != b.HasSetter() {
		return false
	}
	switch {
	case a.HasGetter():
		return MethodsEqual(a.Getter, b.Getter)
	case a.HasSetter():
		return MethodsEqual(a.Setter, b.Setter)
	default:
		return true
	}
}
