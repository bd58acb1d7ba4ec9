package shape

// Default describes the value a field takes when it is not supplied.
type Default interface {
	isDefault()
}

// NoDefault marks a field without a default.
type NoDefault struct{}

// DefaultValue is a constant default.
type DefaultValue struct {
	Value any
}

// DefaultFactory produces a fresh default on every use.
type DefaultFactory struct {
	Factory func() any
}

// DefaultFactoryWithSelf produces a default from the partially built instance.
type DefaultFactoryWithSelf struct {
	Factory func(self any) any
}

func (NoDefault) isDefault()              {}
func (DefaultValue) isDefault()           {}
func (DefaultFactory) isDefault()         {}
func (DefaultFactoryWithSelf) isDefault() {}

// HasDefault reports whether d supplies a value.
func HasDefault(d Default) bool {
	switch d.(type) {
	case nil, NoDefault:
		return false
	default:
		return true
	}
}

// Materialize returns the value of d. The boolean is false for NoDefault.
func Materialize(d Default, self any) (any, bool) {
	switch d := d.(type) {
	case DefaultValue:
		return d.Value, true
	case DefaultFactory:
		return d.Factory(), true
	case DefaultFactoryWithSelf:
		return d.Factory(self), true
	default:
		return nil, false
	}
}
