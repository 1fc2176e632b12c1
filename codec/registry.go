package codec

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry maps discriminator names to Go types. It is consulted only when a
// document is decoded into an unconstrained (interface) target.
//
// A Registry is safe for concurrent use. Registration is expected to happen
// during startup, before the codec serves traffic.
type Registry struct {
	byName *xsync.MapOf[string, reflect.Type]
	byType *xsync.MapOf[reflect.Type, string]
}

// NewRegistry creates a registry with the Null Sentinel pre-registered.
func NewRegistry() *Registry {
	r := &Registry{
		byName: xsync.NewMapOf[string, reflect.Type](),
		byType: xsync.NewMapOf[reflect.Type, string](),
	}
	r.mustRegister(TypeName(nullValueType), NullValue{})
	return r
}

// Register records each sample's type under its canonical name.
// It panics on conflicting registrations, which are programming errors.
func (r *Registry) Register(samples ...any) {
	for _, s := range samples {
		t := reflect.TypeOf(s)
		if t == nil {
			panic("codec: cannot register nil sample")
		}
		r.mustRegister(TypeName(baseType(t)), s)
	}
}

// RegisterName records sample's type under an explicit name. The name is used
// as the discriminator when encoding values of that type.
//
// A pointer sample makes decoding into an interface target return a pointer.
func (r *Registry) RegisterName(name string, sample any) error {
	t := reflect.TypeOf(sample)
	if t == nil {
		return fmt.Errorf("codec: cannot register nil sample as %q", name)
	}
	if name == "" {
		return fmt.Errorf("codec: empty type name for %s", t)
	}
	if existing, loaded := r.byName.LoadOrStore(name, t); loaded && baseType(existing) != baseType(t) {
		return fmt.Errorf("%w: %q is %s, not %s", ErrDuplicateType, name, existing, t)
	}
	r.byName.Store(name, t)
	r.byType.Store(baseType(t), name)
	return nil
}

func (r *Registry) mustRegister(name string, sample any) {
	if err := r.RegisterName(name, sample); err != nil {
		panic(err)
	}
}

// Resolve returns the type registered under name.
func (r *Registry) Resolve(name string) (reflect.Type, bool) {
	return r.byName.Load(name)
}

// NameOf returns the discriminator written for values of type t: the
// registered name if any, the canonical name otherwise.
func (r *Registry) NameOf(t reflect.Type) string {
	t = baseType(t)
	if name, ok := r.byType.Load(t); ok {
		return name
	}
	return TypeName(t)
}

// Names lists every registered name.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.byName.Size())
	r.byName.Range(func(name string, _ reflect.Type) bool {
		names = append(names, name)
		return true
	})
	return names
}

// TypeName returns the canonical name of t: its import path and type name
// joined by a dot, or the reflect string for unnamed types.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
