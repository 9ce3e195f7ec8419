package schema

import (
	"reflect"
	"sync"
)

// metaCache holds one Meta per model type. Reflection runs once per
// type for the lifetime of the process.
var metaCache sync.Map // reflect.Type -> *Meta

var (
	namingMu      sync.RWMutex
	defaultNaming = DefaultNamingStrategy()
)

// SetNamingStrategy replaces the process-wide naming strategy used to
// derive table and column names. It must be called before any model is
// introspected; descriptors already built keep their old names.
func SetNamingStrategy(s NamingStrategy) {
	namingMu.Lock()
	defaultNaming = s
	namingMu.Unlock()
}

func currentNaming() NamingStrategy {
	namingMu.RLock()
	defer namingMu.RUnlock()
	return defaultNaming
}

// Introspect returns the cached schema descriptor for t, building it on
// first use.
func Introspect(t reflect.Type) (*Meta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := metaCache.Load(t); ok {
		return cached.(*Meta), nil
	}

	meta, err := buildMeta(t, currentNaming())
	if err != nil {
		return nil, err
	}

	actual, _ := metaCache.LoadOrStore(t, meta)
	return actual.(*Meta), nil
}

// IntrospectValue is a convenience wrapper over Introspect for model
// instances.
func IntrospectValue(model any) (*Meta, error) {
	return Introspect(reflect.TypeOf(model))
}
