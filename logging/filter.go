package logging

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// ComponentKey is the attribute key that names the source of a record.
const ComponentKey = "component"

// Component returns the attribute that names a component.
func Component(name string) slog.Attr {
	return slog.String(ComponentKey, name)
}

// Source returns the component attribute for type T, named after the type,
// such as "timer.Timer".
func Source[T any]() slog.Attr {
	return Component(TypeName[T]())
}

// TypeName returns the name used for type T in the component attribute.
func TypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.String()
}

// A Filter holds the components whose records are dropped. It is safe for
// concurrent use.
type Filter struct {
	lock  sync.RWMutex
	muted map[string]bool
}

// NewFilter creates a Filter that mutes nothing.
func NewFilter() *Filter {
	return &Filter{muted: make(map[string]bool)}
}

// Mute drops the records of the named component.
func (f *Filter) Mute(component string) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.muted[component] = true
}

// Unmute lets the records of the named component through again.
func (f *Filter) Unmute(component string) {
	f.lock.Lock()
	defer f.lock.Unlock()

	delete(f.muted, component)
}

// MuteType drops the records of the component named after type T.
func MuteType[T any](f *Filter) {
	f.Mute(TypeName[T]())
}

// UnmuteType lets the records of the component named after type T through.
func UnmuteType[T any](f *Filter) {
	f.Unmute(TypeName[T]())
}

// IsMuted returns true if the records of the named component are dropped.
func (f *Filter) IsMuted(component string) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()

	return f.muted[component]
}

// Muted returns the muted components, sorted.
func (f *Filter) Muted() []string {
	f.lock.RLock()
	defer f.lock.RUnlock()

	names := make([]string, 0, len(f.muted))
	for name := range f.muted {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Clear unmutes every component.
func (f *Filter) Clear() {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.muted = make(map[string]bool)
}
