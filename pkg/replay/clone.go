package replay

import (
	"reflect"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/mohae/deepcopy"
)

// Copier lets a value control how it is frozen into history.
// Types with unexported fields must implement it, otherwise those fields are zeroed in the copy.
type Copier = deepcopy.Interface

// cloneState returns an independent copy of the working state.
func cloneState(state domain.State) domain.State {
	if state == nil {
		return nil
	}
	return deepcopy.Copy(state).(domain.State)
}

func cloneArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	return deepcopy.Copy(args).([]any)
}

// isReference reports whether mutations through v stay visible to the store after Bind.
func isReference(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return true
	}
	return false
}
