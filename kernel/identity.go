package kernel

import "reflect"

// funcPointer returns the entry point address of fn, the hosted analogue
// of "the entry-point address serves as identity" (spec.md §3). Two
// distinct closures over the same top-level function share an address, so
// create_thread's "reject if fn is already registered" check (spec.md
// §4.5) behaves the same way the original's function-pointer comparison
// does.
func funcPointer(fn EntryFunc) uintptr {
	return reflect.ValueOf(fn).Pointer()
}
