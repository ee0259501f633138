// Package slot provides an arena of values addressed by small integer
// handles that are reused after their value is removed.
package slot

import "golang.org/x/exp/slices"

// Arena stores values in numbered slots. Insert always fills the
// lowest free slot before growing, so handles stay small and stable.
// The zero value is an empty arena ready to use.
type Arena[T any] struct {
	items []T
	used  []bool
	free  []int // sorted ascending
}

// Reserve claims the lowest free slot without storing anything in it
// yet. Get reports the slot as empty until Set is called.
func (a *Arena[T]) Reserve() int {
	if len(a.free) > 0 {
		i := a.free[0]
		a.free = a.free[1:]
		return i
	}

	var zero T
	a.items = append(a.items, zero)
	a.used = append(a.used, false)
	return len(a.items) - 1
}

// Set stores v in slot i, which must have come from Reserve.
func (a *Arena[T]) Set(i int, v T) {
	a.items[i] = v
	a.used[i] = true
}

// Release gives a reserved or used slot back to the arena.
func (a *Arena[T]) Release(i int) {
	if (i < 0) || (i >= len(a.items)) {
		return
	}
	if slices.Contains(a.free, i) {
		return
	}

	var zero T
	a.items[i] = zero
	a.used[i] = false

	at, _ := slices.BinarySearch(a.free, i)
	a.free = slices.Insert(a.free, at, i)
}

// Insert stores v in the lowest free slot and returns its handle.
func (a *Arena[T]) Insert(v T) int {
	i := a.Reserve()
	a.Set(i, v)
	return i
}

// Remove removes and returns the value in slot i.
func (a *Arena[T]) Remove(i int) (v T, ok bool) {
	v, ok = a.Get(i)
	if ok {
		a.Release(i)
	}
	return v, ok
}

// Get returns the value in slot i, if there is one.
func (a *Arena[T]) Get(i int) (v T, ok bool) {
	if (i < 0) || (i >= len(a.items)) || !a.used[i] {
		return v, false
	}
	return a.items[i], true
}

// Handles returns the handles of every used slot in ascending order.
func (a *Arena[T]) Handles() []int {
	handles := make([]int, 0, len(a.items))
	for i, used := range a.used {
		if used {
			handles = append(handles, i)
		}
	}
	return handles
}

// Len returns the number of used slots.
func (a *Arena[T]) Len() int {
	var n int
	for _, used := range a.used {
		if used {
			n++
		}
	}
	return n
}
