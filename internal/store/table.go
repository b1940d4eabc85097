package store

type slot[T any] struct {
	value T
	used  bool
}

// Table is a slot table whose row ids are slot indexes.
//
// Removing a row frees its id for reuse by a later insert. Table is not safe
// for concurrent use; [MemoryStore] serializes access to its tables. The zero
// value is an empty table ready for use.
type Table[T any] struct {
	slots []slot[T]
	free  []int
	count int
}

// Insert stores the row built by build, which receives the row's id.
func (t *Table[T]) Insert(build func(id int) T) T {
	var id int
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = len(t.slots)
		t.slots = append(t.slots, slot[T]{})
	}

	v := build(id)
	t.slots[id] = slot[T]{value: v, used: true}
	t.count++
	return v
}

// Get returns the row with the given id.
func (t *Table[T]) Get(id int) (T, bool) {
	if !t.has(id) {
		var zero T
		return zero, false
	}
	return t.slots[id].value, true
}

// Update applies fn to the row with the given id and returns the result.
func (t *Table[T]) Update(id int, fn func(*T)) (T, bool) {
	if !t.has(id) {
		var zero T
		return zero, false
	}
	fn(&t.slots[id].value)
	return t.slots[id].value, true
}

// Remove deletes the row with the given id and returns it.
func (t *Table[T]) Remove(id int) (T, bool) {
	if !t.has(id) {
		var zero T
		return zero, false
	}
	v := t.slots[id].value
	t.slots[id] = slot[T]{}
	t.free = append(t.free, id)
	t.count--
	return v, true
}

// All returns every row ordered by id.
func (t *Table[T]) All() []T {
	rows := make([]T, 0, t.count)
	for _, s := range t.slots {
		if s.used {
			rows = append(rows, s.value)
		}
	}
	return rows
}

// Len returns the number of stored rows.
func (t *Table[T]) Len() int {
	return t.count
}

func (t *Table[T]) has(id int) bool {
	return id >= 0 && id < len(t.slots) && t.slots[id].used
}
