package store

import "testing"

func TestTable_InsertAssignsSequentialIDs(t *testing.T) {
	var tbl Table[string]

	for want := 0; want < 3; want++ {
		got := tbl.Insert(func(id int) string { return string(rune('a' + id)) })
		if got != string(rune('a'+want)) {
			t.Errorf("Insert() = %q, want %q", got, string(rune('a'+want)))
		}
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
}

func TestTable_RemoveRecyclesIDs(t *testing.T) {
	var tbl Table[int]
	for i := 0; i < 4; i++ {
		tbl.Insert(func(id int) int { return id })
	}

	if _, ok := tbl.Remove(1); !ok {
		t.Fatal("Remove(1) = false, want true")
	}
	if _, ok := tbl.Remove(2); !ok {
		t.Fatal("Remove(2) = false, want true")
	}
	if _, ok := tbl.Remove(2); ok {
		t.Error("second Remove(2) = true, want false")
	}

	// most recently freed first
	if got := tbl.Insert(func(id int) int { return id }); got != 2 {
		t.Errorf("Insert() id = %d, want 2", got)
	}
	if got := tbl.Insert(func(id int) int { return id }); got != 1 {
		t.Errorf("Insert() id = %d, want 1", got)
	}
	if got := tbl.Insert(func(id int) int { return id }); got != 4 {
		t.Errorf("Insert() id = %d, want 4", got)
	}
}

func TestTable_GetUpdateOutOfRange(t *testing.T) {
	var tbl Table[int]
	tbl.Insert(func(id int) int { return 10 })

	for _, id := range []int{-1, 1, 100} {
		if _, ok := tbl.Get(id); ok {
			t.Errorf("Get(%d) ok = true, want false", id)
		}
		if _, ok := tbl.Update(id, func(v *int) { *v++ }); ok {
			t.Errorf("Update(%d) ok = true, want false", id)
		}
	}

	got, ok := tbl.Update(0, func(v *int) { *v++ })
	if !ok || got != 11 {
		t.Errorf("Update(0) = %d, %v; want 11, true", got, ok)
	}
}

func TestTable_AllOrderedByID(t *testing.T) {
	var tbl Table[int]
	for i := 0; i < 5; i++ {
		tbl.Insert(func(id int) int { return id })
	}
	tbl.Remove(0)
	tbl.Remove(3)

	all := tbl.All()
	want := []int{1, 2, 4}
	if len(all) != len(want) {
		t.Fatalf("All() = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("All()[%d] = %d, want %d", i, all[i], want[i])
		}
	}
}
