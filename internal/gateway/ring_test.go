package gateway

import "testing"

func TestEventRing_Range(t *testing.T) {
	r := NewEventRing(100)

	for i := int64(1); i <= 10; i++ {
		r.Push(i, []byte("msg"))
	}

	got := r.Range(3, 7)
	if len(got) != 5 {
		t.Fatalf("Range(3,7): expected 5, got %d", len(got))
	}
	for i, e := range got {
		if want := int64(i) + 3; e.Seq != want {
			t.Errorf("entry[%d].Seq = %d, want %d", i, e.Seq, want)
		}
	}
}

func TestEventRing_Wraparound(t *testing.T) {
	r := NewEventRing(5)

	// Push 8 entries, the first 3 are evicted
	for i := int64(1); i <= 8; i++ {
		r.Push(i, []byte("msg"))
	}

	if r.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", r.Len())
	}
	got := r.Range(1, 10)
	if len(got) != 5 {
		t.Fatalf("Range(1,10): expected 5, got %d", len(got))
	}
	if got[0].Seq != 4 || got[4].Seq != 8 {
		t.Errorf("range = %d..%d, want 4..8", got[0].Seq, got[4].Seq)
	}
}

func TestEventRing_CopiesData(t *testing.T) {
	r := NewEventRing(4)
	data := []byte("abc")
	r.Push(1, data)
	data[0] = 'x'

	if got := string(r.Range(1, 1)[0].Data); got != "abc" {
		t.Errorf("stored %q, want abc", got)
	}
}

func TestEventRing_Empty(t *testing.T) {
	r := NewEventRing(10)
	if got := r.Range(1, 100); len(got) != 0 {
		t.Fatalf("empty ring Range should return 0, got %d", len(got))
	}
}
