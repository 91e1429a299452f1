package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryRecordStoreRoundTrip(t *testing.T) {
	st := NewMemoryRecordStore()
	ctx := context.Background()

	if _, err := st.Get(ctx, KindAgent, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing record: err = %v, want ErrNotFound", err)
	}

	doc := []byte(`{"id": "a1"}`)
	if err := st.Put(ctx, KindAgent, "a1", doc); err != nil {
		t.Fatal(err)
	}

	got, err := st.Get(ctx, KindAgent, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(doc) {
		t.Fatalf("Get = %s", got)
	}

	// Kinds are segregated namespaces.
	if _, err := st.Get(ctx, KindStudio, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatal("kinds must not share a namespace")
	}

	ok, err := st.Delete(ctx, KindAgent, "a1")
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v)", ok, err)
	}
	ok, err = st.Delete(ctx, KindAgent, "a1")
	if err != nil || ok {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestMemoryRecordStoreListSorted(t *testing.T) {
	st := NewMemoryRecordStore()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		if err := st.Put(ctx, KindStudio, id, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := st.List(ctx, KindStudio)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("List = %v", ids)
	}
}

func TestMemoryRecordStoreCopiesDocuments(t *testing.T) {
	st := NewMemoryRecordStore()
	ctx := context.Background()

	doc := []byte(`{"id": "a1"}`)
	if err := st.Put(ctx, KindAgent, "a1", doc); err != nil {
		t.Fatal(err)
	}
	doc[2] = 'X'

	got, _ := st.Get(ctx, KindAgent, "a1")
	if string(got) != `{"id": "a1"}` {
		t.Fatal("stored document aliased the caller's slice")
	}
	got[2] = 'Y'

	again, _ := st.Get(ctx, KindAgent, "a1")
	if string(again) != `{"id": "a1"}` {
		t.Fatal("returned document aliased the stored slice")
	}
}
