package history

import (
	"errors"
	"fmt"
	"testing"

	"product-mockup-studio/internal/imagedata"
)

func img(i int) imagedata.Image {
	return imagedata.Image{MediaType: "image/png", Base64: fmt.Sprintf("img%d", i)}
}

func TestAppendNewestFirstAndCapped(t *testing.T) {
	s := New(Options{})
	for i := 0; i < 25; i++ {
		s.Append(img(i), "generate")
	}
	list := s.List()
	if len(list) != DefaultLimit {
		t.Fatalf("expected %d entries, got %d", DefaultLimit, len(list))
	}
	if list[0].Image.Base64 != "img24" || list[19].Image.Base64 != "img5" {
		t.Fatalf("unexpected order: first %s last %s", list[0].Image.Base64, list[19].Image.Base64)
	}
	if list[0].ID == "" || list[0].ID == list[1].ID {
		t.Fatalf("entries need unique ids")
	}
	if _, ok := s.Get(list[3].ID); !ok {
		t.Fatalf("Get by id failed")
	}
	s.Clear()
	if len(s.List()) != 0 {
		t.Fatalf("expected empty history after Clear")
	}
}

type brokenPersister struct{ saves int }

func (b *brokenPersister) Load() ([]Entry, error) { return nil, errors.New("corrupt") }
func (b *brokenPersister) Save([]Entry) error     { b.saves++; return errors.New("quota exceeded") }
func (b *brokenPersister) Clear() error           { return errors.New("denied") }

func TestPersistenceFailureDegradesToMemory(t *testing.T) {
	p := &brokenPersister{}
	s := New(Options{Persister: p, Limit: 2})
	s.Append(img(1), "generate")
	s.Append(img(2), "modify")
	s.Append(img(3), "modify")
	if len(s.List()) != 2 || p.saves != 3 {
		t.Fatalf("store must keep working in memory: %d entries, %d saves", len(s.List()), p.saves)
	}
	s.Clear()
	if len(s.List()) != 0 {
		t.Fatalf("clear must succeed in memory")
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(Options{Persister: NewFilePersister(dir, "abc")})
	first := s.Append(img(1), "generate")
	s.Append(img(2), "overlay")

	reloaded := New(Options{Persister: NewFilePersister(dir, "abc")})
	list := reloaded.List()
	if len(list) != 2 || list[1].ID != first.ID || list[0].Source != "overlay" {
		t.Fatalf("unexpected reloaded history: %+v", list)
	}

	reloaded.Clear()
	if len(New(Options{Persister: NewFilePersister(dir, "abc")}).List()) != 0 {
		t.Fatalf("expected history file removed")
	}
}
