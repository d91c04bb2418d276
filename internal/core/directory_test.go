package core

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func TestDirectoryStartsWithDefaultRoom(t *testing.T) {
	d := NewDirectory()

	names := d.RoomNames()
	if len(names) != 1 || names[0] != DefaultRoom {
		t.Fatalf("expected only default room, got %v", names)
	}
	if members := d.Members(DefaultRoom); len(members) != 0 {
		t.Fatalf("expected empty default room, got %d members", len(members))
	}
}

func TestDirectoryEnsureRoomIsIdempotent(t *testing.T) {
	d := NewDirectory()
	d.EnsureRoom("x")
	d.EnsureRoom("x")
	d.EnsureRoom(DefaultRoom)

	names := d.RoomNames()
	sort.Strings(names)
	if fmt.Sprint(names) != "[default x]" {
		t.Fatalf("unexpected rooms: %v", names)
	}
}

func TestDirectoryRegisterMoveUnregister(t *testing.T) {
	d := NewDirectory()
	alice, _ := newTestSession("a", "alice")

	d.Register(alice)
	if room, ok := d.CurrentRoom("a"); !ok || room != DefaultRoom {
		t.Fatalf("expected default, got %q (%v)", room, ok)
	}
	assertConsistent(t, d)

	from, err := d.Move("a", "r1")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if from != DefaultRoom {
		t.Fatalf("expected to leave default, left %q", from)
	}
	if len(d.Members(DefaultRoom)) != 0 {
		t.Fatalf("alice still in default")
	}
	if members := d.Members("r1"); len(members) != 1 || members[0] != alice {
		t.Fatalf("alice not in r1: %v", members)
	}
	assertConsistent(t, d)

	room, ok := d.Unregister("a")
	if !ok || room != "r1" {
		t.Fatalf("unregister returned %q, %v", room, ok)
	}
	if _, ok := d.CurrentRoom("a"); ok {
		t.Fatalf("index entry survived unregister")
	}
	if _, ok := d.Unregister("a"); ok {
		t.Fatalf("second unregister should report nothing removed")
	}
	assertConsistent(t, d)

	// rooms are never removed
	if members := d.Members("r1"); members == nil || len(members) != 0 {
		t.Fatalf("expected empty but existing r1, got %v", members)
	}
}

func TestDirectoryAddTakesSessionOutOfPreviousRoom(t *testing.T) {
	d := NewDirectory()
	alice, _ := newTestSession("a", "alice")

	d.Add("x", alice)
	d.Add("y", alice)

	if len(d.Members("x")) != 0 {
		t.Fatalf("alice still listed in x")
	}
	if room, _ := d.CurrentRoom("a"); room != "y" {
		t.Fatalf("expected y, got %q", room)
	}
	assertConsistent(t, d)
}

func TestDirectoryRemove(t *testing.T) {
	d := NewDirectory()
	alice, _ := newTestSession("a", "alice")
	d.Add("x", alice)

	d.Remove("y", "a")
	d.Remove("ghost", "a")
	if room, _ := d.CurrentRoom("a"); room != "x" {
		t.Fatalf("remove from other room changed index: %q", room)
	}

	d.Remove("x", "a")
	if len(d.Members("x")) != 0 {
		t.Fatalf("alice still in x")
	}
	if _, ok := d.CurrentRoom("a"); ok {
		t.Fatalf("index still points at x")
	}
	d.Remove("x", "a")
	assertConsistent(t, d)
}

func TestDirectoryMoveUnknownSession(t *testing.T) {
	d := NewDirectory()

	if _, err := d.Move("ghost", "x"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if _, _, err := d.Peers("ghost"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered from Peers, got %v", err)
	}
	if len(d.RoomNames()) != 1 {
		t.Fatalf("failed move must not create rooms")
	}
}

func TestDirectoryPeersExcludeSender(t *testing.T) {
	d := NewDirectory()
	alice, _ := newTestSession("a", "alice")
	bob, _ := newTestSession("b", "bob")
	carol, _ := newTestSession("c", "carol")

	d.Add("x", alice)
	d.Add("x", bob)
	d.Register(carol)

	room, peers, err := d.Peers("a")
	if err != nil {
		t.Fatalf("peers: %v", err)
	}
	if room != "x" {
		t.Fatalf("expected room x, got %q", room)
	}
	if len(peers) != 1 || peers[0] != bob {
		t.Fatalf("expected only bob, got %v", peers)
	}

	if s, ok := d.Session("c"); !ok || s != carol {
		t.Fatalf("session lookup failed")
	}
}

func TestDirectoryStatsSorted(t *testing.T) {
	d := NewDirectory()
	alice, _ := newTestSession("a", "alice")
	bob, _ := newTestSession("b", "bob")
	d.Add("zeta", alice)
	d.Add("alpha", bob)

	stats := d.Stats()
	want := []RoomStats{{"alpha", 1}, {DefaultRoom, 0}, {"zeta", 1}}
	if fmt.Sprint(stats) != fmt.Sprint(want) {
		t.Fatalf("stats = %v, want %v", stats, want)
	}
}

func TestDirectoryConcurrentMovesStayConsistent(t *testing.T) {
	d := NewDirectory()
	rooms := []string{DefaultRoom, "a", "b", "c"}

	const workers = 32
	var wg sync.WaitGroup
	for i := range workers {
		s, _ := newTestSession(fmt.Sprintf("s%d", i), "user")
		d.Register(s)

		wg.Add(1)
		go func(id string, seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for range 200 {
				switch rng.Intn(3) {
				case 0:
					if _, err := d.Move(id, rooms[rng.Intn(len(rooms))]); err != nil {
						t.Errorf("move: %v", err)
						return
					}
				case 1:
					if _, _, err := d.Peers(id); err != nil {
						t.Errorf("peers: %v", err)
						return
					}
				default:
					_ = d.Members(rooms[rng.Intn(len(rooms))])
				}
			}
		}(s.ID, int64(i))
	}
	wg.Wait()

	assertConsistent(t, d)
	total := 0
	for _, st := range d.Stats() {
		total += st.Members
	}
	if total != workers {
		t.Fatalf("expected %d sessions across rooms, got %d", workers, total)
	}
}
