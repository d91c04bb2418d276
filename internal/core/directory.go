package core

import (
	"sort"
	"sync"
)

// RoomStats summarises one room for the status API.
type RoomStats struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Directory holds the room table and the membership index behind one mutex,
// so no reader can see a session in zero rooms or in two.
//
// Empty rooms other than DefaultRoom are kept. Room names come from clients,
// so a long-running server grows one map entry per distinct name ever joined.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*room
	index map[string]string // session id -> room name
}

// NewDirectory returns a directory containing only DefaultRoom.
func NewDirectory() *Directory {
	return &Directory{
		rooms: map[string]*room{DefaultRoom: newRoom(DefaultRoom)},
		index: make(map[string]string),
	}
}

// EnsureRoom creates an empty room if it does not exist yet.
func (d *Directory) EnsureRoom(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensureLocked(name)
}

// Add puts s into the named room, creating it if needed, and points the index at it.
// A session already placed in another room is taken out of that room first.
func (d *Directory) Add(roomName string, s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addLocked(roomName, s)
}

// Register places a new session into DefaultRoom.
func (d *Directory) Register(s *Session) {
	d.Add(DefaultRoom, s)
}

// Remove takes the session out of the named room. It is a no-op when the
// session is not a member; the index entry is dropped only if it names roomName.
func (d *Directory) Remove(roomName, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.rooms[roomName]; ok {
		r.remove(id)
	}
	if d.index[id] == roomName {
		delete(d.index, id)
	}
}

// Unregister removes the session from whatever room it occupies.
func (d *Directory) Unregister(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, ok := d.index[id]
	if !ok {
		return "", false
	}
	if r, exists := d.rooms[name]; exists {
		r.remove(id)
	}
	delete(d.index, id)
	return name, true
}

// Move transfers a registered session into roomName in one critical section.
// It returns the room the session left.
func (d *Directory) Move(id, roomName string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, ok := d.index[id]
	if !ok {
		return "", ErrNotRegistered
	}
	r, ok := d.rooms[from]
	if !ok {
		return "", ErrRoomNotFound
	}
	s, ok := r.members[id]
	if !ok {
		return "", ErrNotRegistered
	}
	d.addLocked(roomName, s)
	return from, nil
}

// CurrentRoom reads the membership index.
func (d *Directory) CurrentRoom(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.index[id]
	return name, ok
}

// Session returns the registered session with the given id.
func (d *Directory) Session(id string) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, ok := d.index[id]
	if !ok {
		return nil, false
	}
	r, ok := d.rooms[name]
	if !ok {
		return nil, false
	}
	s, ok := r.members[id]
	return s, ok
}

// Members returns a snapshot of the room's sessions. Nil for an unknown room.
func (d *Directory) Members(roomName string) []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[roomName]
	if !ok {
		return nil
	}
	return r.snapshot("")
}

// Peers returns the sender's room and every other member of it, taken together
// so the recipient set matches the room the sender is in.
func (d *Directory) Peers(id string) (string, []*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, ok := d.index[id]
	if !ok {
		return "", nil, ErrNotRegistered
	}
	r, ok := d.rooms[name]
	if !ok {
		return name, nil, ErrRoomNotFound
	}
	return name, r.snapshot(id), nil
}

// RoomNames lists every known room in no particular order.
func (d *Directory) RoomNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.rooms))
	for name := range d.rooms {
		names = append(names, name)
	}
	return names
}

// Stats returns member counts per room, sorted by name.
func (d *Directory) Stats() []RoomStats {
	d.mu.Lock()
	stats := make([]RoomStats, 0, len(d.rooms))
	for name, r := range d.rooms {
		stats = append(stats, RoomStats{Name: name, Members: len(r.members)})
	}
	d.mu.Unlock()

	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

func (d *Directory) ensureLocked(name string) *room {
	r, ok := d.rooms[name]
	if !ok {
		r = newRoom(name)
		d.rooms[name] = r
	}
	return r
}

func (d *Directory) addLocked(roomName string, s *Session) {
	if prev, ok := d.index[s.ID]; ok {
		if r, exists := d.rooms[prev]; exists {
			r.remove(s.ID)
		}
	}
	d.ensureLocked(roomName).add(s)
	d.index[s.ID] = roomName
}
