package core

// DefaultRoom is created with the directory and can never be removed or left.
const DefaultRoom = "default"

// room groups sessions that receive each other's messages.
// It is not safe for concurrent use; Directory guards it.
type room struct {
	name    string
	members map[string]*Session
}

func newRoom(name string) *room {
	return &room{
		name:    name,
		members: make(map[string]*Session),
	}
}

// add inserts a session. Returns true if newly added.
func (r *room) add(s *Session) bool {
	if _, exists := r.members[s.ID]; exists {
		return false
	}
	r.members[s.ID] = s
	return true
}

// remove deletes a session by id. Returns true if removed.
func (r *room) remove(id string) bool {
	if _, exists := r.members[id]; !exists {
		return false
	}
	delete(r.members, id)
	return true
}

// snapshot copies the member set, leaving out exclude.
func (r *room) snapshot(exclude string) []*Session {
	out := make([]*Session, 0, len(r.members))
	for id, s := range r.members {
		if id == exclude {
			continue
		}
		out = append(out, s)
	}
	return out
}
