package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ClassroomManager owns every live classroom and the client-id to classroom
// index. The two maps are mutated in lockstep under one lock so membership
// can never dangle in either direction.
type ClassroomManager struct {
	mu       sync.RWMutex
	max      int
	rooms    map[string]*Classroom
	byClient map[string]string
	log      *zerolog.Logger
}

// NewClassroomManager builds an empty registry. max bounds the number of
// simultaneous classrooms; zero or negative means unlimited.
func NewClassroomManager(max int, logger *zerolog.Logger) *ClassroomManager {
	return &ClassroomManager{
		max:      max,
		rooms:    make(map[string]*Classroom),
		byClient: make(map[string]string),
		log:      logger,
	}
}

// GetOrCreate returns the classroom for code, creating it on first use.
// Repeated calls with the same code return the same classroom.
func (m *ClassroomManager) GetOrCreate(code string) (*Classroom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, exists := m.rooms[code]; exists {
		return room, nil
	}
	if m.max > 0 && len(m.rooms) >= m.max {
		return nil, ErrTooManyClassrooms
	}
	room := newClassroom(code)
	m.rooms[code] = room
	m.log.Info().Str("classroom", code).Msg("classroom created")
	return room, nil
}

// Join adds the client to the named classroom. ok is false when the
// classroom does not exist; callers are expected to GetOrCreate first.
// added is false when the client was already a member (re-join is
// idempotent). count is the membership after the call.
func (m *ClassroomManager) Join(code string, client *Client) (count int, added, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[code]
	if !exists {
		return 0, false, false
	}
	added = room.add(client)
	if added {
		m.byClient[client.ID] = code
	}
	room.touch()
	m.log.Info().Str("classroom", code).Str("client_id", client.ID).Msg("student joined")
	return room.Size(), added, true
}

// Leave removes the client from whatever classroom it is in. An emptied
// classroom is deleted immediately rather than waiting for the sweep.
// Removing a client that is in no classroom is a no-op.
func (m *ClassroomManager) Leave(clientID string) (code string, removed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, exists := m.byClient[clientID]
	if !exists {
		return "", false
	}
	delete(m.byClient, clientID)

	room, exists := m.rooms[code]
	if !exists {
		return code, false
	}
	room.remove(clientID)
	m.log.Info().Str("classroom", code).Str("client_id", clientID).Msg("student left")
	if room.empty() {
		delete(m.rooms, code)
		m.log.Info().Str("classroom", code).Msg("deleted empty classroom")
	}
	return code, true
}

// Broadcast delivers payload to every member of the named classroom except
// excludeID. Closed peers are skipped; a peer whose queue overflows is
// closed by Send and will be reaped by its own disconnect path. Returns the
// number of members the frame was handed to.
func (m *ClassroomManager) Broadcast(code string, payload []byte, excludeID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[code]
	if !exists {
		return 0
	}
	delivered := 0
	for id, member := range room.members {
		if id == excludeID || member.Closed() {
			continue
		}
		if member.Send(payload) {
			delivered++
		} else {
			m.log.Warn().Str("classroom", code).Str("client_id", id).Msg("dropped slow peer")
		}
	}
	return delivered
}

// ClassroomOf looks up the classroom the client currently belongs to.
func (m *ClassroomManager) ClassroomOf(clientID string) (*Classroom, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, exists := m.byClient[clientID]
	if !exists {
		return nil, false
	}
	room, exists := m.rooms[code]
	return room, exists
}

// SweepIdle deletes classrooms that are empty and have seen no activity for
// longer than timeout. Populated classrooms are never swept regardless of
// age. Returns the number of classrooms removed.
func (m *ClassroomManager) SweepIdle(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := time.Now()
	for code, room := range m.rooms {
		if room.empty() && now.Sub(room.lastActivity) > timeout {
			delete(m.rooms, code)
			removed++
			m.log.Info().Str("classroom", code).Msg("removed inactive classroom")
		}
	}
	return removed
}

// Count returns the number of live classrooms.
func (m *ClassroomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
