package core

import "time"

// Classroom groups clients that receive each other's broadcasts. All
// mutation goes through the ClassroomManager, which holds the lock.
type Classroom struct {
	Code string

	members      map[string]*Client
	created      time.Time
	lastActivity time.Time
}

func newClassroom(code string) *Classroom {
	now := time.Now()
	return &Classroom{
		Code:         code,
		members:      make(map[string]*Client),
		created:      now,
		lastActivity: now,
	}
}

// add inserts a client. Returns true if newly added.
func (c *Classroom) add(client *Client) bool {
	if _, exists := c.members[client.ID]; exists {
		return false
	}
	c.members[client.ID] = client
	return true
}

// remove deletes a client by id. Returns true if it was a member.
func (c *Classroom) remove(clientID string) bool {
	if _, exists := c.members[clientID]; !exists {
		return false
	}
	delete(c.members, clientID)
	return true
}

func (c *Classroom) touch() {
	c.lastActivity = time.Now()
}

// Size returns the current member count.
func (c *Classroom) Size() int {
	return len(c.members)
}

func (c *Classroom) empty() bool {
	return len(c.members) == 0
}
