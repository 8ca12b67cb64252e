// Package proto defines the relay wire format: the inbound envelope in both
// of its accepted syntaxes and the outbound frame shapes.
package proto

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Inbound message types recognized by the dispatch table. Anything else is
// broadcast verbatim to the sender's classroom.
const (
	TypeRegister         = "register"
	TypeJoinClassroom    = "join_classroom"
	TypeMinecraftCommand = "minecraft_command"
	TypeScratchAction    = "scratch_action"
	TypePing             = "ping"
)

// Outbound frame types.
const (
	TypeWelcome         = "welcome"
	TypeRegistered      = "registered"
	TypeJoinedClassroom = "joined_classroom"
	TypeStudentJoined   = "student_joined"
	TypeMinecraftUpdate = "minecraft_update"
	TypeScratchCommand  = "scratch_command"
	TypePong            = "pong"
	TypeError           = "error"
)

var errEmptyFrame = errors.New("empty frame")

// Inbound is the normalized form of a client frame. Both wire syntaxes —
// the JSON object form and the legacy call-string form — decode into it
// before any dispatch logic runs.
type Inbound struct {
	// Type is the dispatch discriminator. Empty when the frame carried
	// neither a "type" nor a "command" key; such frames hit the default
	// (verbatim broadcast) path.
	Type string
	// Fields holds the frame's own keys, or the args object for the
	// command form.
	Fields map[string]any
	// Raw is the decoded object as received, used for verbatim broadcast.
	Raw map[string]any
}

// Str returns the named field as a string, or "" when absent or not a
// string.
func (in Inbound) Str(key string) string {
	s, _ := in.Fields[key].(string)
	return s
}

// Get returns the named field, or nil when absent.
func (in Inbound) Get(key string) any {
	return in.Fields[key]
}

// Decode normalizes a raw frame into an Inbound. JSON objects are accepted
// in both the `{"type": ...}` and `{"command": ..., "args": ...}` shapes;
// anything that does not look like JSON falls back to the legacy
// call-string parser.
func Decode(raw []byte) (Inbound, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Inbound{}, errEmptyFrame
	}
	if trimmed[0] != '{' {
		return decodeLegacy(string(trimmed))
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Inbound{}, err
	}

	if t, ok := obj["type"].(string); ok && t != "" {
		return Inbound{Type: t, Fields: obj, Raw: obj}, nil
	}
	if cmd, ok := obj["command"].(string); ok && cmd != "" {
		fields := map[string]any{"command": cmd, "args": obj["args"]}
		if args, ok := obj["args"].(map[string]any); ok {
			for k, v := range args {
				fields[k] = v
			}
		}
		return Inbound{Type: cmd, Fields: fields, Raw: obj}, nil
	}

	// No discriminator at all: a valid object headed for the default
	// broadcast path.
	return Inbound{Fields: obj, Raw: obj}, nil
}

// Welcome greets a freshly admitted client with its assigned id.
type Welcome struct {
	Type      string `json:"type"`
	ClientID  string `json:"clientId"`
	Message   string `json:"message"`
	MessageJA string `json:"message_ja,omitempty"`
}

// Registered confirms a role registration.
type Registered struct {
	Type       string `json:"type"`
	ClientType string `json:"clientType"`
	Message    string `json:"message"`
	MessageJA  string `json:"message_ja,omitempty"`
}

// JoinedClassroom confirms a classroom join to the joining client.
type JoinedClassroom struct {
	Type          string `json:"type"`
	ClassroomCode string `json:"classroomCode"`
	StudentCount  int    `json:"studentCount"`
	Message       string `json:"message"`
	MessageJA     string `json:"message_ja,omitempty"`
}

// StudentJoined notifies existing classroom members of a new arrival.
type StudentJoined struct {
	Type          string `json:"type"`
	StudentID     string `json:"studentId"`
	TotalStudents int    `json:"totalStudents"`
}

// MinecraftUpdate relays a minecraft_command payload to classroom peers.
type MinecraftUpdate struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	From string `json:"from"`
}

// ScratchCommand relays a scratch_action to classroom peers.
type ScratchCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Args    any    `json:"args"`
	From    string `json:"from"`
}

// Pong answers a ping.
type Pong struct {
	Type string `json:"type"`
}

// ErrorFrame reports a per-message failure without closing the connection.
type ErrorFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	MessageJA string `json:"message_ja,omitempty"`
}
