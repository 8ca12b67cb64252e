package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRelay(opts RelayOptions) *Relay {
	if opts.MaxConnections == 0 {
		opts.MaxConnections = 16
	}
	if opts.MaxClassrooms == 0 {
		opts.MaxClassrooms = 16
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	if opts.RateWindow == 0 {
		opts.RateWindow = time.Second
	}
	if opts.ClassroomIdleTimeout == 0 {
		opts.ClassroomIdleTimeout = 30 * time.Minute
	}
	return NewRelay(opts, nopLogger())
}

// connect admits a client and drains its welcome frame.
func connect(t *testing.T, r *Relay) *Client {
	t.Helper()

	client, err := r.Connect()
	require.NoError(t, err)

	welcome := recvFrame(t, client)
	require.Equal(t, "welcome", welcome["type"])
	require.Equal(t, client.ID, welcome["clientId"])
	return client
}

// joinClassroom joins and drains the joined_classroom confirmation.
func joinClassroom(t *testing.T, r *Relay, client *Client, code string) {
	t.Helper()

	r.Dispatch(client, []byte(`{"type":"join_classroom","classroomCode":"`+code+`"}`))
	joined := recvFrame(t, client)
	require.Equal(t, "joined_classroom", joined["type"])
	require.Equal(t, code, joined["classroomCode"])
}

func TestRelayConnectCapacity(t *testing.T) {
	r := newTestRelay(RelayOptions{MaxConnections: 1})

	connect(t, r)
	require.Equal(t, 1, r.Stats().Connections)

	_, err := r.Connect()
	require.ErrorIs(t, err, ErrServerFull)
	require.Equal(t, 1, r.Stats().Connections, "rejected candidate must not be registered")
}

func TestRelayRegister(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)

	r.Dispatch(a, []byte(`{"type":"register","clientType":"scratch"}`))

	reply := recvFrame(t, a)
	require.Equal(t, "registered", reply["type"])
	require.Equal(t, "scratch", reply["clientType"])
	require.Equal(t, "scratch", a.Role)
}

func TestRelayJoinClassroomAnnouncesToPeers(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	b := connect(t, r)

	r.Dispatch(a, []byte(`{"type":"join_classroom","classroomCode":"ABC"}`))
	joined := recvFrame(t, a)
	require.Equal(t, "joined_classroom", joined["type"])
	require.EqualValues(t, 1, joined["studentCount"])

	r.Dispatch(b, []byte(`{"type":"join_classroom","classroomCode":"ABC"}`))
	joined = recvFrame(t, b)
	require.EqualValues(t, 2, joined["studentCount"])

	notice := recvFrame(t, a)
	require.Equal(t, "student_joined", notice["type"])
	require.Equal(t, b.ID, notice["studentId"])
	require.EqualValues(t, 2, notice["totalStudents"])

	assertNoFrame(t, b, "the joiner must not see its own student_joined")
}

func TestRelayRejoinDoesNotDuplicateMembership(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	joinClassroom(t, r, a, "ABC")

	r.Dispatch(a, []byte(`{"type":"join_classroom","classroomCode":"ABC"}`))
	joined := recvFrame(t, a)
	require.Equal(t, "joined_classroom", joined["type"])
	require.EqualValues(t, 1, joined["studentCount"])
}

func TestRelayJoinWithoutCodeIsDropped(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)

	r.Dispatch(a, []byte(`{"type":"join_classroom"}`))
	assertNoFrame(t, a)
	require.Equal(t, 0, r.Stats().Classrooms)
}

func TestRelayMinecraftCommandRoundTrip(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	b := connect(t, r)
	outsider := connect(t, r)

	joinClassroom(t, r, a, "R1")
	joinClassroom(t, r, b, "R1")
	recvFrame(t, a) // student_joined for b
	joinClassroom(t, r, outsider, "R2")

	r.Dispatch(a, []byte(`{"type":"minecraft_command","data":{"action":"place","block":"stone"}}`))

	update := recvFrame(t, b)
	require.Equal(t, "minecraft_update", update["type"])
	require.Equal(t, a.ID, update["from"])
	require.Equal(t, map[string]any{"action": "place", "block": "stone"}, update["data"])

	assertNoFrame(t, a, "sender must not receive its own broadcast")
	assertNoFrame(t, outsider, "broadcast must not cross classrooms")
}

func TestRelayScratchActionRoundTrip(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	b := connect(t, r)

	joinClassroom(t, r, a, "R1")
	joinClassroom(t, r, b, "R1")
	recvFrame(t, a) // student_joined for b

	r.Dispatch(a, []byte(`{"type":"scratch_action","command":"forward","args":[3]}`))

	cmd := recvFrame(t, b)
	require.Equal(t, "scratch_command", cmd["type"])
	require.Equal(t, "forward", cmd["command"])
	require.Equal(t, []any{float64(3)}, cmd["args"])
	require.Equal(t, a.ID, cmd["from"])
	assertNoFrame(t, a)
}

func TestRelayLegacyCallStringDispatch(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	b := connect(t, r)

	joinClassroom(t, r, a, "R1")
	joinClassroom(t, r, b, "R1")
	recvFrame(t, a) // student_joined for b

	r.Dispatch(a, []byte(`scratch_action("forward", 3)`))

	cmd := recvFrame(t, b)
	require.Equal(t, "scratch_command", cmd["type"])
	require.Equal(t, a.ID, cmd["from"])
}

func TestRelayDomainMessageWithoutRoomIsDroppedSilently(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)

	r.Dispatch(a, []byte(`{"type":"minecraft_command","data":"X"}`))
	assertNoFrame(t, a, "roomless domain messages are an expected bootstrap race, not an error")
}

func TestRelayUnknownTypeBroadcastsVerbatim(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	b := connect(t, r)

	joinClassroom(t, r, a, "R1")
	joinClassroom(t, r, b, "R1")
	recvFrame(t, a) // student_joined for b

	r.Dispatch(a, []byte(`{"type":"chat","text":"hello"}`))

	frame := recvFrame(t, b)
	require.Equal(t, "chat", frame["type"])
	require.Equal(t, "hello", frame["text"])
	assertNoFrame(t, a)
}

func TestRelayPing(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)

	r.Dispatch(a, []byte(`{"type":"ping"}`))
	require.Equal(t, "pong", recvFrame(t, a)["type"])
}

func TestRelayRateLimitRejectsAndDoesNotForward(t *testing.T) {
	r := newTestRelay(RelayOptions{RateLimit: 3})
	a := connect(t, r)
	b := connect(t, r)

	joinClassroom(t, r, a, "R1") // frame 1
	joinClassroom(t, r, b, "R1")
	recvFrame(t, a) // student_joined for b

	r.Dispatch(a, []byte(`{"type":"scratch_action","command":"a","args":[]}`)) // frame 2
	r.Dispatch(a, []byte(`{"type":"scratch_action","command":"b","args":[]}`)) // frame 3
	r.Dispatch(a, []byte(`{"type":"scratch_action","command":"c","args":[]}`)) // frame 4: over budget

	require.Equal(t, "a", recvFrame(t, b)["command"])
	require.Equal(t, "b", recvFrame(t, b)["command"])
	assertNoFrame(t, b, "rate-limited frame must not be broadcast")

	errFrame := recvFrame(t, a)
	require.Equal(t, "error", errFrame["type"])
	require.Equal(t, "Rate limit exceeded", errFrame["message"])
}

func TestRelayMalformedFrameIsNotFatal(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)

	r.Dispatch(a, []byte(`{"type": truncated`))

	errFrame := recvFrame(t, a)
	require.Equal(t, "error", errFrame["type"])
	require.Equal(t, "Invalid message format", errFrame["message"])

	// The connection keeps working.
	r.Dispatch(a, []byte(`{"type":"ping"}`))
	require.Equal(t, "pong", recvFrame(t, a)["type"])
}

func TestRelayDisconnectCleansUpOnce(t *testing.T) {
	r := newTestRelay(RelayOptions{})
	a := connect(t, r)
	b := connect(t, r)

	joinClassroom(t, r, a, "R1")
	joinClassroom(t, r, b, "R1")
	recvFrame(t, a) // student_joined for b

	r.Disconnect(a)
	r.Disconnect(a) // close and error may both fire for one transport
	require.Equal(t, 1, r.Stats().Connections)
	require.Equal(t, 1, r.Stats().Classrooms)

	r.Disconnect(b)
	require.Equal(t, 0, r.Stats().Connections)
	require.Equal(t, 0, r.Stats().Classrooms, "emptied classroom is deleted on disconnect")
}

func TestRelayClassroomCeiling(t *testing.T) {
	r := newTestRelay(RelayOptions{MaxClassrooms: 1})
	a := connect(t, r)
	joinClassroom(t, r, a, "R1")

	b := connect(t, r)
	r.Dispatch(b, []byte(`{"type":"join_classroom","classroomCode":"R2"}`))

	errFrame := recvFrame(t, b)
	require.Equal(t, "error", errFrame["type"])
	require.Equal(t, "Classroom limit reached", errFrame["message"])
}

func TestRelaySweepReclaimsIdleClassrooms(t *testing.T) {
	r := newTestRelay(RelayOptions{ClassroomIdleTimeout: 30 * time.Minute})
	a := connect(t, r)
	joinClassroom(t, r, a, "old")

	// Leaving deletes the emptied classroom immediately, so recreate an
	// empty one and backdate it as if it had sat idle.
	r.rooms.Leave(a.ID)
	idle, err := r.rooms.GetOrCreate("old")
	require.NoError(t, err)
	idle.lastActivity = time.Now().Add(-31 * time.Minute)

	r.Sweep()
	require.Equal(t, 0, r.Stats().Classrooms)
}
