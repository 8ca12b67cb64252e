package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/craftbridge/relay-server/internal/proto"
)

// Relay brokers frames between controller and agent clients. It owns the
// connection registry, the classroom registry, and the rate limiter; the
// transport layer owns the sockets and feeds raw frames in via Dispatch.
type Relay struct {
	conns       *ConnectionRegistry
	rooms       *ClassroomManager
	limiter     *RateLimiter
	idleTimeout time.Duration
	log         *zerolog.Logger
}

// RelayOptions carries the tunables the relay enforces.
type RelayOptions struct {
	MaxConnections       int
	MaxClassrooms        int
	RateLimit            int
	RateWindow           time.Duration
	ClassroomIdleTimeout time.Duration
}

// NewRelay wires the relay and its registries.
func NewRelay(opts RelayOptions, logger *zerolog.Logger) *Relay {
	return &Relay{
		conns:       NewConnectionRegistry(opts.MaxConnections),
		rooms:       NewClassroomManager(opts.MaxClassrooms, logger),
		limiter:     NewRateLimiter(opts.RateLimit, opts.RateWindow),
		idleTimeout: opts.ClassroomIdleTimeout,
		log:         logger,
	}
}

// Connect admits a new connection. On success the client is registered and
// its welcome frame (carrying the assigned id) is already queued. On
// ErrServerFull the caller must send CapacityNotice and close the transport;
// nothing has been registered.
func (r *Relay) Connect() (*Client, error) {
	client := NewClient(uuid.NewString())
	if err := r.conns.Admit(client); err != nil {
		return nil, err
	}

	r.log.Info().Str("client_id", client.ID).Msg("client connected")
	r.send(client, proto.Welcome{
		Type:      proto.TypeWelcome,
		ClientID:  client.ID,
		Message:   "Connected to Minecraft-Scratch Bridge Server",
		MessageJA: "Minecraft-Scratchブリッジサーバーに接続しました",
	})
	return client, nil
}

// Disconnect tears down a connection: classroom membership first (deleting
// the classroom if emptied), then the connection registry, then the client
// itself. Runs at most once per client even if the transport reports both a
// close and an error.
func (r *Relay) Disconnect(client *Client) {
	client.cleanup.Do(func() {
		r.rooms.Leave(client.ID)
		r.conns.Remove(client.ID)
		client.Close()
		r.log.Info().Str("client_id", client.ID).Str("role", client.Role).Msg("client disconnected")
	})
}

// Dispatch handles one raw inbound frame. The rate limiter runs before
// anything else, including parsing; neither a rate-limit rejection nor a
// parse failure is fatal to the connection.
func (r *Relay) Dispatch(client *Client, raw []byte) {
	if !r.limiter.Check(client.ID) {
		r.sendError(client, coreError(ErrCodeRateLimited, "Rate limit exceeded"))
		return
	}

	msg, err := proto.Decode(raw)
	if err != nil {
		r.log.Debug().Err(err).Str("client_id", client.ID).Msg("unparseable frame")
		r.sendError(client, coreError(ErrCodeInvalidFormat, "Invalid message format"))
		return
	}

	r.log.Debug().Str("client_id", client.ID).Str("type", msg.Type).Msg("frame received")

	switch msg.Type {
	case proto.TypeRegister:
		r.handleRegister(client, msg)
	case proto.TypeJoinClassroom:
		r.handleJoinClassroom(client, msg)
	case proto.TypeMinecraftCommand:
		r.broadcastToClassroom(client, proto.MinecraftUpdate{
			Type: proto.TypeMinecraftUpdate,
			Data: msg.Get("data"),
			From: client.ID,
		})
	case proto.TypeScratchAction:
		r.broadcastToClassroom(client, proto.ScratchCommand{
			Type:    proto.TypeScratchCommand,
			Command: msg.Str("command"),
			Args:    msg.Get("args"),
			From:    client.ID,
		})
	case proto.TypePing:
		r.send(client, proto.Pong{Type: proto.TypePong})
	default:
		// Unrecognized frames are relayed verbatim within the sender's
		// classroom. A sender with no classroom is an expected bootstrap
		// race, not an error.
		r.broadcastToClassroom(client, msg.Raw)
	}
}

func (r *Relay) handleRegister(client *Client, msg proto.Inbound) {
	role := msg.Str("clientType")
	client.Role = role
	r.log.Info().Str("client_id", client.ID).Str("role", role).Msg("client registered")
	r.send(client, proto.Registered{
		Type:       proto.TypeRegistered,
		ClientType: role,
		Message:    "Registered as " + role + " client",
		MessageJA:  role + "クライアントとして登録されました",
	})
}

func (r *Relay) handleJoinClassroom(client *Client, msg proto.Inbound) {
	code := msg.Str("classroomCode")
	if code == "" {
		return
	}

	if _, err := r.rooms.GetOrCreate(code); err != nil {
		r.sendError(client, coreError(ErrCodeTooManyClassrooms, "Classroom limit reached"))
		return
	}
	count, added, ok := r.rooms.Join(code, client)
	if !ok {
		return
	}

	r.send(client, proto.JoinedClassroom{
		Type:          proto.TypeJoinedClassroom,
		ClassroomCode: code,
		StudentCount:  count,
		Message:       "Joined classroom " + code,
		MessageJA:     "教室 " + code + " に参加しました",
	})
	if added {
		r.broadcast(code, proto.StudentJoined{
			Type:          proto.TypeStudentJoined,
			StudentID:     client.ID,
			TotalStudents: count,
		}, client.ID)
	}
}

// broadcastToClassroom fans v out to the sender's classroom, excluding the
// sender. Silently dropped when the sender has not joined one.
func (r *Relay) broadcastToClassroom(client *Client, v any) {
	room, ok := r.rooms.ClassroomOf(client.ID)
	if !ok {
		return
	}
	r.broadcast(room.Code, v, client.ID)
}

func (r *Relay) broadcast(code string, v any, excludeID string) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error().Err(err).Str("classroom", code).Msg("marshal broadcast")
		return
	}
	r.rooms.Broadcast(code, payload, excludeID)
}

// Sweep reclaims stale rate windows and idle empty classrooms. Driven by
// the app's background ticker.
func (r *Relay) Sweep() {
	windows := r.limiter.Sweep()
	rooms := r.rooms.SweepIdle(r.idleTimeout)
	if windows > 0 || rooms > 0 {
		r.log.Debug().Int("rate_windows", windows).Int("classrooms", rooms).Msg("sweep")
	}
}

// Stats reports live counts for the stats endpoint.
type Stats struct {
	Connections int `json:"connections"`
	Classrooms  int `json:"classrooms"`
}

// Stats returns current connection and classroom counts.
func (r *Relay) Stats() Stats {
	return Stats{
		Connections: r.conns.Count(),
		Classrooms:  r.rooms.Count(),
	}
}

// CapacityNotice is the error frame sent to a connection rejected at the
// global ceiling, before its transport is closed.
func (r *Relay) CapacityNotice() proto.ErrorFrame {
	return proto.ErrorFrame{
		Type:      proto.TypeError,
		Message:   "Server full. Please try again later.",
		MessageJA: "サーバーがいっぱいです。後でもう一度お試しください。",
	}
}

func (r *Relay) send(client *Client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.log.Error().Err(err).Str("client_id", client.ID).Msg("marshal frame")
		return
	}
	if !client.Send(payload) {
		r.log.Warn().Str("client_id", client.ID).Msg("dropped frame for closed client")
	}
}

func (r *Relay) sendError(client *Client, cerr *CoreError) {
	r.send(client, proto.ErrorFrame{
		Type:      proto.TypeError,
		Message:   cerr.Message,
		MessageJA: errorTextJA[cerr.Code],
	})
}

// errorTextJA carries the bilingual companion text for user-facing errors.
var errorTextJA = map[string]string{
	ErrCodeServerFull:        "サーバーがいっぱいです。後でもう一度お試しください。",
	ErrCodeRateLimited:       "コマンドが多すぎます。少し待ってください。",
	ErrCodeInvalidFormat:     "メッセージの形式が正しくありません",
	ErrCodeTooManyClassrooms: "教室の数が上限に達しました",
}
