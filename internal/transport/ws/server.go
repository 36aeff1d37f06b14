// Package ws serves the registry protocol over websockets. Each session
// starts with a HELLO/WELCOME exchange that pins the caller identity;
// after that, execute and query messages are answered with RESULTs.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"xyzgrid.io/internal/protocol"
	"xyzgrid.io/internal/registry"
)

// CommandRecord describes one execute message and its outcome, for audit
// sinks (command log, sqlite index).
type CommandRecord struct {
	Time     uint64
	Session  string
	Sender   string
	MsgType  string
	Accepted bool
	Code     string
	TokenID  string
	Raw      json.RawMessage
}

// Hooks observe applied commands. OnCommand runs while the registry lock
// is held, so it may read registry state but must not block.
type Hooks struct {
	OnCommand func(rec CommandRecord)
}

type Server struct {
	reg     *registry.Registry
	adapter *protocol.Adapter
	log     *log.Logger
	hooks   Hooks

	// now is the logical clock for command application.
	now func() uint64

	// mu serializes command application and queries; commands are applied
	// one at a time in arrival order, with no internal queueing.
	mu sync.Mutex

	upgrader websocket.Upgrader
}

func NewServer(reg *registry.Registry, logger *log.Logger, hooks Hooks) *Server {
	return &Server{
		reg:     reg,
		adapter: protocol.NewAdapter(reg),
		log:     logger,
		hooks:   hooks,
		now:     func() uint64 { return uint64(time.Now().UnixNano()) },
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// SetClock overrides the logical clock. Test hook.
func (s *Server) SetClock(now func() uint64) { s.now = now }

// Snapshot captures registry state with command application paused.
func (s *Server) Snapshot() registry.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Export()
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, sender := s.handshake(conn)
		if sessionID == "" {
			return
		}

		out := make(chan []byte, 64)
		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for b := range out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			res := s.dispatch(sessionID, sender, msg)
			b, err := json.Marshal(res)
			if err != nil {
				s.log.Printf("marshal result: %v", err)
				continue
			}
			select {
			case out <- b:
			case <-done:
			}
		}

		close(out)
		<-done
	}
}

// dispatch routes one raw message and produces its RESULT.
func (s *Server) dispatch(sessionID, sender string, raw []byte) protocol.ResultMsg {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return reject("", protocol.ErrProtoBadRequest, "malformed message")
	}
	if protocol.IsExecuteType(base.Type) {
		return s.applyExecute(sessionID, sender, base, raw)
	}
	if protocol.IsQueryType(base.Type) {
		return s.applyQuery(base, raw)
	}
	return reject(base.ID, protocol.ErrProtoBadRequest, "unknown message type "+base.Type)
}

func (s *Server) applyExecute(sessionID, sender string, base protocol.BaseMessage, raw []byte) protocol.ResultMsg {
	msg, err := protocol.DecodeExecute(raw)
	if err != nil {
		return reject(base.ID, protocol.ErrProtoBadRequest, err.Error())
	}
	// The session identity is authoritative; a command claiming another
	// sender is rejected before it reaches the registry.
	if msg.MsgSender() != sender {
		return reject(base.ID, protocol.ErrUnauthorized, "sender does not match session identity")
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.adapter.Execute(now, msg)

	res := protocol.ResultMsg{Type: protocol.TypeResult, For: base.ID, Accepted: err == nil}
	if err != nil {
		res.Code = protocol.CodeFor(err)
		res.Message = err.Error()
	} else if receipt != nil {
		if b, merr := json.Marshal(receipt); merr == nil {
			res.Data = b
		}
	}

	if s.hooks.OnCommand != nil {
		s.hooks.OnCommand(CommandRecord{
			Time:     now,
			Session:  sessionID,
			Sender:   sender,
			MsgType:  base.Type,
			Accepted: err == nil,
			Code:     res.Code,
			TokenID:  tokenIDOf(msg, receipt),
			Raw:      json.RawMessage(raw),
		})
	}
	return res
}

func (s *Server) applyQuery(base protocol.BaseMessage, raw []byte) protocol.ResultMsg {
	q, err := protocol.DecodeQuery(raw)
	if err != nil {
		return reject(base.ID, protocol.ErrProtoBadRequest, err.Error())
	}

	now := s.now()

	s.mu.Lock()
	resp, err := s.adapter.Query(now, q)
	s.mu.Unlock()

	if err != nil {
		return reject(base.ID, protocol.CodeFor(err), err.Error())
	}
	res := protocol.ResultMsg{Type: protocol.TypeResult, For: base.ID, Accepted: true}
	if b, merr := json.Marshal(resp); merr == nil {
		res.Data = b
	}
	return res
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID, sender string) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return "", ""
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", ""
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return "", ""
	}
	if hello.Sender == "" {
		closePolicy(conn, "empty sender")
		return "", ""
	}

	sessionID = uuid.NewString()

	// Another session may be applying UPDATE_CONFIG; registry reads take
	// the apply lock like everything else.
	s.mu.Lock()
	_, version := s.reg.Config()
	info := s.reg.Ledger().Info()
	s.mu.Unlock()

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Contract:        info,
		ConfigVersion:   version,
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return "", ""
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", ""
	}
	return sessionID, hello.Sender
}

func reject(id, code, message string) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:     protocol.TypeResult,
		For:      id,
		Accepted: false,
		Code:     code,
		Message:  message,
	}
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

// tokenIDOf extracts the token a command touched, if any.
func tokenIDOf(msg protocol.ExecuteMsg, receipt any) string {
	switch m := msg.(type) {
	case *protocol.MintMsg:
		if r, ok := receipt.(registry.MintReceipt); ok {
			return r.TokenID
		}
	case *protocol.MoveMsg:
		return m.TokenID
	case *protocol.TransferNftMsg:
		return m.TokenID
	case *protocol.SendNftMsg:
		return m.TokenID
	case *protocol.ApproveMsg:
		return m.TokenID
	case *protocol.RevokeMsg:
		return m.TokenID
	}
	return ""
}
