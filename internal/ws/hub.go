package ws

import (
	"encoding/json"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/room"
)

// Hub owns room membership for live connections and fans out state
// changes and run results. All messages are processed by a single
// goroutine, so updates land on the store in arrival order and every
// room sees broadcasts in that same order.
type Hub struct {
	machine *room.Machine

	// Connected clients, and members by room. A client belongs to at
	// most one room; joining another room leaves the previous one.
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	inbound    chan *inboundMessage
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

type inboundMessage struct {
	sender   *Client
	envelope Envelope
}

func NewHub(machine *room.Machine) *Hub {
	return &Hub{
		machine:    machine,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		inbound:    make(chan *inboundMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.leaveRoom(client)
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.inbound:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg *inboundMessage) {
	switch msg.envelope.Type {
	case TypeJoin:
		var p JoinPayload
		if err := json.Unmarshal(msg.envelope.Payload, &p); err != nil {
			return
		}
		h.handleJoin(msg.sender, p)

	case TypeUpdate:
		var p UpdatePayload
		if err := json.Unmarshal(msg.envelope.Payload, &p); err != nil {
			return
		}
		h.handleUpdate(msg.sender, p)

	case TypeRunBroadcast:
		var p RunBroadcastPayload
		if err := json.Unmarshal(msg.envelope.Payload, &p); err != nil {
			return
		}
		h.handleRunBroadcast(msg.sender, p)

	default:
		zap.L().Debug("unknown message type", zap.String("type", msg.envelope.Type))
	}
}

// handleJoin creates the room if needed, sends the full snapshot back to
// the joiner only, and moves the joiner into the room's broadcast group.
func (h *Hub) handleJoin(sender *Client, p JoinPayload) {
	if p.RoomID == "" {
		return
	}

	// The sender's readPump may still be draining after the hub dropped
	// it as a slow consumer. Its send channel is closed then, so it must
	// never re-enter a broadcast group.
	h.mu.RLock()
	alive := h.clients[sender]
	h.mu.RUnlock()
	if !alive {
		return
	}

	snapshot, err := h.machine.Join(p.RoomID)
	if err != nil {
		zap.L().Error("join failed", zap.String("room", p.RoomID), zap.Error(err))
		return
	}

	h.mu.Lock()
	h.leaveRoom(sender)
	members, ok := h.rooms[p.RoomID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[p.RoomID] = members
	}
	members[sender] = true
	sender.roomID = p.RoomID
	memberCount := len(members)
	h.mu.Unlock()

	zap.L().Info("client joined room",
		zap.String("room", p.RoomID),
		zap.Int("members", memberCount))

	data, err := encode(TypeState, StatePayload{
		Code:        snapshot.Code,
		Language:    snapshot.Language,
		LastUpdated: snapshot.LastUpdated,
	})
	if err != nil {
		return
	}
	h.deliver(sender, data)
}

// handleUpdate applies a last-write-wins update and broadcasts the
// sanitized result to every other member. Unknown rooms are a silent
// no-op: joins self-heal, so a stale id is the only way to get here.
func (h *Hub) handleUpdate(sender *Client, p UpdatePayload) {
	delta, ok := h.machine.ApplyUpdate(p.RoomID, p.Code.Ptr(), p.Language.Ptr())
	if !ok {
		return
	}

	data, err := encode(TypeStateDelta, StateDeltaPayload{
		Code:     delta.Code,
		Language: delta.Language,
	})
	if err != nil {
		return
	}
	h.broadcast(p.RoomID, sender, data)
}

// handleRunBroadcast relays an execution result to the other members.
// Run output is transient: it never touches the store.
func (h *Hub) handleRunBroadcast(sender *Client, p RunBroadcastPayload) {
	if p.RoomID == "" || !p.Output.Valid {
		return
	}

	data, err := encode(TypeRunResult, RunResultPayload{Output: p.Output.Value})
	if err != nil {
		return
	}
	h.broadcast(p.RoomID, sender, data)
}

// broadcast queues data to every member of roomID except sender.
func (h *Hub) broadcast(roomID string, sender *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.rooms[roomID] {
		if client == sender {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop it rather than stall the room.
			h.leaveRoom(client)
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		h.leaveRoom(client)
		delete(h.clients, client)
		close(client.send)
	}
}

// leaveRoom removes client from its current room, dropping the room's
// broadcast group once empty. Caller holds h.mu.
func (h *Hub) leaveRoom(client *Client) {
	if client.roomID == "" {
		return
	}
	if members, ok := h.rooms[client.roomID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, client.roomID)
			zap.L().Info("room emptied", zap.String("room", client.roomID))
		}
	}
	client.roomID = ""
}

// RoomCount reports how many rooms currently have members.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientCount reports how many connections are registered.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ActiveRooms maps each occupied room to its member count.
func (h *Hub) ActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.MapValues(h.rooms, func(members map[*Client]bool, _ string) int {
		return len(members)
	})
}
