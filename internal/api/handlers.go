package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/room"
	"github.com/pairpad/pairpad/internal/ws"
)

// API is the out-of-band surface: room creation and inspection over plain
// request/response, used to mint a shareable room before any live
// connection exists.
type API struct {
	hub     *ws.Hub
	machine *room.Machine
}

func New(hub *ws.Hub, machine *room.Machine) *API {
	return &API{hub: hub, machine: machine}
}

func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/stats", a.StatsHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms", a.CreateRoomHandler).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId}", a.GetRoomHandler).Methods(http.MethodGet)
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("encoding response", zap.Error(err))
	}
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   room.Now(),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"active_rooms":   a.hub.RoomCount(),
		"active_clients": a.hub.ClientCount(),
		"rooms":          a.hub.ActiveRooms(),
	})
}

type createRoomRequest struct {
	Code     ws.Text `json:"code"`
	Language ws.Text `json:"language"`
}

// CreateRoomHandler mints a room under a fresh id. A malformed or missing
// body is treated as "no candidates supplied", never rejected: defaults
// fill in.
func (a *API) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = createRoomRequest{}
	}

	roomID := uuid.NewString()
	if _, err := a.machine.CreateNew(roomID, req.Code.Ptr(), req.Language.Ptr()); err != nil {
		zap.L().Error("create room", zap.String("room", roomID), zap.Error(err))
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"message": "failed to create room"})
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]string{"roomId": roomID})
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	snapshot, err := a.machine.Lookup(roomID)
	if errors.Is(err, room.ErrNotFound) {
		jsonResponse(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	if err != nil {
		zap.L().Error("get room", zap.String("room", roomID), zap.Error(err))
		jsonResponse(w, http.StatusInternalServerError, map[string]string{"message": "failed to get room"})
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"roomId":      snapshot.ID,
		"code":        snapshot.Code,
		"language":    snapshot.Language,
		"lastUpdated": snapshot.LastUpdated,
	})
}
