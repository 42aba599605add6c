package ws

import (
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

const (
	DefaultWriteWait  = 10 * time.Second
	DefaultPongWait   = 60 * time.Second
	DefaultPingPeriod = DefaultPongWait * 9 / 10
	sendBuffer        = 256
)

type Config struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// Hub хранит подключения по группам синхронизации и рассылает уведомления об изменениях
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	closed bool
	config Config
	log    *slog.Logger
	now    func() time.Time
}

func NewHub(log *slog.Logger, config Config) *Hub {
	if config.WriteWait <= 0 {
		config.WriteWait = DefaultWriteWait
	}
	if config.PongWait <= 0 {
		config.PongWait = DefaultPongWait
	}
	if config.PingPeriod <= 0 || config.PingPeriod >= config.PongWait {
		config.PingPeriod = config.PongWait * 9 / 10
	}

	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		config: config,
		log:    log.With(slog.String("component", "ws_hub")),
		now:    time.Now,
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.groups[c.groupID] == nil {
		h.groups[c.groupID] = make(map[*Client]struct{})
	}
	h.groups[c.groupID][c] = struct{}{}

	h.log.Debug("client connected",
		slog.String("group_id", c.groupID),
		slog.String("device_id", c.deviceID),
	)
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove вызывается под h.mu
func (h *Hub) remove(c *Client) {
	clients, ok := h.groups[c.groupID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}

	delete(clients, c)
	if len(clients) == 0 {
		delete(h.groups, c.groupID)
	}
	close(c.send)

	h.log.Debug("client disconnected",
		slog.String("group_id", c.groupID),
		slog.String("device_id", c.deviceID),
	)
}

// NotifyGroup отправляет changes_available всем подключениям группы, кроме устройства-автора.
// Клиент с переполненным буфером отключается.
func (h *Hub) NotifyGroup(groupID, authorDeviceID string) {
	payload, err := json.Marshal(Message{
		Type:      TypeChangesAvailable,
		GroupID:   groupID,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		h.log.Error("marshal notification", slog.String("error", err.Error()))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.groups[groupID] {
		if c.deviceID == authorDeviceID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}

	h.mu.Lock()
	for _, c := range slow {
		h.log.Warn("dropping slow client",
			slog.String("group_id", groupID),
			slog.String("device_id", c.deviceID),
		)
		h.remove(c)
	}
	h.mu.Unlock()
}

// Connections число подключений группы
func (h *Hub) Connections(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}

// Close отключает всех клиентов и перестает принимать новых
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.groups {
		for c := range clients {
			h.remove(c)
		}
	}
}
