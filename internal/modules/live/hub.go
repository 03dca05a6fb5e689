package live

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Availability is one seat count for a train. Version is the train's ledger
// version; a client keeps the message with the highest one.
type Availability struct {
	TrainID        int64     `json:"train_id"`
	Version        int64     `json:"version"`
	AvailableSeats int       `json:"available_seats"`
	TotalSeats     int       `json:"total_seats"`
	At             time.Time `json:"at"`
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// sequence serializes fan-out for one train and remembers the last version sent.
type sequence struct {
	mu      sync.Mutex
	version int64
}

// Hub fans seat availability out to websocket subscribers, grouped by train.
type Hub struct {
	trains map[int64]map[*subscriber]struct{}
	seqs   map[int64]*sequence
	mutex  sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		trains: make(map[int64]map[*subscriber]struct{}),
		seqs:   make(map[int64]*sequence),
	}
}

func (h *Hub) sequence(trainID int64) *sequence {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	seq, ok := h.seqs[trainID]
	if !ok {
		seq = &sequence{}
		h.seqs[trainID] = seq
	}
	return seq
}

func (h *Hub) register(trainID int64, conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}
	h.mutex.Lock()
	defer h.mutex.Unlock()

	set, ok := h.trains[trainID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.trains[trainID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) unregister(trainID int64, sub *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if set, ok := h.trains[trainID]; ok {
		if _, exists := set[sub]; exists {
			_ = sub.conn.Close()
			delete(set, sub)
		}
		if len(set) == 0 {
			delete(h.trains, trainID)
		}
	}
}

// PublishAvailability sends the counts at version to every subscriber of the
// train. A version at or below one already sent is dropped, so subscribers see
// counts in commit order. Subscribers that fail a write are dropped too. It
// returns how many were reached.
func (h *Hub) PublishAvailability(trainID, version int64, available, total int) int {
	seq := h.sequence(trainID)
	seq.mu.Lock()
	defer seq.mu.Unlock()
	if version <= seq.version {
		return 0
	}
	seq.version = version

	msg := Availability{TrainID: trainID, Version: version, AvailableSeats: available, TotalSeats: total, At: time.Now().UTC()}

	h.mutex.RLock()
	subs := make([]*subscriber, 0, len(h.trains[trainID]))
	for sub := range h.trains[trainID] {
		subs = append(subs, sub)
	}
	h.mutex.RUnlock()

	sent := 0
	for _, sub := range subs {
		if err := sub.write(msg); err != nil {
			h.unregister(trainID, sub)
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) SubscriberCount(trainID int64) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.trains[trainID])
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for trainID, set := range h.trains {
		for sub := range set {
			_ = sub.conn.Close()
		}
		delete(h.trains, trainID)
	}
	clear(h.seqs)
}
