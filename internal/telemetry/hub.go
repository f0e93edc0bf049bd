package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/tuner-control/tcc/internal/config"
)

// Event types emitted by the container.
const (
	EventReady            = "ready"
	EventHeartbeat        = "heartbeat"
	EventFrequencyChanged = "frequencyChanged"
	EventRecalled         = "recalled"
	EventStationTuned     = "stationTuned"
	EventFault            = "fault"
)

// sendTimeout is how long a publish waits on a client channel before the
// event is dropped for that client.
const sendTimeout = 100 * time.Millisecond

// Event is a single telemetry record. Tuner-scoped events get monotonic
// IDs and are buffered for Last-Event-ID replay.
type Event struct {
	ID    int64                  `json:"id,omitempty"`
	Type  string                 `json:"type"`
	Data  map[string]interface{} `json:"data"`
	Tuner string                 `json:"tuner,omitempty"`
}

// Client is one SSE subscriber.
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Context context.Context
	Cancel  context.CancelFunc
	LastID  int64
	Tuner   string
	Events  chan Event
	once    sync.Once
	mu      sync.Mutex // serializes Writer access
}

// Hub distributes telemetry over SSE with per-tuner replay buffers.
//
// Lock ordering: h.mu before EventBuffer.mu. Each client channel is
// closed exactly once through its sync.Once.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	tunerIDs map[string]*int64
	buffers  map[string]*EventBuffer

	timing config.TimingConfig

	heartbeatTicker *time.Ticker
	stopHeartbeat   chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewHub creates a telemetry hub with the given timing configuration.
func NewHub(timing config.TimingConfig) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		tunerIDs: make(map[string]*int64),
		buffers:  make(map[string]*EventBuffer),
		timing:   timing,
		done:     make(chan struct{}),
	}
}

// Subscribe attaches an SSE client and blocks until it disconnects or the
// hub stops. A Last-Event-ID header resumes the client from its per-tuner
// buffer; a ?tuner= query scopes the resume.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := h.newClient(ctx, w, r)

	h.mu.Lock()
	h.clients[client.ID] = client
	if len(h.clients) == 1 && h.heartbeatTicker == nil {
		h.beginHeartbeat()
	}
	h.mu.Unlock()

	log.Debug().Str("client", client.ID).Str("tuner", client.Tuner).Msg("telemetry client subscribed")

	ready := Event{
		ID:   h.nextEventID(client.Tuner),
		Type: EventReady,
		Data: map[string]interface{}{"ts": time.Now().UTC().Format(time.RFC3339)},
	}
	if err := h.writeEvent(client, ready); err != nil {
		h.dropClient(client.ID)
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	if client.LastID > 0 {
		if err := h.resume(client); err != nil {
			h.dropClient(client.ID)
			return fmt.Errorf("failed to replay events: %w", err)
		}
	}

	h.serve(client)
	return nil
}

func (h *Hub) newClient(ctx context.Context, w http.ResponseWriter, r *http.Request) *Client {
	clientCtx, cancel := context.WithCancel(ctx)

	var lastID int64
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			lastID = id
		}
	}

	return &Client{
		ID:      xid.New().String(),
		Writer:  w,
		Context: clientCtx,
		Cancel:  cancel,
		LastID:  lastID,
		Tuner:   r.URL.Query().Get("tuner"),
		Events:  make(chan Event, 100),
	}
}

// Publish assigns the event an ID if needed, records tuner-scoped events
// in their replay buffer, and fans the event out to every client. Clients
// that cannot accept within sendTimeout lose the event.
func (h *Hub) Publish(event Event) error {
	if event.ID == 0 {
		event.ID = h.nextEventID(event.Tuner)
	}
	if event.Tuner != "" {
		h.record(event)
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		h.offer(client, event)
	}
	return nil
}

func (h *Hub) offer(client *Client, event Event) {
	select {
	case <-client.Context.Done():
	case <-h.done:
	case client.Events <- event:
	case <-time.After(sendTimeout):
		log.Warn().Str("client", client.ID).Str("type", event.Type).Msg("dropped event for slow client")
	}
}

// PublishTuner publishes an event scoped to a specific tuner.
func (h *Hub) PublishTuner(tunerID string, event Event) error {
	event.Tuner = tunerID
	return h.Publish(event)
}

// resume replays the buffered events the client has not yet seen.
func (h *Hub) resume(client *Client) error {
	h.mu.RLock()
	buffer := h.buffers[client.Tuner]
	h.mu.RUnlock()

	if buffer == nil {
		return nil
	}
	for _, event := range buffer.EventsAfter(client.LastID) {
		if err := h.writeEvent(client, event); err != nil {
			return err
		}
	}
	return nil
}

// writeEvent emits one SSE frame (id, event, data) and flushes it.
func (h *Hub) writeEvent(client *Client, event Event) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	frame := ""
	if event.ID > 0 {
		frame = fmt.Sprintf("id: %d\n", event.ID)
	}
	frame += fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)

	if _, err := fmt.Fprint(client.Writer, frame); err != nil {
		return fmt.Errorf("failed to write event frame: %w", err)
	}
	if flusher, ok := client.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// serve pumps the client's channel to its connection until it goes away.
func (h *Hub) serve(client *Client) {
	defer func() {
		client.once.Do(func() { close(client.Events) })
		h.dropClient(client.ID)
	}()

	for {
		select {
		case <-client.Context.Done():
			return
		case <-h.done:
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if err := h.writeEvent(client, event); err != nil {
				log.Debug().Str("client", client.ID).Err(err).Msg("telemetry client write failed")
				return
			}
		}
	}
}

// dropClient removes a client; the heartbeat stops with the last one.
func (h *Hub) dropClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[clientID]
	if !exists {
		return
	}

	client.Cancel()
	delete(h.clients, clientID)

	if len(h.clients) == 0 {
		h.endHeartbeatLocked()
	}
}

// nextEventID increments the per-tuner counter, creating it on first use.
// Events without a tuner share the global counter.
func (h *Hub) nextEventID(tunerID string) int64 {
	if tunerID == "" {
		tunerID = "global"
	}

	h.mu.RLock()
	counter := h.tunerIDs[tunerID]
	h.mu.RUnlock()

	if counter == nil {
		h.mu.Lock()
		if counter = h.tunerIDs[tunerID]; counter == nil {
			counter = new(int64)
			h.tunerIDs[tunerID] = counter
		}
		h.mu.Unlock()
	}

	return atomic.AddInt64(counter, 1)
}

// record appends the event to its tuner's buffer. Buffers are never
// removed from the map, so the reference stays valid after unlock.
func (h *Hub) record(event Event) {
	h.mu.Lock()
	buffer := h.buffers[event.Tuner]
	if buffer == nil {
		buffer = NewEventBuffer(h.timing.EventBufferSize)
		h.buffers[event.Tuner] = buffer
	}
	h.mu.Unlock()

	buffer.Add(event)
}

// beginHeartbeat starts the heartbeat loop. Caller holds h.mu and has
// verified no ticker is running.
func (h *Hub) beginHeartbeat() {
	interval := h.timing.HeartbeatInterval + h.timing.HeartbeatJitter/2

	h.heartbeatTicker = time.NewTicker(interval)
	h.stopHeartbeat = make(chan struct{})

	ticker := h.heartbeatTicker
	stop := h.stopHeartbeat

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ticker.C:
				_ = h.Publish(Event{
					Type: EventHeartbeat,
					Data: map[string]interface{}{"ts": time.Now().UTC().Format(time.RFC3339)},
				})
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// endHeartbeatLocked stops the heartbeat loop. Caller holds h.mu.
func (h *Hub) endHeartbeatLocked() {
	if h.heartbeatTicker != nil {
		h.heartbeatTicker.Stop()
		h.heartbeatTicker = nil
	}
	if h.stopHeartbeat != nil {
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
}

// Stop disconnects every client and shuts the hub down.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	for _, client := range h.clients {
		client.Cancel()
	}
	h.endHeartbeatLocked()
	h.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("telemetry hub shutdown timed out")
	}

	h.mu.Lock()
	for _, client := range h.clients {
		client.once.Do(func() { close(client.Events) })
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
}

// EventBuffer is a bounded FIFO of events for one tuner.
type EventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	nextID   int64
}

// NewEventBuffer creates an event buffer with the given capacity.
func NewEventBuffer(capacity int) *EventBuffer {
	return &EventBuffer{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		nextID:   1,
	}
}

// Add appends an event, evicting the oldest once capacity is reached.
func (b *EventBuffer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if event.ID == 0 {
		event.ID = b.nextID
		b.nextID++
	}

	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

// EventsAfter returns buffered events with IDs greater than lastID.
func (b *EventBuffer) EventsAfter(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, event := range b.events {
		if event.ID > lastID {
			result = append(result, event)
		}
	}
	return result
}

// Size returns the current number of buffered events.
func (b *EventBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
