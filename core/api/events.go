package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/pkg/broadcast"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// Event is the wire form of a registry change.
type Event struct {
	Kind             registry.ChangeKind      `json:"kind"`
	DatasetID        string                   `json:"dataset_id"`
	Previous         *constraint.StructureRef `json:"previous,omitempty"`
	Current          *constraint.StructureRef `json:"current,omitempty"`
	StructureChanged bool                     `json:"structure_changed"`
	Revision         uint64                   `json:"revision"`
	At               time.Time                `json:"at"`
}

// ChangeFeed is a registry.Observer that broadcasts every effective change.
// Unchanged publishes are not broadcast, and neither is a change older than
// one already broadcast for the same dataset, so subscribers see each
// dataset's revisions in increasing order.
type ChangeFeed struct {
	b   broadcast.Broadcaster[Event]
	now func() time.Time

	mu   sync.Mutex
	last map[string]uint64 // dataset id -> revision of the last broadcast change
}

// NewChangeFeed creates a feed publishing through b.
func NewChangeFeed(b broadcast.Broadcaster[Event]) *ChangeFeed {
	return &ChangeFeed{b: b, now: time.Now, last: make(map[string]uint64)}
}

// RegistryChanged implements registry.Observer.
func (f *ChangeFeed) RegistryChanged(c registry.Change) {
	if c.Kind == registry.Unchanged {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Revision <= f.last[c.DatasetID] {
		return
	}
	f.last[c.DatasetID] = c.Revision
	_ = f.b.Broadcast(context.Background(), broadcast.Message[Event]{Data: newEvent(c, f.now())})
}

// Subscribe returns a subscriber that lives until ctx ends.
func (f *ChangeFeed) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return f.b.Subscribe(ctx)
}

func newEvent(c registry.Change, at time.Time) Event {
	ev := Event{
		Kind:             c.Kind,
		DatasetID:        c.DatasetID,
		StructureChanged: c.StructureChanged,
		Revision:         c.Revision,
		At:               at.UTC(),
	}
	if !c.Previous.IsZero() {
		prev := c.Previous
		ev.Previous = &prev
	}
	if !c.Current.IsZero() {
		cur := c.Current
		ev.Current = &cur
	}
	return ev
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// events streams registry changes as JSON text frames. ?dataset=ID limits
// the stream to one dataset. Client messages are ignored.
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	filter := r.URL.Query().Get("dataset")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := a.feed.Subscribe(ctx)
	defer func() { _ = sub.Close() }()

	// Reading is required to process control frames and notice disconnects.
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					a.logger.Debug("websocket closed", logger.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	msgs := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			if filter != "" && msg.Data.DatasetID != filter {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg.Data); err != nil {
				return
			}
		}
	}
}
