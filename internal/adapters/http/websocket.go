package http

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/obliquemerc/internal/adapters/nats"
	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to render feeds.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Format string `json:"format"` // "png" | "geojson" ("" = all formats)
}

// renderSubject maps a format filter to a NATS subject.
func renderSubject(format string) string {
	if format == "" {
		return natsadapter.SubjectRendered + ".>"
	}
	return natsadapter.RenderedSubject(domain.Format(format))
}

// subjectsOverlap reports whether two render subjects can deliver the same event.
func subjectsOverlap(a, b string) bool {
	all := renderSubject("")
	return a == b || a == all || b == all
}

type unsubscriber interface {
	Unsubscribe() error
}

// feedSet tracks one client's render subscriptions. No two active subjects
// overlap, so each event reaches the client once.
type feedSet struct {
	subscribe func(subject string) (unsubscriber, error)
	active    map[string]unsubscriber
}

func newFeedSet(subscribe func(subject string) (unsubscriber, error)) *feedSet {
	return &feedSet{subscribe: subscribe, active: make(map[string]unsubscriber)}
}

// add subscribes to subject and drops any active subscription it overlaps,
// returning the dropped subjects. The new subscription is opened first so no
// event is missed during the swap.
func (f *feedSet) add(subject string) ([]string, error) {
	sub, err := f.subscribe(subject)
	if err != nil {
		return nil, err
	}
	var replaced []string
	for subj, old := range f.active {
		if subjectsOverlap(subj, subject) {
			_ = old.Unsubscribe()
			delete(f.active, subj)
			replaced = append(replaced, subj)
		}
	}
	sort.Strings(replaced)
	f.active[subject] = sub
	return replaced, nil
}

func (f *feedSet) has(subject string) bool {
	_, ok := f.active[subject]
	return ok
}

func (f *feedSet) remove(subject string) bool {
	sub, ok := f.active[subject]
	if ok {
		_ = sub.Unsubscribe()
		delete(f.active, subject)
	}
	return ok
}

func (f *feedSet) close() {
	for subj := range f.active {
		f.remove(subj)
	}
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// render events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","format":"png"}
// Every client starts subscribed to all formats; subscribing to one format
// replaces that, and subscribing to all formats again replaces any filters.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		feeds := newFeedSet(func(subject string) (unsubscriber, error) {
			return nc.Subscribe(subject, relay)
		})
		defer feeds.close()

		if _, err := feeds.add(renderSubject("")); err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch domain.Format(m.Format) {
			case "", domain.FormatPNG, domain.FormatGeoJSON:
			default:
				_ = writeJSON(map[string]string{"error": "unknown format: " + m.Format})
				continue
			}
			subject := renderSubject(m.Format)

			switch m.Action {
			case "subscribe":
				if feeds.has(subject) {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				replaced, err := feeds.add(subject)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]interface{}{"status": "subscribed", "subject": subject, "replaced": replaced})

			case "unsubscribe":
				if feeds.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
