package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPostCreated    = "yatube.post.created"
	SubjectPostUpdated    = "yatube.post.updated"
	SubjectPostDeleted    = "yatube.post.deleted"
	SubjectCommentCreated = "yatube.comment.created"
	SubjectFollowCreated  = "yatube.follow.created"
	SubjectFollowDeleted  = "yatube.follow.deleted"
)

// Publisher sends domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(subject string, event any) error
}

type NATS struct {
	conn *nats.Conn
}

// Connect retries like the other backing services do at startup.
func Connect(url string, log *slog.Logger) (*NATS, error) {
	var conn *nats.Conn
	var err error
	for i := 1; i <= 10; i++ {
		conn, err = nats.Connect(url, nats.Name("yatube"))
		if err == nil {
			log.Info("NATS connected", slog.String("url", url))
			return &NATS{conn: conn}, nil
		}
		log.Warn("waiting for NATS", slog.Int("attempt", i), slog.String("error", err.Error()))
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect to NATS after retries: %w", err)
}

func NewNATS(conn *nats.Conn) *NATS {
	return &NATS{conn: conn}
}

func (n *NATS) Publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	return n.conn.Publish(subject, data)
}

// Subscribe hands every raw event matching subject to handler.
func (n *NATS) Subscribe(subject string, handler func(subject string, data []byte)) (*nats.Subscription, error) {
	return n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
}

func (n *NATS) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

type Noop struct{}

func (Noop) Publish(string, any) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Subject string
	Event   any
}

func (r *Recorder) Publish(subject string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Subject: subject, Event: event})
	return nil
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

// Subjects lists recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}
