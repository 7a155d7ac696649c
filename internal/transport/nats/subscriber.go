// Package nats consumes catalog change notifications and turns them into
// asynchronous indexing jobs.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/metrics"
	"github.com/kailas-cloud/tripdex/internal/usecase/indexing"
	"github.com/kailas-cloud/tripdex/internal/version"
)

// Event types published by the catalog.
const (
	EventUpserted = "upserted"
	EventDeleted  = "deleted"
)

// DefaultSubject matches every destination event.
const DefaultSubject = "catalog.destinations.*"

const tracerName = "github.com/kailas-cloud/tripdex/internal/transport/nats"

// Event is a catalog change notification. Record is optional on upserts.
type Event struct {
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Record *destination.Record `json:"record,omitempty"`
}

// Submitter accepts indexing jobs without blocking.
type Submitter interface {
	Submit(job indexing.Job) bool
}

// Config holds the subscription settings.
type Config struct {
	URL        string
	Subject    string
	QueueGroup string
}

// Subscriber forwards catalog events to the indexing dispatcher.
type Subscriber struct {
	conn   *natsgo.Conn
	cfg    Config
	sink   Submitter
	logger *zap.Logger
	sub    *natsgo.Subscription
}

// Connect dials NATS and keeps reconnecting forever.
func Connect(url string, logger *zap.Logger) (*natsgo.Conn, error) {
	conn, err := natsgo.Connect(url,
		natsgo.Name(version.ClientName()),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		natsgo.ReconnectHandler(func(c *natsgo.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return conn, nil
}

// NewSubscriber creates a subscriber. An empty subject falls back to DefaultSubject.
func NewSubscriber(conn *natsgo.Conn, cfg Config, sink Submitter, logger *zap.Logger) *Subscriber {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	return &Subscriber{
		conn:   conn,
		cfg:    cfg,
		sink:   sink,
		logger: logger.With(zap.String("component", "nats")),
	}
}

// Start subscribes, joining the queue group when one is configured.
func (s *Subscriber) Start() error {
	var (
		sub *natsgo.Subscription
		err error
	)
	if s.cfg.QueueGroup != "" {
		sub, err = s.conn.QueueSubscribe(s.cfg.Subject, s.cfg.QueueGroup, s.handle)
	} else {
		sub, err = s.conn.Subscribe(s.cfg.Subject, s.handle)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Subject, err)
	}
	s.sub = sub
	s.logger.Info("Subscribed to catalog events",
		zap.String("subject", s.cfg.Subject), zap.String("queue_group", s.cfg.QueueGroup))
	return nil
}

// Drain stops receiving and lets pending messages finish.
func (s *Subscriber) Drain() error {
	if s.sub == nil {
		return nil
	}
	if err := s.sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", s.cfg.Subject, err)
	}
	return nil
}

func (s *Subscriber) handle(msg *natsgo.Msg) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "catalog.event",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	log := s.logger.With(zap.String("subject", msg.Subject))
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		log = log.With(zap.String("trace_id", sc.TraceID().String()))
	}

	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		metrics.CatalogEventsTotal.WithLabelValues("unknown", "malformed").Inc()
		log.Warn("Dropping malformed catalog event", zap.Error(err))
		return
	}
	job, err := toJob(ev)
	if err != nil {
		metrics.CatalogEventsTotal.WithLabelValues(eventLabel(ev.Type), "malformed").Inc()
		log.Warn("Dropping invalid catalog event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	if !s.sink.Submit(job) {
		metrics.CatalogEventsTotal.WithLabelValues(ev.Type, "rejected").Inc()
		log.Warn("Catalog event not accepted", zap.String("destination_id", job.NativeID))
		return
	}
	metrics.CatalogEventsTotal.WithLabelValues(ev.Type, "accepted").Inc()
	log.Debug("Catalog event accepted", zap.String("type", ev.Type), zap.String("destination_id", job.NativeID))
}

func toJob(ev Event) (indexing.Job, error) {
	id := strings.TrimSpace(ev.ID)
	if id == "" && ev.Record != nil {
		id = strings.TrimSpace(ev.Record.ID)
	}
	if id == "" {
		return indexing.Job{}, fmt.Errorf("event without destination id")
	}
	if ev.Record != nil && ev.Record.ID != id {
		return indexing.Job{}, fmt.Errorf("record id %q does not match event id %q", ev.Record.ID, id)
	}

	switch ev.Type {
	case EventUpserted:
		return indexing.Job{Op: indexing.OpUpsert, NativeID: id, Record: ev.Record}, nil
	case EventDeleted:
		return indexing.Job{Op: indexing.OpRemove, NativeID: id}, nil
	default:
		return indexing.Job{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// eventLabel keeps metric cardinality bounded.
func eventLabel(t string) string {
	if t == EventUpserted || t == EventDeleted {
		return t
	}
	return "unknown"
}
