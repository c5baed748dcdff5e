// Package assistant routes a guest message through extraction, field
// classification, property lookup and aggregation to a reply.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/dreamstate/guest-assistant/internal/dataset"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/monitoring"
	"github.com/dreamstate/guest-assistant/internal/observability"
	"github.com/dreamstate/guest-assistant/internal/query"
)

// Extractor reads a message into its intent and hints.
type Extractor interface {
	Extract(ctx context.Context, message string) (*domain.ExtractedQuery, error)
}

// Responder answers messages that need no dataset lookup.
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Dataset provides the current property snapshot.
type Dataset interface {
	Load(ctx context.Context) (*dataset.Snapshot, error)
}

// Auditor records answered queries.
type Auditor interface {
	LogQuery(ctx context.Context, event monitoring.QueryEvent) error
}

// Reply is the engine's answer to one message.
type Reply struct {
	Text        string
	Query       *domain.ExtractedQuery
	Outcome     monitoring.Outcome
	MatchedUnit string
}

// Engine answers guest messages.
type Engine struct {
	extractor  Extractor
	responder  Responder
	dataset    Dataset
	classifier *query.FieldClassifier
	audit      Auditor
	logger     *observability.Logger
	now        func() time.Time
}

// NewEngine wires the collaborators. audit may be nil.
func NewEngine(extractor Extractor, responder Responder, data Dataset, audit Auditor, logger *observability.Logger) *Engine {
	return &Engine{
		extractor:  extractor,
		responder:  responder,
		dataset:    data,
		classifier: query.NewFieldClassifier(),
		audit:      audit,
		logger:     logger.WithComponent("engine"),
		now:        time.Now,
	}
}

// Answer extracts, classifies and answers message. Only configuration and
// upstream failures are returned as errors; every other outcome is a reply.
func (e *Engine) Answer(ctx context.Context, message string) (*Reply, error) {
	start := e.now()

	q, err := e.extractor.Extract(ctx, message)
	if err != nil {
		e.record(ctx, start, domain.DefaultExtractedQuery(message), &Reply{Outcome: monitoring.OutcomeError})
		return nil, err
	}

	reply, err := e.AnswerQuery(ctx, q)
	if err != nil {
		e.record(ctx, start, q, &Reply{Outcome: monitoring.OutcomeError})
		return nil, err
	}

	e.record(ctx, start, q, reply)
	return reply, nil
}

// AnswerQuery answers an already extracted query. It fills q.FieldType.
func (e *Engine) AnswerQuery(ctx context.Context, q *domain.ExtractedQuery) (*Reply, error) {
	if field, ok := e.classifier.Classify(domain.Deref(q.InformationToFind), q.InputMessage); ok {
		s := string(field)
		q.FieldType = &s
	} else {
		q.FieldType = nil
	}

	e.logger.WithContext(ctx).Debug().
		Str("intent", string(q.Intent)).
		Str("property", domain.Deref(q.PropertyName)).
		Str("info", domain.Deref(q.InformationToFind)).
		Str("field_type", domain.Deref(q.FieldType)).
		Msg("Query extracted")

	switch q.Intent {
	case domain.IntentPropertyQuery:
		return e.answerProperty(ctx, q)
	case domain.IntentDatasetQuery:
		return e.answerDataset(ctx, q)
	default:
		text, err := e.responder.Reply(ctx, q.InputMessage)
		if err != nil {
			return nil, err
		}
		return &Reply{Text: text, Query: q, Outcome: monitoring.OutcomeGeneral}, nil
	}
}

func (e *Engine) answerProperty(ctx context.Context, q *domain.ExtractedQuery) (*Reply, error) {
	name := strings.TrimSpace(domain.Deref(q.PropertyName))
	if name == "" {
		return &Reply{Text: query.NeedPropertyMessage, Query: q, Outcome: monitoring.OutcomeNeedsProperty}, nil
	}
	field := query.FieldID(domain.Deref(q.FieldType))
	if field == "" {
		return &Reply{Text: query.NeedFieldMessage(name), Query: q, Outcome: monitoring.OutcomeUnclassified}, nil
	}

	snap, err := e.dataset.Load(ctx)
	if err != nil {
		return nil, err
	}

	row := query.MatchProperty(name, snap)
	if row == nil {
		return &Reply{Text: query.PropertyNotFoundMessage(name), Query: q, Outcome: monitoring.OutcomePropertyNotFound}, nil
	}

	reply := &Reply{
		Text:        query.Resolve(snap, row, field, name, domain.Deref(q.InformationToFind)),
		Query:       q,
		Outcome:     monitoring.OutcomeAnswered,
		MatchedUnit: dataset.Cell(row, snap.ColumnIndex(query.ColumnUnit)),
	}
	if _, ok := query.Lookup(snap, row, field); !ok {
		reply.Outcome = monitoring.OutcomeNotListed
	}
	return reply, nil
}

func (e *Engine) answerDataset(ctx context.Context, q *domain.ExtractedQuery) (*Reply, error) {
	intent := query.DatasetIntentID(strings.TrimSpace(domain.Deref(q.DatasetIntentType)))
	if !intent.Supported() {
		return &Reply{Text: query.UnsupportedDatasetMessage, Query: q, Outcome: monitoring.OutcomeAggregate}, nil
	}

	snap, err := e.dataset.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Text:    query.Aggregate(intent, domain.Deref(q.DatasetOwnerName), snap),
		Query:   q,
		Outcome: monitoring.OutcomeAggregate,
	}, nil
}

func (e *Engine) record(ctx context.Context, start time.Time, q *domain.ExtractedQuery, reply *Reply) {
	if e.audit == nil {
		return
	}
	event := monitoring.QueryEvent{
		RequestID:     observability.TraceIDFromContext(ctx),
		Intent:        string(q.Intent),
		PropertyName:  domain.Deref(q.PropertyName),
		MatchedUnit:   reply.MatchedUnit,
		FieldType:     domain.Deref(q.FieldType),
		DatasetIntent: domain.Deref(q.DatasetIntentType),
		Outcome:       reply.Outcome,
		LatencyMs:     e.now().Sub(start).Milliseconds(),
	}
	if err := e.audit.LogQuery(ctx, event); err != nil {
		e.logger.Warn().Err(err).Msg("Audit write failed")
	}
}
