package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dreamstate/guest-assistant/internal/cache"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/observability"
	"github.com/dreamstate/guest-assistant/internal/query"
)

// Extractor reads a guest message into an ExtractedQuery. Its output is a
// best-effort guess: unusable model output degrades to the "other" intent.
type Extractor struct {
	completer Completer
	model     string
	logger    *observability.Logger

	memo    cache.Client
	memoTTL time.Duration
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithMemo stores successful extractions in store for ttl, keyed by message hash.
func WithMemo(store cache.Client, ttl time.Duration) ExtractorOption {
	return func(e *Extractor) {
		e.memo = store
		e.memoTTL = ttl
	}
}

// WithModelKey namespaces memoized results by model so a model switch starts cold.
func WithModelKey(model string) ExtractorOption {
	return func(e *Extractor) { e.model = model }
}

// NewExtractor creates an extractor over completer.
func NewExtractor(completer Completer, logger *observability.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		completer: completer,
		model:     "default",
		logger:    logger.WithComponent("intent_extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// rawExtraction mirrors the JSON the model is asked to produce. Fields are
// decoded loosely since the model may emit null, "" or the wrong type.
type rawExtraction struct {
	Intent            string          `json:"intent"`
	PropertyName      json.RawMessage `json:"propertyName"`
	InformationToFind json.RawMessage `json:"informationToFind"`
	DatasetIntentType json.RawMessage `json:"datasetIntentType"`
	DatasetOwnerName  json.RawMessage `json:"datasetOwnerName"`
}

// Extract classifies message. Only endpoint failures are returned as errors.
func (e *Extractor) Extract(ctx context.Context, message string) (*domain.ExtractedQuery, error) {
	log := e.logger.WithContext(ctx).WithOperation("extract")
	key := e.memoKey(message)
	if q := e.lookup(ctx, log, key, message); q != nil {
		return q, nil
	}

	content, err := e.completer.Complete(ctx, CompletionRequest{
		System: extractorPrompt,
		User:   message,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	q, ok := parseExtraction(content, message)
	if !ok {
		log.Warn().Str("content", truncate(content, 200)).Msg("Extractor returned unusable JSON, using default")
		return q, nil
	}

	e.store(ctx, log, key, q)
	return q, nil
}

// parseExtraction decodes model output. ok is false when the safe default was used.
func parseExtraction(content, message string) (*domain.ExtractedQuery, bool) {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return domain.DefaultExtractedQuery(message), false
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return domain.DefaultExtractedQuery(message), false
	}

	return &domain.ExtractedQuery{
		Intent:            domain.ParseIntent(raw.Intent),
		PropertyName:      optionalText(raw.PropertyName),
		InformationToFind: optionalText(raw.InformationToFind),
		DatasetIntentType: optionalText(raw.DatasetIntentType),
		DatasetOwnerName:  optionalText(raw.DatasetOwnerName),
		InputMessage:      message,
	}, true
}

// optionalText accepts a JSON string or number; null, blanks and other types are nil.
func optionalText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), "null") {
			return nil
		}
		return domain.OptionalString(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return domain.OptionalString(n.String())
	}
	return nil
}

func (e *Extractor) memoKey(message string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(message)))
	return cache.Key("extract", e.model, hex.EncodeToString(sum[:]))
}

func (e *Extractor) lookup(ctx context.Context, log *observability.Logger, key, message string) *domain.ExtractedQuery {
	if e.memo == nil {
		return nil
	}
	data, err := e.memo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("Extraction memo read failed")
		}
		return nil
	}
	var q domain.ExtractedQuery
	if err := json.Unmarshal(data, &q); err != nil {
		return nil
	}
	q.InputMessage = message
	q.FieldType = nil
	log.Debug().Str("intent", string(q.Intent)).Msg("Extraction memo hit")
	return &q
}

func (e *Extractor) store(ctx context.Context, log *observability.Logger, key string, q *domain.ExtractedQuery) {
	if e.memo == nil {
		return
	}
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := e.memo.Set(ctx, key, data, e.memoTTL); err != nil {
		log.Warn().Err(err).Msg("Extraction memo write failed")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var extractorPrompt = buildExtractorPrompt()

func buildExtractorPrompt() string {
	ids := make([]string, 0, len(query.DatasetIntents()))
	for _, id := range query.DatasetIntents() {
		ids = append(ids, `"`+string(id)+`"`)
	}

	return `You are an information extractor for a property AI assistant for Dream State.

Given a guest's message, return a JSON object with this exact shape:

{
  "intent": "property_query" | "dataset_query" | "greeting" | "other",
  "propertyName": string | null,
  "informationToFind": string | null,
  "datasetIntentType": string | null,
  "datasetOwnerName": string | null,
  "inputMessage": string
}

Definitions:
- "property_query": the guest asks about one specific property or unit
  (examples: "Clara Lane", "Hidden Forest", "301", "Unit 125N").
- "dataset_query": the guest asks about the portfolio as a whole, e.g. how many
  properties there are, which owner has the most, or which properties an owner has.
- "greeting": simple greetings or small talk ("hi", "hello", "how are you").
- "other": anything that is not clearly one of the above.

propertyName:
- The property or unit from the message. It should correspond to either the
  "Unit #" (e.g. "301", "125N") or the "Title on Listing's Site"
  (e.g. "Clara Lane Retreat", "Hidden Forest").
- null if no property is mentioned.

informationToFind:
- A short description of what the guest wants, e.g. "wifi password",
  "door lock code", "trash day", "parking", "quiet hours", "pool temperature",
  "owner name", "handyman number".
- null if nothing is clear.

datasetIntentType:
- Only for "dataset_query". One of: ` + strings.Join(ids, ", ") + `.
- null otherwise.

datasetOwnerName:
- Only for "dataset_query" questions about a specific owner: the owner name as written.
- null otherwise.

inputMessage:
- Always the original user message exactly as received.

Return ONLY valid JSON, no markdown, no explanation.`
}
