package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamstate/guest-assistant/internal/dataset"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/monitoring"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

type stubExtractor struct {
	query *domain.ExtractedQuery
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, message string) (*domain.ExtractedQuery, error) {
	if s.err != nil {
		return nil, s.err
	}
	q := *s.query
	q.InputMessage = message
	return &q, nil
}

type stubResponder struct {
	reply string
	err   error
	calls int
}

func (s *stubResponder) Reply(ctx context.Context, message string) (string, error) {
	s.calls++
	return s.reply, s.err
}

type stubDataset struct {
	snap  *dataset.Snapshot
	err   error
	loads int
}

func (s *stubDataset) Load(ctx context.Context) (*dataset.Snapshot, error) {
	s.loads++
	return s.snap, s.err
}

type recordingAuditor struct {
	events []monitoring.QueryEvent
}

func (r *recordingAuditor) LogQuery(ctx context.Context, event monitoring.QueryEvent) error {
	r.events = append(r.events, event)
	return nil
}

func strPtr(s string) *string { return &s }

func propertySnapshot(t *testing.T) *dataset.Snapshot {
	t.Helper()
	snap, err := dataset.NewSnapshot([][]string{
		{"Unit #", "Title on Listing's Site", "Wifi Login", "Parking", "Property Owner name"},
		{"101", "Clara Lane Retreat", "Network: ClaraGuest / Password: sunshine22", "Driveway, 2 cars", "DS (Dream State)/Maven"},
		{"102", "Hidden Forest", "", "", "Blue Door"},
		{"103", "Ocean View", "OceanNet / waves", "Street", "DS (Dream State)/Maven"},
	}, time.Now())
	require.NoError(t, err)
	return snap
}

type fixture struct {
	extractor *stubExtractor
	responder *stubResponder
	data      *stubDataset
	audit     *recordingAuditor
	engine    *Engine
}

func newFixture(t *testing.T, q *domain.ExtractedQuery) *fixture {
	t.Helper()
	f := &fixture{
		extractor: &stubExtractor{query: q},
		responder: &stubResponder{reply: "Hi there! Which property are you staying at?"},
		data:      &stubDataset{snap: propertySnapshot(t)},
		audit:     &recordingAuditor{},
	}
	f.engine = NewEngine(f.extractor, f.responder, f.data, f.audit, observability.NopLogger())
	return f
}

func TestEngine_WifiPasswordEndToEnd(t *testing.T) {
	f := newFixture(t, &domain.ExtractedQuery{
		Intent:            domain.IntentPropertyQuery,
		PropertyName:      strPtr("Clara Lane"),
		InformationToFind: strPtr("wifi password"),
	})

	ctx := observability.ContextWithTraceID(context.Background(), "req-42")
	reply, err := f.engine.Answer(ctx, "what's the wifi password for Clara Lane")
	require.NoError(t, err)

	assert.Equal(t, "Here is the Wi-Fi login for **Clara Lane**:\n\nNetwork: ClaraGuest / Password: sunshine22", reply.Text)
	assert.Equal(t, "wifi_login", domain.Deref(reply.Query.FieldType))
	assert.Equal(t, "what's the wifi password for Clara Lane", reply.Query.InputMessage)
	assert.Equal(t, "101", reply.MatchedUnit)
	assert.Equal(t, monitoring.OutcomeAnswered, reply.Outcome)

	require.Len(t, f.audit.events, 1)
	event := f.audit.events[0]
	assert.Equal(t, "req-42", event.RequestID)
	assert.Equal(t, "property_query", event.Intent)
	assert.Equal(t, "101", event.MatchedUnit)
	assert.Equal(t, "wifi_login", event.FieldType)
	assert.Equal(t, monitoring.OutcomeAnswered, event.Outcome)
	assert.Zero(t, f.responder.calls)
}

func TestEngine_PropertyOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		property  *string
		info      *string
		message   string
		outcome   monitoring.Outcome
		contains  string
		wantLoads int
	}{
		{"no property skips dataset", nil, strPtr("parking"), "where do I park?", monitoring.OutcomeNeedsProperty, "Which property", 0},
		{"unclassified skips dataset", strPtr("Clara Lane"), strPtr("vibes"), "tell me the vibes", monitoring.OutcomeUnclassified, "not sure which detail", 0},
		{"unknown property", strPtr("Sunset Loft"), strPtr("parking"), "parking at Sunset Loft", monitoring.OutcomePropertyNotFound, "couldn't find a property matching \"Sunset Loft\"", 1},
		{"empty cell", strPtr("Hidden Forest"), strPtr("parking"), "parking at Hidden Forest", monitoring.OutcomeNotListed, "not listed in our records", 1},
		{"classification uses full message", strPtr("103"), nil, "where do I leave the car? is there a driveway", monitoring.OutcomeAnswered, "Street", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &domain.ExtractedQuery{
				Intent:            domain.IntentPropertyQuery,
				PropertyName:      tc.property,
				InformationToFind: tc.info,
			})

			reply, err := f.engine.Answer(context.Background(), tc.message)
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, reply.Outcome)
			assert.Contains(t, reply.Text, tc.contains)
			assert.Equal(t, tc.wantLoads, f.data.loads)
		})
	}
}

func TestEngine_DatasetQuery(t *testing.T) {
	f := newFixture(t, &domain.ExtractedQuery{
		Intent:            domain.IntentDatasetQuery,
		DatasetIntentType: strPtr("count_properties_by_owner"),
		DatasetOwnerName:  strPtr("DS/Maven"),
	})

	reply, err := f.engine.Answer(context.Background(), "how many properties does DS/Maven have")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "**DS (Dream State)/Maven** has 2 properties")
	assert.Contains(t, reply.Text, "- Unit 103 – Ocean View")
	assert.Equal(t, monitoring.OutcomeAggregate, reply.Outcome)
	assert.Equal(t, "count_properties_by_owner", f.audit.events[0].DatasetIntent)
}

func TestEngine_UnsupportedDatasetIntent(t *testing.T) {
	f := newFixture(t, &domain.ExtractedQuery{
		Intent:            domain.IntentDatasetQuery,
		DatasetIntentType: strPtr("cheapest_property"),
	})

	reply, err := f.engine.Answer(context.Background(), "which is the cheapest place")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "not yet supported")
	assert.Zero(t, f.data.loads)
}

func TestEngine_GeneralChat(t *testing.T) {
	for _, intent := range []domain.Intent{domain.IntentGreeting, domain.IntentOther} {
		t.Run(string(intent), func(t *testing.T) {
			f := newFixture(t, &domain.ExtractedQuery{Intent: intent})

			reply, err := f.engine.Answer(context.Background(), "hello!")
			require.NoError(t, err)
			assert.Equal(t, "Hi there! Which property are you staying at?", reply.Text)
			assert.Equal(t, monitoring.OutcomeGeneral, reply.Outcome)
			assert.Equal(t, 1, f.responder.calls)
			assert.Zero(t, f.data.loads)
		})
	}
}

func TestEngine_FieldTypeSetForEveryIntent(t *testing.T) {
	f := newFixture(t, &domain.ExtractedQuery{Intent: domain.IntentOther})

	reply, err := f.engine.Answer(context.Background(), "what's the door code")
	require.NoError(t, err)
	assert.Equal(t, "door_lock_code", domain.Deref(reply.Query.FieldType))
}

func TestEngine_Errors(t *testing.T) {
	t.Run("extractor failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.extractor.err = domain.UpstreamFetchError("llm chat completion", errors.New("503"))

		_, err := f.engine.Answer(context.Background(), "hi")
		assert.True(t, domain.IsUpstream(err))
		require.Len(t, f.audit.events, 1)
		assert.Equal(t, monitoring.OutcomeError, f.audit.events[0].Outcome)
		assert.Equal(t, "other", f.audit.events[0].Intent)
	})

	t.Run("dataset configuration error", func(t *testing.T) {
		f := newFixture(t, &domain.ExtractedQuery{
			Intent:            domain.IntentPropertyQuery,
			PropertyName:      strPtr("Clara Lane"),
			InformationToFind: strPtr("parking"),
		})
		f.data.err = domain.ConfigurationError("missing dataset source settings: GOOGLE_SHEETS_ID", nil)

		_, err := f.engine.Answer(context.Background(), "parking at Clara Lane")
		assert.True(t, domain.IsConfiguration(err))
		assert.Equal(t, monitoring.OutcomeError, f.audit.events[0].Outcome)
	})

	t.Run("responder failure", func(t *testing.T) {
		f := newFixture(t, &domain.ExtractedQuery{Intent: domain.IntentGreeting})
		f.responder.err = domain.UpstreamFetchError("llm chat completion", nil)

		_, err := f.engine.Answer(context.Background(), "hey")
		assert.True(t, domain.IsUpstream(err))
	})
}

func TestEngine_NilAuditor(t *testing.T) {
	engine := NewEngine(
		&stubExtractor{query: &domain.ExtractedQuery{Intent: domain.IntentGreeting}},
		&stubResponder{reply: "hello"},
		&stubDataset{},
		nil,
		observability.NopLogger(),
	)
	reply, err := engine.Answer(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Text)
}
