package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamstate/guest-assistant/internal/cache"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

func TestExtractor_PropertyQuery(t *testing.T) {
	srv := newChatServer(t, `{
		"intent": "property_query",
		"propertyName": "Clara Lane",
		"informationToFind": "wifi password",
		"datasetIntentType": null,
		"datasetOwnerName": null,
		"inputMessage": "something the model rewrote"
	}`)
	e := NewExtractor(srv.client(t), observability.NopLogger())

	q, err := e.Extract(context.Background(), "what's the wifi password for Clara Lane")
	require.NoError(t, err)

	assert.Equal(t, domain.IntentPropertyQuery, q.Intent)
	assert.Equal(t, "Clara Lane", domain.Deref(q.PropertyName))
	assert.Equal(t, "wifi password", domain.Deref(q.InformationToFind))
	assert.Nil(t, q.DatasetIntentType)
	assert.Nil(t, q.FieldType)
	assert.Equal(t, "what's the wifi password for Clara Lane", q.InputMessage)

	messages := srv.lastRequest()["messages"].([]any)
	system := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "owner_with_most_properties")
	assert.Contains(t, system, "properties_with_pool")
}

func TestExtractor_DatasetQuery(t *testing.T) {
	srv := newChatServer(t, `{"intent":"dataset_query","propertyName":"","datasetIntentType":"count_properties_by_owner","datasetOwnerName":"DS/Maven"}`)
	e := NewExtractor(srv.client(t), observability.NopLogger())

	q, err := e.Extract(context.Background(), "how many places does DS/Maven own?")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentDatasetQuery, q.Intent)
	assert.Nil(t, q.PropertyName, "blank strings become nil")
	assert.Equal(t, "count_properties_by_owner", domain.Deref(q.DatasetIntentType))
	assert.Equal(t, "DS/Maven", domain.Deref(q.DatasetOwnerName))
}

func TestExtractor_LooseFields(t *testing.T) {
	srv := newChatServer(t, `{"intent":"PROPERTY_QUERY","propertyName":301,"informationToFind":"null"}`)
	e := NewExtractor(srv.client(t), observability.NopLogger())

	q, err := e.Extract(context.Background(), "unit 301")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPropertyQuery, q.Intent)
	assert.Equal(t, "301", domain.Deref(q.PropertyName))
	assert.Nil(t, q.InformationToFind)
}

func TestExtractor_MalformedOutputDegrades(t *testing.T) {
	for _, content := range []string{"", "I think this is a greeting", `{"intent": "property_query", `, `{"intent": 7}`} {
		t.Run(content, func(t *testing.T) {
			srv := newChatServer(t, content)
			e := NewExtractor(srv.client(t), observability.NopLogger())

			q, err := e.Extract(context.Background(), "hello?")
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultExtractedQuery("hello?"), q)
		})
	}
}

func TestExtractor_UnknownIntentIsOther(t *testing.T) {
	srv := newChatServer(t, `{"intent":"booking","propertyName":"Clara Lane"}`)
	e := NewExtractor(srv.client(t), observability.NopLogger())

	q, err := e.Extract(context.Background(), "can I book Clara Lane")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentOther, q.Intent)
	assert.Equal(t, "Clara Lane", domain.Deref(q.PropertyName))
}

func TestExtractor_UpstreamFailure(t *testing.T) {
	srv := newChatServer(t, "")
	srv.setStatus(http.StatusInternalServerError)
	e := NewExtractor(srv.client(t), observability.NopLogger())

	q, err := e.Extract(context.Background(), "hi")
	assert.Nil(t, q)
	assert.True(t, domain.IsUpstream(err))
}

func TestExtractor_Memo(t *testing.T) {
	srv := newChatServer(t, `{"intent":"property_query","propertyName":"Clara Lane","informationToFind":"parking"}`)
	store := cache.NewMemoryClient(100)
	defer store.Close()

	e := NewExtractor(srv.client(t), observability.NopLogger(), WithMemo(store, time.Hour), WithModelKey("llama"))
	ctx := context.Background()

	first, err := e.Extract(ctx, "parking at Clara Lane?")
	require.NoError(t, err)
	second, err := e.Extract(ctx, "  parking at Clara Lane?  ")
	require.NoError(t, err)

	assert.Equal(t, 1, srv.calls())
	assert.Equal(t, first.PropertyName, second.PropertyName)
	assert.Equal(t, "  parking at Clara Lane?  ", second.InputMessage)

	// fallbacks are not memoized
	srv.setContent("garbage")
	_, err = e.Extract(ctx, "something new")
	require.NoError(t, err)
	srv.setContent(`{"intent":"greeting"}`)
	q, err := e.Extract(ctx, "something new")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentGreeting, q.Intent)
	assert.Equal(t, 3, srv.calls())
}

func TestExtractor_MemoKeyIncludesModel(t *testing.T) {
	a := NewExtractor(nil, observability.NopLogger(), WithModelKey("a"))
	b := NewExtractor(nil, observability.NopLogger(), WithModelKey("b"))

	assert.NotEqual(t, a.memoKey("hi"), b.memoKey("hi"))
	assert.True(t, strings.HasPrefix(a.memoKey("hi"), "extract:a:"))
}
