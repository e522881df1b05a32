package handle_webhook

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		query    url.Values
		body     string
		wantKind domain.EventKind
		wantID   string
	}{
		{
			name:     "query type and data.id",
			query:    url.Values{"type": {"payment"}, "data.id": {"123"}},
			wantKind: domain.EventPayment,
			wantID:   "123",
		},
		{
			name:     "legacy topic and id",
			query:    url.Values{"topic": {"payment"}, "id": {"456"}},
			wantKind: domain.EventPayment,
			wantID:   "456",
		},
		{
			name:     "body type with numeric id",
			body:     `{"type":"payment","data":{"id":789}}`,
			wantKind: domain.EventPayment,
			wantID:   "789",
		},
		{
			name:     "body action prefix with string id",
			body:     `{"action":"payment.created","data":{"id":"abc"}}`,
			wantKind: domain.EventPayment,
			wantID:   "abc",
		},
		{
			name:     "preapproval",
			query:    url.Values{"topic": {"preapproval"}, "id": {"mp-1"}},
			wantKind: domain.EventMandate,
			wantID:   "mp-1",
		},
		{
			name:     "subscription preapproval in body",
			body:     `{"type":"subscription_preapproval","data":{"id":"mp-2"}}`,
			wantKind: domain.EventMandate,
			wantID:   "mp-2",
		},
		{
			name:     "query wins over body",
			query:    url.Values{"type": {"payment"}, "data.id": {"q-1"}},
			body:     `{"type":"preapproval","data":{"id":"b-1"}}`,
			wantKind: domain.EventPayment,
			wantID:   "q-1",
		},
		{
			name:     "unknown topic",
			query:    url.Values{"topic": {"merchant_order"}, "id": {"9"}},
			wantKind: domain.EventUnknown,
			wantID:   "9",
		},
		{
			name:     "body is not json",
			body:     `type=payment`,
			wantKind: domain.EventUnknown,
		},
		{
			name:     "empty notification",
			wantKind: domain.EventUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := Classify(tc.query, []byte(tc.body))

			assert.Equal(t, tc.wantKind, ev.Kind)
			assert.Equal(t, tc.wantID, ev.GatewayID)
		})
	}
}

func TestClassify_TopicRecordsFirstDescriptor(t *testing.T) {
	ev := Classify(url.Values{"topic": {"merchant_order"}}, nil)

	assert.Equal(t, "merchant_order", ev.Topic)
}
