package handle_webhook

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// notification is the part of a webhook body the dispatcher reads. Any
// state it self-reports (status, amount) is ignored.
type notification struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// Classify derives the event kind and gateway resource id from the query
// string first and the body second. A body that is not JSON is treated as
// empty.
func Classify(query url.Values, body []byte) domain.WebhookEvent {
	var n notification
	if len(body) > 0 {
		_ = json.Unmarshal(body, &n)
	}

	ev := domain.WebhookEvent{Kind: domain.EventUnknown, Body: body}

	descriptors := []string{
		query.Get("type"),
		query.Get("topic"),
		n.Type,
		n.Topic,
		actionPrefix(n.Action),
	}
	for _, d := range descriptors {
		if d == "" {
			continue
		}
		if ev.Topic == "" {
			ev.Topic = d
		}
		if kind := kindOf(d); kind != domain.EventUnknown {
			ev.Kind = kind
			ev.Topic = d
			break
		}
	}

	switch {
	case query.Get("data.id") != "":
		ev.GatewayID = query.Get("data.id")
	case query.Get("id") != "":
		ev.GatewayID = query.Get("id")
	default:
		ev.GatewayID = rawID(n.Data.ID)
	}

	return ev
}

func kindOf(descriptor string) domain.EventKind {
	switch strings.ToLower(strings.TrimSpace(descriptor)) {
	case "payment":
		return domain.EventPayment
	case "preapproval", "subscription_preapproval":
		return domain.EventMandate
	}
	return domain.EventUnknown
}

// actionPrefix turns "payment.updated" into "payment".
func actionPrefix(action string) string {
	prefix, _, _ := strings.Cut(action, ".")
	return prefix
}

// rawID accepts the id as a JSON string or a JSON number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}
