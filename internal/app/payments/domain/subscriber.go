package domain

import "time"

// Subscriber holds the premium subscription record of a user.
// premium implies a non-empty mandateRef.
type Subscriber struct {
	id          string
	email       string
	premium     bool
	mandateRef  string
	activatedAt *time.Time
	cancelledAt *time.Time
	version     int64
	updatedAt   time.Time
}

// Activate turns premium on for mandateRef. A nil event with a nil error
// means the subscriber was already active with the same mandate.
func (s *Subscriber) Activate(mandateRef string, clock Clock) (*SubscriptionActivatedEvent, error) {
	if mandateRef == "" {
		return nil, ErrInvalidMandateReference
	}
	if s.premium {
		if s.mandateRef == mandateRef {
			return nil, nil
		}
		return nil, ErrMandateConflict
	}

	now := clock.Now()
	s.premium = true
	s.mandateRef = mandateRef
	s.activatedAt = &now
	s.cancelledAt = nil
	s.touch(now)

	return &SubscriptionActivatedEvent{
		SubscriberID: s.id,
		MandateRef:   mandateRef,
		ActivatedAt:  now,
	}, nil
}

// Cancel turns premium off and keeps the mandate reference for audit.
// Returns a nil event when the subscriber is not active.
func (s *Subscriber) Cancel(clock Clock) *SubscriptionCancelledEvent {
	if !s.premium {
		return nil
	}

	now := clock.Now()
	s.premium = false
	s.cancelledAt = &now
	s.touch(now)

	return &SubscriptionCancelledEvent{
		SubscriberID: s.id,
		MandateRef:   s.mandateRef,
		CancelledAt:  now,
	}
}

func (s *Subscriber) touch(now time.Time) {
	s.updatedAt = now
	s.version++
}

// SubscriberRecord carries persisted subscriber columns.
type SubscriberRecord struct {
	ID          string
	Email       string
	Premium     bool
	MandateRef  string
	ActivatedAt *time.Time
	CancelledAt *time.Time
	Version     int64
	UpdatedAt   time.Time
}

// ReconstructSubscriber recreates a subscriber from the database. A premium
// row without a mandate reference is loaded as not premium.
func ReconstructSubscriber(r SubscriberRecord) *Subscriber {
	return &Subscriber{
		id:          r.ID,
		email:       r.Email,
		premium:     r.Premium && r.MandateRef != "",
		mandateRef:  r.MandateRef,
		activatedAt: r.ActivatedAt,
		cancelledAt: r.CancelledAt,
		version:     r.Version,
		updatedAt:   r.UpdatedAt,
	}
}

func (s *Subscriber) ID() string {
	return s.id
}

func (s *Subscriber) Email() string {
	return s.email
}

func (s *Subscriber) Premium() bool {
	return s.premium
}

func (s *Subscriber) MandateRef() string {
	return s.mandateRef
}

func (s *Subscriber) ActivatedAt() *time.Time {
	return s.activatedAt
}

func (s *Subscriber) CancelledAt() *time.Time {
	return s.cancelledAt
}

func (s *Subscriber) Version() int64 {
	return s.version
}

func (s *Subscriber) UpdatedAt() time.Time {
	return s.updatedAt
}
