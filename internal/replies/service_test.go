package replies

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"prospect_backend/internal/contacts"
	"prospect_backend/platform/apperr"
	"prospect_backend/platform/logger"
)

type fakeContactStore struct {
	contact      contacts.Contact
	outbound     *contacts.Message
	getErr       error
	insertErr    error
	updateErr    error
	inserted     []contacts.CreateMessageParams
	appended     []uuid.UUID
	transitioned []contacts.Status
	scores       []int
	rates        []float64
	msgStatuses  []contacts.MessageStatus
	msgMetadata  []map[string]any
}

func (s *fakeContactStore) GetByID(context.Context, uuid.UUID, uuid.UUID) (contacts.Contact, error) {
	if s.getErr != nil {
		return contacts.Contact{}, s.getErr
	}
	return s.contact, nil
}

func (s *fakeContactStore) InsertMessage(_ context.Context, params contacts.CreateMessageParams) (contacts.Message, error) {
	if s.insertErr != nil {
		return contacts.Message{}, s.insertErr
	}
	s.inserted = append(s.inserted, params)
	return contacts.Message{ID: uuid.New(), ContactID: params.ContactID}, nil
}

func (s *fakeContactStore) GetMessage(_ context.Context, id uuid.UUID) (contacts.Message, error) {
	if s.outbound != nil && s.outbound.ID == id {
		return *s.outbound, nil
	}
	return contacts.Message{}, contacts.ErrMessageNotFound
}

func (s *fakeContactStore) UpdateMessageStatus(_ context.Context, _ uuid.UUID, next contacts.MessageStatus) error {
	s.msgStatuses = append(s.msgStatuses, next)
	return nil
}

func (s *fakeContactStore) SetMessageMetadata(_ context.Context, _ uuid.UUID, metadata map[string]any) error {
	s.msgMetadata = append(s.msgMetadata, metadata)
	return nil
}

func (s *fakeContactStore) AppendHistory(_ context.Context, _ uuid.UUID, messageID uuid.UUID, _ time.Time) error {
	s.appended = append(s.appended, messageID)
	return nil
}

func (s *fakeContactStore) UpdateLeadState(_ context.Context, _ uuid.UUID, status contacts.Status, score int, rate float64) (contacts.Contact, error) {
	if s.updateErr != nil {
		return contacts.Contact{}, s.updateErr
	}
	s.transitioned = append(s.transitioned, status)
	s.scores = append(s.scores, score)
	s.rates = append(s.rates, rate)
	return s.contact, nil
}

type staticClassifier struct {
	analysis Analysis
}

func (c staticClassifier) Analyze(context.Context, string, contacts.Contact) Analysis {
	return c.analysis
}

type recordingRouter struct {
	routed []Transition
	err    error
}

func (r *recordingRouter) Route(_ context.Context, _ contacts.Contact, _ Analysis, transition Transition) error {
	r.routed = append(r.routed, transition)
	return r.err
}

type fakeSuppressor struct {
	tenants      []uuid.UUID
	destinations []string
	err          error
}

func (s *fakeSuppressor) Blacklist(_ context.Context, tenantID uuid.UUID, destination string) error {
	if s.err != nil {
		return s.err
	}
	s.tenants = append(s.tenants, tenantID)
	s.destinations = append(s.destinations, destination)
	return nil
}

func replyItem(contact contacts.Contact) Item {
	return Item{
		ContactID: contact.ID,
		TenantID:  contact.TenantID,
		Channel:   "whatsapp",
		Text:      "sounds interesting, tell me more",
	}
}

func TestHandleReplyFullFlow(t *testing.T) {
	contact := contacts.Contact{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   contacts.StatusActive,
	}
	store := &fakeContactStore{contact: contact}
	router := &recordingRouter{}
	svc := NewService(store, staticClassifier{analysis: Analysis{
		Sentiment:  SentimentPositive,
		Intent:     IntentInterested,
		NextAction: ActionSendInfo,
		Urgency:    UrgencyMedium,
		Confidence: 0.8,
	}}, router, nil, logger.New("development"))

	if err := svc.HandleReply(context.Background(), replyItem(contact)); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("raw reply persisted %d times, want 1", len(store.inserted))
	}
	if store.inserted[0].Type != contacts.MessageTypeReply {
		t.Errorf("message type = %s, want reply", store.inserted[0].Type)
	}
	if len(store.appended) != 1 {
		t.Errorf("history appended %d times, want 1", len(store.appended))
	}
	if len(store.transitioned) != 1 || store.transitioned[0] != contacts.StatusQualified {
		t.Errorf("transitioned to %v, want [qualified]", store.transitioned)
	}
	if store.scores[0] != 80 { // (50+30+20)*0.8
		t.Errorf("score = %d, want 80", store.scores[0])
	}
	if len(router.routed) != 1 {
		t.Errorf("routed %d actions, want exactly 1", len(router.routed))
	}
}

func TestHandleReplyEmptyTextIsValidationError(t *testing.T) {
	svc := NewService(&fakeContactStore{}, staticClassifier{}, &recordingRouter{}, nil, logger.New("development"))

	err := svc.HandleReply(context.Background(), Item{Text: "   "})
	if err == nil || apperr.Retryable(err) {
		t.Errorf("empty reply must be a non-retryable validation error, got %v", err)
	}
}

func TestHandleReplyStripsHTMLFromEmailReplies(t *testing.T) {
	contact := contacts.Contact{ID: uuid.New(), TenantID: uuid.New(), Status: contacts.StatusActive}
	store := &fakeContactStore{contact: contact}
	svc := NewService(store, staticClassifier{analysis: FallbackAnalysis()}, &recordingRouter{}, nil, logger.New("development"))

	item := replyItem(contact)
	item.Channel = "email"
	item.Text = "<div>Sounds good, <b>send details</b></div>"
	if err := svc.HandleReply(context.Background(), item); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}

	if got := store.inserted[0].Content; got != "Sounds good, send details" {
		t.Errorf("stored content = %q, want plain text", got)
	}
}

func TestHandleReplyHTMLOnlyTextIsValidationError(t *testing.T) {
	svc := NewService(&fakeContactStore{}, staticClassifier{}, &recordingRouter{}, nil, logger.New("development"))

	err := svc.HandleReply(context.Background(), Item{Text: "<img src=x>"})
	if err == nil || apperr.Retryable(err) {
		t.Errorf("markup-only reply must be a non-retryable validation error, got %v", err)
	}
}

func TestHandleReplyUnknownContactNotRetried(t *testing.T) {
	store := &fakeContactStore{getErr: contacts.ErrNotFound}
	svc := NewService(store, staticClassifier{}, &recordingRouter{}, nil, logger.New("development"))

	err := svc.HandleReply(context.Background(), replyItem(contacts.Contact{ID: uuid.New(), TenantID: uuid.New()}))
	if err == nil || apperr.Retryable(err) {
		t.Errorf("unknown contact must be non-retryable, got %v", err)
	}
}

func TestHandleReplyPersistsRawBeforeTransition(t *testing.T) {
	contact := contacts.Contact{ID: uuid.New(), TenantID: uuid.New(), Status: contacts.StatusActive}
	store := &fakeContactStore{
		contact:   contact,
		updateErr: context.DeadlineExceeded,
	}
	svc := NewService(store, staticClassifier{analysis: FallbackAnalysis()}, &recordingRouter{}, nil, logger.New("development"))

	err := svc.HandleReply(context.Background(), replyItem(contact))
	if err == nil {
		t.Fatal("transition failure must surface")
	}
	if len(store.inserted) != 1 {
		t.Errorf("raw reply must be persisted even when the transition fails, persisted %d", len(store.inserted))
	}
	if !apperr.Retryable(err) {
		t.Error("transition failure must be retryable")
	}
}

func TestHandleReplyMarksOutboundMessageReplied(t *testing.T) {
	outboundID := uuid.New()
	contact := contacts.Contact{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		Status:         contacts.StatusActive,
		MessageHistory: []string{outboundID.String()},
	}
	store := &fakeContactStore{
		contact: contact,
		outbound: &contacts.Message{
			ID:     outboundID,
			Type:   contacts.MessageTypeInitial,
			Status: contacts.MessageStatusSent,
		},
	}
	svc := NewService(store, staticClassifier{analysis: FallbackAnalysis()}, &recordingRouter{}, nil, logger.New("development"))

	if err := svc.HandleReply(context.Background(), replyItem(contact)); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}
	if len(store.msgStatuses) != 1 || store.msgStatuses[0] != contacts.MessageStatusReplied {
		t.Errorf("message statuses = %v, want [replied]", store.msgStatuses)
	}
	if len(store.msgMetadata) != 1 {
		t.Fatalf("metadata updates = %d, want 1", len(store.msgMetadata))
	}
	if _, ok := store.msgMetadata[0]["replyAnalysis"]; !ok {
		t.Error("analysis must be attached to the answered message")
	}
}

func TestHandleReplySkipsMarkingConsecutiveReplies(t *testing.T) {
	prevID := uuid.New()
	contact := contacts.Contact{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		Status:         contacts.StatusActive,
		MessageHistory: []string{prevID.String()},
	}
	store := &fakeContactStore{
		contact: contact,
		outbound: &contacts.Message{
			ID:     prevID,
			Type:   contacts.MessageTypeReply,
			Status: contacts.MessageStatusReplied,
		},
	}
	svc := NewService(store, staticClassifier{analysis: FallbackAnalysis()}, &recordingRouter{}, nil, logger.New("development"))

	if err := svc.HandleReply(context.Background(), replyItem(contact)); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}
	if len(store.msgStatuses) != 0 || len(store.msgMetadata) != 0 {
		t.Errorf("a second inbound reply must not touch message records, got %v / %v",
			store.msgStatuses, store.msgMetadata)
	}
}

func TestHandleReplyOptOutBlacklistsDestination(t *testing.T) {
	contact := contacts.Contact{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   contacts.StatusActive,
		Phones:   []string{"(84)99708-4444"},
	}
	suppressor := &fakeSuppressor{}
	svc := NewService(&fakeContactStore{contact: contact}, staticClassifier{analysis: Analysis{
		Sentiment:  SentimentNegative,
		Intent:     IntentNotInterested,
		NextAction: ActionManualReview,
		Urgency:    UrgencyLow,
		Confidence: 0.9,
	}}, &recordingRouter{}, suppressor, logger.New("development"))

	if err := svc.HandleReply(context.Background(), replyItem(contact)); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}
	if len(suppressor.destinations) != 1 || suppressor.destinations[0] != "+5584997084444" {
		t.Errorf("blacklisted = %v, want the normalized phone", suppressor.destinations)
	}
	if suppressor.tenants[0] != contact.TenantID {
		t.Errorf("tenant = %v, want %v", suppressor.tenants[0], contact.TenantID)
	}
}

func TestHandleReplyInterestedDoesNotBlacklist(t *testing.T) {
	contact := contacts.Contact{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   contacts.StatusActive,
		Phones:   []string{"(84)99708-4444"},
	}
	suppressor := &fakeSuppressor{}
	svc := NewService(&fakeContactStore{contact: contact}, staticClassifier{analysis: Analysis{
		Sentiment:  SentimentPositive,
		Intent:     IntentInterested,
		NextAction: ActionSendInfo,
		Urgency:    UrgencyMedium,
		Confidence: 0.8,
	}}, &recordingRouter{}, suppressor, logger.New("development"))

	if err := svc.HandleReply(context.Background(), replyItem(contact)); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}
	if len(suppressor.destinations) != 0 {
		t.Errorf("blacklisted = %v, want none for an interested reply", suppressor.destinations)
	}
}

func TestHandleReplyMetadataCarriesAnalysis(t *testing.T) {
	contact := contacts.Contact{ID: uuid.New(), TenantID: uuid.New(), Status: contacts.StatusActive}
	store := &fakeContactStore{contact: contact}
	analysis := Analysis{
		Sentiment:  SentimentNegative,
		Intent:     IntentNotInterested,
		NextAction: ActionManualReview,
		Urgency:    UrgencyLow,
		Confidence: 0.9,
	}
	svc := NewService(store, staticClassifier{analysis: analysis}, &recordingRouter{}, nil, logger.New("development"))

	if err := svc.HandleReply(context.Background(), replyItem(contact)); err != nil {
		t.Fatalf("HandleReply returned error: %v", err)
	}

	meta := store.inserted[0].Metadata
	got, ok := meta["analysis"].(Analysis)
	if !ok || got != analysis {
		t.Errorf("metadata analysis = %+v, want %+v", meta["analysis"], analysis)
	}
	if meta["scoreVersion"] != "v1" {
		t.Errorf("scoreVersion = %v, want v1", meta["scoreVersion"])
	}
}
