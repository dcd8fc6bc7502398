package services_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/discord"
	"song-request-backend/internal/email"
	"song-request-backend/internal/models"
	"song-request-backend/internal/payments"
	"song-request-backend/internal/services"
)

// memStore mirrors the conditional updates of supabase.DatabaseClient.
type memStore struct {
	mu           sync.Mutex
	orders       map[uuid.UUID]*models.SongRequest
	purchases    map[string]*models.Purchase
	producers    map[uuid.UUID]*models.Producer
	applications map[uuid.UUID]*models.ProducerApplication
	roles        map[uuid.UUID][]string
	revisions    map[uuid.UUID]*models.Revision
	messages     []models.RevisionMessage

	// markPaidFailures makes the next N MarkPaid calls fail.
	markPaidFailures int
}

func newMemStore() *memStore {
	return &memStore{
		orders:       map[uuid.UUID]*models.SongRequest{},
		purchases:    map[string]*models.Purchase{},
		producers:    map[uuid.UUID]*models.Producer{},
		applications: map[uuid.UUID]*models.ProducerApplication{},
		roles:        map[uuid.UUID][]string{},
		revisions:    map[uuid.UUID]*models.Revision{},
	}
}

func (m *memStore) order(id uuid.UUID) *models.SongRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := *m.orders[id]
	return &o
}

func (m *memStore) CreateSongRequest(_ context.Context, o *models.SongRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memStore) SetStripeSession(_ context.Context, id uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id].StripeSessionID.String, m.orders[id].StripeSessionID.Valid = sessionID, true
	return nil
}

func (m *memStore) GetSongRequest(_ context.Context, id uuid.UUID) (*models.SongRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("song request: %w", apperr.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) list(match func(*models.SongRequest) bool) []models.SongRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SongRequest
	for _, o := range m.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	return out
}

func (m *memStore) ListSongRequestsByUser(_ context.Context, userID uuid.UUID) ([]models.SongRequest, error) {
	return m.list(func(o *models.SongRequest) bool { return o.UserID == userID }), nil
}

func (m *memStore) ListSongRequestsByProducer(_ context.Context, producerID uuid.UUID) ([]models.SongRequest, error) {
	return m.list(func(o *models.SongRequest) bool {
		return o.AssignedProducerID.Valid && o.AssignedProducerID.UUID == producerID
	}), nil
}

func (m *memStore) MarkPaid(_ context.Context, id uuid.UUID, pi string, fee, payout int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markPaidFailures > 0 {
		m.markPaidFailures--
		return false, fmt.Errorf("connection reset")
	}
	o := m.orders[id]
	if o == nil || o.Status != models.StatusPendingPayment || o.RefundedAt.Valid {
		return false, nil
	}
	o.Status = models.StatusPaid
	o.PaymentIntentID.String, o.PaymentIntentID.Valid = pi, true
	o.PlatformFeeCents, o.ProducerPayoutCents = fee, payout
	return true, nil
}

func (m *memStore) AcceptSongRequest(_ context.Context, id, producerID uuid.UUID) (*models.SongRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	if o == nil || o.Status != models.StatusPaid || o.RefundedAt.Valid {
		return nil, fmt.Errorf("no longer awaiting a producer: %w", apperr.ErrConflict)
	}
	o.Status = models.StatusAccepted
	o.AssignedProducerID = uuid.NullUUID{UUID: producerID, Valid: true}
	cp := *o
	return &cp, nil
}

func (m *memStore) DeclineSongRequest(_ context.Context, id, producerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	if o == nil || o.Status != models.StatusAccepted || o.AssignedProducerID.UUID != producerID || o.RefundedAt.Valid {
		return false, nil
	}
	o.Status = models.StatusPaid
	o.AssignedProducerID = uuid.NullUUID{}
	return true, nil
}

func (m *memStore) TransitionStatus(_ context.Context, id uuid.UUID, from []string, to string) (*models.SongRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	if o == nil || !slices.Contains(from, o.Status) || o.RefundedAt.Valid {
		return nil, fmt.Errorf("cannot move to %s: %w", to, apperr.ErrConflict)
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (m *memStore) CompleteSongRequest(_ context.Context, id, producerID uuid.UUID, link string) (*models.SongRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	if o == nil || o.AssignedProducerID.UUID != producerID || o.RefundedAt.Valid ||
		(o.Status != models.StatusAccepted && o.Status != models.StatusInProgress) {
		return nil, fmt.Errorf("cannot be delivered: %w", apperr.ErrConflict)
	}
	o.Status = models.StatusCompleted
	o.FinalDeliveryLink.String, o.FinalDeliveryLink.Valid = link, true
	cp := *o
	return &cp, nil
}

func (m *memStore) ListExpiredAwaiting(_ context.Context, statuses []string, now time.Time) ([]models.SongRequest, error) {
	return m.list(func(o *models.SongRequest) bool {
		return slices.Contains(statuses, o.Status) && o.AcceptanceDeadline.Valid &&
			o.AcceptanceDeadline.Time.Before(now) && !o.RefundedAt.Valid
	}), nil
}

func (m *memStore) MarkRefunded(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	if o == nil || o.RefundedAt.Valid {
		return false, nil
	}
	o.Status = models.StatusRefunded
	o.RefundedAt.Time, o.RefundedAt.Valid = at, true
	return true, nil
}

func (m *memStore) RecordPayout(_ context.Context, p models.PayoutRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[p.OrderID]
	if o == nil || o.ProducerPaidAt.Valid || o.Status != models.StatusCompleted {
		return false, nil
	}
	o.ProducerPaidAt.Time, o.ProducerPaidAt.Valid = p.PaidAt, true
	o.PayoutMethod.String, o.PayoutMethod.Valid = p.Method, true
	o.StripeTransferID.String, o.StripeTransferID.Valid = p.TransferID, p.TransferID != ""
	o.PlatformFeeCents, o.ProducerPayoutCents = p.PlatformFeeCents, p.ProducerPayoutCents
	return true, nil
}

func (m *memStore) SetDriveFolderURL(_ context.Context, id uuid.UUID, folderURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id].DriveFolderURL.String, m.orders[id].DriveFolderURL.Valid = folderURL, true
	return nil
}

func (m *memStore) GetPurchaseBySession(_ context.Context, sessionID string) (*models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.purchases[sessionID]
	if !ok {
		return nil, fmt.Errorf("purchase: %w", apperr.ErrNotFound)
	}
	return p, nil
}

func (m *memStore) CreatePurchase(_ context.Context, p *models.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.purchases[p.StripeSessionID]; ok {
		return fmt.Errorf("purchase for session %s: %w", p.StripeSessionID, apperr.ErrConflict)
	}
	p.ID = uuid.New()
	m.purchases[p.StripeSessionID] = p
	return nil
}

func (m *memStore) findProducer(match func(*models.Producer) bool) (*models.Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.producers {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("producer: %w", apperr.ErrNotFound)
}

func (m *memStore) GetProducer(_ context.Context, id uuid.UUID) (*models.Producer, error) {
	return m.findProducer(func(p *models.Producer) bool { return p.ID == id })
}

func (m *memStore) GetProducerBySlug(_ context.Context, slug string) (*models.Producer, error) {
	return m.findProducer(func(p *models.Producer) bool { return p.Slug == slug })
}

func (m *memStore) GetProducerByUserID(_ context.Context, userID uuid.UUID) (*models.Producer, error) {
	return m.findProducer(func(p *models.Producer) bool { return p.UserID == userID })
}

func (m *memStore) GetProducerByDiscordID(_ context.Context, discordID string) (*models.Producer, error) {
	return m.findProducer(func(p *models.Producer) bool {
		return p.DiscordUserID.Valid && p.DiscordUserID.String == discordID
	})
}

func (m *memStore) ListProducers(_ context.Context) ([]models.Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Producer
	for _, p := range m.producers {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b models.Producer) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *memStore) CreateProducer(_ context.Context, p *models.Producer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	m.producers[p.ID] = &cp
	return nil
}

func (m *memStore) UpdateProducerProfile(_ context.Context, id uuid.UUID, req models.UpdateProducerProfileRequest) (*models.Producer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.producers[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.Genres != nil {
		p.Genres = *req.Genres
	}
	if req.DiscordUserID != nil {
		p.DiscordUserID.String, p.DiscordUserID.Valid = *req.DiscordUserID, true
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) SetStripeAccount(_ context.Context, id uuid.UUID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producers[id].StripeAccountID.String, m.producers[id].StripeAccountID.Valid = accountID, true
	return nil
}

func (m *memStore) MarkStripeOnboarded(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producers[id].StripeOnboardedAt.Time, m.producers[id].StripeOnboardedAt.Valid = at, true
	return nil
}

func (m *memStore) CreateApplication(_ context.Context, a *models.ProducerApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	cp := *a
	m.applications[a.ID] = &cp
	return nil
}

func (m *memStore) ListApplications(_ context.Context, status string) ([]models.ProducerApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProducerApplication
	for _, a := range m.applications {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) DecideApplication(_ context.Context, id uuid.UUID, status string) (*models.ProducerApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok || a.Status != models.ApplicationPending {
		return nil, fmt.Errorf("application is not pending: %w", apperr.ErrConflict)
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func (m *memStore) GrantRole(_ context.Context, userID uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.roles[userID], role) {
		m.roles[userID] = append(m.roles[userID], role)
	}
	return nil
}

func (m *memStore) Roles(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles[uuid.MustParse(userID)], nil
}

func (m *memStore) CreateRevisions(_ context.Context, orderID uuid.UUID, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for n := 1; n <= count; n++ {
		id := uuid.New()
		m.revisions[id] = &models.Revision{ID: id, SongRequestID: orderID, RevisionNumber: n, Status: models.RevisionPending}
	}
	return nil
}

func (m *memStore) ListRevisions(_ context.Context, orderID uuid.UUID) ([]models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Revision
	for _, r := range m.revisions {
		if r.SongRequestID == orderID {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b models.Revision) int { return a.RevisionNumber - b.RevisionNumber })
	return out, nil
}

func (m *memStore) GetRevision(_ context.Context, id uuid.UUID) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.revisions[id]
	if !ok {
		return nil, fmt.Errorf("revision: %w", apperr.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) DeliverRevision(_ context.Context, id uuid.UUID, link, notes, meeting string) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.revisions[id]
	if r.Status == models.RevisionDelivered {
		return nil, fmt.Errorf("already delivered: %w", apperr.ErrConflict)
	}
	r.Status = models.RevisionDelivered
	r.DeliveryLink.String, r.DeliveryLink.Valid = link, true
	if meeting != "" {
		r.MeetingLink.String, r.MeetingLink.Valid = meeting, true
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) RequestRevision(_ context.Context, id uuid.UUID, notes string) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.revisions[id]
	if r.Status != models.RevisionPending {
		return nil, fmt.Errorf("not pending: %w", apperr.ErrConflict)
	}
	r.Status = models.RevisionRequested
	r.Notes.String, r.Notes.Valid = notes, true
	cp := *r
	return &cp, nil
}

func (m *memStore) CreateRevisionMessage(_ context.Context, msg *models.RevisionMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.New()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memStore) ListRevisionMessages(_ context.Context, revisionID uuid.UUID) ([]models.RevisionMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RevisionMessage
	for _, msg := range m.messages {
		if msg.RevisionID == revisionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// fakeProcessor stands in for Stripe.
type fakeProcessor struct {
	mu        sync.Mutex
	sessions  map[string]*payments.CheckoutSession
	intents   map[string]*payments.PaymentIntent
	accounts  map[string]*payments.ConnectAccount
	refunds   []string
	cancels   []string
	transfers []payments.TransferParams
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		sessions: map[string]*payments.CheckoutSession{},
		intents:  map[string]*payments.PaymentIntent{},
		accounts: map[string]*payments.ConnectAccount{},
	}
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "cs_" + p.OrderID[:8]
	sess := &payments.CheckoutSession{
		ID:          id,
		URL:         "https://checkout.stripe.test/" + id,
		AmountTotal: p.AmountCents,
		Currency:    p.Currency,
		Metadata:    p.Metadata,
	}
	f.sessions[id] = sess
	return sess, nil
}

// pay simulates the customer completing checkout.
func (f *fakeProcessor) pay(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.sessions[sessionID]
	sess.Paid = true
	sess.PaymentIntentID = "pi_" + sessionID
	f.intents[sess.PaymentIntentID] = &payments.PaymentIntent{
		ID:             sess.PaymentIntentID,
		Status:         payments.IntentSucceeded,
		Amount:         sess.AmountTotal,
		AmountReceived: sess.AmountTotal,
		ChargeID:       "ch_" + sessionID,
	}
	return sess.PaymentIntentID
}

func (f *fakeProcessor) GetCheckoutSession(_ context.Context, id string) (*payments.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session: %w", apperr.ErrUpstream)
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeProcessor) GetPaymentIntent(_ context.Context, id string) (*payments.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent %s: %w", id, apperr.ErrUpstream)
	}
	cp := *pi
	return &cp, nil
}

func (f *fakeProcessor) CancelPaymentIntent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, id)
	f.intents[id].Status = payments.IntentCanceled
	return nil
}

func (f *fakeProcessor) RefundPaymentIntent(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, id)
	f.intents[id].Refunded = true
	return "re_" + id, nil
}

func (f *fakeProcessor) CreateTransfer(_ context.Context, p payments.TransferParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers = append(f.transfers, p)
	return "tr_" + p.TransferGroup[:8], nil
}

func (f *fakeProcessor) CreateConnectAccount(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("acct_%d", len(f.accounts)+1)
	f.accounts[id] = &payments.ConnectAccount{ID: id}
	return id, nil
}

func (f *fakeProcessor) CreateOnboardingLink(_ context.Context, accountID, _, _ string) (string, error) {
	return "https://connect.stripe.test/onboard/" + accountID, nil
}

func (f *fakeProcessor) GetConnectAccount(_ context.Context, id string) (*payments.ConnectAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.accounts[id]
	return &cp, nil
}

// recordingMailer records which emails went to whom.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (r *recordingMailer) record(kind, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, kind+":"+to)
	return r.fail
}

func (r *recordingMailer) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sent)
}

func (r *recordingMailer) ProducerAssigned(_ context.Context, to string, _ email.ProducerAssigned) error {
	return r.record("assigned", to)
}
func (r *recordingMailer) InternalFiles(_ context.Context, _ email.InternalFiles) error {
	return r.record("files", "internal")
}
func (r *recordingMailer) NewRequest(_ context.Context, to string, _ email.NewRequest) error {
	return r.record("new_request", to)
}
func (r *recordingMailer) Refund(_ context.Context, to string, _ email.Refund) error {
	return r.record("refund", to)
}
func (r *recordingMailer) RevisionDelivered(_ context.Context, to string, _ email.RevisionDelivered) error {
	return r.record("revision_delivered", to)
}
func (r *recordingMailer) RevisionRequested(_ context.Context, to string, _ email.RevisionRequested) error {
	return r.record("revision_requested", to)
}
func (r *recordingMailer) FinalDelivery(_ context.Context, to string, _ email.FinalDelivery) error {
	return r.record("final_delivery", to)
}

type fakeChat struct {
	mu     sync.Mutex
	offers []discord.Assignment
	edits  []string
}

func (f *fakeChat) PostAssignment(_ context.Context, a discord.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, a)
	return nil
}

func (f *fakeChat) EditOriginal(_ context.Context, _ *discordgo.Interaction, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, content)
	return nil
}

// inlineTasks runs dispatched work synchronously.
type inlineTasks struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (t *inlineTasks) Go(name string, fn func(ctx context.Context) error) {
	err := fn(context.Background())
	t.mu.Lock()
	defer t.mu.Unlock()
	t.names = append(t.names, name)
	if err != nil {
		t.errs = append(t.errs, err)
	}
}

type harness struct {
	store      *memStore
	processor  *fakeProcessor
	mailer     *recordingMailer
	chat       *fakeChat
	tasks      *inlineTasks
	rt         *services.Runtime
	now        time.Time
	assigner   *services.AssignmentNotifier
	orders     *services.OrderService
	acceptance *services.AcceptanceService
	sweeper    *services.ExpirySweeper
	payouts    *services.PayoutService
	revisions  *services.RevisionService
	producers  *services.ProducerService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     newMemStore(),
		processor: newFakeProcessor(),
		mailer:    &recordingMailer{},
		chat:      &fakeChat{},
		tasks:     &inlineTasks{},
		now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.rt = &services.Runtime{
		Logger: zap.NewNop(),
		Tasks:  h.tasks,
		Now:    func() time.Time { return h.now },
		Settings: services.Settings{
			PlatformFeePercent: payments.DefaultPlatformFeePercent,
			AcceptanceWindow:   48 * time.Hour,
			Currency:           "usd",
			FrontendURL:        "https://app.example.com",
			SweeperStatuses:    []string{models.StatusPending, models.StatusPaid},
		},
	}
	h.assigner = services.NewAssignmentNotifier(h.rt, h.store, h.store, h.chat, h.mailer, nil)
	h.orders = services.NewOrderService(h.rt, h.store, h.store, h.store, h.processor, h.mailer, h.assigner, h.store)
	h.acceptance = services.NewAcceptanceService(h.rt, h.store, h.store, h.chat, h.mailer, h.assigner)
	h.sweeper = services.NewExpirySweeper(h.rt, h.store, h.processor, h.mailer)
	h.payouts = services.NewPayoutService(h.rt, h.store, h.store, h.processor)
	h.revisions = services.NewRevisionService(h.rt, h.store, h.store, h.store, h.mailer, h.store)
	h.producers = services.NewProducerService(h.rt, h.store, h.processor)
	return h
}

func (h *harness) addProducer(t *testing.T, name, genres, discordID string) *models.Producer {
	t.Helper()
	p := &models.Producer{
		UserID:      uuid.New(),
		Slug:        services.Slugify(name),
		DisplayName: name,
		Email:       services.Slugify(name) + "@producers.example.com",
		Genres:      genres,
		CreatedAt:   h.now.Add(time.Duration(len(h.store.producers)) * time.Second),
	}
	p.DiscordUserID.String, p.DiscordUserID.Valid = discordID, discordID != ""
	if err := h.store.CreateProducer(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

// paidOrder runs checkout and verification for a customer.
func (h *harness) paidOrder(t *testing.T, customer services.Caller, req models.CheckoutRequest) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	resp, err := h.orders.Checkout(ctx, customer, req)
	if err != nil {
		t.Fatal(err)
	}
	h.processor.pay(resp.SessionID)
	if _, err := h.orders.VerifyPayment(ctx, resp.SessionID); err != nil {
		t.Fatal(err)
	}
	return uuid.MustParse(resp.OrderID)
}
