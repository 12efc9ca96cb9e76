package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"farewatch-service/internal/domain/entity"
)

// In-memory doubles for the store and boundary interfaces. The mutex on
// each fake makes its check-and-set operations atomic, matching the
// guarantees the real Mongo implementations get from unique indexes and
// FindOneAndUpdate.

type fakeAlertRepo struct {
	mu     sync.Mutex
	seq    int
	alerts map[string]*entity.Alert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[string]*entity.Alert)}
}

func (r *fakeAlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alert.ID == "" {
		r.seq++
		alert.ID = fmt.Sprintf("alert-%d", r.seq)
	}
	if alert.Status == "" {
		alert.Status = entity.AlertActive
	}
	alert.Origin = strings.ToUpper(alert.Origin)
	alert.Destination = strings.ToUpper(alert.Destination)
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = time.Now()
	copied := *alert
	r.alerts[alert.ID] = &copied
	return nil
}

func (r *fakeAlertRepo) FindByID(ctx context.Context, id string) (*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok {
		return nil, entity.ErrAlertNotFound
	}
	copied := *alert
	return &copied, nil
}

func (r *fakeAlertRepo) FindDuplicate(ctx context.Context, alert *entity.Alert) (*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.alerts {
		if existing.Status == entity.AlertDeleted {
			continue
		}
		sameOwner := (alert.OwnerBotID != "" && existing.OwnerBotID == alert.OwnerBotID) ||
			(alert.OwnerWebID != "" && existing.OwnerWebID == alert.OwnerWebID)
		if !sameOwner {
			continue
		}
		if !strings.EqualFold(existing.Origin, alert.Origin) ||
			!strings.EqualFold(existing.Destination, alert.Destination) {
			continue
		}
		if existing.ScopeKind != alert.ScopeKind {
			continue
		}
		copied := *existing
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeAlertRepo) ListActive(ctx context.Context) ([]*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Alert
	for _, alert := range r.alerts {
		if alert.Status == entity.AlertActive {
			copied := *alert
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) ListByBotOwner(ctx context.Context, botID string) ([]*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Alert
	for _, alert := range r.alerts {
		if alert.OwnerBotID == botID && alert.Status != entity.AlertDeleted {
			copied := *alert
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) ListByWebOwner(ctx context.Context, webID string) ([]*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Alert
	for _, alert := range r.alerts {
		if alert.OwnerWebID == webID && alert.Status != entity.AlertDeleted {
			copied := *alert
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) RecordCheck(ctx context.Context, id string, checkedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok {
		return entity.ErrAlertNotFound
	}
	alert.LastCheckedAt = &checkedAt
	return nil
}

func (r *fakeAlertRepo) IncrementSentCount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alert, ok := r.alerts[id]; ok {
		alert.AlertsSentCount++
	}
	return nil
}

func (r *fakeAlertRepo) SetStatus(ctx context.Context, id string, status entity.AlertStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok {
		return entity.ErrAlertNotFound
	}
	alert.Status = status
	return nil
}

func (r *fakeAlertRepo) Reconcile(ctx context.Context, botID, webID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.OwnerBotID == botID {
			alert.OwnerWebID = webID
		}
	}
	for _, alert := range r.alerts {
		if alert.OwnerWebID == webID {
			alert.OwnerBotID = botID
		}
	}
	return nil
}

func (r *fakeAlertRepo) Detach(ctx context.Context, botID, webID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.CreatedBy == entity.CreatedByBot && alert.OwnerBotID == botID {
			alert.OwnerWebID = ""
		}
		if alert.CreatedBy == entity.CreatedByWeb && alert.OwnerWebID == webID {
			alert.OwnerBotID = ""
		}
	}
	return nil
}

func (r *fakeAlertRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	records map[string]*entity.NotificationRecord
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{records: make(map[string]*entity.NotificationRecord)}
}

func recordKey(alertID, fingerprint string) string {
	return alertID + "|" + fingerprint
}

func (r *fakeNotificationRepo) Record(ctx context.Context, rec *entity.NotificationRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey(rec.AlertID, rec.Fingerprint)
	if _, exists := r.records[key]; exists {
		return false, nil
	}
	copied := *rec
	r.records[key] = &copied
	return true, nil
}

func (r *fakeNotificationRepo) MarkDelivered(ctx context.Context, alertID, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[recordKey(alertID, fingerprint)]; ok {
		rec.Delivered = true
	}
	return nil
}

func (r *fakeNotificationRepo) ListByAlert(ctx context.Context, alertID string) ([]*entity.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.NotificationRecord
	for _, rec := range r.records {
		if rec.AlertID == alertID {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUndelivered(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, rec := range r.records {
		if rec.Sent && !rec.Delivered {
			count++
		}
	}
	return count, nil
}

type sentMessage struct {
	address string
	message string
}

type fakeChannel struct {
	name      string
	mu        sync.Mutex
	sent      []sentMessage
	failWith  error
	noReceipt bool
}

func (c *fakeChannel) Name() string {
	return c.name
}

func (c *fakeChannel) Send(ctx context.Context, address, message string) (*entity.DeliveryReceipt, error) {
	if c.failWith != nil {
		return nil, c.failWith
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{address: address, message: message})
	if c.noReceipt {
		return nil, nil
	}
	return &entity.DeliveryReceipt{
		MessageID:   fmt.Sprintf("msg-%d", len(c.sent)),
		DeliveredAt: time.Now(),
	}, nil
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeFareSource struct {
	mu    sync.Mutex
	fares map[string][]entity.Fare
	errs  map[string]error
	calls int
}

func newFakeFareSource() *fakeFareSource {
	return &fakeFareSource{
		fares: make(map[string][]entity.Fare),
		errs:  make(map[string]error),
	}
}

func routeKey(origin, destination string) string {
	return origin + "-" + destination
}

func (f *fakeFareSource) Search(ctx context.Context, origin, destination string, scope entity.SearchScope, pax entity.Passengers) ([]entity.Fare, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := routeKey(origin, destination)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.fares[key], nil
}

type fakeCodeRepo struct {
	mu    sync.Mutex
	seq   int
	codes []*entity.LinkingCode
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{}
}

func (r *fakeCodeRepo) Create(ctx context.Context, code *entity.LinkingCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if code.ID == "" {
		code.ID = fmt.Sprintf("code-%d", r.seq)
	}
	copied := *code
	r.codes = append(r.codes, &copied)
	return nil
}

func (r *fakeCodeRepo) InvalidateForOwner(ctx context.Context, webIdentityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range r.codes {
		if code.WebIdentityID == webIdentityID && !code.Consumed {
			code.Consumed = true
		}
	}
	return nil
}

func (r *fakeCodeRepo) FindActive(ctx context.Context, code string, now time.Time) (*entity.LinkingCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lc := range r.codes {
		if lc.Code == code && !lc.Consumed && now.Before(lc.ExpiresAt) {
			copied := *lc
			return &copied, nil
		}
	}
	return nil, entity.ErrInvalidOrExpiredCode
}

func (r *fakeCodeRepo) Consume(ctx context.Context, code string, now time.Time) (*entity.LinkingCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lc := range r.codes {
		if lc.Code == code && !lc.Consumed && now.Before(lc.ExpiresAt) {
			lc.Consumed = true
			copied := *lc
			return &copied, nil
		}
	}
	return nil, entity.ErrInvalidOrExpiredCode
}

func (r *fakeCodeRepo) Restore(ctx context.Context, code string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lc := range r.codes {
		if lc.Code == code && lc.Consumed && now.Before(lc.ExpiresAt) {
			lc.Consumed = false
			return nil
		}
	}
	return nil
}

func (r *fakeCodeRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*entity.LinkingCode
	var deleted int64
	for _, lc := range r.codes {
		if lc.ExpiresAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, lc)
	}
	r.codes = kept
	return deleted, nil
}

type fakeIdentityRepo struct {
	mu      sync.Mutex
	idents  map[string]*entity.WebIdentity
	bindErr error
}

func newFakeIdentityRepo(ids ...string) *fakeIdentityRepo {
	repo := &fakeIdentityRepo{idents: make(map[string]*entity.WebIdentity)}
	for _, id := range ids {
		repo.idents[id] = &entity.WebIdentity{ID: id, Email: id + "@example.com"}
	}
	return repo
}

func (r *fakeIdentityRepo) FindByID(ctx context.Context, id string) (*entity.WebIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.idents[id]
	if !ok {
		return nil, entity.ErrIdentityNotFound
	}
	copied := *ident
	return &copied, nil
}

func (r *fakeIdentityRepo) FindByBotID(ctx context.Context, botID string) (*entity.WebIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ident := range r.idents {
		if ident.BotIdentityID != nil && *ident.BotIdentityID == botID {
			copied := *ident
			return &copied, nil
		}
	}
	return nil, entity.ErrIdentityNotFound
}

func (r *fakeIdentityRepo) BindBot(ctx context.Context, webID, botID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindErr != nil {
		return r.bindErr
	}
	for id, ident := range r.idents {
		if id != webID && ident.BotIdentityID != nil && *ident.BotIdentityID == botID {
			return entity.ErrAlreadyLinked
		}
	}
	ident, ok := r.idents[webID]
	if !ok {
		return entity.ErrIdentityNotFound
	}
	bound := botID
	ident.BotIdentityID = &bound
	return nil
}

func (r *fakeIdentityRepo) UnbindBot(ctx context.Context, webID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.idents[webID]
	if !ok {
		return "", entity.ErrIdentityNotFound
	}
	if ident.BotIdentityID == nil {
		return "", nil
	}
	botID := *ident.BotIdentityID
	ident.BotIdentityID = nil
	return botID, nil
}
