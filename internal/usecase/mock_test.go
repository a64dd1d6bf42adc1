//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"quiz-exam-platform/internal/domain"
	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/domain/ports/adapter"
	"quiz-exam-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// -----------------------------
// In-memory store
// -----------------------------

// memStore backs every in-memory repository below. Values are stored by copy
// so a transaction can be rolled back by restoring a snapshot.
type memStore struct {
	mu sync.Mutex

	users     map[string]model.User
	sets      map[string]model.QuestionSet
	questions map[string]model.Question
	purchases map[string]model.Purchase
	codes     map[string]model.RedeemCode // keyed by id
	progress  map[string]model.UserProgress
	wrong     map[string]model.WrongAnswer
	notified  map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]model.User{},
		sets:      map[string]model.QuestionSet{},
		questions: map[string]model.Question{},
		purchases: map[string]model.Purchase{},
		codes:     map[string]model.RedeemCode{},
		progress:  map[string]model.UserProgress{},
		wrong:     map[string]model.WrongAnswer{},
		notified:  map[string]bool{},
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() *memStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memStore{
		users:     copyMap(s.users),
		sets:      copyMap(s.sets),
		questions: copyMap(s.questions),
		purchases: copyMap(s.purchases),
		codes:     copyMap(s.codes),
		progress:  copyMap(s.progress),
		wrong:     copyMap(s.wrong),
		notified:  copyMap(s.notified),
	}
}

func (s *memStore) restore(snap *memStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.sets, s.questions = snap.users, snap.sets, snap.questions
	s.purchases, s.codes = snap.purchases, snap.codes
	s.progress, s.wrong, s.notified = snap.progress, snap.wrong, snap.notified
}

// ---- TransactionManager ----

// memTxManager runs one transaction at a time and restores the snapshot taken
// at Begin when fn fails. Concurrent callers are therefore serialized; the
// MarkUsed compare-and-swap race is driven explicitly via
// memRedeemCodeRepo.afterFind.
type memTxManager struct {
	store *memStore
	mu    sync.Mutex
	calls int
}

var _ repository.TransactionManager = (*memTxManager)(nil)

type memTx struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	snap := m.store.snapshot()
	if err := fn(ctx, &memTx{}); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ---- Users ----

type memUserRepo struct{ s *memStore }

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Save(_ context.Context, _ repository.Tx, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.users {
		if id != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return domain.ErrAlreadyExists
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindByLogin(_ context.Context, _ repository.Tx, login string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == login || u.Email == strings.ToLower(login) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) TouchLastActive(_ context.Context, _ repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastActiveAt = time.Now()
	r.s.users[id] = u
	return nil
}

// ---- Question sets ----

type memQuestionSetRepo struct {
	s *memStore

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error)
}

var _ repository.QuestionSetRepository = (*memQuestionSetRepo)(nil)

func (r *memQuestionSetRepo) Save(_ context.Context, _ repository.Tx, qs *model.QuestionSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sets[qs.ID] = *qs
	return nil
}

func (r *memQuestionSetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	qs, ok := r.s.sets[id]
	if !ok {
		return nil, domain.ErrQuestionSetNotFound
	}
	return &qs, nil
}

func (r *memQuestionSetRepo) List(_ context.Context, _ repository.Tx, offset, limit int) ([]*model.QuestionSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.QuestionSet, 0, len(r.s.sets))
	for _, qs := range r.s.sets {
		qs := qs
		out = append(out, &qs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memQuestionSetRepo) SaveQuestion(_ context.Context, _ repository.Tx, q *model.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sets[q.QuestionSetID]; !ok {
		return domain.ErrInvalidArgument
	}
	r.s.questions[q.ID] = *q
	return nil
}

func (r *memQuestionSetRepo) FindQuestion(_ context.Context, _ repository.Tx, id string) (*model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &q, nil
}

func (r *memQuestionSetRepo) ListQuestions(_ context.Context, _ repository.Tx, setID string) ([]*model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Question
	for _, q := range r.s.questions {
		if q.QuestionSetID == setID {
			q := q
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// ---- Purchases ----

type memPurchaseRepo struct {
	s *memStore

	CreateFunc func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
}

var _ repository.PurchaseRepository = (*memPurchaseRepo)(nil)

func clonePurchase(p model.Purchase) *model.Purchase {
	if p.ExpiryDate != nil {
		e := *p.ExpiryDate
		p.ExpiryDate = &e
	}
	return &p
}

// checkOneActive mirrors the partial unique index on (user, set) where status = active.
func (r *memPurchaseRepo) checkOneActive(p *model.Purchase) error {
	if p.Status != model.PurchaseStatusActive {
		return nil
	}
	for id, other := range r.s.purchases {
		if id != p.ID && other.Status == model.PurchaseStatusActive &&
			other.UserID == p.UserID && other.QuestionSetID == p.QuestionSetID {
			return domain.ErrAlreadyExists
		}
	}
	return nil
}

func (r *memPurchaseRepo) Create(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, p)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.purchases[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if err := r.checkOneActive(p); err != nil {
		return err
	}
	r.s.purchases[p.ID] = *clonePurchase(*p)
	return nil
}

func (r *memPurchaseRepo) Update(_ context.Context, _ repository.Tx, p *model.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.purchases[p.ID]; !ok {
		return domain.ErrPurchaseNotFound
	}
	if err := r.checkOneActive(p); err != nil {
		return err
	}
	r.s.purchases[p.ID] = *clonePurchase(*p)
	return nil
}

func (r *memPurchaseRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.purchases[id]
	if !ok {
		return nil, domain.ErrPurchaseNotFound
	}
	return clonePurchase(p), nil
}

func (r *memPurchaseRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *memPurchaseRepo) FindValid(_ context.Context, _ repository.Tx, userID, setID string, at time.Time) (*model.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.purchases {
		if p.UserID == userID && p.QuestionSetID == setID && p.IsValidAt(at) {
			return clonePurchase(p), nil
		}
	}
	return nil, domain.ErrPurchaseNotFound
}

func (r *memPurchaseRepo) FindActiveForUpdate(_ context.Context, _ repository.Tx, userID, setID string) (*model.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.purchases {
		if p.UserID == userID && p.QuestionSetID == setID && p.Status == model.PurchaseStatusActive {
			return clonePurchase(p), nil
		}
	}
	return nil, domain.ErrPurchaseNotFound
}

func (r *memPurchaseRepo) list(match func(p model.Purchase) bool) []*model.Purchase {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Purchase
	for _, p := range r.s.purchases {
		if match(p) {
			out = append(out, clonePurchase(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memPurchaseRepo) ListByUser(_ context.Context, _ repository.Tx, userID string) ([]*model.Purchase, error) {
	return r.list(func(p model.Purchase) bool { return p.UserID == userID }), nil
}

func (r *memPurchaseRepo) ListValidByUser(_ context.Context, _ repository.Tx, userID string, at time.Time) ([]*model.Purchase, error) {
	return r.list(func(p model.Purchase) bool { return p.UserID == userID && p.IsValidAt(at) }), nil
}

func (r *memPurchaseRepo) FindExpiring(_ context.Context, _ repository.Tx, at time.Time, within time.Duration) ([]*model.Purchase, error) {
	until := at.Add(within)
	return r.list(func(p model.Purchase) bool {
		return p.IsValidAt(at) && !p.ExpiryDate.After(until)
	}), nil
}

func (r *memPurchaseRepo) LockEntitlement(_ context.Context, tx repository.Tx, _, _ string) error {
	if tx == nil {
		return domain.ErrInvalidExecContext
	}
	return nil
}

// ---- Redeem codes ----

type memRedeemCodeRepo struct {
	s *memStore

	// collisions makes the next n inserts report a taken code; collideAll makes every insert do so.
	collisions int
	collideAll bool

	// afterFind may rewrite the row returned by FindByCodeForUpdate, e.g. to
	// hand out a read that predates a competing redemption.
	afterFind func(c *model.RedeemCode)
}

var _ repository.RedeemCodeRepository = (*memRedeemCodeRepo)(nil)

func (r *memRedeemCodeRepo) Insert(_ context.Context, _ repository.Tx, c *model.RedeemCode) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.collideAll || r.collisions > 0 {
		r.collisions--
		return false, nil
	}
	for _, other := range r.s.codes {
		if other.Code == c.Code {
			return false, nil
		}
	}
	r.s.codes[c.ID] = *c
	return true, nil
}

func (r *memRedeemCodeRepo) FindByCode(_ context.Context, _ repository.Tx, code string) (*model.RedeemCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range r.s.codes {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, domain.ErrCodeNotFound
}

func (r *memRedeemCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.RedeemCode, error) {
	c, err := r.FindByCode(ctx, tx, code)
	if err == nil && r.afterFind != nil {
		r.afterFind(c)
	}
	return c, err
}

func (r *memRedeemCodeRepo) MarkUsed(_ context.Context, _ repository.Tx, id, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[id]
	if !ok || c.IsUsed {
		return domain.ErrCodeAlreadyUsed
	}
	c.IsUsed = true
	c.UsedBy = &userID
	c.UsedAt = &at
	r.s.codes[id] = c
	return nil
}

func (r *memRedeemCodeRepo) ListBySet(_ context.Context, _ repository.Tx, setID string, offset, limit int) ([]*model.RedeemCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.RedeemCode
	for _, c := range r.s.codes {
		if c.TargetSetID() == setID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Progress ----

type memProgressRepo struct{ s *memStore }

var _ repository.ProgressRepository = (*memProgressRepo)(nil)

func progressKey(userID, setID string) string { return userID + "|" + setID }

func (r *memProgressRepo) RecordAnswer(_ context.Context, _ repository.Tx, userID, setID, questionID string, correct bool) (*model.UserProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.progress[progressKey(userID, setID)]
	p.UserID, p.QuestionSetID = userID, setID
	p.AnsweredCount++
	if correct {
		p.CorrectCount++
	}
	p.LastQuestionID = questionID
	p.UpdatedAt = time.Now()
	r.s.progress[progressKey(userID, setID)] = p
	return &p, nil
}

func (r *memProgressRepo) Find(_ context.Context, _ repository.Tx, userID, setID string) (*model.UserProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.progress[progressKey(userID, setID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memProgressRepo) UpsertWrongAnswer(_ context.Context, _ repository.Tx, w *model.WrongAnswer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, cur := range r.s.wrong {
		if cur.UserID == w.UserID && cur.QuestionID == w.QuestionID {
			cur.WrongCount++
			cur.SelectedOptionIDs = w.SelectedOptionIDs
			cur.LastWrongAt = w.LastWrongAt
			r.s.wrong[id] = cur
			return nil
		}
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	r.s.wrong[w.ID] = *w
	return nil
}

func (r *memProgressRepo) ListWrongAnswers(_ context.Context, _ repository.Tx, userID, setID string) ([]*model.WrongAnswer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.WrongAnswer
	for _, w := range r.s.wrong {
		if w.UserID == userID && w.QuestionSetID == setID {
			w := w
			out = append(out, &w)
		}
	}
	return out, nil
}

func (r *memProgressRepo) DeleteWrongAnswer(_ context.Context, _ repository.Tx, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wrong[id]
	if !ok || w.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.s.wrong, id)
	return nil
}

// ---- Notification log ----

type memNotificationLogRepo struct{ s *memStore }

var _ repository.NotificationLogRepository = (*memNotificationLogRepo)(nil)

func notifKey(purchaseID, kind string, threshold int) string {
	return purchaseID + "|" + kind + "|" + strconv.Itoa(threshold)
}

func (r *memNotificationLogRepo) Save(_ context.Context, _ repository.Tx, purchaseID, _ string, kind string, threshold int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notified[notifKey(purchaseID, kind, threshold)] = true
	return nil
}

func (r *memNotificationLogRepo) Exists(_ context.Context, _ repository.Tx, purchaseID, kind string, threshold int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.notified[notifKey(purchaseID, kind, threshold)], nil
}

// =============================
// Adapters
// =============================

type publishedEvent struct {
	UserID  string
	Event   string
	Payload any
}

type MockNotifier struct {
	mu     sync.Mutex
	Events []publishedEvent

	PublishFunc func(ctx context.Context, userID, event string, payload any) error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Publish(ctx context.Context, userID, event string, payload any) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, userID, event, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, publishedEvent{UserID: userID, Event: event, Payload: payload})
	return nil
}

func (m *MockNotifier) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

type MockAlerter struct {
	mu   sync.Mutex
	Sent []string
}

var _ adapter.Alerter = (*MockAlerter)(nil)

func (m *MockAlerter) Alert(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, text)
	return nil
}

type plainHasher struct{}

var _ adapter.PasswordHasher = plainHasher{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "hashed:"+p {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fixedTokens struct{}

var _ adapter.TokenIssuer = fixedTokens{}

func (fixedTokens) Issue(userID, role string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("empty subject")
	}
	return "token-" + userID + "-" + role, time.Now().Add(time.Hour), nil
}

// =============================
// Fixture
// =============================

type fixture struct {
	store     *memStore
	tm        *memTxManager
	users     *memUserRepo
	sets      *memQuestionSetRepo
	purchases *memPurchaseRepo
	codes     *memRedeemCodeRepo
	progress  *memProgressRepo
	notifLog  *memNotificationLogRepo
	notifier  *MockNotifier
	alerter   *MockAlerter
}

func newFixture() *fixture {
	s := newMemStore()
	return &fixture{
		store:     s,
		tm:        &memTxManager{store: s},
		users:     &memUserRepo{s: s},
		sets:      &memQuestionSetRepo{s: s},
		purchases: &memPurchaseRepo{s: s},
		codes:     &memRedeemCodeRepo{s: s},
		progress:  &memProgressRepo{s: s},
		notifLog:  &memNotificationLogRepo{s: s},
		notifier:  &MockNotifier{},
		alerter:   &MockAlerter{},
	}
}

func (f *fixture) addSet(id string, paid bool, price string) *model.QuestionSet {
	qs, err := model.NewQuestionSet(id, "Set "+id, "", paid, decimal.RequireFromString(price), "")
	if err != nil {
		panic(err)
	}
	f.store.sets[id] = *qs
	return qs
}

func (f *fixture) addCode(code string, setID *string, validityDays int, expiry time.Time) *model.RedeemCode {
	c := model.RedeemCode{
		ID:            uuid.NewString(),
		Code:          code,
		QuestionSetID: setID,
		ValidityDays:  validityDays,
		ExpiryDate:    expiry,
		CreatedAt:     time.Now(),
	}
	f.store.codes[c.ID] = c
	return &c
}

func (f *fixture) addActivePurchase(userID, setID string, expiry time.Time) *model.Purchase {
	p := model.Purchase{
		ID:            uuid.NewString(),
		UserID:        userID,
		QuestionSetID: setID,
		Status:        model.PurchaseStatusActive,
		PurchaseDate:  time.Now(),
		ExpiryDate:    &expiry,
		Amount:        decimal.Zero,
		PaymentMethod: "card",
		CreatedAt:     time.Now(),
	}
	f.store.purchases[p.ID] = p
	return clonePurchase(p)
}

func (f *fixture) activeCount(userID, setID string) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	n := 0
	for _, p := range f.store.purchases {
		if p.UserID == userID && p.QuestionSetID == setID && p.Status == model.PurchaseStatusActive {
			n++
		}
	}
	return n
}

func strPtr(s string) *string { return &s }
