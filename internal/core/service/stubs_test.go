package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ITensEI/HCGateway/internal/core/crypto"
	"github.com/ITensEI/HCGateway/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User // by ID
	nextID int

	findErr       error
	setSessionErr error
	setDeviceErr  error
	// createRace makes the first Create report a concurrent registration
	// after storing the racing user.
	createRace *domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Session != nil {
		s := *u.Session
		c.Session = &s
	}
	return &c
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Session != nil && u.Session.Token == token })
}

func (r *stubUserRepo) FindByRefresh(_ context.Context, refresh string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Session != nil && u.Session.Refresh == refresh })
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createRace != nil {
		r.add(r.createRace)
		r.createRace = nil
		return nil, domain.ErrUserExists
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	return cloneUser(r.add(user)), nil
}

func (r *stubUserRepo) add(user *domain.User) *domain.User {
	c := cloneUser(user)
	if c.ID == "" {
		r.nextID++
		c.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[c.ID] = c
	return c
}

func (r *stubUserRepo) SetSession(_ context.Context, userID string, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setSessionErr != nil {
		return r.setSessionErr
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	s := *session
	u.Session = &s
	return nil
}

func (r *stubUserRepo) ClearSession(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Session = nil
	return nil
}

func (r *stubUserRepo) SetDeviceToken(_ context.Context, userID, deviceToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setDeviceErr != nil {
		return r.setDeviceErr
	}
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.DeviceToken = deviceToken
	return nil
}

// ---------------------------------------------------------------------------
// Password hashing
// ---------------------------------------------------------------------------

// fastHasher is argon2id with test-sized parameters.
var fastHasher = crypto.NewArgon2Hasher(crypto.Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
})

// ---------------------------------------------------------------------------
// Login limiter
// ---------------------------------------------------------------------------

type stubLimiter struct {
	blocked  bool
	checkErr error
	failures map[string]int
	resets   int
}

func newStubLimiter() *stubLimiter {
	return &stubLimiter{failures: make(map[string]int)}
}

func (l *stubLimiter) Blocked(_ context.Context, _ string) (bool, error) {
	return l.blocked, l.checkErr
}

func (l *stubLimiter) Fail(_ context.Context, username string) error {
	l.failures[username]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, username string) error {
	delete(l.failures, username)
	l.resets++
	return nil
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

type stubRecordRepo struct {
	mu   sync.Mutex
	docs map[domain.Partition]map[string]*domain.StoredRecord

	// insertErrs fails Insert for specific record IDs.
	insertErrs map[string]error
	findErr    error
	deleteErr  error

	inserts int
	updates int
}

func newStubRecordRepo() *stubRecordRepo {
	return &stubRecordRepo{
		docs:       make(map[domain.Partition]map[string]*domain.StoredRecord),
		insertErrs: make(map[string]error),
	}
}

func (r *stubRecordRepo) partition(p domain.Partition) map[string]*domain.StoredRecord {
	key := domain.Partition{UserID: p.UserID, RecordType: p.Collection()}
	m, ok := r.docs[key]
	if !ok {
		m = make(map[string]*domain.StoredRecord)
		r.docs[key] = m
	}
	return m
}

func (r *stubRecordRepo) Insert(_ context.Context, p domain.Partition, rec *domain.StoredRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.insertErrs[rec.ID]; err != nil {
		return err
	}
	m := r.partition(p)
	if _, ok := m[rec.ID]; ok {
		return domain.ErrRecordExists
	}
	c := *rec
	m[rec.ID] = &c
	r.inserts++
	return nil
}

func (r *stubRecordRepo) Update(_ context.Context, p domain.Partition, rec *domain.StoredRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *rec
	r.partition(p)[rec.ID] = &c
	r.updates++
	return nil
}

// Find supports only an empty filter or a single {"_id": id} match.
func (r *stubRecordRepo) Find(_ context.Context, p domain.Partition, filter map[string]any) ([]*domain.StoredRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.StoredRecord
	for id, doc := range r.partition(p) {
		if want, ok := filter["_id"]; ok && want != id {
			continue
		}
		c := *doc
		out = append(out, &c)
	}
	return out, nil
}

func (r *stubRecordRepo) Delete(_ context.Context, p domain.Partition, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.partition(p), id)
	return nil
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

type stubAudit struct {
	mu     sync.Mutex
	events []domain.SyncEvent
}

func (a *stubAudit) Enqueue(ev domain.SyncEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

// ---------------------------------------------------------------------------
// Messaging
// ---------------------------------------------------------------------------

type sentMessage struct {
	token string
	data  map[string]string
}

type stubMessenger struct {
	sendErr error
	sent    []sentMessage
}

func (m *stubMessenger) Send(_ context.Context, token string, data map[string]string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{token: token, data: data})
	return nil
}
