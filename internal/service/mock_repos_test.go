package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"gorm.io/gorm"

	"simagang/backend/internal/model"
	pkgerrors "simagang/backend/pkg/errors"
	redispkg "simagang/backend/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) SetVerified(_ context.Context, email string) error {
	for _, u := range m.users {
		if u.Email == email {
			u.IsVerified = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	if u, ok := m.users[userID]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock RegistrationRepository ──
//
// 存副本并模拟版本号 CAS，行为对齐真实仓储的乐观锁语义

type mockRegistrationRepo struct {
	regs map[string]*model.Registration
	seq  int
}

func newMockRegistrationRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{regs: make(map[string]*model.Registration)}
}

func (m *mockRegistrationRepo) clone(reg *model.Registration) *model.Registration {
	c := *reg
	return &c
}

func (m *mockRegistrationRepo) Create(_ context.Context, reg *model.Registration) error {
	if reg.RegistrationID == "" {
		m.seq++
		reg.RegistrationID = fmt.Sprintf("reg-%03d", m.seq)
	}
	if reg.Version == 0 {
		reg.Version = 1
	}
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = time.Now()
	m.regs[reg.RegistrationID] = m.clone(reg)
	return nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, id string) (*model.Registration, error) {
	if r, ok := m.regs[id]; ok {
		return m.clone(r), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByEmail(_ context.Context, email string) (*model.Registration, error) {
	for _, r := range m.regs {
		if r.Email == email {
			return m.clone(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByUserID(_ context.Context, userID string) (*model.Registration, error) {
	for _, r := range m.regs {
		if r.UserID == userID {
			return m.clone(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetByDocumentKey(_ context.Context, key string) (*model.Registration, error) {
	for _, r := range m.regs {
		for _, k := range []*string{
			r.CoverLetterKey, r.CVKey, r.PhotoKey, r.IDCardKey, r.TranscriptKey,
			r.RecommendationKey, r.ReplyLetterKey, r.FinalReportKey, r.CertificateKey,
		} {
			if k != nil && *k == key {
				return m.clone(r), nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) Update(_ context.Context, reg *model.Registration) error {
	stored, ok := m.regs[reg.RegistrationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != reg.Version {
		return pkgerrors.ErrOptimisticLock
	}
	reg.Version++
	reg.UpdatedAt = time.Now()
	m.regs[reg.RegistrationID] = m.clone(reg)
	return nil
}

func (m *mockRegistrationRepo) List(_ context.Context, status string, offset, limit int) ([]model.Registration, int64, error) {
	var all []model.Registration
	for _, r := range m.regs {
		if status != "" && r.Status != status {
			continue
		}
		all = append(all, *m.clone(r))
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockRegistrationRepo) ListBySupervisor(_ context.Context, supervisorID string) ([]model.Registration, error) {
	var result []model.Registration
	for _, r := range m.regs {
		if r.Status != model.RegistrationStatusApproved {
			continue
		}
		if r.SupervisorID != nil && *r.SupervisorID == supervisorID {
			result = append(result, *m.clone(r))
		}
	}
	return result, nil
}

func (m *mockRegistrationRepo) UnassignAllBySupervisor(_ context.Context, supervisorID string) (int64, error) {
	var count int64
	for _, r := range m.regs {
		if r.SupervisorID != nil && *r.SupervisorID == supervisorID {
			r.SupervisorID = nil
			r.Version++
			count++
		}
	}
	return count, nil
}

// ── Mock SupervisorRepository ──

type mockSupervisorRepo struct {
	sups map[string]*model.Supervisor
	seq  int
}

func newMockSupervisorRepo() *mockSupervisorRepo {
	return &mockSupervisorRepo{sups: make(map[string]*model.Supervisor)}
}

func (m *mockSupervisorRepo) Create(_ context.Context, sup *model.Supervisor) error {
	if sup.SupervisorID == "" {
		m.seq++
		sup.SupervisorID = fmt.Sprintf("sup-%03d", m.seq)
	}
	sup.CreatedAt = time.Now()
	sup.UpdatedAt = time.Now()
	m.sups[sup.SupervisorID] = sup
	return nil
}

func (m *mockSupervisorRepo) GetByID(_ context.Context, id string) (*model.Supervisor, error) {
	if s, ok := m.sups[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) GetByEmail(_ context.Context, email string) (*model.Supervisor, error) {
	for _, s := range m.sups {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) Update(_ context.Context, sup *model.Supervisor) error {
	m.sups[sup.SupervisorID] = sup
	return nil
}

func (m *mockSupervisorRepo) List(_ context.Context, offset, limit int) ([]model.Supervisor, int64, error) {
	var all []model.Supervisor
	for _, s := range m.sups {
		all = append(all, *s)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockSupervisorRepo) Delete(_ context.Context, id string) error {
	delete(m.sups, id)
	return nil
}

func (m *mockSupervisorRepo) IncrementStudentCount(_ context.Context, id string) error {
	if s, ok := m.sups[id]; ok {
		s.StudentCount++
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) DecrementStudentCount(_ context.Context, id string) error {
	if s, ok := m.sups[id]; ok {
		if s.StudentCount > 0 {
			s.StudentCount--
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock LogbookRepository ──

type mockLogbookRepo struct {
	logbooks map[string]*model.Logbook
	seq      int
}

func newMockLogbookRepo() *mockLogbookRepo {
	return &mockLogbookRepo{logbooks: make(map[string]*model.Logbook)}
}

func (m *mockLogbookRepo) Create(_ context.Context, lb *model.Logbook) error {
	if lb.LogbookID == "" {
		m.seq++
		lb.LogbookID = fmt.Sprintf("lb-%03d", m.seq)
	}
	lb.CreatedAt = time.Now()
	lb.UpdatedAt = time.Now()
	m.logbooks[lb.LogbookID] = lb
	return nil
}

func (m *mockLogbookRepo) GetByID(_ context.Context, id string) (*model.Logbook, error) {
	if lb, ok := m.logbooks[id]; ok {
		return lb, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLogbookRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Logbook, int64, error) {
	var all []model.Logbook
	for _, lb := range m.logbooks {
		if lb.UserID == userID {
			all = append(all, *lb)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockLogbookRepo) ListByRegistration(_ context.Context, registrationID string, offset, limit int) ([]model.Logbook, int64, error) {
	var all []model.Logbook
	for _, lb := range m.logbooks {
		if lb.RegistrationID == registrationID {
			all = append(all, *lb)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockLogbookRepo) Update(_ context.Context, lb *model.Logbook) error {
	m.logbooks[lb.LogbookID] = lb
	return nil
}

func (m *mockLogbookRepo) Delete(_ context.Context, id string) error {
	delete(m.logbooks, id)
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.NotificationID == "" {
		m.seq++
		n.NotificationID = fmt.Sprintf("ntf-%03d", m.seq)
	}
	n.CreatedAt = time.Now()
	m.notifications[n.NotificationID] = n
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		all = append(all, *n)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifications[id]; ok {
		n.IsRead = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

// countByType 测试辅助：统计某用户某类型的通知数
func (m *mockNotificationRepo) countByType(userID, typ string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && n.Type == typ {
			count++
		}
	}
	return count
}

// ── Mock Mailer ──

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func newMockMailer() *mockMailer {
	return &mockMailer{}
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// ── Mock BlobStore ──

type mockBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (m *mockBlobStore) Upload(_ context.Context, key, _ string, _ io.Reader, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = []byte{}
	return nil
}

func (m *mockBlobStore) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *mockBlobStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// ── Mock TokenStore ──

type mockTokenStore struct {
	mu          sync.Mutex
	otps        map[string]string
	resetTokens map[string]string
	blacklist   map[string]bool
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{
		otps:        make(map[string]string),
		resetTokens: make(map[string]string),
		blacklist:   make(map[string]bool),
	}
}

func (m *mockTokenStore) SetOTP(_ context.Context, email, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[email] = code
	return nil
}

func (m *mockTokenStore) GetOTP(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code, ok := m.otps[email]; ok {
		return code, nil
	}
	return "", redispkg.ErrNotFound
}

func (m *mockTokenStore) DeleteOTP(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, email)
	return nil
}

func (m *mockTokenStore) SetResetToken(_ context.Context, token, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTokens[token] = userID
	return nil
}

func (m *mockTokenStore) GetResetToken(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if userID, ok := m.resetTokens[token]; ok {
		return userID, nil
	}
	return "", redispkg.ErrNotFound
}

func (m *mockTokenStore) DeleteResetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resetTokens, token)
	return nil
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[jti] = true
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
