package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trainingportal/internal/domain"
)

var (
	adminActor   = &domain.Principal{UserID: "admin-1", Email: "admin@example.com", Roles: []string{domain.RoleAdmin}}
	trainerActor = &domain.Principal{UserID: "trainer-1", Email: "trainer@example.com", Roles: []string{domain.RoleTrainer}}
	otherTrainer = &domain.Principal{UserID: "trainer-2", Email: "other@example.com", Roles: []string{domain.RoleTrainer}}
	traineeActor = &domain.Principal{UserID: "trainee-1", Email: "trainee@example.com", Roles: []string{domain.RoleTrainee}}
)

// fakeRoleRepo implements domain.RoleRepository for tests.
type fakeRoleRepo struct {
	byCode    map[string]*domain.Role
	listByUID map[string][]*domain.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		byCode: map[string]*domain.Role{
			domain.RoleAdmin:   domain.NewRole("role-admin", domain.RoleAdmin),
			domain.RoleTrainer: domain.NewRole("role-trainer", domain.RoleTrainer),
			domain.RoleTrainee: domain.NewRole("role-trainee", domain.RoleTrainee),
		},
		listByUID: make(map[string][]*domain.Role),
	}
}

func (f *fakeRoleRepo) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	if r, ok := f.byCode[code]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRoleRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	return f.listByUID[userID], nil
}

// fakeUserRepo implements domain.UserRepository for tests. Role assignments are mirrored into
// the linked fakeRoleRepo so ListByUserID sees them.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	roles     *fakeRoleRepo
	createErr error
	updateErr error
	nextID    int
}

func newFakeUserRepo(roles *fakeRoleRepo) *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), roles: roles}
}

func (f *fakeUserRepo) add(u *domain.User, roleCodes ...string) {
	f.byID[u.ID] = u
	for _, c := range roleCodes {
		f.roles.listByUID[u.ID] = append(f.roles.listByUID[u.ID], f.roles.byCode[c])
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter domain.UserFilter, params domain.PaginationParams) ([]*domain.User, int, error) {
	out := make([]*domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	for _, r := range f.roles.byCode {
		if r.ID == roleID {
			f.roles.listByUID[userID] = append(f.roles.listByUID[userID], r)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeUserRepo) ClearRoles(ctx context.Context, userID string) error {
	delete(f.roles.listByUID, userID)
	return nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct{}

func (fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }
func (fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + "-" + password, nil
}
func (fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+"-"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	roles []string
	err   error
}

func (f *fakeTokenIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.roles = roles
	return "token-" + userID, nil
}

// fakeEmailService records every email it is asked to send.
type fakeEmailService struct {
	welcome      []*domain.WelcomeMessageEmailData
	reminders    []*domain.EventReminderEmailData
	certificates []*domain.CertificateIssuedEmailData
	err          error
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	f.welcome = append(f.welcome, data)
	return f.err
}

func (f *fakeEmailService) SendEventReminder(ctx context.Context, data *domain.EventReminderEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.reminders = append(f.reminders, data)
	return nil
}

func (f *fakeEmailService) SendCertificateIssued(ctx context.Context, data *domain.CertificateIssuedEmailData) error {
	f.certificates = append(f.certificates, data)
	return f.err
}

// fakeProgramRepo implements domain.ProgramRepository for tests.
type fakeProgramRepo struct {
	byID       map[string]*domain.Program
	lastFilter domain.ProgramFilter
	nextID     int
}

func newFakeProgramRepo(programs ...*domain.Program) *fakeProgramRepo {
	f := &fakeProgramRepo{byID: make(map[string]*domain.Program)}
	for _, p := range programs {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProgramRepo) Create(ctx context.Context, p *domain.Program) error {
	f.nextID++
	p.ID = fmt.Sprintf("prog-new-%d", f.nextID)
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProgramRepo) GetByID(ctx context.Context, id string) (*domain.Program, error) {
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProgramRepo) List(ctx context.Context, filter domain.ProgramFilter, params domain.PaginationParams) ([]*domain.Program, int, error) {
	f.lastFilter = filter
	out := make([]*domain.Program, 0)
	for _, p := range f.byID {
		if filter.Status == "" || p.Status == filter.Status {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (f *fakeProgramRepo) Update(ctx context.Context, p *domain.Program) error {
	if _, ok := f.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProgramRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeEnrollmentRepo implements domain.EnrollmentRepository for tests. mu makes
// EnrollWithinCapacity atomic the way the program row lock does in Postgres.
type fakeEnrollmentRepo struct {
	mu     sync.Mutex
	items  []*domain.Enrollment
	nextID int
}

func (f *fakeEnrollmentRepo) add(programID, userID, status string) *domain.Enrollment {
	f.nextID++
	e := &domain.Enrollment{ID: fmt.Sprintf("enr-%d", f.nextID), ProgramID: programID, UserID: userID, Status: status}
	f.items = append(f.items, e)
	return e
}

func (f *fakeEnrollmentRepo) EnrollWithinCapacity(ctx context.Context, e *domain.Enrollment, capacity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	active := 0
	var existing *domain.Enrollment
	for _, x := range f.items {
		if x.ProgramID != e.ProgramID {
			continue
		}
		if x.Status == domain.EnrollmentActive {
			active++
		}
		if x.UserID == e.UserID {
			existing = x
		}
	}
	if capacity > 0 && active >= capacity {
		return domain.ErrProgramFull
	}
	if existing != nil {
		if existing.Status != domain.EnrollmentWithdrawn {
			return domain.ErrAlreadyEnrolled
		}
		existing.Status = domain.EnrollmentActive
		existing.CompletedAt = nil
		e.ID, e.CreatedAt = existing.ID, existing.CreatedAt
		return nil
	}
	f.nextID++
	e.ID = fmt.Sprintf("enr-%d", f.nextID)
	cp := *e
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeEnrollmentRepo) GetByProgramAndUser(ctx context.Context, programID, userID string) (*domain.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.items {
		if x.ProgramID == programID && x.UserID == userID {
			cp := *x
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEnrollmentRepo) ListByProgramID(ctx context.Context, programID string) ([]*domain.Enrollment, error) {
	var out []*domain.Enrollment
	for _, x := range f.items {
		if x.ProgramID == programID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Enrollment, error) {
	var out []*domain.Enrollment
	for _, x := range f.items {
		if x.UserID == userID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id, status string, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.items {
		if x.ID == id {
			x.Status = status
			x.CompletedAt = completedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeCertRepo implements domain.CertificateRepository for tests.
type fakeCertRepo struct {
	items []*domain.Certificate
}

func (f *fakeCertRepo) Create(ctx context.Context, c *domain.Certificate) error {
	for _, x := range f.items {
		if x.ProgramID == c.ProgramID && x.UserID == c.UserID {
			return domain.ErrAlreadyIssued
		}
	}
	c.ID = fmt.Sprintf("cert-%d", len(f.items)+1)
	f.items = append(f.items, c)
	return nil
}

func (f *fakeCertRepo) GetByCode(ctx context.Context, code string) (*domain.Certificate, error) {
	for _, c := range f.items {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCertRepo) GetByProgramAndUser(ctx context.Context, programID, userID string) (*domain.Certificate, error) {
	for _, c := range f.items {
		if c.ProgramID == programID && c.UserID == userID {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCertRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Certificate, error) {
	var out []*domain.Certificate
	for _, c := range f.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeCertService implements domain.CertificateService for program service tests.
type fakeCertService struct {
	issued []string
}

func (f *fakeCertService) Issue(ctx context.Context, issuerID, programID, userID string) (*domain.Certificate, error) {
	f.issued = append(f.issued, programID+"/"+userID)
	return &domain.Certificate{ProgramID: programID, UserID: userID, IssuedBy: issuerID, Code: "code"}, nil
}

func (f *fakeCertService) ListMine(ctx context.Context, actor *domain.Principal) ([]*domain.Certificate, error) {
	return nil, nil
}

func (f *fakeCertService) Verify(ctx context.Context, code string) (*domain.Certificate, error) {
	return nil, domain.ErrNotFound
}

// fakeEventRepo implements domain.EventRepository for tests. List honours the visibility
// restriction and the category filter the way the Postgres repository does.
type fakeEventRepo struct {
	byID       map[string]*domain.CalendarEvent
	lastFilter domain.EventFilter
	nextID     int
}

func newFakeEventRepo(events ...*domain.CalendarEvent) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.CalendarEvent)}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.CalendarEvent) error {
	f.nextID++
	e.ID = fmt.Sprintf("ev-new-%d", f.nextID)
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.CalendarEvent) error {
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter) ([]*domain.CalendarEvent, error) {
	f.lastFilter = filter
	var out []*domain.CalendarEvent
	for _, e := range f.byID {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if !visibleTo(e, filter) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// fakeEncoder implements domain.ICSEncoder for tests.
type fakeEncoder struct {
	got []domain.CalendarEvent
}

func (f *fakeEncoder) Encode(events []domain.CalendarEvent) ([]byte, error) {
	f.got = events
	return []byte("BEGIN:VCALENDAR"), nil
}
