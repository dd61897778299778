package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// memCarts is an in-memory port.CartRepository.
type memCarts struct {
	mu    sync.Mutex
	carts map[int64]*domain.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[int64]*domain.Cart)}
}

func (m *memCarts) GetOrCreate(_ context.Context, userID int64) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := *m.getOrCreate(userID)
	cart.Items = slices.Clone(cart.Items)
	return cart, nil
}

func (m *memCarts) AddItem(_ context.Context, userID, courseID int64, quantity int) (domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart := m.getOrCreate(userID)
	for i := range cart.Items {
		if cart.Items[i].CourseID == courseID {
			if cart.Items[i].Quantity+quantity > domain.MaxItemQuantity {
				return domain.CartItem{}, fmt.Errorf("%w: quantity of course[%d] would exceed %d",
					domain.ErrValidation, courseID, domain.MaxItemQuantity)
			}
			cart.Items[i].Quantity += quantity
			return cart.Items[i], nil
		}
	}

	item := domain.CartItem{
		ID:       uuid.New(),
		CartID:   cart.ID,
		CourseID: courseID,
		Quantity: quantity,
		AddedAt:  time.Now(),
	}
	cart.Items = append(cart.Items, item)

	return item, nil
}

func (m *memCarts) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cart := range m.carts {
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items[i].Quantity = quantity
				return nil
			}
		}
	}

	return fmt.Errorf("%w: cart item[%s]", domain.ErrNotFound, itemID)
}

func (m *memCarts) RemoveItem(_ context.Context, itemID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cart := range m.carts {
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items = slices.Delete(cart.Items, i, i+1)
				return true, nil
			}
		}
	}

	return false, nil
}

func (m *memCarts) Clear(_ context.Context, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clear(cartID)
	return nil
}

func (m *memCarts) clear(cartID uuid.UUID) {
	for _, cart := range m.carts {
		if cart.ID == cartID {
			cart.Items = nil
		}
	}
}

func (m *memCarts) removeCourses(cartID uuid.UUID, courseIDs []int64) {
	for _, cart := range m.carts {
		if cart.ID == cartID {
			cart.Items = slices.DeleteFunc(cart.Items, func(item domain.CartItem) bool {
				return slices.Contains(courseIDs, item.CourseID)
			})
		}
	}
}

func (m *memCarts) getOrCreate(userID int64) *domain.Cart {
	cart, ok := m.carts[userID]
	if !ok {
		cart = &domain.Cart{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
		m.carts[userID] = cart
	}
	return cart
}

func (m *memCarts) items(userID int64) []domain.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cart, ok := m.carts[userID]; ok {
		return slices.Clone(cart.Items)
	}
	return nil
}

type memCatalog struct {
	mu      sync.Mutex
	courses map[int64]domain.Course
}

func newMemCatalog(courses ...domain.Course) *memCatalog {
	m := &memCatalog{courses: make(map[int64]domain.Course)}
	for _, c := range courses {
		m.courses[c.ID] = c
	}
	return m
}

func (m *memCatalog) GetCourse(_ context.Context, courseID int64) (domain.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	course, ok := m.courses[courseID]
	if !ok {
		return domain.Course{}, fmt.Errorf("%w: course[%d]", domain.ErrNotFound, courseID)
	}
	return course, nil
}

func (m *memCatalog) remove(courseID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.courses, courseID)
}

type memUsers struct {
	mu       sync.Mutex
	users    map[int64]domain.User
	contacts []domain.ContactFields
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{users: make(map[int64]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) GetUser(_ context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user[%d]", domain.ErrNotFound, userID)
	}
	return user, nil
}

func (m *memUsers) UpdateContact(_ context.Context, userID int64, fields domain.ContactFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("%w: user[%d]", domain.ErrNotFound, userID)
	}
	if fields.Name != "" {
		user.Name = fields.Name
	}
	if fields.Phone != "" {
		user.Phone = fields.Phone
	}
	if fields.PostalCode != "" {
		user.PostalCode = fields.PostalCode
	}
	m.users[userID] = user
	m.contacts = append(m.contacts, fields)

	return nil
}

// memLedger mirrors the uniqueness guarantees of the Postgres ledger and
// removes the purchased courses from the cart on completion like the real
// transaction does.
type memLedger struct {
	mu          sync.Mutex
	carts       *memCarts
	settlements map[string]domain.Settlement
	payments    map[string][]domain.Payment
	events      []domain.PurchaseEvent
}

func newMemLedger(carts *memCarts) *memLedger {
	return &memLedger{
		carts:       carts,
		settlements: make(map[string]domain.Settlement),
		payments:    make(map[string][]domain.Payment),
	}
}

func (m *memLedger) GetSettlement(_ context.Context, intentID string) (domain.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settlements[intentID]
	if !ok {
		return domain.Settlement{}, fmt.Errorf("%w: settlement[%s]", domain.ErrNotFound, intentID)
	}
	return s, nil
}

func (m *memLedger) RecordPayments(_ context.Context, settlement domain.Settlement, payments []domain.Payment) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.settlements[settlement.IntentID]; !ok {
		settlement.CreatedAt = time.Now()
		m.settlements[settlement.IntentID] = settlement
	}

	recorded := m.payments[settlement.IntentID]
	for _, p := range payments {
		dup := slices.ContainsFunc(recorded, func(existing domain.Payment) bool {
			return existing.CourseID == p.CourseID
		})
		if !dup {
			recorded = append(recorded, p)
		}
	}
	m.payments[settlement.IntentID] = recorded

	return slices.Clone(recorded), nil
}

func (m *memLedger) CompleteSettlement(_ context.Context, intentID string, cartID uuid.UUID, courseIDs []int64, event domain.PurchaseEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.settlements[intentID]
	if !ok || s.IsCompleted() {
		return false, nil
	}

	now := time.Now()
	s.Status = domain.SettlementStatusCompleted
	s.CompletedAt = &now
	m.settlements[intentID] = s

	m.carts.mu.Lock()
	m.carts.removeCourses(cartID, courseIDs)
	m.carts.mu.Unlock()

	m.events = append(m.events, event)

	return true, nil
}

func (m *memLedger) ListPayments(_ context.Context, intentID string) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.payments[intentID]), nil
}

func (m *memLedger) settlementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.settlements)
}

func (m *memLedger) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.events)
}

type enrollmentKey struct {
	userID, courseID int64
}

type memEnrollments struct {
	mu       sync.Mutex
	enrolled map[enrollmentKey]domain.Enrollment
	creates  int

	// failCourse makes Create fail for that course until cleared.
	failCourse int64
	// raceCourse makes Exists miss a row that Create then collides with.
	raceCourse int64
}

func newMemEnrollments() *memEnrollments {
	return &memEnrollments{enrolled: make(map[enrollmentKey]domain.Enrollment)}
}

var errEnrollmentDown = errors.New("enrollment store is down")

func (m *memEnrollments) Create(_ context.Context, userID, courseID int64) (domain.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++

	if courseID == m.failCourse {
		return domain.Enrollment{}, errEnrollmentDown
	}

	key := enrollmentKey{userID, courseID}
	if courseID == m.raceCourse {
		m.enrolled[key] = domain.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID, EnrolledAt: time.Now()}
		return domain.Enrollment{}, fmt.Errorf("%w: user[%d] course[%d]", domain.ErrConflict, userID, courseID)
	}
	if _, ok := m.enrolled[key]; ok {
		return domain.Enrollment{}, fmt.Errorf("%w: user[%d] course[%d]", domain.ErrConflict, userID, courseID)
	}

	e := domain.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID, EnrolledAt: time.Now()}
	m.enrolled[key] = e
	return e, nil
}

func (m *memEnrollments) Exists(_ context.Context, userID, courseID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if courseID == m.raceCourse {
		return false, nil
	}

	_, ok := m.enrolled[enrollmentKey{userID, courseID}]
	return ok, nil
}

func (m *memEnrollments) isEnrolled(userID, courseID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.enrolled[enrollmentKey{userID, courseID}]
	return ok
}

func (m *memEnrollments) setFailCourse(courseID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failCourse = courseID
}

// fakeGateway records every call and serves intents and sessions from memory.
type fakeGateway struct {
	mu sync.Mutex

	intents  map[string]domain.PaymentIntent
	sessions map[string]domain.CheckoutSession
	byKey    map[string]string

	createIntentCalls  int
	getIntentCalls     int
	createSessionCalls int
	getSessionCalls    int

	lastIntent  port.CreateIntentParams
	lastSession port.CreateSessionParams

	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:  make(map[string]domain.PaymentIntent),
		sessions: make(map[string]domain.CheckoutSession),
		byKey:    make(map[string]string),
	}
}

func (f *fakeGateway) CreateIntent(_ context.Context, p port.CreateIntentParams) (domain.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createIntentCalls++
	f.lastIntent = p

	if f.createErr != nil {
		return domain.PaymentIntent{}, f.createErr
	}

	if id, ok := f.byKey[p.IdempotencyKey]; ok {
		return f.intents[id], nil
	}

	id := "pi_" + uuid.NewString()
	intent := domain.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		AmountMinor:  p.AmountMinor,
		Currency:     p.Currency,
		Status:       domain.IntentStatusCreated,
		Metadata:     p.Metadata,
	}
	f.intents[id] = intent
	f.byKey[p.IdempotencyKey] = id

	return intent, nil
}

func (f *fakeGateway) GetIntent(_ context.Context, intentID string) (domain.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getIntentCalls++

	intent, ok := f.intents[intentID]
	if !ok {
		return domain.PaymentIntent{}, fmt.Errorf("%w: intent[%s]", domain.ErrNotFound, intentID)
	}
	return intent, nil
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, p port.CreateSessionParams) (domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createSessionCalls++
	f.lastSession = p

	if f.createErr != nil {
		return domain.CheckoutSession{}, f.createErr
	}

	id := "cs_" + uuid.NewString()
	session := domain.CheckoutSession{
		ID:       id,
		URL:      "https://checkout.example.com/" + id,
		Metadata: p.Metadata,
	}
	f.sessions[id] = session

	return session, nil
}

func (f *fakeGateway) GetSession(_ context.Context, sessionID string) (domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getSessionCalls++

	session, ok := f.sessions[sessionID]
	if !ok {
		return domain.CheckoutSession{}, fmt.Errorf("%w: session[%s]", domain.ErrNotFound, sessionID)
	}
	return session, nil
}

// pay moves an intent to the given status, as the customer's browser would.
func (f *fakeGateway) pay(intentID string, status domain.IntentStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	intent := f.intents[intentID]
	intent.Status = status
	f.intents[intentID] = intent
}

func (f *fakeGateway) addIntent(intent domain.PaymentIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.intents[intent.ID] = intent
}

// completeSession links a paid intent to a session.
func (f *fakeGateway) completeSession(sessionID string, status domain.IntentStatus) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	session := f.sessions[sessionID]
	id := "pi_" + uuid.NewString()

	var amount int64
	for _, li := range f.lastSession.LineItems {
		amount += li.UnitAmountMinor * li.Quantity
	}

	f.intents[id] = domain.PaymentIntent{
		ID:          id,
		AmountMinor: amount,
		Currency:    f.lastSession.Currency,
		Status:      status,
		Metadata:    session.Metadata,
	}
	session.PaymentIntentID = id
	f.sessions[sessionID] = session

	return id
}

func (f *fakeGateway) calls() (createIntent, getIntent, createSession, getSession int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.createIntentCalls, f.getIntentCalls, f.createSessionCalls, f.getSessionCalls
}

func usd(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.USD}
}

func course(id int64, price string) domain.Course {
	return domain.Course{
		ID:             id,
		Title:          fmt.Sprintf("Course %d", id),
		Price:          usd(price),
		ThumbnailURL:   fmt.Sprintf("https://cdn.example.com/%d.png", id),
		InstructorName: "Ada Lovelace",
	}
}
