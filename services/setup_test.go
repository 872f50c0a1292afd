package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/unimentor/models"
	"github.com/anjiri1684/unimentor/oauth"
	"github.com/anjiri1684/unimentor/payments"
	"github.com/anjiri1684/unimentor/policy"
	"github.com/anjiri1684/unimentor/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const meetingBase = "https://meet.example.com/session-"

type fakeProvider struct {
	info     *oauth.UserInfo
	err      error
	exchange error
}

func (p *fakeProvider) AuthURL(state, redirectURI string) (string, error) {
	return "https://accounts.example.com/auth?state=" + state, nil
}

func (p *fakeProvider) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	if p.exchange != nil {
		return nil, p.exchange
	}
	return &oauth2.Token{AccessToken: "token-for-" + code}, nil
}

func (p *fakeProvider) UserInfo(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.info, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
	done  chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{done: make(chan struct{}, 16)}
}

func (n *fakeNotifier) Notify(ctx context.Context, bookingID uuid.UUID, slotTime time.Time) error {
	n.mu.Lock()
	n.calls = append(n.calls, bookingID)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fakeGateway struct {
	receipt *payments.Receipt
}

func (g fakeGateway) Initiate(ctx context.Context, charge payments.Charge) (*payments.Receipt, error) {
	return g.receipt, nil
}

func (g fakeGateway) Confirm(ctx context.Context, externalID string) (*payments.Receipt, error) {
	if externalID == "" {
		return nil, errors.New("gateway unavailable")
	}
	return g.receipt, nil
}

type suite struct {
	db           *gorm.DB
	provider     *fakeProvider
	notifier     *fakeNotifier
	tokens       *TokenIssuer
	identity     *IdentityService
	mentors      *MentorService
	bookings     *BookingService
	transactions *TransactionService
	reviews      *ReviewService
}

func setup(t *testing.T) *suite {
	t.Helper()

	db := testutil.NewDB(t)
	log := zap.NewNop()
	s := &suite{
		db:       db,
		provider: &fakeProvider{},
		notifier: newFakeNotifier(),
		tokens:   NewTokenIssuer("test-secret", time.Hour, 24*time.Hour),
	}
	s.identity = NewIdentityService(db, s.tokens, s.provider, log, bcrypt.MinCost)
	s.mentors = NewMentorService(db, s.identity, log)
	s.bookings = NewBookingService(db, s.notifier, meetingBase, log)
	s.transactions = NewTransactionService(db, payments.Unintegrated{}, log)
	s.reviews = NewReviewService(db, log)
	return s
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func (s *suite) user(t *testing.T, email string, role models.Role) (*models.User, policy.Actor) {
	t.Helper()
	u := testutil.CreateUser(t, s.db, email, role)
	return u, actorOf(u)
}

func (s *suite) reloadUser(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	var u models.User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		t.Fatalf("reloadUser() failed: %v", err)
	}
	return &u
}
