package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configures a Provider.
type Options struct {
	Secret string
	TTL    time.Duration
	Cookie CookieOptions
	Logger *slog.Logger
}

// Provider signs identities in and out and resolves the identity behind a
// request's session cookie.
type Provider struct {
	db     *gorm.DB
	store  Store
	secret []byte
	ttl    time.Duration
	cookie CookieOptions
	log    *slog.Logger
	now    func() time.Time
}

func NewProvider(db *gorm.DB, store Store, opts Options) *Provider {
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Provider{
		db:     db,
		store:  store,
		secret: []byte(opts.Secret),
		ttl:    opts.TTL,
		cookie: opts.Cookie.normalize(),
		log:    log,
		now:    time.Now,
	}
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateIdentity registers credentials for a new identity. Pass a transaction
// as tx to create it alongside other rows; nil uses the provider's handle.
func (p *Provider) CreateIdentity(ctx context.Context, tx *gorm.DB, email, password string) (Identity, error) {
	if tx == nil {
		tx = p.db
	}
	email = NormalizeEmail(email)
	hash, err := HashPassword(password)
	if err != nil {
		return Identity{}, err
	}
	var n int64
	if err := tx.WithContext(ctx).Model(&Credential{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return Identity{}, err
	}
	if n > 0 {
		return Identity{}, ErrEmailTaken
	}
	cred := Credential{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := tx.WithContext(ctx).Create(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Identity{}, ErrEmailTaken
		}
		return Identity{}, err
	}
	return Identity{ID: cred.ID, Email: cred.Email}, nil
}

// Authenticate checks an email/password pair without opening a session.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		VerifyPassword(string(dummyHash), password)
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if !VerifyPassword(cred.PasswordHash, password) {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{ID: cred.ID, Email: cred.Email}, nil
}

// SignIn authenticates and, on success, opens a session and sets its cookie.
func (p *Provider) SignIn(ctx context.Context, w http.ResponseWriter, email, password string) (Identity, error) {
	id, err := p.Authenticate(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	return p.StartSession(ctx, w, id)
}

// StartSession opens a session for an already authenticated identity and sets
// its cookie.
func (p *Provider) StartSession(ctx context.Context, w http.ResponseWriter, id Identity) (Identity, error) {
	sid, err := newSessionID()
	if err != nil {
		return Identity{}, err
	}
	now := p.now()
	sess := Session{
		ID:         sid,
		IdentityID: id.ID,
		Email:      id.Email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(p.ttl),
	}
	if err := p.store.Create(ctx, sess); err != nil {
		return Identity{}, err
	}
	setCookie(w, p.cookie, encodeToken(p.secret, sid), sess.ExpiresAt)
	id.ExpiresAt = sess.ExpiresAt
	return id, nil
}

// Identity resolves the request's session to an identity. A missing or
// tampered cookie, an unknown or expired session and store errors all
// report false.
func (p *Provider) Identity(r *http.Request) (Identity, bool) {
	sid, ok := p.sessionID(r)
	if !ok {
		return Identity{}, false
	}
	sess, err := p.store.Get(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			p.log.Warn("session lookup failed", "err", err)
		}
		return Identity{}, false
	}
	if sess.Expired(p.now()) {
		return Identity{}, false
	}
	return Identity{ID: sess.IdentityID, Email: sess.Email, ExpiresAt: sess.ExpiresAt}, true
}

// InvalidateSession signs the request's session out: the stored session is
// deleted when possible and the cookie is always cleared.
func (p *Provider) InvalidateSession(w http.ResponseWriter, r *http.Request) {
	if sid, ok := p.sessionID(r); ok {
		if err := p.store.Delete(r.Context(), sid); err != nil {
			p.log.Warn("session delete failed", "err", err)
		}
	}
	clearCookie(w, p.cookie)
}

// RevokeIdentity drops every session of an identity.
func (p *Provider) RevokeIdentity(ctx context.Context, identityID string) error {
	return p.store.DeleteByIdentity(ctx, identityID)
}

func (p *Provider) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(p.cookie.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return decodeToken(p.secret, c.Value)
}
