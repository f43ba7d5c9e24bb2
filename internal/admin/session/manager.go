package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName       = "aquaviina_admin_session"
	defaultCookiePath       = "/"
	defaultLifetime         = 12 * time.Hour
	defaultRememberLifetime = 30 * 24 * time.Hour
	defaultIdleTimeout      = 30 * time.Minute
	maxFlashes              = 5
)

// ErrExpired indicates the stored session passed its idle or absolute expiry.
var ErrExpired = errors.New("session expired")

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// User is the signed-in staff member persisted in the cookie.
type User struct {
	UID   string   `json:"uid"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// FlashKind is the tone of a one-shot message shown after a redirect.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a message carried across a single redirect.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// Data is the full persisted session payload.
type Data struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	ExpiresAt  time.Time `json:"expiresAt,omitempty"`
	RememberMe bool      `json:"rememberMe"`
	User       *User     `json:"user,omitempty"`
	Flashes    []Flash   `json:"flashes,omitempty"`
}

// Session holds mutable state for the current request.
type Session struct {
	data      Data
	dirty     bool
	destroyed bool
	cfg       *Config
}

// Config controls cookie encoding and lifetime limits.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	IdleTimeout      time.Duration
	Lifetime         time.Duration
	RememberLifetime time.Duration
	Now              func() time.Time
}

// Manager decodes and persists sessions in signed, optionally encrypted, cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager. A hash key is mandatory.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}

	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.RememberLifetime <= 0 {
		cfg.RememberLifetime = defaultRememberLifetime
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{cfg: cfg, codec: codec, now: nowFn}, nil
}

// GenerateKey returns random key material suitable for development setups
// where no session keys are configured.
func GenerateKey() []byte {
	return securecookie.GenerateRandomKey(32)
}

// Load decodes the session cookie. Missing or tampered cookies yield a fresh
// session; expired ones return ErrExpired.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.New(), nil
	}

	var stored Data
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &stored); err != nil {
		return m.New(), nil
	}
	if stored.ID == "" {
		return m.New(), nil
	}

	sess := &Session{data: stored, cfg: &m.cfg}
	if m.isExpired(sess, m.now()) {
		return nil, ErrExpired
	}
	return sess, nil
}

// Save writes the session cookie. Destroyed sessions clear it.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		http.SetCookie(w, m.expiredCookie())
		return nil
	}

	sess.Touch(m.now())
	encoded, err := m.codec.Encode(m.cfg.CookieName, sess.data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
	if expiry := sess.data.ExpiresAt; !expiry.IsZero() {
		cookie.Expires = expiry.UTC()
		if remaining := expiry.Sub(m.now()); remaining > 0 {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		} else {
			cookie.MaxAge = -1
		}
	}
	http.SetCookie(w, cookie)
	return nil
}

// Destroy clears the session cookie immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, m.expiredCookie())
}

// New returns an empty session.
func (m *Manager) New() *Session {
	now := m.now().UTC()
	sess := &Session{
		data: Data{
			ID:         mustGenerateToken(32),
			CreatedAt:  now,
			LastActive: now,
		},
		dirty: true,
		cfg:   &m.cfg,
	}
	sess.data.ExpiresAt = m.cfg.computeExpiry(now, false)
	return sess
}

func (m *Manager) isExpired(sess *Session, now time.Time) bool {
	now = now.UTC()
	if !sess.data.ExpiresAt.IsZero() && now.After(sess.data.ExpiresAt.UTC()) {
		return true
	}
	last := sess.data.LastActive
	if last.IsZero() {
		last = sess.data.CreatedAt
	}
	return !last.IsZero() && now.Sub(last) > m.cfg.IdleTimeout
}

func (m *Manager) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.data.ID
}

// ExpiresAt returns the absolute expiry.
func (s *Session) ExpiresAt() time.Time {
	return s.data.ExpiresAt
}

// RememberMe reports whether the long lifetime applies.
func (s *Session) RememberMe() bool {
	return s.data.RememberMe
}

// SetRememberMe toggles the long lifetime and recomputes the expiry.
func (s *Session) SetRememberMe(remember bool) {
	if s.data.RememberMe == remember {
		return
	}
	s.data.RememberMe = remember
	s.data.ExpiresAt = s.cfg.computeExpiry(s.data.CreatedAt, remember)
	s.dirty = true
}

// User returns the signed-in user, if any.
func (s *Session) User() *User {
	return s.data.User
}

// SetUser replaces the stored user.
func (s *Session) SetUser(user *User) {
	if equalUsers(s.data.User, user) {
		return
	}
	s.dirty = true
	if user == nil {
		s.data.User = nil
		return
	}
	copied := *user
	copied.Roles = append([]string(nil), user.Roles...)
	s.data.User = &copied
}

// AddFlash queues a message for the next rendered page. Older messages are
// dropped once the queue is full so the cookie stays small.
func (s *Session) AddFlash(kind FlashKind, message string) {
	if message == "" {
		return
	}
	s.data.Flashes = append(s.data.Flashes, Flash{Kind: kind, Message: message})
	if n := len(s.data.Flashes); n > maxFlashes {
		s.data.Flashes = s.data.Flashes[n-maxFlashes:]
	}
	s.dirty = true
}

// PopFlashes returns and clears the queued messages.
func (s *Session) PopFlashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	flashes := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return flashes
}

// Destroy marks the session for deletion when it is saved.
func (s *Session) Destroy() {
	s.destroyed = true
	s.dirty = true
}

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool {
	return s.destroyed
}

// Touch updates the last-active timestamp.
func (s *Session) Touch(now time.Time) {
	now = now.UTC()
	if now.After(s.data.LastActive) {
		s.data.LastActive = now
		s.dirty = true
	}
}

// Dirty reports whether the session changed during this request.
func (s *Session) Dirty() bool {
	return s.dirty
}

func (cfg *Config) computeExpiry(from time.Time, remember bool) time.Time {
	lifetime := cfg.Lifetime
	if remember && cfg.RememberLifetime > 0 {
		lifetime = cfg.RememberLifetime
	}
	if lifetime <= 0 {
		return time.Time{}
	}
	return from.UTC().Add(lifetime)
}

func equalUsers(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.UID != b.UID || a.Email != b.Email || len(a.Roles) != len(b.Roles) {
		return false
	}
	for i := range a.Roles {
		if a.Roles[i] != b.Roles[i] {
			return false
		}
	}
	return true
}

func mustGenerateToken(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Errorf("generate token: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
