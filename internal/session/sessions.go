package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/crypto"
)

const (
	CookieName = "scribby_session"

	keyUserKey = "openrouter_key"
)

var ErrNoUserKey = errors.New("no API key stored in session")

// Manager wraps scs.SessionManager with the user key helpers.
type Manager struct {
	*scs.SessionManager
	enc *crypto.Encryptor
}

// NewManager creates the sessions table when missing and returns a manager
// backed by it. sqlDB should be the pool underneath gorm.
func NewManager(sqlDB *sql.DB, cfg config.Session, enc *crypto.Encryptor) (*Manager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.Lifetime / 2

	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm, enc: enc}, nil
}

// PutUserKey stores the user's OpenRouter key, encrypted.
func (m *Manager) PutUserKey(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key must not be empty")
	}
	sealed, err := m.enc.Encrypt(apiKey)
	if err != nil {
		return err
	}
	// New token when the session gains a secret.
	if err := m.RenewToken(ctx); err != nil {
		return err
	}
	m.Put(ctx, keyUserKey, sealed)
	return nil
}

// UserKey returns the decrypted key, or ErrNoUserKey.
func (m *Manager) UserKey(ctx context.Context) (string, error) {
	sealed := m.GetString(ctx, keyUserKey)
	if sealed == "" {
		return "", ErrNoUserKey
	}
	apiKey, err := m.enc.Decrypt(sealed)
	if err != nil {
		// Secret rotated since the key was stored; forget it.
		m.Remove(ctx, keyUserKey)
		return "", fmt.Errorf("stored API key unreadable: %w", err)
	}
	return apiKey, nil
}

func (m *Manager) HasUserKey(ctx context.Context) bool {
	return m.Exists(ctx, keyUserKey)
}

func (m *Manager) DeleteUserKey(ctx context.Context) {
	m.Remove(ctx, keyUserKey)
}

// MaskKey shows only the last four characters of a key.
func MaskKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return strings.Repeat("*", len(apiKey))
	}
	return strings.Repeat("*", 8) + apiKey[len(apiKey)-4:]
}
