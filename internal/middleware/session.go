package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// contextKey используется как ключ для значений в контексте
type contextKey string

const (
	// ContextKeySessionID ключ ID сессии в контексте запроса
	ContextKeySessionID contextKey = "session_id"
	// SessionCookieName имя cookie сессии
	SessionCookieName = "supportgen_session"
)

// SessionManager выдает и проверяет подписанные cookie сессии
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionManager создает менеджер сессий. secure включает флаг Secure у cookie.
func NewSessionManager(secret string, ttl time.Duration, secure bool, logger *zap.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		logger: logger,
		now:    time.Now,
	}
}

// WithSession middleware: кладет ID сессии в контекст, при отсутствии
// или невалидном токене выдает новую cookie
func (m *SessionManager) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := m.sessionFromRequest(r)
		if !ok {
			var err error
			sessionID, err = m.issue(w)
			if err != nil {
				m.logger.Error("Error issuing session cookie", zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), ContextKeySessionID, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext возвращает ID сессии из контекста
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(ContextKeySessionID).(string)
	return sessionID, ok && sessionID != ""
}

// sessionFromRequest проверяет токен из cookie
func (m *SessionManager) sessionFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}

	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", false
	}

	return claims.SessionID, true
}

// issue создает новую сессию и устанавливает cookie
func (m *SessionManager) issue(w http.ResponseWriter) (string, error) {
	sessionID := uuid.NewString()
	token, err := m.createToken(sessionID)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID, nil
}

// createToken создает JWT токен для сессии
func (m *SessionManager) createToken(sessionID string) (string, error) {
	now := m.now()
	claims := &models.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
