// Package recommendations loads suggested products for the current visitor.
package recommendations

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/R3E-Network/storefront/internal/app/domain/recommendation"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// API is the subset of the HTTP client the loader needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
}

// Identity picks the endpoint: user-scoped when signed in, session-scoped
// otherwise.
type Identity interface {
	UserID() string
	Token() string
	SessionID() string
}

// Service holds the most recently loaded list.
type Service struct {
	api      API
	identity Identity
	limit    int
	log      *logger.Logger

	mu    sync.RWMutex
	list  []recommendation.Recommendation
	owner string // user id the list was loaded for; "" when anonymous
	epoch uint64
}

// New constructs the loader. limit <= 0 leaves the server default.
func New(api API, identity Identity, limit int, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("recommendations")
	}
	return &Service{api: api, identity: identity, limit: limit, log: log}
}

// List returns a copy of the current recommendations. A list loaded for a
// different user than the one signed in now is not returned.
func (s *Service) List() []recommendation.Recommendation {
	current := s.identity.UserID()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.owner != current {
		return nil
	}
	return append([]recommendation.Recommendation(nil), s.list...)
}

// Clear empties the list. Loads in flight are discarded.
func (s *Service) Clear() {
	s.mu.Lock()
	s.list = nil
	s.owner = ""
	s.epoch++
	s.mu.Unlock()
}

// Load fetches a fresh list from exactly one endpoint. On failure the
// previous list is kept and the error is only logged and returned for
// callers that care; it is never meant for display.
func (s *Service) Load(ctx context.Context) error {
	userID := s.identity.UserID()
	sessionID := s.identity.SessionID()

	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	query := url.Values{}
	if s.limit > 0 {
		query.Set("limit", strconv.Itoa(s.limit))
	}

	var path, token string
	if userID != "" {
		path = "/api/recommendations/" + httputil.PathEscape(userID)
		token = s.identity.Token()
		if sessionID != "" {
			query.Set("session_id", sessionID)
		}
	} else {
		path = "/api/recommendations/session/" + httputil.PathEscape(sessionID)
	}

	var resp recommendation.List
	if err := s.api.Get(ctx, path, query, token, &resp); err != nil {
		s.log.WithError(err).WithField("scope", scope(userID)).Info("recommendation load failed; keeping previous list")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.list = resp.Recommendations
	s.owner = userID
	return nil
}

func scope(userID string) string {
	if userID != "" {
		return "user"
	}
	return "session"
}
