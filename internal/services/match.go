package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ShameelMohamed/FASHN8/internal/garment"
	"github.com/ShameelMohamed/FASHN8/internal/llm"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	messageNoResponse = "No response from AI."
	messageUnparsed   = "The AI answer did not follow the expected format."
	messageNoImage    = "No image found for the suggested color."
)

var bestMatchPattern = regexp.MustCompile(`(?s)BEST_MATCH:\s*([^,\s]+)\s*,\s*REASON:(.*)`)

// WardrobeReader loads a user together with their wardrobe.
type WardrobeReader interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

// MatchService pairs a focused garment with the best garment of the opposite
// category, keeping per-session exclusion history in memory.
type MatchService struct {
	users     WardrobeReader
	generator llm.Generator
	sessions  *cache.Cache
	mu        sync.Mutex
	log       logging.Logger
	now       func() time.Time
}

// NewMatchService returns a matcher whose idle sessions expire after ttl.
func NewMatchService(users WardrobeReader, generator llm.Generator, ttl time.Duration, log logging.Logger) *MatchService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MatchService{
		users:     users,
		generator: generator,
		sessions:  cache.New(ttl, ttl/2),
		log:       log,
		now:       time.Now,
	}
}

// StartSession opens a session focused on category.
func (s *MatchService) StartSession(username string, category types.Category) (types.MatchSession, error) {
	if !category.Valid() {
		return types.MatchSession{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	session := &types.MatchSession{
		ID:         uuid.NewString(),
		Username:   username,
		Category:   category,
		Exclusions: []string{},
		CreatedAt:  s.now().UTC(),
	}
	s.sessions.SetDefault(session.ID, session)
	return cloneSession(session), nil
}

// Session returns the state of a session owned by username.
func (s *MatchService) Session(id, username string) (types.MatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(id, username)
	if err != nil {
		return types.MatchSession{}, err
	}
	return cloneSession(session), nil
}

// SwitchCategory refocuses the session and clears its exclusion history.
func (s *MatchService) SwitchCategory(id, username string, category types.Category) (types.MatchSession, error) {
	if !category.Valid() {
		return types.MatchSession{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(id, username)
	if err != nil {
		return types.MatchSession{}, err
	}
	session.Category = category
	session.Exclusions = []string{}
	s.sessions.SetDefault(id, session)
	return cloneSession(session), nil
}

// EndSession discards a session.
func (s *MatchService) EndSession(id, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(id, username); err != nil {
		return err
	}
	s.sessions.Delete(id)
	return nil
}

// Match asks the generator for the best garment of the opposite category to
// pair with a garment of color. With alternate set, every earlier
// suggestion of the session is excluded.
func (s *MatchService) Match(ctx context.Context, id, username, color string, alternate bool) (types.MatchResult, error) {
	focus, ok := garment.NormalizeHex(color)
	if !ok {
		return types.MatchResult{}, fmt.Errorf("%w: invalid color %q", ErrInvalidInput, color)
	}

	session, err := s.Session(id, username)
	if err != nil {
		return types.MatchResult{}, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return types.MatchResult{}, err
	}
	opposite := user.Wardrobe(session.Category.Opposite())
	options := opposite.Colors()
	if len(options) == 0 {
		return types.MatchResult{}, ErrEmptyWardrobe
	}

	var exclusions []string
	if alternate {
		exclusions = session.Exclusions
	}

	text, err := s.generator.Generate(ctx, BuildPrompt(session.Category, focus, options, exclusions))
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("%w: generate match: %w", ErrUpstream, err)
	}

	result := ParseMatch(text)
	switch result.Status {
	case types.MatchStatusEmpty:
		result.Message = messageNoResponse
	case types.MatchStatusUnparsed:
		result.Message = messageUnparsed
	case types.MatchStatusMatched:
		result.ImageURL, result.ImageFound = lookupColor(opposite, result.BestMatch)
		if !result.ImageFound {
			result.Message = messageNoImage
		}
	}

	result.Exclusions = session.Exclusions
	if result.Status == types.MatchStatusMatched {
		result.Exclusions = s.exclude(id, username, session.Category, result.BestMatch)
	}

	s.log.Debug(ctx, "outfit match", "user", username, "session", id, "focus", focus, "status", result.Status, "best_match", result.BestMatch)
	return result, nil
}

// exclude appends color to the session history if it is new and returns the
// updated history. A suggestion made for category is discarded when the
// session has switched category since the match started.
func (s *MatchService) exclude(id, username string, category types.Category, color string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(id, username)
	if err != nil {
		return []string{color}
	}
	if session.Category != category {
		return append([]string{}, session.Exclusions...)
	}
	for _, c := range session.Exclusions {
		if c == color {
			return append([]string(nil), session.Exclusions...)
		}
	}
	session.Exclusions = append(session.Exclusions, color)
	s.sessions.SetDefault(id, session)
	return append([]string(nil), session.Exclusions...)
}

// lookup must be called with s.mu held.
func (s *MatchService) lookup(id, username string) (*types.MatchSession, error) {
	value, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := value.(*types.MatchSession)
	if session.Username != username {
		return nil, ErrForbidden
	}
	return session, nil
}

// BuildPrompt renders the matching prompt. focused is the category of the
// garment being matched; options are the color keys of the opposite category.
func BuildPrompt(focused types.Category, color string, options, exclusions []string) string {
	exclude := ""
	if len(exclusions) > 0 {
		exclude = fmt.Sprintf("Exclude these colors: %s.", listLiteral(exclusions))
	}
	return fmt.Sprintf(
		"You are a fashion advisor AI assistant. %s From the array %s, pick the best matching %s for a %s %s and explain why. Return in format BEST_MATCH:<hexcode>, REASON:<reason>.",
		exclude,
		listLiteral(options),
		focused.Opposite().Field(),
		color,
		focused.Noun(),
	)
}

// ParseMatch interprets a generator answer. Only text of the form
// "BEST_MATCH:<token>, REASON:<text>" is parsed; anything else is returned
// verbatim with status unparsed.
func ParseMatch(text string) types.MatchResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.MatchResult{Status: types.MatchStatusEmpty}
	}

	m := bestMatchPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return types.MatchResult{Status: types.MatchStatusUnparsed, RawText: trimmed}
	}
	return types.MatchResult{
		Status:    types.MatchStatusMatched,
		BestMatch: m[1],
		Reason:    strings.TrimSpace(m[2]),
		RawText:   trimmed,
	}
}

// lookupColor finds color in w, tolerating case and a missing '#'.
func lookupColor(w types.Wardrobe, color string) (string, bool) {
	if url, ok := w[color]; ok {
		return url, true
	}
	if normalized, ok := garment.NormalizeHex(color); ok {
		url, found := w[normalized]
		return url, found
	}
	return "", false
}

// listLiteral formats values the way the prompt has always shown them:
// ['#aabbcc', '#ddeeff'].
func listLiteral(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func cloneSession(session *types.MatchSession) types.MatchSession {
	out := *session
	out.Exclusions = append([]string{}, session.Exclusions...)
	return out
}
