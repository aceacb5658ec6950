// Package waitlist records sign-ups for features that have not launched yet.
package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/storage"
)

const (
	Key = "omotailor_waitlist"

	DefaultSource = "ai-try-on-page"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type Entry struct {
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// List is the whole waitlist, kept as one JSON array under Key.
type List struct {
	mu      sync.Mutex
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewList(st storage.Storage, logger *zap.Logger) *List {
	return &List{storage: st, logger: logger, now: time.Now}
}

// Join adds email to the list. An address already on the list, compared without case, is
// not added twice; the existing entry is returned with created set to false.
func (l *List) Join(ctx context.Context, email, source string) (entry Entry, created bool, err error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return Entry{}, false, ErrInvalidEmail
	}
	if source = strings.TrimSpace(source); source == "" {
		source = DefaultSource
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Email, email) {
			return e, false, nil
		}
	}

	entry = Entry{Email: email, Timestamp: l.now().UTC(), Source: source}
	data, err := json.Marshal(append(entries, entry))
	if err != nil {
		return Entry{}, false, fmt.Errorf("encode waitlist: %w", err)
	}
	if err := l.storage.Set(ctx, Key, data); err != nil {
		return Entry{}, false, fmt.Errorf("save waitlist: %w", err)
	}

	l.logger.Info("waitlist joined", zap.String("source", source), zap.Int("size", len(entries)+1))
	return entry, true, nil
}

// Entries returns every sign-up in the order they joined.
func (l *List) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *List) load(ctx context.Context) ([]Entry, error) {
	data, err := l.storage.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read waitlist: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// a corrupt list is replaced on the next join rather than blocking sign-ups
		l.logger.Warn("discarding malformed waitlist", zap.Error(err))
		return nil, nil
	}
	return entries, nil
}
