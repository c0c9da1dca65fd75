package apiclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

// ErrPrefixTooShort means the input has not reached the minimum search
// length and no request was made.
var ErrPrefixTooShort = errors.New("prefix too short")

// Searcher coordinates interactive searches. Short prefixes never
// leave the process, and starting a search cancels the one still in
// flight so stale results cannot land after fresh ones.
type Searcher struct {
	Logger log.Logger
	Config *cfg.Config
	Caller *Caller

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewSearcher(logger log.Logger, config *cfg.Config, caller *Caller) *Searcher {
	return &Searcher{
		Logger: logger,
		Config: config,
		Caller: caller,
	}
}

// MinLen is the prefix length a search must exceed before it fires.
func (s *Searcher) MinLen() int {
	if n := s.Config.Client.MinSearchLen; n > 0 {
		return n
	}
	return 5
}

func (s *Searcher) gate(prefix string) error {
	if utf8.RuneCountInString(prefix) <= s.MinLen() {
		return fmt.Errorf("%w: need more than %d characters", ErrPrefixTooShort, s.MinLen())
	}
	return nil
}

// begin registers a new in-flight search, cancelling the previous one.
func (s *Searcher) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

// finish releases the registration unless a newer search replaced it.
func (s *Searcher) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Search runs a gated, coordinated prefix search on the generic route.
func (s *Searcher) Search(ctx context.Context, schema, table, column, prefix string, limit, offset int) ([]map[string]string, error) {
	if err := s.gate(prefix); err != nil {
		return nil, err
	}
	ctx, gen := s.begin(ctx)
	defer s.finish(gen)
	return s.Caller.Search(ctx, schema, table, column, prefix, limit, offset)
}

// Artists runs a gated, coordinated artist search.
func (s *Searcher) Artists(ctx context.Context, prefix string, limit, offset int) ([]model.Artist, error) {
	if err := s.gate(prefix); err != nil {
		return nil, err
	}
	ctx, gen := s.begin(ctx)
	defer s.finish(gen)
	return s.Caller.Artists(ctx, prefix, limit, offset)
}

// PeopleByLastName runs a gated, coordinated people search.
func (s *Searcher) PeopleByLastName(ctx context.Context, prefix string, limit, offset int) ([]model.Player, error) {
	if err := s.gate(prefix); err != nil {
		return nil, err
	}
	ctx, gen := s.begin(ctx)
	defer s.finish(gen)
	return s.Caller.PeopleByLastName(ctx, prefix, limit, offset)
}
