// Package dashboard runs agreement searches for signed-in users and decorates
// the results with warnings.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/internal/filters"
	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/internal/warnings"
	"github.com/GlarosConsulting/atena-client/models"
)

// ErrSuperseded is returned to a search that a newer search of the same
// session replaced before it finished.
var ErrSuperseded = errors.New("search superseded by a newer one")

// ErrUnknownCard is returned for card ids the API does not know.
var ErrUnknownCard = errors.New("unknown dashboard card")

// Cards are the summary cards and the customFilter id each one sends.
var Cards = []string{
	"empenhados",
	"execucao",
	"contratos-repasse",
	"contratos-repasse-execucao",
	"licitacoes-concluidas",
	"contratos-concluidos",
}

// API is the part of the Atena client the service calls.
type API interface {
	Agreements(ctx context.Context, token string, p atena.Params) (*models.AgreementsResponse, error)
	SearchAgreements(ctx context.Context, token string, p atena.Params, f models.Filters) (*models.AgreementsResponse, error)
	CheckFilters(ctx context.Context, token string, p atena.Params, f models.Filters) (*models.AgreementsResponse, error)
}

// Query is one search as the user asked for it.
type Query struct {
	Params     atena.Params   `json:"-"`
	Filters    models.Filters `json:"filters,omitempty"`
	OnlyAlerts bool           `json:"onlyAlerts"`
}

// Result is a search answer with its warnings.
type Result struct {
	Statistics models.Statistics  `json:"statistics"`
	Agreements []models.Agreement `json:"agreements"`
	Count      int                `json:"count"`
	Warnings   warnings.Report    `json:"warnings"`
	FetchedAt  time.Time          `json:"fetchedAt"`
}

// Search lanes. Each lane of a session runs one search at a time.
const (
	laneMain  = "main"
	laneCard  = "card"
	laneCheck = "check"
)

type lane struct {
	seq    uint64
	cancel context.CancelFunc
	last   *Result
	used   time.Time
}

// Service runs searches. Within a session and lane, the newest search wins:
// starting one cancels the previous, and a stale answer is never kept.
type Service struct {
	api       API
	evaluator *warnings.Evaluator
	flight    singleflight.Group
	now       func() time.Time

	mu    sync.Mutex
	lanes map[string]*lane
}

func NewService(api API, evaluator *warnings.Evaluator) *Service {
	return &Service{
		api:       api,
		evaluator: evaluator,
		now:       time.Now,
		lanes:     make(map[string]*lane),
	}
}

// Search runs the dashboard search of a session.
func (s *Service) Search(ctx context.Context, sessionID string, sess *models.Session, q Query) (*Result, error) {
	return s.run(ctx, sessionID, laneMain, sess, q, s.search)
}

// Card lists the agreements behind one summary card.
func (s *Service) Card(ctx context.Context, sessionID string, sess *models.Session, q Query, card string) (*Result, error) {
	if !knownCard(card) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCard, card)
	}
	q.Params.CustomFilter = card
	return s.run(ctx, sessionID, laneCard, sess, q, s.search)
}

// Check asks which agreements the filters in q would match.
func (s *Service) Check(ctx context.Context, sessionID string, sess *models.Session, q Query) (*Result, error) {
	return s.run(ctx, sessionID, laneCheck, sess, q, s.api.CheckFilters)
}

// Last returns the newest finished main search of a session.
func (s *Service) Last(sessionID string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lanes[laneKey(sessionID, laneMain)]
	if !ok || l.last == nil {
		return nil, false
	}
	return l.last, true
}

// Forget cancels and drops everything kept for a session.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{laneMain, laneCard, laneCheck} {
		key := laneKey(sessionID, name)
		if l, ok := s.lanes[key]; ok {
			if l.cancel != nil {
				l.cancel()
			}
			delete(s.lanes, key)
		}
	}
}

// Sweep drops the lanes of every session idle for longer than idle, along
// with their last results, and returns how many lanes went. Lanes with a
// search in flight are kept.
func (s *Service) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, l := range s.lanes {
		if l.cancel == nil && l.used.Before(cutoff) {
			delete(s.lanes, key)
			n++
		}
	}
	return n
}

type fetchFunc func(ctx context.Context, token string, p atena.Params, f models.Filters) (*models.AgreementsResponse, error)

func (s *Service) search(ctx context.Context, token string, p atena.Params, f models.Filters) (*models.AgreementsResponse, error) {
	if filters.Empty(f) {
		return s.api.Agreements(ctx, token, p)
	}
	return s.api.SearchAgreements(ctx, token, p, f)
}

func (s *Service) run(ctx context.Context, sessionID, laneName string, sess *models.Session, q Query, fetch fetchFunc) (*Result, error) {
	if err := session.CanView(sess, q.Params.Sphere, q.Params.City); err != nil {
		return nil, err
	}

	key := laneKey(sessionID, laneName)
	ctx, seq := s.begin(ctx, key)
	defer s.end(key, seq)

	resp, err := s.fetch(ctx, laneName, sess, q, fetch)
	if err != nil {
		if s.stale(key, seq) {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	res := s.build(resp, q)
	if !s.commit(key, seq, res) {
		slog.Debug("Discarding superseded search", "session", sessionID, "lane", laneName, "seq", seq)
		return nil, ErrSuperseded
	}
	return res, nil
}

// fetch shares one API call among identical concurrent queries of the same
// user. The call is detached from ctx so that one caller giving up does not
// fail the others; the caller still stops waiting when ctx ends.
func (s *Service) fetch(ctx context.Context, laneName string, sess *models.Session, q Query, fetch fetchFunc) (*models.AgreementsResponse, error) {
	key, err := flightKey(laneName, sess.User.ID, q)
	if err != nil {
		return nil, err
	}

	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return fetch(context.WithoutCancel(ctx), sess.AccessToken, q.Params, q.Filters)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*models.AgreementsResponse), nil
	}
}

func (s *Service) build(resp *models.AgreementsResponse, q Query) *Result {
	report := s.evaluator.Evaluate(resp.Statistics, resp.Agreements)

	agreements := resp.Agreements
	if q.OnlyAlerts {
		flagged := make(map[string]bool)
		for _, id := range report.Flagged() {
			flagged[id] = true
		}
		agreements = make([]models.Agreement, 0, len(flagged))
		for _, a := range resp.Agreements {
			if flagged[a.ID] {
				agreements = append(agreements, a)
			}
		}
	}
	if agreements == nil {
		agreements = make([]models.Agreement, 0)
	}

	return &Result{
		Statistics: resp.Statistics,
		Agreements: agreements,
		Count:      len(agreements),
		Warnings:   report,
		FetchedAt:  s.now(),
	}
}

// begin registers a new search on a lane, cancelling the one in flight.
func (s *Service) begin(ctx context.Context, key string) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lanes[key]
	if !ok {
		l = &lane{}
		s.lanes[key] = l
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	l.cancel = cancel
	l.used = s.now()
	return ctx, l.seq
}

func (s *Service) end(key string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[key]; ok && l.seq == seq && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (s *Service) stale(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lanes[key]
	return !ok || l.seq != seq
}

func (s *Service) commit(key string, seq uint64, res *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lanes[key]
	if !ok || l.seq != seq {
		return false
	}
	l.last = res
	return true
}

func laneKey(sessionID, laneName string) string {
	return sessionID + "/" + laneName
}

func flightKey(laneName, userID string, q Query) (string, error) {
	f, err := json.Marshal(q.Filters)
	if err != nil {
		return "", fmt.Errorf("encode filters: %w", err)
	}
	return laneName + "|" + userID + "|" + q.Params.Values().Encode() + "|" + string(f), nil
}

func knownCard(card string) bool {
	for _, c := range Cards {
		if c == card {
			return true
		}
	}
	return false
}
