package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/internal/persist"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

// SnapshotVersion is the version written into every snapshot
const SnapshotVersion = 1

// Gateway is everything the store needs from the backend.
// *client.Client implements it.
type Gateway interface {
	ProfileGateway
	DomainGateway
	QuestionGateway
	TaskGateway
	Login(ctx context.Context, idToken string, role models.Role) (*models.User, error)
	ListMyInterviews(ctx context.Context) ([]models.Interview, error)
}

// Origin tells subscribers where a change came from
type Origin string

const (
	// OriginAction is a mutation made by an operation
	OriginAction Origin = "action"
	// OriginRehydrate is state loaded from a snapshot
	OriginRehydrate Origin = "rehydrate"
	// OriginReset is the coordinated logout
	OriginReset Origin = "reset"
)

// Change is delivered to subscribers after every state change
type Change struct {
	Origin Origin
}

// Persistable reports whether the change should be written back
func (c Change) Persistable() bool {
	return c.Origin == OriginAction
}

// Snapshot is the serializable state of all four containers
type Snapshot struct {
	Version  int           `json:"version"`
	Auth     AuthState     `json:"auth"`
	Domain   DomainState   `json:"domain"`
	Question QuestionState `json:"question"`
	Task     TaskState     `json:"task"`
}

// Confirmer asks the user to approve a destructive action
type Confirmer func(message string) bool

// Store is the composition root that owns the four containers
type Store struct {
	Auth      *Auth
	Domains   *Domains
	Questions *Questions
	Tasks     *Tasks

	gw         Gateway
	persister  persist.Persister
	persistKey string
	persistMu  sync.Mutex // a snapshot write and the logout purge never interleave
	authOpts   []AuthOption

	strict     bool
	onViolated func(error)

	quiet     atomic.Int32
	subMu     sync.RWMutex
	subs      map[int]func(Change)
	nextSubID int
}

// Option configures the store
type Option func(*Store)

// WithPersister sets where Persist, Restore and Logout read and write the
// snapshot
func WithPersister(p persist.Persister, key string) Option {
	return func(s *Store) {
		s.persister = p
		s.persistKey = key
	}
}

// WithAuthOptions passes options through to the auth container
func WithAuthOptions(opts ...AuthOption) Option {
	return func(s *Store) {
		s.authOpts = append(s.authOpts, opts...)
	}
}

// WithStrictSerializability checks after every action that the state
// survives a JSON round trip unchanged. Violations go to report, or to the
// error log when report is nil. Rehydration and reset are not checked.
func WithStrictSerializability(report func(error)) Option {
	return func(s *Store) {
		s.strict = true
		s.onViolated = report
	}
}

// New creates the store and its containers
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:   gw,
		subs: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Auth = NewAuth(gw, s.authOpts...)
	s.Domains = NewDomains(gw, s.Auth)
	s.Questions = NewQuestions(gw)
	s.Tasks = NewTasks(gw)

	onAction := func() {
		if s.quiet.Load() == 0 {
			s.emit(OriginAction)
		}
	}
	s.Auth.changed = onAction
	s.Domains.changed = onAction
	s.Questions.changed = onAction
	s.Tasks.changed = onAction

	return s
}

// Subscribe registers fn for every change and returns a function that
// removes it
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(origin Origin) {
	if s.strict && origin == OriginAction {
		if err := s.checkSerializable(); err != nil {
			if s.onViolated != nil {
				s.onViolated(err)
			} else {
				slog.Error("state is not serializable", "error", err)
			}
		}
	}

	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	change := Change{Origin: origin}
	for _, fn := range fns {
		fn(change)
	}
}

func (s *Store) checkSerializable() error {
	first, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	var back Snapshot
	if err := json.Unmarshal(first, &back); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}
	second, err := json.Marshal(back)
	if err != nil {
		return fmt.Errorf("re-marshal state: %w", err)
	}
	if !bytes.Equal(first, second) {
		return errors.New("state changed across a JSON round trip")
	}
	return nil
}

// Login exchanges an identity-provider token for a session. Signing in as
// a different user drops the previous user's data first.
func (s *Store) Login(ctx context.Context, idToken string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	user, err := s.gw.Login(ctx, idToken, role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if prev := s.Auth.State().User; prev != nil && prev.ID != user.ID {
		s.resetScoped()
	}
	s.Auth.LoginSuccess(*user, idToken, role)
	return user, nil
}

// ApplyDraft confirms the draft selection with the backend. The user is
// asked first because the backend resets progress tied to the old domains.
// Cached questionnaires and tasks are dropped afterwards.
func (s *Store) ApplyDraft(ctx context.Context, confirm Confirmer) (*models.User, error) {
	if !s.Auth.State().IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	if !s.Domains.HasChanges() {
		return nil, ErrNoChanges
	}

	ids := s.Domains.DraftIDs()
	if err := checkSelection(ids); err != nil {
		return nil, err
	}
	if confirm != nil && !confirm("Changing your domains resets questionnaire and task progress for the old ones. Continue?") {
		return nil, ErrNotConfirmed
	}

	user, err := s.Domains.ApplyDomains(ctx, ids)
	if err != nil {
		return nil, err
	}

	if user != nil {
		s.Auth.SyncUser(*user)
	} else {
		s.Auth.UpdateDomains(ids)
	}
	s.Questions.Reset()
	s.Tasks.Reset()
	return user, nil
}

// LoadProgress fetches responses plus the questionnaire, tasks and
// submissions of each domain concurrently. With no ids the confirmed
// selection is used. Every fetch runs to completion; the first error is
// returned. A domain without a questionnaire is not an error.
func (s *Store) LoadProgress(ctx context.Context, domainIDs ...string) error {
	if len(domainIDs) == 0 {
		domainIDs = s.Auth.SelectedDomainIDs()
	}

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Questions.GetResponse(ctx)
		return progressErr(err)
	})
	for _, id := range domainIDs {
		id := id
		g.Go(func() error {
			_, err := s.Questions.GetQuestionnaireByDomain(ctx, id)
			if client.IsNotFound(err) {
				return nil
			}
			return progressErr(err)
		})
		g.Go(func() error {
			_, err := s.Tasks.GetTasksByDomain(ctx, id)
			return progressErr(err)
		})
		g.Go(func() error {
			_, err := s.Tasks.GetSubmissions(ctx, id)
			return progressErr(err)
		})
	}
	return g.Wait()
}

// progressErr drops ErrStaleResult: a newer fetch for the same key already
// settled the container.
func progressErr(err error) error {
	if errors.Is(err, ErrStaleResult) {
		return nil
	}
	return err
}

// Interviews returns the caller's scheduled interviews
func (s *Store) Interviews(ctx context.Context) ([]models.Interview, error) {
	if !s.Auth.State().IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	interviews, err := s.gw.ListMyInterviews(ctx)
	if client.IsNotFound(err) {
		return []models.Interview{}, nil
	}
	return interviews, err
}

// Logout clears every container and purges the persisted snapshot.
// Containers are cleared even when the purge fails.
func (s *Store) Logout(ctx context.Context) error {
	s.quiet.Add(1)
	s.Auth.Logout()
	s.resetScoped()
	s.quiet.Add(-1)

	var err error
	if s.persister != nil {
		s.persistMu.Lock()
		if err = s.persister.Purge(ctx, s.persistKey); err != nil {
			err = fmt.Errorf("purge snapshot: %w", err)
		}
		s.persistMu.Unlock()
	}

	slog.Info("session ended")
	s.emit(OriginReset)
	return err
}

func (s *Store) resetScoped() {
	s.quiet.Add(1)
	defer s.quiet.Add(-1)
	s.Domains.Reset()
	s.Questions.Reset()
	s.Tasks.Reset()
}

// Snapshot returns the combined state
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Version:  SnapshotVersion,
		Auth:     s.Auth.State(),
		Domain:   s.Domains.State(),
		Question: s.Questions.State(),
		Task:     s.Tasks.State(),
	}
}

// SnapshotJSON encodes the combined state
func (s *Store) SnapshotJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Rehydrate replaces the state with snap. In-flight statuses become idle,
// the draft is clamped to two domains, and user-scoped data in a snapshot
// without a session is dropped.
func (s *Store) Rehydrate(snap Snapshot) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	s.Auth.restore(snap.Auth)
	if snap.Auth.IsAuthenticated && snap.Auth.User != nil {
		s.Domains.restore(snap.Domain)
		s.Questions.restore(snap.Question)
		s.Tasks.restore(snap.Task)
	} else {
		s.Domains.restore(DomainState{Status: idle()})
		s.Questions.restore(emptyQuestionState())
		s.Tasks.restore(emptyTaskState())
	}

	s.emit(OriginRehydrate)
	return nil
}

// Persist writes the snapshot now. It implements persist.Source. A
// Logout that starts while a write is in flight purges after the write
// lands.
func (s *Store) Persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	data, err := s.SnapshotJSON()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.persister.Save(ctx, s.persistKey, data)
}

// Restore loads and rehydrates the persisted snapshot. It reports false
// when there was nothing to restore.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	if s.persister == nil {
		return false, nil
	}
	data, err := s.persister.Load(ctx, s.persistKey)
	if errors.Is(err, persist.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := s.Rehydrate(snap); err != nil {
		return false, err
	}
	return true, nil
}
