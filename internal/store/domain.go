package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/pkg/client"
)

// MaxDraftDomains is the number of domains an applicant picks
const MaxDraftDomains = 2

// DomainState is the domain slice
type DomainState struct {
	DomainList      []models.Domain `json:"domainList"`
	SelectedDomains []models.Domain `json:"selectedDomains"`
	DraftDomains    []models.Domain `json:"draftDomains"`
	Editing         bool            `json:"editing"`
	Status          RequestStatus   `json:"status"`
}

func (s DomainState) clone() DomainState {
	s.DomainList = cloneDomains(s.DomainList)
	s.SelectedDomains = cloneDomains(s.SelectedDomains)
	s.DraftDomains = cloneDomains(s.DraftDomains)
	return s
}

func cloneDomains(in []models.Domain) []models.Domain {
	if in == nil {
		return nil
	}
	return append([]models.Domain(nil), in...)
}

// DomainGateway is the backend surface the domain container needs
type DomainGateway interface {
	ListDomains(ctx context.Context) ([]models.Domain, error)
	ApplyDomains(ctx context.Context, domainIDs []string) (*models.User, error)
}

// SelectionSource yields the confirmed selection of the signed-in user
type SelectionSource interface {
	SelectedDomainIDs() []string
}

// Domains holds the catalog, the confirmed selection and the draft
type Domains struct {
	mu        sync.RWMutex
	gw        DomainGateway
	selection SelectionSource
	state     DomainState
	epoch     uint64
	changed   hook
}

// NewDomains creates the domain container
func NewDomains(gw DomainGateway, selection SelectionSource) *Domains {
	return &Domains{
		gw:        gw,
		selection: selection,
		state:     DomainState{Status: idle()},
	}
}

// FetchDomains loads the catalog and reconciles the selection against it.
// Outside an edit session the draft is resynced from the selection; during
// one the draft is kept and only pruned to domains still in the catalog.
func (d *Domains) FetchDomains(ctx context.Context) ([]models.Domain, error) {
	d.mu.Lock()
	d.state.Status = loading()
	epoch := d.epoch
	d.mu.Unlock()
	d.changed.fire()

	catalog, err := d.gw.ListDomains(ctx)

	d.mu.Lock()
	if epoch != d.epoch {
		d.mu.Unlock()
		return nil, ErrStaleResult
	}
	if err != nil {
		d.state.Status = failed(err)
		d.mu.Unlock()
		d.changed.fire()
		return nil, fmt.Errorf("fetch domains: %w", err)
	}

	d.state.DomainList = cloneDomains(catalog)
	d.reconcile(d.selection.SelectedDomainIDs(), d.state.Editing)
	d.state.Status = succeeded()
	out := cloneDomains(d.state.DomainList)
	d.mu.Unlock()
	d.changed.fire()

	return out, nil
}

// reconcile derives the selection from ids in catalog order. Caller holds mu.
func (d *Domains) reconcile(selectedIDs []string, keepDraft bool) {
	want := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		want[id] = true
	}

	selected := make([]models.Domain, 0, len(selectedIDs))
	for _, dom := range d.state.DomainList {
		if want[dom.ID] {
			selected = append(selected, dom)
		}
	}
	d.state.SelectedDomains = selected

	if !keepDraft {
		d.state.DraftDomains = cloneDomains(selected)
		d.state.Editing = false
		return
	}

	inCatalog := make(map[string]models.Domain, len(d.state.DomainList))
	for _, dom := range d.state.DomainList {
		inCatalog[dom.ID] = dom
	}
	pruned := make([]models.Domain, 0, len(d.state.DraftDomains))
	for _, dom := range d.state.DraftDomains {
		if fresh, ok := inCatalog[dom.ID]; ok {
			pruned = append(pruned, fresh)
		}
	}
	d.state.DraftDomains = pruned
	d.state.Editing = !sameIDSet(pruned, selected)
}

// ToggleDraftDomain removes domain from the draft if present, adds it if
// there is room, and otherwise does nothing. It reports whether the draft
// changed.
func (d *Domains) ToggleDraftDomain(domain models.Domain) bool {
	d.mu.Lock()
	draft := d.state.DraftDomains
	idx := -1
	for i, dom := range draft {
		if dom.ID == domain.ID {
			idx = i
			break
		}
	}

	switch {
	case idx >= 0:
		next := make([]models.Domain, 0, len(draft)-1)
		next = append(next, draft[:idx]...)
		next = append(next, draft[idx+1:]...)
		d.state.DraftDomains = next
	case len(draft) < MaxDraftDomains:
		d.state.DraftDomains = append(cloneDomains(draft), domain)
	default:
		d.mu.Unlock()
		return false
	}
	d.state.Editing = !sameIDSet(d.state.DraftDomains, d.state.SelectedDomains)
	d.mu.Unlock()
	d.changed.fire()
	return true
}

// ResetDraft discards unsaved edits
func (d *Domains) ResetDraft() {
	d.mu.Lock()
	d.state.DraftDomains = cloneDomains(d.state.SelectedDomains)
	d.state.Editing = false
	d.mu.Unlock()
	d.changed.fire()
}

// ApplyDomains replaces the confirmed selection with domainIDs. On success
// the selection and draft are re-derived from the returned user; on failure
// only the status changes. A success without a user body is reconciled
// from domainIDs and returns a nil user.
func (d *Domains) ApplyDomains(ctx context.Context, domainIDs []string) (*models.User, error) {
	if err := checkSelection(domainIDs); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.state.Status = loading()
	epoch := d.epoch
	d.mu.Unlock()
	d.changed.fire()

	user, err := d.gw.ApplyDomains(ctx, domainIDs)

	d.mu.Lock()
	if epoch != d.epoch {
		d.mu.Unlock()
		return nil, ErrStaleResult
	}
	if errors.Is(err, client.ErrEmptyPayload) {
		d.reconcile(domainIDs, false)
		d.state.Status = succeeded()
		d.mu.Unlock()
		d.changed.fire()
		slog.Warn("domain apply returned no user, using requested selection", "domains", domainIDs)
		return nil, nil
	}
	if err != nil {
		d.state.Status = failed(err)
		d.mu.Unlock()
		d.changed.fire()
		return nil, fmt.Errorf("apply domains: %w", err)
	}

	d.reconcile(user.SelectedDomainIDs.Strings(), false)
	d.state.Status = succeeded()
	d.mu.Unlock()
	d.changed.fire()

	slog.Info("domain selection applied", "user_id", user.ID, "domains", user.SelectedDomainIDs.Strings())
	return user, nil
}

func checkSelection(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			return &ValidationError{Reason: "domain selection contains a blank or repeated domain"}
		}
		seen[id] = true
	}
	if len(seen) != MaxDraftDomains {
		return &ValidationError{Reason: fmt.Sprintf("select exactly %d domains", MaxDraftDomains), Remaining: MaxDraftDomains - len(seen)}
	}
	return nil
}

// HasChanges reports whether the draft differs from the selection as a set
func (d *Domains) HasChanges() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !sameIDSet(d.state.DraftDomains, d.state.SelectedDomains)
}

// DraftIDs returns the ids of the draft in toggle order
func (d *Domains) DraftIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return models.DomainIDs(d.state.DraftDomains)
}

// Lookup finds a catalog domain by id
func (d *Domains) Lookup(id string) (models.Domain, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, dom := range d.state.DomainList {
		if dom.ID == id {
			return dom, true
		}
	}
	return models.Domain{}, false
}

// State returns a copy of the slice
func (d *Domains) State() DomainState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.clone()
}

// Reset clears the slice and discards in-flight results
func (d *Domains) Reset() {
	d.mu.Lock()
	d.state = DomainState{Status: idle()}
	d.epoch++
	d.mu.Unlock()
	d.changed.fire()
}

func (d *Domains) restore(s DomainState) {
	s = s.clone()
	s.Status = settle(s.Status)
	if len(s.DraftDomains) > MaxDraftDomains {
		s.DraftDomains = s.DraftDomains[:MaxDraftDomains]
	}
	s.Editing = !sameIDSet(s.DraftDomains, s.SelectedDomains)
	d.mu.Lock()
	d.state = s
	d.epoch++
	d.mu.Unlock()
}

func sameIDSet(a, b []models.Domain) bool {
	left := make(map[string]struct{}, len(a))
	for _, dom := range a {
		left[dom.ID] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, dom := range b {
		right[dom.ID] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for id := range left {
		if _, ok := right[id]; !ok {
			return false
		}
	}
	return true
}
