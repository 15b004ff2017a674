package fakeapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/recruit-portal/internal/catalog"
	"github.com/terra-clan/recruit-portal/internal/models"
)

var (
	errNotFound  = errors.New("not found")
	errConflict  = errors.New("already exists")
	errForbidden = errors.New("forbidden")
)

// backend is the in-memory document store behind the handlers
type backend struct {
	mu sync.RWMutex

	users          map[string]*models.User // by email
	domains        map[string]*domainDoc
	questionnaires map[string]*models.Questionnaire
	tasks          map[string]*models.Task
	responses      map[string]*models.Response
	submissions    map[string]*models.Submission
	interviews     map[string]*models.Interview
	whitelist      map[string]*models.WhitelistEntry

	now func() time.Time
}

type domainDoc struct {
	domain models.Domain
	seq    int
}

func newBackend() *backend {
	return &backend{
		users:          make(map[string]*models.User),
		domains:        make(map[string]*domainDoc),
		questionnaires: make(map[string]*models.Questionnaire),
		tasks:          make(map[string]*models.Task),
		responses:      make(map[string]*models.Response),
		submissions:    make(map[string]*models.Submission),
		interviews:     make(map[string]*models.Interview),
		whitelist:      make(map[string]*models.WhitelistEntry),
		now:            time.Now,
	}
}

// seed copies the catalog in. Catalog order is kept for the domain list.
func (b *backend) seed(l *catalog.Loader) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, d := range l.Domains() {
		b.domains[d.ID] = &domainDoc{domain: d, seq: i}
		if q := l.Questionnaire(d.ID); q != nil {
			cp := *q
			b.questionnaires[cp.ID] = &cp
		}
		for _, t := range l.Tasks(d.ID) {
			t := t
			b.tasks[t.ID] = &t
		}
	}
	for _, email := range l.Admins() {
		id := newID()
		b.whitelist[id] = &models.WhitelistEntry{ID: id, Email: email}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (b *backend) isAdmin(email string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	email = normalizeEmail(email)
	for _, w := range b.whitelist {
		if w.Email == email {
			return true
		}
	}
	return false
}

// login returns the user for email, creating it on first sign-in
func (b *backend) login(email, name string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = normalizeEmail(email)
	if u, ok := b.users[email]; ok {
		return *u.Clone()
	}
	u := &models.User{ID: newID(), Email: email, Name: name}
	b.users[email] = u
	return *u.Clone()
}

func (b *backend) user(email string) (models.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.users[normalizeEmail(email)]
	if !ok {
		return models.User{}, errNotFound
	}
	return *u.Clone(), nil
}

func (b *backend) updateProfile(email string, update models.ProfileUpdate) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[normalizeEmail(email)]
	if !ok {
		return models.User{}, errNotFound
	}
	// the selection only changes through applyDomains
	update.SelectedDomainIDs = nil
	updated := update.ApplyTo(*u)
	*u = updated
	return *u.Clone(), nil
}

// applyDomains replaces the selection and drops the user's progress in
// domains that are no longer selected.
func (b *backend) applyDomains(email string, ids []string) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[normalizeEmail(email)]
	if !ok {
		return models.User{}, errNotFound
	}
	for _, id := range ids {
		if _, ok := b.domains[id]; !ok {
			return models.User{}, errNotFound
		}
	}

	kept := make(map[string]bool, len(ids))
	for _, id := range ids {
		kept[id] = true
	}
	for id, r := range b.responses {
		q, ok := b.questionnaires[r.QuestionnaireID.String()]
		if r.UserID.String() == u.ID && (!ok || !kept[q.DomainID.String()]) {
			delete(b.responses, id)
		}
	}
	for id, s := range b.submissions {
		t, ok := b.tasks[s.TaskID.String()]
		if s.UserID.String() == u.ID && (!ok || !kept[t.DomainID.String()]) {
			delete(b.submissions, id)
		}
	}

	u.SelectedDomainIDs = models.RefsOf(ids)
	return *u.Clone(), nil
}

func (b *backend) listDomains() []models.Domain {
	b.mu.RLock()
	defer b.mu.RUnlock()

	docs := make([]*domainDoc, 0, len(b.domains))
	for _, d := range b.domains {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].seq < docs[j].seq })

	out := make([]models.Domain, len(docs))
	for i, d := range docs {
		out[i] = d.domain
	}
	return out
}

func (b *backend) domain(id string) (models.Domain, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.domains[id]
	if !ok {
		return models.Domain{}, false
	}
	return d.domain, true
}

func (b *backend) putDomain(d models.Domain) models.Domain {
	b.mu.Lock()
	defer b.mu.Unlock()

	if d.ID == "" {
		d.ID = newID()
	}
	if existing, ok := b.domains[d.ID]; ok {
		existing.domain = d
		return d
	}
	b.domains[d.ID] = &domainDoc{domain: d, seq: len(b.domains)}
	return d
}

func (b *backend) deleteDomain(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.domains[id]; !ok {
		return errNotFound
	}
	delete(b.domains, id)
	return nil
}

func (b *backend) questionnaireByDomain(domainID string) (models.Questionnaire, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, q := range b.questionnaires {
		if q.DomainID.String() == domainID {
			return *q, true
		}
	}
	return models.Questionnaire{}, false
}

func (b *backend) listQuestionnaires() []models.Questionnaire {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Questionnaire, 0, len(b.questionnaires))
	for _, q := range b.questionnaires {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *backend) putQuestionnaire(q models.Questionnaire) (models.Questionnaire, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.domains[q.DomainID.String()]; !ok {
		return models.Questionnaire{}, errNotFound
	}
	if q.ID == "" {
		for _, existing := range b.questionnaires {
			if existing.DomainID == q.DomainID {
				return models.Questionnaire{}, errConflict
			}
		}
		q.ID = newID()
	} else if _, ok := b.questionnaires[q.ID]; !ok {
		return models.Questionnaire{}, errNotFound
	}
	b.questionnaires[q.ID] = &q
	return q, nil
}

func (b *backend) deleteQuestionnaire(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.questionnaires[id]; !ok {
		return errNotFound
	}
	delete(b.questionnaires, id)
	return nil
}

func (b *backend) tasksByDomain(domainID string) []models.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []models.Task{}
	for _, t := range b.tasks {
		if domainID == "" || t.DomainID.String() == domainID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *backend) putTask(t models.Task) (models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.domains[t.DomainID.String()]; !ok {
		return models.Task{}, errNotFound
	}
	if t.ID == "" {
		t.ID = newID()
	} else if _, ok := b.tasks[t.ID]; !ok {
		return models.Task{}, errNotFound
	}
	b.tasks[t.ID] = &t
	return t, nil
}

func (b *backend) deleteTask(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tasks[id]; !ok {
		return errNotFound
	}
	delete(b.tasks, id)
	return nil
}

// responses returns the responses of userID, or all of them when userID is ""
func (b *backend) listResponses(userID string) []models.Response {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []models.Response{}
	for _, r := range b.responses {
		if userID == "" || r.UserID.String() == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *backend) createResponse(userID string, in models.ResponseInput) (models.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.questionnaires[in.QuestionnaireID]; !ok {
		return models.Response{}, errNotFound
	}
	for _, r := range b.responses {
		if r.UserID.String() == userID && r.QuestionnaireID.String() == in.QuestionnaireID {
			return models.Response{}, errConflict
		}
	}

	r := &models.Response{
		ID:              newID(),
		UserID:          models.Ref(userID),
		QuestionnaireID: models.Ref(in.QuestionnaireID),
		MCQAnswers:      in.MCQAnswers,
		TextAnswers:     in.TextAnswers,
	}
	b.responses[r.ID] = r
	return *r, nil
}

func (b *backend) updateResponse(userID, id string, update models.ResponseUpdate) (models.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.responses[id]
	if !ok {
		return models.Response{}, errNotFound
	}
	if r.UserID.String() != userID {
		return models.Response{}, errForbidden
	}
	if update.MCQAnswers != nil {
		r.MCQAnswers = update.MCQAnswers
	}
	if update.TextAnswers != nil {
		r.TextAnswers = update.TextAnswers
	}
	return *r, nil
}

// listSubmissions filters by user and by the domain of the task; empty
// filters match everything
func (b *backend) listSubmissions(userID, domainID string) []models.Submission {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []models.Submission{}
	for _, s := range b.submissions {
		if userID != "" && s.UserID.String() != userID {
			continue
		}
		if domainID != "" {
			t, ok := b.tasks[s.TaskID.String()]
			if !ok || t.DomainID.String() != domainID {
				continue
			}
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *backend) createSubmission(userID string, in models.SubmissionInput) (models.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tasks[in.TaskID]; !ok {
		return models.Submission{}, errNotFound
	}
	for _, s := range b.submissions {
		if s.UserID.String() == userID && s.TaskID.String() == in.TaskID {
			return models.Submission{}, errConflict
		}
	}

	at := b.now().UTC()
	s := &models.Submission{
		ID:          newID(),
		UserID:      models.Ref(userID),
		TaskID:      models.Ref(in.TaskID),
		RepoLink:    in.RepoLink,
		DockLink:    in.DockLink,
		OtherLink:   in.OtherLink,
		SubmittedAt: &at,
	}
	b.submissions[s.ID] = s
	return *s, nil
}

func (b *backend) updateSubmission(userID, id string, update models.SubmissionUpdate) (models.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.submissions[id]
	if !ok {
		return models.Submission{}, errNotFound
	}
	if s.UserID.String() != userID {
		return models.Submission{}, errForbidden
	}
	at := b.now().UTC()
	s.RepoLink = update.RepoLink
	s.DockLink = update.DockLink
	s.OtherLink = update.OtherLink
	s.SubmittedAt = &at
	return *s, nil
}

func (b *backend) listInterviews(userID string) []models.Interview {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []models.Interview{}
	for _, iv := range b.interviews {
		if userID == "" || iv.UserID.String() == userID {
			out = append(out, *iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Datetime.Before(out[j].Datetime) })
	return out
}

func (b *backend) interview(id string) (models.Interview, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	iv, ok := b.interviews[id]
	if !ok {
		return models.Interview{}, false
	}
	return *iv, true
}

func (b *backend) scheduleInterview(in models.InterviewInput) (models.Interview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.domains[in.DomainID]; !ok {
		return models.Interview{}, errNotFound
	}
	known := false
	for _, u := range b.users {
		if u.ID == in.UserID {
			known = true
			break
		}
	}
	if !known {
		return models.Interview{}, errNotFound
	}

	iv := &models.Interview{
		ID:              newID(),
		UserID:          models.Ref(in.UserID),
		DomainID:        models.Ref(in.DomainID),
		Datetime:        in.Datetime,
		DurationMinutes: in.DurationMinutes,
		MeetLink:        in.MeetLink,
	}
	b.interviews[iv.ID] = iv
	return *iv, nil
}

// rescheduleInterview changes time, duration and link; user and domain stay
func (b *backend) rescheduleInterview(id string, in models.InterviewInput) (models.Interview, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	iv, ok := b.interviews[id]
	if !ok {
		return models.Interview{}, errNotFound
	}
	iv.Datetime = in.Datetime
	iv.DurationMinutes = in.DurationMinutes
	iv.MeetLink = in.MeetLink
	return *iv, nil
}

func (b *backend) cancelInterview(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.interviews[id]; !ok {
		return errNotFound
	}
	delete(b.interviews, id)
	return nil
}

func (b *backend) listWhitelist() []models.WhitelistEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.WhitelistEntry, 0, len(b.whitelist))
	for _, w := range b.whitelist {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (b *backend) addWhitelist(email string) (models.WhitelistEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = normalizeEmail(email)
	for _, w := range b.whitelist {
		if w.Email == email {
			return models.WhitelistEntry{}, errConflict
		}
	}
	w := &models.WhitelistEntry{ID: newID(), Email: email}
	b.whitelist[w.ID] = w
	return *w, nil
}

func (b *backend) removeWhitelist(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.whitelist[id]; !ok {
		return errNotFound
	}
	delete(b.whitelist, id)
	return nil
}

func (b *backend) listUsers() []models.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.User, 0, len(b.users))
	for _, u := range b.users {
		out = append(out, *u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func newID() string {
	return uuid.NewString()
}
