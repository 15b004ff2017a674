package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/terra-clan/recruit-portal/internal/models"
	"github.com/terra-clan/recruit-portal/internal/store"
)

type commands struct {
	store *store.Store
	out   io.Writer
	in    io.Reader
}

func (c *commands) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.login(ctx, args)
	case "status":
		return c.status()
	case "profile":
		return c.profile(ctx, args)
	case "domains":
		return c.domains(ctx)
	case "toggle":
		return c.toggle(ctx, args)
	case "reset-draft":
		c.store.Domains.ResetDraft()
		fmt.Fprintln(c.out, "Draft reset to your confirmed selection.")
		return nil
	case "apply":
		return c.apply(ctx, args)
	case "progress":
		return c.progress(ctx)
	case "questionnaire":
		return c.questionnaire(ctx, args)
	case "answer":
		return c.answer(ctx, args)
	case "tasks":
		return c.tasks(ctx, args)
	case "submit":
		return c.submit(ctx, args)
	case "interviews":
		return c.interviews(ctx)
	case "logout":
		if err := c.store.Logout(ctx); err != nil {
			return fmt.Errorf("signed out, but saved state could not be removed: %w", err)
		}
		fmt.Fprintln(c.out, "Signed out.")
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func (c *commands) requireSession() error {
	if !c.store.Auth.State().IsAuthenticated {
		return errors.New("not signed in, run: recruit login <id-token>")
	}
	return nil
}

func (c *commands) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	admin := fs.Bool("admin", false, "sign in as admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: recruit login <id-token> [-admin]")
	}

	role := models.RoleUser
	if *admin {
		role = models.RoleAdmin
	}
	user, err := c.store.Login(ctx, fs.Arg(0), role)
	if err != nil {
		return err
	}
	if _, err := c.store.Domains.FetchDomains(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Signed in as %s (%s).\n", user.Email, role)
	if missing := c.store.Auth.Policy().Missing(*user); len(missing) > 0 {
		fmt.Fprintf(c.out, "Your profile is incomplete: %s. Run: recruit profile\n", strings.Join(missing, ", "))
	}
	return nil
}

func (c *commands) status() error {
	st := c.store.Auth.State()
	if !st.IsAuthenticated || st.User == nil {
		fmt.Fprintln(c.out, "Not signed in.")
		return nil
	}

	fmt.Fprintf(c.out, "%s <%s> role=%s profile_complete=%t\n", st.User.Name, st.User.Email, st.Role, st.ProfileComplete)
	ds := c.store.Domains.State()
	fmt.Fprintf(c.out, "Selected: %s\n", names(ds.SelectedDomains))
	if ds.Editing {
		fmt.Fprintf(c.out, "Draft:    %s (unsaved)\n", names(ds.DraftDomains))
	}
	return nil
}

func (c *commands) profile(ctx context.Context, args []string) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fields := map[string]*string{
		"name":      fs.String("name", "", "full name"),
		"regno":     fs.String("regno", "", "registration number"),
		"branch":    fs.String("branch", "", "branch"),
		"github":    fs.String("github", "", "GitHub profile URL"),
		"leetcode":  fs.String("leetcode", "", "LeetCode profile URL"),
		"portfolio": fs.String("portfolio", "", "portfolio URL"),
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	var update models.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		v := models.StringPtr(strings.TrimSpace(*fields[f.Name]))
		switch f.Name {
		case "name":
			update.Name = v
		case "regno":
			update.RegNo = v
		case "branch":
			update.Branch = v
		case "github":
			update.GithubLink = v
		case "leetcode":
			update.LeetcodeLink = v
		case "portfolio":
			update.PortfolioLink = v
		}
	})

	current := c.store.Auth.State().User
	if current == nil {
		return store.ErrNotAuthenticated
	}
	if err := c.store.Auth.Policy().Validate(update.ApplyTo(*current)); err != nil {
		return err
	}

	user, err := c.store.Auth.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Profile saved for %s.\n", user.Email)
	return nil
}

// catalog makes sure the domain list is loaded
func (c *commands) catalog(ctx context.Context) ([]models.Domain, error) {
	if list := c.store.Domains.State().DomainList; len(list) > 0 {
		return list, nil
	}
	return c.store.Domains.FetchDomains(ctx)
}

func (c *commands) domains(ctx context.Context) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if _, err := c.store.Domains.FetchDomains(ctx); err != nil {
		return err
	}

	ds := c.store.Domains.State()
	for _, d := range ds.DomainList {
		mark := " "
		switch {
		case contains(ds.SelectedDomains, d.ID) && contains(ds.DraftDomains, d.ID):
			mark = "x"
		case contains(ds.SelectedDomains, d.ID):
			mark = "-"
		case contains(ds.DraftDomains, d.ID):
			mark = "+"
		}
		fmt.Fprintf(c.out, "[%s] %-10s %s\n", mark, d.ID, d.Name)
	}
	fmt.Fprintf(c.out, "\n%d of %d selected in draft. [x] kept, [+] added, [-] removed\n", len(ds.DraftDomains), store.MaxDraftDomains)
	return nil
}

func (c *commands) toggle(ctx context.Context, args []string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: recruit toggle <domain-id>")
	}
	if _, err := c.catalog(ctx); err != nil {
		return err
	}

	d, ok := c.store.Domains.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown domain %q", args[0])
	}
	if !c.store.Domains.ToggleDraftDomain(d) {
		return fmt.Errorf("you can select at most %d domains, remove one first", store.MaxDraftDomains)
	}
	fmt.Fprintf(c.out, "Draft: %s\n", names(c.store.Domains.State().DraftDomains))
	return nil
}

func (c *commands) apply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	confirm := c.confirm
	if *yes {
		confirm = nil
	}
	if _, err := c.store.ApplyDraft(ctx, confirm); err != nil {
		if errors.Is(err, store.ErrNotConfirmed) {
			fmt.Fprintln(c.out, "Nothing changed.")
			return nil
		}
		return err
	}
	fmt.Fprintf(c.out, "Domains applied: %s\n", names(c.store.Domains.State().SelectedDomains))
	return nil
}

func (c *commands) confirm(message string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", message)
	line, _ := bufio.NewReader(c.in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *commands) progress(ctx context.Context) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if err := c.store.LoadProgress(ctx); err != nil {
		return err
	}
	if _, err := c.catalog(ctx); err != nil {
		return err
	}

	for _, id := range c.store.Auth.SelectedDomainIDs() {
		d, _ := c.store.Domains.Lookup(id)
		fmt.Fprintf(c.out, "%s\n", orID(d.Name, id))

		q := c.store.Questions.Questionnaire(id)
		switch {
		case q == nil:
			fmt.Fprintln(c.out, "  questionnaire: none")
		case c.store.Questions.Response(q.ID) != nil:
			fmt.Fprintln(c.out, "  questionnaire: answered")
		default:
			fmt.Fprintln(c.out, "  questionnaire: not answered")
		}

		tasks, _ := c.store.Tasks.TasksFor(id)
		done := 0
		for _, t := range tasks {
			if c.store.Tasks.Submission(t.ID) != nil {
				done++
			}
		}
		fmt.Fprintf(c.out, "  tasks: %d of %d submitted\n", done, len(tasks))
	}
	return nil
}

// loadQuestionnaire fetches the questionnaire of a domain plus saved responses
func (c *commands) loadQuestionnaire(ctx context.Context, domainID string) (*models.Questionnaire, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	q, err := c.store.Questions.GetQuestionnaireByDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Questions.GetResponse(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *commands) questionnaire(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: recruit questionnaire <domain-id>")
	}
	q, err := c.loadQuestionnaire(ctx, args[0])
	if err != nil {
		return err
	}

	sheet := store.SheetFromResponse(c.store.Questions.Response(q.ID))
	if q.DueDate != nil {
		fmt.Fprintf(c.out, "Due %s\n\n", q.DueDate.Local().Format("Mon 2 Jan 15:04"))
	}
	for _, question := range q.Questions() {
		fmt.Fprintf(c.out, "%s  %s\n", question.ID, question.Text)
		if question.Kind == models.QuestionMCQ {
			picked, answered := sheet.MCQ[question.ID]
			for i, opt := range question.Options {
				mark := " "
				if answered && picked == i {
					mark = "*"
				}
				fmt.Fprintf(c.out, "   %s %d) %s\n", mark, i, opt)
			}
			continue
		}
		if text := sheet.Text[question.ID]; text != "" {
			fmt.Fprintf(c.out, "   > %s\n", text)
		}
	}
	return nil
}

// pairs collects repeated id=value flags
type pairs map[string]string

func (p pairs) String() string { return fmt.Sprint(map[string]string(p)) }

func (p pairs) Set(v string) error {
	id, value, ok := strings.Cut(v, "=")
	if !ok || id == "" {
		return fmt.Errorf("expected id=value, got %q", v)
	}
	p[id] = value
	return nil
}

func (c *commands) answer(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: recruit answer <domain-id> [-mcq id=n] [-text id=answer]")
	}
	domainID := args[0]

	mcq, text := pairs{}, pairs{}
	fs := flag.NewFlagSet("answer", flag.ContinueOnError)
	fs.Var(mcq, "mcq", "question-id=option-index, repeatable")
	fs.Var(text, "text", "question-id=answer, repeatable")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	q, err := c.loadQuestionnaire(ctx, domainID)
	if err != nil {
		return err
	}

	sheet := store.SheetFromResponse(c.store.Questions.Response(q.ID))
	for id, raw := range mcq {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("option for %s must be a number: %w", id, err)
		}
		sheet.SetChoice(id, idx)
	}
	for id, value := range text {
		sheet.SetText(id, value)
	}

	resp, err := c.store.Questions.SaveAnswers(ctx, q, sheet)
	if err != nil {
		var v *store.ValidationError
		if errors.As(err, &v) && len(v.Fields) > 0 {
			return fmt.Errorf("%w\nunanswered: %s", err, strings.Join(v.Fields, ", "))
		}
		return err
	}
	fmt.Fprintf(c.out, "Answers saved (response %s).\n", resp.ID)
	return nil
}

func (c *commands) loadTasks(ctx context.Context, domainID string) ([]models.Task, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	tasks, err := c.store.Tasks.GetTasksByDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.Tasks.GetSubmissions(ctx, domainID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *commands) tasks(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: recruit tasks <domain-id>")
	}
	tasks, err := c.loadTasks(ctx, args[0])
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(c.out, "No tasks for this domain yet.")
		return nil
	}

	for _, t := range tasks {
		state := "open"
		if sub := c.store.Tasks.Submission(t.ID); sub != nil {
			state = "submitted: " + sub.RepoLink
		}
		fmt.Fprintf(c.out, "%s  %s (%s)\n", t.ID, t.Title, state)
		if t.Description != "" {
			fmt.Fprintf(c.out, "    %s\n", t.Description)
		}
	}
	return nil
}

func (c *commands) submit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: recruit submit <domain-id> <task-id> [-repo url] [-dock url] [-other url]")
	}
	domainID, taskID := args[0], args[1]

	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	repo := fs.String("repo", "", "repository link")
	dock := fs.String("dock", "", "documentation link")
	other := fs.String("other", "", "supplementary link")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	if _, err := c.loadTasks(ctx, domainID); err != nil {
		return err
	}

	links := store.LinksFromSubmission(c.store.Tasks.Submission(taskID))
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "repo":
			links.Repo = *repo
		case "dock":
			links.Dock = *dock
		case "other":
			links.Other = *other
		}
	})

	sub, err := c.store.Tasks.SaveSubmission(ctx, taskID, links)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Submission saved for %s.\n", sub.TaskID)
	return nil
}

func (c *commands) interviews(ctx context.Context) error {
	interviews, err := c.store.Interviews(ctx)
	if err != nil {
		return err
	}
	if len(interviews) == 0 {
		fmt.Fprintln(c.out, "No interviews scheduled.")
		return nil
	}
	if _, err := c.catalog(ctx); err != nil {
		return err
	}

	for _, iv := range interviews {
		d, _ := c.store.Domains.Lookup(iv.DomainID.String())
		fmt.Fprintf(c.out, "%s  %s  %d min  %s\n",
			iv.Datetime.Local().Format("Mon 2 Jan 15:04"),
			orID(d.Name, iv.DomainID.String()),
			iv.DurationMinutes,
			iv.MeetLink,
		)
	}
	return nil
}

func names(domains []models.Domain) string {
	if len(domains) == 0 {
		return "(none)"
	}
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = orID(d.Name, d.ID)
	}
	return strings.Join(out, ", ")
}

func contains(domains []models.Domain, id string) bool {
	for _, d := range domains {
		if d.ID == id {
			return true
		}
	}
	return false
}

func orID(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
