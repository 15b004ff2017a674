package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/recruit-portal/internal/models"
)

// Loader holds the recruitment catalog read from a fixtures directory:
//
//	<dir>/whitelist.yaml
//	<dir>/<domain>/domain.yaml
//	<dir>/<domain>/questionnaire.yaml
//	<dir>/<domain>/tasks/*.yaml
type Loader struct {
	mu             sync.RWMutex
	domains        map[string]*domainEntry
	questionnaires map[string]*models.Questionnaire // by domain id
	tasks          map[string][]models.Task         // by domain id
	admins         []string
}

type domainEntry struct {
	domain models.Domain
	order  int
}

// NewLoader creates an empty catalog
func NewLoader() *Loader {
	return &Loader{
		domains:        make(map[string]*domainEntry),
		questionnaires: make(map[string]*models.Questionnaire),
		tasks:          make(map[string][]models.Task),
	}
}

// LoadFromDir loads every domain directory under dir. Broken domains are
// logged and skipped; only an unreadable dir is an error.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		domainDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(domainDir, "domain.yaml")); os.IsNotExist(err) {
			continue // not a domain directory
		}

		if err := l.loadDomain(entry.Name(), domainDir); err != nil {
			slog.Warn("failed to load domain", "dir", entry.Name(), "error", err)
		}
	}

	for _, name := range []string{"whitelist.yaml", "whitelist.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := l.loadWhitelist(path); err != nil {
			slog.Warn("failed to load whitelist", "file", path, "error", err)
		}
		break
	}

	l.mu.RLock()
	slog.Info("catalog loaded",
		"domains", len(l.domains),
		"questionnaires", len(l.questionnaires),
		"admins", len(l.admins),
	)
	l.mu.RUnlock()
	return nil
}

func (l *Loader) loadDomain(id, dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, "domain.yaml"))
	if err != nil {
		return fmt.Errorf("failed to read domain.yaml: %w", err)
	}

	var df domainFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return fmt.Errorf("failed to parse domain.yaml: %w", err)
	}
	if df.Name == "" {
		return fmt.Errorf("domain name is required")
	}

	entry := &domainEntry{
		domain: models.Domain{
			ID:          id,
			Name:        df.Name,
			Description: df.Description,
			Color:       df.Color,
		},
		order: df.Order,
	}

	var questionnaire *models.Questionnaire
	qPath := filepath.Join(dir, "questionnaire.yaml")
	if _, err := os.Stat(qPath); err == nil {
		questionnaire, err = loadQuestionnaire(id, qPath)
		if err != nil {
			slog.Warn("failed to load questionnaire", "domain", id, "error", err)
		}
	}

	var tasks []models.Task
	tasksDir := filepath.Join(dir, "tasks")
	if _, err := os.Stat(tasksDir); err == nil {
		tasks, err = loadTasks(id, tasksDir)
		if err != nil {
			slog.Warn("failed to load tasks", "domain", id, "error", err)
		}
	}

	l.mu.Lock()
	l.domains[id] = entry
	if questionnaire != nil {
		l.questionnaires[id] = questionnaire
	}
	if len(tasks) > 0 {
		l.tasks[id] = tasks
	}
	l.mu.Unlock()

	slog.Info("catalog domain loaded", "id", id, "name", df.Name,
		"questionnaire", questionnaire != nil, "tasks", len(tasks))
	return nil
}

func loadQuestionnaire(domainID, path string) (*models.Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire: %w", err)
	}

	var qf questionnaireFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire YAML: %w", err)
	}
	if len(qf.MCQ)+len(qf.Text) == 0 {
		return nil, fmt.Errorf("questionnaire has no questions")
	}

	for i, m := range qf.MCQ {
		if m.ID == "" {
			return nil, fmt.Errorf("mcq question %d: id is required", i)
		}
		if len(m.Options) < 2 {
			return nil, fmt.Errorf("mcq question %s: at least 2 options are required", m.ID)
		}
	}
	for i, t := range qf.Text {
		if t.ID == "" {
			return nil, fmt.Errorf("text question %d: id is required", i)
		}
	}

	due, err := parseDue(qf.DueDate)
	if err != nil {
		return nil, err
	}

	return &models.Questionnaire{
		ID:            "q-" + domainID,
		DomainID:      models.Ref(domainID),
		MCQQuestions:  qf.MCQ,
		TextQuestions: qf.Text,
		DueDate:       due,
	}, nil
}

func loadTasks(domainID, dir string) ([]models.Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks dir: %w", err)
	}

	var tasks []models.Task
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		task, err := loadTask(domainID, filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Warn("failed to load task", "file", entry.Name(), "error", err)
			continue
		}
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func loadTask(domainID, path string) (models.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to read task file: %w", err)
	}

	var tf taskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return models.Task{}, fmt.Errorf("failed to parse task YAML: %w", err)
	}

	// Use code from YAML, fall back to filename without extension
	code := tf.Code
	if code == "" {
		base := filepath.Base(path)
		code = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if tf.Title == "" {
		return models.Task{}, fmt.Errorf("task title is required")
	}

	due, err := parseDue(tf.DueDate)
	if err != nil {
		return models.Task{}, err
	}

	return models.Task{
		ID:          domainID + "-" + code,
		DomainID:    models.Ref(domainID),
		Title:       tf.Title,
		Description: tf.Description,
		DueDate:     due,
	}, nil
}

func (l *Loader) loadWhitelist(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read whitelist: %w", err)
	}

	var wf whitelistFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return fmt.Errorf("failed to parse whitelist YAML: %w", err)
	}

	admins := make([]string, 0, len(wf.Admins))
	for _, email := range wf.Admins {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			admins = append(admins, email)
		}
	}

	l.mu.Lock()
	l.admins = admins
	l.mu.Unlock()
	return nil
}

func parseDue(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date %q: %w", raw, err)
	}
	return &due, nil
}

// Domains returns every domain sorted by its configured order
func (l *Loader) Domains() []models.Domain {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]*domainEntry, 0, len(l.domains))
	for _, e := range l.domains {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].domain.ID < entries[j].domain.ID
	})

	result := make([]models.Domain, len(entries))
	for i, e := range entries {
		result[i] = e.domain
	}
	return result
}

// Domain returns a domain by ID
func (l *Loader) Domain(id string) (models.Domain, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.domains[id]
	if !ok {
		return models.Domain{}, false
	}
	return e.domain, true
}

// Questionnaire returns the questionnaire of a domain, or nil
func (l *Loader) Questionnaire(domainID string) *models.Questionnaire {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.questionnaires[domainID]
}

// Questionnaires returns every loaded questionnaire
func (l *Loader) Questionnaires() []*models.Questionnaire {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Questionnaire, 0, len(l.questionnaires))
	for _, q := range l.questionnaires {
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Tasks returns the tasks of a domain
func (l *Loader) Tasks(domainID string) []models.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Task(nil), l.tasks[domainID]...)
}

// Admins returns the whitelisted admin emails
func (l *Loader) Admins() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.admins...)
}

// --- YAML file structs ---

// domainFile represents the YAML structure of a domain.yaml file
type domainFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Order       int    `yaml:"order"`
}

type questionnaireFile struct {
	DueDate string                `yaml:"due_date"`
	MCQ     []models.MCQQuestion  `yaml:"mcq"`
	Text    []models.TextQuestion `yaml:"text"`
}

// taskFile represents the YAML structure of a task YAML file
type taskFile struct {
	Code        string `yaml:"code"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	DueDate     string `yaml:"due_date"`
}

type whitelistFile struct {
	Admins []string `yaml:"admins"`
}
