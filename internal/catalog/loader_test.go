package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixtures(t *testing.T) {
	fixturesDir := filepath.Join("..", "..", "fixtures")

	if _, err := os.Stat(fixturesDir); os.IsNotExist(err) {
		t.Skip("fixtures directory not found, skipping")
	}

	loader := NewLoader()
	if err := loader.LoadFromDir(fixturesDir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	domains := loader.Domains()
	if len(domains) != 4 {
		t.Fatalf("expected 4 domains, got %d", len(domains))
	}
	if domains[0].ID != "web" || domains[3].ID != "ml" {
		t.Errorf("unexpected domain order: %s ... %s", domains[0].ID, domains[3].ID)
	}

	web, ok := loader.Domain("web")
	if !ok {
		t.Fatal("web domain not found")
	}
	if web.Name != "Web Development" {
		t.Errorf("expected web name 'Web Development', got '%s'", web.Name)
	}

	q := loader.Questionnaire("web")
	if q == nil {
		t.Fatal("web questionnaire not found")
	}
	if q.ID != "q-web" || q.DomainID != "web" {
		t.Errorf("unexpected questionnaire identity: %s/%s", q.ID, q.DomainID)
	}
	if len(q.MCQQuestions) != 2 || len(q.TextQuestions) != 2 {
		t.Errorf("expected 2+2 questions, got %d+%d", len(q.MCQQuestions), len(q.TextQuestions))
	}
	if q.DueDate == nil {
		t.Error("expected web questionnaire due date")
	}

	if loader.Questionnaire("ml") != nil {
		t.Error("ml has no questionnaire fixture")
	}

	tasks := loader.Tasks("web")
	if len(tasks) != 2 {
		t.Fatalf("expected 2 web tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "web-landing" || tasks[1].ID != "web-rest-api" {
		t.Errorf("unexpected task ids: %s, %s", tasks[0].ID, tasks[1].ID)
	}
	if len(loader.Tasks("design")) != 0 {
		t.Error("design has no task fixtures")
	}

	admins := loader.Admins()
	if len(admins) != 2 {
		t.Errorf("expected 2 admins, got %d", len(admins))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "good", "domain.yaml"), "name: Good\n")
	writeFile(t, filepath.Join(dir, "good", "questionnaire.yaml"), "mcq:\n  - id: m1\n    question: one option only\n    options: [a]\n")
	writeFile(t, filepath.Join(dir, "good", "tasks", "ok.yaml"), "title: Fine\n")
	writeFile(t, filepath.Join(dir, "good", "tasks", "untitled.yaml"), "description: no title\n")
	writeFile(t, filepath.Join(dir, "good", "tasks", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "nameless", "domain.yaml"), "description: missing name\n")
	writeFile(t, filepath.Join(dir, "plain", "readme.md"), "not a domain")
	writeFile(t, filepath.Join(dir, "whitelist.yaml"), "admins:\n  - ' Lead@Example.com '\n  - ''\n")

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	domains := loader.Domains()
	if len(domains) != 1 || domains[0].ID != "good" {
		t.Fatalf("expected only the good domain, got %+v", domains)
	}
	if loader.Questionnaire("good") != nil {
		t.Error("questionnaire with a single-option MCQ should be rejected")
	}

	tasks := loader.Tasks("good")
	if len(tasks) != 1 || tasks[0].ID != "good-ok" {
		t.Errorf("expected only good-ok task, got %+v", tasks)
	}

	admins := loader.Admins()
	if len(admins) != 1 || admins[0] != "lead@example.com" {
		t.Errorf("expected normalized admin email, got %v", admins)
	}
}

func TestLoadMissingDir(t *testing.T) {
	loader := NewLoader()
	if err := loader.LoadFromDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestTasksReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "web", "domain.yaml"), "name: Web\n")
	writeFile(t, filepath.Join(dir, "web", "tasks", "a.yaml"), "title: A\n")

	loader := NewLoader()
	if err := loader.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	tasks := loader.Tasks("web")
	tasks[0].Title = "changed"
	if loader.Tasks("web")[0].Title != "A" {
		t.Error("Tasks must not expose internal storage")
	}
}
