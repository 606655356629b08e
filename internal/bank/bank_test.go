package bank

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const jsonBank = `{
  "exam": {
    "exam_name": "Finals",
    "topics": [
      {
        "topic_name": "Computer Science",
        "subtopics": [
          {
            "subtopic_name": "Networks",
            "questions": [
              {"question_id": 1, "question_text": "TCP is?", "options": [{"id": "a", "text": "reliable"}, {"id": "b", "text": "lossy"}], "correct_answers": ["a"]},
              {"question_id": "n2", "question_text": "No options", "options": []},
              "junk"
            ]
          },
          {"subtopic_name": "Empty", "questions": []},
          {"questions": [{"question_id": 9}]},
          null
        ]
      },
      {
        "topic_name": "Math",
        "subtopics": [
          {
            "subtopic_name": "Algebra",
            "questions": [
              {"question_id": 2, "question_text": "2+2", "code": "x = 2 + 2", "language": "python", "options": [{"id": 1, "text": "4", "image": true}, {"id": 2, "text": "5"}], "correct_answers": [1]}
            ]
          }
        ]
      }
    ]
  }
}`

const yamlBank = `exam:
  topics:
    - topic_name: Systems
      subtopics:
        - subtopic_name: Databases
          questions:
            - question_id: 7
              question_text: What does ACID stand for?
              options:
                - id: a
                  text: Atomicity
                - id: b
                  text: Availability
              correct_answers: [a]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadJSONSkipsMalformedNodes(t *testing.T) {
	b, err := Load(writeFile(t, "questions.json", jsonBank))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.Exam != "Finals" {
		t.Fatalf("exam = %q", b.Exam)
	}
	if len(b.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(b.Categories))
	}
	net := b.Categories[0]
	if net.Name != "Networks" || net.Topic != "Computer Science" || len(net.Questions) != 1 {
		t.Fatalf("unexpected networks category: %+v", net)
	}
	q := net.Questions[0]
	if q.ID != "1" || q.Category != "Networks" || q.Topic != "Computer Science" {
		t.Fatalf("unexpected question annotation: %+v", q)
	}

	alg := b.Categories[1].Questions[0]
	if alg.Code == "" || alg.Language != "python" {
		t.Fatalf("expected code block, got %+v", alg)
	}
	if len(alg.CorrectAnswers) != 1 || alg.CorrectAnswers[0] != "1" {
		t.Fatalf("expected numeric answer id, got %v", alg.CorrectAnswers)
	}
	if !alg.Options[0].Image || alg.Options[1].Image {
		t.Fatalf("unexpected image flags: %+v", alg.Options)
	}
}

func TestLoadYAML(t *testing.T) {
	b, err := Load(writeFile(t, "questions.yaml", yamlBank))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c, ok := b.Category("databases")
	if !ok {
		t.Fatalf("expected case-insensitive category lookup")
	}
	if c.Questions[0].ID != "7" || c.Questions[0].CorrectAnswers[0] != "a" {
		t.Fatalf("unexpected question: %+v", c.Questions[0])
	}
}

func TestLoadRejectsWrongShape(t *testing.T) {
	if _, err := Load(writeFile(t, "q.json", `{"exam": {"topics": "nope"}}`)); err == nil {
		t.Fatalf("expected error for non-list topics")
	}
	_, err := Load(writeFile(t, "q.json", `{"exam": {"topics": []}}`))
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAllAndPool(t *testing.T) {
	b, err := Load(writeFile(t, "questions.json", jsonBank))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(b.All()); got != 2 {
		t.Fatalf("expected 2 questions, got %d", got)
	}
	pool, missing := b.Pool([]string{"Algebra", "Zoology", "Networks", "Art"})
	if len(pool) != 2 {
		t.Fatalf("expected pool of 2, got %d", len(pool))
	}
	if len(missing) != 2 || missing[0] != "Art" || missing[1] != "Zoology" {
		t.Fatalf("unexpected missing: %v", missing)
	}
}
