// Package bank loads question datasets.
//
// A dataset is an exam holding topics, each topic holding subtopics, each
// subtopic holding questions. Subtopics become categories; malformed or
// empty nodes are skipped.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// ErrEmpty is returned when a dataset has no usable subtopic.
var ErrEmpty = errors.New("question bank has no categories")

// Bank is a loaded dataset.
type Bank struct {
	Exam       string
	Categories []model.Category
}

// Load reads a dataset from path. Files ending in .yaml or .yml are read as
// YAML, everything else as JSON.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse question bank %s: %w", path, err)
	}
	return Parse(doc)
}

// Parse builds a bank from a decoded document.
func Parse(doc any) (*Bank, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("question bank must be an object")
	}
	exam, ok := root["exam"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("question bank is missing exam")
	}
	topics, ok := exam["topics"].([]any)
	if !ok {
		return nil, fmt.Errorf("question bank exam.topics is missing or not a list")
	}

	b := &Bank{Exam: str(firstKey(exam, "exam_name", "name", "title"))}
	for _, rawTopic := range topics {
		topic, ok := rawTopic.(map[string]any)
		if !ok {
			continue
		}
		topicName := str(topic["topic_name"])
		subtopics, _ := topic["subtopics"].([]any)
		for _, rawSub := range subtopics {
			cat, ok := parseSubtopic(rawSub, topicName)
			if ok {
				b.Categories = append(b.Categories, cat)
			}
		}
	}
	if len(b.Categories) == 0 {
		return nil, ErrEmpty
	}
	return b, nil
}

func parseSubtopic(raw any, topicName string) (model.Category, bool) {
	sub, ok := raw.(map[string]any)
	if !ok {
		return model.Category{}, false
	}
	name, ok := sub["subtopic_name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return model.Category{}, false
	}
	items, _ := sub["questions"].([]any)
	cat := model.Category{Name: name, Topic: topicName}
	for _, item := range items {
		q, ok := parseQuestion(item)
		if !ok {
			continue
		}
		q.Category = name
		q.Topic = topicName
		cat.Questions = append(cat.Questions, q)
	}
	if len(cat.Questions) == 0 {
		return model.Category{}, false
	}
	return cat, true
}

func parseQuestion(raw any) (model.Question, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.Question{}, false
	}
	id := ident(firstKey(obj, "question_id", "id"))
	if id == "" {
		return model.Question{}, false
	}
	q := model.Question{
		ID:          id,
		Text:        str(obj["question_text"]),
		Code:        str(obj["code"]),
		Language:    str(obj["language"]),
		Explanation: str(obj["explanation"]),
	}
	opts, _ := obj["options"].([]any)
	for _, rawOpt := range opts {
		opt, ok := rawOpt.(map[string]any)
		if !ok {
			continue
		}
		optID := ident(opt["id"])
		if optID == "" {
			continue
		}
		q.Options = append(q.Options, model.Option{
			ID:    optID,
			Text:  str(opt["text"]),
			Code:  str(opt["code"]),
			Image: flag(opt["image"]),
		})
	}
	if len(q.Options) == 0 {
		return model.Question{}, false
	}
	answers, _ := obj["correct_answers"].([]any)
	for _, a := range answers {
		if s := ident(a); s != "" {
			q.CorrectAnswers = append(q.CorrectAnswers, s)
		}
	}
	return q, true
}

// All returns every question in dataset order.
func (b *Bank) All() []model.Question {
	var out []model.Question
	for _, c := range b.Categories {
		out = append(out, c.Questions...)
	}
	return out
}

// Category finds a category by name, ignoring case.
func (b *Bank) Category(name string) (model.Category, bool) {
	for _, c := range b.Categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

// Pool returns the questions of the named categories. Unknown names are
// reported in missing, sorted.
func (b *Bank) Pool(names []string) (pool []model.Question, missing []string) {
	for _, name := range names {
		c, ok := b.Category(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		pool = append(pool, c.Questions...)
	}
	sort.Strings(missing)
	return pool, missing
}

func firstKey(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func ident(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func flag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	default:
		return false
	}
}
