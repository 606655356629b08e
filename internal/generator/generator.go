// Package generator assembles the question sequence of a test.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Generator shuffles and samples questions.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// TooFewError reports a pool smaller than the required minimum.
type TooFewError struct {
	Have, Need int
}

func (e *TooFewError) Error() string {
	return fmt.Sprintf("not enough questions: selected categories have %d, need %d", e.Have, e.Need)
}

// Category returns the questions of a single category in dataset order.
func (g *Generator) Category(questions []model.Question, shuffleOptions bool) []model.Question {
	return g.prepare(append([]model.Question(nil), questions...), shuffleOptions)
}

// Random returns every question, shuffled.
func (g *Generator) Random(all []model.Question, shuffleOptions bool) []model.Question {
	out := append([]model.Question(nil), all...)
	g.shuffle(out)
	return g.prepare(out, shuffleOptions)
}

// Custom draws size questions from pool, which must hold at least minimum.
func (g *Generator) Custom(pool []model.Question, size, minimum int, shuffleOptions bool) ([]model.Question, error) {
	if len(pool) == 0 || len(pool) < minimum {
		return nil, &TooFewError{Have: len(pool), Need: minimum}
	}
	out := append([]model.Question(nil), pool...)
	g.shuffle(out)
	if size > 0 && size < len(out) {
		out = out[:size]
	}
	return g.prepare(out, shuffleOptions), nil
}

func (g *Generator) shuffle(qs []model.Question) {
	g.rnd.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}

func (g *Generator) prepare(qs []model.Question, shuffleOptions bool) []model.Question {
	if !shuffleOptions {
		return qs
	}
	for i := range qs {
		opts := append([]model.Option(nil), qs[i].Options...)
		g.rnd.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
		qs[i].Options = opts
	}
	return qs
}
