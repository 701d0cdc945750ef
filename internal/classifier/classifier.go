// Package classifier assigns a category and responsible department to a complaint.
//
// The policy is a keyword heuristic over the description. Evidence is
// accepted but not inspected.
package classifier

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"civic-complaints/internal/domain"
)

// RandomSource picks an integer in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// Result is the outcome of classifying a complaint.
type Result struct {
	Category   domain.Category
	Department domain.Department
	// Determined is false when no keyword matched and the category was guessed.
	Determined bool
}

type rule struct {
	category domain.Category
	keywords []string
}

// First match wins.
var rules = []rule{
	{domain.CategoryPothole, []string{"pothole", "road", "crater", "asphalt"}},
	{domain.CategoryGarbage, []string{"garbage", "trash", "waste", "dump", "dustbin"}},
	{domain.CategoryWaterLeak, []string{"water", "leak", "pipe", "drain", "flood"}},
	{domain.CategoryStreetlight, []string{"light", "lamp", "pole", "dark", "bulb"}},
}

// Classifier applies the keyword policy with a random fallback.
type Classifier struct {
	mu   sync.Mutex
	rand RandomSource
}

// New returns a Classifier drawing fallback guesses from src.
// A nil src uses a time-seeded PCG generator.
func New(src RandomSource) *Classifier {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Classifier{rand: src}
}

// Classify maps a description to a category and department.
func (c *Classifier) Classify(description string, evidence string) Result {
	if category, ok := match(description); ok {
		return Result{Category: category, Department: domain.DepartmentFor(category), Determined: true}
	}

	// Undetermined: guess uniformly.
	category := c.guess()
	return Result{Category: category, Department: domain.DepartmentFor(category), Determined: false}
}

func match(description string) (domain.Category, bool) {
	text := strings.ToLower(description)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.category, true
			}
		}
	}
	return "", false
}

func (c *Classifier) guess() domain.Category {
	categories := domain.Categories()
	c.mu.Lock()
	i := c.rand.IntN(len(categories))
	c.mu.Unlock()
	if i < 0 || i >= len(categories) {
		i = 0
	}
	return categories[i]
}
