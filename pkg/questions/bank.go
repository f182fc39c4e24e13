package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

//go:embed bank.yaml
var defaultBankYAML []byte

var (
	ErrEmptyBank   = errors.New("question bank has no items")
	ErrDuplicateID = errors.New("duplicate content id")
)

var validate = validator.New()

// FieldError describes one rejected field of a catalog item
type FieldError struct {
	ItemID  string `json:"item_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every problem found while loading a catalog
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s.%s: %s", fe.ItemID, fe.Field, fe.Message))
	}
	return "invalid question bank: " + strings.Join(parts, "; ")
}

type bankFile struct {
	Version int                  `yaml:"version"`
	Items   []models.ContentItem `yaml:"items"`
}

// Bank is the read-only content catalog shared by every session
type Bank struct {
	items []*models.ContentItem
	byID  map[string]*models.ContentItem
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
)

// Default returns the embedded catalog. It panics if the embedded data is invalid.
func Default() *Bank {
	defaultOnce.Do(func() {
		b, err := Parse(defaultBankYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded question bank: %v", err))
		}
		defaultBank = b
	})
	return defaultBank
}

// LoadFile reads a YAML catalog from disk
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog
func Parse(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	return New(f.Items)
}

// New normalizes and validates items and builds a catalog in the given order.
// Legacy category spellings are mapped onto the canonical set.
func New(items []models.ContentItem) (*Bank, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBank
	}

	b := &Bank{
		items: make([]*models.ContentItem, 0, len(items)),
		byID:  make(map[string]*models.ContentItem, len(items)),
	}
	var problems ValidationErrors

	for i := range items {
		item := items[i].Clone()
		if c, ok := models.ParseCategory(string(item.Category)); ok {
			item.Category = c
		}
		if errs := Validate(item); len(errs) > 0 {
			problems = append(problems, errs...)
			continue
		}
		if _, exists := b.byID[item.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}
		b.items = append(b.items, item)
		b.byID[item.ID] = item
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return b, nil
}

// Validate checks a single item's struct constraints plus the rules tags can't express
func Validate(item *models.ContentItem) []FieldError {
	var out []FieldError

	if err := validate.Struct(item); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				out = append(out, FieldError{
					ItemID:  item.ID,
					Field:   fe.Namespace(),
					Message: fmt.Sprintf("field must satisfy %s constraint", fe.Tag()),
				})
			}
		} else {
			out = append(out, FieldError{ItemID: item.ID, Field: "ContentItem", Message: err.Error()})
		}
	}

	if !item.Category.Valid() {
		out = append(out, FieldError{
			ItemID:  item.ID,
			Field:   "ContentItem.Category",
			Message: fmt.Sprintf("unknown category %q", item.Category),
		})
	}

	if q := item.Question; q != nil && (q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices)) {
		out = append(out, FieldError{
			ItemID:  item.ID,
			Field:   "ContentItem.Question.CorrectIndex",
			Message: fmt.Sprintf("index %d out of range for %d choices", q.CorrectIndex, len(q.Choices)),
		})
	}

	return out
}

// Items returns the catalog in load order. Items must not be modified.
func (b *Bank) Items() []*models.ContentItem {
	out := make([]*models.ContentItem, len(b.items))
	copy(out, b.items)
	return out
}

// Get looks up an item by id
func (b *Bank) Get(id string) (*models.ContentItem, bool) {
	item, ok := b.byID[id]
	return item, ok
}

// Len returns the catalog size
func (b *Bank) Len() int {
	return len(b.items)
}

// Summary counts items per category and difficulty
func (b *Bank) Summary() map[models.Category]map[models.Difficulty]int {
	out := make(map[models.Category]map[models.Difficulty]int)
	for _, item := range b.items {
		if out[item.Category] == nil {
			out[item.Category] = make(map[models.Difficulty]int)
		}
		out[item.Category][item.Difficulty]++
	}
	return out
}
