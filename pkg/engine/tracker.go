package engine

import (
	"sort"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

// ContentTracker remembers which catalog items were shown during the current content lifetime
type ContentTracker struct {
	bank  *questions.Bank
	shown map[string]struct{}
}

func NewContentTracker(bank *questions.Bank) *ContentTracker {
	return &ContentTracker{
		bank:  bank,
		shown: make(map[string]struct{}),
	}
}

// UnseenContent returns catalog items not yet shown, in catalog order.
// Zero-value difficulty or category means no filter.
func (t *ContentTracker) UnseenContent(difficulty models.Difficulty, category models.Category) []*models.ContentItem {
	var out []*models.ContentItem
	for _, item := range t.bank.Items() {
		if _, seen := t.shown[item.ID]; seen {
			continue
		}
		if difficulty != "" && item.Difficulty != difficulty {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item)
	}
	return out
}

// MarkAsShown records id and reports whether it was newly added.
// Ids outside the catalog are ignored.
func (t *ContentTracker) MarkAsShown(id string) bool {
	if _, ok := t.bank.Get(id); !ok {
		return false
	}
	if _, seen := t.shown[id]; seen {
		return false
	}
	t.shown[id] = struct{}{}
	return true
}

func (t *ContentTracker) IsShown(id string) bool {
	_, ok := t.shown[id]
	return ok
}

func (t *ContentTracker) IsAllContentShown() bool {
	return len(t.shown) >= t.bank.Len()
}

// CompletionPercentage returns the shown share of the catalog in [0,100]
func (t *ContentTracker) CompletionPercentage() float64 {
	total := t.bank.Len()
	if total == 0 {
		return 100
	}
	return float64(len(t.shown)) / float64(total) * 100
}

// CycleContent starts a new content lifetime by forgetting everything shown
func (t *ContentTracker) CycleContent() {
	t.shown = make(map[string]struct{})
}

// Shown returns the shown ids, sorted
func (t *ContentTracker) Shown() []string {
	out := make([]string, 0, len(t.shown))
	for id := range t.shown {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
