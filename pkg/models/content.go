package models

// Category is the privacy topic a content item teaches
type Category string

const (
	CategoryOnChain             Category = "on-chain"
	CategoryOffChain            Category = "off-chain"
	CategoryCoinMixing          Category = "coin-mixing"
	CategoryWalletSetup         Category = "wallet-setup"
	CategoryLightning           Category = "lightning"
	CategoryRegulatory          Category = "regulatory"
	CategoryBestPractices       Category = "best-practices"
	CategoryNetworkPrivacy      Category = "network-privacy"
	CategoryExchangePrivacy     Category = "exchange-privacy"
	CategoryAPIPrivacy          Category = "api-privacy"
	CategorySocialPrivacy       Category = "social-privacy"
	CategoryTransactionSecurity Category = "transaction-security"
	CategoryKYCPrivacy          Category = "kyc-privacy"
	CategorySecurity            Category = "security"
	CategoryPhysicalPrivacy     Category = "physical-privacy"
)

// AllCategories lists every category in catalog order
var AllCategories = []Category{
	CategoryOnChain,
	CategoryOffChain,
	CategoryCoinMixing,
	CategoryWalletSetup,
	CategoryLightning,
	CategoryRegulatory,
	CategoryBestPractices,
	CategoryNetworkPrivacy,
	CategoryExchangePrivacy,
	CategoryAPIPrivacy,
	CategorySocialPrivacy,
	CategoryTransactionSecurity,
	CategoryKYCPrivacy,
	CategorySecurity,
	CategoryPhysicalPrivacy,
}

// legacyCategories maps older category spellings onto the canonical set.
var legacyCategories = map[string]Category{
	"on-chain-privacy":    CategoryOnChain,
	"off-chain-privacy":   CategoryOffChain,
	"coinjoin":            CategoryCoinMixing,
	"mixing":              CategoryCoinMixing,
	"wallet-privacy":      CategoryWalletSetup,
	"lightning-privacy":   CategoryLightning,
	"regulation":          CategoryRegulatory,
	"transaction-privacy": CategoryTransactionSecurity,
	"kyc":                 CategoryKYCPrivacy,
	"physical-security":   CategoryPhysicalPrivacy,
}

// ParseCategory normalizes a category name, accepting legacy aliases
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c.Valid() {
		return c, true
	}
	if alias, ok := legacyCategories[s]; ok {
		return alias, true
	}
	return "", false
}

// Valid reports whether c is one of the canonical categories
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty is the tier of a question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the tiers from easiest to hardest
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known tier
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Rank returns the tier index (easy=0), or -1 if unknown
func (d Difficulty) Rank() int {
	for i, known := range Difficulties {
		if d == known {
			return i
		}
	}
	return -1
}

// Question is the quiz attached to a content item
type Question struct {
	Text         string   `json:"text" yaml:"text" validate:"required"`
	Choices      []string `json:"choices" yaml:"choices" validate:"min=2,max=4,dive,required"`
	CorrectIndex int      `json:"correct_index" yaml:"correct_index" validate:"gte=0"`
}

// ScorePair holds a value for a correct and an incorrect answer
type ScorePair struct {
	Correct   int `json:"correct" yaml:"correct"`
	Incorrect int `json:"incorrect" yaml:"incorrect"`
}

// ContentItem is an immutable catalog entry pairing a lesson with a scored quiz
type ContentItem struct {
	ID              string     `json:"id" yaml:"id" validate:"required"`
	Category        Category   `json:"category" yaml:"category" validate:"required"`
	Difficulty      Difficulty `json:"difficulty" yaml:"difficulty" validate:"required,oneof=easy medium hard"`
	Title           string     `json:"title" yaml:"title" validate:"required"`
	Content         string     `json:"content" yaml:"content"`
	Question        *Question  `json:"question,omitempty" yaml:"question" validate:"required"`
	Explanation     string     `json:"explanation" yaml:"explanation"`
	StabilityImpact ScorePair  `json:"stability_impact" yaml:"stability_impact"`
	Points          ScorePair  `json:"points" yaml:"points"`
	Tags            []string   `json:"tags,omitempty" yaml:"tags"`
}

// Clone returns a deep copy safe to hand to callers
func (c *ContentItem) Clone() *ContentItem {
	if c == nil {
		return nil
	}
	out := *c
	if c.Question != nil {
		q := *c.Question
		q.Choices = append([]string(nil), c.Question.Choices...)
		out.Question = &q
	}
	out.Tags = append([]string(nil), c.Tags...)
	return &out
}
