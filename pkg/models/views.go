package models

// BlockView is a block as shown to players, without its answer key
type BlockView struct {
	ID          string     `json:"id"`
	Layer       int        `json:"layer"`
	Position    int        `json:"position"`
	Placement   Placement  `json:"placement"`
	Removed     bool       `json:"removed"`
	Difficulty  Difficulty `json:"difficulty"`
	Category    Category   `json:"category"`
	HasQuestion bool       `json:"has_question"`
}

// QuestionView hides the correct answer
type QuestionView struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
}

// ContentView is a revealed block's lesson and quiz
type ContentView struct {
	ID         string        `json:"id"`
	Category   Category      `json:"category"`
	Difficulty Difficulty    `json:"difficulty"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Question   *QuestionView `json:"question,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
}

// NewBlockViews converts blocks for display
func NewBlockViews(blocks []Block) []BlockView {
	out := make([]BlockView, len(blocks))
	for i, b := range blocks {
		out[i] = BlockView{
			ID:          b.ID,
			Layer:       b.Layer,
			Position:    b.Position,
			Placement:   b.Placement,
			Removed:     b.Removed,
			Difficulty:  b.Difficulty,
			Category:    b.Category,
			HasQuestion: b.HasQuestion(),
		}
	}
	return out
}

// View returns the item without its answer key
func (c *ContentItem) View() ContentView {
	v := ContentView{
		ID:         c.ID,
		Category:   c.Category,
		Difficulty: c.Difficulty,
		Title:      c.Title,
		Content:    c.Content,
		Tags:       c.Tags,
	}
	if c.Question != nil {
		v.Question = &QuestionView{Text: c.Question.Text, Choices: c.Question.Choices}
	}
	return v
}

// Public strips revealed content from history so unanswered quizzes stay secret
func (s GameState) Public() GameState {
	out := s
	out.History = make([]GameMove, len(s.History))
	for i, m := range s.History {
		m.Content = nil
		out.History[i] = m
	}
	return out
}
