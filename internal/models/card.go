package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// CardType tags which content variant every level of a card carries.
type CardType string

const (
	CardTypeFlashcard      CardType = "flashcard"
	CardTypeMultipleChoice CardType = "multiple_choice"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	return t == CardTypeFlashcard || t == CardTypeMultipleChoice
}

// LevelContent is the question/answer payload of one level. It is implemented
// only by FlashcardContent and MultipleChoiceContent.
type LevelContent interface {
	cardType() CardType
}

type FlashcardContent struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (FlashcardContent) cardType() CardType { return CardTypeFlashcard }

type Choice struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type MultipleChoiceContent struct {
	Question    string   `json:"question"`
	Choices     []Choice `json:"choices"`
	Explanation string   `json:"explanation,omitempty"`
}

func (MultipleChoiceContent) cardType() CardType { return CardTypeMultipleChoice }

// CardLevel is one difficulty step of a card.
type CardLevel struct {
	LevelIndex int          `json:"level_index"`
	Content    LevelContent `json:"content"`
}

// Prompt returns the question text shown for the level.
func (l CardLevel) Prompt() string {
	switch c := l.Content.(type) {
	case FlashcardContent:
		return c.Question
	case MultipleChoiceContent:
		return c.Question
	case nil:
		return ""
	default:
		panic(fmt.Sprintf("models: unhandled level content %T", c))
	}
}

// StudyCard is a card as consumed during review.
type StudyCard struct {
	ID          string      `json:"id" validate:"required"`
	DeckID      string      `json:"deck_id"`
	Title       string      `json:"title"`
	Type        CardType    `json:"type" validate:"oneof=flashcard multiple_choice"`
	Levels      []CardLevel `json:"levels"`
	ActiveLevel int         `json:"active_level" validate:"gte=0"`
}

// CurrentLevel returns the level at ActiveLevel, if the card has one.
func (c StudyCard) CurrentLevel() (CardLevel, bool) {
	if c.ActiveLevel < 0 || c.ActiveLevel >= len(c.Levels) {
		return CardLevel{}, false
	}
	return c.Levels[c.ActiveLevel], true
}

// CheckContent reports a level whose content is missing or does not match
// the card type. Such a card would not decode back to the same value.
func (c StudyCard) CheckContent() error {
	for _, lvl := range c.Levels {
		if lvl.Content == nil {
			return fmt.Errorf("card %q level %d: missing content", c.ID, lvl.LevelIndex)
		}
		if got := lvl.Content.cardType(); got != c.Type {
			return fmt.Errorf("card %q level %d: %s content on a %s card", c.ID, lvl.LevelIndex, got, c.Type)
		}
	}
	return nil
}

type rawLevel struct {
	LevelIndex int             `json:"level_index"`
	Content    json.RawMessage `json:"content"`
}

type rawCard struct {
	ID          string     `json:"id"`
	DeckID      string     `json:"deck_id"`
	Title       string     `json:"title"`
	Type        CardType   `json:"type"`
	Levels      []rawLevel `json:"levels"`
	ActiveLevel int        `json:"active_level"`
}

// UnmarshalJSON decodes level content according to the card type and
// orders levels by LevelIndex.
func (c *StudyCard) UnmarshalJSON(data []byte) error {
	var raw rawCard
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("card %q: unknown type %q", raw.ID, raw.Type)
	}

	levels := make([]CardLevel, 0, len(raw.Levels))
	for _, rl := range raw.Levels {
		if rl.LevelIndex < 0 {
			return fmt.Errorf("card %q: negative level index %d", raw.ID, rl.LevelIndex)
		}
		content, err := decodeContent(raw.Type, rl.Content)
		if err != nil {
			return fmt.Errorf("card %q level %d: %w", raw.ID, rl.LevelIndex, err)
		}
		levels = append(levels, CardLevel{LevelIndex: rl.LevelIndex, Content: content})
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].LevelIndex < levels[j].LevelIndex
	})

	*c = StudyCard{
		ID:          raw.ID,
		DeckID:      raw.DeckID,
		Title:       raw.Title,
		Type:        raw.Type,
		Levels:      levels,
		ActiveLevel: raw.ActiveLevel,
	}
	return nil
}

func decodeContent(t CardType, data json.RawMessage) (LevelContent, error) {
	switch t {
	case CardTypeFlashcard:
		var fc FlashcardContent
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
		return fc, nil
	case CardTypeMultipleChoice:
		var mc MultipleChoiceContent
		if err := json.Unmarshal(data, &mc); err != nil {
			return nil, err
		}
		return mc, nil
	default:
		return nil, fmt.Errorf("unknown card type %q", t)
	}
}
