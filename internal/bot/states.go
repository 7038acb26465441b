package bot

import (
	"sync"
	"time"
)

type flowKind int

const (
	flowNone flowKind = iota
	flowAddAccount
	flowEditBalance
	flowReportDate
	flowReportRange
	flowAddGoal
	flowEditGoal
	flowAddToGoal
	flowAddBudget
	flowEditBudget
	flowAddCategory
	flowEditCategoryName
	flowEditCategoryKeywords
)

// chatState holds a chat's multi-step conversation progress plus the id of
// the live bot message being edited in place.
type chatState struct {
	flow flowKind
	step int

	name         string
	accountID    string
	accountType  string
	goalID       string
	categoryID   string
	categoryType string
	budgetName   string
	icon         string
	target       float64
	rangeStart   time.Time

	lastMessageID int
}

// resetFlow clears the conversation but keeps the live message id so the
// next render still edits in place.
func (s *chatState) resetFlow() {
	msgID := s.lastMessageID
	*s = chatState{lastMessageID: msgID}
}

type stateEntry struct {
	mu    sync.Mutex
	state chatState
}

// stateStore keeps per-chat state with per-chat exclusive locking: two
// concurrent updates for the same chat serialize, different chats do not.
type stateStore struct {
	mu      sync.Mutex
	entries map[int64]*stateEntry
}

func newStateStore() *stateStore {
	return &stateStore{entries: make(map[int64]*stateEntry)}
}

// acquire locks the chat's state for the duration of a turn. The caller
// must invoke the returned release function when done.
func (s *stateStore) acquire(chatID int64) (*chatState, func()) {
	s.mu.Lock()
	entry, ok := s.entries[chatID]
	if !ok {
		entry = &stateEntry{}
		s.entries[chatID] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	return &entry.state, entry.mu.Unlock
}
