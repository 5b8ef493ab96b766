package bench

// EventType enumerates run progress event kinds.
type EventType string

const (
	// EventQuestionStarted fires when a worker picks up a question.
	EventQuestionStarted EventType = "question_started"
	// EventQuestionFinished fires when a question's loop terminates and its
	// verdict is known.
	EventQuestionFinished EventType = "question_finished"
	// EventRunFinished fires once after the last question, carrying the
	// aggregate counters, just before the channel closes.
	EventRunFinished EventType = "run_finished"
)

// Event is one progress update from the runner to the UI. Only a subset of
// fields is set depending on Type.
type Event struct {
	Type       EventType `json:"type"`
	QuestionID int       `json:"question_id"`
	DBID       string    `json:"db_id,omitempty"`

	// Question finished
	Correct bool   `json:"correct,omitempty"`
	State   string `json:"state,omitempty"`
	Reason  string `json:"reason,omitempty"`

	// Run finished
	Total        int `json:"total,omitempty"`
	TotalCorrect int `json:"total_correct,omitempty"`
}
