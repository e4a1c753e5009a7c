package model

// AnswerJob is one autosaved answer flowing through persist_answers_queue.
type AnswerJob struct {
	UserRef      int64  `json:"user_ref"`
	AssessmentID int64  `json:"assessment_id"`
	QuestionID   int64  `json:"question_id"`
	Answer       string `json:"answer"`
}

// SubmissionJob is one finished attempt flowing through
// persist_submissions_queue to the grading worker.
type SubmissionJob struct {
	UserRef      int64            `json:"user_ref"`
	AssessmentID int64            `json:"assessment_id"`
	Answers      map[string]string `json:"answers"`
}
