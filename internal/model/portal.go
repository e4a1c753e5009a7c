package model

// AnswerRequest records one response during a live session.
type AnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required,max=100000"`
}

// NavigateRequest moves the session cursor.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next prev"`
}

// SubmitRequest finishes the session by hand.
type SubmitRequest struct {
	BrowserInfo string `json:"browser_info" binding:"omitempty,max=512"`
}

// RunCodeRequest executes a candidate's program in the sandbox.
type RunCodeRequest struct {
	Language string `json:"language" binding:"required,max=50"`
	Version  string `json:"version" binding:"omitempty,max=50"`
	Code     string `json:"code" binding:"required,max=100000"`
	Stdin    string `json:"stdin" binding:"omitempty,max=10000"`
}
