package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key holding a candidate's active JWT ID.
func (r *CacheKeyStruct) UserLoginKey(userRef int64) string {
	return fmt.Sprintf("login:%d", userRef)
}

// OTPKey returns the cache key for a pending e-mail verification code.
func (r *CacheKeyStruct) OTPKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

// SessionStartKey returns the cache key for a candidate's attempt start time.
func (r *CacheKeyStruct) SessionStartKey(assessmentID int64, userRef int64) string {
	return fmt.Sprintf("user:%d:assessment:%d:session_start", userRef, assessmentID)
}

// SessionAnswersKey returns the cache key for a candidate's autosaved answers.
func (r *CacheKeyStruct) SessionAnswersKey(assessmentID int64, userRef int64) string {
	return fmt.Sprintf("user:%d:assessment:%d:answers", userRef, assessmentID)
}

// AssessmentAnswerKey returns the cache key for an assessment's MCQ answer key.
func (r *CacheKeyStruct) AssessmentAnswerKey(assessmentID int64) string {
	return fmt.Sprintf("assessment:%d:key", assessmentID)
}

// AssessmentDurationKey returns the cache key for an assessment's duration.
func (r *CacheKeyStruct) AssessmentDurationKey(assessmentID int64) string {
	return fmt.Sprintf("assessment:%d:duration", assessmentID)
}

// UserActiveAssessmentKey returns the cache key for the assessment a
// candidate currently has a live session on.
func (r *CacheKeyStruct) UserActiveAssessmentKey(userRef int64) string {
	return fmt.Sprintf("user:%d:active_assessment", userRef)
}

var CacheKey = NewCacheKeyStruct()
