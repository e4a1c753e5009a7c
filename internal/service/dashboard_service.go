package service

import (
	"context"

	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
)

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	TotalCandidates     int                                      `json:"total_candidates"`
	TotalCompanies      int                                      `json:"total_companies"`
	TotalAssessments    int                                      `json:"total_assessments"`
	TotalQuestions      int                                      `json:"total_questions"`
	AttemptStatusCounts map[model.AttemptStatus]int              `json:"attempt_status_counts"`
	UpcomingAssessments []repository.DashboardUpcomingAssessment `json:"upcoming_assessments"`
	RecentSubmissions   []repository.DashboardRecentSubmission   `json:"recent_submissions"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData fetches all dashboard metrics.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	candidates, companies, assessments, questions, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.repo.GetAttemptStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.repo.GetUpcomingAssessments(ctx, 5)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentSubmissions(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		TotalCandidates:     candidates,
		TotalCompanies:      companies,
		TotalAssessments:    assessments,
		TotalQuestions:      questions,
		AttemptStatusCounts: statusCounts,
		UpcomingAssessments: upcoming,
		RecentSubmissions:   recent,
	}, nil
}
