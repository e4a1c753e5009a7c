package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/assesshub/assesshub-backend/internal/config"
	"github.com/assesshub/assesshub-backend/internal/database"
	"github.com/assesshub/assesshub-backend/internal/logger"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
)

func main() {
	var assessmentID int64
	var limit int
	flag.Int64Var(&assessmentID, "assessment", 0, "Assessment ID to report on")
	flag.IntVar(&limit, "limit", 500, "Maximum attempts to list")
	flag.Parse()

	if assessmentID <= 0 {
		fmt.Println("Usage: attempts-report -assessment <id> [-limit <n>]")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	assessmentRepo := repository.NewAssessmentRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	assessment, err := assessmentRepo.GetByID(ctx, assessmentID)
	if err != nil {
		log.Fatal().Err(err).Int64("assessment_id", assessmentID).Msg("Assessment not found")
	}

	attempts, total, err := attemptRepo.ListByAssessment(ctx, assessmentID, limit, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list attempts")
	}

	title := color.New(color.FgCyan, color.Bold)
	title.Printf("\n%s (assessment #%d)\n", assessment.Name, assessment.ID)
	fmt.Printf("Duration: %d min | Attempts: %d\n\n", assessment.DurationMinutes, total)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "User", "Status", "Started", "Completed", "Method", "Score"})

	var counts = map[model.AttemptStatus]int{}
	for _, a := range attempts {
		counts[a.Status]++
		table.Append([]string{
			fmt.Sprintf("%d", a.ID),
			fmt.Sprintf("%d", a.UserRef),
			colorStatus(a.Status),
			formatTime(a.StartedAt),
			formatTime(a.CompletedAt),
			formatMethod(a.SubmissionMethod),
			formatScore(a.TotalScore),
		})
	}
	table.Render()

	fmt.Println()
	color.Green("Evaluated:   %d", counts[model.AttemptStatusEvaluated])
	color.Yellow("Completed:   %d", counts[model.AttemptStatusCompleted])
	color.Cyan("In progress: %d", counts[model.AttemptStatusInProgress])
	color.White("Invited:     %d", counts[model.AttemptStatusInvited])
	fmt.Println()
}

func colorStatus(s model.AttemptStatus) string {
	switch s {
	case model.AttemptStatusEvaluated:
		return color.GreenString(string(s))
	case model.AttemptStatusCompleted:
		return color.YellowString(string(s))
	case model.AttemptStatusInProgress:
		return color.CyanString(string(s))
	default:
		return string(s)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func formatMethod(m *model.SubmissionMethod) string {
	if m == nil {
		return "-"
	}
	return string(*m)
}

func formatScore(s *float64) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *s)
}
