package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/assesshub/assesshub-backend/internal/config"
	"github.com/assesshub/assesshub-backend/internal/database"
	"github.com/assesshub/assesshub-backend/internal/logger"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/repository"
	"github.com/assesshub/assesshub-backend/internal/service"
)

// fixture mirrors the YAML seed file layout. Sections come first so
// assessments can reference them by name.
type fixture struct {
	Sections []struct {
		Name         string `yaml:"name"`
		Description  string `yaml:"description"`
		DisplayOrder int    `yaml:"display_order"`
		Questions    []struct {
			Text       string `yaml:"text"`
			Type       string `yaml:"type"`
			Difficulty string `yaml:"difficulty"`
			Points     int    `yaml:"points"`
			Language   string `yaml:"language"`
			Template   string `yaml:"template"`
			Options    []struct {
				Text    string `yaml:"text"`
				Correct bool   `yaml:"correct"`
			} `yaml:"options"`
			TestCases []struct {
				Input          string `yaml:"input"`
				ExpectedOutput string `yaml:"expected_output"`
				Hidden         bool   `yaml:"hidden"`
			} `yaml:"test_cases"`
		} `yaml:"questions"`
	} `yaml:"sections"`

	Companies []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		LogoURL     string `yaml:"logo_url"`
		Assessments []struct {
			Name            string     `yaml:"name"`
			Description     string     `yaml:"description"`
			DurationMinutes int        `yaml:"duration_minutes"`
			ScheduledAt     *time.Time `yaml:"scheduled_at"`
			Sections        []string   `yaml:"sections"`
		} `yaml:"assessments"`
	} `yaml:"companies"`

	Candidates []struct {
		Email    string `yaml:"email"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"candidates"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "fixtures/demo.yml", "Path to YAML fixture file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read fixture file")
	}

	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse fixture file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	sectionRepo := repository.NewSectionRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)

	authService := service.NewAuthService(cfg, rdb)
	companyService := service.NewCompanyService(companyRepo, assessmentRepo)
	sectionService := service.NewSectionService(sectionRepo)
	questionService := service.NewQuestionService(questionRepo, sectionRepo)
	assessmentService := service.NewAssessmentService(assessmentRepo, sectionRepo, questionRepo, rdb, log)

	fmt.Printf("=== Seeding from %s ===\n", file)

	// ─── Sections and Questions ────────────────────────────────────────
	sectionIDs := make(map[string]int64, len(fx.Sections))
	questions := 0

	for _, s := range fx.Sections {
		section := &model.Section{
			Name:         s.Name,
			Description:  s.Description,
			DisplayOrder: s.DisplayOrder,
		}
		if err := sectionService.Create(ctx, section); err != nil {
			log.Fatal().Err(err).Str("section", s.Name).Msg("Failed to create section")
		}
		sectionIDs[s.Name] = section.ID

		for _, q := range s.Questions {
			question := &model.Question{
				SectionID:           section.ID,
				QuestionText:        q.Text,
				Type:                model.QuestionType(q.Type),
				DifficultyLevel:     model.DifficultyLevel(q.Difficulty),
				Points:              q.Points,
				CodeTemplate:        q.Template,
				ProgrammingLanguage: q.Language,
			}
			if question.DifficultyLevel == "" {
				question.DifficultyLevel = model.DifficultyMedium
			}
			if question.Points == 0 {
				question.Points = 1
			}
			for _, opt := range q.Options {
				question.MCQOptions = append(question.MCQOptions, model.MCQOption{
					OptionText: opt.Text,
					IsCorrect:  opt.Correct,
				})
			}
			for _, tc := range q.TestCases {
				question.TestCases = append(question.TestCases, model.TestCase{
					Input:          tc.Input,
					ExpectedOutput: tc.ExpectedOutput,
					Hidden:         tc.Hidden,
				})
			}
			if err := questionService.Create(ctx, question); err != nil {
				log.Fatal().Err(err).Str("section", s.Name).Msg("Failed to create question")
			}
			questions++
		}
	}
	fmt.Printf("Created %d sections, %d questions\n", len(sectionIDs), questions)

	// ─── Companies and Assessments ─────────────────────────────────────
	assessments := 0
	for _, c := range fx.Companies {
		company := &model.Company{
			Name:        c.Name,
			Description: c.Description,
			LogoURL:     c.LogoURL,
		}
		if err := companyService.Create(ctx, company); err != nil {
			log.Fatal().Err(err).Str("company", c.Name).Msg("Failed to create company")
		}

		for _, a := range c.Assessments {
			ids := make([]int64, 0, len(a.Sections))
			for _, name := range a.Sections {
				id, ok := sectionIDs[name]
				if !ok {
					log.Fatal().
						Str("assessment", a.Name).
						Str("section", name).
						Msg("Assessment references unknown section")
				}
				ids = append(ids, id)
			}
			structure, _ := json.Marshal(map[string]interface{}{"sections": ids})

			assessment := &model.Assessment{
				CompanyID:       company.ID,
				Name:            a.Name,
				Description:     a.Description,
				CreatedBy:       "seed",
				ScheduledAt:     a.ScheduledAt,
				DurationMinutes: a.DurationMinutes,
				Structure:       structure,
			}
			if err := assessmentService.Create(ctx, assessment); err != nil {
				log.Fatal().Err(err).Str("assessment", a.Name).Msg("Failed to create assessment")
			}
			assessments++
		}
	}
	fmt.Printf("Created %d companies, %d assessments\n", len(fx.Companies), assessments)

	// ─── Candidate Accounts ────────────────────────────────────────────
	// Seeded candidates skip the OTP flow; they are created verified.
	for _, cand := range fx.Candidates {
		hash, err := authService.HashPassword(cand.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		user := &model.User{
			Email:         cand.Email,
			Username:      cand.Username,
			PasswordHash:  hash,
			Role:          model.UserRoleCandidate,
			EmailVerified: true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatal().Err(err).Str("email", cand.Email).Msg("Failed to create candidate")
		}
	}
	fmt.Printf("Created %d candidates\n", len(fx.Candidates))

	fmt.Println("Done.")
}
