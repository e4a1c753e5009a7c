package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assesshub/assesshub-backend/internal/model"
)

// QuestionRepository handles question, MCQ option and test case data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, section_id, question_text, type, difficulty_level,
	points, time_limit_minutes, code_template, programming_language, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.SectionID, &q.QuestionText, &q.Type, &q.DifficultyLevel,
		&q.Points, &q.TimeLimitMinutes, &q.CodeTemplate, &q.ProgrammingLanguage,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a question together with its options or test cases.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, []*model.Question{q}); err != nil {
		return nil, err
	}
	return q, nil
}

// ListBySection retrieves a section's questions with children attached.
func (r *QuestionRepository) ListBySection(ctx context.Context, sectionID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE section_id = $1 ORDER BY id ASC`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*model.Question, len(questions))
	for i := range questions {
		ptrs[i] = &questions[i]
	}
	if err := r.attachChildren(ctx, ptrs); err != nil {
		return nil, err
	}
	return questions, nil
}

// attachChildren loads MCQ options and test cases for the given questions.
func (r *QuestionRepository) attachChildren(ctx context.Context, questions []*model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(questions))
	byID := make(map[int64]*model.Question, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
		byID[q.ID] = q
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, is_correct
		 FROM mcq_options WHERE question_id = ANY($1) ORDER BY id ASC`, ids)
	if err != nil {
		return err
	}
	defer optRows.Close()
	for optRows.Next() {
		var o model.MCQOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect); err != nil {
			return err
		}
		if q, ok := byID[o.QuestionID]; ok {
			q.MCQOptions = append(q.MCQOptions, o)
		}
	}
	if err := optRows.Err(); err != nil {
		return err
	}

	tcRows, err := r.pool.Query(ctx,
		`SELECT id, question_id, input, expected_output, hidden
		 FROM test_cases WHERE question_id = ANY($1) ORDER BY id ASC`, ids)
	if err != nil {
		return err
	}
	defer tcRows.Close()
	for tcRows.Next() {
		var tc model.TestCase
		if err := tcRows.Scan(&tc.ID, &tc.QuestionID, &tc.Input, &tc.ExpectedOutput, &tc.Hidden); err != nil {
			return err
		}
		if q, ok := byID[tc.QuestionID]; ok {
			q.TestCases = append(q.TestCases, tc)
		}
	}
	return tcRows.Err()
}

// Create inserts a question and its children in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (section_id, question_text, type, difficulty_level, points,
			                        time_limit_minutes, code_template, programming_language)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at, updated_at`,
			q.SectionID, q.QuestionText, q.Type, q.DifficultyLevel, q.Points,
			q.TimeLimitMinutes, q.CodeTemplate, q.ProgrammingLanguage,
		).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
		return insertChildren(ctx, tx, q)
	})
}

// Update replaces a question's fields and children in one transaction.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE questions
			 SET question_text = $1, difficulty_level = $2, points = $3, time_limit_minutes = $4,
			     code_template = $5, programming_language = $6, updated_at = NOW()
			 WHERE id = $7`,
			q.QuestionText, q.DifficultyLevel, q.Points, q.TimeLimitMinutes,
			q.CodeTemplate, q.ProgrammingLanguage, q.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM mcq_options WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM test_cases WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		return insertChildren(ctx, tx, q)
	})
}

func insertChildren(ctx context.Context, tx pgx.Tx, q *model.Question) error {
	for i := range q.MCQOptions {
		o := &q.MCQOptions[i]
		o.QuestionID = q.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO mcq_options (question_id, option_text, is_correct)
			 VALUES ($1, $2, $3) RETURNING id`,
			o.QuestionID, o.OptionText, o.IsCorrect,
		).Scan(&o.ID)
		if err != nil {
			return err
		}
	}
	for i := range q.TestCases {
		tc := &q.TestCases[i]
		tc.QuestionID = q.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO test_cases (question_id, input, expected_output, hidden)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			tc.QuestionID, tc.Input, tc.ExpectedOutput, tc.Hidden,
		).Scan(&tc.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a question; options and test cases cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

// CorrectOptionsBySections maps question id to correct option text for all
// MCQ questions in the given sections. Used to build the grading key.
func (r *QuestionRepository) CorrectOptionsBySections(ctx context.Context, sectionIDs []int64) (map[int64]string, error) {
	key := make(map[int64]string)
	if len(sectionIDs) == 0 {
		return key, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT q.id, o.option_text
		 FROM questions q
		 JOIN mcq_options o ON o.question_id = q.id AND o.is_correct
		 WHERE q.section_id = ANY($1) AND q.type = 'MCQ'`, sectionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, err
		}
		key[id] = text
	}
	return key, rows.Err()
}
