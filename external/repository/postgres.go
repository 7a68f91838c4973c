package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirakawalab/kikitori/internal/repository"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateInterview(ctx context.Context, input repository.CreateInterviewInput) (*repository.Interview, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`INSERT INTO interviews (interviewee_name, interviewee_email, unique_link_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, interviewee_name, interviewee_email, status, unique_link_id, created_at, updated_at`,
		input.IntervieweeName, input.IntervieweeEmail, input.UniqueLinkID)
	var iv repository.Interview
	if err := row.Scan(&iv.ID, &iv.IntervieweeName, &iv.IntervieweeEmail, &iv.Status, &iv.UniqueLinkID, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}

	for _, q := range input.Questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO interview_questions (interview_id, question_text, display_order)
			 VALUES ($1, $2, $3)`,
			iv.ID, q.QuestionText, q.DisplayOrder); err != nil {
			return nil, mapPgError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &iv, nil
}

func (r *PostgresRepository) GetInterviewByID(ctx context.Context, id string) (*repository.Interview, error) {
	return r.getInterview(ctx,
		`SELECT id, interviewee_name, interviewee_email, status, unique_link_id, created_at, updated_at
		 FROM interviews WHERE id = $1`, id)
}

func (r *PostgresRepository) GetInterviewByLinkID(ctx context.Context, linkID string) (*repository.Interview, error) {
	return r.getInterview(ctx,
		`SELECT id, interviewee_name, interviewee_email, status, unique_link_id, created_at, updated_at
		 FROM interviews WHERE unique_link_id = $1`, linkID)
}

func (r *PostgresRepository) getInterview(ctx context.Context, query, arg string) (*repository.Interview, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	var iv repository.Interview
	err := row.Scan(&iv.ID, &iv.IntervieweeName, &iv.IntervieweeEmail, &iv.Status, &iv.UniqueLinkID, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &iv, nil
}

func (r *PostgresRepository) ListInterviews(ctx context.Context) ([]repository.Interview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, interviewee_name, interviewee_email, status, unique_link_id, created_at, updated_at
		 FROM interviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Interview
	for rows.Next() {
		var iv repository.Interview
		if err := rows.Scan(&iv.ID, &iv.IntervieweeName, &iv.IntervieweeEmail, &iv.Status, &iv.UniqueLinkID, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, iv)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) ListQuestionsByInterviewID(ctx context.Context, interviewID string) ([]repository.InterviewQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, interview_id, question_text, display_order, created_at, updated_at
		 FROM interview_questions WHERE interview_id = $1 ORDER BY display_order ASC`,
		interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.InterviewQuestion
	for rows.Next() {
		var q repository.InterviewQuestion
		if err := rows.Scan(&q.ID, &q.InterviewID, &q.QuestionText, &q.DisplayOrder, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetQuestionByID(ctx context.Context, id string) (*repository.InterviewQuestion, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, interview_id, question_text, display_order, created_at, updated_at
		 FROM interview_questions WHERE id = $1`, id)
	var q repository.InterviewQuestion
	err := row.Scan(&q.ID, &q.InterviewID, &q.QuestionText, &q.DisplayOrder, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *PostgresRepository) DeleteInterview(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateAnswer(ctx context.Context, input repository.CreateAnswerInput) (*repository.Answer, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO answers (interview_question_id, audio_object_key, audio_content_type)
		 VALUES ($1, $2, $3)
		 RETURNING id, interview_question_id, stt_status, transcript_result, audio_object_key, audio_content_type, created_at, updated_at`,
		input.InterviewQuestionID, input.AudioObjectKey, input.AudioContentType)
	a, err := scanAnswer(row)
	if err != nil {
		return nil, mapPgError(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetAnswer(ctx context.Context, id string) (*repository.Answer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, interview_question_id, stt_status, transcript_result, audio_object_key, audio_content_type, created_at, updated_at
		 FROM answers WHERE id = $1`, id)
	a, err := scanAnswer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) ListAnswersByInterviewID(ctx context.Context, interviewID string) ([]repository.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.interview_question_id, a.stt_status, a.transcript_result, a.audio_object_key, a.audio_content_type, a.created_at, a.updated_at
		 FROM answers a
		 JOIN interview_questions q ON q.id = a.interview_question_id
		 WHERE q.interview_id = $1
		 ORDER BY q.display_order ASC`,
		interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) MarkAnswerProcessing(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE answers SET stt_status = 'processing', updated_at = NOW()
		 WHERE id = $1 AND stt_status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) MarkAnswerFailed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE answers SET stt_status = 'failed', updated_at = NOW()
		 WHERE id = $1 AND stt_status IN ('pending', 'processing')`, id)
	return err
}

func (r *PostgresRepository) CompleteAnswer(ctx context.Context, input repository.CompleteAnswerInput) (bool, error) {
	query := `UPDATE answers SET stt_status = 'completed', transcript_result = $2, updated_at = NOW()
		 WHERE id = $1`
	if input.Guarded {
		query += ` AND stt_status IN ('pending', 'processing')`
	}
	tag, err := r.pool.Exec(ctx, query, input.AnswerID, input.Transcript)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	// Distinguish a missing answer from a guarded late callback.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM answers WHERE id = $1)`, input.AnswerID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, repository.ErrNotFound
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*repository.Answer, error) {
	var a repository.Answer
	err := row.Scan(&a.ID, &a.InterviewQuestionID, &a.Status, &a.TranscriptResult, &a.AudioObjectKey, &a.AudioContentType, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return repository.ErrConflict
	}
	return err
}
