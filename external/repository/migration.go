package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE stt_status AS ENUM ('pending', 'processing', 'completed', 'failed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE interview_status AS ENUM ('pending', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS interviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		interviewee_name TEXT NOT NULL,
		interviewee_email TEXT NOT NULL DEFAULT '',
		status interview_status NOT NULL DEFAULT 'pending',
		unique_link_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(unique_link_id)
	)`,
	`CREATE TABLE IF NOT EXISTS interview_questions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		interview_id UUID NOT NULL REFERENCES interviews(id) ON DELETE CASCADE,
		question_text TEXT NOT NULL,
		display_order INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(interview_id, display_order)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		interview_question_id UUID NOT NULL REFERENCES interview_questions(id) ON DELETE CASCADE,
		stt_status stt_status NOT NULL DEFAULT 'pending',
		transcript_result JSONB,
		audio_object_key TEXT,
		audio_content_type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(interview_question_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interview_questions_interview ON interview_questions (interview_id, display_order)`,
	`CREATE INDEX IF NOT EXISTS idx_answers_question ON answers (interview_question_id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
