package store

import (
	"strings"

	"entgo.io/ent/dialect"
)

// Timestamps are stored as UTC unix nanoseconds and structured fields as
// JSON text so that one set of statements serves SQLite and Postgres.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS case_profiles (
	user_id     TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	facts       TEXT NOT NULL,
	risk_flags  TEXT NOT NULL,
	created_at  BIGINT NOT NULL,
	PRIMARY KEY (user_id, source_hash)
);
CREATE TABLE IF NOT EXISTS blueprints (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	categories  TEXT NOT NULL,
	metadata    TEXT NOT NULL,
	created_at  BIGINT NOT NULL,
	UNIQUE (user_id, source_hash)
);
CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	blueprint_id   TEXT NOT NULL,
	type           TEXT NOT NULL,
	category       TEXT NOT NULL,
	difficulty     INTEGER NOT NULL,
	prompt         TEXT NOT NULL,
	choices        TEXT NOT NULL,
	correct_answer TEXT NOT NULL,
	rationales     TEXT NOT NULL,
	rubric         TEXT NOT NULL,
	position       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS questions_blueprint_id ON questions (blueprint_id);
CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	blueprint_id      TEXT NOT NULL,
	question_ids      TEXT NOT NULL,
	started_at        BIGINT NOT NULL,
	finished_at       BIGINT,
	score             INTEGER,
	competency_scores TEXT
);
CREATE INDEX IF NOT EXISTS sessions_user_id ON sessions (user_id);
CREATE TABLE IF NOT EXISTS results (
	session_id       TEXT NOT NULL,
	question_id      TEXT NOT NULL,
	submitted_answer TEXT NOT NULL,
	is_correct       BOOLEAN,
	score            DOUBLE PRECISION,
	feedback         TEXT NOT NULL,
	time_spent_sec   INTEGER NOT NULL,
	updated_at       BIGINT NOT NULL,
	PRIMARY KEY (session_id, question_id)
);
CREATE TABLE IF NOT EXISTS llm_events (
	id            {{serial}},
	created_at    BIGINT NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	purpose       TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	latency_ms    BIGINT NOT NULL,
	success       BOOLEAN NOT NULL,
	error_message TEXT NOT NULL,
	request_body  TEXT NOT NULL,
	response_body TEXT NOT NULL
);
`

// schemaStatements returns the DDL for dia split into single statements.
func schemaStatements(dia string) []string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dia == dialect.Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	ddl := strings.ReplaceAll(schemaDDL, "{{serial}}", serial)

	var stmts []string
	for _, s := range strings.Split(ddl, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
