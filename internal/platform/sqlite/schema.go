package sqlite

// schema mirrors the postgres migrations: same tables, same constraints,
// with UUIDs as TEXT and timestamps as Unix seconds. Every statement is
// idempotent so EnsureSchema can run on each startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    reminder_hour INTEGER NOT NULL DEFAULT -1 CHECK (reminder_hour BETWEEN -1 AND 23),
    created_at INTEGER NOT NULL,
    last_active_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    visibility TEXT NOT NULL DEFAULT 'private' CHECK (visibility IN ('private', 'shared')),
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decks_owner ON decks(owner_id);
CREATE INDEX IF NOT EXISTS idx_decks_shared ON decks(created_at) WHERE visibility = 'shared';

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    card_type TEXT NOT NULL,
    prompt TEXT NOT NULL,
    answer TEXT NOT NULL,
    translation TEXT NOT NULL DEFAULT '',
    example TEXT NOT NULL DEFAULT '',
    media_ref TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cards_deck_order ON cards(deck_id, position, created_at, id);

CREATE TABLE IF NOT EXISTS progress (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
    repetition INTEGER NOT NULL DEFAULT 0 CHECK (repetition >= 0),
    ease_factor REAL NOT NULL CHECK (ease_factor > 0),
    interval_days INTEGER NOT NULL DEFAULT 0 CHECK (interval_days >= 0),
    due_at INTEGER NOT NULL,
    lapse_count INTEGER NOT NULL DEFAULT 0 CHECK (lapse_count >= 0),
    last_reviewed_at INTEGER,
    times_seen INTEGER NOT NULL DEFAULT 0 CHECK (times_seen >= 0),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (user_id, card_id)
);

CREATE INDEX IF NOT EXISTS idx_progress_due ON progress(user_id, due_at);

CREATE TABLE IF NOT EXISTS session_summaries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    deck_id TEXT REFERENCES decks(id) ON DELETE SET NULL,
    started_at INTEGER NOT NULL,
    ended_at INTEGER NOT NULL,
    cards_seen INTEGER NOT NULL CHECK (cards_seen >= 0),
    cards_rated INTEGER NOT NULL CHECK (cards_rated >= 0),
    cards_known INTEGER NOT NULL CHECK (cards_known >= 0),
    accuracy REAL NOT NULL,
    duration_ms INTEGER NOT NULL CHECK (duration_ms >= 0),
    stats_applied INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_summaries_user ON session_summaries(user_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_summaries_unapplied ON session_summaries(ended_at) WHERE stats_applied = 0;

CREATE TABLE IF NOT EXISTS user_stats (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    current_streak INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
    longest_streak INTEGER NOT NULL DEFAULT 0 CHECK (longest_streak >= current_streak),
    cards_studied INTEGER NOT NULL DEFAULT 0 CHECK (cards_studied >= 0),
    study_time_ms INTEGER NOT NULL DEFAULT 0 CHECK (study_time_ms >= 0),
    last_study_date INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`
