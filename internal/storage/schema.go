package storage

const schema = `
-- The 'artworks' table is owned by the catalog side of the application; the
-- scheduler only reads ids from it.
CREATE TABLE IF NOT EXISTS artworks (
    id TEXT PRIMARY KEY
);

-- One row per tracked artwork, created lazily on first review. The version
-- column backs the optimistic-concurrency check on updates.
CREATE TABLE IF NOT EXISTS schedule_states (
    item_id TEXT PRIMARY KEY,
    easiness_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL,
    repetition_count INTEGER NOT NULL,
    next_review_date DATETIME NOT NULL,
    last_reviewed_at DATETIME,
    version INTEGER NOT NULL,

    FOREIGN KEY(item_id) REFERENCES artworks(id)
);

-- Append-only audit trail of review events. No UPDATE or DELETE is ever
-- issued against this table by the scheduler.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL,
    rating TEXT NOT NULL,
    resulting_interval_days INTEGER NOT NULL,
    resulting_easiness_factor REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_log_item ON review_log(item_id, reviewed_at);
`
