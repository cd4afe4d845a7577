package history

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sync_runs (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    sync_time        TEXT NOT NULL,
    created_count    INTEGER NOT NULL,
    updated_count    INTEGER NOT NULL,
    deactivated_count INTEGER NOT NULL,
    error_count      INTEGER NOT NULL,
    recurring_count  INTEGER NOT NULL,
    total_monthly    TEXT NOT NULL,
    error_detail     TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_time ON sync_runs(sync_time);
`
