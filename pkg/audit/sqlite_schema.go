package audit

// SchemaVersion is the current audit schema version.
const SchemaVersion = 1

// Schema creates the decisions table and its indexes. The table is
// append-only; the only delete path is retention pruning.
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id           TEXT PRIMARY KEY,
    request_id   TEXT NOT NULL,
    agent_id     TEXT NOT NULL,
    fingerprint  TEXT NOT NULL,
    command      TEXT NOT NULL,
    outcome      TEXT NOT NULL,
    tier         TEXT NOT NULL,
    reason       TEXT NOT NULL,
    risk_score   REAL NOT NULL DEFAULT 0,
    rule_name    TEXT NOT NULL DEFAULT '',
    latency_ms   INTEGER NOT NULL DEFAULT 0,
    decided_at   TIMESTAMP NOT NULL,
    created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_agent_id    ON decisions(agent_id);
CREATE INDEX IF NOT EXISTS idx_decisions_fingerprint ON decisions(fingerprint);
CREATE INDEX IF NOT EXISTS idx_decisions_outcome     ON decisions(outcome);
CREATE INDEX IF NOT EXISTS idx_decisions_decided_at  ON decisions(decided_at);

CREATE TABLE IF NOT EXISTS schema_info (
    version    INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// InsertSchemaVersion records the schema version, ignoring reruns.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_info (version) VALUES (?);`
