package schema

// SchemaSQL contains the full database schema initialization script
const SchemaSQL = `
-- Coordination State Schema

-- 1. Backend Session Credentials
-- One row per principal, replaced as a whole on every refresh.
CREATE TABLE IF NOT EXISTS credentials (
    principal VARCHAR(100) PRIMARY KEY,
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- 2. Link Handshake Sessions
-- Latest attempt per (platform, user); terminal rows persist the outcome.
CREATE TABLE IF NOT EXISTS link_sessions (
    platform VARCHAR(50) NOT NULL,
    user_id VARCHAR(255) NOT NULL,
    state VARCHAR(20) NOT NULL,
    code TEXT,
    session_id VARCHAR(255),
    issued_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    attempt_count INTEGER NOT NULL DEFAULT 1,
    last_error TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (platform, user_id)
);

CREATE INDEX IF NOT EXISTS idx_link_sessions_expires_at ON link_sessions (expires_at);

-- 3. Application State
-- Small key-value state surviving restarts (e.g. last active platform).
CREATE TABLE IF NOT EXISTS app_state (
    key VARCHAR(100) PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
