package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// activity_log and attachment deliberately carry no foreign key on
// task_id: deleting a task leaves them behind for audit until they are
// explicitly purged.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid         TEXT NOT NULL UNIQUE,
	email        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	enabled      INTEGER NOT NULL DEFAULT 1 CHECK(enabled IN (0, 1)),
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS user_property (
	user_id   INTEGER NOT NULL REFERENCES user(id) ON DELETE CASCADE,
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (user_id, namespace, key)
);

CREATE TABLE IF NOT EXISTS task (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid        TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'new'
	            CHECK(status IN ('new', 'in_progress', 'on_hold', 'complete')),
	owner_id    INTEGER NOT NULL REFERENCES user(id),
	due_date    DATETIME,
	is_private  INTEGER NOT NULL DEFAULT 0 CHECK(is_private IN (0, 1)),
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS task_watcher (
	task_id    INTEGER NOT NULL REFERENCES task(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES user(id),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS tag (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	color      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS task_tag (
	task_id INTEGER NOT NULL REFERENCES task(id) ON DELETE CASCADE,
	tag_id  INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, tag_id)
);

CREATE TABLE IF NOT EXISTS comment (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid       TEXT NOT NULL UNIQUE,
	task_id    INTEGER NOT NULL,
	author_id  INTEGER NOT NULL REFERENCES user(id),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	edited_at  DATETIME
);

CREATE TABLE IF NOT EXISTS activity_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid              TEXT NOT NULL UNIQUE,
	task_id           INTEGER NOT NULL,
	actor_id          INTEGER,
	action            TEXT NOT NULL,
	details           TEXT NOT NULL DEFAULT '',
	logged_at         DATETIME NOT NULL,
	skip_notification INTEGER NOT NULL DEFAULT 0 CHECK(skip_notification IN (0, 1))
);

CREATE TABLE IF NOT EXISTS notification_queue (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid       TEXT NOT NULL UNIQUE,
	user_id    INTEGER NOT NULL,
	task_id    INTEGER,
	channel    TEXT NOT NULL CHECK(channel IN ('email', 'push')),
	subject    TEXT NOT NULL,
	body       TEXT NOT NULL,
	body_html  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending'
	           CHECK(status IN ('pending', 'sent', 'failed')),
	retries    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	sent_at    DATETIME
);

CREATE TABLE IF NOT EXISTS file_blob (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sha256_hash TEXT NOT NULL UNIQUE,
	file_size   INTEGER NOT NULL,
	mime_type   TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS attachment (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid              TEXT NOT NULL UNIQUE,
	task_id           INTEGER NOT NULL,
	file_blob_id      INTEGER NOT NULL REFERENCES file_blob(id),
	original_filename TEXT NOT NULL,
	uploaded_by       INTEGER NOT NULL,
	uploaded_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_status ON task(status);
CREATE INDEX IF NOT EXISTS idx_task_owner ON task(owner_id);
CREATE INDEX IF NOT EXISTS idx_comment_task ON comment(task_id);
CREATE INDEX IF NOT EXISTS idx_activity_task ON activity_log(task_id, logged_at);
CREATE INDEX IF NOT EXISTS idx_activity_logged_at ON activity_log(logged_at);
CREATE INDEX IF NOT EXISTS idx_queue_status_created ON notification_queue(status, created_at);
CREATE INDEX IF NOT EXISTS idx_attachment_task ON attachment(task_id);
CREATE INDEX IF NOT EXISTS idx_attachment_blob ON attachment(file_blob_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
