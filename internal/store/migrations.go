package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS businesses (
	business_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	email       TEXT
);

CREATE TABLE IF NOT EXISTS people (
	person_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	email        TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL DEFAULT '',
	business_id  INTEGER REFERENCES businesses(business_id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_people_business_id ON people(business_id);

CREATE TABLE IF NOT EXISTS tasks (
	task_id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'Open' CHECK(status IN ('Open', 'Completed')),
	related_business_id INTEGER,
	related_person_id   INTEGER
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_related_business ON tasks(related_business_id);

CREATE TABLE IF NOT EXISTS categories (
	category_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	category_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tags (
	tag_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	tag_name TEXT NOT NULL,
	color    INTEGER NOT NULL DEFAULT 4286545791
);

CREATE TABLE IF NOT EXISTS business_category_links (
	business_id INTEGER NOT NULL REFERENCES businesses(business_id) ON DELETE CASCADE,
	category_id INTEGER NOT NULL REFERENCES categories(category_id) ON DELETE CASCADE,
	PRIMARY KEY (business_id, category_id)
);

CREATE INDEX IF NOT EXISTS idx_bcl_category_id ON business_category_links(category_id);

CREATE TABLE IF NOT EXISTS business_tag_links (
	business_id INTEGER NOT NULL REFERENCES businesses(business_id) ON DELETE CASCADE,
	tag_id      INTEGER NOT NULL REFERENCES tags(tag_id) ON DELETE CASCADE,
	PRIMARY KEY (business_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_btl_tag_id ON business_tag_links(tag_id);

CREATE TABLE IF NOT EXISTS person_tag_links (
	person_id INTEGER NOT NULL REFERENCES people(person_id) ON DELETE CASCADE,
	tag_id    INTEGER NOT NULL REFERENCES tags(tag_id) ON DELETE CASCADE,
	PRIMARY KEY (person_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_ptl_tag_id ON person_tag_links(tag_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
