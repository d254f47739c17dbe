package tags

// The tag data is denormalized on purpose, every alias is a full row in
// tag_lookup including the tags main name. Retrievals outnumber writes by a
// lot so everything is resolved through the heavily indexed lookup table.
//
// The trigram indexes need the pg_trgm extension, creating it is a no-op
// when it's already there.
var DBSchemas = []string{`
CREATE EXTENSION IF NOT EXISTS pg_trgm;
`, `
CREATE TABLE IF NOT EXISTS tags (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

	name TEXT NOT NULL,
	content TEXT NOT NULL,
	owner_id BIGINT NOT NULL,
	uses INT NOT NULL DEFAULT 0,
	location_id BIGINT NOT NULL
);
`, `
CREATE UNIQUE INDEX IF NOT EXISTS tags_uniq_idx ON tags (location_id, LOWER(name));
`, `
CREATE INDEX IF NOT EXISTS tags_name_trgm_idx ON tags USING GIN (LOWER(name) gin_trgm_ops);
`, `
CREATE TABLE IF NOT EXISTS tag_lookup (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

	name TEXT NOT NULL,
	location_id BIGINT NOT NULL,
	owner_id BIGINT NOT NULL,
	tag_id BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE
);
`, `
CREATE UNIQUE INDEX IF NOT EXISTS tag_lookup_uniq_idx ON tag_lookup (location_id, LOWER(name));
`, `
CREATE INDEX IF NOT EXISTS tag_lookup_name_trgm_idx ON tag_lookup USING GIN (LOWER(name) gin_trgm_ops);
`, `
CREATE INDEX IF NOT EXISTS tag_lookup_tag_id_idx ON tag_lookup (tag_id);
`}
