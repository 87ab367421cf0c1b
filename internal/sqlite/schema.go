// Package sqlite implements the SQLite backend for the Atlas resource directory.
package sqlite

// Schema DDL for all tables. Both association tables use the
// (resource_id, descriptor_id) pair as primary key, which makes a duplicate
// association for the same pair a constraint violation rather than a second row.
const (
	createDescriptors = `CREATE TABLE IF NOT EXISTS descriptors (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    "values" TEXT NOT NULL DEFAULT '[]',
    is_searchable INTEGER NOT NULL DEFAULT 0
);`

	createResources = `CREATE TABLE IF NOT EXISTS resources (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    latitude REAL NOT NULL DEFAULT 0,
    longitude REAL NOT NULL DEFAULT 0
);`

	createTextAssociations = `CREATE TABLE IF NOT EXISTS text_associations (
    resource_id INTEGER NOT NULL,
    descriptor_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (resource_id, descriptor_id),
    FOREIGN KEY (resource_id) REFERENCES resources(id) ON DELETE CASCADE,
    FOREIGN KEY (descriptor_id) REFERENCES descriptors(id) ON DELETE CASCADE
);`

	createOptionAssociations = `CREATE TABLE IF NOT EXISTS option_associations (
    resource_id INTEGER NOT NULL,
    descriptor_id INTEGER NOT NULL,
    option INTEGER NOT NULL CHECK (option >= 0),
    PRIMARY KEY (resource_id, descriptor_id),
    FOREIGN KEY (resource_id) REFERENCES resources(id) ON DELETE CASCADE,
    FOREIGN KEY (descriptor_id) REFERENCES descriptors(id) ON DELETE CASCADE
);`

	createSuggestions = `CREATE TABLE IF NOT EXISTS suggestions (
    suggestion_id TEXT PRIMARY KEY,
    resource_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    submitter TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    FOREIGN KEY (resource_id) REFERENCES resources(id) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxDescriptorsName              = `CREATE INDEX IF NOT EXISTS idx_descriptors_name ON descriptors(name);`
	idxResourcesName                = `CREATE INDEX IF NOT EXISTS idx_resources_name ON resources(name);`
	idxTextAssociationsDescriptor   = `CREATE INDEX IF NOT EXISTS idx_text_associations_descriptor ON text_associations(descriptor_id);`
	idxOptionAssociationsDescriptor = `CREATE INDEX IF NOT EXISTS idx_option_associations_descriptor ON option_associations(descriptor_id);`
	idxSuggestionsResource          = `CREATE INDEX IF NOT EXISTS idx_suggestions_resource ON suggestions(resource_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createDescriptors,
	createResources,
	createTextAssociations,
	createOptionAssociations,
	createSuggestions,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxDescriptorsName,
	idxResourcesName,
	idxTextAssociationsDescriptor,
	idxOptionAssociationsDescriptor,
	idxSuggestionsResource,
}

// dropOrder lists tables in reverse dependency order for Recreate.
var dropOrder = []string{
	"suggestions",
	"option_associations",
	"text_associations",
	"resources",
	"descriptors",
}
