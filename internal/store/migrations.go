package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Label bindings - classifier label to gesture symbol
		`CREATE TABLE IF NOT EXISTS bindings (
			label TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Events - one row per recognised symbol transition
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			label TEXT NOT NULL,
			confidence REAL,
			symbol TEXT NOT NULL,
			command TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Hooks - plugin actions fired when a symbol is recognised
		`CREATE TABLE IF NOT EXISTS hooks (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings - key/value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_hooks_symbol ON hooks(symbol)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
