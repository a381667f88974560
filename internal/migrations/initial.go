package migrations

import (
	"database/sql"
)

// GetInitialMigrations returns all initial migrations
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_network_model",
			Up: func(tx *sql.Tx) error {
				// Node groups own a DNS domain and one or more managed interfaces.
				_, err := tx.Exec(`
					CREATE TABLE node_groups (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL,
						status TEXT NOT NULL DEFAULT 'enabled',
						maas_url TEXT NOT NULL DEFAULT '',
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`
					CREATE TABLE node_group_interfaces (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						node_group_id INTEGER NOT NULL,
						name TEXT NOT NULL,
						network TEXT NOT NULL,
						management TEXT NOT NULL DEFAULT 'unmanaged',
						ip_range_low TEXT NOT NULL DEFAULT '',
						ip_range_high TEXT NOT NULL DEFAULT '',
						static_range_low TEXT NOT NULL DEFAULT '',
						static_range_high TEXT NOT NULL DEFAULT '',
						FOREIGN KEY (node_group_id) REFERENCES node_groups(id) ON DELETE CASCADE
					)
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`
					CREATE TABLE vlans (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL,
						vid INTEGER NOT NULL DEFAULT 0
					)
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`
					CREATE TABLE subnets (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL,
						cidr TEXT NOT NULL UNIQUE,
						vlan_id INTEGER NOT NULL,
						gateway_ip TEXT NOT NULL DEFAULT '',
						dns_servers TEXT NOT NULL DEFAULT '',
						FOREIGN KEY (vlan_id) REFERENCES vlans(id)
					)
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`
					CREATE TABLE interfaces (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						type TEXT NOT NULL,
						mac_address TEXT NOT NULL UNIQUE,
						name TEXT NOT NULL,
						hostname TEXT NOT NULL DEFAULT '',
						node_group_id INTEGER,
						vlan_id INTEGER NOT NULL,
						FOREIGN KEY (node_group_id) REFERENCES node_groups(id) ON DELETE SET NULL,
						FOREIGN KEY (vlan_id) REFERENCES vlans(id)
					)
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`
					CREATE TABLE ip_assignments (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						interface_id INTEGER NOT NULL,
						subnet_id INTEGER,
						ip TEXT,
						family TEXT NOT NULL,
						alloc_type TEXT NOT NULL,
						lease_time INTEGER NOT NULL DEFAULT 0,
						created_at INTEGER NOT NULL,
						updated_at INTEGER NOT NULL,
						FOREIGN KEY (interface_id) REFERENCES interfaces(id) ON DELETE CASCADE,
						FOREIGN KEY (subnet_id) REFERENCES subnets(id) ON DELETE SET NULL
					)
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`
					CREATE TABLE settings (
						name TEXT PRIMARY KEY,
						value TEXT NOT NULL
					)
				`)
				if err != nil {
					return err
				}

				// One discovered assignment per (interface, family). This index
				// backs the ON CONFLICT upsert used by lease reconciliation.
				_, err = tx.Exec(`
					CREATE UNIQUE INDEX idx_ip_assignments_discovered
					ON ip_assignments(interface_id, family)
					WHERE alloc_type = 'discovered'
				`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`CREATE INDEX idx_interfaces_node_group_id ON interfaces(node_group_id)`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`CREATE INDEX idx_node_group_interfaces_node_group_id ON node_group_interfaces(node_group_id)`)
				if err != nil {
					return err
				}

				_, err = tx.Exec(`CREATE INDEX idx_ip_assignments_interface_id ON ip_assignments(interface_id)`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				// Drop tables in reverse dependency order.
				for _, table := range []string{
					"settings",
					"ip_assignments",
					"interfaces",
					"subnets",
					"vlans",
					"node_group_interfaces",
					"node_groups",
				} {
					if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
