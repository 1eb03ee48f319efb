package sqlstore

import (
	"context"
	"database/sql"
)

// initSchema creates every table legion needs if it does not already exist,
// the same idempotent-migration-on-open approach the teacher's
// initSchemaOnDB uses for its own embedded store.
func initSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS guilds (
		id BIGINT PRIMARY KEY,
		guild_id VARCHAR(64) NOT NULL,
		current_turn INT NOT NULL DEFAULT 0,
		max_movement_stat INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS characters (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		identifier VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		represented_faction_id BIGINT NOT NULL DEFAULT 0,
		representation_changed_turn INT NOT NULL DEFAULT 0,
		victory_points INT NOT NULL DEFAULT 0,
		production JSON NOT NULL,
		UNIQUE KEY uq_characters_guild_identifier (guild_id, identifier)
	)`,
	`CREATE TABLE IF NOT EXISTS factions (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		faction_id VARCHAR(64) NOT NULL,
		leader_character_id BIGINT NOT NULL DEFAULT 0,
		nation VARCHAR(64) NOT NULL,
		created_turn INT NOT NULL DEFAULT 0,
		starting_territory_count INT NOT NULL DEFAULT 0,
		spending JSON NOT NULL,
		UNIQUE KEY uq_factions_guild_faction (guild_id, faction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS faction_members (
		guild_id BIGINT NOT NULL,
		faction_id BIGINT NOT NULL,
		character_id BIGINT NOT NULL,
		joined_turn INT NOT NULL DEFAULT 0,
		PRIMARY KEY (guild_id, faction_id, character_id)
	)`,
	`CREATE TABLE IF NOT EXISTS faction_permissions (
		guild_id BIGINT NOT NULL,
		faction_id BIGINT NOT NULL,
		character_id BIGINT NOT NULL,
		permission_type VARCHAR(32) NOT NULL,
		PRIMARY KEY (guild_id, faction_id, character_id, permission_type)
	)`,
	`CREATE TABLE IF NOT EXISTS alliances (
		guild_id BIGINT NOT NULL,
		faction_a_id BIGINT NOT NULL,
		faction_b_id BIGINT NOT NULL,
		status VARCHAR(32) NOT NULL,
		initiated_by_faction BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		activated_at DATETIME(6) NULL,
		PRIMARY KEY (guild_id, faction_a_id, faction_b_id)
	)`,
	`CREATE TABLE IF NOT EXISTS wars (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		war_id VARCHAR(64) NOT NULL,
		objective VARCHAR(255) NOT NULL DEFAULT '',
		declared_turn INT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_wars_guild_war (guild_id, war_id)
	)`,
	`CREATE TABLE IF NOT EXISTS war_participants (
		guild_id BIGINT NOT NULL,
		war_id BIGINT NOT NULL,
		faction_id BIGINT NOT NULL,
		side VARCHAR(16) NOT NULL,
		joined_turn INT NOT NULL DEFAULT 0,
		is_original_declarer BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (guild_id, war_id, faction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS territories (
		id BIGINT PRIMARY KEY,
		guild_id BIGINT NOT NULL,
		territory_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		terrain_type VARCHAR(32) NOT NULL,
		production JSON NOT NULL,
		victory_points INT NOT NULL DEFAULT 0,
		owner_kind VARCHAR(16) NOT NULL DEFAULT '',
		owner_character_id BIGINT NOT NULL DEFAULT 0,
		owner_faction_id BIGINT NOT NULL DEFAULT 0,
		original_nation VARCHAR(64) NOT NULL DEFAULT '',
		sacred_land BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE KEY uq_territories_guild_territory (guild_id, territory_id)
	)`,
	`CREATE TABLE IF NOT EXISTS territory_adjacency (
		guild_id BIGINT NOT NULL,
		territory_a_id BIGINT NOT NULL,
		territory_b_id BIGINT NOT NULL,
		PRIMARY KEY (guild_id, territory_a_id, territory_b_id)
	)`,
	`CREATE TABLE IF NOT EXISTS unit_types (
		guild_id BIGINT NOT NULL,
		type_id VARCHAR(64) NOT NULL,
		nation VARCHAR(64) NOT NULL,
		movement INT NOT NULL,
		organization_max INT NOT NULL,
		attack INT NOT NULL,
		defense INT NOT NULL,
		siege_attack INT NOT NULL,
		siege_defense INT NOT NULL,
		costs JSON NOT NULL,
		upkeep JSON NOT NULL,
		is_naval BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (guild_id, type_id, nation)
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		unit_id VARCHAR(64) NOT NULL,
		type VARCHAR(64) NOT NULL,
		owner_kind VARCHAR(16) NOT NULL DEFAULT '',
		owner_character_id BIGINT NOT NULL DEFAULT 0,
		owner_faction_id BIGINT NOT NULL DEFAULT 0,
		commander_character_id BIGINT NOT NULL DEFAULT 0,
		faction_id BIGINT NOT NULL DEFAULT 0,
		current_territory_id BIGINT NOT NULL DEFAULT 0,
		organization INT NOT NULL DEFAULT 0,
		max_organization INT NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL,
		is_naval BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE KEY uq_units_guild_unit (guild_id, unit_id)
	)`,
	`CREATE TABLE IF NOT EXISTS naval_unit_positions (
		guild_id BIGINT NOT NULL,
		unit_id BIGINT NOT NULL,
		territory_id BIGINT NOT NULL,
		position_index INT NOT NULL,
		PRIMARY KEY (guild_id, unit_id, position_index)
	)`,
	`CREATE TABLE IF NOT EXISTS building_types (
		guild_id BIGINT NOT NULL,
		type_id VARCHAR(64) NOT NULL,
		costs JSON NOT NULL,
		upkeep JSON NOT NULL,
		PRIMARY KEY (guild_id, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS buildings (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		building_id VARCHAR(64) NOT NULL,
		building_type VARCHAR(64) NOT NULL,
		territory_id BIGINT NOT NULL DEFAULT 0,
		durability INT NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL,
		upkeep JSON NOT NULL,
		UNIQUE KEY uq_buildings_guild_building (guild_id, building_id)
	)`,
	`CREATE TABLE IF NOT EXISTS player_resources (
		guild_id BIGINT NOT NULL,
		character_id BIGINT NOT NULL,
		balances JSON NOT NULL,
		PRIMARY KEY (guild_id, character_id)
	)`,
	`CREATE TABLE IF NOT EXISTS faction_resources (
		guild_id BIGINT NOT NULL,
		faction_id BIGINT NOT NULL,
		balances JSON NOT NULL,
		PRIMARY KEY (guild_id, faction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		order_type VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		submitted_at DATETIME(6) NOT NULL,
		character_id BIGINT NOT NULL DEFAULT 0,
		submitting_faction_id BIGINT NOT NULL DEFAULT 0,
		order_data JSON NOT NULL,
		result_data JSON NULL,
		turn_submitted INT NOT NULL DEFAULT 0,
		updated_at DATETIME(6) NOT NULL,
		updated_turn INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		turn_number INT NOT NULL,
		phase VARCHAR(32) NOT NULL,
		event_type VARCHAR(64) NOT NULL,
		entity_type VARCHAR(32) NOT NULL,
		entity_id BIGINT NOT NULL,
		event_data JSON NOT NULL,
		KEY ix_events_guild_turn (guild_id, turn_number)
	)`,
	`CREATE TABLE IF NOT EXISTS scheduled_tasks (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		task VARCHAR(64) NOT NULL,
		parameter TEXT NOT NULL,
		scheduled_time DATETIME(6) NOT NULL,
		recipient_id VARCHAR(64) NOT NULL,
		sender_id VARCHAR(64) NOT NULL,
		KEY ix_scheduled_tasks_time (scheduled_time)
	)`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		item_number BIGINT PRIMARY KEY,
		primary_chakra VARCHAR(32) NOT NULL DEFAULT '',
		primary_chakra_strength INT NOT NULL DEFAULT 0,
		secondary_chakra VARCHAR(32) NOT NULL DEFAULT '',
		secondary_chakra_strength INT NOT NULL DEFAULT 0,
		properties JSON NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		item_number BIGINT NOT NULL,
		product_type VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL,
		PRIMARY KEY (item_number, product_type)
	)`,
	`CREATE TABLE IF NOT EXISTS subset_recipes (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		product BIGINT NOT NULL,
		product_type VARCHAR(32) NOT NULL,
		ingredients JSON NOT NULL,
		quantity_produced INT NOT NULL DEFAULT 1,
		KEY ix_subset_recipes_product_type (product_type)
	)`,
	`CREATE TABLE IF NOT EXISTS constraint_recipes (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		product BIGINT NOT NULL,
		product_type VARCHAR(32) NOT NULL,
		quantity_produced INT NOT NULL DEFAULT 1,
		ingredient_patterns JSON NOT NULL,
		tier INT NULL,
		primary_chakra VARCHAR(32) NULL,
		primary_is_boon BOOLEAN NULL,
		secondary_chakra VARCHAR(32) NULL,
		secondary_is_boon BOOLEAN NULL,
		created_at DATETIME(6) NOT NULL,
		KEY ix_constraint_recipes_product_type (product_type)
	)`,
	`CREATE TABLE IF NOT EXISTS failed_blends (
		product_type VARCHAR(32) PRIMARY KEY,
		ruined_item_number BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evidence (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		guild_id BIGINT NOT NULL,
		entity_type VARCHAR(32) NOT NULL,
		entity_id BIGINT NOT NULL,
		note TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		created_by VARCHAR(64) NOT NULL,
		KEY ix_evidence_entity (guild_id, entity_type, entity_id)
	)`,
}
