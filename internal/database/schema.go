package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []struct {
	table string
	ddl   string
}{
	{"room_types", `CREATE TABLE IF NOT EXISTS room_types (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		price_per_night BIGINT NOT NULL,
		tax_rate_bp INT NOT NULL DEFAULT 0,
		max_occupancy INT NOT NULL,
		currency CHAR(3) NOT NULL,
		check_in_time VARCHAR(5) NOT NULL DEFAULT '14:00',
		refundable TINYINT(1) NOT NULL DEFAULT 1
	) ENGINE=InnoDB`},
	{"physical_rooms", `CREATE TABLE IF NOT EXISTS physical_rooms (
		room_type_id BIGINT UNSIGNED NOT NULL,
		room_number VARCHAR(20) NOT NULL,
		position INT NOT NULL DEFAULT 0,
		PRIMARY KEY (room_type_id, room_number),
		CONSTRAINT fk_rooms_type FOREIGN KEY (room_type_id) REFERENCES room_types (id)
	) ENGINE=InnoDB`},
	{"room_unavailable_dates", `CREATE TABLE IF NOT EXISTS room_unavailable_dates (
		room_type_id BIGINT UNSIGNED NOT NULL,
		room_number VARCHAR(20) NOT NULL,
		day DATE NOT NULL,
		PRIMARY KEY (room_type_id, room_number, day)
	) ENGINE=InnoDB`},
	{"seated_services", `CREATE TABLE IF NOT EXISTS seated_services (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		mode VARCHAR(10) NOT NULL,
		code VARCHAR(20) NOT NULL,
		name VARCHAR(100) NOT NULL,
		currency CHAR(3) NOT NULL,
		valid_from DATE NOT NULL,
		valid_to DATE NOT NULL,
		frequency VARCHAR(20) NOT NULL,
		operating_days VARCHAR(20) NOT NULL DEFAULT '',
		departure_time VARCHAR(5) NOT NULL
	) ENGINE=InnoDB`},
	{"fare_classes", `CREATE TABLE IF NOT EXISTS fare_classes (
		service_id BIGINT UNSIGNED NOT NULL,
		code VARCHAR(20) NOT NULL,
		name VARCHAR(50) NOT NULL,
		base_price BIGINT NOT NULL,
		taxes BIGINT NOT NULL DEFAULT 0,
		tax_mode VARCHAR(20) NOT NULL DEFAULT 'per_passenger',
		total_seats INT NOT NULL,
		refundable TINYINT(1) NOT NULL DEFAULT 1,
		position INT NOT NULL DEFAULT 0,
		PRIMARY KEY (service_id, code),
		CONSTRAINT fk_classes_service FOREIGN KEY (service_id) REFERENCES seated_services (id)
	) ENGINE=InnoDB`},
	{"bookings", `CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		resource_type VARCHAR(10) NOT NULL,
		resource_id BIGINT UNSIGNED NOT NULL,
		unit VARCHAR(20) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		departure_at DATETIME NOT NULL,
		party_size INT NOT NULL,
		passengers JSON NOT NULL,
		base_price BIGINT NOT NULL,
		taxes BIGINT NOT NULL,
		service_fee BIGINT NOT NULL,
		add_ons JSON NOT NULL,
		add_ons_total BIGINT NOT NULL,
		discount BIGINT NOT NULL,
		total BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		payment_method VARCHAR(30) NOT NULL DEFAULT '',
		payment_txn_id VARCHAR(100) NOT NULL DEFAULT '',
		payment_status VARCHAR(20) NOT NULL,
		payment_refund BIGINT NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL,
		is_cancellable TINYINT(1) NOT NULL,
		cancel_charge BIGINT NOT NULL DEFAULT 0,
		cancel_refund BIGINT NOT NULL DEFAULT 0,
		cancel_reason VARCHAR(255) NOT NULL DEFAULT '',
		cancelled_at DATETIME NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_bookings_unit (resource_type, resource_id, unit, start_date, status),
		KEY idx_bookings_user (user_id, created_at)
	) ENGINE=InnoDB`},
	{"inventory_locks", `CREATE TABLE IF NOT EXISTS inventory_locks (
		lock_key VARCHAR(191) NOT NULL PRIMARY KEY,
		locked_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	) ENGINE=InnoDB`},
}

// CreateTables creates every table the engine uses if it does not exist.
func CreateTables(ctx context.Context, db *sqlx.DB) error {
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", t.table, err)
		}
	}
	return nil
}
