package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"fwbuilder-report/internal/model"
	"fwbuilder-report/internal/utils"

	_ "github.com/go-sql-driver/mysql"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS fw_report_rule (
		id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
		firewall VARCHAR(128) NOT NULL,
		seq INT UNSIGNED NOT NULL,
		position VARCHAR(64) NOT NULL,
		policy VARCHAR(128) NOT NULL,
		action VARCHAR(32) NOT NULL,
		css_class VARCHAR(32) NOT NULL,
		disabled TINYINT(1) NOT NULL,
		text LONGTEXT NOT NULL,
		KEY idx_fw_report_rule_firewall (firewall)
	)`,
	`CREATE TABLE IF NOT EXISTS fw_report_object (
		id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
		firewall VARCHAR(128) NOT NULL,
		seq INT UNSIGNED NOT NULL,
		object_id VARCHAR(128) NOT NULL,
		kind VARCHAR(16) NOT NULL,
		name VARCHAR(255) NOT NULL,
		addresses LONGTEXT NOT NULL,
		KEY idx_fw_report_object_firewall (firewall)
	)`,
}

// ArchivedRule is one row of fw_report_rule.
type ArchivedRule struct {
	Position string
	Policy   string
	Action   string
	Class    string
	Disabled bool
	Text     string
}

// ArchivedObject is one row of fw_report_object.
type ArchivedObject struct {
	ObjectID  string
	Kind      string
	Name      string
	Addresses []string
}

// MariaDBArchive keeps the latest rendered report of each firewall.
type MariaDBArchive struct {
	db *sql.DB
}

func NewMariaDBArchive(dsn string) (*MariaDBArchive, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &MariaDBArchive{db: db}, nil
}

func (a *MariaDBArchive) Close() {
	a.db.Close()
}

func (a *MariaDBArchive) EnsureSchema() error {
	for _, stmt := range schema {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create archive schema: %w", err)
		}
	}
	return nil
}

// Save replaces the archived rows of rep's firewall in one transaction.
func (a *MariaDBArchive) Save(rep *model.Report) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM fw_report_rule WHERE firewall = ?", rep.Firewall); err != nil {
		return fmt.Errorf("failed to clear archived rules: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM fw_report_object WHERE firewall = ?", rep.Firewall); err != nil {
		return fmt.Errorf("failed to clear archived objects: %w", err)
	}

	for i, rule := range rep.Policy.Rules {
		if _, err := tx.Exec(
			"INSERT INTO fw_report_rule (firewall, seq, position, policy, action, css_class, disabled, text) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			rep.Firewall, i, rule.Position, rule.Policy, rule.Action, rule.Class, rule.Disabled, rule.Text,
		); err != nil {
			return fmt.Errorf("failed to archive rule %s: %w", rule.Position, err)
		}
	}

	for i, ref := range rep.Policy.Refs.All() {
		addresses := make([]string, len(ref.Addresses))
		for j, addr := range ref.Addresses {
			addresses[j] = utils.StripMarkup(addr)
		}
		addressesJSON, err := json.Marshal(addresses)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO fw_report_object (firewall, seq, object_id, kind, name, addresses) VALUES (?, ?, ?, ?, ?, ?)",
			rep.Firewall, i, ref.ID, string(ref.Kind), utils.StripMarkup(ref.Name), string(addressesJSON),
		); err != nil {
			return fmt.Errorf("failed to archive object %s: %w", ref.ID, err)
		}
	}

	return tx.Commit()
}

// Rules returns the archived rules of firewall in report order.
func (a *MariaDBArchive) Rules(firewall string) ([]ArchivedRule, error) {
	rows, err := a.db.Query("SELECT position, policy, action, css_class, disabled, text FROM fw_report_rule WHERE firewall = ? ORDER BY seq ASC", firewall)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []ArchivedRule
	for rows.Next() {
		var r ArchivedRule
		if err := rows.Scan(&r.Position, &r.Policy, &r.Action, &r.Class, &r.Disabled, &r.Text); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// Objects returns the archived glossary of firewall in report order.
func (a *MariaDBArchive) Objects(firewall string) ([]ArchivedObject, error) {
	rows, err := a.db.Query("SELECT object_id, kind, name, addresses FROM fw_report_object WHERE firewall = ? ORDER BY seq ASC", firewall)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []ArchivedObject
	for rows.Next() {
		var o ArchivedObject
		var addressesJSON string
		if err := rows.Scan(&o.ObjectID, &o.Kind, &o.Name, &addressesJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(addressesJSON), &o.Addresses); err != nil {
			return nil, fmt.Errorf("object %s: malformed addresses: %w", o.ObjectID, err)
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}
