// Package rings keeps the range-ring ledger: the set of danger-close ring
// overlays currently drawn around targets. It answers the overlay queries the
// catalog navigator seeds its active flags from and applies the ring events
// weapon toggles emit.
package rings

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dangerclose/internal/logging"
	"dangerclose/internal/munitions"
)

// DefaultTimeout bounds ledger calls made through the navigator interfaces.
const DefaultTimeout = 5 * time.Second

// Ring is one drawn overlay.
type Ring struct {
	UID         string
	Target      string
	Weapon      string // "<name>[<id>]"
	Category    string
	FromLine    string
	InnerRange  int
	OuterRange  int
	Description string
	Visible     bool
	CreatedAt   time.Time
}

// WeaponID extracts the id from the weapon key.
func (r Ring) WeaponID() (int, bool) {
	open := strings.LastIndex(r.Weapon, "[")
	if open < 0 || !strings.HasSuffix(r.Weapon, "]") {
		return 0, false
	}
	id, err := strconv.Atoi(r.Weapon[open+1 : len(r.Weapon)-1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// CategoryGroup is the rings of one category on a target.
type CategoryGroup struct {
	Category string
	Rings    []Ring
}

// Ledger stores rings in SQLite.
type Ledger struct {
	db      *sql.DB
	dbPath  string
	timeout time.Duration
	mu      sync.RWMutex
}

// Open creates or opens the ledger at path.
func Open(path string, timeout time.Duration) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	l := &Ledger{
		db:      db,
		dbPath:  path,
		timeout: timeout,
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Rings("ring ledger opened: %s", path)
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rings (
		uid TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		weapon TEXT NOT NULL,
		category TEXT NOT NULL,
		from_line TEXT NOT NULL DEFAULT '',
		inner_range INTEGER NOT NULL DEFAULT 0,
		outer_range INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		visible INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rings_target ON rings(target, from_line);
	CREATE INDEX IF NOT EXISTS idx_rings_weapon ON rings(weapon, category);
	`
	_, err := l.db.Exec(schema)
	return err
}

// =============================================================================
// RING EVENTS
// =============================================================================

// Apply draws or removes the rings an event describes. Drawing replaces any
// ring with the same uid.
func (l *Ledger) Apply(ctx context.Context, ev munitions.RingEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	uid := ev.UID()
	if ev.Remove {
		if _, err := l.db.ExecContext(ctx, `DELETE FROM rings WHERE uid = ?`, uid); err != nil {
			return fmt.Errorf("failed to remove ring %s: %w", uid, err)
		}
		logging.RingsDebug("removed ring %s", uid)
		return nil
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rings (uid, target, weapon, category, from_line,
			inner_range, outer_range, description, visible, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, uid, ev.Target, ev.Name, ev.Category, ev.FromLine,
		ev.InnerRange, ev.OuterRange, ev.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add ring %s: %w", uid, err)
	}
	logging.RingsDebug("added ring %s (%dm/%dm)", uid, ev.InnerRange, ev.OuterRange)
	return nil
}

// ToggleRing applies ev under the ledger timeout.
func (l *Ledger) ToggleRing(ev munitions.RingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	return l.Apply(ctx, ev)
}

// HasOverlay reports whether a ring with uid exists. Query errors count as absent.
func (l *Ledger) HasOverlay(uid string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	l.mu.RLock()
	defer l.mu.RUnlock()

	var one int
	err := l.db.QueryRowContext(ctx, `SELECT 1 FROM rings WHERE uid = ?`, uid).Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		logging.RingsError("overlay query for %s failed: %v", uid, err)
	}
	return err == nil
}

// =============================================================================
// QUERIES
// =============================================================================

// List returns the rings around target, or every ring when target is empty.
func (l *Ledger) List(ctx context.Context, target string) ([]Ring, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	query := `
		SELECT uid, target, weapon, category, from_line, inner_range, outer_range,
			description, visible, created_at
		FROM rings`
	var args []interface{}
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY target, category, weapon`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rings: %w", err)
	}
	defer rows.Close()

	var out []Ring
	for rows.Next() {
		var r Ring
		var visible int
		if err := rows.Scan(&r.UID, &r.Target, &r.Weapon, &r.Category, &r.FromLine,
			&r.InnerRange, &r.OuterRange, &r.Description, &visible, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ring: %w", err)
		}
		r.Visible = visible != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// TargetMunitions groups the rings around target by category.
func (l *Ledger) TargetMunitions(ctx context.Context, target string) ([]CategoryGroup, error) {
	rings, err := l.List(ctx, target)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]Ring)
	for _, r := range rings {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for cat, rs := range byCategory {
		groups = append(groups, CategoryGroup{Category: cat, Rings: rs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups, nil
}

// Targets returns every target with at least one ring.
func (l *Ledger) Targets(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT target FROM rings ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

// RemoveWeaponFromAllTargets removes one weapon's rings from every target.
func (l *Ledger) RemoveWeaponFromAllTargets(ctx context.Context, weapon, category string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.ExecContext(ctx, `DELETE FROM rings WHERE weapon = ? AND category = ?`, weapon, category)
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", weapon, err)
	}
	n, _ := res.RowsAffected()
	logging.Rings("removed %s (%s) from %d targets", weapon, category, n)
	logging.Audit(logging.AuditEvent{
		EventType: logging.AuditRingPurge,
		Weapon:    weapon,
		Category:  category,
		Count:     int(n),
		Success:   true,
	})
	return n, nil
}

// PurgeRings removes weapon from every target under the ledger timeout.
func (l *Ledger) PurgeRings(weapon, category string) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	_, err := l.RemoveWeaponFromAllTargets(ctx, weapon, category)
	return err
}

// RemoveAllForTarget removes every ring around target drawn from fromLine.
func (l *Ledger) RemoveAllForTarget(ctx context.Context, target, fromLine string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.ExecContext(ctx, `DELETE FROM rings WHERE target = ? AND from_line = ?`, target, fromLine)
	if err != nil {
		return 0, fmt.Errorf("failed to clear target %s: %w", target, err)
	}
	n, _ := res.RowsAffected()
	logging.Rings("cleared %d rings from %s", n, target)
	return n, nil
}

// SetVisible shows or hides every ring around target drawn from fromLine.
func (l *Ledger) SetVisible(ctx context.Context, target, fromLine string, visible bool) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := 0
	if visible {
		v = 1
	}
	res, err := l.db.ExecContext(ctx, `UPDATE rings SET visible = ? WHERE target = ? AND from_line = ?`, v, target, fromLine)
	if err != nil {
		return 0, fmt.Errorf("failed to set visibility on %s: %w", target, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
