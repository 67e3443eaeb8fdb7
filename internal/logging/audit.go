package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType names a state change worth keeping a record of.
type AuditEventType string

const (
	// Favorites
	AuditFavoriteAdd    AuditEventType = "favorite_add"
	AuditFavoriteRemove AuditEventType = "favorite_remove"
	AuditFavoritePrune  AuditEventType = "favorite_prune"

	// Custom catalog
	AuditCustomCreate AuditEventType = "custom_create"
	AuditCustomEdit   AuditEventType = "custom_edit"
	AuditCustomRemove AuditEventType = "custom_remove"

	// Active flags and rings
	AuditWeaponActivate   AuditEventType = "weapon_activate"
	AuditWeaponDeactivate AuditEventType = "weapon_deactivate"
	AuditDeactivateAll    AuditEventType = "deactivate_all"
	AuditRingPurge        AuditEventType = "ring_purge"
)

// AuditEvent is one line of the audit trail.
type AuditEvent struct {
	Timestamp time.Time
	EventType AuditEventType
	Target    string // session target uid, if any
	WeaponID  int
	Weapon    string
	Category  string
	Count     int
	Success   bool
	Error     string
}

var (
	auditMu   sync.Mutex
	auditLog  *zap.Logger
	auditFile *os.File
)

// InitAudit opens <logs dir>/audit.jsonl. No-op unless debug mode is on.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	configMu.RLock()
	dir := logsDir
	configMu.RUnlock()
	if dir == "" {
		return fmt.Errorf("logging not initialized")
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLog != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, "audit.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "event"
	encCfg.LevelKey = ""
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)
	auditFile = f
	auditLog = zap.New(core)
	return nil
}

// CloseAudit flushes and closes the audit trail.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLog != nil {
		_ = auditLog.Sync()
		auditLog = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit writes one event. Silently dropped when the trail is not open.
func Audit(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLog == nil {
		return
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := []zap.Field{zap.Bool("success", event.Success)}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.WeaponID != 0 {
		fields = append(fields, zap.Int("id", event.WeaponID))
	}
	if event.Weapon != "" {
		fields = append(fields, zap.String("weapon", event.Weapon))
	}
	if event.Category != "" {
		fields = append(fields, zap.String("category", event.Category))
	}
	if event.Count != 0 {
		fields = append(fields, zap.Int("count", event.Count))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}

	if ce := auditLog.Check(zapcore.InfoLevel, string(event.EventType)); ce != nil {
		ce.Time = ts
		ce.Write(fields...)
	}
}

// AuditWeapon records a single-weapon mutation.
func AuditWeapon(eventType AuditEventType, id int, name, category string, err error) {
	ev := AuditEvent{
		EventType: eventType,
		WeaponID:  id,
		Weapon:    name,
		Category:  category,
		Success:   err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	Audit(ev)
}
