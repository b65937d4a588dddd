package utils

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rivaaz-backend/models"
)

// AuditLogger writes audit rows on a background goroutine so audited
// operations never block on, or fail because of, audit persistence.
type AuditLogger struct {
	db      *gorm.DB
	entries chan models.AuditLog
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAuditLogger(db *gorm.DB) *AuditLogger {
	l := &AuditLogger{
		db:      db,
		entries: make(chan models.AuditLog, 256),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *AuditLogger) run() {
	defer l.wg.Done()
	for entry := range l.entries {
		if err := l.db.Create(&entry).Error; err != nil {
			log.Printf("Failed to write audit log for %s/%s: %v", entry.Table, entry.RecordID, err)
		}
	}
}

// Record enqueues one audit entry. Old and new values are marshalled to
// JSON; a full buffer drops the entry with a log line rather than blocking.
func (l *AuditLogger) Record(table, recordID, action string, oldValues, newValues interface{}, userID *uuid.UUID, userEmail string) {
	entry := models.AuditLog{
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		OldValues: marshalAuditValue(oldValues),
		NewValues: marshalAuditValue(newValues),
		UserID:    userID,
		UserEmail: userEmail,
	}
	select {
	case l.entries <- entry:
	default:
		log.Printf("Audit buffer full, dropping entry for %s/%s", table, recordID)
	}
}

// Close drains pending entries and stops the writer goroutine.
func (l *AuditLogger) Close() {
	l.once.Do(func() {
		close(l.entries)
	})
	l.wg.Wait()
}

func marshalAuditValue(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

var (
	auditMu      sync.RWMutex
	defaultAudit *AuditLogger
)

// InitAuditLogger wires the process-wide audit logger used by handlers.
func InitAuditLogger(db *gorm.DB) {
	auditMu.Lock()
	defer auditMu.Unlock()
	defaultAudit = NewAuditLogger(db)
}

// Audit records an entry on the process-wide logger; a no-op before init.
func Audit(table, recordID, action string, oldValues, newValues interface{}, userID *uuid.UUID, userEmail string) {
	auditMu.RLock()
	l := defaultAudit
	auditMu.RUnlock()
	if l == nil {
		return
	}
	l.Record(table, recordID, action, oldValues, newValues, userID, userEmail)
}
