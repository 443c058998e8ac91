// Package session binds one OpenOCD process and one GDB/MI bridge into a
// named debug session and keeps the registry of live sessions.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/adapter"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/svd"
)

// Session is a named debug session. It exclusively owns its two backend
// processes; they are created and destroyed together.
type Session struct {
	// Name is the registry key. Immutable.
	Name string
	// Target is the profile name used to attach, or "custom".
	Target string
	// MCU names the part for hardware description lookup. May be empty.
	MCU string
	// CreatedAt is the session creation time.
	CreatedAt time.Time

	Adapter *adapter.Process
	Bridge  *mi.Bridge

	mu      sync.Mutex
	elfPath string
	db      *svd.Database
}

// ELFPath returns the current firmware path, possibly updated by a reflash.
func (s *Session) ELFPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elfPath
}

// SetELFPath records a new firmware path after a reflash.
func (s *Session) SetELFPath(path string) {
	s.mu.Lock()
	s.elfPath = path
	s.mu.Unlock()
}

// PeripheralDB returns the cached peripheral database, or nil if none has
// been loaded for this session yet.
func (s *Session) PeripheralDB() *svd.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// SetPeripheralDB caches a loaded peripheral database on the session. The
// database is immutable after construction and safe to share.
func (s *Session) SetPeripheralDB(db *svd.Database) {
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
}

// Alive reports whether both backends are still up.
func (s *Session) Alive() bool {
	return s.Adapter.Alive() && s.Bridge.Connected()
}

// Uptime returns the time since the session was created.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.CreatedAt)
}

// Shutdown stops both backends. Both are always attempted, even if one is
// already dead.
func (s *Session) Shutdown() error {
	s.Bridge.Stop()
	if err := s.Adapter.Stop(5 * time.Second); err != nil {
		return fmt.Errorf("session %q: %v", s.Name, err)
	}
	return nil
}
