package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/picklr-io/tfreconcile/internal/ir"
	"github.com/picklr-io/tfreconcile/internal/logging"
)

// BackupSuffix is appended to the state name when no backup name is configured.
const BackupSuffix = ".reconcile-backup"

var (
	// ErrNotInitialized means there is no state file yet, i.e. nothing has
	// been provisioned. Callers treat it as a clean no-op.
	ErrNotInitialized = errors.New("no state file exists")

	// ErrBackupExists means a previous run did not finish. The backup doubles
	// as the run lock, so nothing may proceed until it is removed.
	ErrBackupExists = errors.New("backup state file already exists")

	// ErrNoBackup is returned by Unlock when there is nothing to remove.
	ErrNoBackup = errors.New("no backup state file exists")
)

// LoadError reports a state document that cannot be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load state file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PersistError reports a failed write of the live state. The backup is kept.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to update state file %s - nothing has been changed: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Manager handles the backup, load and persist cycle of a state file.
type Manager struct {
	store  Store
	path   string
	backup string
}

// NewManager returns a Manager for the state at path in store. An empty
// backup name defaults to path + BackupSuffix.
func NewManager(store Store, path, backup string) *Manager {
	if backup == "" {
		backup = path + BackupSuffix
	}
	return &Manager{
		store:  store,
		path:   path,
		backup: backup,
	}
}

// Path returns a printable location of the live state.
func (m *Manager) Path() string {
	return m.store.Describe(m.path)
}

// BackupPath returns a printable location of the backup.
func (m *Manager) BackupPath() string {
	return m.store.Describe(m.backup)
}

// Backup copies the live state to the backup location. The run reads from
// the backup from then on.
func (m *Manager) Backup(ctx context.Context) error {
	exists, err := m.store.Exists(ctx, m.path)
	if err != nil {
		return fmt.Errorf("failed to check state file %s: %w", m.Path(), err)
	}
	if !exists {
		return ErrNotInitialized
	}

	locked, err := m.store.Exists(ctx, m.backup)
	if err != nil {
		return fmt.Errorf("failed to check backup file %s: %w", m.BackupPath(), err)
	}
	if locked {
		return fmt.Errorf("%w (%s). Did a previous execution error? If not, run 'tfreconcile unlock' or remove the file manually", ErrBackupExists, m.BackupPath())
	}

	if err := m.store.Copy(ctx, m.path, m.backup); err != nil {
		return fmt.Errorf("failed to create state file backup %s, please check permissions and try again: %w", m.BackupPath(), err)
	}

	logging.Debug("state backed up", "state", m.Path(), "backup", m.BackupPath())
	return nil
}

// Load parses the backup into memory.
func (m *Manager) Load(ctx context.Context) (*ir.State, error) {
	return m.load(ctx, m.backup)
}

// ReadLive parses the live state without taking the backup lock.
func (m *Manager) ReadLive(ctx context.Context) (*ir.State, error) {
	st, err := m.load(ctx, m.path)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, ErrNotInitialized
	}
	return st, err
}

func (m *Manager) load(ctx context.Context, name string) (*ir.State, error) {
	data, err := m.store.Read(ctx, name)
	if err != nil {
		return nil, &LoadError{Path: m.store.Describe(name), Err: err}
	}

	st, err := ir.DecodeState(data)
	if err != nil {
		return nil, &LoadError{Path: m.store.Describe(name), Err: err}
	}
	return st, nil
}

// Persist overwrites the live state with st.
func (m *Manager) Persist(ctx context.Context, st *ir.State) error {
	data, err := st.Encode()
	if err != nil {
		return &PersistError{Path: m.Path(), Err: err}
	}

	if err := m.store.Write(ctx, m.path, data); err != nil {
		return &PersistError{Path: m.Path(), Err: err}
	}
	return nil
}

// Cleanup removes the backup. Only call it after a successful Persist.
func (m *Manager) Cleanup(ctx context.Context) error {
	if err := m.store.Remove(ctx, m.backup); err != nil {
		return fmt.Errorf("failed to remove backup file %s: %w", m.BackupPath(), err)
	}
	return nil
}

// Unlock removes a backup left behind by an unfinished run.
func (m *Manager) Unlock(ctx context.Context) error {
	exists, err := m.store.Exists(ctx, m.backup)
	if err != nil {
		return fmt.Errorf("failed to check backup file %s: %w", m.BackupPath(), err)
	}
	if !exists {
		return fmt.Errorf("%w (%s)", ErrNoBackup, m.BackupPath())
	}
	return m.Cleanup(ctx)
}

// Locked reports whether a backup is present.
func (m *Manager) Locked(ctx context.Context) (bool, error) {
	return m.store.Exists(ctx, m.backup)
}
