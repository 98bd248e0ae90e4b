// Package instance owns instance.json, the persisted record of one
// Minecraft install under the data root. It is the single writer of that
// file; every other component treats it as a read-mostly reference.
package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quasar/launchercore/internal/errs"
	"github.com/quasar/launchercore/internal/paths"
)

// CurrentSchemaVersion is the instance.json schema this build writes and
// reads without migration.
const CurrentSchemaVersion = 1

// State is the instance lifecycle state per the state machine in §8.
type State string

const (
	StateReady      State = "ready"
	StateInstalling State = "installing"
	StateRunning    State = "running"
	StateCrashed    State = "crashed"
	StateError      State = "error"
)

// Overrides holds per-instance settings overrides layered on top of
// Settings (see internal/config).
type Overrides struct {
	MinMemoryMB        int      `json:"min_memory,omitempty"`
	MaxMemoryMB        int      `json:"max_memory,omitempty"`
	JavaPathOverride   string   `json:"java_path_override,omitempty"`
	JavaArgs           []string `json:"java_args,omitempty"`
	JavaWarningIgnored bool     `json:"java_warning_ignored,omitempty"`
}

// Instance is the persisted record for one Minecraft install.
type Instance struct {
	SchemaVersion   int        `json:"schema_version"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	MCVersion       string     `json:"mc_version"`
	Loader          string     `json:"loader"`
	LoaderVersion   string     `json:"loader_version,omitempty"`
	Icon            string     `json:"icon,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastPlayed      *time.Time `json:"last_played,omitempty"`
	PlaytimeMinutes int        `json:"playtime_minutes"`
	LastCrash       string     `json:"last_crash,omitempty"`
	State           State      `json:"state"`
	Overrides       Overrides  `json:"overrides"`
}

// Store provides atomic CRUD over the instances directory and enforces
// instance-name uniqueness and single-flight installs.
type Store struct {
	layout *paths.Layout

	mu    sync.Mutex
	locks map[string]bool
}

func NewStore(layout *paths.Layout) *Store {
	return &Store{layout: layout, locks: make(map[string]bool)}
}

// List returns every instance found under the instances directory,
// skipping entries that fail to load rather than aborting the whole scan.
func (s *Store) List() ([]*Instance, error) {
	entries, err := os.ReadDir(s.layout.InstancesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.Filesystem, "listing instances directory", err)
	}

	var out []*Instance
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		inst, err := s.Get(e.Name())
		if err != nil {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get loads one instance by id, applying forward schema migration if
// needed and refusing to load a schema version newer than this build
// understands.
func (s *Store) Get(id string) (*Instance, error) {
	data, err := os.ReadFile(s.layout.InstanceMetaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.NotFound, fmt.Sprintf("instance %q not found", id))
		}
		return nil, errs.Wrap(errs.Filesystem, "reading instance.json", err)
	}

	var raw struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.SchemaInvalid, "decoding instance.json", err)
	}
	if raw.SchemaVersion > CurrentSchemaVersion {
		return nil, errs.New(errs.SchemaTooNew, fmt.Sprintf("instance %q schema_version %d is newer than supported %d", id, raw.SchemaVersion, CurrentSchemaVersion))
	}

	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, errs.Wrap(errs.SchemaInvalid, "decoding instance.json", err)
	}

	migrated := migrate(&inst, raw.SchemaVersion)
	if migrated {
		if err := s.persist(&inst); err != nil {
			return nil, err
		}
	}
	return &inst, nil
}

// migrate upgrades inst in place from fromVersion to CurrentSchemaVersion.
// There have been no schema changes since version 1, so the only step is
// stamping CurrentSchemaVersion onto older records (including ones with no
// schema_version field, read as 0). It reports whether inst changed, so
// Get re-persists a migrated record.
func migrate(inst *Instance, fromVersion int) bool {
	if fromVersion >= CurrentSchemaVersion {
		return false
	}
	inst.SchemaVersion = CurrentSchemaVersion
	return true
}

// Create allocates a new instance with a unique name, directory skeleton,
// and initial ready state.
func (s *Store) Create(name, version, mcVersion, loader string) (*Instance, error) {
	existing, err := s.List()
	if err != nil {
		return nil, err
	}
	uniqueName := uniqueify(name, existing)

	inst := &Instance{
		SchemaVersion: CurrentSchemaVersion,
		ID:            uuid.NewString(),
		Name:          uniqueName,
		Version:       version,
		MCVersion:     mcVersion,
		Loader:        loader,
		CreatedAt:     time.Now().UTC(),
		State:         StateReady,
	}

	if err := os.MkdirAll(s.layout.InstanceMinecraftDir(inst.ID), 0o755); err != nil {
		return nil, errs.Wrap(errs.Filesystem, "creating instance directory", err)
	}
	if err := s.persist(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// uniqueify appends " (N)" for the smallest N that makes name unique among
// existing instances.
func uniqueify(name string, existing []*Instance) string {
	taken := make(map[string]bool, len(existing))
	for _, inst := range existing {
		taken[inst.Name] = true
	}
	if !taken[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Save persists inst as-is. Callers are responsible for setting fields
// correctly; Save does not validate state transitions.
func (s *Store) Save(inst *Instance) error {
	return s.persist(inst)
}

func (s *Store) persist(inst *Instance) error {
	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Internal, "marshaling instance.json", err)
	}
	if err := paths.AtomicWrite(s.layout.InstanceMetaPath(inst.ID), data); err != nil {
		return errs.Wrap(errs.Filesystem, "writing instance.json", err)
	}
	return nil
}

// Delete removes an instance's directory. If deleteVersion is true and no
// other instance references the same version id, the version's directory
// is removed too.
func (s *Store) Delete(id string, deleteVersion bool) error {
	inst, err := s.Get(id)
	if err != nil {
		return err
	}

	if deleteVersion {
		only, err := s.IsOnlyUserOfVersion(inst.Version, id)
		if err != nil {
			return err
		}
		if only {
			if err := os.RemoveAll(s.layout.VersionDir(inst.Version)); err != nil {
				return errs.Wrap(errs.Filesystem, "removing version directory", err)
			}
		}
	}

	if err := os.RemoveAll(s.layout.InstanceDir(id)); err != nil {
		return errs.Wrap(errs.Filesystem, "removing instance directory", err)
	}
	return nil
}

// IsOnlyUserOfVersion reports whether no instance other than excludingID
// references versionID. Used to decide whether deleting an instance may
// also delete its shared version files.
func (s *Store) IsOnlyUserOfVersion(versionID, excludingID string) (bool, error) {
	all, err := s.List()
	if err != nil {
		return false, err
	}
	for _, inst := range all {
		if inst.ID == excludingID {
			continue
		}
		if inst.Version == versionID {
			return false, nil
		}
	}
	return true, nil
}

// TryLock acquires the single-flight install lock for id. It returns
// errs.Busy immediately rather than queuing, per §5's "never queued"
// concurrency rule.
func (s *Store) TryLock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[id] {
		return errs.New(errs.Busy, fmt.Sprintf("instance %q already has an operation in progress", id))
	}
	s.locks[id] = true
	return nil
}

// Unlock releases the single-flight install lock for id.
func (s *Store) Unlock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

// NormalizeName trims and collapses whitespace in a user-supplied
// instance name before uniqueness checks.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
