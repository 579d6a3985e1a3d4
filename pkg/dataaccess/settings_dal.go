package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/veldhuis/gatekeeper/pkg/dataaccess/monitoring"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/logging"
)

const settingsDalName = "settings_dal"

// SettingsDal is the data access layer for the bot settings file.
type SettingsDal interface {
	// Load reads the settings file, filling defaults for any missing keys. A
	// missing file yields the defaults; a malformed one yields an error
	// wrapping entities.ErrSettingsCorrupt.
	Load(ctx context.Context) (*entities.Settings, error)

	// Save writes the full settings object, replacing the previous contents.
	Save(ctx context.Context, s *entities.Settings) error

	// NextTicketID increments the ticket counter, persists it, and returns the
	// new value.
	NextTicketID(ctx context.Context) (int, error)
}

type settingsDal struct {
	// l is the logger.
	l *slog.Logger

	// path is the location of the settings file.
	path string

	// mut guards the read-modify-write of the file so two near-simultaneous
	// ticket creations cannot be issued the same ID.
	mut sync.Mutex
}

// NewSettingsDal creates a settings data access layer backed by the file at path.
func NewSettingsDal(l *slog.Logger, path string) SettingsDal {
	return &settingsDal{
		l:    l.With(slog.String(logging.KeyDal, settingsDalName)),
		path: path,
	}
}

func (d *settingsDal) Load(_ context.Context) (*entities.Settings, error) {
	monitoring.SettingsTotalRequests.WithLabelValues(settingsDalName, "load").Inc()
	t := prometheus.NewTimer(monitoring.SettingsLatency.WithLabelValues(settingsDalName, "load"))
	defer t.ObserveDuration()

	d.mut.Lock()
	defer d.mut.Unlock()

	return d.load()
}

func (d *settingsDal) Save(_ context.Context, s *entities.Settings) error {
	monitoring.SettingsTotalRequests.WithLabelValues(settingsDalName, "save").Inc()
	t := prometheus.NewTimer(monitoring.SettingsLatency.WithLabelValues(settingsDalName, "save"))
	defer t.ObserveDuration()

	d.mut.Lock()
	defer d.mut.Unlock()

	return d.save(s)
}

func (d *settingsDal) NextTicketID(_ context.Context) (int, error) {
	monitoring.SettingsTotalRequests.WithLabelValues(settingsDalName, "next_ticket_id").Inc()
	t := prometheus.NewTimer(monitoring.SettingsLatency.WithLabelValues(settingsDalName, "next_ticket_id"))
	defer t.ObserveDuration()

	// Hold the lock across the whole read-modify-write.
	d.mut.Lock()
	defer d.mut.Unlock()

	s, err := d.load()
	if err != nil {
		return 0, err
	}

	s.TicketCounter++

	if err := d.save(s); err != nil {
		return 0, err
	}
	return s.TicketCounter, nil
}

// load reads and decodes the settings file. Callers must hold the mutex.
func (d *settingsDal) load() (*entities.Settings, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		d.l.Debug("Settings file does not exist, using defaults", slog.String("path", d.path))
		return entities.DefaultSettings(), nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}

	s := new(entities.Settings)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrSettingsCorrupt, err)
	}

	s.MergeDefaults()
	return s, nil
}

// save writes the settings file in full. Callers must hold the mutex.
func (d *settingsDal) save(s *entities.Settings) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}

	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("error writing settings file: %w", err)
	}
	return nil
}
