package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Prefs persists small per-machine viewer preferences, such as the last viewed playlist per user.
type Prefs struct {
	path string
	mu   sync.Mutex
	mem  *prefsFile
}

type prefsFile struct {
	LastPlaylist map[string]string `toml:"last_playlist"`
}

// NewPrefs returns a [Prefs] backed by the TOML file at path. An empty path keeps preferences in memory for the life of the process.
func NewPrefs(path string) *Prefs {
	return &Prefs{path: path}
}

// LastPlaylist returns the last viewed playlist key for uid, or "" if none was saved.
func (p *Prefs) LastPlaylist(uid string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.read()
	if err != nil {
		return "", err
	}
	return data.LastPlaylist[uid], nil
}

// SetLastPlaylist records key as the last viewed playlist for uid.
func (p *Prefs) SetLastPlaylist(uid, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.read()
	if err != nil {
		return err
	}
	data.LastPlaylist[uid] = key
	return p.write(data)
}

func (p *Prefs) read() (*prefsFile, error) {
	data := &prefsFile{LastPlaylist: map[string]string{}}
	if p.path == "" {
		if p.mem != nil {
			for k, v := range p.mem.LastPlaylist {
				data.LastPlaylist[k] = v
			}
		}
		return data, nil
	}

	if _, err := toml.DecodeFile(p.path, data); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read prefs: %w", err)
	}
	if data.LastPlaylist == nil {
		data.LastPlaylist = map[string]string{}
	}
	return data, nil
}

func (p *Prefs) write(data *prefsFile) error {
	if p.path == "" {
		p.mem = data
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}

	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}
	return nil
}
