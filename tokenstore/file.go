package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/utils"
	"github.com/digitrack/digitrack-go/utils/logger"
)

// FileStore keeps the session in a single JSON file. Writes go through a
// temp file and rename so a reader never sees a torn record.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type FileConfig struct {
	// Path of the session file. Defaults to "digitrack-session.json" in the
	// user config directory.
	Path string
}

func NewFileStore(cfg FileConfig) *FileStore {
	path := cfg.Path
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		path = filepath.Join(dir, "digitrack-session.json")
	}
	return &FileStore{path: path}
}

func (s *FileStore) Save(_ context.Context, tokens models.Tokens, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{
		IDToken:      tokens.IDToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         user,
	}
	data, err := utils.StructToBytes(rec)
	if err != nil {
		logger.LogError("failed to encode session record", zap.Error(err))
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		logger.LogError("failed to create session directory", zap.Error(err))
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		logger.LogError("failed to write session file", zap.Error(err))
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		logger.LogError("failed to replace session file", zap.Error(err))
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (models.Tokens, models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.LogWarn("failed to read session file", zap.Error(err))
		}
		return models.Tokens{}, models.User{}, false
	}

	var rec record
	if err := utils.BytesToStruct(data, &rec); err != nil {
		logger.LogWarn("discarding unreadable session file", zap.Error(err))
		return models.Tokens{}, models.User{}, false
	}

	tokens := models.Tokens{
		IDToken:      rec.IDToken,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
	}
	if !tokens.Complete() {
		return models.Tokens{}, models.User{}, false
	}
	return tokens, rec.User, true
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		logger.LogError("failed to remove session file", zap.Error(err))
		return err
	}
	return nil
}
