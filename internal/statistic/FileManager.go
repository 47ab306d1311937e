package statistic

import (
	"fmt"
	json "github.com/goccy/go-json"
	"os"
	"path/filepath"
	"statpulse/internal/models"
	"statpulse/internal/providers"
	"statpulse/internal/services"
	"statpulse/internal/statistic/interfaces"
)

// FileManager keeps the latest sink view on disk as compressed JSON.
type FileManager struct {
	service    services.SinkServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.SinkServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	state := f.service.State()

	jsonData, err := json.Marshal(state)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(fileName); dir != "" {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores a saved state. A missing file is not an error.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", fileName, err)
	}

	var state models.SinkState
	if err := json.Unmarshal(decompressedData, &state); err != nil {
		return fmt.Errorf("decode %s: %w", fileName, err)
	}
	f.service.Restore(state)
	f.logger.Infof(providers.TypeApp, "Restored %d notifications from %s", len(state.Notifications), fileName)
	return nil
}
