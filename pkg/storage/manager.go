package storage

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	// registers the webp decoder with image.Decode
	_ "golang.org/x/image/webp"

	"pfpharvest/pkg/config"
	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/logger"
	"pfpharvest/pkg/models"
)

const fallbackName = "unnamed"

// Manager normalizes fetched images into PNG thumbnails and writes them to disk
type Manager struct {
	outputDir string
	size      int
	maxPixels int64
	written   map[string]string
	mu        sync.RWMutex
	logger    logger.Logger
}

// NewManager creates the thumbnail directory and returns a manager writing into it
func NewManager(cfg config.OutputConfig, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	outputDir := filepath.Join(cfg.BaseDirectory, cfg.Subdirectory)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	size := cfg.ThumbnailSize
	if size <= 0 {
		size = 256
	}

	maxPixels := cfg.MaxPixels
	if maxPixels <= 0 {
		maxPixels = config.DefaultMaxPixels
	}

	return &Manager{
		outputDir: outputDir,
		size:      size,
		maxPixels: maxPixels,
		written:   make(map[string]string),
		logger:    log.WithField("component", "storage"),
	}, nil
}

// FileName returns the safe file name used for rec
func FileName(rec *models.CollectionRecord) string {
	name := SanitizeName(rec.Name)
	if name == "" {
		name = SanitizeName(rec.Slug)
	}
	if name == "" {
		name = fallbackName
	}
	return name + ".png"
}

// PathFor returns where rec's thumbnail is written
func (m *Manager) PathFor(rec *models.CollectionRecord) string {
	return filepath.Join(m.outputDir, FileName(rec))
}

// Persist decodes rec.ImageBytes, shrinks it to fit the thumbnail box and writes
// it as PNG, replacing any existing file of the same name. It returns the path
// written. Undecodable or oversized images give a DecodeError and write
// failures an IOError.
func (m *Manager) Persist(rec *models.CollectionRecord) (string, error) {
	if err := m.checkDimensions(rec.ImageBytes); err != nil {
		return "", &errs.DecodeError{Name: rec.DisplayName(), Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(rec.ImageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return "", &errs.DecodeError{Name: rec.DisplayName(), Err: err}
	}

	thumb := imaging.Fit(img, m.size, m.size, imaging.Lanczos)

	path := m.PathFor(rec)
	if err := m.writeAtomic(path, func(f *os.File) error {
		return imaging.Encode(f, thumb, imaging.PNG)
	}); err != nil {
		return "", &errs.IOError{Name: rec.DisplayName(), Path: path, Err: err}
	}

	m.mu.Lock()
	previous, collided := m.written[path]
	m.written[path] = rec.Slug
	m.mu.Unlock()

	if collided && previous != rec.Slug {
		m.logger.WarnWithFields("thumbnail overwritten by another collection", map[string]interface{}{
			"path":     path,
			"previous": previous,
			"current":  rec.Slug,
		})
	}

	m.logger.DebugWithFields("thumbnail written", map[string]interface{}{
		"name":   rec.DisplayName(),
		"path":   path,
		"width":  thumb.Bounds().Dx(),
		"height": thumb.Bounds().Dy(),
	})

	return path, nil
}

// checkDimensions reads only the image header so that a forged size cannot
// force a huge pixel buffer allocation
func (m *Manager) checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > m.maxPixels {
		return fmt.Errorf("image %dx%d exceeds the %d pixel limit", cfg.Width, cfg.Height, m.maxPixels)
	}
	return nil
}

// writeAtomic writes through a temporary file in the same directory and renames it into place
func (m *Manager) writeAtomic(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pfp-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	writeErr := write(tmp)
	closeErr := tmp.Close()

	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode thumbnail: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// GetOutputDir returns the thumbnail directory
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetWrittenCount returns the number of distinct files written by this manager
func (m *Manager) GetWrittenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.written)
}
