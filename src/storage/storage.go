package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"playdeck/src/metrics"
)

// ErrInvalidName is returned when an upload does not carry a usable filename.
var ErrInvalidName = errors.New("invalid filename")

// Dir stores uploaded media as flat files in a single directory.
//
// Files are named after the original upload. If the name is taken, "_1",
// "_2", etc. is inserted before the extension until a free name is found.
type Dir struct {
	directory string
}

// Open prepares the storage directory, creating it if it does not exist.
func Open(directory string) (*Dir, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("could not create upload dir: %w", err)
	}
	return &Dir{directory: directory}, nil
}

// Save writes the contents of r under the specified filename and returns the
// path of the stored file.
//
// Only the base name of the filename is used.
func (d *Dir) Save(filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filepath.ToSlash(filename)))
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	// The directory may have been removed while running.
	if err := os.MkdirAll(d.directory, 0755); err != nil {
		return "", err
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	dest := filepath.Join(d.directory, name)
	var file *os.File
	for i := 1; ; i++ {
		var err error
		file, err = os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			break
		} else if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		dest = filepath.Join(d.directory, fmt.Sprintf("%s_%d%s", base, i, ext))
	}

	n, err := io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("could not store %q: %w", name, err)
	}

	log.WithField("path", dest).Debugf("Stored %d bytes", n)
	metrics.UploadsTotal.Inc()
	metrics.UploadBytesTotal.Add(float64(n))
	return dest, nil
}

// ReadFile reads the whole stored file at path.
//
// If the file does not exist, the error satisfies errors.Is(err, fs.ErrNotExist).
func (d *Dir) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Open opens the stored file with the specified base name for reading.
func (d *Dir) Open(name string) (*os.File, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return os.Open(filepath.Join(d.directory, name))
}

// Exists reports whether a file exists at path.
func (d *Dir) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Path returns the directory files are stored in.
func (d *Dir) Path() string {
	return d.directory
}

func (d *Dir) String() string {
	return fmt.Sprintf("storage.Dir{%s}", d.directory)
}
