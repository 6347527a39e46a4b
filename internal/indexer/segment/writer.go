package segment

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"
)

// MagicBytes identifies a packed index container ("SIDX").
const (
	MagicBytes    uint32 = 0x58444953
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
)

// FileExt is the extension of container files.
const FileExt = ".sidx"

// Header is the 64-byte header written at the start of every container.
// The payload is the JSON index object and follows the header directly.
type Header struct {
	Magic       uint32
	Version     uint32
	Checksum    uint32
	Crates      uint32
	Items       uint32
	CreatedAt   int64
	PayloadSize int64
}

func (h Header) marshal() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Checksum)
	binary.LittleEndian.PutUint32(buf[12:16], h.Crates)
	binary.LittleEndian.PutUint32(buf[16:20], h.Items)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(h.PayloadSize))
	return buf
}

func parseHeader(buf []byte) Header {
	return Header{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Version:     binary.LittleEndian.Uint32(buf[4:8]),
		Checksum:    binary.LittleEndian.Uint32(buf[8:12]),
		Crates:      binary.LittleEndian.Uint32(buf[12:16]),
		Items:       binary.LittleEndian.Uint32(buf[16:20]),
		CreatedAt:   int64(binary.LittleEndian.Uint64(buf[24:32])),
		PayloadSize: int64(binary.LittleEndian.Uint64(buf[32:40])),
	}
}

// Pack wraps a JSON payload in a container.
func Pack(payload []byte, crates, items int, createdAt time.Time) []byte {
	h := Header{
		Magic:       MagicBytes,
		Version:     FormatVersion,
		Checksum:    crc32.ChecksumIEEE(payload),
		Crates:      uint32(crates),
		Items:       uint32(items),
		CreatedAt:   createdAt.Unix(),
		PayloadSize: int64(len(payload)),
	}
	return append(h.marshal(), payload...)
}

// Writer stores containers in a data directory.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes containers into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates a new container file. It writes to a .tmp file
// first and renames on success, so readers never observe a partial file.
func (w *Writer) Write(payload []byte, crates, items int) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("cannot write empty index")
	}
	now := time.Now()
	name := fmt.Sprintf("idx_%d%s", now.UnixNano(), FileExt)
	finalPath := filepath.Join(w.dataDir, name)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating index directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp index file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(Pack(payload, crates, items, now)); err != nil {
		return "", fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing index file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming index file: %w", err)
	}
	return finalPath, nil
}

// Latest returns the newest container in dir, or "" when there is none.
// Names embed the creation time, so lexical order is age order.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "idx_*"+FileExt))
	if err != nil {
		return "", fmt.Errorf("listing index files: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}
	return latest, nil
}
