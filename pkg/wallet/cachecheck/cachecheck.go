package cachecheck

import (
	"bytes"
	"fmt"
	"os"

	"github.com/NpoolPlatform/go-service-framework/pkg/logger"
)

// The wallet cache stores the restore height right after this field marker.
// When the encoded height decodes to zero the server rescans from genesis,
// which looks to the user like an indefinite hang.
var restoreHeightMarker = []byte("m_refresh_from_block_height")

const (
	// zeroRunThreshold is the zero-byte run length after the marker that
	// indicates a reset restore height. Empirical; a healthy encoded height
	// never produces this many consecutive zeros.
	zeroRunThreshold = 15

	// scanPrefix bounds how much of the cache is read. The height field
	// sits near the head of the file.
	scanPrefix = 1 << 20
)

type Report struct {
	Healthy  bool
	Reason   string
	FileSize int64
}

// CheckBytes inspects a raw cache prefix. Pure; all I/O stays in Check.
func CheckBytes(data []byte, fileSize, ceilingBytes int64) *Report {
	if ceilingBytes > 0 && fileSize > ceilingBytes {
		return &Report{
			Healthy:  false,
			Reason:   fmt.Sprintf("cache size %v exceeds ceiling %v", fileSize, ceilingBytes),
			FileSize: fileSize,
		}
	}

	idx := bytes.Index(data, restoreHeightMarker)
	if idx < 0 {
		return &Report{Healthy: true, Reason: "no restore height marker", FileSize: fileSize}
	}

	zeros := 0
	for _, b := range data[idx+len(restoreHeightMarker):] {
		if b != 0 {
			break
		}
		zeros++
	}
	if zeros > zeroRunThreshold {
		return &Report{
			Healthy:  false,
			Reason:   "restore height reset to zero",
			FileSize: fileSize,
		}
	}
	return &Report{Healthy: true, FileSize: fileSize}
}

// Check reads the cache file for walletFile and reports its health. A missing
// cache is healthy: a fresh cache builds normally on first run.
func Check(walletFile string, ceilingMB int64) (*Report, error) {
	info, err := os.Stat(walletFile)
	if os.IsNotExist(err) {
		return &Report{Healthy: true, Reason: "no cache file"}, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := os.Open(walletFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prefix := make([]byte, scanPrefix)
	n, err := f.Read(prefix)
	if err != nil && n == 0 {
		return nil, err
	}

	return CheckBytes(prefix[:n], info.Size(), ceilingMB<<20), nil
}

// Repair deletes the corrupted cache so the server rebuilds it from the
// wallet's creation height. The key file must exist: without keys the cache
// is the only recovery path and must never be removed.
func Repair(walletFile string) error {
	keyFile := walletFile + ".keys"
	if _, err := os.Stat(keyFile); err != nil {
		return fmt.Errorf("key file %v missing, refuse to delete cache: %w", keyFile, err)
	}
	if err := os.Remove(walletFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	logger.Sugar().Warnw(
		"Repair",
		"WalletFile", walletFile,
		"State", "CacheDeleted",
	)
	return nil
}
