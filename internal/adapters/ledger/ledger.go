package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitfarm-bot/bitfarm/internal/domain"
	"github.com/bitfarm-bot/bitfarm/internal/ports"
)

const (
	ledgerFileMode  = 0o600
	ledgerDirMode   = 0o700
	tempFilePattern = ".vouchers-*.json.tmp"
)

// File is the append-only voucher ledger: a JSON array on disk.
// Appends from concurrent sessions are serialized with a mutex and made
// durable with a temp-file rename.
type File struct {
	path string
	mu   sync.Mutex
}

var _ ports.VoucherLedger = (*File)(nil)

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve ledger path: %w", err)
	}
	return &File{path: filepath.Clean(absPath)}, nil
}

func (f *File) Append(ctx context.Context, voucher domain.Voucher) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	vouchers, err := f.read()
	if err != nil {
		return err
	}
	vouchers = append(vouchers, voucher)

	return f.write(vouchers)
}

func (f *File) List(ctx context.Context) ([]domain.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.read()
}

func (f *File) read() ([]domain.Voucher, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	var vouchers []domain.Voucher
	if err := json.Unmarshal(data, &vouchers); err != nil {
		return nil, fmt.Errorf("decode ledger file: %w", err)
	}
	return vouchers, nil
}

func (f *File) write(vouchers []domain.Voucher) error {
	if err := os.MkdirAll(filepath.Dir(f.path), ledgerDirMode); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(vouchers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(f.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tempFile.Chmod(ledgerFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp ledger file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp ledger file: %w", err)
	}

	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	cleanup = false

	return nil
}
