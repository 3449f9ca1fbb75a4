package wallet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dotside-studios/davi-tap-lab/buildinfo"
	"github.com/dotside-studios/davi-tap-lab/wallet/store"
)

// DefaultMaxPassSize caps downloaded pass files.
const DefaultMaxPassSize = 10 << 20

// LocalConfig configures a LocalWallet.
type LocalConfig struct {
	Platform Platform

	// HTTPClient fetches pass files. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// MaxPassSize caps downloaded pass files; defaults to DefaultMaxPassSize.
	MaxPassSize int64
}

// LocalWallet is a PassManager that keeps passes in a local database. Which
// calls are available follows the configured platform.
type LocalWallet struct {
	platform Platform
	client   *http.Client
	maxSize  int64
	passes   *store.PassStore
	logger   *log.Logger
}

var _ PassManager = (*LocalWallet)(nil)

func NewLocalWallet(cfg LocalConfig, passes *store.PassStore) *LocalWallet {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MaxPassSize <= 0 {
		cfg.MaxPassSize = DefaultMaxPassSize
	}
	if cfg.Platform == "" {
		cfg.Platform = PlatformIOS
	}
	return &LocalWallet{
		platform: cfg.Platform,
		client:   cfg.HTTPClient,
		maxSize:  cfg.MaxPassSize,
		passes:   passes,
		logger:   log.New(os.Stderr, "[wallet] ", log.LstdFlags),
	}
}

// Platform returns the emulated platform.
func (w *LocalWallet) Platform() Platform {
	return w.platform
}

// CanAddPasses reports whether the pass database is usable.
func (w *LocalWallet) CanAddPasses(ctx context.Context) (Result, error) {
	if _, err := w.passes.Count(ctx); err != nil {
		w.logger.Printf("Pass store unavailable: %v", err)
		return BoolResult(false), nil
	}
	return BoolResult(true), nil
}

// AddPassFromURL downloads a .pkpass file and stores it. The result is true
// when the pass was new and false when it replaced a stored copy.
func (w *LocalWallet) AddPassFromURL(ctx context.Context, url string) (Result, error) {
	data, err := w.fetch(ctx, url)
	if err != nil {
		return Result{}, err
	}

	info, err := ReadPKPass(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, err
	}

	inserted, err := w.passes.Put(ctx, store.Pass{
		PassTypeIdentifier: info.PassTypeIdentifier,
		SerialNumber:       info.SerialNumber,
		OrganizationName:   info.OrganizationName,
		Description:        info.Description,
		SourceURL:          url,
		Data:               data,
	})
	if err != nil {
		return Result{}, err
	}
	w.logger.Printf("Stored pass %s/%s (new=%v)", info.PassTypeIdentifier, info.SerialNumber, inserted)
	return BoolResult(inserted), nil
}

func (w *LocalWallet) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build pass request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/vnd.apple.pkpass, */*")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch pass: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, w.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read pass body: %w", err)
	}
	if int64(len(data)) > w.maxSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidPass, w.maxSize)
	}
	return data, nil
}

func (w *LocalWallet) HasPass(ctx context.Context, passTypeIdentifier, serialNumber string) (Result, error) {
	if !w.platform.Supports(ActionHasPass) {
		return Result{}, ErrUnsupported
	}
	has, err := w.passes.Has(ctx, passTypeIdentifier, serialNumber)
	if err != nil {
		return Result{}, err
	}
	return BoolResult(has), nil
}

// RemovePass removes every pass with the type identifier. The result is true
// when at least one pass was removed.
func (w *LocalWallet) RemovePass(ctx context.Context, passTypeIdentifier string) (Result, error) {
	if !w.platform.Supports(ActionRemovePass) {
		return Result{}, ErrUnsupported
	}
	n, err := w.passes.DeleteByType(ctx, passTypeIdentifier)
	if err != nil {
		return Result{}, err
	}
	w.logger.Printf("Removed %d pass(es) of type %s", n, passTypeIdentifier)
	return BoolResult(n > 0), nil
}

// ViewInWallet returns the stored passes with the type identifier.
func (w *LocalWallet) ViewInWallet(ctx context.Context, passTypeIdentifier string) (Result, error) {
	if !w.platform.Supports(ActionViewPass) {
		return Result{}, ErrUnsupported
	}
	passes, err := w.passes.ListByType(ctx, passTypeIdentifier)
	if err != nil {
		return Result{}, err
	}
	if len(passes) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrPassNotFound, passTypeIdentifier)
	}
	return ObjectResult(passes), nil
}
