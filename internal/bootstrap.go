package internal

import (
	"github.com/lowrydr/tapline/internal/config"
	"github.com/lowrydr/tapline/internal/fetch"
	"github.com/lowrydr/tapline/internal/globalconfig"
	"github.com/lowrydr/tapline/internal/pipeline"
	"github.com/lowrydr/tapline/internal/release"
	"github.com/lowrydr/tapline/internal/service"
	"github.com/lowrydr/tapline/internal/store"
)

// newPipeline wires the whole stack from the persistent config: store,
// release cache, client, fetcher.
func newPipeline() (*pipeline.Pipeline, config.Config, error) {
	pc, err := globalconfig.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg := pc.Runtime()

	storeDir := pc.StoreDir
	if storeDir == "" {
		storeDir, err = globalconfig.DefaultStoreDir()
		if err != nil {
			return nil, config.Config{}, err
		}
	}

	st, err := store.New(storeDir, cfg.Binary, cfg.KeepVersions)
	if err != nil {
		return nil, config.Config{}, err
	}

	cache, err := release.NewCache(st.CacheDir(), cfg.CacheTTL)
	if err != nil {
		return nil, config.Config{}, err
	}

	httpClient := service.NewHTTPClient(cfg.HTTPTimeout)
	client := release.NewClient(cfg, httpClient, cache)
	fetcher := fetch.New(httpClient, cfg.DownloadRetries)

	return pipeline.New(cfg, client, fetcher, st, nil), cfg, nil
}

// loadStore opens the version store on its own, for commands that do not
// need the full pipeline.
func loadStore() (*store.Store, error) {
	pc, err := globalconfig.Load()
	if err != nil {
		return nil, err
	}
	cfg := pc.Runtime()

	storeDir := pc.StoreDir
	if storeDir == "" {
		storeDir, err = globalconfig.DefaultStoreDir()
		if err != nil {
			return nil, err
		}
	}
	return store.New(storeDir, cfg.Binary, cfg.KeepVersions)
}
