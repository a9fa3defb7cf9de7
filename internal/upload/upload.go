package upload

import (
	"context"

	"github.com/redmonkez12/places-api/internal/config"
)

// New returns the Store selected by cfg.Driver.
func New(ctx context.Context, cfg config.UploadConfig) (Store, error) {
	if cfg.Driver == config.UploadDriverS3 {
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := NewLocalStore(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}
