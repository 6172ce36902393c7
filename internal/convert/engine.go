// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"

	"github.com/pdiddy/wpconvert/internal/container"
	"github.com/pdiddy/wpconvert/pkg/types"
)

// New builds the converter selected by cfg.Engine.
func New(ctx context.Context, cfg types.Config) (Converter, error) {
	switch cfg.Engine {
	case types.EngineSoffice, "":
		return NewSofficeConverter(cfg.SofficeBin)
	case types.EngineContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainerConverter(ctx, rt, cfg.Image)
	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.Engine)
	}
}
