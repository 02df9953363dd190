package mode

import (
	"context"

	"github.com/ayusman/carnival/internal/audio"
)

// Handles are the resources a successful Setup acquired.
type Handles struct {
	Engine audio.Engine
	// Degraded is set when audio failed to start and Engine is silent.
	Degraded bool
}

// Release disposes everything in h. Used for setup results that arrive
// after the mode they were meant for is gone.
func (h *Handles) Release() {
	if h != nil && h.Engine != nil {
		h.Engine.Dispose()
	}
}

// Setup runs the staged initialisation for a mode: acquire the landmark
// source, then start audio. A source failure is returned as a
// *SetupError. An audio failure is logged and replaced by a silent engine.
func Setup(ctx context.Context, env Env, needsSource bool) (*Handles, error) {
	log := env.Log.With().Str("component", "setup").Logger()

	if needsSource && env.Source != nil {
		if err := env.Source.Open(ctx); err != nil {
			return nil, newSetupError(err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := &Handles{Engine: audio.Silent{}}
	if env.Audio == nil {
		return h, nil
	}

	engine, err := env.Audio()
	if err != nil {
		log.Warn().Err(err).Msg("audio unavailable, continuing without sound")
		h.Degraded = true
		return h, nil
	}
	h.Engine = engine
	return h, nil
}
