package engine

import (
	"context"
	"time"

	"github.com/0x5844/physics-2d/internal/log"
)

func (e *Engine) reportStats(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.logStats(e.Stats())

		case <-ctx.Done():
			return nil
		}
	}
}

func (e *Engine) logStats(st Stats) {
	fields := []log.Field{
		log.Float64("fps", st.FPS),
		log.Int64("bodies", st.World.Bodies),
		log.Int64("awake", st.World.Awake),
		log.Int64("collisions", st.World.Resolved),
	}
	if e.opts.Verbose {
		fields = append(fields,
			log.Int64("sleeping", st.World.Sleeping),
			log.Int64("pairs", st.World.Pairs),
			log.Int64("manifolds", st.World.Manifolds),
			log.Float64("frame_avg_ms", st.AvgFrameTime),
			log.Float64("frame_min_ms", st.MinFrameTime),
			log.Float64("frame_max_ms", st.MaxFrameTime),
			log.Float64("sim_time", st.SimTime))
	}
	e.logger.Info("engine stats", fields...)
}
