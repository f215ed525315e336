// Command obliquemerc projects the configured latitude/longitude grid with an
// oblique Mercator projection and writes the wireframe to a PNG file.
//
// Usage: obliquemerc [output.png]
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/obliquemerc/internal/adapters/render"
	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/core/usecases"
	"github.com/samirrijal/obliquemerc/internal/pkg/config"
	"github.com/samirrijal/obliquemerc/internal/pkg/logging"
	"github.com/samirrijal/obliquemerc/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("obliquemerc")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	output := cfg.Projection.Output
	if len(os.Args) > 1 {
		output = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	svc := usecases.NewProjectionService(
		usecases.ProjectionOptions{
			ValidateReference: cfg.Projection.Validate,
			Parallel:          cfg.Projection.Parallel,
		},
		nil, nil, nil,
		render.NewPNG(cfg.Render.Width, cfg.Render.Height, cfg.Render.Padding, cfg.Render.LineWidth),
		render.GeoJSON{},
	)

	sc := cfg.Projection.Scenario()
	pole, err := svc.Pole(ctx, sc.Reference)
	if err != nil {
		log.Fatalf("pole: %v", err)
	}
	slog.Info("pole solved", "lat", pole.Lat, "lon", pole.Lon)

	if err := write(ctx, svc, sc, domain.FormatPNG, output); err != nil {
		log.Fatalf("%v", err)
	}
	if path := cfg.Projection.GeoJSONOutput; path != "" {
		if err := write(ctx, svc, sc, domain.FormatGeoJSON, path); err != nil {
			log.Fatalf("%v", err)
		}
	}
}

func write(ctx context.Context, svc *usecases.ProjectionService, sc domain.Scenario, format domain.Format, path string) error {
	data, err := svc.Render(ctx, sc, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	slog.Info("output written", "format", format, "path", path, "bytes", len(data))
	return nil
}
