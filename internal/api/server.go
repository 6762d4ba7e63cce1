package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"sheetmatch/internal/config"
	"sheetmatch/internal/state"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP API until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	handler := NewHandler(state.NewStore(), cfg)
	defer handler.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           NewRouter(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Strs("allowed_origins", cfg.Server.AllowedOrigins).
			Str("upload_dir", cfg.Server.UploadDir).
			Msg("Starting sheetmatch API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
