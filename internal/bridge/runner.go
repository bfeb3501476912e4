package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idpbridge/internal/config"
	"github.com/dropDatabas3/idpbridge/internal/idp"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
)

// Códigos de salida del modo one-shot.
const (
	// ExitOK: se produjo un sobre para un request parseado (Success o Failure).
	ExitOK = 0
	// ExitSetup: falla previa al sobre (JSON inválido, configuración, cliente).
	ExitSetup = 2
)

// ClientFactory construye el cliente del proveedor a partir de la
// configuración ya validada.
type ClientFactory func(ctx context.Context, p config.Provider) (idp.Client, error)

type RunOptions struct {
	Config    *config.Config
	NewClient ClientFactory
	Observer  Observer
}

// Run implementa el contrato stdin -> stdout: lee un sobre hasta EOF, escribe
// exactamente un objeto JSON y devuelve el código de salida. Los logs van a
// stderr vía logger; nunca se escribe otra cosa en out.
func Run(ctx context.Context, in io.Reader, out io.Writer, opts RunOptions) int {
	ctx, log := logger.With(ctx,
		logger.Layer("runner"),
		logger.InvocationID(uuid.NewString()),
	)

	raw, err := io.ReadAll(in)
	if err != nil {
		return Abort(ctx, out, ErrBadJSON.WithCause(fmt.Errorf("read stdin: %w", err)))
	}
	req, perr := ParseRequest(raw)
	if perr != nil {
		return Abort(ctx, out, perr)
	}

	cfg := opts.Config
	if cfg == nil {
		return Abort(ctx, out, ErrInvalidConfig.WithCause(errors.New("no configuration")))
	}
	if err := cfg.Validate(); err != nil {
		return Abort(ctx, out, ConfigError(err))
	}
	log = log.With(logger.Region(cfg.Provider.Region))
	ctx = logger.ToContext(ctx, log)

	if opts.NewClient == nil {
		return Abort(ctx, out, ErrProviderUnavailable.WithCause(errors.New("no client factory")))
	}
	client, err := opts.NewClient(ctx, cfg.Provider)
	if err != nil {
		return Abort(ctx, out, ErrProviderUnavailable.WithCause(err))
	}

	var dopts []Option
	if opts.Observer != nil {
		dopts = append(dopts, WithObserver(opts.Observer))
	}
	resp := New(client, dopts...).Handle(ctx, req)
	if err := write(out, resp); err != nil {
		log.Error("write response failed", logger.Err(err))
		return ExitSetup
	}
	return ExitOK
}

// Abort escribe una Failure previa al sobre y devuelve ExitSetup.
func Abort(ctx context.Context, out io.Writer, e *Error) int {
	log := logger.From(ctx)
	log.Error("invocation aborted",
		logger.ErrorCode(e.Code),
		logger.Status(e.Status),
		logger.Err(e),
	)
	if err := write(out, Failure(e)); err != nil {
		log.Error("write response failed", logger.Err(err))
	}
	return ExitSetup
}

func write(out io.Writer, resp Response) error {
	return json.NewEncoder(out).Encode(resp)
}
