// Command idpbridge traduce operaciones de autenticación ({op, payload}) a
// llamadas a Cognito y devuelve un sobre JSON estable.
//
// Modo one-shot (default): lee un sobre de stdin y escribe uno en stdout.
//
//	echo '{"op":"forgot_password","payload":{"email":"a@b.com"}}' | idpbridge
//
// Subcomandos: serve (HTTP de larga vida) y claims (decodifica un token).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/idpbridge/internal/bridge"
	"github.com/dropDatabas3/idpbridge/internal/config"
	"github.com/dropDatabas3/idpbridge/internal/idp"
	"github.com/dropDatabas3/idpbridge/internal/idp/cognito"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
)

const defaultEnvFile = ".env"

type globalFlags struct {
	configPath string
	envFile    string
}

func main() {
	code := execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	_ = logger.Sync()
	os.Exit(code)
}

// execute corre el CLI y devuelve el código de salida del proceso.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	exit := 0
	root := newRootCmd(stdin, stdout, &exit)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if exit == 0 {
			exit = 1
		}
	}
	return exit
}

func newRootCmd(stdin io.Reader, stdout io.Writer, exit *int) *cobra.Command {
	g := &globalFlags{
		configPath: envOr("IDPBRIDGE_CONFIG", ""),
		envFile:    envOr("IDPBRIDGE_ENV_FILE", defaultEnvFile),
	}

	root := &cobra.Command{
		Use:           "idpbridge",
		Short:         "Bridge stdin/stdout hacia Cognito User Pools",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := g.load()
			if err != nil {
				// stdout sigue siendo un único objeto JSON
				*exit = bridge.Abort(ctx, stdout, bridge.ErrInvalidConfig.WithCause(err))
				return nil
			}
			*exit = bridge.Run(ctx, stdin, stdout, bridge.RunOptions{
				Config:    cfg,
				NewClient: cognitoClient,
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", g.configPath, "Archivo YAML de configuración (env IDPBRIDGE_CONFIG)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", g.envFile, "Archivo .env a cargar si existe (env IDPBRIDGE_ENV_FILE)")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newClaimsCmd(stdin, stdout))
	return root
}

// load carga .env (opcional), la configuración y el logger. Los logs van
// siempre a stderr.
func (g *globalFlags) load() (*config.Config, error) {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil {
			// el .env por defecto es opcional; uno pedido explícitamente no
			if !(g.envFile == defaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
				return nil, fmt.Errorf("load env file %s: %w", g.envFile, err)
			}
		}
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "idpbridge",
	})
	return cfg, nil
}

func cognitoClient(ctx context.Context, p config.Provider) (idp.Client, error) {
	c, err := cognito.New(ctx, cognito.Config{
		Region:       p.Region,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     p.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
