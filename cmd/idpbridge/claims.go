package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idpbridge/internal/claims"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
	"github.com/dropDatabas3/idpbridge/internal/util"
)

// newClaimsCmd decodifica un token SIN verificarlo. Solo para diagnóstico.
func newClaimsCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var identity bool

	cmd := &cobra.Command{
		Use:   "claims [token]",
		Short: "Muestra los claims (no verificados) de un token; lee stdin si no hay argumento",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tok string
			if len(args) == 1 {
				tok = args[0]
			} else {
				b, err := io.ReadAll(stdin)
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				tok = string(b)
			}
			tok = strings.TrimPrefix(strings.TrimSpace(tok), "Bearer ")

			c := claims.Extract(tok)
			logger.Named("claims").Debug("token decoded",
				zap.String("token", util.MaskToken(tok)),
				zap.Int("claims", len(c)),
			)
			var v any = c
			if identity {
				v = c.Identity()
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().BoolVar(&identity, "identity", false, "Solo los claims reconocidos (sub, email, email_verified, ...)")
	return cmd
}
