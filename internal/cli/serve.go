package cli

import (
	"context"
	"net/http"

	"github.com/dvcrn/console-client/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd(st *state) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authenticated gateway in front of the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = st.cfg.Gateway.Port
			}

			srv := st.prepareGateway(cmd.Context())

			st.log.Info().Str("port", port).Str("backend", st.cfg.APIURL).Msg("Starting gateway")
			return http.ListenAndServe(":"+port, srv)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (defaults to gateway.port)")
	return cmd
}

// prepareGateway checks the stored token and, when there is one, loads the
// user and access codes so the session counts as checked before the first
// forwarded request.
func (st *state) prepareGateway(ctx context.Context) *server.Server {
	validateTokenAtStartup(st.console.Store, st.log)

	if st.console.Store.AccessToken() != "" {
		user, err := st.console.Session.Refresh(ctx)
		if err != nil {
			st.log.Warn().Err(err).Msg("⚠️  Could not load the session user at startup")
		} else {
			st.log.Info().Str("username", user.Username).Msg("✅ Session user loaded")
		}
	}

	return server.New(st.log, st.console, server.WithAdminKey(st.cfg.Gateway.AdminAPIKey))
}
