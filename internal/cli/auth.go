package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd(st *state) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				u, err := prompt(cmd, in, "Username: ")
				if err != nil {
					return err
				}
				username = u
			}
			if password == "" {
				p, err := promptPassword(cmd, in, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}
			if username == "" || password == "" {
				return errors.New("username and password cannot be empty")
			}

			user, err := st.console.Session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			cmd.Printf("Logged in as %s.\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	cmd.Print(label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(cmd, in, label)
	}
	cmd.Print(label)
	b, err := term.ReadPassword(int(f.Fd()))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func logoutCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.console.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

// expirySkew treats tokens this close to their exp as already expired.
const expirySkew = time.Minute

func statusCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored access token and its expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := st.console.Store.AccessToken()
			if token == "" {
				cmd.Println("Not logged in.")
				return nil
			}
			cmd.Printf("Token:       %s\n", logger.TokenPreview(token))
			cmd.Printf("Store:       %s\n", st.cfg.TokenStore)
			exp, ok := access.TokenExpiry(token)
			if !ok {
				cmd.Println("Expires:     unknown (not a JWT)")
				return nil
			}
			now := time.Now()
			if access.Expired(token, now, expirySkew) {
				cmd.Printf("Expires:     %s (expired, the next request will refresh it)\n", exp.Format(time.RFC3339))
				return nil
			}
			cmd.Printf("Expires:     %s (in %s)\n", exp.Format(time.RFC3339), exp.Sub(now).Round(time.Minute))
			return nil
		},
	}
}

// validateTokenAtStartup logs whether the stored token is usable.
func validateTokenAtStartup(store access.Store, log zerolog.Logger) {
	token := store.AccessToken()
	if token == "" {
		log.Warn().Msg("⚠️  No access token stored, requests will fail until a session is set")
		return
	}

	log.Info().
		Str("token", logger.TokenPreview(token)).
		Msg("✅ Access token loaded successfully")

	exp, ok := access.TokenExpiry(token)
	if !ok {
		return
	}
	minutesUntilExpiry := int64(time.Until(exp) / time.Minute)
	switch {
	case minutesUntilExpiry <= 0:
		log.Warn().
			Int64("minutes_expired", -minutesUntilExpiry).
			Msg("⚠️  Token is already expired, will attempt refresh on first request")
	case minutesUntilExpiry <= 60:
		log.Warn().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("⚠️  Token expires soon, will refresh shortly")
	default:
		log.Info().
			Int64("minutes_until_expiry", minutesUntilExpiry).
			Msg("✅ Token is valid and not expiring soon")
	}
}
