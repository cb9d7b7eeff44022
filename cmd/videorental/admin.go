package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
	"github.com/tbourn/go-video-rental/internal/security"
	"github.com/tbourn/go-video-rental/internal/services"
	"github.com/tbourn/go-video-rental/internal/sysutil"
)

func newAdminCmd(c *cli) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator identities",
	}
	admin.AddCommand(newAdminCreateCmd(c))
	return admin
}

func newAdminCreateCmd(c *cli) *cobra.Command {
	var in services.RegisterInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an identity with the administrator role",
		Long: "Register an identity with the administrator role. The password is read " +
			"from the terminal without echo, or as the first line of stdin when piped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Email = strings.TrimSpace(sysutil.FirstNonEmpty(in.Email, os.Getenv("ADMIN_EMAIL")))
			if in.Email == "" {
				return errors.New("--email (or ADMIN_EMAIL) is required")
			}
			pw, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			in.Password = pw

			ctx := cmd.Context()
			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close(db) }()

			issuer, err := security.NewJWTIssuer(c.cfg.Auth.JWTSecret, c.cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			svc := services.NewAuthService(db, security.NewBcryptHasher(c.cfg.Auth.BcryptCost), issuer, lock.NewLocal())
			u, err := svc.CreateAdministrator(ctx, in)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", u.ID).Msg("administrator created")
			fmt.Fprintf(cmd.OutOrStdout(), "administrator %s created (id %s)\n", u.Email, u.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "login email (default $ADMIN_EMAIL)")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.Address, "address", "", "postal address")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number")
	for _, name := range []string{"first-name", "last-name", "address", "phone"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// readPassword prompts without echo when in is a terminal and otherwise
// reads the first line of in.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}
