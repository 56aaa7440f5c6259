package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/database"
	"github.com/casapps/cascontacts/src/internal/services"
	"github.com/casapps/cascontacts/src/internal/utils"
)

// readPassword is swapped out in tests
var readPassword = func(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	// Piped input: first line is the password
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}

	var (
		email     string
		firstName string
		lastName  string
		locale    string
		accountID string
		withTOTP  bool
		generate  bool
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user, and a new account unless --account is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			newLogger()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if err := database.MigrateDB(db); err != nil {
				return err
			}

			var password string
			if generate {
				if password, err = utils.GeneratePassword(16); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, "Password: ")
				password, err = readPassword(cmd.InOrStdin())
				fmt.Fprintln(out)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			input := &services.CreateUserInput{
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
				Locale:    locale,
			}
			if accountID != "" {
				id, err := uuid.Parse(accountID)
				if err != nil {
					return fmt.Errorf("invalid account id: %w", err)
				}
				input.AccountID = &id
			}

			users := services.NewUserService(db, cfg, auth.NewTOTPService(cfg.GetString("app.name")))
			user, err := users.CreateUser(cmd.Context(), input)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "✅ Created user %s\n", user.Email)
			fmt.Fprintf(out, "   user id:    %s\n", user.ID)
			fmt.Fprintf(out, "   account id: %s\n", user.AccountID)
			if generate {
				fmt.Fprintf(out, "   password:   %s\n", password)
			}

			if withTOTP {
				setup, err := users.EnableTwoFactor(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "🔐 Two-factor enabled. Add this to your authenticator:\n   %s\n", setup.URL)
			}
			return nil
		},
	}

	create.Flags().StringVar(&email, "email", "", "login email (required)")
	create.Flags().StringVar(&firstName, "first-name", "", "first name")
	create.Flags().StringVar(&lastName, "last-name", "", "last name")
	create.Flags().StringVar(&locale, "locale", "", "preferred language, e.g. fr (default app.locale)")
	create.Flags().StringVar(&accountID, "account", "", "existing account id to join")
	create.Flags().BoolVar(&withTOTP, "totp", false, "enable two-factor authentication")
	create.Flags().BoolVar(&generate, "generate-password", false, "generate a password instead of prompting")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}
