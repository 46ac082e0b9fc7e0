package main

import (
	"errors"
	"fmt"

	"github.com/annel0/bookit/internal/auth"
	"github.com/annel0/bookit/internal/routing"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>",
		Short: "Показать класс доступа пути",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := routing.Normalize(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tguarded=%v\n",
				p, routing.Classify(p), routing.DefaultMatcher().Matches(p))
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var (
		path      string
		userJSON  string
		onboarded bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Проверить политику доступа для запроса",
		Long: `Проверить политику доступа для запроса.

Примеры:
  # анонимный посетитель
  route-cli check --path /dashboard

  # администратор, не прошедший онбординг
  route-cli check --path /admin/dashboard --user '{"email":"admin@bookit.com","role":"admin","name":"Admin"}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var id *auth.Identity
			if userJSON != "" {
				var ok bool
				id, ok = parseUserFlag(userJSON)
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  запись user не читается, считаем посетителя анонимным")
				}
			}
			d := routing.Evaluate(routing.Request{
				Path:                routing.Normalize(path),
				Identity:            id,
				OnboardingCompleted: onboarded,
			})
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "/", "путь запроса")
	cmd.Flags().StringVar(&userJSON, "user", "", "запись пользователя в JSON (сырой или URL-кодированное значение cookie)")
	cmd.Flags().BoolVar(&onboarded, "onboarded", false, "cookie onboarding_completed равна \"true\"")
	return cmd
}

// parseUserFlag принимает как сырой JSON, так и значение cookie.
func parseUserFlag(raw string) (*auth.Identity, bool) {
	return auth.ParseIdentity(auth.JSONCodec{}, raw)
}

func newEncodeCmd() *cobra.Command {
	var (
		email, name, role, secret string
		signed                    bool
	)
	cmd := &cobra.Command{
		Use:   "encode-identity",
		Short: "Вывести значение cookie user для пользователя",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := auth.Identity{Email: email, Name: name, Role: auth.Role(role)}
			if err := id.Validate(); err != nil {
				return err
			}

			var codec auth.IdentityCodec = auth.JSONCodec{}
			if signed {
				key, err := auth.DecodeSecret(secret)
				if err != nil {
					return fmt.Errorf("не удалось декодировать секрет: %w", err)
				}
				if len(key) == 0 {
					return errors.New("--secret обязателен вместе с --signed")
				}
				c, err := auth.NewSignedCodec(key, 0)
				if err != nil {
					return err
				}
				codec = c
			}

			value, err := codec.Encode(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email пользователя")
	cmd.Flags().StringVar(&name, "name", "", "отображаемое имя")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleUser), "роль: user или admin")
	cmd.Flags().BoolVar(&signed, "signed", false, "выдать HS256-токен вместо JSON")
	cmd.Flags().StringVar(&secret, "secret", "", "base64-секрет подписи (как session.secret)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newGenSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-secret",
		Short: "Сгенерировать base64-секрет для session.secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), auth.GenerateSecureSecret())
			return nil
		},
	}
}
