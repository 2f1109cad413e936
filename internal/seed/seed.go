// Package seed creates the demo accounts the back-office ships with.
package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// Account is a user to create when absent.
type Account struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// Users ensures every account exists. Existing users are left untouched, so
// a role changed through the API survives a restart.
func Users(ctx context.Context, store ports.UserStore, accounts []Account, log zerolog.Logger) error {
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed %s: hash password: %w", a.Email, err)
		}

		u, err := store.EnsureUser(ctx, domain.User{
			Email:        a.Email,
			Name:         a.Name,
			Role:         a.Role,
			PasswordHash: string(hash),
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		log.Debug().Str("user_id", u.ID).Str("email", u.Email).Str("role", string(u.Role)).Msg("user seeded")
	}
	return nil
}

// DemoAccounts returns the administrator and regular user pair.
func DemoAccounts(adminEmail, adminPassword, userEmail, userPassword string) []Account {
	return []Account{
		{Email: adminEmail, Name: "Administrador", Password: adminPassword, Role: domain.RoleAdmin},
		{Email: userEmail, Name: "Usuario", Password: userPassword, Role: domain.RoleUser},
	}
}
