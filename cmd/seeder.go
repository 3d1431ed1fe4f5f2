package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/course-payments/internal/auth"
	"github.com/frahmantamala/course-payments/internal/paymentrequest"
	prPostgres "github.com/frahmantamala/course-payments/internal/paymentrequest/postgres"
)

const seedPassword = "password"

var clearData bool

type seedUser struct {
	Name  string
	Email string
	Role  string
}

var seedUsers = []seedUser{
	{Name: "Padil Admin", Email: "padil@mail.com", Role: auth.RoleAdmin},
	{Name: "Fadhil", Email: "fadhil@mail.com", Role: auth.RoleStudent},
	{Name: "Siti Rahma", Email: "siti@mail.com", Role: auth.RoleStudent},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed both databases with sample data",
	Long:  `Seed the users database with an admin and students, and the payments database with pending requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		usersDB, err := initDB(cfg.UsersDatabase)
		if err != nil {
			return fmt.Errorf("failed to init users db: %w", err)
		}
		defer usersDB.Close()

		paymentsDB, err := initDB(cfg.PaymentsDatabase)
		if err != nil {
			return fmt.Errorf("failed to init payments db: %w", err)
		}
		defer paymentsDB.Close()

		gormDB, err := initGorm(paymentsDB)
		if err != nil {
			return err
		}

		if clearData {
			if err := clearSeedData(ctx, usersDB, gormDB); err != nil {
				return err
			}
		}

		ids, err := seedUserRows(ctx, usersDB, cfg.Security.BCryptCost)
		if err != nil {
			return err
		}
		return seedRequests(ctx, gormDB, ids)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

func clearSeedData(ctx context.Context, usersDB *sqlx.DB, gormDB *gorm.DB) error {
	if err := gormDB.WithContext(ctx).Exec("TRUNCATE access_grants, payment_requests RESTART IDENTITY").Error; err != nil {
		return fmt.Errorf("failed to clear payments data: %w", err)
	}
	if _, err := usersDB.ExecContext(ctx, "TRUNCATE users RESTART IDENTITY"); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	fmt.Println("Cleared existing data")
	return nil
}

// seedUserRows inserts the sample users that do not exist yet and returns every seeded id by email.
func seedUserRows(ctx context.Context, usersDB *sqlx.DB, cost int) (map[string]int64, error) {
	hash, err := auth.HashPassword(seedPassword, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	ids := make(map[string]int64, len(seedUsers))
	for _, u := range seedUsers {
		var id int64
		err := usersDB.GetContext(ctx, &id, `
			INSERT INTO users (name, email, password_hash, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, now(), now())
			ON CONFLICT ((LOWER(email))) DO UPDATE SET updated_at = users.updated_at
			RETURNING id`, u.Name, u.Email, hash, u.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		ids[u.Email] = id
		fmt.Println("Seeded user:", u.Email, "role:", u.Role)
	}
	return ids, nil
}

func seedRequests(ctx context.Context, gormDB *gorm.DB, ids map[string]int64) error {
	repo := prPostgres.NewPaymentRequestRepository(gormDB)

	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		fmt.Println("payment requests already present; skipping")
		return nil
	}

	requests := []*paymentrequest.PaymentRequest{
		{UserID: ids["fadhil@mail.com"], CollectionID: 1, ScreenshotPath: "uploads/payments/fadhil-1.png"},
		{UserID: ids["siti@mail.com"], CollectionID: 1, ScreenshotPath: "uploads/payments/siti-1.png"},
		{UserID: ids["siti@mail.com"], CollectionID: 2, ScreenshotPath: "uploads/payments/siti-2.png"},
	}
	for _, req := range requests {
		if err := repo.Create(ctx, req); err != nil {
			return fmt.Errorf("failed to seed payment request: %w", err)
		}
		fmt.Println("Seeded pending payment request:", req.ID)
	}
	return nil
}
