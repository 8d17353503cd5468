package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/auth"
	"github.com/frahmantamala/employee-directory/internal/employee"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	seedEmail    = "demo@mail.com"
	seedPassword = "password"
)

var seedEmployees = []employee.CreateEmployeeDTO{
	{FullName: "Fadhil Rahman", Position: "Backend Engineer", Department: "Engineering", Email: "fadhil@mail.com"},
	{FullName: "Padil Pratama", Position: "Engineering Manager", Department: "Engineering", Email: "padil@mail.com"},
	{FullName: "Sinta Dewi", Position: "Account Executive", Department: "Sales", Email: "sinta@mail.com"},
	{FullName: "Rina Putri", Position: "Growth Marketer", Department: "Marketing", Email: "rina@mail.com"},
	{FullName: "Budi Santoso", Position: "HR Generalist", Department: "HR", Email: "budi@mail.com"},
	{FullName: "Andi Wijaya", Position: "Financial Analyst", Department: "Finance", Email: "andi@mail.com"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo account and sample employees for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.DB.Close()

		if clearData {
			if err := clearSeedData(ctx, deps); err != nil {
				return err
			}
		}

		// The account and the employees are independent; employees stay
		// sequential so listing order matches the seed order.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return seedAccount(gctx, deps) })
		g.Go(func() error { return seedDirectory(gctx, deps) })
		if err := g.Wait(); err != nil {
			return err
		}
		deps.Events.Wait()

		fmt.Println("Seeding completed!")
		return nil
	},
}

func seedAccount(ctx context.Context, deps *Dependencies) error {
	_, err := deps.AuthService.Register(ctx, auth.RegisterDTO{Email: seedEmail, Password: seedPassword})
	switch {
	case err == nil:
		fmt.Println("Seeded demo account:", seedEmail)
	case errors.Is(err, internal.ErrDuplicateAccount):
		fmt.Println("demo account already exists:", seedEmail)
	default:
		return fmt.Errorf("failed to seed demo account: %w", err)
	}
	return nil
}

func seedDirectory(ctx context.Context, deps *Dependencies) error {
	for _, dto := range seedEmployees {
		_, err := deps.Employees.Create(ctx, dto, nil)
		switch {
		case err == nil:
			fmt.Println("Seeded employee:", dto.Email)
		case errors.Is(err, internal.ErrDuplicateEmployee):
			fmt.Println("employee already exists:", dto.Email)
		default:
			return fmt.Errorf("failed to seed employee %s: %w", dto.Email, err)
		}
	}
	return nil
}

func clearSeedData(ctx context.Context, deps *Dependencies) error {
	tx, err := deps.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM employees", "DELETE FROM accounts"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	fmt.Println("Cleared existing employees and accounts")
	return nil
}
