// Command setup-admin creates a verified administrator account.
//
//	setup-admin --username root --email root@example.com
//
// The password is read from the terminal, or from the first line of stdin
// when stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lost_and_found/internal/config"
	"lost_and_found/internal/models"
	"lost_and_found/internal/repository"
	"lost_and_found/internal/repository/db"
	"lost_and_found/internal/security"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const minPasswordLen = 6

func main() {
	var (
		username  = pflag.StringP("username", "u", "", "admin username")
		email     = pflag.StringP("email", "e", "", "admin email")
		configDir = pflag.StringP("config", "c", "configs", "directory holding config.yml")
	)
	pflag.Parse()

	if err := run(*configDir, *username, *email); err != nil {
		fmt.Fprintln(os.Stderr, "setup-admin:", err)
		os.Exit(1)
	}
}

func run(configDir, username, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return errors.New("--username and --email are required")
	}
	if !strings.Contains(email, "@") {
		return errors.New("invalid email address")
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	password, err := readPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := db.InitDB(ctx, db.Options{
		Driver:       cfg.DB.Driver,
		Path:         cfg.DB.Path,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	hasher, err := security.NewBcryptHasher(cfg.Auth.BcryptCost, 1)
	if err != nil {
		return err
	}
	repos := repository.NewRepository(conn, repository.Dialect(cfg.DB.Driver))

	id, err := createAdmin(ctx, repos.Users, hasher, username, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("admin %q created (id %s)\n", username, id)
	return nil
}

func createAdmin(ctx context.Context, users repository.UserDirectory, hasher *security.BcryptHasher, username, email, password string) (string, error) {
	hash, err := hasher.Hash(ctx, password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u, err := users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsVerified:   true,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return "", fmt.Errorf("username %q already exists", username)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return "", fmt.Errorf("email %q already registered", email)
	case err != nil:
		return "", fmt.Errorf("create admin: %w", err)
	}
	return u.ID, nil
}

// readPassword prompts twice on a terminal; otherwise it reads one line from in.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return checkPassword(strings.TrimRight(line, "\r\n"))
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(prompt, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return checkPassword(string(first))
}

func checkPassword(p string) (string, error) {
	if len(p) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if len(p) > security.MaxPasswordBytes {
		return "", fmt.Errorf("password must be at most %d bytes", security.MaxPasswordBytes)
	}
	return p, nil
}
