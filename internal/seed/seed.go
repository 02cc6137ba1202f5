// Package seed creates the admin and organizer accounts that cannot sign up
// through the API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"campusevents/internal/domain"

	"gopkg.in/yaml.v3"
)

// Account is one seeded login. Name and the organizer fields are ignored for admins.
type Account struct {
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Name         string `yaml:"name"`
	Category     string `yaml:"category"`
	Description  string `yaml:"description"`
	ContactEmail string `yaml:"contact_email"`
}

// File is the seed document.
type File struct {
	Admins     []Account `yaml:"admins"`
	Organizers []Account `yaml:"organizers"`
}

// Result counts what Run did.
type Result struct {
	Created int
	Skipped int
}

// LoadFile reads and validates a seed document.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every account has credentials and every organizer a name.
func (f *File) Validate() error {
	var errs []error
	check := func(kind string, i int, a Account) {
		if strings.TrimSpace(a.Email) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: email is required", kind, i))
		}
		if len(a.Password) < domain.MinPasswordLength {
			errs = append(errs, fmt.Errorf("%s[%d]: password must be at least %d characters", kind, i, domain.MinPasswordLength))
		}
	}
	for i, a := range f.Admins {
		check("admins", i, a)
	}
	for i, a := range f.Organizers {
		check("organizers", i, a)
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("organizers[%d]: name is required", i))
		}
	}
	return errors.Join(errs...)
}

// Seeder writes seed accounts through the user repository.
type Seeder struct {
	Users  domain.UserRepository
	Hasher domain.PasswordHasher
	Now    func() time.Time
}

// Run creates every account whose email is not taken yet. Existing accounts
// are left untouched so the tool can be re-run.
func (s *Seeder) Run(ctx context.Context, f *File) (Result, error) {
	var res Result
	now := s.Now().UTC()
	for _, a := range f.Admins {
		u := &domain.User{
			Email:     normalizeEmail(a.Email),
			Role:      domain.RoleAdmin,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.create(ctx, u, a.Password, &res); err != nil {
			return res, err
		}
	}
	for _, a := range f.Organizers {
		u := domain.NewOrganizer(normalizeEmail(a.Email), a.Name, a.Category, now)
		u.Description = a.Description
		u.ContactEmail = a.ContactEmail
		if err := s.create(ctx, u, a.Password, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Seeder) create(ctx context.Context, u *domain.User, password string, res *Result) error {
	_, err := s.Users.GetByEmail(ctx, u.Email)
	switch {
	case err == nil:
		res.Skipped++
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("lookup %s: %w", u.Email, err)
	}

	salt, err := s.Hasher.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.Hasher.Hash(salt, password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Salt, u.PasswordHash = salt, hash
	if err := s.Users.Create(ctx, u); err != nil {
		return fmt.Errorf("create %s: %w", u.Email, err)
	}
	res.Created++
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
