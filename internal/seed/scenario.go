package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"peeps/internal/auth"
	"peeps/internal/middleware"
	"peeps/internal/models"
	"peeps/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Scenario is a hand-written data set, usually loaded from YAML:
//
//	users:
//	  - {username: alice, name: Alice, email: alice@example.com, password: wonderland}
//	  - {username: bob, name: Bob, email: bob@example.com, password: builder1}
//	follows:
//	  - {follower: alice, followee: bob}
//	peeps:
//	  - {author: bob, content: hello, ago: 1h}
type Scenario struct {
	Users   []ScenarioUser   `yaml:"users"`
	Follows []ScenarioFollow `yaml:"follows"`
	Peeps   []ScenarioPeep   `yaml:"peeps"`
}

// ScenarioUser is one account. Password is stored hashed.
type ScenarioUser struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ScenarioFollow is an edge between two usernames.
type ScenarioFollow struct {
	Follower string `yaml:"follower"`
	Followee string `yaml:"followee"`
}

// ScenarioPeep is a peep posted Ago before the time the scenario is applied.
type ScenarioPeep struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
	Ago     string `yaml:"ago"`
}

// LoadScenario decodes a YAML scenario. Unknown keys are rejected.
func LoadScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return &sc, nil
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &sc, nil
}

// ApplyScenario validates sc and writes it in one transaction. Peep ages are
// measured back from now.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario, now time.Time, fastHash bool) (*Result, error) {
	cost := bcrypt.DefaultCost
	if fastHash {
		cost = bcrypt.MinCost
	}
	hasher := auth.NewPasswordHasher(cost)

	byName := make(map[string]*models.User, len(sc.Users))
	users := make([]*models.User, 0, len(sc.Users))
	for _, su := range sc.Users {
		req := models.SignupRequest{Name: su.Name, Email: su.Email, Username: su.Username, Password: su.Password}
		if err := validation.ValidateSignup(req); err != nil {
			return nil, fmt.Errorf("user %q: %w", su.Username, err)
		}
		if _, dup := byName[su.Username]; dup {
			return nil, fmt.Errorf("user %q: %w", su.Username, models.NewConflictError("Username already registered"))
		}
		hash, err := hasher.Hash(su.Password)
		if err != nil {
			return nil, err
		}
		u := &models.User{Name: su.Name, Email: su.Email, Username: su.Username, PasswordHash: hash}
		byName[su.Username] = u
		users = append(users, u)
	}

	lookup := func(username string) (*models.User, error) {
		u, ok := byName[username]
		if !ok {
			return nil, models.NewNotFoundError("User", username)
		}
		return u, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user %q: %w", u.Username, err)
			}
		}
		for _, sf := range sc.Follows {
			follower, err := lookup(sf.Follower)
			if err != nil {
				return err
			}
			followee, err := lookup(sf.Followee)
			if err != nil {
				return err
			}
			if err := tx.Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).Error; err != nil {
				return fmt.Errorf("follow %s -> %s: %w", sf.Follower, sf.Followee, err)
			}
		}
		for _, sp := range sc.Peeps {
			author, err := lookup(sp.Author)
			if err != nil {
				return err
			}
			content, err := validation.NormalizePeepContent(sp.Content)
			if err != nil {
				return fmt.Errorf("peep by %s: %w", sp.Author, err)
			}
			var ago time.Duration
			if sp.Ago != "" {
				if ago, err = time.ParseDuration(sp.Ago); err != nil {
					return fmt.Errorf("peep by %s: %w", sp.Author, err)
				}
			}
			peep := &models.Peep{UserID: author.ID, Content: content, CreatedAt: now.Add(-ago)}
			if err := tx.Create(peep).Error; err != nil {
				return fmt.Errorf("create peep by %s: %w", sp.Author, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Users: len(users), Follows: len(sc.Follows), Peeps: len(sc.Peeps)}
	middleware.Logger.InfoContext(ctx, "applied seed scenario",
		slog.Int("users", res.Users),
		slog.Int("follows", res.Follows),
		slog.Int("peeps", res.Peeps),
	)
	return res, nil
}
