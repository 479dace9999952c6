// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"peeps/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Factory builds domain entities with fake content. It never touches the
// database; callers persist what it builds.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     func() time.Time
}

// NewFactory returns a factory drawing from a faker seeded with seed. A zero
// seed picks a random one.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 7
	}
	return &Factory{faker: gofakeit.New(seed), maxDays: maxDays, now: time.Now}
}

// BuildUser returns an unsaved user whose username ends in n, keeping
// usernames unique within one run.
func (f *Factory) BuildUser(n int, passwordHash string) *models.User {
	suffix := fmt.Sprintf("%d", n)
	base := sanitizeUsername(f.faker.Username())
	if limit := 30 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	if len(base) < 2 {
		base = "peeper"
	}
	username := base + suffix

	return &models.User{
		ID:           uuid.New(),
		Name:         f.faker.Name(),
		Email:        strings.ToLower(username) + "@" + f.faker.DomainName(),
		Username:     username,
		PasswordHash: passwordHash,
	}
}

// BuildPeep returns an unsaved peep by author created somewhere within the
// factory's day range.
func (f *Factory) BuildPeep(author *models.User) *models.Peep {
	content := f.faker.Sentence(f.faker.Number(3, 24))
	if utf8.RuneCountInString(content) > models.MaxPeepLength {
		content = string([]rune(content)[:models.MaxPeepLength])
	}
	minutesBack := f.faker.Number(0, f.maxDays*24*60-1)
	return &models.Peep{
		ID:        uuid.New(),
		UserID:    author.ID,
		Content:   content,
		CreatedAt: f.now().Add(-time.Duration(minutesBack) * time.Minute).UTC(),
	}
}

// PickFollowees picks up to k distinct indexes in [0, n) other than self.
func (f *Factory) PickFollowees(self, n, k int) []int {
	if k > n-1 {
		k = n - 1
	}
	picked := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for len(out) < k {
		i := f.faker.Number(0, n-1)
		if i == self {
			continue
		}
		if _, dup := picked[i]; dup {
			continue
		}
		picked[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

func sanitizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
