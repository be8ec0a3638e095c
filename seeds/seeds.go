package seeds

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/actuallystonmai/users-service/internal/domain"
)

// Creator is the write side of a user store.
type Creator interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

var (
	firstNames  = []string{"Ann", "Bo", "Carla", "Dmitri", "Elif", "Farid", "Greta", "Hiro", "Ines", "Jonas"}
	secondNames = []string{"Lee", "Kim", "Novak", "Ivanova", "Yilmaz", "Haddad", "Larsen", "Sato", "Costa", "Berg"}
	cities      = []string{"Oslo", "Bergen", "Tallinn", "Porto", "Kyoto", "Lyon", "Gdansk", "Graz"}
)

// Setup inserts n deterministic users.
func Setup(ctx context.Context, store Creator, n int) error {
	rng := rand.New(rand.NewSource(42))

	log.Printf("[seed] inserting %d users", n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := store.Create(ctx, randomUser(rng)); err != nil {
			return fmt.Errorf("seed user %d: %w", i+1, err)
		}
	}

	log.Println("[seed] seeding complete")
	return nil
}

func randomUser(rng *rand.Rand) domain.User {
	u := domain.User{
		FirstName:  firstNames[rng.Intn(len(firstNames))],
		SecondName: secondNames[rng.Intn(len(secondNames))],
		Age:        ageScore(rng),
	}
	// Roughly one in five users has no city, as city is optional.
	if rng.Float64() >= 0.2 {
		u.City = cities[rng.Intn(len(cities))]
	}
	return u
}

// ageScore skews towards working ages and stays within [0, 150].
func ageScore(rng *rand.Rand) float64 {
	age := 18 + math.Abs(rng.NormFloat64())*20
	return math.Min(math.Round(age), 150)
}
