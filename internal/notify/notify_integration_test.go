//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/MomoCodeByte/final-chekelen/internal/auth"
	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/testsupport"
)

func TestUserDirectory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, _ := testsupport.SetupPostgres(ctx, t)
	farmer := testsupport.InsertUser(ctx, t, db, "farmer-3", domain.RoleFarmer)
	silent := testsupport.InsertUser(ctx, t, db, "farmer-9", domain.RoleFarmer)
	customer := testsupport.InsertUser(ctx, t, db, "customer-7", domain.RoleCustomer)
	if _, err := db.ExecContext(ctx, `UPDATE users SET email = '' WHERE user_id = $1`, silent); err != nil {
		t.Fatalf("clear email: %v", err)
	}

	emails, err := NewUserDirectory(db).FarmerEmails(ctx, []int64{farmer, silent, customer, 999999})
	if err != nil {
		t.Fatalf("farmer emails: %v", err)
	}

	if emails[farmer] != "farmer-3@example.com" {
		t.Errorf("unexpected email for farmer: %q", emails[farmer])
	}
	if email, ok := emails[silent]; !ok || email != "" {
		t.Errorf("expected empty email for farmer without address, got %q (present %v)", email, ok)
	}
	if _, ok := emails[customer]; ok {
		t.Error("customers must not be returned")
	}
	if len(emails) != 2 {
		t.Errorf("expected 2 entries, got %v", emails)
	}
}

func TestRedisDeduper(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := auth.NewRedisClient(ctx, testsupport.SetupRedis(ctx, t))
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer func() { _ = client.Close() }()

	deduper := NewRedisDeduper(client, time.Hour)

	first, err := deduper.Claim(ctx, "evt-1", 3)
	if err != nil || !first {
		t.Fatalf("expected first claim, got %v, %v", first, err)
	}
	again, err := deduper.Claim(ctx, "evt-1", 3)
	if err != nil || again {
		t.Fatalf("expected repeated claim to be refused, got %v, %v", again, err)
	}
	other, err := deduper.Claim(ctx, "evt-1", 9)
	if err != nil || !other {
		t.Fatalf("expected a different farmer to be claimable, got %v, %v", other, err)
	}

	if err := deduper.Release(ctx, "evt-1", 3); err != nil {
		t.Fatalf("release: %v", err)
	}
	reclaimed, err := deduper.Claim(ctx, "evt-1", 3)
	if err != nil || !reclaimed {
		t.Errorf("expected released claim to be reclaimable, got %v, %v", reclaimed, err)
	}
}
