//go:build integration

package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/testsupport"
)

func TestGuard(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, _ := testsupport.SetupPostgres(ctx, t)
	farmer := testsupport.InsertUser(ctx, t, db, "farmer-3", domain.RoleFarmer)
	other := testsupport.InsertUser(ctx, t, db, "farmer-9", domain.RoleFarmer)
	customer := testsupport.InsertUser(ctx, t, db, "customer-7", domain.RoleCustomer)
	own := testsupport.InsertCrop(ctx, t, db, farmer, "Maize", "10.00", true)
	foreign := testsupport.InsertCrop(ctx, t, db, other, "Beans", "5.50", true)
	soldOut := testsupport.InsertCrop(ctx, t, db, other, "Rice", "3.00", false)

	guard := NewGuard()
	farmerActor := domain.Actor{ID: farmer, Role: domain.RoleFarmer}
	customerActor := domain.Actor{ID: customer, Role: domain.RoleCustomer}

	t.Run("check purchasable", func(t *testing.T) {
		tests := []struct {
			name   string
			actor  domain.Actor
			cropID int64
			want   error
		}{
			{"customer buys available crop", customerActor, foreign, nil},
			{"customer buys unavailable crop", customerActor, soldOut, domain.ErrNotAvailable},
			{"missing crop", customerActor, 999999, domain.ErrNotAvailable},
			{"farmer buys own crop", farmerActor, own, nil},
			{"farmer buys foreign crop", farmerActor, foreign, domain.ErrForeignCropInCart},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := guard.CheckPurchasable(ctx, db, tt.actor, tt.cropID)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("resolve prices items at current price", func(t *testing.T) {
		items, err := guard.ResolveForOrder(ctx, db, customerActor, []domain.ItemInput{
			{CropID: own, Quantity: 2},
			{CropID: foreign, Quantity: 1},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if !items[0].UnitPrice.Equal(domain.MustMoney("10.00")) || !items[0].LineTotal.Equal(domain.MustMoney("20.00")) {
			t.Errorf("unexpected first item: %+v", items[0])
		}
		if items[1].FarmerID != other || items[1].Name != "Beans" {
			t.Errorf("unexpected second item: %+v", items[1])
		}
	})

	t.Run("resolve reports every failing crop", func(t *testing.T) {
		_, err := guard.ResolveForOrder(ctx, db, farmerActor, []domain.ItemInput{
			{CropID: own, Quantity: 1},
			{CropID: 999999, Quantity: 1},
			{CropID: soldOut, Quantity: 1},
			{CropID: foreign, Quantity: 1},
		})

		var cv *domain.CropValidationError
		if !errors.As(err, &cv) {
			t.Fatalf("expected crop validation error, got %v", err)
		}
		want := []domain.CropIssue{
			{CropID: 999999, Reason: domain.ReasonNonexistent},
			{CropID: soldOut, Reason: domain.ReasonUnavailable},
			{CropID: foreign, Reason: domain.ReasonNotOwned},
		}
		if len(cv.Issues) != len(want) {
			t.Fatalf("expected %d issues, got %+v", len(want), cv.Issues)
		}
		for i := range want {
			if cv.Issues[i] != want[i] {
				t.Errorf("issue %d: expected %+v, got %+v", i, want[i], cv.Issues[i])
			}
		}
	})

	t.Run("resolve rejects bad quantities", func(t *testing.T) {
		_, err := guard.ResolveForOrder(ctx, db, customerActor, []domain.ItemInput{{CropID: own, Quantity: 0}})
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("expected invalid quantity, got %v", err)
		}
	})
}

func TestCropRepository_RoleFiltering(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, _ := testsupport.SetupPostgres(ctx, t)
	farmer := testsupport.InsertUser(ctx, t, db, "farmer-3", domain.RoleFarmer)
	other := testsupport.InsertUser(ctx, t, db, "farmer-9", domain.RoleFarmer)
	testsupport.InsertCrop(ctx, t, db, farmer, "Maize", "10.00", true)
	hidden := testsupport.InsertCrop(ctx, t, db, farmer, "Cassava", "4.00", false)
	testsupport.InsertCrop(ctx, t, db, other, "Beans", "5.50", true)

	repo := NewCropRepository(db)

	tests := []struct {
		name  string
		actor domain.Actor
		want  int
	}{
		{"farmer sees own listings", domain.Actor{ID: farmer, Role: domain.RoleFarmer}, 2},
		{"customer sees available crops", domain.Actor{ID: 100, Role: domain.RoleCustomer}, 2},
		{"admin sees everything", domain.Actor{ID: 1, Role: domain.RoleAdmin}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crops, err := repo.List(ctx, tt.actor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(crops) != tt.want {
				t.Errorf("expected %d crops, got %d", tt.want, len(crops))
			}
		})
	}

	if _, err := repo.Get(ctx, domain.Actor{ID: 100, Role: domain.RoleCustomer}, hidden); !errors.Is(err, domain.ErrCropNotFound) {
		t.Errorf("expected customer not to see unavailable crop, got %v", err)
	}
	if _, err := repo.Get(ctx, domain.Actor{ID: other, Role: domain.RoleFarmer}, hidden); !errors.Is(err, domain.ErrCropNotFound) {
		t.Errorf("expected other farmer not to see crop, got %v", err)
	}
	crop, err := repo.Get(ctx, domain.Actor{ID: farmer, Role: domain.RoleFarmer}, hidden)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crop.IsAvailable || !crop.Price.Equal(domain.MustMoney("4.00")) {
		t.Errorf("unexpected crop: %+v", crop)
	}
}
