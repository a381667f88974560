package repository_test

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
	"github.com/sfeole/maas/internal/testutil"
)

func TestSubnetRepository_SaveValidation(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestSubnetRepository_SaveValidation")
	defer cleanup()
	ctx := context.Background()

	vlan := testutil.MakeVLAN(t, db)
	repo := repository.NewSubnetRepository(db)

	_, err := repo.Save(ctx, domain.Subnet{VLANID: vlan.ID})
	if !errors.Is(err, repository.ErrInvalidEntity) {
		t.Errorf("expected ErrInvalidEntity for missing CIDR, got %v", err)
	}

	_, err = repo.Save(ctx, domain.Subnet{CIDR: "10.0.0.0/24"})
	if !errors.Is(err, repository.ErrInvalidEntity) {
		t.Errorf("expected ErrInvalidEntity for missing VLAN, got %v", err)
	}

	_, err = repo.Save(ctx, domain.Subnet{CIDR: "not-a-cidr", VLANID: vlan.ID})
	if !errors.Is(err, repository.ErrInvalidEntity) {
		t.Errorf("expected ErrInvalidEntity for bad CIDR, got %v", err)
	}
}

func TestSubnetRepository_FindByCIDR(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestSubnetRepository_FindByCIDR")
	defer cleanup()
	ctx := context.Background()

	created := testutil.MakeSubnet(t, db, "10.0.0.0/24")

	repo := repository.NewSubnetRepository(db)
	found, err := repo.FindByCIDR(ctx, "10.0.0.0/24")
	if err != nil {
		t.Fatalf("failed to find subnet: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected subnet %d, got %d", created.ID, found.ID)
	}

	_, err = repo.FindByCIDR(ctx, "10.99.0.0/24")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSubnetRepository_SubnetContaining(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestSubnetRepository_SubnetContaining")
	defer cleanup()
	ctx := context.Background()

	v4 := testutil.MakeSubnet(t, db, "10.0.0.0/24")
	v6 := testutil.MakeSubnet(t, db, "fd00:10::/64")

	repo := repository.NewSubnetRepository(db)

	found, err := repo.SubnetContaining(ctx, netip.MustParseAddr("10.0.0.77"))
	if err != nil {
		t.Fatalf("failed to find containing subnet: %v", err)
	}
	if found.ID != v4.ID {
		t.Errorf("expected subnet %d, got %d", v4.ID, found.ID)
	}

	found, err = repo.SubnetContaining(ctx, netip.MustParseAddr("fd00:10::42"))
	if err != nil {
		t.Fatalf("failed to find containing v6 subnet: %v", err)
	}
	if found.ID != v6.ID {
		t.Errorf("expected subnet %d, got %d", v6.ID, found.ID)
	}

	_, err = repo.SubnetContaining(ctx, netip.MustParseAddr("192.168.50.1"))
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
