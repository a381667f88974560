package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
	"github.com/sfeole/maas/internal/testutil"
)

func TestInterfaceRepository_SaveAndFindByMAC(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestInterfaceRepository_SaveAndFindByMAC")
	defer cleanup()
	ctx := context.Background()

	vlan := testutil.MakeVLAN(t, db)
	mac := testutil.MakeMAC()

	repo := repository.NewInterfaceRepository(db)
	created, err := repo.Save(ctx, domain.Interface{
		MACAddress: mac,
		Name:       "eth0",
		Hostname:   "host-a",
		VLANID:     vlan.ID,
	})
	if err != nil {
		t.Fatalf("failed to save interface: %v", err)
	}
	if created.Type != domain.InterfacePhysical {
		t.Errorf("expected default type physical, got %s", created.Type)
	}

	found, err := repo.FindByMAC(ctx, mac)
	if err != nil {
		t.Fatalf("failed to find interface by MAC: %v", err)
	}
	if found.ID != created.ID || found.Hostname != "host-a" {
		t.Errorf("unexpected interface: %+v", found)
	}
}

func TestInterfaceRepository_DuplicateMAC(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestInterfaceRepository_DuplicateMAC")
	defer cleanup()
	ctx := context.Background()

	vlan := testutil.MakeVLAN(t, db)
	mac := testutil.MakeMAC()

	repo := repository.NewInterfaceRepository(db)
	if _, err := repo.Save(ctx, domain.Interface{MACAddress: mac, VLANID: vlan.ID}); err != nil {
		t.Fatalf("failed to save interface: %v", err)
	}

	_, err := repo.Save(ctx, domain.Interface{MACAddress: mac, VLANID: vlan.ID})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestInterfaceRepository_CreateUnknown(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestInterfaceRepository_CreateUnknown")
	defer cleanup()
	ctx := context.Background()

	vlan := testutil.MakeVLAN(t, db)

	repo := repository.NewInterfaceRepository(db)
	iface, err := repo.CreateUnknown(ctx, "00:16:3e:aa:bb:cc", vlan.ID, "mystery")
	if err != nil {
		t.Fatalf("failed to create unknown interface: %v", err)
	}
	if iface.Type != domain.InterfaceUnknown {
		t.Errorf("expected type unknown, got %s", iface.Type)
	}
	if iface.Name != "unknown-00-16-3e-aa-bb-cc" {
		t.Errorf("unexpected name %q", iface.Name)
	}
	if iface.Hostname != "mystery" {
		t.Errorf("unexpected hostname %q", iface.Hostname)
	}
	if iface.NodeGroupID != nil {
		t.Error("unknown interfaces must not belong to a node group")
	}
}

func TestInterfaceRepository_SetHostname(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestInterfaceRepository_SetHostname")
	defer cleanup()
	ctx := context.Background()

	subnet := testutil.MakeSubnet(t, db, "10.0.0.0/24")
	group := testutil.MakeNodeGroup(t, db, "lab", domain.NodeGroupEnabled)
	iface := testutil.MakeHostInterface(t, db, group, subnet.VLANID, "old-name")

	repo := repository.NewInterfaceRepository(db)
	if err := repo.SetHostname(ctx, iface.ID, "new-name"); err != nil {
		t.Fatalf("failed to set hostname: %v", err)
	}

	found, err := repo.FindByID(ctx, iface.ID)
	if err != nil {
		t.Fatalf("failed to find interface: %v", err)
	}
	if found.Hostname != "new-name" {
		t.Errorf("expected hostname new-name, got %q", found.Hostname)
	}

	if err := repo.SetHostname(ctx, 99999, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInterfaceRepository_FindByNodeGroupID(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestInterfaceRepository_FindByNodeGroupID")
	defer cleanup()
	ctx := context.Background()

	subnet := testutil.MakeSubnet(t, db, "10.0.0.0/24")
	group := testutil.MakeNodeGroup(t, db, "lab", domain.NodeGroupEnabled)
	other := testutil.MakeNodeGroup(t, db, "attic", domain.NodeGroupEnabled)

	testutil.MakeHostInterface(t, db, group, subnet.VLANID, "host-a")
	testutil.MakeHostInterface(t, db, group, subnet.VLANID, "host-b")
	testutil.MakeHostInterface(t, db, other, subnet.VLANID, "host-c")

	ifaces, err := repository.NewInterfaceRepository(db).FindByNodeGroupID(ctx, group.ID)
	if err != nil {
		t.Fatalf("failed to find interfaces: %v", err)
	}
	if len(ifaces) != 2 {
		t.Fatalf("expected 2 interfaces, got %d", len(ifaces))
	}
	if ifaces[0].Hostname != "host-a" || ifaces[1].Hostname != "host-b" {
		t.Errorf("expected hostname order, got %q then %q", ifaces[0].Hostname, ifaces[1].Hostname)
	}
}
