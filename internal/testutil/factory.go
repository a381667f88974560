package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
)

// Fixture helpers for building the network model in tests. Every helper
// fails the test on error so test bodies stay focused on behavior.

var macCounter int

// MakeMAC returns a unique MAC address for this test process.
func MakeMAC() string {
	macCounter++
	return fmt.Sprintf("00:16:3e:%02x:%02x:%02x",
		(macCounter>>16)&0xff, (macCounter>>8)&0xff, macCounter&0xff)
}

// MakeVLAN creates a VLAN.
func MakeVLAN(t *testing.T, db *sql.DB) domain.VLAN {
	t.Helper()
	vlan, err := repository.NewVLANRepository(db).Save(context.Background(), domain.VLAN{
		Name: "untagged",
		VID:  0,
	})
	if err != nil {
		t.Fatalf("failed to create VLAN: %v", err)
	}
	return vlan
}

// MakeSubnet creates a subnet with the given CIDR on a fresh VLAN.
func MakeSubnet(t *testing.T, db *sql.DB, cidr string) domain.Subnet {
	t.Helper()
	vlan := MakeVLAN(t, db)
	subnet, err := repository.NewSubnetRepository(db).Save(context.Background(), domain.Subnet{
		Name:   "subnet-" + cidr,
		CIDR:   cidr,
		VLANID: vlan.ID,
	})
	if err != nil {
		t.Fatalf("failed to create subnet %s: %v", cidr, err)
	}
	return subnet
}

// MakeNodeGroup creates a node group with the given name and status.
func MakeNodeGroup(t *testing.T, db *sql.DB, name string, status domain.NodeGroupStatus) domain.NodeGroup {
	t.Helper()
	group, err := repository.NewNodeGroupRepository(db).Save(context.Background(), domain.NodeGroup{
		Name:   name,
		Status: status,
	})
	if err != nil {
		t.Fatalf("failed to create node group %s: %v", name, err)
	}
	return group
}

// MakeManagedInterface attaches a dhcp-and-dns managed interface to a node group.
func MakeManagedInterface(t *testing.T, db *sql.DB, group domain.NodeGroup, network, rangeLow, rangeHigh string) domain.NodeGroupInterface {
	t.Helper()
	iface, err := repository.NewNodeGroupRepository(db).SaveInterface(context.Background(), domain.NodeGroupInterface{
		NodeGroupID: group.ID,
		Name:        "eth0",
		Network:     network,
		Management:  domain.ManagementDHCPAndDNS,
		IPRangeLow:  rangeLow,
		IPRangeHigh: rangeHigh,
	})
	if err != nil {
		t.Fatalf("failed to create managed interface: %v", err)
	}
	return iface
}

// MakeHostInterface registers a physical interface with a hostname in a node group.
func MakeHostInterface(t *testing.T, db *sql.DB, group domain.NodeGroup, vlanID int64, hostname string) domain.Interface {
	t.Helper()
	iface, err := repository.NewInterfaceRepository(db).Save(context.Background(), domain.Interface{
		Type:        domain.InterfacePhysical,
		MACAddress:  MakeMAC(),
		Name:        "eth0",
		Hostname:    hostname,
		NodeGroupID: &group.ID,
		VLANID:      vlanID,
	})
	if err != nil {
		t.Fatalf("failed to create host interface %s: %v", hostname, err)
	}
	return iface
}

// MakeAssignment records a discovered assignment for an interface.
func MakeAssignment(t *testing.T, db *sql.DB, iface domain.Interface, subnet domain.Subnet, family domain.Family, ip string, timestamp int64) {
	t.Helper()
	err := repository.NewAssignmentRepository(db).UpsertDiscovered(
		context.Background(), iface.ID, family, &ip, &subnet.ID, 600, timestamp)
	if err != nil {
		t.Fatalf("failed to create assignment %s: %v", ip, err)
	}
}

// SetSetting stores a runtime setting.
func SetSetting(t *testing.T, db *sql.DB, name, value string) {
	t.Helper()
	if err := repository.NewSettingsRepository(db).Set(context.Background(), name, value); err != nil {
		t.Fatalf("failed to set setting %s: %v", name, err)
	}
}
