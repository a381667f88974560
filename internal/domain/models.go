package domain

// NodeGroupStatus gates whether a node group participates in DNS/DHCP management.
type NodeGroupStatus string

const (
	NodeGroupEnabled  NodeGroupStatus = "enabled"
	NodeGroupDisabled NodeGroupStatus = "disabled"
)

// InterfaceManagement describes how a node group interface is managed.
type InterfaceManagement string

const (
	ManagementUnmanaged  InterfaceManagement = "unmanaged"
	ManagementDHCP       InterfaceManagement = "dhcp"
	ManagementDHCPAndDNS InterfaceManagement = "dhcp-and-dns"
)

// InterfaceType identifies the kind of host NIC an Interface represents.
type InterfaceType string

const (
	InterfacePhysical InterfaceType = "physical"
	InterfaceBond     InterfaceType = "bond"
	// InterfaceUnknown is auto-created when a lease references a MAC address
	// no registered interface owns.
	InterfaceUnknown InterfaceType = "unknown"
)

// Family is an IP address family.
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// AllocType classifies how an IP assignment came to exist. Only
// AllocDiscovered rows are mutated by lease events.
type AllocType string

const (
	AllocDiscovered   AllocType = "discovered"
	AllocStatic       AllocType = "static"
	AllocUserReserved AllocType = "user-reserved"
	AllocDHCP         AllocType = "dhcp"
)

// NodeGroup is an administrative cluster owning a DNS domain
type NodeGroup struct {
	ID      int64           // Unique identifier
	Name    string          // Cluster name, used as the DNS domain
	Status  NodeGroupStatus // Enabled clusters contribute zones
	MAASURL string          // Advertised URL override for server-address resolution (optional)
}

// NodeGroupInterface is a network interface managed by a node group
type NodeGroupInterface struct {
	ID              int64               // Unique identifier
	NodeGroupID     int64               // Foreign key to NodeGroup
	Name            string              // Interface name (e.g., "eth0")
	Network         string              // Network in CIDR notation (e.g., "10.0.0.0/24")
	Management      InterfaceManagement // unmanaged, dhcp, or dhcp-and-dns
	IPRangeLow      string              // Start of the dynamic (DHCP) range
	IPRangeHigh     string              // End of the dynamic range
	StaticRangeLow  string              // Start of the static range (optional)
	StaticRangeHigh string              // End of the static range (optional)
}

// Managed reports whether the interface is managed at all (DHCP or DHCP+DNS).
func (i NodeGroupInterface) Managed() bool {
	return i.Management != ManagementUnmanaged
}

// VLAN represents a layer-2 segment subnets attach to
type VLAN struct {
	ID   int64  // Unique identifier
	Name string // VLAN name
	VID  int    // 802.1Q VLAN ID
}

// Subnet is an address block leases are reconciled against
type Subnet struct {
	ID         int64  // Unique identifier
	Name       string // Subnet name
	CIDR       string // Address block in CIDR notation
	VLANID     int64  // Foreign key to VLAN
	GatewayIP  string // Gateway IP address (optional)
	DNSServers string // Comma-separated DNS server IPs (optional)
}

// Interface is a host NIC known to the system, registered or discovered
type Interface struct {
	ID          int64         // Unique identifier
	Type        InterfaceType // physical, bond, or unknown
	MACAddress  string        // Link-layer address, unique
	Name        string        // Interface name (e.g., "eth0", "unknown-<mac>")
	Hostname    string        // Display name, from the DHCP hostname or the admin
	NodeGroupID *int64        // Owning node group; nil for unknown interfaces
	VLANID      int64         // Foreign key to VLAN
}

// IPAssignment binds an IP address to an interface. Discovered assignments
// are driven entirely by lease events; a NULL IP means the lease was
// released or expired but the interface identity is remembered.
type IPAssignment struct {
	ID          int64     // Unique identifier
	InterfaceID int64     // Foreign key to Interface
	SubnetID    *int64    // Foreign key to Subnet; nil when never placed on a subnet
	IP          *string   // Assigned address; nil after release/expiry
	Family      Family    // ipv4 or ipv6
	AllocType   AllocType // discovered, static, user-reserved, dhcp
	LeaseTime   int64     // Lease duration in seconds
	CreatedAt   int64     // Epoch seconds, taken from the lease event
	UpdatedAt   int64     // Epoch seconds, taken from the lease event
}

// Setting is a named runtime configuration value (e.g., maas_url)
type Setting struct {
	Name  string // Setting key
	Value string // Setting value
}

// Setting keys used by the DNS subsystem.
const (
	SettingMAASURL        = "maas_url"
	SettingWindowsKMSHost = "windows_kms_host"
)
