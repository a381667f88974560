package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
	"github.com/sfeole/maas/internal/testutil"
)

func setupTestAPI(t *testing.T, testName string) (*sql.DB, http.Handler, func()) {
	t.Helper()
	db, cleanup := testutil.SetupTestDBWithMigrations(t, testName)

	r := chi.NewRouter()
	NewAPI(db, zerolog.Nop()).RegisterRoutes(r)
	return db, r, cleanup
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestUpdateLeaseHandler_Commit(t *testing.T) {
	db, handler, cleanup := setupTestAPI(t, "TestUpdateLeaseHandler_Commit")
	defer cleanup()

	testutil.MakeSubnet(t, db, "10.0.0.0/24")
	mac := testutil.MakeMAC()

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/leases", LeaseEventRequest{
		Action:    "commit",
		MAC:       mac,
		IP:        "10.0.0.5",
		IPFamily:  "ipv4",
		Timestamp: 1440000000,
		LeaseTime: 600,
		Hostname:  "host-a",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	iface, err := repository.NewInterfaceRepository(db).FindByMAC(context.Background(), mac)
	require.NoError(t, err)
	a, err := repository.NewAssignmentRepository(db).FindDiscovered(
		context.Background(), iface.ID, domain.FamilyIPv4)
	require.NoError(t, err)
	require.NotNil(t, a.IP)
	assert.Equal(t, "10.0.0.5", *a.IP)
}

func TestUpdateLeaseHandler_UnknownAction(t *testing.T) {
	db, handler, cleanup := setupTestAPI(t, "TestUpdateLeaseHandler_UnknownAction")
	defer cleanup()

	testutil.MakeSubnet(t, db, "10.0.0.0/24")

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/leases", LeaseEventRequest{
		Action:   "assign",
		MAC:      testutil.MakeMAC(),
		IP:       "10.0.0.5",
		IPFamily: "ipv4",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown lease action: assign", errorMessage(t, rec))
}

func TestUpdateLeaseHandler_NoSubnet(t *testing.T) {
	_, handler, cleanup := setupTestAPI(t, "TestUpdateLeaseHandler_NoSubnet")
	defer cleanup()

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/leases", LeaseEventRequest{
		Action:   "commit",
		MAC:      testutil.MakeMAC(),
		IP:       "203.0.113.5",
		IPFamily: "ipv4",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No subnet exists for: 203.0.113.5", errorMessage(t, rec))
}

func TestUpdateLeaseHandler_MissingFields(t *testing.T) {
	_, handler, cleanup := setupTestAPI(t, "TestUpdateLeaseHandler_MissingFields")
	defer cleanup()

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/leases", LeaseEventRequest{
		Action: "commit",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLeaseHandler_InvalidJSON(t *testing.T) {
	_, handler, cleanup := setupTestAPI(t, "TestUpdateLeaseHandler_InvalidJSON")
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/v0/leases", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListZonesHandler(t *testing.T) {
	db, handler, cleanup := setupTestAPI(t, "TestListZonesHandler")
	defer cleanup()

	testutil.SetSetting(t, db, domain.SettingMAASURL, "http://10.0.0.1:5240/MAAS")
	subnet := testutil.MakeSubnet(t, db, "10.0.0.0/24")
	group := testutil.MakeNodeGroup(t, db, "lab", domain.NodeGroupEnabled)
	testutil.MakeManagedInterface(t, db, group, "10.0.0.0/24", "10.0.0.100", "10.0.0.200")

	host := testutil.MakeHostInterface(t, db, group, subnet.VLANID, "host-a")
	testutil.MakeAssignment(t, db, host, subnet, domain.FamilyIPv4, "10.0.0.5", 1440000000)

	rec := doJSON(t, handler, http.MethodGet, "/api/v0/dns/zones", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []ZoneSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)

	assert.Equal(t, "lab", summaries[0].Name)
	assert.Equal(t, "forward", summaries[0].Kind)
	assert.Equal(t, 1, summaries[0].Records)
	assert.Equal(t, "0.0.10.in-addr.arpa", summaries[1].Name)
	assert.Equal(t, "reverse", summaries[1].Kind)
	assert.Equal(t, summaries[0].Serial, summaries[1].Serial,
		"all zones of one batch share a serial")
}

func TestListZonesHandler_NoGroups(t *testing.T) {
	_, handler, cleanup := setupTestAPI(t, "TestListZonesHandler_NoGroups")
	defer cleanup()

	rec := doJSON(t, handler, http.MethodGet, "/api/v0/dns/zones", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetZoneHandler(t *testing.T) {
	db, handler, cleanup := setupTestAPI(t, "TestGetZoneHandler")
	defer cleanup()

	testutil.SetSetting(t, db, domain.SettingMAASURL, "http://10.0.0.1:5240/MAAS")
	subnet := testutil.MakeSubnet(t, db, "10.0.0.0/24")
	group := testutil.MakeNodeGroup(t, db, "lab", domain.NodeGroupEnabled)
	testutil.MakeManagedInterface(t, db, group, "10.0.0.0/24", "", "")

	host := testutil.MakeHostInterface(t, db, group, subnet.VLANID, "host-a")
	testutil.MakeAssignment(t, db, host, subnet, domain.FamilyIPv4, "10.0.0.5", 1440000000)

	rec := doJSON(t, handler, http.MethodGet, "/api/v0/dns/zones/lab", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "$ORIGIN lab.")
	assert.Contains(t, rec.Body.String(), "host-a.lab.")

	rec = doJSON(t, handler, http.MethodGet, "/api/v0/dns/zones/0.0.10.in-addr.arpa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PTR")

	rec = doJSON(t, handler, http.MethodGet, "/api/v0/dns/zones/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNodeGroupHandler(t *testing.T) {
	_, handler, cleanup := setupTestAPI(t, "TestCreateNodeGroupHandler")
	defer cleanup()

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/nodegroups", CreateNodeGroupRequest{
		Name: "lab",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var group domain.NodeGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &group))
	assert.NotZero(t, group.ID)
	assert.Equal(t, domain.NodeGroupEnabled, group.Status)

	rec = doJSON(t, handler, http.MethodPost, "/api/v0/nodegroups", CreateNodeGroupRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v0/nodegroups", CreateNodeGroupRequest{
		Name:   "lab2",
		Status: "paused",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v0/nodegroups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []domain.NodeGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	assert.Len(t, groups, 1)
}

func TestCreateNodeGroupInterfaceHandler(t *testing.T) {
	db, handler, cleanup := setupTestAPI(t, "TestCreateNodeGroupInterfaceHandler")
	defer cleanup()

	group := testutil.MakeNodeGroup(t, db, "lab", domain.NodeGroupEnabled)

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/nodegroups/999/interfaces",
		CreateNodeGroupInterfaceRequest{Network: "10.0.0.0/24"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := fmt.Sprintf("/api/v0/nodegroups/%d/interfaces", group.ID)
	rec = doJSON(t, handler, http.MethodPost, path, CreateNodeGroupInterfaceRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, path, CreateNodeGroupInterfaceRequest{
		Network:    "10.0.0.0/24",
		Management: "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, path, CreateNodeGroupInterfaceRequest{
		Name:        "eth0",
		Network:     "10.0.0.0/24",
		Management:  "dhcp-and-dns",
		IPRangeLow:  "10.0.0.100",
		IPRangeHigh: "10.0.0.200",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	ifaces, err := repository.NewNodeGroupRepository(db).FindInterfaces(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	assert.Equal(t, domain.ManagementDHCPAndDNS, ifaces[0].Management)
}

func TestCreateSubnetHandler(t *testing.T) {
	_, handler, cleanup := setupTestAPI(t, "TestCreateSubnetHandler")
	defer cleanup()

	rec := doJSON(t, handler, http.MethodPost, "/api/v0/subnets", CreateSubnetRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v0/subnets", CreateSubnetRequest{
		Name: "lab-net",
		CIDR: "10.0.0.0/24",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var subnet domain.Subnet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subnet))
	assert.NotZero(t, subnet.ID)
	assert.NotZero(t, subnet.VLANID, "a VLAN is created implicitly")

	rec = doJSON(t, handler, http.MethodGet, "/api/v0/subnets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var subnets []domain.Subnet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subnets))
	assert.Len(t, subnets, 1)
}
