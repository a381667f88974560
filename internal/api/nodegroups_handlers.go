package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
)

// CreateNodeGroupRequest is the JSON body for creating a node group
type CreateNodeGroupRequest struct {
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	MAASURL string `json:"maas_url,omitempty"`
}

// CreateNodeGroupInterfaceRequest is the JSON body for attaching an interface
type CreateNodeGroupInterfaceRequest struct {
	Name        string `json:"name"`
	Network     string `json:"network"`
	Management  string `json:"management"`
	IPRangeLow  string `json:"ip_range_low,omitempty"`
	IPRangeHigh string `json:"ip_range_high,omitempty"`
}

// CreateSubnetRequest is the JSON body for creating a subnet
type CreateSubnetRequest struct {
	Name      string `json:"name"`
	CIDR      string `json:"cidr"`
	VLANID    int64  `json:"vlan_id,omitempty"`
	GatewayIP string `json:"gateway_ip,omitempty"`
}

// listNodeGroupsHandler handles GET /api/v0/nodegroups
func (a *API) listNodeGroupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := a.nodeGroupRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list node groups")
		return
	}
	if groups == nil {
		groups = []domain.NodeGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// createNodeGroupHandler handles POST /api/v0/nodegroups
func (a *API) createNodeGroupHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	status := domain.NodeGroupStatus(req.Status)
	if status == "" {
		status = domain.NodeGroupEnabled
	}
	if status != domain.NodeGroupEnabled && status != domain.NodeGroupDisabled {
		writeError(w, http.StatusBadRequest, "status must be enabled or disabled")
		return
	}

	group, err := a.nodeGroupRepo.Save(r.Context(), domain.NodeGroup{
		Name:    req.Name,
		Status:  status,
		MAASURL: req.MAASURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidEntity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create node group")
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// createNodeGroupInterfaceHandler handles POST /api/v0/nodegroups/{id}/interfaces
func (a *API) createNodeGroupInterfaceHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid node group ID")
		return
	}

	exists, err := a.nodeGroupRepo.ExistsByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check node group")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "node group not found")
		return
	}

	var req CreateNodeGroupInterfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Network == "" {
		writeError(w, http.StatusBadRequest, "network is required")
		return
	}

	management := domain.InterfaceManagement(req.Management)
	switch management {
	case "", domain.ManagementUnmanaged:
		management = domain.ManagementUnmanaged
	case domain.ManagementDHCP, domain.ManagementDHCPAndDNS:
	default:
		writeError(w, http.StatusBadRequest, "management must be unmanaged, dhcp, or dhcp-and-dns")
		return
	}

	iface, err := a.nodeGroupRepo.SaveInterface(r.Context(), domain.NodeGroupInterface{
		NodeGroupID: id,
		Name:        req.Name,
		Network:     req.Network,
		Management:  management,
		IPRangeLow:  req.IPRangeLow,
		IPRangeHigh: req.IPRangeHigh,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidEntity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create interface")
		return
	}
	writeJSON(w, http.StatusCreated, iface)
}

// listSubnetsHandler handles GET /api/v0/subnets
func (a *API) listSubnetsHandler(w http.ResponseWriter, r *http.Request) {
	subnets, err := a.subnetRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list subnets")
		return
	}
	if subnets == nil {
		subnets = []domain.Subnet{}
	}
	writeJSON(w, http.StatusOK, subnets)
}

// createSubnetHandler handles POST /api/v0/subnets.
//
// A VLAN is created implicitly when none is supplied, since every subnet
// must sit on one.
func (a *API) createSubnetHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSubnetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CIDR == "" {
		writeError(w, http.StatusBadRequest, "cidr is required")
		return
	}

	vlanID := req.VLANID
	if vlanID == 0 {
		vlan, err := a.vlanRepo.Save(r.Context(), domain.VLAN{Name: "untagged", VID: 0})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create VLAN")
			return
		}
		vlanID = vlan.ID
	}

	subnet, err := a.subnetRepo.Save(r.Context(), domain.Subnet{
		Name:      req.Name,
		CIDR:      req.CIDR,
		VLANID:    vlanID,
		GatewayIP: req.GatewayIP,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidEntity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create subnet")
		return
	}
	writeJSON(w, http.StatusCreated, subnet)
}
