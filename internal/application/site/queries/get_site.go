package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
)

// GetSiteQuery represents a query for the production state of a site
type GetSiteQuery struct {
	Site shared.Address
}

// SiteDTO represents a site and its residents
type SiteDTO struct {
	Address           shared.Address
	Resource          shared.Address
	Stake             shared.Address
	BaseProdDaily     decimal.Decimal
	CurrentProdDaily  decimal.Decimal
	TotalPull         decimal.Decimal
	TravelTime        time.Duration
	FixedDestinations []shared.Address
	Residents         []*ResidentDTO
	Attacks           int
}

// ResidentDTO represents one gang at a site
type ResidentDTO struct {
	Gang            shared.EntityRef
	Pull            decimal.Decimal
	Pending         decimal.Decimal
	ResourcesPerDay decimal.Decimal
	Status          site.TravelStatus
	Destination     shared.Address
	ReadyAt         time.Time
	LastAttack      time.Time
	Cooldown        time.Time
	Target          *shared.EntityRef
}

// GetSiteHandler handles the GetSite query
type GetSiteHandler struct {
	world common.Directory
}

// NewGetSiteHandler creates a new GetSiteHandler
func NewGetSiteHandler(world common.Directory) *GetSiteHandler {
	return &GetSiteHandler{world: world}
}

// Handle executes the GetSite query
func (h *GetSiteHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*GetSiteQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetSiteQuery")
	}
	s, err := h.world.Site(query.Site)
	if err != nil {
		return nil, err
	}

	cfg := s.Config()
	dto := &SiteDTO{
		Address:           s.Address(),
		Resource:          cfg.Resource,
		Stake:             cfg.Stake,
		BaseProdDaily:     s.BaseProdDaily(),
		CurrentProdDaily:  s.CurrentProdDaily(),
		TotalPull:         s.TotalPull(),
		TravelTime:        cfg.TravelTime,
		FixedDestinations: s.FixedDestinations(),
		Attacks:           s.AttackLogLength(),
	}
	for _, ref := range s.Residents() {
		if r := Resident(s, ref); r != nil {
			dto.Residents = append(dto.Residents, r)
		}
	}
	return dto, nil
}

// Resident describes ref at s, or nil when it is not there
func Resident(s *site.Site, ref shared.EntityRef) *ResidentDTO {
	travel, ok := s.Travel(ref)
	if !ok {
		return nil
	}

	status := site.TravelStatusWorking
	switch {
	case s.IsReadyToMove(ref):
		status = site.TravelStatusReady
	case s.IsPreparingToMove(ref):
		status = site.TravelStatusPreparing
	}

	attack := s.AttackStatus(ref)
	dto := &ResidentDTO{
		Gang:            ref,
		Pull:            s.Pull(ref),
		Pending:         s.PendingResources(ref),
		ResourcesPerDay: s.ResourcesPerDay(ref),
		Status:          status,
		Destination:     travel.Destination(),
		ReadyAt:         travel.ReadyAt(),
		LastAttack:      attack.LastAttack,
		Cooldown:        attack.Cooldown,
	}
	if attack.HasTarget {
		target := attack.Target
		dto.Target = &target
	}
	return dto
}
