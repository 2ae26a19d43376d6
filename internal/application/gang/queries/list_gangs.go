package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// ListGangsQuery represents a query for the gangs owned by a player
type ListGangsQuery struct {
	Owner shared.Address
}

// ListGangsResponse contains the gangs of the owner
type ListGangsResponse struct {
	Gangs []*GangDTO
}

// ListGangsHandler handles the ListGangs query
type ListGangsHandler struct {
	reader GangReader
}

// NewListGangsHandler creates a new ListGangsHandler
func NewListGangsHandler(reader GangReader) *ListGangsHandler {
	return &ListGangsHandler{reader: reader}
}

// Handle executes the ListGangs query
func (h *ListGangsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListGangsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListGangsQuery")
	}

	refs := h.reader.Registry.TokensOfOwner(query.Owner)
	resp := &ListGangsResponse{Gangs: make([]*GangDTO, 0, len(refs))}
	for _, ref := range refs {
		dto, err := h.reader.describe(ctx, ref)
		if err != nil {
			return nil, err
		}
		resp.Gangs = append(resp.Gangs, dto)
	}
	return resp, nil
}
