package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
)

// GroupRequestService handles requests to join a group.
type GroupRequestService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGroupRequestService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *GroupRequestService {
	return &GroupRequestService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "grouprequests"),
	}
}

// Submit files a PENDING request from userID to join groupID.
//
// Checks run in this order: the group must exist (ErrorNotFound), the user
// must not be a player already (ErrorValidation), and no earlier request may
// exist for the pair (ErrorConflict). A concurrent duplicate that slips past
// the check is caught by the storage constraint and reported the same way.
func (s *GroupRequestService) Submit(ctx context.Context, userID, groupID string) (*models.GroupRequest, error) {
	group, err := findGroup(ctx, s.repomanager.Groups(s.db), groupID, s.logger)
	if err != nil {
		return nil, err
	}

	isPlayer, err := s.repomanager.Groups(s.db).IsPlayer(ctx, group.ID, userID)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "check membership", err)
	}
	if isPlayer {
		return nil, fmt.Errorf("%w: user is already a player of this group", common.ErrorValidation)
	}

	requests := s.repomanager.GroupRequests(s.db)

	exists, err := requests.Exists(ctx, userID, group.ID)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "check group request", err)
	}
	if exists {
		return nil, requestConflict()
	}

	gr, err := requests.Create(ctx, userID, group.ID)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, requestConflict()
		}
		return nil, passThrough(ctx, s.logger, "create group request", err)
	}

	s.logger.Info(ctx, "group request submitted", "group_id", group.ID, "user_id", userID)
	return gr, nil
}

// List returns the requests of groupID. An empty status lists all of them.
func (s *GroupRequestService) List(ctx context.Context, groupID string, status string) ([]models.GroupRequest, error) {
	st := models.RequestStatus(status)
	if status != "" && !st.Valid() {
		return nil, fmt.Errorf("%w: status: must be one of PENDING, APPROVED, REJECTED", common.ErrorValidation)
	}

	group, err := findGroup(ctx, s.repomanager.Groups(s.db), groupID, s.logger)
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.GroupRequests(s.db).ListByGroup(ctx, group.ID, st)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "list group requests", err)
	}
	return list, nil
}

func requestConflict() error {
	return fmt.Errorf("%w: group request already exists", common.ErrorConflict)
}
