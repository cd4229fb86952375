package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
)

// CreateGroupInput is the payload of a new group. Master is the user id of
// the group's owner.
type CreateGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	Location    string `json:"location"`
	Chronic     string `json:"chronic"`
	Master      string `json:"master"`
}

func (in CreateGroupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.Schedule, validation.Required),
		validation.Field(&in.Location, validation.Required),
		validation.Field(&in.Chronic, validation.Required),
		validation.Field(&in.Master, validation.Required),
	)
}

// GroupService is the group registry.
type GroupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewGroupService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *GroupService {
	return &GroupService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "groups"),
	}
}

// Create inserts the group and enrolls its master in one transaction. The
// returned group lists the master as its only player.
func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	masterErr := fmt.Errorf("%w: master: user does not exist", common.ErrorValidation)
	if !validID(in.Master) {
		return nil, masterErr
	}
	master, err := s.repomanager.Users(s.db).GetByID(ctx, in.Master)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, masterErr
		}
		return nil, passThrough(ctx, s.logger, "lookup master", err)
	}

	group := &models.Group{
		Name:        in.Name,
		Description: in.Description,
		Schedule:    in.Schedule,
		Location:    in.Location,
		Chronic:     in.Chronic,
		MasterID:    master.ID,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Groups(tx)
		if _, err := repo.Create(ctx, group); err != nil {
			return err
		}
		return repo.AddPlayer(ctx, group.ID, master.ID)
	})
	if err != nil {
		return nil, passThrough(ctx, s.logger, "create group", err)
	}

	group.Players = []models.User{*sanitize(master)}
	s.logger.Info(ctx, "group created", "group_id", group.ID, "master_id", master.ID)
	return group, nil
}

// Get returns the group with its roster.
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := findGroup(ctx, s.repomanager.Groups(s.db), groupID, s.logger)
	if err != nil {
		return nil, err
	}
	players, err := s.repomanager.Groups(s.db).ListPlayers(ctx, group.ID)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "list players", err)
	}
	group.Players = players
	return group, nil
}

type groupFinder interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
}

func findGroup(ctx context.Context, repo groupFinder, groupID string, logger logging.Logger) (*models.Group, error) {
	if !validID(groupID) {
		return nil, fmt.Errorf("%w: group", common.ErrorNotFound)
	}
	group, err := repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: group", common.ErrorNotFound)
		}
		return nil, passThrough(ctx, logger, "get group", err)
	}
	return group, nil
}
