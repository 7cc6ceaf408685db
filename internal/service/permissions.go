package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
	"pos-order-api/internal/util"

	"go.uber.org/zap"
)

// PermissionRestorer re-grants POS and sales groups. Every run computes
// the desired members, subtracts the current ones and inserts the rest, so
// repeated runs write nothing new.
type PermissionRestorer struct {
	repo       store.Repository
	adminLogin string
	now        func() time.Time
	logger     *zap.Logger
}

// NewPermissionRestorer creates a new permission restorer
func NewPermissionRestorer(repo store.Repository, adminLogin string) *PermissionRestorer {
	return &PermissionRestorer{
		repo:       repo,
		adminLogin: adminLogin,
		now:        time.Now,
		logger:     util.GetLogger(),
	}
}

// Restore gives the administrator the POS manager, POS user and sales
// groups, gives every internal user the POS user group and records the
// run time. It returns the number of memberships granted.
func (p *PermissionRestorer) Restore(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "PermissionRestorer.Restore")
	defer span.End()

	granted := 0
	err := p.repo.Execute(ctx, func(ctx context.Context) error {
		granted = 0

		manager, err := p.repo.FindGroup(ctx, models.GroupPosManager)
		if err != nil {
			return err
		}
		if manager == nil {
			p.logger.Warn("POS manager group not found, skipping permission restore")
			return nil
		}
		posUser, err := p.repo.FindGroup(ctx, models.GroupPosUser)
		if err != nil {
			return err
		}
		sales, err := p.salesGroup(ctx)
		if err != nil {
			return err
		}

		admin, err := p.repo.FindUserByLogin(ctx, p.adminLogin)
		if err != nil {
			return err
		}
		if admin != nil {
			for _, group := range []*models.Group{manager, posUser, sales} {
				if group == nil {
					continue
				}
				n, err := p.reconcile(ctx, group, []int64{admin.ID})
				if err != nil {
					return err
				}
				granted += n
			}
		}

		if posUser != nil {
			ids, err := p.internalUserIDs(ctx)
			if err != nil {
				return err
			}
			n, err := p.reconcile(ctx, posUser, ids)
			if err != nil {
				return err
			}
			granted += n
		}

		return p.repo.SetParam(ctx, models.ParamLastPermissionRestore, p.now().UTC().Format(time.RFC3339))
	})
	if err != nil {
		p.logger.Error("Permission restore failed", zap.Error(err))
		return 0, fmt.Errorf("permission restore failed: %w", err)
	}

	util.PermissionGrantsTotal.WithLabelValues("restore").Add(float64(granted))
	p.logger.Info("Permission restore completed", zap.Int("granted", granted))
	return granted, nil
}

// AutoAssign gives every internal user the POS user group and, when it
// exists, the sales group. It is a no-op unless the auto-assign parameter
// is true (the default when unset).
func (p *PermissionRestorer) AutoAssign(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "PermissionRestorer.AutoAssign")
	defer span.End()

	value, found, err := p.repo.GetParam(ctx, models.ParamAutoAssignGroups)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", models.ParamAutoAssignGroups, err)
	}
	if found && !strings.EqualFold(strings.TrimSpace(value), "true") {
		p.logger.Debug("Group auto-assignment disabled")
		return 0, nil
	}

	granted := 0
	err = p.repo.Execute(ctx, func(ctx context.Context) error {
		granted = 0

		posUser, err := p.repo.FindGroup(ctx, models.GroupPosUser)
		if err != nil {
			return err
		}
		sales, err := p.salesGroup(ctx)
		if err != nil {
			return err
		}

		ids, err := p.internalUserIDs(ctx)
		if err != nil {
			return err
		}
		for _, group := range []*models.Group{posUser, sales} {
			if group == nil {
				continue
			}
			n, err := p.reconcile(ctx, group, ids)
			if err != nil {
				return err
			}
			granted += n
		}
		return nil
	})
	if err != nil {
		p.logger.Error("Group auto-assignment failed", zap.Error(err))
		return 0, fmt.Errorf("group auto-assignment failed: %w", err)
	}

	util.PermissionGrantsTotal.WithLabelValues("auto_assign").Add(float64(granted))
	if granted > 0 {
		p.logger.Info("Groups auto-assigned", zap.Int("granted", granted))
	}
	return granted, nil
}

func (p *PermissionRestorer) salesGroup(ctx context.Context) (*models.Group, error) {
	group, err := p.repo.FindGroup(ctx, models.GroupSaleSalesman)
	if err != nil || group != nil {
		return group, err
	}
	return p.repo.FindGroup(ctx, models.GroupSaleLegacy)
}

func (p *PermissionRestorer) internalUserIDs(ctx context.Context) ([]int64, error) {
	users, err := p.repo.ListInternalUsers(ctx, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(users))
	for i, user := range users {
		ids[i] = user.ID
	}
	return ids, nil
}

// reconcile adds the desired users missing from the group.
func (p *PermissionRestorer) reconcile(ctx context.Context, group *models.Group, desired []int64) (int, error) {
	members, err := p.repo.ListGroupUsers(ctx, group.ID)
	if err != nil {
		return 0, err
	}
	current := make(map[int64]bool, len(members))
	for _, m := range members {
		current[m.ID] = true
	}

	var delta []int64
	for _, id := range desired {
		if !current[id] {
			delta = append(delta, id)
			current[id] = true
		}
	}
	if len(delta) == 0 {
		return 0, nil
	}

	n, err := p.repo.AddGroupMembers(ctx, group.ID, delta)
	if err != nil {
		return 0, err
	}
	p.logger.Info("Granted group",
		zap.String("group", group.XMLID),
		zap.Int64s("user_ids", delta))
	return n, nil
}
