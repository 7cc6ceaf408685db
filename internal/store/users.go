package store

import (
	"context"
	"fmt"

	"pos-order-api/internal/models"

	"github.com/lib/pq"
)

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	found, err := s.get(ctx, &user, "SELECT * FROM res_users WHERE id = $1", id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// FindUserByLogin retrieves a user by login
func (s *Store) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	found, err := s.get(ctx, &user, "SELECT * FROM res_users WHERE login = $1", login)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// ListInternalUsers retrieves active non-shared users
func (s *Store) ListInternalUsers(ctx context.Context, limit int) ([]models.User, error) {
	query := "SELECT * FROM res_users WHERE active = TRUE AND share = FALSE ORDER BY id"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var users []models.User
	err := s.selectAll(ctx, &users, query, args...)
	return users, err
}

// ListSessionUsers retrieves the owners of the latest sessions in the given states
func (s *Store) ListSessionUsers(ctx context.Context, states []string, limit int) ([]models.User, error) {
	query := `
		SELECT u.* FROM res_users u
		JOIN (
			SELECT id, user_id FROM pos_session
			WHERE state = ANY($1)
			ORDER BY id DESC
			LIMIT $2
		) s ON s.user_id = u.id
		ORDER BY s.id DESC`

	var users []models.User
	err := s.selectAll(ctx, &users, query, pq.Array(states), limit)
	return users, err
}

// FindGroup retrieves a group by xml id
func (s *Store) FindGroup(ctx context.Context, xmlID string) (*models.Group, error) {
	var group models.Group
	found, err := s.get(ctx, &group, "SELECT * FROM res_groups WHERE xml_id = $1", xmlID)
	if err != nil || !found {
		return nil, err
	}
	return &group, nil
}

// ListGroupUsers retrieves all members of a group
func (s *Store) ListGroupUsers(ctx context.Context, groupID int64) ([]models.User, error) {
	var users []models.User
	err := s.selectAll(ctx, &users, `
		SELECT u.* FROM res_users u
		JOIN res_groups_users gu ON gu.user_id = u.id
		WHERE gu.group_id = $1
		ORDER BY u.id`, groupID)
	return users, err
}

// ListUserGroups retrieves the groups a user belongs to
func (s *Store) ListUserGroups(ctx context.Context, userID int64) ([]models.Group, error) {
	var groups []models.Group
	err := s.selectAll(ctx, &groups, `
		SELECT g.* FROM res_groups g
		JOIN res_groups_users gu ON gu.group_id = g.id
		WHERE gu.user_id = $1
		ORDER BY g.id`, userID)
	return groups, err
}

// AddGroupMembers grants a group to users, skipping existing memberships
func (s *Store) AddGroupMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	res, err := s.exec(ctx, `
		INSERT INTO res_groups_users (group_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (group_id, user_id) DO NOTHING`, groupID, pq.Array(userIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to add group members: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// GetParam reads a configuration parameter
func (s *Store) GetParam(ctx context.Context, key string) (string, bool, error) {
	var value string
	found, err := s.get(ctx, &value, "SELECT value FROM ir_config_parameter WHERE key = $1", key)
	return value, found, err
}

// SetParam writes a configuration parameter
func (s *Store) SetParam(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, `
		INSERT INTO ir_config_parameter (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}
