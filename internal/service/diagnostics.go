package service

import (
	"context"
	"fmt"
	"time"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"

	"github.com/shopspring/decimal"
)

// UserInfo describes an internal user and the groups they belong to
type UserInfo struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Active bool     `json:"active"`
	Share  bool     `json:"share"`
	Groups []string `json:"groups"`
}

// GroupInfo counts the members of one notification group
type GroupInfo struct {
	Name        string   `json:"name"`
	XMLID       string   `json:"xml_id"`
	TotalUsers  int      `json:"total_users"`
	ActiveUsers int      `json:"active_users"`
	UserNames   []string `json:"user_names"`
	Error       string   `json:"error,omitempty"`
}

// UsersReport is the diagnostic view of who can be notified
type UsersReport struct {
	TotalInternalUsers int         `json:"total_internal_users"`
	Users              []UserInfo  `json:"users"`
	GroupsInfo         []GroupInfo `json:"groups_info"`
	Timestamp          string      `json:"timestamp"`
}

var reportedGroups = []struct{ xmlID, name string }{
	{models.GroupPosManager, "POS Manager"},
	{models.GroupPosUser, "POS User"},
	{models.GroupSaleSalesman, "Sales User"},
	{models.GroupSaleManager, "Sales Manager"},
	{models.GroupInternalUser, "Internal User"},
	{models.GroupSystem, "Settings"},
}

// Diagnostics reports on users and groups and sends test notifications
type Diagnostics struct {
	repo      store.Repository
	broadcast *BroadcastStrategy
	now       func() time.Time
}

// NewDiagnostics creates a new diagnostics service
func NewDiagnostics(repo store.Repository, broadcast *BroadcastStrategy) *Diagnostics {
	return &Diagnostics{repo: repo, broadcast: broadcast, now: time.Now}
}

// Users lists internal users with their groups and the membership of
// every notification group
func (d *Diagnostics) Users(ctx context.Context) (*UsersReport, error) {
	users, err := d.repo.ListInternalUsers(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list internal users: %w", err)
	}

	report := &UsersReport{
		TotalInternalUsers: len(users),
		Users:              make([]UserInfo, 0, len(users)),
		GroupsInfo:         d.groups(ctx),
		Timestamp:          d.now().UTC().Format(time.RFC3339),
	}

	for _, user := range users {
		groups, err := d.repo.ListUserGroups(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list groups of user %d: %w", user.ID, err)
		}
		names := make([]string, len(groups))
		for i, g := range groups {
			names[i] = g.Name
		}
		report.Users = append(report.Users, UserInfo{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Active: user.Active,
			Share:  user.Share,
			Groups: names,
		})
	}
	return report, nil
}

func (d *Diagnostics) groups(ctx context.Context) []GroupInfo {
	infos := make([]GroupInfo, 0, len(reportedGroups))
	for _, rg := range reportedGroups {
		info := GroupInfo{Name: rg.name, XMLID: rg.xmlID, UserNames: []string{}}

		group, err := d.repo.FindGroup(ctx, rg.xmlID)
		if err != nil {
			info.Error = err.Error()
		} else if group == nil {
			info.Error = "group not found"
		} else if members, err := d.repo.ListGroupUsers(ctx, group.ID); err != nil {
			info.Error = err.Error()
		} else {
			info.TotalUsers = len(members)
			for _, m := range members {
				if m.Active {
					info.ActiveUsers++
					info.UserNames = append(info.UserNames, m.Name)
				}
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// SendTestNotification broadcasts a synthetic order and returns how many
// users were reached
func (d *Diagnostics) SendTestNotification(ctx context.Context) (int, error) {
	return d.broadcast.Broadcast(ctx, Payload{
		OrderID:     99999,
		Reference:   "TEST-NOTIFICATION",
		PartnerID:   models.SentinelID,
		PosName:     "Test Store",
		AmountTotal: decimal.NewFromFloat(25.50),
	})
}
