package visits

import (
	"context"
	"sort"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/events"
)

type VisitServiceInterface interface {
	GetGroupsAndMembers(ctx context.Context) ([]models.GroupMembers, error)
	RecordVisit(ctx context.Context, meta VisitMeta, rows []models.VisitMemberRow) (models.Visit, error)
	FetchAllVisits(ctx context.Context) ([]models.Visit, error)
	FindVisitsByDate(ctx context.Context, date string) ([]models.Visit, error)
}

// VisitMeta is the header of a field visit to one group.
type VisitMeta struct {
	GroupName     string `validate:"required"`
	Date          string `validate:"required"`
	Time          string
	NextVisitDate string
}

type VisitService struct {
	store  *local.Store
	events *events.LedgerEventService
}

func NewVisitService(store *local.Store, events *events.LedgerEventService) *VisitService {
	return &VisitService{store: store, events: events}
}

// GetGroupsAndMembers lists each group with its members' names, groups in
// first-seen order and members in registration order.
func (s *VisitService) GetGroupsAndMembers(ctx context.Context) ([]models.GroupMembers, error) {
	members, err := local.ListItems(ctx, s.store, local.Members)
	if err != nil {
		return nil, err
	}
	groups := []models.GroupMembers{}
	index := map[string]int{}
	for _, m := range members {
		name := utils.NormalizeName(m.GroupName)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, models.GroupMembers{GroupName: name, Members: []string{}})
		}
		groups[i].Members = append(groups[i].Members, m.FullName)
	}
	return groups, nil
}

// RecordVisit stores one visit with all member rows as given.
func (s *VisitService) RecordVisit(ctx context.Context, meta VisitMeta, rows []models.VisitMemberRow) (models.Visit, error) {
	meta.GroupName = utils.NormalizeName(meta.GroupName)
	if err := utils.ValidateStruct(meta); err != nil {
		return models.Visit{}, err
	}
	memberRows := make([]models.VisitMemberRow, len(rows))
	for i, row := range rows {
		if row.MemberName == "" {
			return models.Visit{}, error_handling.NewValidationError("members.memberName", "must not be empty")
		}
		row.MemberName = utils.NormalizeName(row.MemberName)
		memberRows[i] = row
	}

	visit := models.Visit{
		ID:            utils.NewRowID(),
		GroupName:     meta.GroupName,
		VisitDate:     meta.Date,
		VisitTime:     meta.Time,
		NextVisitDate: meta.NextVisitDate,
		Members:       memberRows,
	}
	if err := local.AddItem(ctx, s.store, local.Visits, visit); err != nil {
		return models.Visit{}, err
	}
	s.events.Emit(ctx, common.SerializeGroupEvent(ctx, consts.EventVisitRecorded, common.Actor(ctx), visit.GroupName))
	return visit, nil
}

func (s *VisitService) FetchAllVisits(ctx context.Context) ([]models.Visit, error) {
	return local.ListItems(ctx, s.store, local.Visits)
}

// FindVisitsByDate returns every visit on date; several groups can be
// visited the same day.
func (s *VisitService) FindVisitsByDate(ctx context.Context, date string) ([]models.Visit, error) {
	all, err := local.ListItems(ctx, s.store, local.Visits)
	if err != nil {
		return nil, err
	}
	out := []models.Visit{}
	for _, v := range all {
		if v.VisitDate == date {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitTime < out[j].VisitTime })
	return out, nil
}
