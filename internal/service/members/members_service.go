package members

import (
	"context"
	"sort"

	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/events"

	"go.uber.org/zap"
)

const defaultMemberStatus = "Active"

type MemberServiceInterface interface {
	List(ctx context.Context) ([]models.Member, error)
	Get(ctx context.Context, nationalID string) (models.Member, error)
	FindByName(ctx context.Context, groupName, fullName string) (models.Member, error)
	Add(ctx context.Context, member models.Member) (models.Member, error)
	Update(ctx context.Context, member models.Member) (models.Member, error)
	Delete(ctx context.Context, nationalID string) error
	ListGroups(ctx context.Context) ([]models.GroupSummary, error)
	RenameGroup(ctx context.Context, oldName, newName string) (int, error)
}

// MemberService is the member registry. Groups are not stored: they are
// derived from the members' group names.
type MemberService struct {
	store  *local.Store
	events *events.LedgerEventService
}

func NewMemberService(store *local.Store, events *events.LedgerEventService) *MemberService {
	return &MemberService{store: store, events: events}
}

func normalizeMember(m models.Member) models.Member {
	m.FullName = utils.NormalizeName(m.FullName)
	m.GroupName = utils.NormalizeName(m.GroupName)
	m.NextOfKinFullName = utils.NormalizeName(m.NextOfKinFullName)
	if m.MemberStatus == "" {
		m.MemberStatus = defaultMemberStatus
	}
	return m
}

func (s *MemberService) List(ctx context.Context) ([]models.Member, error) {
	return local.ListItems(ctx, s.store, local.Members)
}

func (s *MemberService) Get(ctx context.Context, nationalID string) (models.Member, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return models.Member{}, err
	}
	member, ok := local.Members.Find(snap, nationalID)
	if !ok {
		return models.Member{}, error_handling.NewNotFoundError(consts.MembersCollection, nationalID)
	}
	return member, nil
}

// FindByName looks a member up by normalized (group, full name).
func (s *MemberService) FindByName(ctx context.Context, groupName, fullName string) (models.Member, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return models.Member{}, err
	}
	key := utils.MemberKey(groupName, fullName)
	for _, m := range snap.Members {
		if utils.MemberKey(m.GroupName, m.FullName) == key {
			return m, nil
		}
	}
	return models.Member{}, error_handling.NewNotFoundError(consts.MembersCollection, key)
}

// Add registers a member. National IDs are unique across the registry.
func (s *MemberService) Add(ctx context.Context, member models.Member) (models.Member, error) {
	member = normalizeMember(member)
	if err := utils.ValidateStruct(member); err != nil {
		return models.Member{}, err
	}
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		if _, exists := local.Members.Find(snap, member.NationalID); exists {
			return error_handling.NewValidationError("nationalId", "already registered")
		}
		local.Members.Append(snap, member)
		return nil
	})
	if err != nil {
		return models.Member{}, err
	}
	s.events.Emit(ctx, common.SerializeMemberEvent(ctx, consts.EventMemberRegistered, common.Actor(ctx), member))
	return member, nil
}

// Update replaces the member with the same national ID.
func (s *MemberService) Update(ctx context.Context, member models.Member) (models.Member, error) {
	member = normalizeMember(member)
	if err := utils.ValidateStruct(member); err != nil {
		return models.Member{}, err
	}
	if err := local.UpdateItem(ctx, s.store, local.Members, member); err != nil {
		return models.Member{}, err
	}
	s.events.Emit(ctx, common.SerializeMemberEvent(ctx, consts.EventMemberUpdated, common.Actor(ctx), member))
	return member, nil
}

func (s *MemberService) Delete(ctx context.Context, nationalID string) error {
	var removed models.Member
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		removed, _ = local.Members.Find(snap, nationalID)
		return local.Members.Remove(snap, nationalID)
	})
	if err != nil {
		return err
	}
	s.events.Emit(ctx, common.SerializeMemberEvent(ctx, consts.EventMemberDeleted, common.Actor(ctx), removed))
	return nil
}

// ListGroups derives the groups from the registry, sorted by name. Members
// without a group are listed under UNASSIGNED.
func (s *MemberService) ListGroups(ctx context.Context) ([]models.GroupSummary, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]*models.GroupSummary{}
	for _, m := range snap.Members {
		name := utils.NormalizeName(m.GroupName)
		if name == "" {
			name = consts.UnassignedGroupName
		}
		group, ok := byName[name]
		if !ok {
			group = &models.GroupSummary{Name: name, Members: []models.GroupMemberStatus{}}
			byName[name] = group
		}
		group.MemberCount++
		group.Members = append(group.Members, models.GroupMemberStatus{Name: m.FullName, Status: m.MemberStatus})
	}

	groups := make([]models.GroupSummary, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// RenameGroup moves every record of oldName to newName: members, savings,
// withdrawals, loans and their payments and defaulter records, and visits.
// Running totals of a member present under both names are merged. It returns
// the number of records changed.
func (s *MemberService) RenameGroup(ctx context.Context, oldName, newName string) (int, error) {
	from := utils.NormalizeName(oldName)
	to := utils.NormalizeName(newName)
	if to == "" {
		return 0, error_handling.NewValidationError("newName", "must not be empty")
	}
	if from == to {
		return 0, nil
	}

	changed := 0
	err := s.store.Mutate(ctx, func(snap *models.Snapshot) error {
		changed = renameGroup(snap, from, to)
		if changed == 0 {
			return error_handling.NewNotFoundError("groups", from)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.CtxInfo(ctx, log_messages.GroupRenamed,
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("records", changed),
	)
	s.events.Emit(ctx, common.SerializeGroupEvent(ctx, consts.EventGroupRenamed, common.Actor(ctx), to))
	return changed, nil
}

func renameGroup(snap *models.Snapshot, from, to string) int {
	changed := 0
	matches := func(name string) bool { return utils.NormalizeName(name) == from }

	for i := range snap.Members {
		if matches(snap.Members[i].GroupName) {
			snap.Members[i].GroupName = to
			changed++
		}
	}
	for i := range snap.Savings {
		if matches(snap.Savings[i].GroupName) {
			snap.Savings[i].GroupName = to
			changed++
		}
	}
	for i := range snap.Withdrawals {
		if matches(snap.Withdrawals[i].GroupName) {
			snap.Withdrawals[i].GroupName = to
			changed++
		}
	}
	for _, loans := range []*[]models.Loan{&snap.GroupLoans, &snap.LongTermLoans, &snap.ShortTermLoans} {
		for i := range *loans {
			loan := &(*loans)[i]
			if matches(loan.GroupName) {
				loan.GroupName = to
				loan.Name = utils.BorrowerName(to, loan.MemberName)
				changed++
			}
		}
	}
	for i := range snap.ContinuingPayments {
		if matches(snap.ContinuingPayments[i].GroupName) {
			snap.ContinuingPayments[i].GroupName = to
			changed++
		}
	}
	for i := range snap.Defaulters {
		if matches(snap.Defaulters[i].GroupName) {
			snap.Defaulters[i].GroupName = to
			changed++
		}
	}
	for i := range snap.Visits {
		if matches(snap.Visits[i].GroupName) {
			snap.Visits[i].GroupName = to
			changed++
		}
	}

	// Totals are keyed by (group, member): fold renamed rows into any row the
	// member already has under the new name.
	totals := make([]models.TotalSaving, 0, len(snap.TotalSavings))
	index := map[string]int{}
	for _, t := range snap.TotalSavings {
		if matches(t.GroupName) {
			t.GroupName = to
			changed++
		}
		key := utils.MemberKey(t.GroupName, t.MemberName)
		if i, ok := index[key]; ok {
			totals[i].TotalAmount += t.TotalAmount
			continue
		}
		index[key] = len(totals)
		totals = append(totals, t)
	}
	snap.TotalSavings = totals
	return changed
}
