package syncengine

import (
	"encoding/json"
	"fmt"

	pkgmodels "github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
)

// syncer describes how one collection is reconciled with the remote store.
type syncer struct {
	collection local.AnyCollection

	// matchFields always take part in the remote lookup.
	matchFields []string
	// optionalFields join the lookup only when the record carries them.
	optionalFields []string
	// resolveNationalID attaches the member's national id from the member
	// registry before matching. Records whose member is unknown are skipped.
	resolveNationalID bool
	// purgeWhenEmpty removes every remote record when the local collection
	// is empty.
	purgeWhenEmpty bool
}

var (
	loanMatch    = []string{"id"}
	savingsMatch = []string{"groupName", "memberName", "nationalId"}
)

// syncers covers every snapshot collection, in layout order.
var syncers = []syncer{
	{collection: local.Users, matchFields: []string{"email"}},
	{collection: local.Members, matchFields: []string{"groupName", "fullName", "nationalId"}},
	{collection: local.Savings, matchFields: savingsMatch, optionalFields: []string{"id", "savingDate"},
		resolveNationalID: true},
	{collection: local.TotalSavings, matchFields: savingsMatch, resolveNationalID: true},
	{collection: local.Withdrawals, matchFields: savingsMatch, optionalFields: []string{"id", "withdrawDate"},
		resolveNationalID: true},
	{collection: local.GroupLoans, matchFields: loanMatch},
	{collection: local.LongTermLoans, matchFields: loanMatch},
	{collection: local.ShortTermLoans, matchFields: loanMatch},
	{collection: local.ContinuingPayments, matchFields: []string{"id", "loanId"}},
	{collection: local.Defaulters, matchFields: []string{"id", "loanId"}, purgeWhenEmpty: true},
	{collection: local.Visits, matchFields: []string{"groupName", "visitDate"}},
}

func (s syncer) name() string { return s.collection.CollectionName() }

// filter builds the remote lookup for one record's fields.
func (s syncer) filter(fields map[string]interface{}) map[string]interface{} {
	filter := make(map[string]interface{}, len(s.matchFields)+len(s.optionalFields))
	for _, f := range s.matchFields {
		filter[f] = fields[f]
	}
	for _, f := range s.optionalFields {
		if v, ok := fields[f]; ok && v != "" && v != nil {
			filter[f] = v
		}
	}
	return filter
}

// recordFields flattens a record into the field map stored remotely.
func recordFields(rec models.Record) (map[string]interface{}, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.RecordID(), err)
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.RecordID(), err)
	}
	return fields, nil
}

// documentsSnapshot decodes remote documents of one collection into a
// snapshot holding only that collection.
func documentsSnapshot(collection string, docs []pkgmodels.RemoteDocument) (*models.Snapshot, error) {
	rows := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, doc.Fields)
	}
	data, err := json.Marshal(map[string]interface{}{collection: rows})
	if err != nil {
		return nil, fmt.Errorf("decode %s documents: %w", collection, err)
	}
	snap := models.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode %s documents: %w", collection, err)
	}
	snap.Normalize()
	return snap, nil
}

// memberRegistry maps a normalized (group, member) key to the member's
// national id.
func memberRegistry(snap *models.Snapshot) map[string]string {
	registry := make(map[string]string, len(snap.Members))
	for _, m := range snap.Members {
		registry[utils.MemberKey(m.GroupName, m.FullName)] = m.NationalID
	}
	return registry
}

func stringField(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}
