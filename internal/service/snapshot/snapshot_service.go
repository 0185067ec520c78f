package snapshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	pkgmodels "github.com/Nevi32/wofuo1/internal/pkg/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"go.uber.org/zap"
)

var errReadBackMismatch = errors.New("artifact read back differs from the uploaded snapshot")

type SnapshotServiceInterface interface {
	PushSnapshot(ctx context.Context) (*TransferResult, error)
	PullSnapshot(ctx context.Context) (*TransferResult, error)
	ClearLedger(ctx context.Context) error
}

// TransferResult summarizes one snapshot transfer.
type TransferResult struct {
	Path    string         `json:"path"`
	Bytes   int            `json:"bytes"`
	Records map[string]int `json:"records"`
}

// SnapshotService moves the whole ledger to and from one artifact.
//
// PushSnapshot is destructive: once the upload is verified the local ledger
// is wiped and only the pushing user's own record is kept.
type SnapshotService struct {
	store               *local.Store
	artifacts           interfaces.ArtifactStore
	identity            interfaces.IdentityProvider
	path                string
	privilegedEmails    map[string]struct{}
	privilegedUsernames map[string]struct{}
}

func NewSnapshotService(
	store *local.Store,
	artifacts interfaces.ArtifactStore,
	identity interfaces.IdentityProvider,
	artifactCfg config.ArtifactConfig,
	authCfg config.AuthConfig,
) *SnapshotService {
	path := artifactCfg.Path
	if path == "" {
		path = consts.DefaultArtifactPath
	}
	return &SnapshotService{
		store:               store,
		artifacts:           artifacts,
		identity:            identity,
		path:                path,
		privilegedEmails:    lowerSet(authCfg.PrivilegedEmails),
		privilegedUsernames: lowerSet(authCfg.PrivilegedUsernames),
	}
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func (s *SnapshotService) privileged(identity *pkgmodels.Identity) bool {
	if _, ok := s.privilegedEmails[strings.ToLower(identity.Email)]; ok {
		return true
	}
	if identity.Username == "" {
		return false
	}
	_, ok := s.privilegedUsernames[strings.ToLower(identity.Username)]
	return ok
}

func (s *SnapshotService) currentIdentity(ctx context.Context, op string) (*pkgmodels.Identity, error) {
	if s.identity == nil {
		return nil, error_handling.NewAuthenticationRequiredError(op)
	}
	identity, ok := s.identity.CurrentIdentity(ctx)
	if !ok {
		return nil, error_handling.NewAuthenticationRequiredError(op)
	}
	return identity, nil
}

// PushSnapshot uploads the ledger, reads it back, and on an identical read
// back replaces local state with the caller's own user record.
func (s *SnapshotService) PushSnapshot(ctx context.Context) (*TransferResult, error) {
	const op = "snapshot push"
	identity, err := s.currentIdentity(ctx, op)
	if err != nil {
		return nil, err
	}
	if !s.privileged(identity) {
		return nil, error_handling.NewUnauthorizedError(identity.Email, op)
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	payload := []byte(base64.StdEncoding.EncodeToString(raw))

	commitMessage := fmt.Sprintf("Update %s from ledger snapshot push by %s", s.path, identity.Email)
	if err := s.artifacts.PutFile(ctx, s.path, payload, commitMessage); err != nil {
		return nil, error_handling.NewRemoteUnavailableError(op, err)
	}

	stored, err := s.artifacts.GetFile(ctx, s.path)
	if err != nil {
		return nil, error_handling.NewRemoteUnavailableError("snapshot verify", err)
	}
	if !bytes.Equal(bytes.TrimSpace(stored), payload) {
		logger.CtxError(ctx, log_messages.SnapshotVerificationFailed, errReadBackMismatch,
			zap.String("path", s.path), zap.Int("uploaded", len(payload)), zap.Int("read_back", len(stored)))
		return nil, error_handling.NewRemoteUnavailableError("snapshot verify", errReadBackMismatch)
	}
	logger.CtxInfo(ctx, log_messages.SnapshotPushed, zap.String("path", s.path), zap.Int("bytes", len(payload)))

	reseeded := models.NewSnapshot()
	own, ok := findUser(snap, identity.Email)
	if !ok {
		own = models.User{Email: strings.ToLower(identity.Email), Username: identity.Username, DisplayName: identity.DisplayName}
	}
	local.Users.Append(reseeded, own)
	if err := s.store.Reset(ctx, reseeded); err != nil {
		return nil, err
	}
	logger.CtxWarn(ctx, log_messages.SnapshotLocalWipe, zap.String("identity", identity.Email))

	return &TransferResult{Path: s.path, Bytes: len(payload), Records: recordCounts(snap)}, nil
}

// findUser matches the stored email case-insensitively; artifacts written by
// older clients keep emails in the case they were typed.
func findUser(snap *models.Snapshot, email string) (models.User, bool) {
	for _, u := range snap.Users {
		if strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email)) {
			return u, true
		}
	}
	return models.User{}, false
}

// ClearLedger wipes every local collection. Only privileged users may do it.
func (s *SnapshotService) ClearLedger(ctx context.Context) error {
	const op = "ledger clear"
	identity, err := s.currentIdentity(ctx, op)
	if err != nil {
		return err
	}
	if !s.privileged(identity) {
		return error_handling.NewUnauthorizedError(identity.Email, op)
	}
	return s.store.Clear(ctx)
}

// PullSnapshot replaces the local ledger with the artifact's contents.
func (s *SnapshotService) PullSnapshot(ctx context.Context) (*TransferResult, error) {
	const op = "snapshot pull"
	if _, err := s.currentIdentity(ctx, op); err != nil {
		return nil, err
	}

	data, err := s.artifacts.GetFile(ctx, s.path)
	if err != nil {
		return nil, error_handling.NewRemoteUnavailableError(op, err)
	}
	snap, err := decodeArtifact(data)
	if err != nil {
		return nil, error_handling.NewStorageCorruptError("artifact "+s.path, err)
	}
	if err := s.store.Reset(ctx, snap); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, log_messages.SnapshotPulled, zap.String("path", s.path), zap.Int("bytes", len(data)))
	return &TransferResult{Path: s.path, Bytes: len(data), Records: recordCounts(snap)}, nil
}

// decodeArtifact accepts base64 with embedded line breaks, as content APIs
// commonly return it.
func decodeArtifact(data []byte) (*models.Snapshot, error) {
	compact := strings.Join(strings.Fields(string(data)), "")
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	snap := models.NewSnapshot()
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

func recordCounts(snap *models.Snapshot) map[string]int {
	counts := make(map[string]int, len(local.AllCollections))
	for _, c := range local.AllCollections {
		counts[c.CollectionName()] = c.Len(snap)
	}
	return counts
}
