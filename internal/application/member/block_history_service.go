package member

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
)

// BlockHistoryService reads the block audit log
type BlockHistoryService struct {
	records   member.BlockRecordRepository
	accounts  member.AccountRepository
	directory *DirectoryService
}

// NewBlockHistoryService creates a new BlockHistoryService
func NewBlockHistoryService(records member.BlockRecordRepository, accounts member.AccountRepository, directory *DirectoryService) *BlockHistoryService {
	return &BlockHistoryService{
		records:   records,
		accounts:  accounts,
		directory: directory,
	}
}

// Query returns matching records newest first
func (s *BlockHistoryService) Query(ctx context.Context, filter member.BlockRecordFilter) (*shared.Paginated[BlockRecordResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	records, total, err := s.records.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToBlockRecordResponses(records), total, filter.Page, filter.PageSize)
	return &result, nil
}

// QueryAsViewer is Query restricted to records whose target viewerID can see.
// Administrators see every record.
func (s *BlockHistoryService) QueryAsViewer(ctx context.Context, viewerID uuid.UUID, filter member.BlockRecordFilter) (*shared.Paginated[BlockRecordResponse], error) {
	viewer, err := s.accounts.FindByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	visible, err := s.directory.VisibleIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}
	filter.TargetIn = visible
	return s.Query(ctx, filter)
}
