// sources.go: source records mirror image operations at lower cardinality.
package datastore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tkivisto/wallshift/internal/errors"
)

// GetSource retrieves a source by id, (nil, nil) when absent.
func (ds *DataStore) GetSource(sourceID string) (*SourceRecord, error) {
	defer ds.lock()()

	var source SourceRecord
	err := ds.DB.First(&source, "source_id = ?", sourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "get_source", "source_id", sourceID)
	}
	return &source, nil
}

// UpsertSource creates the source if missing; an existing row keeps its
// rotation state and only refreshes the type.
func (ds *DataStore) UpsertSource(source *SourceRecord) error {
	defer ds.lock()()

	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_type"}),
	}).Create(source).Error
	if err != nil {
		return dbError(err, "upsert_source", "source_id", source.SourceID)
	}
	return nil
}

// GetAllSources retrieves every source record.
func (ds *DataStore) GetAllSources() ([]SourceRecord, error) {
	defer ds.lock()()

	var sources []SourceRecord
	if err := ds.DB.Order("source_id").Find(&sources).Error; err != nil {
		return nil, dbError(err, "get_all_sources")
	}
	return sources, nil
}

// GetSourcesByIDs batch-loads sources into a map keyed by source id. A single
// IN query regardless of input size; the selection engine calls this once per
// scoring pass.
func (ds *DataStore) GetSourcesByIDs(sourceIDs []string) (map[string]SourceRecord, error) {
	if len(sourceIDs) == 0 {
		return map[string]SourceRecord{}, nil
	}
	defer ds.lock()()

	var sources []SourceRecord
	if err := ds.DB.Where("source_id IN ?", sourceIDs).Find(&sources).Error; err != nil {
		return nil, dbError(err, "get_sources_by_ids", "count", len(sourceIDs))
	}

	result := make(map[string]SourceRecord, len(sources))
	for _, source := range sources {
		result[source.SourceID] = source
	}
	return result, nil
}
