package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eaglebank/personnel-service/shared/models"
)

// MemoryEmployeeRepository keeps records in process memory. It backs the
// "memory" store driver used for local runs.
type MemoryEmployeeRepository struct {
	mu      sync.RWMutex
	records map[string]models.EmployeeRecord
}

func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{records: make(map[string]models.EmployeeRecord)}
}

func (r *MemoryEmployeeRepository) FindAll(_ context.Context) ([]models.EmployeeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]models.EmployeeRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (r *MemoryEmployeeRepository) FindByID(_ context.Context, id string) (*models.EmployeeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &record, nil
}

func (r *MemoryEmployeeRepository) Create(_ context.Context, details models.PersonalDetails) (*models.EmployeeRecord, error) {
	record, err := newRecord(details)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = *record
	return record, nil
}

func (r *MemoryEmployeeRepository) UpdateByID(_ context.Context, id string, changes models.EmployeeChanges) (*models.EmployeeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	changes.Apply(&record.PersonalDetails)
	record.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.records[id] = record
	return &record, nil
}

func (r *MemoryEmployeeRepository) DeleteByID(_ context.Context, id string) (*models.EmployeeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	delete(r.records, id)
	return &record, nil
}
