package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/jobfill/internal/types"
)

// AppendApplication adds rec to the appliedJobs list. It reads, appends and
// writes back; two writers racing on the same store can lose a record.
func AppendApplication(ctx context.Context, s Store, rec types.ApplicationRecord) error {
	records, err := ListApplications(ctx, s)
	if err != nil {
		return err
	}
	records = append(records, rec)
	return SetJSON(ctx, s, KeyAppliedJobs, records)
}

// ListApplications returns every recorded application, oldest first.
func ListApplications(ctx context.Context, s Store) ([]types.ApplicationRecord, error) {
	var records []types.ApplicationRecord
	if _, err := GetJSON(ctx, s, KeyAppliedJobs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// JobKey is the key a posting detected at t is stored under.
func JobKey(t time.Time) string {
	return JobKeyPrefix + strconv.FormatInt(t.UnixMilli(), 10)
}

// SaveDetectedJob stores job under its detection time and returns the key.
func SaveDetectedJob(ctx context.Context, s Store, job types.JobPosting) (string, error) {
	at := job.DetectedAt
	if at.IsZero() {
		at = time.Now()
	}
	key := JobKey(at)
	if err := SetJSON(ctx, s, key, job); err != nil {
		return "", err
	}
	return key, nil
}

// ListDetectedJobs returns every stored posting ordered by detection time.
func ListDetectedJobs(ctx context.Context, s Store) ([]types.JobPosting, error) {
	keys, err := s.Keys(ctx, JobKeyPrefix)
	if err != nil {
		return nil, err
	}

	jobs := make([]types.JobPosting, 0, len(keys))
	for _, key := range keys {
		if _, err := strconv.ParseInt(strings.TrimPrefix(key, JobKeyPrefix), 10, 64); err != nil {
			continue
		}
		var job types.JobPosting
		ok, err := GetJSON(ctx, s, key, &job)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// Badge returns the unseen-detections counter.
func Badge(ctx context.Context, s Store) (int, error) {
	var n int
	if _, err := GetJSON(ctx, s, KeyBadge, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// IncrementBadge adds one to the badge counter and returns the new value.
func IncrementBadge(ctx context.Context, s Store) (int, error) {
	n, err := Badge(ctx, s)
	if err != nil {
		return 0, err
	}
	n++
	if err := SetJSON(ctx, s, KeyBadge, n); err != nil {
		return 0, err
	}
	return n, nil
}

// ResetBadge clears the badge counter.
func ResetBadge(ctx context.Context, s Store) error {
	return SetJSON(ctx, s, KeyBadge, 0)
}

// Recorder appends application records to a Store.
type Recorder struct {
	Store Store
}

// RecordApplication appends rec to the applied jobs list.
func (r Recorder) RecordApplication(ctx context.Context, rec types.ApplicationRecord) error {
	return AppendApplication(ctx, r.Store, rec)
}
