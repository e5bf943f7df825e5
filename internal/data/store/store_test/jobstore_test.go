package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/akolanti/alexandria/internal/data/redisStore"
	"github.com/akolanti/alexandria/internal/data/store"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	internalStore := redisStore.NewTestStore(client)
	jobStore := store.TestJobStore(internalStore)

	ctx := logger_i.WithTrace(context.Background(), "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:         jobID,
		DocumentId: "doc-1",
		Status:     jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			Generation: "gen-1",
			FileName:   "paper.pdf",
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		err := jobStore.SaveJob(ctx, testJob)
		if err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}

		if retrievedJob.JobPayload.Generation != testJob.JobPayload.Generation {
			t.Errorf("Data mismatch! Got %s, want %s",
				retrievedJob.JobPayload.Generation, testJob.JobPayload.Generation)
		}
		if ttl := mr.TTL("job:" + jobID); ttl <= 0 {
			t.Errorf("expected a TTL on the job key, got %v", ttl)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "ghost-id")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Corrupt Job", func(t *testing.T) {
		_ = mr.Set("job:broken", "{not json")
		if _, found := jobStore.GetJob(ctx, "broken"); found {
			t.Error("Expected found=false for a corrupt job")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)

		if mr.Exists("job:" + jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.TestJobStore(redisStore.NewTestStore(client))

	ctx := logger_i.WithTrace(context.Background(), "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job missing after concurrent writes")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	s := store.InitInMemoryJobStore()
	ctx := context.Background()

	if err := s.SaveJob(ctx, jobModel.Job{Id: "a", Status: jobModel.JobStatusQueued}); err != nil {
		t.Fatal(err)
	}
	got, found := s.GetJob(ctx, "a")
	if !found || got.Status != jobModel.JobStatusQueued {
		t.Fatalf("got %+v found=%v", got, found)
	}
	s.DeleteJob(ctx, "a")
	if _, found = s.GetJob(ctx, "a"); found {
		t.Error("job still present after delete")
	}
}
