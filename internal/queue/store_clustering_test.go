package queue_test

import (
	"context"
	"testing"

	"finback/internal/queue"
	"finback/internal/testsupport"
)

func insertEmbeddingSet(t *testing.T, store *queue.Store, audioID, sig string, rows int) *queue.EmbeddingSet {
	t.Helper()
	set, err := store.InsertEmbeddingSet(context.Background(), &queue.EmbeddingSet{
		AudioFileID:       audioID,
		EncodingSignature: sig,
		ModelName:         "test_model",
		WindowSeconds:     5.0,
		SampleRate:        32000,
		VectorDim:         8,
		ArtifactPath:      "/tmp/" + sig + ".parquet",
		RowCount:          rows,
	})
	if err != nil {
		t.Fatalf("InsertEmbeddingSet: %v", err)
	}
	return set
}

func TestEnqueueClusteringJobRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 10)

	job, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{
		EmbeddingSetIDs: []string{set.ID},
		Params:          map[string]any{"n_clusters": float64(3)},
	})
	if err != nil {
		t.Fatalf("EnqueueClusteringJob: %v", err)
	}
	if job.Status != queue.StatusQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}

	fetched, err := store.GetClusteringJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetClusteringJob: %v", err)
	}
	if len(fetched.EmbeddingSetIDs) != 1 || fetched.EmbeddingSetIDs[0] != set.ID {
		t.Fatalf("embedding set ids did not round-trip: %v", fetched.EmbeddingSetIDs)
	}
	if fetched.Params["n_clusters"] != float64(3) {
		t.Fatalf("params did not round-trip: %v", fetched.Params)
	}
}

func TestEnqueueClusteringJobRequiresSets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.EnqueueClusteringJob(context.Background(), &queue.ClusteringJob{}); err == nil {
		t.Fatal("expected error for empty embedding set ids")
	}
}

func TestClaimClusteringJobFIFO(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 10)

	first, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue first: %v", err)
	}
	second, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	claimed, err := store.ClaimClusteringJob(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("claim = %+v, want %s", claimed, first.ID)
	}
	if claimed.Status != queue.StatusRunning {
		t.Fatalf("claimed status = %s", claimed.Status)
	}

	claimed, err = store.ClaimClusteringJob(ctx)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed == nil || claimed.ID != second.ID {
		t.Fatalf("second claim = %+v, want %s", claimed, second.ID)
	}

	claimed, err = store.ClaimClusteringJob(ctx)
	if err != nil {
		t.Fatalf("third claim: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected empty queue, got %+v", claimed)
	}
}

func TestCompleteClusteringJobRecordsMetrics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 10)
	job, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.ClaimClusteringJob(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}

	done, err := store.CompleteClusteringJob(ctx, job.ID, map[string]any{
		"n_clusters": float64(2),
		"noise_rows": float64(1),
		"input_rows": float64(10),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != queue.StatusComplete {
		t.Fatalf("status = %s", done.Status)
	}
	if done.Metrics["n_clusters"] != float64(2) {
		t.Fatalf("metrics not recorded: %v", done.Metrics)
	}
}

func TestSaveClusterResultsPartitionsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 5)
	job, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	results := []queue.ClusterWrite{
		{Label: 0, Members: []queue.RowRef{
			{EmbeddingSetID: set.ID, RowIndex: 0},
			{EmbeddingSetID: set.ID, RowIndex: 2},
			{EmbeddingSetID: set.ID, RowIndex: 4},
		}},
		{Label: -1, Members: []queue.RowRef{
			{EmbeddingSetID: set.ID, RowIndex: 1},
			{EmbeddingSetID: set.ID, RowIndex: 3},
		}},
	}
	saved, err := store.SaveClusterResults(ctx, job.ID, results)
	if err != nil {
		t.Fatalf("SaveClusterResults: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d clusters, want 2", len(saved))
	}

	clusters, err := store.ListClusters(ctx, job.ID)
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("listed %d clusters, want 2", len(clusters))
	}
	// Ordered by label: noise first.
	if clusters[0].Label != -1 || clusters[0].Size != 2 {
		t.Fatalf("unexpected first cluster: %+v", clusters[0])
	}
	if clusters[1].Label != 0 || clusters[1].Size != 3 {
		t.Fatalf("unexpected second cluster: %+v", clusters[1])
	}

	totalAssigned := 0
	seen := map[int]bool{}
	for _, cluster := range clusters {
		assignments, err := store.ListClusterAssignments(ctx, cluster.ID)
		if err != nil {
			t.Fatalf("ListClusterAssignments: %v", err)
		}
		if len(assignments) != cluster.Size {
			t.Fatalf("cluster %d assignments = %d, size = %d", cluster.Label, len(assignments), cluster.Size)
		}
		for _, assignment := range assignments {
			if seen[assignment.RowIndex] {
				t.Fatalf("row %d assigned twice", assignment.RowIndex)
			}
			seen[assignment.RowIndex] = true
			totalAssigned++
		}
	}
	if totalAssigned != 5 {
		t.Fatalf("assignments cover %d rows, want 5", totalAssigned)
	}
}

func TestSaveClusterResultsReplacesPriorRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 3)
	job, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first := []queue.ClusterWrite{
		{Label: 0, Members: []queue.RowRef{
			{EmbeddingSetID: set.ID, RowIndex: 0},
			{EmbeddingSetID: set.ID, RowIndex: 1},
			{EmbeddingSetID: set.ID, RowIndex: 2},
		}},
	}
	if _, err := store.SaveClusterResults(ctx, job.ID, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// A recovered job re-runs and lands on a different partition.
	second := []queue.ClusterWrite{
		{Label: 0, Members: []queue.RowRef{
			{EmbeddingSetID: set.ID, RowIndex: 0},
			{EmbeddingSetID: set.ID, RowIndex: 1},
		}},
		{Label: -1, Members: []queue.RowRef{{EmbeddingSetID: set.ID, RowIndex: 2}}},
	}
	if _, err := store.SaveClusterResults(ctx, job.ID, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	clusters, err := store.ListClusters(ctx, job.ID)
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("listed %d clusters after re-run, want 2", len(clusters))
	}
	total := 0
	for _, cluster := range clusters {
		assignments, err := store.ListClusterAssignments(ctx, cluster.ID)
		if err != nil {
			t.Fatalf("ListClusterAssignments: %v", err)
		}
		total += len(assignments)
	}
	if total != 3 {
		t.Fatalf("assignments after re-run = %d, want 3", total)
	}
}

func TestSaveClusterResultsRollsBackOnBadReference(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 2)
	job, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	results := []queue.ClusterWrite{
		{Label: 0, Members: []queue.RowRef{{EmbeddingSetID: set.ID, RowIndex: 0}}},
		{Label: 1, Members: []queue.RowRef{{EmbeddingSetID: "missing-set", RowIndex: 1}}},
	}
	if _, err := store.SaveClusterResults(ctx, job.ID, results); err == nil {
		t.Fatal("expected foreign key failure")
	}

	clusters, err := store.ListClusters(ctx, job.ID)
	if err != nil {
		t.Fatalf("ListClusters: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("partial batch visible after rollback: %d clusters", len(clusters))
	}
}

func TestCancelClusteringJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	audio := testsupport.MustAudioFile(t, store, "call.wav")
	set := insertEmbeddingSet(t, store, audio.ID, "sig-a", 2)
	job, err := store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{EmbeddingSetIDs: []string{set.ID}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	canceled, changed, err := store.CancelClusteringJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !changed || canceled.Status != queue.StatusCanceled {
		t.Fatalf("cancel changed=%v status=%s", changed, canceled.Status)
	}

	// Metrics from a late worker must not land on the canceled row.
	after, err := store.CompleteClusteringJob(ctx, job.ID, map[string]any{"n_clusters": float64(1)})
	if err != nil {
		t.Fatalf("complete after cancel: %v", err)
	}
	if after.Status != queue.StatusCanceled || after.Metrics != nil {
		t.Fatalf("terminal row modified: %+v", after)
	}
}
