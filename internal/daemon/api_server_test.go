package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finback/internal/api"
	"finback/internal/config"
	"finback/internal/inference"
	"finback/internal/logging"
	"finback/internal/pipeline"
	"finback/internal/queue"
	"finback/internal/storage"
	"finback/internal/testsupport"
	"finback/internal/worker"
)

type serverFixture struct {
	cfg     *config.Config
	store   *queue.Store
	handler http.Handler
}

func newServerFixture(t *testing.T, mutate func(cfg *config.Config)) *serverFixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	layout, err := storage.NewLayout(cfg.Paths.StorageDir)
	if err != nil {
		t.Fatalf("storage.NewLayout: %v", err)
	}
	logger := logging.NewNop()
	w := worker.New(cfg, store,
		pipeline.NewProcessing(store, layout, inference.NewCache(store, cfg), logger),
		pipeline.NewClustering(store, layout, nil, logger),
		logger,
	)
	d, err := New(cfg, store, logger, w, api.NewService(cfg, store, layout))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.api == nil {
		t.Fatal("expected an api server for a configured bind address")
	}
	return &serverFixture{cfg: cfg, store: store, handler: d.api.server.Handler}
}

func (f *serverFixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	return f.do(t, method, path, &body, "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func multipartUpload(t *testing.T, filename string, payload []byte, folderPath string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if folderPath != "" {
		if err := writer.WriteField("folderPath", folderPath); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestAPIServerAudioEndpoints(t *testing.T) {
	fixture := newServerFixture(t, nil)
	payload := []byte("not really audio but stable bytes")

	body, contentType := multipartUpload(t, "reef.wav", payload, "pacific/2026")
	rec := fixture.do(t, http.MethodPost, "/api/audio", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d body %s", rec.Code, rec.Body.String())
	}
	uploaded := decodeBody[api.AudioIngestResponse](t, rec)
	if !uploaded.Created || uploaded.ID == "" || uploaded.Filename != "reef.wav" {
		t.Fatalf("upload response = %+v", uploaded)
	}
	if uploaded.FolderPath != "pacific/2026" {
		t.Fatalf("folder path = %q", uploaded.FolderPath)
	}

	body, contentType = multipartUpload(t, "copy.wav", payload, "")
	rec = fixture.do(t, http.MethodPost, "/api/audio", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate upload status = %d", rec.Code)
	}
	duplicate := decodeBody[api.AudioIngestResponse](t, rec)
	if duplicate.Created || duplicate.ID != uploaded.ID {
		t.Fatalf("duplicate response = %+v", duplicate)
	}

	rec = fixture.do(t, http.MethodGet, "/api/audio", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[api.AudioListResponse](t, rec)
	if len(list.Files) != 1 {
		t.Fatalf("file count = %d", len(list.Files))
	}

	rec = fixture.do(t, http.MethodGet, "/api/audio/"+uploaded.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("describe status = %d", rec.Code)
	}
	rec = fixture.do(t, http.MethodGet, "/api/audio/absent", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing file status = %d", rec.Code)
	}
	rec = fixture.do(t, http.MethodPost, "/api/audio", &bytes.Buffer{}, "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart upload status = %d", rec.Code)
	}
}

func TestAPIServerProcessingEndpoints(t *testing.T) {
	fixture := newServerFixture(t, nil)
	file := testsupport.MustAudioFile(t, fixture.store, "song.wav")

	rec := fixture.doJSON(t, http.MethodPost, "/api/processing/jobs", api.CreateProcessingJobRequest{
		AudioFileID: file.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body %s", rec.Code, rec.Body.String())
	}
	submitted := decodeBody[api.ProcessingSubmitResponse](t, rec)
	if submitted.Skipped || submitted.Job.Status != string(queue.StatusQueued) {
		t.Fatalf("submit response = %+v", submitted)
	}

	rec = fixture.do(t, http.MethodGet, "/api/processing/jobs?status=queued", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	listed := decodeBody[api.ProcessingJobListResponse](t, rec)
	if len(listed.Jobs) != 1 || listed.Jobs[0].ID != submitted.Job.ID {
		t.Fatalf("list response = %+v", listed)
	}

	rec = fixture.do(t, http.MethodGet, "/api/processing/jobs?status=bogus", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad filter status = %d", rec.Code)
	}

	rec = fixture.do(t, http.MethodGet, "/api/processing/jobs/"+submitted.Job.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("describe status = %d", rec.Code)
	}

	rec = fixture.do(t, http.MethodPost, "/api/processing/jobs/"+submitted.Job.ID+"/cancel", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	canceled := decodeBody[api.ProcessingCancelResponse](t, rec)
	if !canceled.Canceled || canceled.Job.Status != string(queue.StatusCanceled) {
		t.Fatalf("cancel response = %+v", canceled)
	}

	rec = fixture.do(t, http.MethodPost, "/api/processing/jobs/missing/cancel", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing cancel status = %d", rec.Code)
	}

	rec = fixture.doJSON(t, http.MethodPost, "/api/processing/jobs", api.CreateProcessingJobRequest{
		AudioFileID: "not-there",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown audio status = %d", rec.Code)
	}
	rec = fixture.do(t, http.MethodPost, "/api/processing/jobs", bytes.NewBufferString("{"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", rec.Code)
	}
}

func TestAPIServerClusteringEndpoints(t *testing.T) {
	fixture := newServerFixture(t, nil)
	ctx := context.Background()

	file := testsupport.MustAudioFile(t, fixture.store, "clip.wav")
	set, err := fixture.store.InsertEmbeddingSet(ctx, &queue.EmbeddingSet{
		AudioFileID:       file.ID,
		EncodingSignature: testsupport.UniqueSignature("http"),
		ModelName:         fixture.cfg.Model.DefaultName,
		WindowSeconds:     fixture.cfg.Model.WindowSeconds,
		SampleRate:        fixture.cfg.Model.SampleRate,
		VectorDim:         8,
		ArtifactPath:      "embeddings/" + file.ID + ".parquet",
		RowCount:          3,
	})
	if err != nil {
		t.Fatalf("InsertEmbeddingSet: %v", err)
	}

	rec := fixture.doJSON(t, http.MethodPost, "/api/clustering/jobs", api.CreateClusteringJobRequest{
		EmbeddingSetIDs: []string{"missing"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown set status = %d", rec.Code)
	}

	rec = fixture.doJSON(t, http.MethodPost, "/api/clustering/jobs", api.CreateClusteringJobRequest{
		EmbeddingSetIDs: []string{set.ID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[api.ClusteringJobResponse](t, rec)

	rec = fixture.do(t, http.MethodGet, "/api/clustering/jobs/"+created.Job.ID+"/clusters", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clusters status = %d", rec.Code)
	}
	clusters := decodeBody[api.ClusterListResponse](t, rec)
	if len(clusters.Clusters) != 0 {
		t.Fatalf("cluster count = %d", len(clusters.Clusters))
	}

	rec = fixture.do(t, http.MethodGet, "/api/clustering/jobs/missing/clusters", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job clusters status = %d", rec.Code)
	}

	rec = fixture.do(t, http.MethodGet, "/api/embedding-sets/"+set.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("embedding set status = %d", rec.Code)
	}
	setView := decodeBody[api.EmbeddingSetResponse](t, rec)
	if setView.Set.RowCount != 3 {
		t.Fatalf("row count = %d", setView.Set.RowCount)
	}
}

func TestAPIServerModelAndStatusEndpoints(t *testing.T) {
	fixture := newServerFixture(t, nil)

	rec := fixture.doJSON(t, http.MethodPost, "/api/models", api.CreateModelRequest{
		Name:      "reef_model",
		IsDefault: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create model status = %d body %s", rec.Code, rec.Body.String())
	}
	rec = fixture.doJSON(t, http.MethodPost, "/api/models", api.CreateModelRequest{Name: "reef_model"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate model status = %d", rec.Code)
	}

	rec = fixture.do(t, http.MethodGet, "/api/models", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list models status = %d", rec.Code)
	}
	models := decodeBody[api.ModelListResponse](t, rec)
	if len(models.Models) != 1 || models.Models[0].Name != "reef_model" {
		t.Fatalf("models = %+v", models.Models)
	}

	rec = fixture.do(t, http.MethodGet, "/api/status", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status status = %d", rec.Code)
	}
	status := decodeBody[api.StatusResponse](t, rec)
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.DefaultModel != "reef_model" {
		t.Fatalf("default model = %q", status.DefaultModel)
	}
	if _, ok := status.Queue.Processing[string(queue.StatusQueued)]; !ok {
		t.Fatal("queue stats missing queued bucket")
	}
}

func TestAPIServerRequiresBearerToken(t *testing.T) {
	fixture := newServerFixture(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "sekrit"
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Fatalf("body = %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	fixture.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d body %s", rec.Code, rec.Body.String())
	}
}
