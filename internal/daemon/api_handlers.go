package daemon

import (
	"net/http"
	"strings"

	"finback/internal/api"
)

// splitItemPath extracts the item id and optional trailing action from a
// collection sub-path, e.g. "/api/processing/jobs/<id>/cancel".
func splitItemPath(path, prefix string) (string, string, bool) {
	rest, found := strings.CutPrefix(path, prefix)
	if !found || rest == "" {
		return "", "", false
	}
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	return id, action, true
}

func (s *apiServer) handleAudioCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		files, err := s.service.ListAudioFiles(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.AudioListResponse{Files: files})
	case http.MethodPost:
		s.handleAudioUpload(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleAudioUpload(w http.ResponseWriter, r *http.Request) {
	upload, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer upload.Close()

	view, created, err := s.service.IngestAudio(r.Context(), api.IngestAudioRequest{
		Filename:   header.Filename,
		FolderPath: r.FormValue("folderPath"),
		Source:     upload,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, api.AudioIngestResponse{AudioFileView: *view, Created: created})
}

func (s *apiServer) handleAudioItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, action, ok := splitItemPath(r.URL.Path, "/api/audio/")
	if !ok || action != "" {
		s.writeError(w, http.StatusNotFound, "audio file not found")
		return
	}
	view, err := s.service.DescribeAudioFile(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if view == nil {
		s.writeError(w, http.StatusNotFound, "audio file not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.AudioFileResponse{File: *view})
}

func (s *apiServer) handleProcessingCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		statuses, err := parseStatusFilter(r.URL.Query()["status"])
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		jobs, err := s.service.ListProcessingJobs(r.Context(), statuses...)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ProcessingJobListResponse{Jobs: jobs})
	case http.MethodPost:
		var req api.CreateProcessingJobRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		job, skipped, err := s.service.CreateProcessingJob(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.ProcessingSubmitResponse{Job: *job, Skipped: skipped})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleProcessingItem(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitItemPath(r.URL.Path, "/api/processing/jobs/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "processing job not found")
		return
	}
	switch action {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, err := s.service.DescribeProcessingJob(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if view == nil {
			s.writeError(w, http.StatusNotFound, "processing job not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ProcessingJobResponse{Job: *view})
	case "cancel":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, canceled, err := s.service.CancelProcessingJob(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if view == nil {
			s.writeError(w, http.StatusNotFound, "processing job not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ProcessingCancelResponse{Job: *view, Canceled: canceled})
	default:
		s.writeError(w, http.StatusNotFound, "processing job not found")
	}
}

func (s *apiServer) handleEmbeddingSetCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sets, err := s.service.ListEmbeddingSets(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.EmbeddingSetListResponse{Sets: sets})
}

func (s *apiServer) handleEmbeddingSetItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, action, ok := splitItemPath(r.URL.Path, "/api/embedding-sets/")
	if !ok || action != "" {
		s.writeError(w, http.StatusNotFound, "embedding set not found")
		return
	}
	view, err := s.service.DescribeEmbeddingSet(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if view == nil {
		s.writeError(w, http.StatusNotFound, "embedding set not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.EmbeddingSetResponse{Set: *view})
}

func (s *apiServer) handleClusteringCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		statuses, err := parseStatusFilter(r.URL.Query()["status"])
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		jobs, err := s.service.ListClusteringJobs(r.Context(), statuses...)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClusteringJobListResponse{Jobs: jobs})
	case http.MethodPost:
		var req api.CreateClusteringJobRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		job, err := s.service.CreateClusteringJob(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.ClusteringJobResponse{Job: *job})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleClusteringItem(w http.ResponseWriter, r *http.Request) {
	id, action, ok := splitItemPath(r.URL.Path, "/api/clustering/jobs/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "clustering job not found")
		return
	}
	switch action {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, err := s.service.DescribeClusteringJob(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if view == nil {
			s.writeError(w, http.StatusNotFound, "clustering job not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClusteringJobResponse{Job: *view})
	case "cancel":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, canceled, err := s.service.CancelClusteringJob(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if view == nil {
			s.writeError(w, http.StatusNotFound, "clustering job not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClusteringCancelResponse{Job: *view, Canceled: canceled})
	case "clusters":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		job, err := s.service.DescribeClusteringJob(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if job == nil {
			s.writeError(w, http.StatusNotFound, "clustering job not found")
			return
		}
		clusters, err := s.service.ListClusters(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClusterListResponse{Clusters: clusters})
	default:
		s.writeError(w, http.StatusNotFound, "clustering job not found")
	}
}

func (s *apiServer) handleClusterAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, action, ok := splitItemPath(r.URL.Path, "/api/clusters/")
	if !ok || action != "assignments" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	assignments, err := s.service.ListClusterAssignments(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AssignmentListResponse{Assignments: assignments})
}

func (s *apiServer) handleModels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		models, err := s.service.ListModels(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ModelListResponse{Models: models})
	case http.MethodPost:
		var req api.CreateModelRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		model, err := s.service.CreateModel(r.Context(), req)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.ModelResponse{Model: *model})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
