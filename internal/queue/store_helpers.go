package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const audioFileColumns = "id, filename, folder_path, duration_seconds, sample_rate, checksum_sha256, created_at"

const processingJobColumns = "id, audio_file_id, status, encoding_signature, model_name, window_seconds, sample_rate, feature_config, error_message, warning_message, created_at, updated_at"

const embeddingSetColumns = "id, audio_file_id, encoding_signature, model_name, window_seconds, sample_rate, vector_dim, artifact_path, row_count, created_at"

const clusteringJobColumns = "id, status, embedding_set_ids, params, metrics, error_message, created_at, updated_at"

const clusterColumns = "id, clustering_job_id, label, size, created_at"

const clusterAssignmentColumns = "id, cluster_id, embedding_set_id, row_index, created_at"

const modelConfigColumns = "id, name, display_name, runtime, endpoint, vector_dim, input_format, description, is_default, created_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanAudioFile(scanner rowScanner) (*AudioFile, error) {
	var (
		id         string
		filename   string
		folderPath string
		duration   sql.NullFloat64
		sampleRate sql.NullInt64
		checksum   string
		createdRaw string
	)
	if err := scanner.Scan(&id, &filename, &folderPath, &duration, &sampleRate, &checksum, &createdRaw); err != nil {
		return nil, err
	}

	file := &AudioFile{
		ID:             id,
		Filename:       filename,
		FolderPath:     folderPath,
		ChecksumSHA256: checksum,
	}
	if duration.Valid {
		v := duration.Float64
		file.DurationSeconds = &v
	}
	if sampleRate.Valid {
		v := int(sampleRate.Int64)
		file.SampleRate = &v
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		file.CreatedAt = created
	}
	return file, nil
}

func scanProcessingJob(scanner rowScanner) (*ProcessingJob, error) {
	var (
		id            string
		audioFileID   string
		statusStr     string
		signatureStr  string
		modelName     string
		windowSeconds float64
		sampleRate    int
		featureRaw    sql.NullString
		errorMessage  sql.NullString
		warningMsg    sql.NullString
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&id,
		&audioFileID,
		&statusStr,
		&signatureStr,
		&modelName,
		&windowSeconds,
		&sampleRate,
		&featureRaw,
		&errorMessage,
		&warningMsg,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &ProcessingJob{
		ID:                id,
		AudioFileID:       audioFileID,
		Status:            Status(statusStr),
		EncodingSignature: signatureStr,
		ModelName:         modelName,
		WindowSeconds:     windowSeconds,
		SampleRate:        sampleRate,
		ErrorMessage:      errorMessage.String,
		WarningMessage:    warningMsg.String,
	}
	feature, err := decodeJSONMap(featureRaw)
	if err != nil {
		return nil, fmt.Errorf("processing job %s: feature_config: %w", id, err)
	}
	job.FeatureConfig = feature
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func scanEmbeddingSet(scanner rowScanner) (*EmbeddingSet, error) {
	var (
		id            string
		audioFileID   string
		signatureStr  string
		modelName     string
		windowSeconds float64
		sampleRate    int
		vectorDim     int
		artifactPath  string
		rowCount      int
		createdRaw    string
	)
	if err := scanner.Scan(
		&id,
		&audioFileID,
		&signatureStr,
		&modelName,
		&windowSeconds,
		&sampleRate,
		&vectorDim,
		&artifactPath,
		&rowCount,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	set := &EmbeddingSet{
		ID:                id,
		AudioFileID:       audioFileID,
		EncodingSignature: signatureStr,
		ModelName:         modelName,
		WindowSeconds:     windowSeconds,
		SampleRate:        sampleRate,
		VectorDim:         vectorDim,
		ArtifactPath:      artifactPath,
		RowCount:          rowCount,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		set.CreatedAt = created
	}
	return set, nil
}

func scanClusteringJob(scanner rowScanner) (*ClusteringJob, error) {
	var (
		id           string
		statusStr    string
		setIDsRaw    string
		paramsRaw    sql.NullString
		metricsRaw   sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&id,
		&statusStr,
		&setIDsRaw,
		&paramsRaw,
		&metricsRaw,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &ClusteringJob{
		ID:           id,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
	}
	setIDs, err := decodeStringSlice(setIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("clustering job %s: embedding_set_ids: %w", id, err)
	}
	job.EmbeddingSetIDs = setIDs
	params, err := decodeJSONMap(paramsRaw)
	if err != nil {
		return nil, fmt.Errorf("clustering job %s: params: %w", id, err)
	}
	job.Params = params
	metrics, err := decodeJSONMap(metricsRaw)
	if err != nil {
		return nil, fmt.Errorf("clustering job %s: metrics: %w", id, err)
	}
	job.Metrics = metrics
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func scanCluster(scanner rowScanner) (*Cluster, error) {
	var (
		id         string
		jobID      string
		label      int
		size       int
		createdRaw string
	)
	if err := scanner.Scan(&id, &jobID, &label, &size, &createdRaw); err != nil {
		return nil, err
	}
	cluster := &Cluster{ID: id, ClusteringJobID: jobID, Label: label, Size: size}
	if created, err := parseTimeString(createdRaw); err == nil {
		cluster.CreatedAt = created
	}
	return cluster, nil
}

func scanClusterAssignment(scanner rowScanner) (*ClusterAssignment, error) {
	var (
		id         string
		clusterID  string
		setID      string
		rowIndex   int
		createdRaw string
	)
	if err := scanner.Scan(&id, &clusterID, &setID, &rowIndex, &createdRaw); err != nil {
		return nil, err
	}
	assignment := &ClusterAssignment{ID: id, ClusterID: clusterID, EmbeddingSetID: setID, RowIndex: rowIndex}
	if created, err := parseTimeString(createdRaw); err == nil {
		assignment.CreatedAt = created
	}
	return assignment, nil
}

func scanModelConfig(scanner rowScanner) (*ModelConfig, error) {
	var (
		id          string
		name        string
		displayName string
		runtime     string
		endpoint    sql.NullString
		vectorDim   int
		inputFormat string
		description sql.NullString
		isDefault   int
		createdRaw  string
	)
	if err := scanner.Scan(
		&id,
		&name,
		&displayName,
		&runtime,
		&endpoint,
		&vectorDim,
		&inputFormat,
		&description,
		&isDefault,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	model := &ModelConfig{
		ID:          id,
		Name:        name,
		DisplayName: displayName,
		Runtime:     runtime,
		Endpoint:    endpoint.String,
		VectorDim:   vectorDim,
		InputFormat: inputFormat,
		Description: description.String,
		IsDefault:   isDefault != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		model.CreatedAt = created
	}
	return model, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func encodeJSONMap(values map[string]any) (any, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

func decodeJSONMap(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return values, nil
}

func encodeStringSlice(values []string) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

func decodeStringSlice(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return values, nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
